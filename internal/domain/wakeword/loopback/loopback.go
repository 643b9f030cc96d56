package loopback

import (
	"context"
	"errors"
	"sync"
	"time"

	"musicbox-server-golang/internal/domain/wakeword/inter"
)

// Detector 回环唤醒词检测器
// 不做任何声学推理，通过Trigger手动触发命中，用于开发调试和测试
type Detector struct {
	mu          sync.Mutex
	onDetection func(inter.Detection)
	running     bool
}

// NewDetector 创建回环检测器
func NewDetector(config map[string]interface{}) *Detector {
	return &Detector{}
}

func (d *Detector) Start(ctx context.Context, onDetection func(inter.Detection)) error {
	if onDetection == nil {
		return errors.New("onDetection callback is nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return errors.New("detector already started")
	}
	d.onDetection = onDetection
	d.running = true
	return nil
}

func (d *Detector) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.running = false
	d.onDetection = nil
	return nil
}

// Trigger 手动触发一次唤醒词命中
func (d *Detector) Trigger(keyword string) {
	d.mu.Lock()
	callback := d.onDetection
	d.mu.Unlock()
	if callback != nil {
		callback(inter.Detection{
			Keyword:    keyword,
			Confidence: 1.0,
			Timestamp:  time.Now(),
		})
	}
}
