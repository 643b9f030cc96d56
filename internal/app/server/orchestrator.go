package server

import (
	"context"
	"errors"
	"sync"

	"musicbox-server-golang/internal/domain/eventbus"

	log "musicbox-server-golang/logger"

	"github.com/panjf2000/ants/v2"
)

// CommandPipeline 语音指令处理管线（录音→转写→意图→TTS确认）
// 由外部模块实现; Run阻塞直到整条管线结束
type CommandPipeline interface {
	Run(ctx context.Context, trigger *eventbus.ControlEvent) error
}

// Orchestrator 顶层编排
// 全系统同一时刻至多运行一条语音指令管线, 多余的唤醒事件直接丢弃;
// 投递通道在构造后二选一绑定: 总线订阅或直连回调, 不允许同时绑定
type Orchestrator struct {
	pipeline CommandPipeline
	pool     *ants.Pool

	mu           sync.Mutex
	isProcessing bool

	bindMu   sync.Mutex
	delivery string // "" | "bus" | "callback"
}

// NewOrchestrator 创建编排器
// worker池只有一个协程: 并发上限由isProcessing标记保证,
// 池的作用是把管线执行挪出总线分发协程
func NewOrchestrator(pipeline CommandPipeline) (*Orchestrator, error) {
	if pipeline == nil {
		pipeline = noopPipeline{}
	}
	pool, err := ants.NewPool(1)
	if err != nil {
		return nil, err
	}
	return &Orchestrator{
		pipeline: pipeline,
		pool:     pool,
	}, nil
}

// BindBus 绑定总线投递通道, 管线在独立worker上执行
func (o *Orchestrator) BindBus(bus *eventbus.EventBus) error {
	o.bindMu.Lock()
	defer o.bindMu.Unlock()
	if o.delivery != "" {
		return errors.New("orchestrator delivery already bound: " + o.delivery)
	}
	o.delivery = "bus"
	bus.Subscribe(eventbus.EventWakeWordDetected, func(event *eventbus.ControlEvent) {
		o.handleWakeWord(event, true)
	})
	return nil
}

// WakeWordCallback 绑定直连回调投递通道（无总线场景）, 管线就地执行
func (o *Orchestrator) WakeWordCallback() (func(*eventbus.ControlEvent), error) {
	o.bindMu.Lock()
	defer o.bindMu.Unlock()
	if o.delivery != "" {
		return nil, errors.New("orchestrator delivery already bound: " + o.delivery)
	}
	o.delivery = "callback"
	return func(event *eventbus.ControlEvent) {
		o.handleWakeWord(event, false)
	}, nil
}

// Close 释放worker池
func (o *Orchestrator) Close() {
	o.pool.Release()
}

// IsProcessing 返回是否有管线在执行
func (o *Orchestrator) IsProcessing() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.isProcessing
}

func (o *Orchestrator) handleWakeWord(event *eventbus.ControlEvent, async bool) {
	o.mu.Lock()
	if o.isProcessing {
		o.mu.Unlock()
		log.Warnf("已有语音指令管线在执行, 丢弃唤醒事件 %s", event.CorrelationID)
		return
	}
	o.isProcessing = true
	o.mu.Unlock()

	run := func() {
		defer o.release()
		if err := o.pipeline.Run(context.Background(), event); err != nil {
			log.Errorf("语音指令管线执行失败: %v", err)
		}
	}

	if !async {
		run()
		return
	}
	// 管线可能长时间阻塞, 绝不能占住总线分发协程
	if err := o.pool.Submit(run); err != nil {
		o.release()
		log.Errorf("提交语音指令管线任务失败: %v", err)
	}
}

// release 无论管线如何结束都必须清除执行中标记
func (o *Orchestrator) release() {
	o.mu.Lock()
	o.isProcessing = false
	o.mu.Unlock()
}

// noopPipeline 未注入管线时的占位实现
type noopPipeline struct{}

func (noopPipeline) Run(ctx context.Context, trigger *eventbus.ControlEvent) error {
	log.Warnf("未配置语音指令管线, 唤醒事件 %s 不产生任何动作", trigger.CorrelationID)
	return nil
}
