package inter

import (
	"context"
	"time"
)

// Detection 一次唤醒词命中
type Detection struct {
	Keyword    string    `json:"keyword"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// Detector 唤醒词检测接口
// 声学推理由外部模块实现，核心只消费回调；Stop后不得再触发回调
type Detector interface {
	Start(ctx context.Context, onDetection func(Detection)) error
	Stop() error
}
