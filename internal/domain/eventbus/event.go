package eventbus

import (
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/spf13/cast"
)

// 事件名称全集，所有跨组件通信只允许使用以下事件
const (
	// 生产者事件（硬件/ML侧）
	EventWakeWordDetected    = "wake-word-detected"
	EventButtonPressed       = "button-pressed"
	EventButtonDoublePressed = "button-double-pressed"
	EventRecordingStarted    = "recording-started"
	EventRecordingFinished   = "recording-finished"
	EventIntentDetected      = "intent-detected"
	EventIntentReady         = "intent-ready"
	EventTTSConfirmation     = "tts-confirmation"

	// 动作请求事件（状态机决策后发出）
	EventPauseRequested         = "pause-requested"
	EventContinueRequested      = "continue-requested"
	EventNextTrackRequested     = "next-track-requested"
	EventPreviousTrackRequested = "previous-track-requested"
	EventPlayRequested          = "play-requested"
	EventPlayFavoritesRequested = "play-favorites-requested"
	EventAddFavoriteRequested   = "add-favorite-requested"
	EventVolumeUpRequested      = "volume-up-requested"
	EventVolumeDownRequested    = "volume-down-requested"
	EventSetVolumeRequested     = "set-volume-requested"
	EventSleepTimerRequested    = "sleep-timer-requested"
	EventRepeatModeRequested    = "repeat-mode-requested"
	EventShuffleRequested       = "shuffle-requested"
	EventQueueAddRequested      = "queue-add-requested"

	// 曲库解析事件
	EventMusicSearchRequested = "music-search-requested"
	EventMusicResolved        = "music-resolved"
)

var knownEvents = map[string]struct{}{
	EventWakeWordDetected:       {},
	EventButtonPressed:          {},
	EventButtonDoublePressed:    {},
	EventRecordingStarted:       {},
	EventRecordingFinished:      {},
	EventIntentDetected:         {},
	EventIntentReady:            {},
	EventTTSConfirmation:        {},
	EventPauseRequested:         {},
	EventContinueRequested:      {},
	EventNextTrackRequested:     {},
	EventPreviousTrackRequested: {},
	EventPlayRequested:          {},
	EventPlayFavoritesRequested: {},
	EventAddFavoriteRequested:   {},
	EventVolumeUpRequested:      {},
	EventVolumeDownRequested:    {},
	EventSetVolumeRequested:     {},
	EventSleepTimerRequested:    {},
	EventRepeatModeRequested:    {},
	EventShuffleRequested:       {},
	EventQueueAddRequested:      {},
	EventMusicSearchRequested:   {},
	EventMusicResolved:          {},
}

// IsKnownEvent 判断事件名是否在白名单内
func IsKnownEvent(name string) bool {
	_, ok := knownEvents[name]
	return ok
}

// KnownEvents 返回全部合法事件名
func KnownEvents() []string {
	names := make([]string, 0, len(knownEvents))
	for name := range knownEvents {
		names = append(names, name)
	}
	return names
}

// ControlEvent 控制事件，总线上的唯一通信单元
// 构造完成后不可再修改，Payload 由创建方填充、订阅方只读
type ControlEvent struct {
	Name          string                 `json:"name"`
	Payload       map[string]interface{} `json:"payload,omitempty"`
	Timestamp     time.Time              `json:"timestamp"`
	Source        string                 `json:"source,omitempty"`
	CorrelationID string                 `json:"correlation_id,omitempty"`
}

// NewControlEvent 创建控制事件，自动生成时间戳和关联ID
func NewControlEvent(name string, payload map[string]interface{}) *ControlEvent {
	return &ControlEvent{
		Name:          name,
		Payload:       payload,
		Timestamp:     time.Now(),
		CorrelationID: uuid.NewString(),
	}
}

// WithSource 返回带来源标识的事件副本
func (e *ControlEvent) WithSource(source string) *ControlEvent {
	clone := *e
	clone.Source = source
	return &clone
}

// WithCorrelation 返回沿用指定关联ID的事件副本，用于跨事件串联同一次交互
func (e *ControlEvent) WithCorrelation(correlationID string) *ControlEvent {
	clone := *e
	if correlationID != "" {
		clone.CorrelationID = correlationID
	}
	return &clone
}

// IntField 读取整型载荷字段，缺失或类型不符时返回默认值
func (e *ControlEvent) IntField(key string, def int) int {
	v, ok := e.Payload[key]
	if !ok || v == nil {
		return def
	}
	parsed, err := cast.ToIntE(v)
	if err != nil {
		return def
	}
	return parsed
}

// BoolField 读取布尔载荷字段
func (e *ControlEvent) BoolField(key string, def bool) bool {
	v, ok := e.Payload[key]
	if !ok || v == nil {
		return def
	}
	parsed, err := cast.ToBoolE(v)
	if err != nil {
		return def
	}
	return parsed
}

// StringField 读取字符串载荷字段
func (e *ControlEvent) StringField(key string, def string) string {
	v, ok := e.Payload[key]
	if !ok || v == nil {
		return def
	}
	parsed, err := cast.ToStringE(v)
	if err != nil {
		return def
	}
	return parsed
}

// FloatField 读取浮点载荷字段
func (e *ControlEvent) FloatField(key string, def float64) float64 {
	v, ok := e.Payload[key]
	if !ok || v == nil {
		return def
	}
	parsed, err := cast.ToFloat64E(v)
	if err != nil {
		return def
	}
	return parsed
}

// String 返回事件的JSON表示，用于日志输出
func (e *ControlEvent) String() string {
	s, err := sonic.MarshalString(e)
	if err != nil {
		return e.Name
	}
	return s
}
