package button

import "time"

// Action 驱动对外暴露的动作，由路由层翻译成总线事件
type Action string

const (
	ActionPlayPause  Action = "play_pause"
	ActionNextTrack  Action = "next_track"
	ActionVolumeUp   Action = "volume_up"
	ActionVolumeDown Action = "volume_down"
)

// RawEventType 原始输入事件类型
type RawEventType int

const (
	RawEventKey RawEventType = iota
	RawEventRelative
)

// KeyCode 按键码，取值对齐linux input-event-codes
type KeyCode uint16

const (
	KeyVolumeDown   KeyCode = 114
	KeyVolumeUp     KeyCode = 115
	KeyNextSong     KeyCode = 163
	KeyPlayPause    KeyCode = 164
	KeyPreviousSong KeyCode = 165
)

// RelCode 相对轴编码（旋钮）
type RelCode uint16

const (
	RelDial  RelCode = 7
	RelWheel RelCode = 8
)

// RawEvent 从输入设备读到的原始事件
type RawEvent struct {
	Type  RawEventType
	Key   KeyCode
	Rel   RelCode
	Value int32 // 按键: 1=按下 0=抬起; 旋钮: 增量
}

// InputDevice 输入设备句柄
// ReadEvent阻塞读取下一个事件，设备拔出时返回错误
type InputDevice interface {
	ReadEvent() (RawEvent, error)
	Close() error
}

// DeviceOpener 设备发现/打开函数，热插拔重连循环反复调用
type DeviceOpener func(device string) (InputDevice, error)

// Config 驱动配置
type Config struct {
	Device             string
	DoublePressWindow  time.Duration
	LongPressThreshold time.Duration
}
