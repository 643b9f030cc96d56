package config

import "time"

// BusConfig 事件总线配置
type BusConfig struct {
	QueueSize        int    `json:"queue_size"`
	DropPolicy       string `json:"drop_policy"` // drop_new | drop_oldest
	EnforceWhitelist bool   `json:"enforce_whitelist"`
}

// PlayerConfig 播放器配置
type PlayerConfig struct {
	Provider       string                 `json:"provider"`
	Config         map[string]interface{} `json:"config"`
	DefaultShuffle bool                   `json:"default_shuffle"`
}

// VolumeConfig 音量配置
type VolumeConfig struct {
	Step int `json:"step"`
	Max  int `json:"max"`
}

// ButtonConfig USB按键/旋钮配置
type ButtonConfig struct {
	Enabled            bool          `json:"enabled"`
	Device             string        `json:"device"`
	DoublePressWindow  time.Duration `json:"double_press_window"`
	LongPressThreshold time.Duration `json:"long_press_threshold"`
}

// MusicConfig 曲库解析配置
type MusicConfig struct {
	Provider       string                 `json:"provider"`
	Config         map[string]interface{} `json:"config"`
	ResolveTimeout time.Duration          `json:"resolve_timeout"`
}

// WakeWordConfig 唤醒词配置
type WakeWordConfig struct {
	Enabled  bool                   `json:"enabled"`
	Provider string                 `json:"provider"`
	Config   map[string]interface{} `json:"config"`
}

// SleepTimerConfig 睡眠定时器配置
type SleepTimerConfig struct {
	FadeSeconds int `json:"fade_seconds"`
}
