package constants

// 意图类型（语音指令管线在 intent-ready / tts-confirmation 事件中携带）
const (
	IntentPlayMusic     = "play_music"
	IntentPlayFavorites = "play_favorites"
	IntentPause         = "pause"
	IntentStop          = "stop"
	IntentContinue      = "continue"
	IntentResume        = "resume"
	IntentNext          = "next"
	IntentPrevious      = "previous"
	IntentVolumeUp      = "volume_up"
	IntentVolumeDown    = "volume_down"
	IntentSetVolume     = "set_volume"
	IntentAddFavorite   = "add_favorite"
	IntentSleepTimer    = "sleep_timer"
	IntentRepeat        = "repeat"
	IntentShuffle       = "shuffle"
	IntentQueueAdd      = "queue_add"
)

// 播放器提供商类型
const (
	PlayerTypeLoopback = "loopback"
)

// 曲库解析提供商类型
const (
	ResolverTypeLoopback = "loopback"
)

// 唤醒词提供商类型
const (
	WakeWordTypeLoopback = "loopback"
)

// 事件总线丢弃策略
const (
	DropPolicyNew    = "drop_new"
	DropPolicyOldest = "drop_oldest"
)

// 重复播放模式
const (
	RepeatModeOff      = "off"
	RepeatModeSingle   = "single"
	RepeatModePlaylist = "playlist"
)

// 默认配置值
const (
	DefaultQueueSize          = 64
	DefaultVolumeStep         = 5
	DefaultMaxVolume          = 100
	DefaultSleepTimerMinutes  = 30
	DefaultDoublePressWindow  = 400 // 毫秒
	DefaultLongPressThreshold = 800 // 毫秒
	DefaultResolveTimeoutMs   = 5000
	DefaultFadeSeconds        = 30
)
