package config

import (
	"fmt"
	"time"

	"musicbox-server-golang/constants"

	"github.com/spf13/viper"
)

// Init 读取配置文件并初始化全局viper实例
func Init(configFile string) error {
	viper.SetConfigFile(configFile)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("读取配置文件 %s 失败: %w", configFile, err)
	}
	return nil
}

// GetBusConfig 获取事件总线配置
func GetBusConfig() BusConfig {
	cfg := BusConfig{
		QueueSize:        viper.GetInt("bus.queue_size"),
		DropPolicy:       viper.GetString("bus.drop_policy"),
		EnforceWhitelist: true,
	}
	if viper.IsSet("bus.enforce_whitelist") {
		cfg.EnforceWhitelist = viper.GetBool("bus.enforce_whitelist")
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = constants.DefaultQueueSize
	}
	if cfg.DropPolicy != constants.DropPolicyOldest {
		cfg.DropPolicy = constants.DropPolicyNew
	}
	return cfg
}

// GetPlayerConfig 获取播放器配置
func GetPlayerConfig() PlayerConfig {
	return PlayerConfig{
		Provider:       viper.GetString("player.provider"),
		Config:         viper.GetStringMap("player." + viper.GetString("player.provider")),
		DefaultShuffle: viper.GetBool("player.default_shuffle"),
	}
}

// GetVolumeConfig 获取音量配置
func GetVolumeConfig() VolumeConfig {
	cfg := VolumeConfig{
		Step: viper.GetInt("volume.step"),
		Max:  viper.GetInt("volume.max"),
	}
	if cfg.Step <= 0 {
		cfg.Step = constants.DefaultVolumeStep
	}
	if cfg.Max <= 0 || cfg.Max > constants.DefaultMaxVolume {
		cfg.Max = constants.DefaultMaxVolume
	}
	return cfg
}

// GetButtonConfig 获取USB按键配置
func GetButtonConfig() ButtonConfig {
	cfg := ButtonConfig{
		Enabled:            viper.GetBool("button.enabled"),
		Device:             viper.GetString("button.device"),
		DoublePressWindow:  time.Duration(viper.GetInt("button.double_press_window_ms")) * time.Millisecond,
		LongPressThreshold: time.Duration(viper.GetInt("button.long_press_threshold_ms")) * time.Millisecond,
	}
	if cfg.DoublePressWindow <= 0 {
		cfg.DoublePressWindow = constants.DefaultDoublePressWindow * time.Millisecond
	}
	if cfg.LongPressThreshold <= 0 {
		cfg.LongPressThreshold = constants.DefaultLongPressThreshold * time.Millisecond
	}
	return cfg
}

// GetMusicConfig 获取曲库解析配置
func GetMusicConfig() MusicConfig {
	cfg := MusicConfig{
		Provider:       viper.GetString("music.provider"),
		Config:         viper.GetStringMap("music." + viper.GetString("music.provider")),
		ResolveTimeout: time.Duration(viper.GetInt("music.resolve_timeout_ms")) * time.Millisecond,
	}
	if cfg.ResolveTimeout <= 0 {
		cfg.ResolveTimeout = constants.DefaultResolveTimeoutMs * time.Millisecond
	}
	return cfg
}

// GetWakeWordConfig 获取唤醒词配置
func GetWakeWordConfig() WakeWordConfig {
	return WakeWordConfig{
		Enabled:  viper.GetBool("wakeword.enabled"),
		Provider: viper.GetString("wakeword.provider"),
		Config:   viper.GetStringMap("wakeword." + viper.GetString("wakeword.provider")),
	}
}

// GetSleepTimerConfig 获取睡眠定时器配置
func GetSleepTimerConfig() SleepTimerConfig {
	cfg := SleepTimerConfig{
		FadeSeconds: viper.GetInt("sleep_timer.fade_seconds"),
	}
	if cfg.FadeSeconds <= 0 {
		cfg.FadeSeconds = constants.DefaultFadeSeconds
	}
	return cfg
}
