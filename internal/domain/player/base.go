package player

import (
	"errors"

	"musicbox-server-golang/constants"
	"musicbox-server-golang/internal/domain/player/inter"
	"musicbox-server-golang/internal/domain/player/loopback"

	log "musicbox-server-golang/logger"
)

// AcquirePlayer 根据提供商类型创建播放器控制器和配套的音量控制器
// 真实的播放器客户端（MPD等）由外部模块注册，核心仓库内只提供回环实现
func AcquirePlayer(provider string, config map[string]interface{}) (inter.Controller, inter.VolumeController, error) {
	switch provider {
	case constants.PlayerTypeLoopback:
		p := loopback.NewPlayer(config)
		return p, loopback.NewVolume(p, config), nil
	default:
		return nil, nil, errors.New("invalid player provider")
	}
}

// InitPlayer 从全局配置初始化播放器
func InitPlayer(provider string, config map[string]interface{}) (inter.Controller, inter.VolumeController, error) {
	log.Infof("初始化播放器, provider: %s", provider)
	controller, volume, err := AcquirePlayer(provider, config)
	if err != nil {
		log.Errorf("播放器初始化失败: %v", err)
		return nil, nil, err
	}
	return controller, volume, nil
}
