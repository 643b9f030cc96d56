package music

import (
	"errors"

	"musicbox-server-golang/constants"
	"musicbox-server-golang/internal/domain/music/inter"
	"musicbox-server-golang/internal/domain/music/loopback"

	log "musicbox-server-golang/logger"
)

// AcquireResolver 根据提供商类型创建曲库解析器
func AcquireResolver(provider string, config map[string]interface{}) (inter.Resolver, error) {
	switch provider {
	case constants.ResolverTypeLoopback:
		return loopback.NewResolver(config), nil
	default:
		return nil, errors.New("invalid music resolver provider")
	}
}

// InitResolver 从全局配置初始化曲库解析器
func InitResolver(provider string, config map[string]interface{}) (inter.Resolver, error) {
	log.Infof("初始化曲库解析器, provider: %s", provider)
	resolver, err := AcquireResolver(provider, config)
	if err != nil {
		log.Errorf("曲库解析器初始化失败: %v", err)
		return nil, err
	}
	return resolver, nil
}
