package wakeword

import (
	"errors"

	"musicbox-server-golang/constants"
	"musicbox-server-golang/internal/domain/wakeword/inter"
	"musicbox-server-golang/internal/domain/wakeword/loopback"

	log "musicbox-server-golang/logger"
)

// AcquireDetector 根据提供商类型创建唤醒词检测器
func AcquireDetector(provider string, config map[string]interface{}) (inter.Detector, error) {
	switch provider {
	case constants.WakeWordTypeLoopback:
		return loopback.NewDetector(config), nil
	default:
		return nil, errors.New("invalid wakeword provider")
	}
}

// InitDetector 从全局配置初始化唤醒词检测器
func InitDetector(provider string, config map[string]interface{}) (inter.Detector, error) {
	log.Infof("初始化唤醒词检测器, provider: %s", provider)
	detector, err := AcquireDetector(provider, config)
	if err != nil {
		log.Errorf("唤醒词检测器初始化失败: %v", err)
		return nil, err
	}
	return detector, nil
}
