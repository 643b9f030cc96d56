package server

import (
	"context"
	"fmt"

	"musicbox-server-golang/internal/domain/button"
	"musicbox-server-golang/internal/domain/config"
	"musicbox-server-golang/internal/domain/eventbus"
	"musicbox-server-golang/internal/domain/music"
	"musicbox-server-golang/internal/domain/playback"
	"musicbox-server-golang/internal/domain/player"
	wakewordinter "musicbox-server-golang/internal/domain/wakeword/inter"

	"musicbox-server-golang/internal/domain/wakeword"

	log "musicbox-server-golang/logger"
)

const wakeWordSource = "wakeword_detector"

// Server 顶层装配
// 所有组件共享同一个总线实例和同一组执行器句柄, 不存在隐式全局单例
type Server struct {
	bus          *eventbus.EventBus
	stateMachine *playback.StateMachine
	playerRouter *PlayerEventRouter
	musicRouter  *MusicSearchRouter
	orchestrator *Orchestrator
	sleepTimer   *player.SleepTimer

	buttonController *button.Controller
	buttonRouter     *USBButtonRouter

	detector     wakewordinter.Detector
	detectorStop context.CancelFunc
}

// NewServer 从全局配置装配整个控制面
// pipeline为nil时语音指令不产生动作; opener为nil时禁用USB按键
func NewServer(pipeline CommandPipeline, opener button.DeviceOpener) (*Server, error) {
	busCfg := config.GetBusConfig()
	bus := eventbus.NewEventBus(eventbus.Config{
		QueueSize:        busCfg.QueueSize,
		DropPolicy:       busCfg.DropPolicy,
		EnforceWhitelist: busCfg.EnforceWhitelist,
	})

	playerCfg := config.GetPlayerConfig()
	controller, volume, err := player.InitPlayer(playerCfg.Provider, playerCfg.Config)
	if err != nil {
		return nil, fmt.Errorf("初始化播放器失败: %w", err)
	}

	volumeCfg := config.GetVolumeConfig()
	sleepTimer := player.NewSleepTimer(controller, volume, config.GetSleepTimerConfig().FadeSeconds, nil)

	stateMachine := playback.NewStateMachine(bus, controller)
	stateMachine.Register(bus)

	playerRouter := NewPlayerEventRouter(PlayerRouterConfig{
		DefaultShuffle: playerCfg.DefaultShuffle,
		VolumeStep:     volumeCfg.Step,
		MaxVolume:      volumeCfg.Max,
	}, controller, volume, sleepTimer)
	playerRouter.Register(bus)

	musicCfg := config.GetMusicConfig()
	resolver, err := music.InitResolver(musicCfg.Provider, musicCfg.Config)
	if err != nil {
		return nil, fmt.Errorf("初始化曲库解析器失败: %w", err)
	}
	musicRouter := NewMusicSearchRouter(bus, resolver, musicCfg.ResolveTimeout)
	musicRouter.Register(bus)

	orchestrator, err := NewOrchestrator(pipeline)
	if err != nil {
		return nil, fmt.Errorf("初始化编排器失败: %w", err)
	}
	if err := orchestrator.BindBus(bus); err != nil {
		return nil, err
	}

	s := &Server{
		bus:          bus,
		stateMachine: stateMachine,
		playerRouter: playerRouter,
		musicRouter:  musicRouter,
		orchestrator: orchestrator,
		sleepTimer:   sleepTimer,
	}

	buttonCfg := config.GetButtonConfig()
	if buttonCfg.Enabled {
		if opener == nil {
			log.Warnf("按键已启用但没有设备打开器, 禁用USB按键")
		} else {
			s.buttonController = button.NewController(button.Config{
				Device:             buttonCfg.Device,
				DoublePressWindow:  buttonCfg.DoublePressWindow,
				LongPressThreshold: buttonCfg.LongPressThreshold,
			}, opener, nil)
			s.buttonRouter = NewUSBButtonRouter(bus, s.buttonController)
			if err := s.buttonRouter.Register(); err != nil {
				return nil, fmt.Errorf("注册按键回调失败: %w", err)
			}
		}
	}

	wakeCfg := config.GetWakeWordConfig()
	if wakeCfg.Enabled {
		detector, err := wakeword.InitDetector(wakeCfg.Provider, wakeCfg.Config)
		if err != nil {
			return nil, fmt.Errorf("初始化唤醒词检测器失败: %w", err)
		}
		s.detector = detector
	}

	return s, nil
}

// Bus 返回共享总线, 供外部生产者（语音管线等）发布事件
func (s *Server) Bus() *eventbus.EventBus {
	return s.bus
}

// Start 启动总线、按键驱动和唤醒词检测
func (s *Server) Start() error {
	s.bus.Start()

	if s.buttonController != nil {
		if err := s.buttonController.Start(); err != nil {
			return fmt.Errorf("启动USB按键驱动失败: %w", err)
		}
	}

	if s.detector != nil {
		ctx, cancel := context.WithCancel(context.Background())
		s.detectorStop = cancel
		err := s.detector.Start(ctx, func(detection wakewordinter.Detection) {
			event := eventbus.NewControlEvent(eventbus.EventWakeWordDetected, map[string]interface{}{
				"keyword":    detection.Keyword,
				"confidence": detection.Confidence,
			}).WithSource(wakeWordSource)
			s.bus.Publish(event)
		})
		if err != nil {
			return fmt.Errorf("启动唤醒词检测失败: %w", err)
		}
	}

	log.Infof("musicbox server已启动")
	return nil
}

// Stop 逆序停止所有组件
func (s *Server) Stop() {
	if s.detector != nil {
		if s.detectorStop != nil {
			s.detectorStop()
		}
		if err := s.detector.Stop(); err != nil {
			log.Warnf("停止唤醒词检测失败: %v", err)
		}
	}
	if s.buttonController != nil {
		s.buttonController.Stop()
	}
	s.sleepTimer.Cancel()
	s.bus.Stop()
	s.orchestrator.Close()
	log.Infof("musicbox server已停止")
}
