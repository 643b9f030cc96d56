package server

import (
	"context"
	"time"

	"musicbox-server-golang/internal/domain/eventbus"
	"musicbox-server-golang/internal/domain/player"
	playerinter "musicbox-server-golang/internal/domain/player/inter"

	log "musicbox-server-golang/logger"
)

const playerCallTimeout = 3 * time.Second

// PlayerRouterConfig 播放路由配置
type PlayerRouterConfig struct {
	DefaultShuffle bool
	VolumeStep     int
	MaxVolume      int
}

// PlayerEventRouter 把动作请求事件翻译成对播放器/音量执行器的调用
//
// 两条横切策略:
//   - 录音保护: 录音期间除暂停外的所有状态变更请求一律忽略
//   - 随机播放不变量: 任何继续/播放动作之前重新断言配置的默认随机模式
//
// 所有处理函数都在总线分发协程上串行执行, recordingActive不需要加锁
type PlayerEventRouter struct {
	cfg        PlayerRouterConfig
	controller playerinter.Controller
	volume     playerinter.VolumeController
	sleepTimer *player.SleepTimer

	recordingActive bool
}

// NewPlayerEventRouter 创建播放路由，controller/volume是全局共享的单一实例
func NewPlayerEventRouter(cfg PlayerRouterConfig, controller playerinter.Controller, volume playerinter.VolumeController, sleepTimer *player.SleepTimer) *PlayerEventRouter {
	return &PlayerEventRouter{
		cfg:        cfg,
		controller: controller,
		volume:     volume,
		sleepTimer: sleepTimer,
	}
}

// Register 订阅全部动作请求事件和录音状态事件
func (r *PlayerEventRouter) Register(bus *eventbus.EventBus) {
	for _, name := range []string{
		eventbus.EventRecordingStarted,
		eventbus.EventRecordingFinished,
		eventbus.EventPauseRequested,
		eventbus.EventContinueRequested,
		eventbus.EventPlayRequested,
		eventbus.EventPlayFavoritesRequested,
		eventbus.EventNextTrackRequested,
		eventbus.EventPreviousTrackRequested,
		eventbus.EventAddFavoriteRequested,
		eventbus.EventVolumeUpRequested,
		eventbus.EventVolumeDownRequested,
		eventbus.EventSetVolumeRequested,
		eventbus.EventSleepTimerRequested,
		eventbus.EventRepeatModeRequested,
		eventbus.EventShuffleRequested,
		eventbus.EventQueueAddRequested,
	} {
		bus.Subscribe(name, r.HandleEvent)
	}
}

// HandleEvent 路由入口，必须由单一协程串行调用
func (r *PlayerEventRouter) HandleEvent(event *eventbus.ControlEvent) {
	switch event.Name {
	case eventbus.EventRecordingStarted:
		r.recordingActive = true
		return
	case eventbus.EventRecordingFinished:
		r.recordingActive = false
		return
	case eventbus.EventPauseRequested:
		// 暂停永远放行, 录音保护的目的就是保证不在录音中播放
		r.call("pause", r.controller.Pause)
		return
	}

	if r.recordingActive {
		log.Infof("录音进行中, 忽略请求事件 %s", event.Name)
		return
	}

	switch event.Name {
	case eventbus.EventContinueRequested:
		r.reassertShuffle()
		r.resumeOrPlay()
	case eventbus.EventPlayRequested:
		r.handlePlay(event)
	case eventbus.EventPlayFavoritesRequested:
		r.reassertShuffle()
		r.call("play_favorites", r.controller.PlayFavorites)
	case eventbus.EventNextTrackRequested:
		r.call("next", r.controller.Next)
	case eventbus.EventPreviousTrackRequested:
		r.call("previous", r.controller.Previous)
	case eventbus.EventAddFavoriteRequested:
		r.call("add_to_favorites", r.controller.AddToFavorites)
	case eventbus.EventVolumeUpRequested:
		r.call("volume_up", func(ctx context.Context) error {
			return r.volume.Up(ctx, r.cfg.VolumeStep)
		})
	case eventbus.EventVolumeDownRequested:
		r.call("volume_down", func(ctx context.Context) error {
			return r.volume.Down(ctx, r.cfg.VolumeStep)
		})
	case eventbus.EventSetVolumeRequested:
		r.handleSetVolume(event)
	case eventbus.EventSleepTimerRequested:
		r.sleepTimer.Arm(event.IntField("duration_minutes", 0))
	case eventbus.EventRepeatModeRequested:
		mode := event.StringField("mode", "off")
		r.call("set_repeat", func(ctx context.Context) error {
			return r.controller.SetRepeat(ctx, mode)
		})
	case eventbus.EventShuffleRequested:
		enabled := event.BoolField("enabled", false)
		r.call("set_shuffle", func(ctx context.Context) error {
			return r.controller.SetShuffle(ctx, enabled)
		})
	case eventbus.EventQueueAddRequested:
		r.handleQueueAdd(event)
	}
}

func (r *PlayerEventRouter) handlePlay(event *eventbus.ControlEvent) {
	uri := event.StringField("matched_file", "")
	if uri == "" {
		uri = event.StringField("query", "")
	}
	if uri == "" {
		log.Warnf("play-requested事件既无matched_file也无query, 忽略")
		return
	}
	r.reassertShuffle()
	r.call("play", func(ctx context.Context) error {
		return r.controller.Play(ctx, uri)
	})
}

func (r *PlayerEventRouter) handleSetVolume(event *eventbus.ControlEvent) {
	volume := event.IntField("volume", -1)
	if volume < 0 {
		log.Warnf("set-volume-requested缺少volume参数, 忽略")
		return
	}
	if volume > r.cfg.MaxVolume {
		volume = r.cfg.MaxVolume
	}
	target := volume
	r.call("set_volume", func(ctx context.Context) error {
		return r.volume.Set(ctx, target)
	})
}

func (r *PlayerEventRouter) handleQueueAdd(event *eventbus.ControlEvent) {
	query := event.StringField("query", "")
	if query == "" {
		log.Warnf("queue-add-requested缺少query参数, 忽略")
		return
	}
	playNext := event.BoolField("play_next", false)
	r.call("add_to_queue", func(ctx context.Context) error {
		return r.controller.AddToQueue(ctx, query, playNext)
	})
}

// resumeOrPlay continue请求的消歧:
// 暂停态恢复播放, 停止态从头开始播放, 状态未知或查询失败时保守恢复
func (r *PlayerEventRouter) resumeOrPlay() {
	ctx, cancel := context.WithTimeout(context.Background(), playerCallTimeout)
	status, err := r.controller.Status(ctx)
	cancel()
	if err != nil {
		log.Warnf("查询播放器状态失败, 回退为恢复播放: %v", err)
		r.call("resume", r.controller.Resume)
		return
	}

	switch status.State {
	case playerinter.PlayStateStop:
		r.call("play", func(ctx context.Context) error {
			return r.controller.Play(ctx, "")
		})
	default:
		r.call("resume", r.controller.Resume)
	}
}

// reassertShuffle 随机模式不能悄悄漂移, 每次继续/播放前重新设置
func (r *PlayerEventRouter) reassertShuffle() {
	r.call("set_shuffle", func(ctx context.Context) error {
		return r.controller.SetShuffle(ctx, r.cfg.DefaultShuffle)
	})
}

// call 带超时调用执行器, 失败只记录日志, 绝不向分发协程抛出
func (r *PlayerEventRouter) call(name string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), playerCallTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Errorf("播放器调用 %s 失败: %v", name, err)
	}
}
