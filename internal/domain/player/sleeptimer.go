package player

import (
	"context"
	"sync"
	"time"

	"musicbox-server-golang/internal/domain/player/inter"

	log "musicbox-server-golang/logger"

	"github.com/jonboulle/clockwork"
)

const sleepTimerCallTimeout = 3 * time.Second

// SleepTimer 睡眠定时器
// 到期后按秒逐步降低音量（淡出），随后暂停播放并恢复淡出前的音量
// 重新设定会取消上一个定时器；每个tick都检查取消信号
type SleepTimer struct {
	player inter.Controller
	volume inter.VolumeController
	fade   time.Duration
	clock  clockwork.Clock

	mu     sync.Mutex
	cancel chan struct{}
}

// NewSleepTimer 创建睡眠定时器，clock传nil时使用真实时钟
func NewSleepTimer(player inter.Controller, volume inter.VolumeController, fadeSeconds int, clock clockwork.Clock) *SleepTimer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if fadeSeconds <= 0 {
		fadeSeconds = 1
	}
	return &SleepTimer{
		player: player,
		volume: volume,
		fade:   time.Duration(fadeSeconds) * time.Second,
		clock:  clock,
	}
}

// Arm 设定定时器，已有定时器会被取消
func (t *SleepTimer) Arm(minutes int) {
	if minutes <= 0 {
		log.Warnf("忽略无效的睡眠定时时长: %d 分钟", minutes)
		return
	}
	t.mu.Lock()
	if t.cancel != nil {
		close(t.cancel)
	}
	cancel := make(chan struct{})
	t.cancel = cancel
	t.mu.Unlock()

	log.Infof("睡眠定时器已设定: %d 分钟", minutes)
	go t.run(time.Duration(minutes)*time.Minute, cancel)
}

// Cancel 取消当前定时器，没有定时器时无副作用
func (t *SleepTimer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		close(t.cancel)
		t.cancel = nil
	}
}

func (t *SleepTimer) run(duration time.Duration, cancel chan struct{}) {
	select {
	case <-t.clock.After(duration):
	case <-cancel:
		log.Infof("睡眠定时器已取消")
		return
	}

	ctx, cancelCtx := context.WithTimeout(context.Background(), sleepTimerCallTimeout)
	startVolume, err := t.volume.Current(ctx)
	cancelCtx()
	if err != nil {
		log.Warnf("读取当前音量失败, 跳过淡出直接暂停: %v", err)
		t.pauseAndRestore(-1)
		return
	}

	steps := int(t.fade / time.Second)
	if steps < 1 {
		steps = 1
	}
	log.Infof("睡眠定时器到期, 开始淡出, 当前音量 %d, 淡出 %d 秒", startVolume, steps)

	for i := 1; i <= steps; i++ {
		select {
		case <-t.clock.After(time.Second):
		case <-cancel:
			// 取消时恢复淡出前的音量
			t.setVolume(startVolume)
			log.Infof("淡出已取消, 音量恢复为 %d", startVolume)
			return
		}
		target := startVolume - startVolume*i/steps
		t.setVolume(target)
	}

	t.pauseAndRestore(startVolume)
}

// pauseAndRestore 暂停播放并把音量恢复到淡出前的值，-1表示不恢复
func (t *SleepTimer) pauseAndRestore(restoreVolume int) {
	ctx, cancelCtx := context.WithTimeout(context.Background(), sleepTimerCallTimeout)
	defer cancelCtx()
	if err := t.player.Pause(ctx); err != nil {
		log.Errorf("睡眠定时器暂停播放失败: %v", err)
	}
	if restoreVolume >= 0 {
		t.setVolume(restoreVolume)
	}
	log.Infof("睡眠定时器执行完毕")
}

func (t *SleepTimer) setVolume(volume int) {
	ctx, cancelCtx := context.WithTimeout(context.Background(), sleepTimerCallTimeout)
	defer cancelCtx()
	if err := t.volume.Set(ctx, volume); err != nil {
		log.Warnf("淡出设置音量 %d 失败: %v", volume, err)
	}
}
