package player

import (
	"context"
	"testing"
	"time"

	playerinter "musicbox-server-golang/internal/domain/player/inter"
	"musicbox-server-golang/internal/domain/player/loopback"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSleepTimerFadesThenPauses(t *testing.T) {
	p := loopback.NewPlayer(nil)
	v := loopback.NewVolume(p, nil)
	clock := clockwork.NewFakeClock()
	timer := NewSleepTimer(p, v, 2, clock)
	t.Cleanup(timer.Cancel)
	p.SetState(playerinter.PlayStatePlay)

	timer.Arm(10)

	clock.BlockUntil(1)
	clock.Advance(10 * time.Minute)

	// 两步淡出: 50 -> 25 -> 0
	clock.BlockUntil(1)
	clock.Advance(time.Second)
	assert.Eventually(t, func() bool {
		vol, err := v.Current(context.Background())
		return err == nil && vol == 25
	}, 2*time.Second, 5*time.Millisecond)

	clock.BlockUntil(1)
	clock.Advance(time.Second)

	assert.Eventually(t, func() bool {
		status, err := p.Status(context.Background())
		return err == nil && status.State == playerinter.PlayStatePause
	}, 2*time.Second, 5*time.Millisecond, "淡出结束后必须暂停")

	// 暂停后音量恢复到淡出前的值
	assert.Eventually(t, func() bool {
		vol, err := v.Current(context.Background())
		return err == nil && vol == 50
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSleepTimerCancelBeforeExpiry(t *testing.T) {
	p := loopback.NewPlayer(nil)
	v := loopback.NewVolume(p, nil)
	clock := clockwork.NewFakeClock()
	timer := NewSleepTimer(p, v, 30, clock)
	p.SetState(playerinter.PlayStatePlay)

	timer.Arm(10)
	clock.BlockUntil(1)
	timer.Cancel()
	clock.Advance(10 * time.Minute)

	time.Sleep(100 * time.Millisecond)
	status, err := p.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, playerinter.PlayStatePlay, status.State, "取消后的定时器不能触发暂停")
	assert.NotContains(t, p.Calls(), "pause")
}

func TestSleepTimerCancelDuringFadeRestoresVolume(t *testing.T) {
	p := loopback.NewPlayer(nil)
	v := loopback.NewVolume(p, nil)
	clock := clockwork.NewFakeClock()
	timer := NewSleepTimer(p, v, 30, clock)
	p.SetState(playerinter.PlayStatePlay)

	timer.Arm(1)
	clock.BlockUntil(1)
	clock.Advance(time.Minute)

	// 第一步淡出 50 -> 49 (30步)
	clock.BlockUntil(1)
	clock.Advance(time.Second)
	assert.Eventually(t, func() bool {
		vol, err := v.Current(context.Background())
		return err == nil && vol == 49
	}, 2*time.Second, 5*time.Millisecond)

	clock.BlockUntil(1)
	timer.Cancel()

	assert.Eventually(t, func() bool {
		vol, err := v.Current(context.Background())
		return err == nil && vol == 50
	}, 2*time.Second, 5*time.Millisecond, "取消淡出后音量必须恢复")
	assert.NotContains(t, p.Calls(), "pause")
}

func TestSleepTimerRearmCancelsPrevious(t *testing.T) {
	p := loopback.NewPlayer(nil)
	v := loopback.NewVolume(p, nil)
	clock := clockwork.NewFakeClock()
	timer := NewSleepTimer(p, v, 1, clock)
	t.Cleanup(timer.Cancel)
	p.SetState(playerinter.PlayStatePlay)

	timer.Arm(30)
	clock.BlockUntil(1)
	timer.Arm(1)
	clock.BlockUntil(2)

	clock.Advance(time.Minute)
	clock.BlockUntil(2)
	clock.Advance(time.Second)

	assert.Eventually(t, func() bool {
		status, err := p.Status(context.Background())
		return err == nil && status.State == playerinter.PlayStatePause
	}, 2*time.Second, 5*time.Millisecond, "重新设定的定时器按新时长触发")
}

func TestSleepTimerIgnoresInvalidDuration(t *testing.T) {
	p := loopback.NewPlayer(nil)
	v := loopback.NewVolume(p, nil)
	timer := NewSleepTimer(p, v, 1, clockwork.NewFakeClock())

	timer.Arm(0)
	timer.Arm(-5)
	timer.Cancel()

	assert.Empty(t, p.Calls())
}
