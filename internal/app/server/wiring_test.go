package server

import (
	"context"
	"testing"
	"time"

	"musicbox-server-golang/internal/domain/eventbus"
	musicloopback "musicbox-server-golang/internal/domain/music/loopback"
	"musicbox-server-golang/internal/domain/playback"
	"musicbox-server-golang/internal/domain/player"
	playerinter "musicbox-server-golang/internal/domain/player/inter"
	playerloopback "musicbox-server-golang/internal/domain/player/loopback"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRig 完整装配: 总线 + 状态机 + 播放路由 + 曲库路由
type testRig struct {
	bus      *eventbus.EventBus
	player   *playerloopback.Player
	resolver *musicloopback.Resolver
	machine  *playback.StateMachine
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()
	bus := eventbus.NewEventBus(eventbus.Config{QueueSize: 64, EnforceWhitelist: true})

	p := playerloopback.NewPlayer(nil)
	v := playerloopback.NewVolume(p, nil)
	timer := player.NewSleepTimer(p, v, 2, clockwork.NewFakeClock())
	t.Cleanup(timer.Cancel)

	machine := playback.NewStateMachine(bus, p)
	machine.Register(bus)

	router := NewPlayerEventRouter(PlayerRouterConfig{
		DefaultShuffle: true,
		VolumeStep:     5,
		MaxVolume:      100,
	}, p, v, timer)
	router.Register(bus)

	resolver := musicloopback.NewResolver(nil)
	NewMusicSearchRouter(bus, resolver, time.Second).Register(bus)

	bus.Start()
	t.Cleanup(bus.Stop)
	return &testRig{bus: bus, player: p, resolver: resolver, machine: machine}
}

func (r *testRig) publish(t *testing.T, name string, payload map[string]interface{}) {
	t.Helper()
	require.True(t, r.bus.Publish(eventbus.NewControlEvent(name, payload)))
}

// waitIdle 发布一个哨兵事件并等它被处理
// 只保证测试直接发布的事件都已分发; 处理函数级联发出的事件用eventuallyState等
func (r *testRig) waitIdle(t *testing.T) {
	t.Helper()
	done := make(chan struct{}, 1)
	r.bus.Subscribe(eventbus.EventIntentDetected, func(event *eventbus.ControlEvent) {
		select {
		case done <- struct{}{}:
		default:
		}
	})
	require.True(t, r.bus.Publish(eventbus.NewControlEvent(eventbus.EventIntentDetected, nil)))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("等待总线排空超时")
	}
}

func (r *testRig) state(t *testing.T) playerinter.PlayState {
	t.Helper()
	status, err := r.player.Status(context.Background())
	require.NoError(t, err)
	return status.State
}

func (r *testRig) eventuallyState(t *testing.T, want playerinter.PlayState, msg string) {
	t.Helper()
	assert.Eventually(t, func() bool {
		status, err := r.player.Status(context.Background())
		return err == nil && status.State == want
	}, 2*time.Second, 5*time.Millisecond, msg)
}

func (r *testRig) eventuallyCalled(t *testing.T, call string) {
	t.Helper()
	assert.Eventually(t, func() bool {
		for _, c := range r.player.Calls() {
			if c == call {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond, "等待播放器调用 %s", call)
}

func TestVoiceCommandFlowSearchAndPlay(t *testing.T) {
	rig := newTestRig(t)
	rig.resolver.AddEntry("lullaby", "brahms/lullaby.mp3")
	rig.player.SetState(playerinter.PlayStatePlay)

	// 唤醒 -> 录音 -> 意图 -> 确认 -> 曲库搜索 -> 播放
	rig.publish(t, eventbus.EventWakeWordDetected, nil)
	rig.publish(t, eventbus.EventRecordingStarted, nil)
	rig.publish(t, eventbus.EventRecordingFinished, nil)
	rig.publish(t, eventbus.EventIntentReady, map[string]interface{}{
		"intent_type": "play_music",
		"parameters":  map[string]interface{}{"query": "lullaby"},
	})
	rig.publish(t, eventbus.EventTTSConfirmation, map[string]interface{}{
		"intent_found": true,
	})

	rig.eventuallyCalled(t, "play:brahms/lullaby.mp3")
	rig.eventuallyState(t, playerinter.PlayStatePlay, "搜索命中后进入播放态")
}

func TestRecordingInvariantEndToEnd(t *testing.T) {
	rig := newTestRig(t)
	rig.player.SetState(playerinter.PlayStatePlay)

	rig.publish(t, eventbus.EventWakeWordDetected, nil)
	rig.publish(t, eventbus.EventRecordingStarted, nil)
	rig.eventuallyState(t, playerinter.PlayStatePause, "录音开始时必须已暂停")

	// 录音期间到达的外部请求不得让播放器回到play态
	rig.publish(t, eventbus.EventContinueRequested, nil)
	rig.publish(t, eventbus.EventNextTrackRequested, nil)
	rig.publish(t, eventbus.EventButtonPressed, nil)
	rig.waitIdle(t)
	assert.Equal(t, playerinter.PlayStatePause, rig.state(t))

	// 交互结束且此前在播放, 自动恢复
	rig.publish(t, eventbus.EventRecordingFinished, nil)
	rig.publish(t, eventbus.EventTTSConfirmation, map[string]interface{}{
		"intent_found": false,
	})
	rig.eventuallyState(t, playerinter.PlayStatePlay, "交互结束后自动恢复播放")
}

func TestNeutralIntentResumesPlayback(t *testing.T) {
	rig := newTestRig(t)
	rig.player.SetState(playerinter.PlayStatePlay)

	rig.publish(t, eventbus.EventWakeWordDetected, nil)
	rig.publish(t, eventbus.EventRecordingStarted, nil)
	rig.publish(t, eventbus.EventRecordingFinished, nil)
	rig.publish(t, eventbus.EventIntentReady, map[string]interface{}{
		"intent_type": "volume_up",
	})
	rig.publish(t, eventbus.EventTTSConfirmation, map[string]interface{}{
		"intent_found": true,
	})

	rig.eventuallyCalled(t, "volume_up")
	rig.eventuallyState(t, playerinter.PlayStatePlay, "中性意图执行后恢复播放")
}

func TestDeferredResumeWhenConfirmationBeatsRecordingEnd(t *testing.T) {
	rig := newTestRig(t)
	rig.player.SetState(playerinter.PlayStatePlay)

	rig.publish(t, eventbus.EventWakeWordDetected, nil)
	rig.publish(t, eventbus.EventRecordingStarted, nil)
	// 确认先于录音结束到达, 恢复被推迟
	rig.publish(t, eventbus.EventTTSConfirmation, map[string]interface{}{
		"intent_found": false,
	})
	rig.eventuallyState(t, playerinter.PlayStatePause, "录音未结束不得恢复播放")
	rig.waitIdle(t)
	assert.Equal(t, playerinter.PlayStatePause, rig.state(t))

	rig.publish(t, eventbus.EventRecordingFinished, nil)
	rig.eventuallyState(t, playerinter.PlayStatePlay, "录音结束后补上被推迟的恢复")
}

func TestButtonToggleEndToEnd(t *testing.T) {
	rig := newTestRig(t)
	rig.player.SetState(playerinter.PlayStatePlay)

	rig.publish(t, eventbus.EventButtonPressed, nil)
	rig.eventuallyState(t, playerinter.PlayStatePause, "播放中按键暂停")

	rig.publish(t, eventbus.EventButtonPressed, nil)
	rig.eventuallyState(t, playerinter.PlayStatePlay, "暂停中按键恢复")

	rig.publish(t, eventbus.EventButtonDoublePressed, nil)
	rig.eventuallyCalled(t, "next")
}
