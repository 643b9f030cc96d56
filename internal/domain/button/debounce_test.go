package button

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func newTestDebouncer(clock clockwork.Clock) (*debouncer, *[]Action) {
	actions := &[]Action{}
	deb := newDebouncer(Config{
		DoublePressWindow:  400 * time.Millisecond,
		LongPressThreshold: 800 * time.Millisecond,
	}, clock, func(action Action) {
		*actions = append(*actions, action)
	})
	return deb, actions
}

func press(deb *debouncer, key KeyCode) {
	deb.handle(RawEvent{Type: RawEventKey, Key: key, Value: 1})
	deb.handle(RawEvent{Type: RawEventKey, Key: key, Value: 0})
}

func TestSinglePressResolvesAfterWindow(t *testing.T) {
	clock := clockwork.NewFakeClock()
	deb, actions := newTestDebouncer(clock)

	press(deb, KeyPlayPause)
	assert.Empty(t, *actions, "窗口未到期前不能发出动作")

	clock.Advance(399 * time.Millisecond)
	deb.expire()
	assert.Empty(t, *actions, "窗口未到期, expire不生效")

	clock.Advance(2 * time.Millisecond)
	deb.expire()
	assert.Equal(t, []Action{ActionPlayPause}, *actions)
}

func TestDoublePressWithinWindow(t *testing.T) {
	clock := clockwork.NewFakeClock()
	deb, actions := newTestDebouncer(clock)

	press(deb, KeyPlayPause)
	clock.Advance(200 * time.Millisecond)
	press(deb, KeyPlayPause)

	assert.Equal(t, []Action{ActionNextTrack}, *actions, "窗口内第二次短按判定为双击")

	// 双击之后窗口关闭, 不会再解析出单击
	clock.Advance(time.Second)
	deb.expire()
	assert.Equal(t, []Action{ActionNextTrack}, *actions)
}

func TestTwoSlowPressesAreTwoSingles(t *testing.T) {
	clock := clockwork.NewFakeClock()
	deb, actions := newTestDebouncer(clock)

	press(deb, KeyPlayPause)
	clock.Advance(500 * time.Millisecond)
	deb.expire()

	press(deb, KeyPlayPause)
	clock.Advance(500 * time.Millisecond)
	deb.expire()

	assert.Equal(t, []Action{ActionPlayPause, ActionPlayPause}, *actions)
}

func TestLongPressEmitsNextTrack(t *testing.T) {
	clock := clockwork.NewFakeClock()
	deb, actions := newTestDebouncer(clock)

	deb.handle(RawEvent{Type: RawEventKey, Key: KeyPlayPause, Value: 1})
	clock.Advance(900 * time.Millisecond)
	deb.handle(RawEvent{Type: RawEventKey, Key: KeyPlayPause, Value: 0})

	assert.Equal(t, []Action{ActionNextTrack}, *actions)
}

func TestVolumeKeys(t *testing.T) {
	clock := clockwork.NewFakeClock()
	deb, actions := newTestDebouncer(clock)

	press(deb, KeyVolumeUp)
	press(deb, KeyVolumeDown)

	assert.Equal(t, []Action{ActionVolumeUp, ActionVolumeDown}, *actions, "音量键不经过去抖窗口")
}

func TestNextSongKey(t *testing.T) {
	clock := clockwork.NewFakeClock()
	deb, actions := newTestDebouncer(clock)

	press(deb, KeyNextSong)
	assert.Equal(t, []Action{ActionNextTrack}, *actions)
}

func TestRotaryDeltas(t *testing.T) {
	clock := clockwork.NewFakeClock()
	deb, actions := newTestDebouncer(clock)

	deb.handle(RawEvent{Type: RawEventRelative, Rel: RelDial, Value: 2})
	deb.handle(RawEvent{Type: RawEventRelative, Rel: RelDial, Value: -1})
	deb.handle(RawEvent{Type: RawEventRelative, Rel: RelWheel, Value: 1})
	deb.handle(RawEvent{Type: RawEventRelative, Rel: RelDial, Value: 0})

	assert.Equal(t, []Action{ActionVolumeUp, ActionVolumeDown, ActionVolumeUp}, *actions,
		"增量只映射粗粒度方向, 零增量忽略")
}

func TestUnmappedKeyIgnored(t *testing.T) {
	clock := clockwork.NewFakeClock()
	deb, actions := newTestDebouncer(clock)

	press(deb, KeyCode(30))
	assert.Empty(t, *actions)
}
