package button

import (
	"time"

	log "musicbox-server-golang/logger"

	"github.com/jonboulle/clockwork"
)

type debounceState int

const (
	debounceIdle debounceState = iota
	debouncePendingSingle
)

// debouncer 按键去抖状态机: idle → pending-single → resolved
// 状态推进只依赖单调时钟检查，没有独立的定时器协程
type debouncer struct {
	cfg   Config
	clock clockwork.Clock
	emit  func(Action)

	state          debounceState
	windowDeadline time.Time
	keyDownAt      map[KeyCode]time.Time
}

func newDebouncer(cfg Config, clock clockwork.Clock, emit func(Action)) *debouncer {
	return &debouncer{
		cfg:       cfg,
		clock:     clock,
		emit:      emit,
		keyDownAt: map[KeyCode]time.Time{},
	}
}

// deadline 返回pending-single窗口的截止时间，未进入窗口时armed为false
func (d *debouncer) deadline() (time.Time, bool) {
	return d.windowDeadline, d.state == debouncePendingSingle
}

// handle 处理一个原始输入事件
func (d *debouncer) handle(event RawEvent) {
	switch event.Type {
	case RawEventRelative:
		d.handleRelative(event)
	case RawEventKey:
		d.handleKey(event)
	}
}

// handleRelative 旋钮增量映射成粗粒度的音量动作
func (d *debouncer) handleRelative(event RawEvent) {
	if event.Rel != RelDial && event.Rel != RelWheel {
		return
	}
	if event.Value > 0 {
		d.emit(ActionVolumeUp)
	} else if event.Value < 0 {
		d.emit(ActionVolumeDown)
	}
}

func (d *debouncer) handleKey(event RawEvent) {
	now := d.clock.Now()
	switch event.Key {
	case KeyVolumeUp:
		if event.Value == 1 {
			d.emit(ActionVolumeUp)
		}
	case KeyVolumeDown:
		if event.Value == 1 {
			d.emit(ActionVolumeDown)
		}
	case KeyNextSong:
		if event.Value == 1 {
			d.emit(ActionNextTrack)
		}
	case KeyPlayPause:
		if event.Value == 1 {
			d.keyDownAt[event.Key] = now
			return
		}
		downAt, ok := d.keyDownAt[event.Key]
		if !ok {
			return
		}
		delete(d.keyDownAt, event.Key)
		if now.Sub(downAt) >= d.cfg.LongPressThreshold {
			// 长按等价于消费级遥控的下一曲键
			d.emit(ActionNextTrack)
			return
		}
		d.shortPress(now)
	default:
		log.Debugf("忽略未映射的按键码: %d", event.Key)
	}
}

// shortPress 短按进入单击/双击判定窗口
func (d *debouncer) shortPress(now time.Time) {
	if d.state == debouncePendingSingle && now.Before(d.windowDeadline) {
		d.state = debounceIdle
		d.emit(ActionNextTrack)
		return
	}
	d.state = debouncePendingSingle
	d.windowDeadline = now.Add(d.cfg.DoublePressWindow)
}

// expire 判定窗口到期，把pending-single解析为单击
func (d *debouncer) expire() {
	if d.state != debouncePendingSingle {
		return
	}
	if d.clock.Now().Before(d.windowDeadline) {
		return
	}
	d.state = debounceIdle
	d.emit(ActionPlayPause)
}
