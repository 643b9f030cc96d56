package loopback

import (
	"context"
	"sync"

	"musicbox-server-golang/internal/domain/player/inter"

	"github.com/spf13/cast"
)

// Player 回环播放器
// 纯内存实现，不接任何真实播放器，用于开发调试和测试
type Player struct {
	mu      sync.Mutex
	state   inter.PlayState
	volume  int
	title   string
	shuffle bool
	repeat  string
	queue   []string
	calls   []string
}

// NewPlayer 创建回环播放器
func NewPlayer(config map[string]interface{}) *Player {
	p := &Player{
		state:  inter.PlayStateStop,
		volume: 50,
		repeat: "off",
	}
	if v, ok := config["volume"]; ok {
		p.volume = cast.ToInt(v)
	}
	if v, ok := config["state"]; ok {
		p.state = inter.PlayState(cast.ToString(v))
	}
	return p
}

func (p *Player) record(call string) {
	p.calls = append(p.calls, call)
}

// Calls 返回到目前为止的调用记录，供测试断言
func (p *Player) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.calls))
	copy(out, p.calls)
	return out
}

// SetState 直接设置播放状态，供测试构造场景
func (p *Player) SetState(state inter.PlayState) {
	p.mu.Lock()
	p.state = state
	p.mu.Unlock()
}

func (p *Player) Pause(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = inter.PlayStatePause
	p.record("pause")
	return nil
}

func (p *Player) Resume(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = inter.PlayStatePlay
	p.record("resume")
	return nil
}

func (p *Player) Play(ctx context.Context, uri string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = inter.PlayStatePlay
	p.title = uri
	p.record("play:" + uri)
	return nil
}

func (p *Player) PlayFavorites(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = inter.PlayStatePlay
	p.record("play_favorites")
	return nil
}

func (p *Player) Next(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("next")
	return nil
}

func (p *Player) Previous(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("previous")
	return nil
}

func (p *Player) AddToFavorites(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("add_to_favorites")
	return nil
}

func (p *Player) SetRepeat(ctx context.Context, mode string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.repeat = mode
	p.record("set_repeat:" + mode)
	return nil
}

func (p *Player) SetShuffle(ctx context.Context, enabled bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shuffle = enabled
	if enabled {
		p.record("set_shuffle:on")
	} else {
		p.record("set_shuffle:off")
	}
	return nil
}

func (p *Player) AddToQueue(ctx context.Context, uri string, playNext bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if playNext {
		p.queue = append([]string{uri}, p.queue...)
	} else {
		p.queue = append(p.queue, uri)
	}
	p.record("add_to_queue:" + uri)
	return nil
}

func (p *Player) Status(ctx context.Context) (inter.Status, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("status")
	return inter.Status{
		State:   p.state,
		Volume:  p.volume,
		Title:   p.title,
		Shuffle: p.shuffle,
		Repeat:  p.repeat,
	}, nil
}

// Volume 回环音量控制，与Player共享音量值
type Volume struct {
	player      *Player
	mu          sync.Mutex
	duckedFrom  int
	ducked      bool
	maxVolume   int
	duckPercent int
}

// NewVolume 创建回环音量控制
func NewVolume(player *Player, config map[string]interface{}) *Volume {
	v := &Volume{
		player:      player,
		maxVolume:   100,
		duckPercent: 30,
	}
	if m, ok := config["max"]; ok {
		v.maxVolume = cast.ToInt(m)
	}
	return v
}

func (v *Volume) clamp(volume int) int {
	if volume < 0 {
		return 0
	}
	if volume > v.maxVolume {
		return v.maxVolume
	}
	return volume
}

func (v *Volume) Up(ctx context.Context, step int) error {
	v.player.mu.Lock()
	defer v.player.mu.Unlock()
	v.player.volume = v.clamp(v.player.volume + step)
	v.player.record("volume_up")
	return nil
}

func (v *Volume) Down(ctx context.Context, step int) error {
	v.player.mu.Lock()
	defer v.player.mu.Unlock()
	v.player.volume = v.clamp(v.player.volume - step)
	v.player.record("volume_down")
	return nil
}

func (v *Volume) Set(ctx context.Context, volume int) error {
	v.player.mu.Lock()
	defer v.player.mu.Unlock()
	v.player.volume = v.clamp(volume)
	v.player.record("set_volume")
	return nil
}

func (v *Volume) Current(ctx context.Context) (int, error) {
	v.player.mu.Lock()
	defer v.player.mu.Unlock()
	return v.player.volume, nil
}

func (v *Volume) Duck(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.ducked {
		return nil
	}
	v.player.mu.Lock()
	v.duckedFrom = v.player.volume
	v.player.volume = v.clamp(v.player.volume * v.duckPercent / 100)
	v.player.record("duck")
	v.player.mu.Unlock()
	v.ducked = true
	return nil
}

func (v *Volume) Unduck(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.ducked {
		return nil
	}
	v.player.mu.Lock()
	v.player.volume = v.duckedFrom
	v.player.record("unduck")
	v.player.mu.Unlock()
	v.ducked = false
	return nil
}
