package inter

import "context"

// PlayState 播放器状态
type PlayState string

const (
	PlayStateUnknown PlayState = "unknown"
	PlayStatePlay    PlayState = "play"
	PlayStatePause   PlayState = "pause"
	PlayStateStop    PlayState = "stop"
)

// Status 播放器状态快照
type Status struct {
	State   PlayState `json:"state"`
	Volume  int       `json:"volume"`
	Title   string    `json:"title"`
	Shuffle bool      `json:"shuffle"`
	Repeat  string    `json:"repeat"`
}

// Controller 播放器控制接口
// 由外部播放器客户端（如MPD客户端）实现，所有调用都可能产生I/O，
// 调用方必须传入带超时的context，失败由调用方兜底处理
type Controller interface {
	// Pause 暂停播放
	Pause(ctx context.Context) error
	// Resume 从暂停恢复播放
	Resume(ctx context.Context) error
	// Play 播放指定uri，uri为空时从当前播放列表开始播放
	Play(ctx context.Context, uri string) error
	// PlayFavorites 播放收藏列表
	PlayFavorites(ctx context.Context) error
	// Next 下一曲
	Next(ctx context.Context) error
	// Previous 上一曲
	Previous(ctx context.Context) error
	// AddToFavorites 把当前曲目加入收藏
	AddToFavorites(ctx context.Context) error
	// SetRepeat 设置重复模式: off | single | playlist
	SetRepeat(ctx context.Context, mode string) error
	// SetShuffle 设置随机播放
	SetShuffle(ctx context.Context, enabled bool) error
	// AddToQueue 把曲目加入播放队列，playNext为true时插到当前曲目之后
	AddToQueue(ctx context.Context, uri string, playNext bool) error
	// Status 查询播放器状态
	Status(ctx context.Context) (Status, error)
}

// VolumeController 音量控制接口
// 由外部混音器/硬件音量实现，Duck/Unduck用于语音交互期间压低音量
type VolumeController interface {
	Up(ctx context.Context, step int) error
	Down(ctx context.Context, step int) error
	Set(ctx context.Context, volume int) error
	Current(ctx context.Context) (int, error)
	Duck(ctx context.Context) error
	Unduck(ctx context.Context) error
}
