package playback

import (
	"context"
	"time"

	"musicbox-server-golang/constants"
	"musicbox-server-golang/internal/domain/eventbus"
	playerinter "musicbox-server-golang/internal/domain/player/inter"

	log "musicbox-server-golang/logger"

	"github.com/spf13/cast"
)

const sourceName = "playback_state_machine"

// 状态查询的超时，处理函数在分发协程上运行，外部调用必须有界
const statusQueryTimeout = 2 * time.Second

// State 状态机维护的播放状态镜像
type State string

const (
	StateUnknown State = "unknown"
	StatePlay    State = "play"
	StatePause   State = "pause"
)

// Publisher 事件发布接口，由EventBus实现
type Publisher interface {
	Publish(event *eventbus.ControlEvent) bool
}

// StatusQuerier 播放器状态查询接口，镜像为unknown时懒刷新用
type StatusQuerier interface {
	Status(ctx context.Context) (playerinter.Status, error)
}

// PendingIntent intent-ready与tts-confirmation之间缓存的意图
type PendingIntent struct {
	IntentType string
	Parameters map[string]interface{}
	RawText    string
	Language   string
}

// 播放中性意图：执行本身不决定播放/暂停状态，交互结束后需要单独恢复播放
var playbackNeutralIntents = map[string]struct{}{
	constants.IntentVolumeUp:    {},
	constants.IntentVolumeDown:  {},
	constants.IntentSetVolume:   {},
	constants.IntentAddFavorite: {},
	constants.IntentSleepTimer:  {},
	constants.IntentRepeat:      {},
	constants.IntentShuffle:     {},
	constants.IntentQueueAdd:    {},
	constants.IntentNext:        {},
	constants.IntentPrevious:    {},
}

// StateMachine 播放状态机，播放/暂停转换的唯一决策者
//
// 所有字段只在总线的分发协程上被读写（单写者），因此内部不加锁；
// 绝不能把本状态机的处理函数挂到会并发调用的总线实现上
type StateMachine struct {
	publisher Publisher
	status    StatusQuerier

	playbackState              State
	recordingActive            bool
	interactionActive          bool
	preInteractionWasPlaying   bool
	pendingIntent              *PendingIntent
	shouldResumeAfterRecording bool
}

// NewStateMachine 创建播放状态机，初始状态unknown
func NewStateMachine(publisher Publisher, status StatusQuerier) *StateMachine {
	return &StateMachine{
		publisher:     publisher,
		status:        status,
		playbackState: StateUnknown,
	}
}

// Register 订阅驱动状态机的全部事件
func (m *StateMachine) Register(bus *eventbus.EventBus) {
	for _, name := range []string{
		eventbus.EventWakeWordDetected,
		eventbus.EventButtonPressed,
		eventbus.EventButtonDoublePressed,
		eventbus.EventRecordingStarted,
		eventbus.EventRecordingFinished,
		eventbus.EventIntentReady,
		eventbus.EventTTSConfirmation,
	} {
		bus.Subscribe(name, m.HandleEvent)
	}
}

// HandleEvent 状态机的事件入口，必须由单一协程串行调用
func (m *StateMachine) HandleEvent(event *eventbus.ControlEvent) {
	switch event.Name {
	case eventbus.EventWakeWordDetected:
		m.onWakeWordDetected(event)
	case eventbus.EventButtonPressed:
		m.onButtonPressed(event)
	case eventbus.EventButtonDoublePressed:
		m.onButtonDoublePressed(event)
	case eventbus.EventRecordingStarted:
		m.onRecordingStarted(event)
	case eventbus.EventRecordingFinished:
		m.onRecordingFinished(event)
	case eventbus.EventIntentReady:
		m.onIntentReady(event)
	case eventbus.EventTTSConfirmation:
		m.onTTSConfirmation(event)
	}
}

// State 返回当前的播放状态镜像
func (m *StateMachine) State() State {
	return m.playbackState
}

// RecordingActive 返回录音进行中标记
func (m *StateMachine) RecordingActive() bool {
	return m.recordingActive
}

// InteractionActive 返回语音交互进行中标记
func (m *StateMachine) InteractionActive() bool {
	return m.interactionActive
}

func (m *StateMachine) onWakeWordDetected(event *eventbus.ControlEvent) {
	m.pauseForInteraction(event)
	m.interactionActive = true
}

func (m *StateMachine) onButtonPressed(event *eventbus.ControlEvent) {
	if m.recordingActive || m.interactionActive {
		log.Infof("语音交互进行中, 忽略按键")
		return
	}
	if m.currentState() == StatePlay {
		m.publish(eventbus.EventPauseRequested, nil, event)
		m.playbackState = StatePause
	} else {
		m.publish(eventbus.EventContinueRequested, nil, event)
		m.playbackState = StatePlay
	}
}

func (m *StateMachine) onButtonDoublePressed(event *eventbus.ControlEvent) {
	if m.recordingActive || m.interactionActive {
		log.Infof("语音交互进行中, 忽略双击")
		return
	}
	m.publish(eventbus.EventNextTrackRequested, nil, event)
}

func (m *StateMachine) onRecordingStarted(event *eventbus.ControlEvent) {
	m.recordingActive = true
	m.interactionActive = true
	m.pauseForInteraction(event)
}

func (m *StateMachine) onRecordingFinished(event *eventbus.ControlEvent) {
	m.recordingActive = false
	// tts-confirmation先于recording-finished到达时，恢复动作被推迟到这里
	if m.shouldResumeAfterRecording {
		m.resumeAfterInteraction(event)
	}
}

func (m *StateMachine) onIntentReady(event *eventbus.ControlEvent) {
	m.pendingIntent = &PendingIntent{
		IntentType: event.StringField("intent_type", ""),
		Parameters: cast.ToStringMap(event.Payload["parameters"]),
		RawText:    event.StringField("raw_text", ""),
		Language:   event.StringField("language", ""),
	}
	log.Debugf("缓存待确认意图: %s", m.pendingIntent.IntentType)
}

func (m *StateMachine) onTTSConfirmation(event *eventbus.ControlEvent) {
	if !event.BoolField("intent_found", false) {
		m.pendingIntent = nil
		m.resumeAfterInteraction(event)
		return
	}

	intent := m.pendingIntent
	m.pendingIntent = nil
	if intent == nil {
		// 缓存为空时退回确认事件自带的意图类型
		intent = &PendingIntent{
			IntentType: event.StringField("intent_type", ""),
			Parameters: map[string]interface{}{},
		}
	}
	if intent.IntentType == "" {
		log.Warnf("确认事件没有可用的意图类型, 仅恢复播放")
		m.resumeAfterInteraction(event)
		return
	}

	if !m.dispatchIntent(intent, event) {
		m.resumeAfterInteraction(event)
		return
	}

	if _, neutral := playbackNeutralIntents[intent.IntentType]; neutral {
		// 中性意图不该让音乐停在暂停态
		m.resumeAfterInteraction(event)
	} else {
		// 改变播放状态的意图自己管理转换，直接结束交互
		m.interactionActive = false
		m.preInteractionWasPlaying = false
		m.shouldResumeAfterRecording = false
	}
}

// dispatchIntent 把已确认的意图翻译成动作请求事件，返回是否真的发出了事件
func (m *StateMachine) dispatchIntent(intent *PendingIntent, cause *eventbus.ControlEvent) bool {
	params := intent.Parameters
	if params == nil {
		params = map[string]interface{}{}
	}

	switch intent.IntentType {
	case constants.IntentPlayMusic:
		query := cast.ToString(params["query"])
		if query == "" {
			query = intent.RawText
		}
		if matched := cast.ToString(params["matched_file"]); matched != "" {
			// 曲库匹配结果已知, 直接请求播放
			m.publish(eventbus.EventPlayRequested, map[string]interface{}{
				"query":        query,
				"matched_file": matched,
				"confidence":   cast.ToFloat64(params["confidence"]),
			}, cause)
			m.playbackState = StatePlay
		} else {
			m.publish(eventbus.EventMusicSearchRequested, map[string]interface{}{
				"query":    query,
				"language": intent.Language,
				"raw_text": intent.RawText,
			}, cause)
			m.playbackState = StatePlay
		}
	case constants.IntentPlayFavorites:
		m.publish(eventbus.EventPlayFavoritesRequested, nil, cause)
		m.playbackState = StatePlay
	case constants.IntentPause, constants.IntentStop:
		m.publish(eventbus.EventPauseRequested, nil, cause)
		m.playbackState = StatePause
	case constants.IntentContinue, constants.IntentResume:
		m.publish(eventbus.EventContinueRequested, nil, cause)
		m.playbackState = StatePlay
	case constants.IntentNext:
		m.publish(eventbus.EventNextTrackRequested, nil, cause)
	case constants.IntentPrevious:
		m.publish(eventbus.EventPreviousTrackRequested, nil, cause)
	case constants.IntentVolumeUp:
		m.publish(eventbus.EventVolumeUpRequested, nil, cause)
	case constants.IntentVolumeDown:
		m.publish(eventbus.EventVolumeDownRequested, nil, cause)
	case constants.IntentSetVolume:
		m.publish(eventbus.EventSetVolumeRequested, map[string]interface{}{
			"volume": cast.ToInt(params["volume"]),
		}, cause)
	case constants.IntentAddFavorite:
		m.publish(eventbus.EventAddFavoriteRequested, nil, cause)
	case constants.IntentSleepTimer:
		minutes := cast.ToInt(params["duration_minutes"])
		if minutes <= 0 {
			minutes = constants.DefaultSleepTimerMinutes
		}
		m.publish(eventbus.EventSleepTimerRequested, map[string]interface{}{
			"duration_minutes": minutes,
		}, cause)
	case constants.IntentRepeat:
		mode := cast.ToString(params["mode"])
		if mode == "" {
			mode = constants.RepeatModeOff
		}
		m.publish(eventbus.EventRepeatModeRequested, map[string]interface{}{
			"mode": mode,
		}, cause)
	case constants.IntentShuffle:
		m.publish(eventbus.EventShuffleRequested, map[string]interface{}{
			"enabled": cast.ToBool(params["enabled"]),
		}, cause)
	case constants.IntentQueueAdd:
		query := cast.ToString(params["query"])
		if query == "" {
			log.Warnf("queue_add意图缺少query参数, 不发出事件")
			return false
		}
		m.publish(eventbus.EventQueueAddRequested, map[string]interface{}{
			"query":     query,
			"play_next": cast.ToBool(params["play_next"]),
		}, cause)
	default:
		log.Warnf("未知意图类型: %s", intent.IntentType)
		return false
	}
	return true
}

// pauseForInteraction 交互开始时暂停播放，已暂停时不重复暂停
func (m *StateMachine) pauseForInteraction(cause *eventbus.ControlEvent) {
	switch m.currentState() {
	case StatePlay:
		m.publish(eventbus.EventPauseRequested, nil, cause)
		m.playbackState = StatePause
		m.preInteractionWasPlaying = true
	case StatePause:
		// 重复的唤醒触发不产生第二次暂停
	case StateUnknown:
		// 状态查询失败, 保守起见仍然请求暂停, 但不记录"此前在播放"
		// 录音期间绝不允许播放器处于play态
		m.publish(eventbus.EventPauseRequested, nil, cause)
		m.playbackState = StatePause
	}
}

// resumeAfterInteraction 恢复算法
// 录音未结束时只打标记推迟执行；recording-finished与tts-confirmation
// 两种到达顺序都必须得到相同的最终行为
func (m *StateMachine) resumeAfterInteraction(cause *eventbus.ControlEvent) {
	if m.recordingActive {
		m.shouldResumeAfterRecording = true
		return
	}
	if m.preInteractionWasPlaying {
		m.publish(eventbus.EventContinueRequested, nil, cause)
		m.playbackState = StatePlay
	}
	m.preInteractionWasPlaying = false
	m.interactionActive = false
	m.shouldResumeAfterRecording = false
}

// currentState 返回播放状态镜像，unknown时向播放器做一次有界状态查询
func (m *StateMachine) currentState() State {
	if m.playbackState != StateUnknown {
		return m.playbackState
	}
	if m.status == nil {
		return StateUnknown
	}
	ctx, cancel := context.WithTimeout(context.Background(), statusQueryTimeout)
	defer cancel()
	status, err := m.status.Status(ctx)
	if err != nil {
		log.Warnf("播放器状态查询失败: %v", err)
		return StateUnknown
	}
	switch status.State {
	case playerinter.PlayStatePlay:
		m.playbackState = StatePlay
	case playerinter.PlayStatePause, playerinter.PlayStateStop:
		m.playbackState = StatePause
	default:
		return StateUnknown
	}
	return m.playbackState
}

func (m *StateMachine) publish(name string, payload map[string]interface{}, cause *eventbus.ControlEvent) {
	event := eventbus.NewControlEvent(name, payload).WithSource(sourceName)
	if cause != nil {
		event = event.WithCorrelation(cause.CorrelationID)
	}
	if !m.publisher.Publish(event) {
		log.Warnf("状态机发布事件 %s 失败", name)
	}
}
