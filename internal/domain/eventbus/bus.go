package eventbus

import (
	"sync"
	"sync/atomic"
	"time"

	log "musicbox-server-golang/logger"

	"musicbox-server-golang/constants"

	"github.com/bytedance/sonic"
	cmap "github.com/orcaman/concurrent-map/v2"
)

// Handler 事件处理函数，由分发协程串行调用
type Handler func(event *ControlEvent)

// Config 事件总线配置
type Config struct {
	QueueSize        int
	DropPolicy       string // drop_new | drop_oldest
	EnforceWhitelist bool
}

// Stats 总线统计信息快照
type Stats struct {
	Published      uint64 `json:"published"`
	Dropped        uint64 `json:"dropped"`
	DroppedFull    uint64 `json:"dropped_full"`
	DroppedOldest  uint64 `json:"dropped_oldest"`
	DroppedNew     uint64 `json:"dropped_new"`
	LastDropEvent  string `json:"last_drop_event"`
	LastDropReason string `json:"last_drop_reason"`
}

const (
	// 分发协程空转时等待新事件的超时，决定了Stop被感知的延迟上限
	dispatchPollInterval = 100 * time.Millisecond
	// Stop等待分发协程退出的上限，超时后放弃join，避免阻塞进程退出
	stopJoinTimeout = 2 * time.Second
)

// EventBus 有界并发事件总线
// 多个生产者通过Publish入队，唯一的分发协程出队并串行调用所有订阅者，
// 因此同一总线上的处理函数之间不存在并发（单写者保证）
type EventBus struct {
	cfg Config

	// queueMu 串行化入队路径，保证drop_oldest的"弹出+重试"对其它生产者原子
	queueMu sync.Mutex
	queue   chan *ControlEvent

	registry   cmap.ConcurrentMap[string, []Handler]
	wildcardMu sync.RWMutex
	wildcard   []Handler

	running atomic.Bool
	done    chan struct{}

	statsMu sync.Mutex
	stats   Stats
}

// NewEventBus 创建事件总线，Start之前Publish一律返回false
func NewEventBus(cfg Config) *EventBus {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = constants.DefaultQueueSize
	}
	if cfg.DropPolicy != constants.DropPolicyOldest {
		cfg.DropPolicy = constants.DropPolicyNew
	}
	return &EventBus{
		cfg:      cfg,
		queue:    make(chan *ControlEvent, cfg.QueueSize),
		registry: cmap.New[[]Handler](),
	}
}

// Subscribe 订阅指定事件，注册只增不减
func (b *EventBus) Subscribe(eventName string, handler Handler) {
	if handler == nil {
		return
	}
	if b.cfg.EnforceWhitelist && !IsKnownEvent(eventName) {
		log.Warnf("订阅了未知事件 %s，白名单开启时该事件永远不会被投递", eventName)
	}
	// 写时复制，Get返回的切片对分发协程而言是不可变快照
	b.registry.Upsert(eventName, nil, func(exist bool, current []Handler, _ []Handler) []Handler {
		next := make([]Handler, 0, len(current)+1)
		next = append(next, current...)
		return append(next, handler)
	})
}

// SubscribeAll 订阅所有事件
func (b *EventBus) SubscribeAll(handler Handler) {
	if handler == nil {
		return
	}
	b.wildcardMu.Lock()
	b.wildcard = append(b.wildcard, handler)
	b.wildcardMu.Unlock()
}

// Publish 发布事件，非阻塞
// 总线未运行或事件名不在白名单内时返回false；队列满时按丢弃策略处理
func (b *EventBus) Publish(event *ControlEvent) bool {
	if event == nil {
		return false
	}
	if !b.running.Load() {
		log.Warnf("总线未运行，丢弃事件 %s", event.Name)
		return false
	}
	if b.cfg.EnforceWhitelist && !IsKnownEvent(event.Name) {
		log.Warnf("事件 %s 不在白名单内，拒绝发布", event.Name)
		return false
	}

	b.queueMu.Lock()
	defer b.queueMu.Unlock()

	select {
	case b.queue <- event:
		b.recordPublished()
		return true
	default:
	}

	// 队列已满
	if b.cfg.DropPolicy == constants.DropPolicyOldest {
		select {
		case oldest := <-b.queue:
			b.recordDrop(oldest, "queue full, dropped oldest", &b.stats.DroppedOldest)
		default:
			// 分发协程刚好清空了队列
		}
		select {
		case b.queue <- event:
			b.recordPublished()
			return true
		default:
		}
		b.recordDrop(event, "queue full after retry, dropped new", &b.stats.DroppedNew)
		return false
	}

	b.recordDrop(event, "queue full, dropped new", &b.stats.DroppedNew)
	return false
}

// Start 启动分发协程，重复调用无副作用
func (b *EventBus) Start() {
	if !b.running.CompareAndSwap(false, true) {
		return
	}
	b.done = make(chan struct{})
	go b.dispatchLoop(b.done)
	log.Infof("事件总线已启动, queue_size=%d, drop_policy=%s, whitelist=%v",
		b.cfg.QueueSize, b.cfg.DropPolicy, b.cfg.EnforceWhitelist)
}

// Stop 停止分发协程并等待其退出，重复调用无副作用
func (b *EventBus) Stop() {
	if !b.running.CompareAndSwap(true, false) {
		return
	}
	select {
	case <-b.done:
	case <-time.After(stopJoinTimeout):
		log.Warnf("等待分发协程退出超时")
	}
	if stats, err := sonic.MarshalString(b.GetStats()); err == nil {
		log.Infof("事件总线已停止, stats=%s", stats)
	}
}

// GetStats 返回统计信息的副本
func (b *EventBus) GetStats() Stats {
	b.statsMu.Lock()
	defer b.statsMu.Unlock()
	return b.stats
}

func (b *EventBus) recordPublished() {
	b.statsMu.Lock()
	b.stats.Published++
	b.statsMu.Unlock()
}

func (b *EventBus) recordDrop(event *ControlEvent, reason string, policyCounter *uint64) {
	b.statsMu.Lock()
	b.stats.Dropped++
	b.stats.DroppedFull++
	*policyCounter++
	b.stats.LastDropEvent = event.Name
	b.stats.LastDropReason = reason
	b.statsMu.Unlock()
	log.Warnf("丢弃事件 %s: %s", event.Name, reason)
}

// dispatchLoop 分发主循环，总线停止后先清空队列再退出
func (b *EventBus) dispatchLoop(done chan struct{}) {
	defer close(done)
	for {
		select {
		case event := <-b.queue:
			b.dispatch(event)
		default:
			if !b.running.Load() {
				return
			}
			select {
			case event := <-b.queue:
				b.dispatch(event)
			case <-time.After(dispatchPollInterval):
			}
		}
	}
}

// dispatch 在注册表锁外依次调用事件的全部处理函数
func (b *EventBus) dispatch(event *ControlEvent) {
	handlers, _ := b.registry.Get(event.Name)

	b.wildcardMu.RLock()
	wildcard := make([]Handler, len(b.wildcard))
	copy(wildcard, b.wildcard)
	b.wildcardMu.RUnlock()

	for _, handler := range handlers {
		b.safeInvoke(handler, event)
	}
	for _, handler := range wildcard {
		b.safeInvoke(handler, event)
	}
}

// safeInvoke 单个处理函数的panic不影响后续处理函数和后续事件
func (b *EventBus) safeInvoke(handler Handler, event *ControlEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("事件 %s 的处理函数 panic: %v", event.Name, r)
		}
	}()
	handler(event)
}
