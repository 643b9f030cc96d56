package server

import (
	"context"
	"time"

	"musicbox-server-golang/internal/domain/eventbus"
	musicinter "musicbox-server-golang/internal/domain/music/inter"

	log "musicbox-server-golang/logger"
)

const musicRouterSource = "music_search_router"

// MusicSearchRouter 消费music-search-requested, 调用曲库解析器,
// 命中时同时发出music-resolved（遥测用）和play-requested（动作请求）,
// 未命中时什么都不发
type MusicSearchRouter struct {
	bus            *eventbus.EventBus
	resolver       musicinter.Resolver
	resolveTimeout time.Duration
}

// NewMusicSearchRouter 创建曲库搜索路由
func NewMusicSearchRouter(bus *eventbus.EventBus, resolver musicinter.Resolver, resolveTimeout time.Duration) *MusicSearchRouter {
	if resolveTimeout <= 0 {
		resolveTimeout = 5 * time.Second
	}
	return &MusicSearchRouter{
		bus:            bus,
		resolver:       resolver,
		resolveTimeout: resolveTimeout,
	}
}

// Register 订阅搜索请求事件
func (r *MusicSearchRouter) Register(bus *eventbus.EventBus) {
	bus.Subscribe(eventbus.EventMusicSearchRequested, r.HandleEvent)
}

// HandleEvent 处理一次搜索请求
func (r *MusicSearchRouter) HandleEvent(event *eventbus.ControlEvent) {
	query := event.StringField("query", "")
	if query == "" {
		log.Warnf("music-search-requested缺少query, 忽略")
		return
	}
	language := event.StringField("language", "")

	ctx, cancel := context.WithTimeout(context.Background(), r.resolveTimeout)
	match, err := r.resolver.Resolve(ctx, query, language)
	cancel()
	if err != nil {
		log.Errorf("曲库解析 %q 失败: %v", query, err)
		return
	}
	if match == nil {
		log.Infof("曲库解析 %q 未命中", query)
		return
	}

	log.Infof("曲库解析命中: %q -> %s (%.2f)", query, match.MatchedFile, match.Confidence)
	payload := map[string]interface{}{
		"query":        match.Query,
		"matched_file": match.MatchedFile,
		"confidence":   match.Confidence,
	}
	r.publish(eventbus.EventMusicResolved, payload, event)
	r.publish(eventbus.EventPlayRequested, payload, event)
}

func (r *MusicSearchRouter) publish(name string, payload map[string]interface{}, cause *eventbus.ControlEvent) {
	event := eventbus.NewControlEvent(name, payload).
		WithSource(musicRouterSource).
		WithCorrelation(cause.CorrelationID)
	if !r.bus.Publish(event) {
		log.Warnf("发布 %s 失败", name)
	}
}
