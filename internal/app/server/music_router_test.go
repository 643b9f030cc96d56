package server

import (
	"testing"
	"time"

	"musicbox-server-golang/internal/domain/eventbus"
	"musicbox-server-golang/internal/domain/music/loopback"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMusicRouter(t *testing.T) (*eventbus.EventBus, *loopback.Resolver) {
	t.Helper()
	bus := eventbus.NewEventBus(eventbus.Config{QueueSize: 16, EnforceWhitelist: true})
	bus.Start()
	t.Cleanup(bus.Stop)

	resolver := loopback.NewResolver(nil)
	router := NewMusicSearchRouter(bus, resolver, time.Second)
	router.Register(bus)
	return bus, resolver
}

func TestSearchHitEmitsResolvedAndPlay(t *testing.T) {
	bus, resolver := newTestMusicRouter(t)
	resolver.AddEntry("yellow submarine", "beatles/yellow_submarine.mp3")

	resolved := make(chan *eventbus.ControlEvent, 1)
	play := make(chan *eventbus.ControlEvent, 1)
	bus.Subscribe(eventbus.EventMusicResolved, func(event *eventbus.ControlEvent) { resolved <- event })
	bus.Subscribe(eventbus.EventPlayRequested, func(event *eventbus.ControlEvent) { play <- event })

	search := eventbus.NewControlEvent(eventbus.EventMusicSearchRequested, map[string]interface{}{
		"query":    "Yellow Submarine",
		"language": "en",
		"raw_text": "play yellow submarine",
	})
	require.True(t, bus.Publish(search))

	select {
	case event := <-resolved:
		assert.Equal(t, "beatles/yellow_submarine.mp3", event.StringField("matched_file", ""))
		assert.Equal(t, 1.0, event.FloatField("confidence", 0))
		assert.Equal(t, search.CorrelationID, event.CorrelationID, "关联ID必须贯穿整次交互")
	case <-time.After(2 * time.Second):
		t.Fatal("等待music-resolved超时")
	}

	select {
	case event := <-play:
		assert.Equal(t, "beatles/yellow_submarine.mp3", event.StringField("matched_file", ""))
		assert.Equal(t, search.CorrelationID, event.CorrelationID)
	case <-time.After(2 * time.Second):
		t.Fatal("等待play-requested超时")
	}
}

func TestSearchMissEmitsNothing(t *testing.T) {
	bus, _ := newTestMusicRouter(t)

	emitted := make(chan *eventbus.ControlEvent, 2)
	bus.Subscribe(eventbus.EventMusicResolved, func(event *eventbus.ControlEvent) { emitted <- event })
	bus.Subscribe(eventbus.EventPlayRequested, func(event *eventbus.ControlEvent) { emitted <- event })

	require.True(t, bus.Publish(eventbus.NewControlEvent(eventbus.EventMusicSearchRequested, map[string]interface{}{
		"query": "does not exist",
	})))

	select {
	case event := <-emitted:
		t.Fatalf("未命中时不应发出任何事件, 收到 %s", event)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestSearchWithoutQueryIgnored(t *testing.T) {
	bus, resolver := newTestMusicRouter(t)
	resolver.AddEntry("anything", "x.mp3")

	emitted := make(chan *eventbus.ControlEvent, 1)
	bus.Subscribe(eventbus.EventPlayRequested, func(event *eventbus.ControlEvent) { emitted <- event })

	require.True(t, bus.Publish(eventbus.NewControlEvent(eventbus.EventMusicSearchRequested, nil)))

	select {
	case <-emitted:
		t.Fatal("缺少query的搜索请求不应产生播放请求")
	case <-time.After(300 * time.Millisecond):
	}
}
