package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/aegis-sec/aegis/pkg/bus"
)

const wsWriteTimeout = 5 * time.Second

// eventBridge fans bus events out to every connected WebSocket client,
// grounded on codeready-toolchain-tarsy/pkg/events.ConnectionManager,
// downscoped from its Postgres NOTIFY/LISTEN cross-pod fanout (not
// applicable here — a single aegisd process has no peers) to a plain
// in-process subscription over pkg/bus (SPEC_FULL.md §E item 2).
type eventBridge struct {
	mu      sync.RWMutex
	clients map[string]*websocket.Conn
}

func newEventBridge(b *bus.Bus) *eventBridge {
	eb := &eventBridge{clients: make(map[string]*websocket.Conn)}
	b.Subscribe(bus.TopicAgentResponse, eb.broadcastHandler("agent.response"))
	b.Subscribe(bus.TopicHealthCheckCompleted, eb.broadcastHandler("health.check.completed"))
	return eb
}

func (eb *eventBridge) broadcastHandler(msgType string) bus.Handler {
	return func(event bus.Event) {
		eb.broadcast(msgType, event.Data)
	}
}

func (eb *eventBridge) broadcast(msgType string, data any) {
	payload, err := json.Marshal(map[string]any{"type": msgType, "data": data})
	if err != nil {
		slog.Warn("websocket broadcast: marshal failed", "type", msgType, "error", err)
		return
	}

	eb.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(eb.clients))
	for _, conn := range eb.clients {
		conns = append(conns, conn)
	}
	eb.mu.RUnlock()

	for _, conn := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), wsWriteTimeout)
		if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
			slog.Warn("websocket broadcast: write failed", "type", msgType, "error", err)
		}
		cancel()
	}
}

func (eb *eventBridge) register(id string, conn *websocket.Conn) {
	eb.mu.Lock()
	eb.clients[id] = conn
	eb.mu.Unlock()
}

func (eb *eventBridge) unregister(id string) {
	eb.mu.Lock()
	delete(eb.clients, id)
	eb.mu.Unlock()
}
