package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"pairchat-service/internal/models"
	"pairchat-service/internal/observability"
)

// Hub maintains active websocket rooms: one per conversation, keyed by
// pair-key, and one per user for their request feed. Every broadcast carries
// the full current result set, so a client that missed an update is made
// whole by the next one.
type Hub struct {
	conversationRooms    map[string]map[*websocket.Conn]bool
	requestRooms         map[string]map[*websocket.Conn]bool
	conversationConnInfo map[string]map[*websocket.Conn]ConnInfo
	requestConnInfo      map[string]map[*websocket.Conn]ConnInfo
	mu                   sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		conversationRooms:    make(map[string]map[*websocket.Conn]bool),
		requestRooms:         make(map[string]map[*websocket.Conn]bool),
		conversationConnInfo: make(map[string]map[*websocket.Conn]ConnInfo),
		requestConnInfo:      make(map[string]map[*websocket.Conn]ConnInfo),
	}
}

// AddConversationClient registers a websocket connection to a conversation
// room.
func (h *Hub) AddConversationClient(pairKey string, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conversationRooms[pairKey]; !ok {
		h.conversationRooms[pairKey] = make(map[*websocket.Conn]bool)
	}
	h.conversationRooms[pairKey][conn] = true
	if _, ok := h.conversationConnInfo[pairKey]; !ok {
		h.conversationConnInfo[pairKey] = make(map[*websocket.Conn]ConnInfo)
	}
	h.conversationConnInfo[pairKey][conn] = info
}

// RemoveConversationClient removes a conversation websocket connection.
func (h *Hub) RemoveConversationClient(pairKey string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.conversationRooms[pairKey]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.conversationRooms, pairKey)
		}
	}
	if infos, ok := h.conversationConnInfo[pairKey]; ok {
		delete(infos, conn)
		if len(infos) == 0 {
			delete(h.conversationConnInfo, pairKey)
		}
	}
}

// AddRequestClient registers a websocket connection to a user's request feed.
func (h *Hub) AddRequestClient(userID string, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.requestRooms[userID]; !ok {
		h.requestRooms[userID] = make(map[*websocket.Conn]bool)
	}
	h.requestRooms[userID][conn] = true
	if _, ok := h.requestConnInfo[userID]; !ok {
		h.requestConnInfo[userID] = make(map[*websocket.Conn]ConnInfo)
	}
	h.requestConnInfo[userID][conn] = info
}

// RemoveRequestClient removes a request-feed websocket connection.
func (h *Hub) RemoveRequestClient(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.requestRooms[userID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.requestRooms, userID)
		}
	}
	if infos, ok := h.requestConnInfo[userID]; ok {
		delete(infos, conn)
		if len(infos) == 0 {
			delete(h.requestConnInfo, userID)
		}
	}
}

// BroadcastConversationSnapshot sends the full ordered message log to every
// client in the conversation room.
func (h *Hub) BroadcastConversationSnapshot(pairKey string, snapshot models.MessageSnapshot) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.conversationRooms[pairKey]))
	for conn := range h.conversationRooms[pairKey] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	payload, _ := json.Marshal(snapshot)
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("websocket write error: %v", err)
			conn.Close()
			h.RemoveConversationClient(pairKey, conn)
			h.publishWSError("conversation", pairKey, conn, err)
		}
	}
}

// BroadcastRequestSnapshot sends the viewer's full request sets to every
// client on their feed.
func (h *Hub) BroadcastRequestSnapshot(userID string, snapshot models.RequestSnapshot) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.requestRooms[userID]))
	for conn := range h.requestRooms[userID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	payload, _ := json.Marshal(snapshot)
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("websocket write error: %v", err)
			conn.Close()
			h.RemoveRequestClient(userID, conn)
			h.publishWSError("requests", userID, conn, err)
		}
	}
}

func (h *Hub) publishWSError(kind, roomID string, conn *websocket.Conn, err error) {
	info, ok := h.getConnInfo(kind, roomID, conn)
	if !ok {
		return
	}

	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        kind,
			"room_id":     roomID,
			"event":       "ws_error",
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      err.Error(),
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), wsRoutingKey(kind), observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload:   payload,
	}, headers)
	observability.IncWSEvent(kind, "ws_error")
}

func (h *Hub) getConnInfo(kind, roomID string, conn *websocket.Conn) (ConnInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if kind == "conversation" {
		if infos, ok := h.conversationConnInfo[roomID]; ok {
			info, exists := infos[conn]
			return info, exists
		}
		return ConnInfo{}, false
	}
	if infos, ok := h.requestConnInfo[roomID]; ok {
		info, exists := infos[conn]
		return info, exists
	}
	return ConnInfo{}, false
}

func wsRoutingKey(kind string) string {
	if kind == "requests" {
		return "ws_events.requests"
	}
	return "ws_events.conversations"
}
