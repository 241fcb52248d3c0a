package handler

import (
	"net/http"
	"time"

	"pdf-reader-session/internal/domain"
	"pdf-reader-session/internal/service"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const (
	eventWriteWait  = 10 * time.Second
	eventPongWait   = 60 * time.Second
	eventPingPeriod = eventPongWait * 9 / 10
)

// EventSource hands out per-session event subscriptions.
type EventSource interface {
	Subscribe(sessionID string) *service.Subscription
}

// EventsHandler streams session events over a websocket
type EventsHandler struct {
	sessions SessionManager
	events   EventSource
	upgrader websocket.Upgrader
	logger   domain.Logger
}

func NewEventsHandler(sessions SessionManager, events EventSource, allowedOrigins []string, logger domain.Logger) *EventsHandler {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}
	return &EventsHandler{
		sessions: sessions,
		events:   events,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := origins[origin]
				return ok
			},
		},
	}
}

// Stream upgrades the request and forwards every event of the session. The first
// message is a snapshot of the current state.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	session, err := h.sessions.Get(id)
	if err != nil {
		writeAppError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		h.logger.Warn("Websocket upgrade failed", "session_id", id, "error", err)
		return
	}
	defer conn.Close()

	sub := h.events.Subscribe(id)
	defer sub.Close()

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(eventPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(eventPongWait))
	})

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	snapshot := domain.SessionEvent{SessionID: id, Type: domain.EventSnapshot, Data: session.Snapshot()}
	if err := h.write(conn, snapshot); err != nil {
		return
	}

	ticker := time.NewTicker(eventPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case ev, ok := <-sub.Events:
			if !ok {
				return
			}
			if err := h.write(conn, ev); err != nil {
				return
			}
			if ev.Type == domain.EventClosed {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
					time.Now().Add(eventWriteWait))
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(eventWriteWait)); err != nil {
				return
			}
		case <-gone:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func (h *EventsHandler) write(conn *websocket.Conn, ev domain.SessionEvent) error {
	conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
	if err := conn.WriteJSON(ev); err != nil {
		h.logger.Debug("Websocket write failed", "session_id", ev.SessionID, "error", err)
		return err
	}
	return nil
}
