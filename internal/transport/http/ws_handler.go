package http

import (
	"encoding/json"
	"net/http"
	"time"

	"gamified-learning/internal/app"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const wsWriteTimeout = 10 * time.Second

// WSHandler streams leaderboard snapshots to websocket clients.
type WSHandler struct {
	hub      *app.LeaderboardHub
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *app.LeaderboardHub, log *zap.Logger) *WSHandler {
	return &WSHandler{
		hub: hub,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and forwards every hub snapshot until the client disconnects.
// Clients may send {"type":"ping"} and receive a pong.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	updates, cancel, err := h.hub.Subscribe(r.Context())
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "leaderboard unavailable"}})
		h.log.Error("leaderboard subscribe failed", zap.Error(err))
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// single writer: gorilla connections do not support concurrent writes
	go func() {
		defer close(writerDone)
		for msg := range send {
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "leaderboard", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		var reply outboundMessage[any]
		switch inbound.Type {
		case "ping":
			reply = outboundMessage[any]{Type: "pong", Payload: struct{}{}}
		default:
			reply = outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
		select {
		case send <- reply:
		case <-writerDone:
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
