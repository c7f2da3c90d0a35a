package http

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quizrush/internal/game"
)

// WSHandler upgrades HTTP requests to websockets and dispatches inbound
// events into the engine. Each connection gets an opaque id; identity within
// a session (player vs host) is resolved by the connection tracker.
type WSHandler struct {
	service  *game.Service
	hub      *Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewWSHandler(service *game.Service, hub *Hub, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		hub:     hub,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS runs one connection: a writer goroutine drains the send queue
// while this goroutine reads and dispatches until the peer goes away.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	c := newClient(uuid.NewString(), conn)
	h.hub.register(c)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range c.send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", zap.String("connId", c.id), zap.Error(err))
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(r, c.id, inbound)
	}

	h.hub.unregister(c.id)
	h.service.Disconnect(c.id)
	close(c.send)
	<-writerDone
}

func (h *WSHandler) dispatch(r *http.Request, connID string, inbound inboundMessage) {
	switch inbound.Type {
	case msgCreateSession:
		var p createSessionPayload
		if !h.decode(connID, inbound.Payload, &p) {
			return
		}
		if code, err := h.service.CreateSession(r.Context(), connID, p.QuizID); err == nil {
			h.hub.AddToRoom(code, connID)
		}

	case msgRestartSession:
		var p restartSessionPayload
		if !h.decode(connID, inbound.Payload, &p) {
			return
		}
		if code, err := h.service.RestartSession(r.Context(), connID, p.Identifier); err == nil {
			h.hub.AddToRoom(code, connID)
		}

	case msgJoin:
		var p joinPayload
		if !h.decode(connID, inbound.Payload, &p) {
			return
		}
		// Room membership first so the joiner sees its own player-joined event.
		h.hub.AddToRoom(p.Code, connID)
		if _, err := h.service.Join(connID, p.Code, p.Nickname); err != nil {
			h.hub.RemoveFromRoom(p.Code, connID)
		}

	case msgStart:
		var p codePayload
		if h.decode(connID, inbound.Payload, &p) {
			h.service.Start(connID, p.Code)
		}

	case msgContinue:
		var p codePayload
		if h.decode(connID, inbound.Payload, &p) {
			h.service.Continue(connID, p.Code)
		}

	case msgSubmitWord:
		var p wordPayload
		if h.decode(connID, inbound.Payload, &p) {
			h.service.SubmitWord(connID, p.Code, p.Word)
		}

	case msgSubmitAnswer:
		var p answerPayload
		if h.decode(connID, inbound.Payload, &p) {
			h.service.SubmitAnswer(connID, p.Code, p.QuestionID, p.AnswerIDs)
		}

	case msgAdvance:
		var p codePayload
		if h.decode(connID, inbound.Payload, &p) {
			h.service.Advance(connID, p.Code)
		}

	default:
		h.hub.EmitToConnection(connID, game.EventError, game.ErrorPayload{Message: "unsupported message type"})
	}
}

func (h *WSHandler) decode(connID string, raw json.RawMessage, out any) bool {
	if err := json.Unmarshal(raw, out); err != nil {
		h.hub.EmitToConnection(connID, game.EventError, game.ErrorPayload{Message: "invalid payload"})
		return false
	}
	return true
}
