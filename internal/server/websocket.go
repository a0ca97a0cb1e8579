package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/lawnchairsociety/chronicle/internal/actions"
	"github.com/lawnchairsociety/chronicle/internal/logger"
)

// Play-channel operations.
const (
	opHello   = "hello"
	opResolve = "resolve"
	opExecute = "execute"
	opTurn    = "turn"
	opSheet   = "sheet"
	opError   = "error"
)

// wsRequest is a message from the player.
type wsRequest struct {
	Op       string                  `json:"op"`
	PromptID string                  `json:"prompt_id,omitempty"`
	Text     string                  `json:"text,omitempty"`
	Action   *actions.ExecuteRequest `json:"action,omitempty"`
	Response string                  `json:"response,omitempty"`
}

// wsReply answers one request. Data holds the same body the HTTP API returns
// for the operation.
type wsReply struct {
	Op           string `json:"op"`
	ConnectionID string `json:"connection_id,omitempty"`
	Data         any    `json:"data,omitempty"`
	Error        string `json:"error,omitempty"`
	Status       int    `json:"status,omitempty"`
}

// handleWebSocketUpgrade upgrades /ws?vampire={id} to the play channel.
func (s *Server) handleWebSocketUpgrade(w http.ResponseWriter, r *http.Request) {
	vampireID, err := strconv.ParseInt(r.URL.Query().Get("vampire"), 10, 64)
	if err != nil || vampireID < 1 {
		writeError(w, r, badRequest("vampire query parameter is required"))
		return
	}
	if _, err := s.db.GetVampire(vampireID); err != nil {
		writeError(w, r, err)
		return
	}

	ip := clientIP(r)
	release, ok := s.connLimiter.Acquire(ip)
	if !ok {
		logger.Warning("WebSocket connection rejected - limit exceeded",
			"remote_addr", r.RemoteAddr,
			"client_ip", ip)
		http.Error(w, "Too many connections. Please try again later.", http.StatusTooManyRequests)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			allowed := s.cfg.WebSocket.IsOriginAllowed(origin, r.Host)
			if !allowed {
				logger.Warning("WebSocket connection rejected - origin not allowed",
					"origin", origin,
					"host", r.Host,
					"remote_addr", r.RemoteAddr)
			}
			return allowed
		},
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warning("WebSocket upgrade failed", "error", err)
		release()
		return
	}

	client := NewWebSocketClient(wsConn, vampireID, s.cfg.WebSocket.MaxMessageSize)
	go s.handleWebSocketConnection(client, release)
}

// handleWebSocketConnection serves one play-channel connection until it closes.
func (s *Server) handleWebSocketConnection(client *WebSocketClient, release func()) {
	s.addClient(client)
	defer func() {
		s.removeClient(client)
		release()
		client.Close()
		logger.Info("Play channel closed", "connection_id", client.ID(), "vampire_id", client.VampireID())
	}()

	logger.Info("Play channel opened",
		"connection_id", client.ID(),
		"vampire_id", client.VampireID(),
		"remote_addr", client.RemoteAddr())

	if err := client.WriteJSON(wsReply{Op: opHello, ConnectionID: client.ID()}); err != nil {
		return
	}

	ctx := context.Background()
	for {
		var req wsRequest
		err := client.ReadMessage(&req)
		var malformed errMalformedMessage
		switch {
		case errors.As(err, &malformed):
			if client.WriteJSON(errorReply(err)) != nil {
				return
			}
			continue
		case err != nil:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("Play channel read failed", "connection_id", client.ID(), "error", err)
			}
			return
		}

		if err := client.WriteJSON(s.dispatch(ctx, client.VampireID(), req)); err != nil {
			return
		}
	}
}

// dispatch runs one play-channel request against the vampire.
func (s *Server) dispatch(ctx context.Context, vampireID int64, req wsRequest) wsReply {
	var (
		data any
		err  error
	)
	switch req.Op {
	case opResolve:
		data, err = s.resolve(ctx, vampireID, actions.Request{PromptID: req.PromptID, Text: req.Text})
	case opExecute:
		if req.Action == nil {
			err = badRequest("execute requires an action")
			break
		}
		data, err = s.execute(ctx, vampireID, *req.Action)
	case opTurn:
		data, err = s.controller.AdvanceTurn(ctx, vampireID, req.Response)
	case opSheet:
		data, err = s.controller.Sheet(vampireID)
	default:
		err = badRequest("unknown op %q", req.Op)
	}

	if err != nil {
		reply := errorReply(err)
		if reply.Status == http.StatusInternalServerError {
			logger.ErrorContext(ctx, "Play channel request failed", "op", req.Op, "vampire_id", vampireID, "error", err)
		}
		return reply
	}
	return wsReply{Op: req.Op, Data: data}
}

func errorReply(err error) wsReply {
	status := statusFor(err)
	return wsReply{Op: opError, Error: errorMessage(status, err), Status: status}
}
