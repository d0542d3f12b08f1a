package server

import (
	"context"
	"net/http"
	"time"

	"github.com/goevery/notifier/internal/auth"
	"github.com/goevery/notifier/internal/broadcaster"
	"github.com/goevery/notifier/internal/handler"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	websocketReadLimit  = 64 * 1024
	websocketWriteWait  = 10 * time.Second
	websocketReplyQueue = 16
)

type WebSocketServer struct {
	logger   *zap.Logger
	upgrader *websocket.Upgrader
	settings StreamSettings

	authenticator     *auth.Authenticator
	connectionManager ConnectionManager
	router            *Router
}

func NewWebSocketServer(
	logger *zap.Logger,
	upgrader *websocket.Upgrader,
	settings StreamSettings,
	authenticator *auth.Authenticator,
	connectionManager ConnectionManager,
	router *Router,
) *WebSocketServer {
	return &WebSocketServer{
		logger,
		upgrader,
		settings.withDefaults(),
		authenticator,
		connectionManager,
		router,
	}
}

func (s *WebSocketServer) Register(router *mux.Router) {
	router.HandleFunc("/websocket", s.handle).Methods("GET")
}

func (s *WebSocketServer) handle(w http.ResponseWriter, r *http.Request) {
	authentication, err := authenticateSubscriber(s.authenticator, r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	conn.SetReadLimit(websocketReadLimit)

	mailbox := broadcaster.NewMailbox(s.settings.BufferSize)
	connectionId := s.connectionManager.RegisterConnection(broadcaster.UserId(authentication.Subject), mailbox)
	defer s.connectionManager.UnregisterConnection(connectionId)

	logger := s.logger.With(
		zap.Stringer("connectionId", connectionId),
		zap.String("userId", authentication.Subject))

	logger.Info("websocket connection established")

	replies := make(chan handler.Response, websocketReplyQueue)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		s.writeLoop(conn, mailbox, replies, logger)
	}()

	ctx := auth.WithAuthentication(r.Context(), authentication)
	s.readLoop(ctx, conn, replies, logger)

	mailbox.Close()
	<-writerDone

	logger.Info("websocket connection closed")
}

func (s *WebSocketServer) pongWait() time.Duration {
	return 2 * s.settings.KeepAliveInterval
}

func (s *WebSocketServer) readLoop(
	ctx context.Context,
	conn *websocket.Conn,
	replies chan<- handler.Response,
	logger *zap.Logger,
) {
	_ = conn.SetReadDeadline(time.Now().Add(s.pongWait()))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.pongWait()))
	})

	for {
		var request handler.Request
		if err := conn.ReadJSON(&request); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket read failed", zap.Error(err))
			}

			return
		}

		_ = conn.SetReadDeadline(time.Now().Add(s.pongWait()))

		response := s.router.RouteRequest(ctx, request)
		if response == nil {
			continue
		}

		select {
		case replies <- *response:
		default:
			logger.Warn("reply queue is full, dropping reply", zap.Int("requestId", request.Id))
		}
	}
}

// writeLoop owns every write on conn. It returns when the mailbox is closed,
// either by the read side finishing or by the registry dropping the connection.
func (s *WebSocketServer) writeLoop(
	conn *websocket.Conn,
	mailbox *broadcaster.Mailbox,
	replies <-chan handler.Response,
	logger *zap.Logger,
) {
	ticker := time.NewTicker(s.settings.KeepAliveInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case <-mailbox.Done():
			_ = conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(websocketWriteWait))

			return
		case frame := <-mailbox.Frames():
			_ = conn.SetWriteDeadline(time.Now().Add(websocketWriteWait))
			if err := conn.WriteJSON(frame); err != nil {
				logger.Warn("failed to write frame", zap.String("event", frame.Event), zap.Error(err))

				return
			}
		case response := <-replies:
			_ = conn.SetWriteDeadline(time.Now().Add(websocketWriteWait))
			if err := conn.WriteJSON(response); err != nil {
				logger.Warn("failed to write reply", zap.Error(err))

				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(websocketWriteWait)); err != nil {
				logger.Warn("failed to write ping", zap.Error(err))

				return
			}
		}
	}
}
