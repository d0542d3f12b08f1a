package server

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goevery/notifier/internal/auth"
	"github.com/goevery/notifier/internal/broadcaster"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// SSEServer streams frames as Server-Sent Events, one event per frame.
type SSEServer struct {
	logger   *zap.Logger
	settings StreamSettings

	originChecker     *OriginChecker
	authenticator     *auth.Authenticator
	connectionManager ConnectionManager
}

func NewSSEServer(
	logger *zap.Logger,
	settings StreamSettings,
	originChecker *OriginChecker,
	authenticator *auth.Authenticator,
	connectionManager ConnectionManager,
) *SSEServer {
	return &SSEServer{
		logger,
		settings.withDefaults(),
		originChecker,
		authenticator,
		connectionManager,
	}
}

func (s *SSEServer) Register(router *mux.Router) {
	router.HandleFunc("/events", s.handle).Methods("GET")
}

func (s *SSEServer) handle(w http.ResponseWriter, r *http.Request) {
	if origin := r.Header.Get("Origin"); origin != "" {
		if !s.originChecker.Check(r) {
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Vary", "Origin")
	}

	authentication, err := authenticateSubscriber(s.authenticator, r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, s.logger, errors.New("streaming unsupported by response writer"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	mailbox := broadcaster.NewMailbox(s.settings.BufferSize)
	connectionId := s.connectionManager.RegisterConnection(broadcaster.UserId(authentication.Subject), mailbox)
	defer s.connectionManager.UnregisterConnection(connectionId)

	logger := s.logger.With(
		zap.Stringer("connectionId", connectionId),
		zap.String("userId", authentication.Subject))

	logger.Info("event stream opened")
	defer logger.Info("event stream closed")

	if _, err := io.WriteString(w, ": connected\n\n"); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(s.settings.KeepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-mailbox.Done():
			return
		case frame := <-mailbox.Frames():
			if err := writeEvent(w, frame); err != nil {
				logger.Warn("failed to write event", zap.String("event", frame.Event), zap.Error(err))
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := io.WriteString(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w io.Writer, frame broadcaster.Frame) error {
	var b strings.Builder

	b.WriteString("event: ")
	b.WriteString(frame.Event)
	b.WriteByte('\n')

	for _, line := range strings.Split(frame.Data, "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}

	b.WriteByte('\n')

	_, err := io.WriteString(w, b.String())

	return err
}
