package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/goevery/notifier/internal/auth"
	"github.com/goevery/notifier/internal/broadcaster"
	"github.com/goevery/notifier/internal/ierr"
	"go.uber.org/zap"
)

type ConnectionManager interface {
	RegisterConnection(userId broadcaster.UserId, outbound broadcaster.Outbound) broadcaster.ConnectionId
	UnregisterConnection(connectionId broadcaster.ConnectionId)
}

type StreamSettings struct {
	BufferSize        int
	KeepAliveInterval time.Duration
}

func (s StreamSettings) withDefaults() StreamSettings {
	if s.BufferSize <= 0 {
		s.BufferSize = 64
	}

	if s.KeepAliveInterval <= 0 {
		s.KeepAliveInterval = 15 * time.Second
	}

	return s
}

func authenticateSubscriber(authenticator *auth.Authenticator, r *http.Request) (*auth.Authentication, error) {
	token := auth.TokenFromRequest(r)
	if token == "" {
		return nil, ierr.New(ierr.ErrorCodeUnauthenticated, errors.New("missing token"))
	}

	authentication, err := authenticator.AuthenticateJWT(token)
	if err != nil {
		return nil, err
	}

	if !authentication.IsSubscriber() {
		return nil, ierr.New(ierr.ErrorCodePermissionDenied, errors.New("subscribe scope required to open a stream"))
	}

	return authentication, nil
}

func mapError(logger *zap.Logger, err error) ierr.Error {
	var handlerErr ierr.Error
	if errors.As(err, &handlerErr) {
		return handlerErr
	}

	logger.Error("unexpected error", zap.Error(err))

	return ierr.New(ierr.ErrorCodeInternal, errors.New("internal error"))
}

type errorResponse struct {
	Error ierr.Error `json:"error"`
}

func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	handlerErr := mapError(logger, err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(handlerErr.HTTPStatus())

	_ = json.NewEncoder(w).Encode(errorResponse{Error: handlerErr})
}
