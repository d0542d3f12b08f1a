package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/goevery/notifier/internal/auth"
	"github.com/goevery/notifier/internal/broadcaster"
	"github.com/goevery/notifier/internal/handler"
	"github.com/goevery/notifier/internal/ierr"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type StatsProvider interface {
	Stats() broadcaster.Stats
}

type RESTServer struct {
	logger *zap.Logger

	authenticator    *auth.Authenticator
	publishHandler   handler.PublishHandlerInterface
	heartbeatHandler handler.HeartbeatHandlerInterface
	statsProvider    StatsProvider
}

func NewRESTServer(
	logger *zap.Logger,
	authenticator *auth.Authenticator,
	publishHandler handler.PublishHandlerInterface,
	heartbeatHandler handler.HeartbeatHandlerInterface,
	statsProvider StatsProvider,
) *RESTServer {
	return &RESTServer{
		logger,
		authenticator,
		publishHandler,
		heartbeatHandler,
		statsProvider,
	}
}

func (s *RESTServer) Register(router *mux.Router) {
	router.HandleFunc("/publish", s.handlePublish).Methods("POST", "OPTIONS")
	router.HandleFunc("/stats", s.handleStats).Methods("GET")
	router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
}

func (s *RESTServer) handlePublish(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

	if r.Method == "OPTIONS" {
		return
	}

	authentication, err := s.authenticator.Authenticate(auth.TokenFromRequest(r))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	var publishRequest handler.PublishRequest
	err = json.NewDecoder(r.Body).Decode(&publishRequest)
	if err != nil {
		writeError(w, s.logger, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("invalid request body")))
		return
	}

	ctx := auth.WithAuthentication(r.Context(), authentication)

	publishResponse, err := s.publishHandler.Handle(ctx, publishRequest)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	s.writeJSON(w, publishResponse)
}

func (s *RESTServer) handleStats(w http.ResponseWriter, r *http.Request) {
	authentication, err := s.authenticator.AuthenticateAPIKey(auth.TokenFromRequest(r))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	if !authentication.IsAdmin {
		writeError(w, s.logger, ierr.New(ierr.ErrorCodePermissionDenied, errors.New("admin required")))
		return
	}

	s.writeJSON(w, s.statsProvider.Stats())
}

func (s *RESTServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.heartbeatHandler.Handle())
}

func (s *RESTServer) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}
