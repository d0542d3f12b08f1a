package server

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goevery/notifier/internal/auth"
	"github.com/goevery/notifier/internal/broadcaster"
	"github.com/goevery/notifier/internal/handler"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	manager *broadcaster.Manager
	server  *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger, _ := zap.NewDevelopment()
	registry := broadcaster.NewInMemoryRegistry(logger, 4)
	manager := broadcaster.NewManager(logger, registry)
	authenticator := auth.NewAuthenticator("test-secret", "notifier", []string{"test-api-key"})

	heartbeatHandler := handler.NewHeartbeatHandler()
	publishHandler := handler.NewPublishHandler(handler.NewUserIdValidator(), manager)
	router := NewRouter(logger, heartbeatHandler, publishHandler)

	settings := StreamSettings{
		BufferSize:        16,
		KeepAliveInterval: time.Second,
	}

	websocketServer := NewWebSocketServer(logger, &websocket.Upgrader{}, settings, authenticator, manager, router)
	sseServer := NewSSEServer(logger, settings, NewOriginChecker(nil), authenticator, manager)
	restServer := NewRESTServer(logger, authenticator, publishHandler, heartbeatHandler, manager)

	mainRouter := mux.NewRouter()
	websocketServer.Register(mainRouter)
	sseServer.Register(mainRouter)
	restServer.Register(mainRouter)

	server := httptest.NewServer(mainRouter)
	t.Cleanup(server.Close)
	t.Cleanup(manager.Close)

	return &fixture{
		manager: manager,
		server:  server,
	}
}

func (f *fixture) token(t *testing.T, subject string, scope ...string) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":   subject,
		"exp":   time.Now().Add(time.Hour).Unix(),
		"iat":   time.Now().Unix(),
		"aud":   "notifier",
		"scope": scope,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	return tokenString
}

func (f *fixture) waitForConnections(t *testing.T, connections int) {
	t.Helper()

	require.Eventually(t, func() bool {
		return f.manager.Stats().Connections == connections
	}, 2*time.Second, 10*time.Millisecond)
}
