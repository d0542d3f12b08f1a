package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/goevery/notifier/internal/auth"
	"github.com/goevery/notifier/internal/broadcaster"
	"github.com/goevery/notifier/internal/handler"
	"github.com/goevery/notifier/internal/server"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type App struct {
	logger          *zap.Logger
	settings        Settings
	manager         *broadcaster.Manager
	websocketServer *server.WebSocketServer
	sseServer       *server.SSEServer
	restServer      *server.RESTServer
}

func NewApp(logger *zap.Logger, settings Settings) *App {
	originChecker := server.NewOriginChecker(settings.AllowedOriginList())
	websocketUpgrader := &websocket.Upgrader{
		ReadBufferSize:    1024,
		WriteBufferSize:   1024,
		CheckOrigin:       originChecker.Check,
		EnableCompression: true,
	}

	authenticator := auth.NewAuthenticator(settings.JWTSecret, settings.JWTAudience, settings.APIKeyList())

	registry := broadcaster.NewInMemoryRegistry(logger, settings.RegistryShards)
	manager := broadcaster.NewManager(logger, registry)

	userIdValidator := handler.NewUserIdValidator()
	heartbeatHandler := handler.NewHeartbeatHandler()
	publishHandler := handler.NewPublishHandler(userIdValidator, manager)

	router := server.NewRouter(
		logger,
		heartbeatHandler,
		publishHandler,
	)

	streamSettings := server.StreamSettings{
		BufferSize:        settings.OutboundBufferSize,
		KeepAliveInterval: settings.KeepAliveInterval,
	}

	websocketServer := server.NewWebSocketServer(
		logger,
		websocketUpgrader,
		streamSettings,
		authenticator,
		manager,
		router,
	)
	sseServer := server.NewSSEServer(
		logger,
		streamSettings,
		originChecker,
		authenticator,
		manager,
	)
	restServer := server.NewRESTServer(
		logger,
		authenticator,
		publishHandler,
		heartbeatHandler,
		manager,
	)

	return &App{
		logger,
		settings,
		manager,
		websocketServer,
		sseServer,
		restServer,
	}
}

func (a *App) setup(ctx context.Context) error {
	a.startHttpServer(ctx)

	return nil
}

func (a *App) startHttpServer(ctx context.Context) {
	notifyCtx, notifyCtxCancel := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer notifyCtxCancel()

	address := fmt.Sprintf("0.0.0.0:%d", a.settings.Port)

	router := mux.NewRouter().
		PathPrefix(a.settings.BasePath).
		Subrouter()

	a.websocketServer.Register(router)
	a.sseServer.Register(router)
	a.restServer.Register(router)

	httpServer := &http.Server{
		Addr:    address,
		Handler: router,
	}

	a.logger.Info("starting http server",
		zap.String("address", address))

	go func() {
		err := httpServer.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("failed to start http server",
				zap.Error(err))
		}
	}()

	<-notifyCtx.Done()

	a.logger.Info("stopping http server")

	// Streaming handlers only return once their outbound is closed.
	a.manager.Close()

	shutdownCtx, shutdownCtxCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCtxCancel()

	err := httpServer.Shutdown(shutdownCtx)
	if err != nil {
		a.logger.Fatal("http server shutdown failed",
			zap.Error(err))
	}

	a.logger.Info("http server stopped")
}

func main() {
	ctx := context.Background()

	var settings Settings
	_, err := env.UnmarshalFromEnviron(&settings)
	if err != nil {
		panic(fmt.Errorf("failed to parse settings from environment: %w", err))
	}

	logger, err := buildZapLogger(settings.LogEncoding)
	if err != nil {
		panic(fmt.Errorf("failed to build logger: %w", err))
	}
	defer logger.Sync()

	app := NewApp(logger, settings)

	err = app.setup(ctx)
	if err != nil {
		logger.Fatal("failed to setup", zap.Error(err))
	}
}
