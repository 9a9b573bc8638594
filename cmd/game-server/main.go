package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codearena/internal/catalog"
	"codearena/internal/exec"
	"codearena/internal/game"
	"codearena/internal/middleware"
	"codearena/internal/transport"
	"codearena/pkg/utils/logger"
	"codearena/pkg/utils/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultConfigPath = "configs/game_server.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	flag.Parse()

	appCfg, err := loadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		return
	}

	if err := logger.Init(appCfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	cat, err := loadCatalog(appCfg.Catalog)
	if err != nil {
		logger.Error(context.Background(), "load challenge catalog failed", zap.Error(err))
		return
	}
	logger.Info(context.Background(), "challenge catalog loaded", zap.Int("challenges", cat.Len()))

	engine, err := exec.NewEngine(appCfg.Sandbox.toEngineConfig())
	if err != nil {
		logger.Error(context.Background(), "init sandbox engine failed", zap.Error(err))
		return
	}

	registry := game.NewRegistry(appCfg.Game.toSessionConfig(), cat, engine)
	hub := transport.NewHub(registry)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go hub.Run(sweepCtx)

	httpServer := buildHTTPServer(appCfg, registry, hub)

	errCh := make(chan error, 1)
	go func() {
		logger.Info(context.Background(), "game server started", zap.String("addr", appCfg.Server.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), "http server stopped", zap.Error(err))
		}
	case <-shutdownCtx.Done():
		logger.Info(context.Background(), "shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error(context.Background(), "http server shutdown failed", zap.Error(err))
	}
}

func loadCatalog(cfg CatalogConfig) (*catalog.Catalog, error) {
	if cfg.Dir == "" {
		return catalog.Default()
	}
	return catalog.LoadDir(context.Background(), cfg.Dir)
}

func buildHTTPServer(cfg *AppConfig, registry *game.Registry, hub *transport.Hub) *http.Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.CORS))
	router.Use(middleware.Trace())
	router.Use(requestLogger())

	router.GET("/health", func(c *gin.Context) {
		sessions, players := registry.Counts()
		response.Success(c, gin.H{
			"status":   "ok",
			"sessions": sessions,
			"players":  players,
		})
	})
	router.GET("/ws", hub.ServeWS)

	return &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		logger.Info(
			c.Request.Context(),
			"request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
