package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"novelhub/internal/novel"
	"novelhub/internal/progress"
	"novelhub/internal/scraper"
	"novelhub/pkg/database"
	"novelhub/pkg/utils"
)

func main() {
	cfg := utils.Load()
	logger := utils.NewLogger(nil, cfg.LogLevel)

	dbCfg := database.DefaultConfig()
	db := database.MustOpen(dbCfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		logger.Fatal("db migrate failed", "err", err)
	}

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	hub := progress.NewHub()
	router.GET("/ws", progress.WSHandler(hub, logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": dbCfg.Path})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":     "not_ready",
				"db_error":   err.Error(),
				"ws_clients": stats.WSClients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":     "ready",
			"db":         "ok",
			"ws_clients": stats.WSClients,
		})
	})

	// scrape pipeline
	fetcher := scraper.NewFetcher(cfg.FetchTimeout, cfg.UserAgent)
	resolver := scraper.NewSitemapResolver(fetcher, logger)
	repo := novel.NewRepo(db)
	pipeline := scraper.NewPipeline(fetcher, resolver, repo, hub, logger)

	handler := novel.NewHandler(repo, pipeline, logger)
	handler.RegisterRoutes(router)

	// front-end
	router.StaticFile("/", filepath.Join(cfg.WebDir, "index.html"))
	router.Static("/js", filepath.Join(cfg.WebDir, "js"))

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", httpSrv.Addr, "db", dbCfg.Path)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		logger.Error("server error", "err", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "err", err)
	}
	logger.Info("server stopped")
}
