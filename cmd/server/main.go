package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/hasty/api/handlers"
	"github.com/feichai0017/hasty/api/routes"
	"github.com/feichai0017/hasty/config"
	"github.com/feichai0017/hasty/internal/service/auth"
	"github.com/feichai0017/hasty/internal/service/report"
	"github.com/feichai0017/hasty/pkg/logger"
)

func main() {
	cfg, err := config.GetAppConfig()
	if err != nil {
		panic(err)
	}

	// init logger
	log, err := logger.NewLogger(logger.WithConfig(cfg.Log))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// init report service
	reportService, err := report.GetService(log, cfg)
	if err != nil {
		log.Fatal("Failed to get report service", logger.Error(err))
	}
	defer reportService.Close()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := reportService.Ping(pingCtx); err != nil {
		log.Warn("Queue backend not reachable", logger.Error(err))
	}
	pingCancel()

	authService := auth.NewService(cfg.Auth, log)
	if !authService.Enabled() {
		log.Warn("No password configured, report endpoints are open")
	}

	// init handlers
	h := handlers.NewHandlers(reportService, authService, log)
	r := gin.New()
	r.Use(gin.Recovery())
	routes.SetupRoutes(r, h, routes.Options{
		AllowOrigins:   cfg.Server.AllowOrigins,
		Authorizer:     authService,
		Logger:         log,
		MaxUploadBytes: cfg.Report.MaxFileSize,
	})

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: r,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 定期清理过期的上传和结果
	go runCleanup(ctx, reportService, log, time.Hour)

	// start server
	go func() {
		log.Info("Server starting", logger.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server error", logger.Error(err))
		}
	}()

	// wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	cancel()

	// graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", logger.Error(err))
	}
}

func runCleanup(ctx context.Context, reports report.ReportProcessor, log logger.Logger, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := reports.CleanupTasks(ctx); err != nil {
				log.Error("Cleanup failed", logger.Error(err))
			}
		}
	}
}
