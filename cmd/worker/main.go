package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/feichai0017/hasty/config"
	"github.com/feichai0017/hasty/internal/service/report"
	"github.com/feichai0017/hasty/pkg/logger"
	"github.com/feichai0017/hasty/pkg/worker"
)

func main() {
	cfg, err := config.GetAppConfig()
	if err != nil {
		panic(err)
	}

	// 初始化日志
	log, err := logger.NewLogger(logger.WithConfig(cfg.Log))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// 创建报表服务
	reportService, err := report.GetService(log, cfg)
	if err != nil {
		log.Error("Failed to create report service", logger.Error(err))
		os.Exit(1)
	}
	defer reportService.Close()

	// 创建 worker
	reportWorker, err := worker.NewReportWorker(worker.FromAppConfig(cfg.Queue), reportService, log)
	if err != nil {
		log.Error("Failed to create report worker", logger.Error(err))
		os.Exit(1)
	}

	// 创建上下文和取消函数
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 启动 worker
	if err := reportWorker.Start(ctx); err != nil {
		log.Error("Failed to start worker", logger.Error(err))
		os.Exit(1)
	}
	log.Info("Worker started",
		logger.String("redis", cfg.Queue.RedisAddr),
		logger.Int("concurrency", cfg.Queue.Concurrency),
	)

	// 等待中断信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	// 优雅关闭
	log.Info("Shutting down worker...")
	reportWorker.Stop()
	log.Info("Worker stopped")
}
