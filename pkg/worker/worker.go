package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hibiken/asynq"

	"github.com/feichai0017/hasty/config"
	"github.com/feichai0017/hasty/pkg/logger"
)

type Worker interface {
	Start(ctx context.Context) error
	Stop() error
}

type Config struct {
	RedisAddr   string
	RedisDB     int
	Concurrency int
	Queues      map[string]int
	RetryDelay  time.Duration
}

// FromAppConfig 从应用配置生成 worker 配置
func FromAppConfig(c config.QueueConfig) *Config {
	return &Config{
		RedisAddr:   c.RedisAddr,
		RedisDB:     c.RedisDB,
		Concurrency: c.Concurrency,
		Queues:      c.Queues,
		RetryDelay:  c.RetryDelay,
	}
}

type BaseWorker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	logger   logger.Logger
	stopOnce sync.Once
}

func newBaseWorker(cfg *Config, log logger.Logger) BaseWorker {
	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr, DB: cfg.RedisDB},
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues:      cfg.Queues,
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				if cfg.RetryDelay > 0 {
					return time.Duration(n+1) * cfg.RetryDelay
				}
				return asynq.DefaultRetryDelayFunc(n, err, task)
			},
			Logger: &asynqLogger{log: log.Named("asynq")},
		},
	)

	return BaseWorker{
		server: server,
		mux:    asynq.NewServeMux(),
		logger: log,
	}
}

func (w *BaseWorker) Stop() error {
	w.stopOnce.Do(func() {
		w.server.Shutdown()
	})
	return nil
}

// asynqLogger 将 asynq 的日志转到 logger.Logger
type asynqLogger struct {
	log logger.Logger
}

func (l *asynqLogger) Debug(args ...interface{}) { l.log.Debug(sprint(args)) }
func (l *asynqLogger) Info(args ...interface{})  { l.log.Info(sprint(args)) }
func (l *asynqLogger) Warn(args ...interface{})  { l.log.Warn(sprint(args)) }
func (l *asynqLogger) Error(args ...interface{}) { l.log.Error(sprint(args)) }
func (l *asynqLogger) Fatal(args ...interface{}) { l.log.Fatal(sprint(args)) }

func sprint(args []interface{}) string {
	return fmt.Sprint(args...)
}
