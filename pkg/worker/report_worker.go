package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/feichai0017/hasty/internal/service/report"
	"github.com/feichai0017/hasty/pkg/logger"
	"github.com/feichai0017/hasty/pkg/queue"
)

// ReportHandler is the part of the report service the worker drives.
type ReportHandler interface {
	HandleReport(ctx context.Context, task *queue.Task) error
}

type ReportWorker struct {
	BaseWorker
	reports ReportHandler
}

func NewReportWorker(cfg *Config, reports ReportHandler, log logger.Logger) (*ReportWorker, error) {
	if cfg.Concurrency < 1 {
		return nil, fmt.Errorf("worker concurrency must be at least 1, got %d", cfg.Concurrency)
	}

	w := &ReportWorker{
		BaseWorker: newBaseWorker(cfg, log),
		reports:    reports,
	}

	// 注册任务处理器
	w.mux.HandleFunc(queue.TaskTypeReportGenerate, w.handleReport)
	return w, nil
}

func (w *ReportWorker) handleReport(ctx context.Context, t *asynq.Task) error {
	var task queue.Task
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		w.logger.Error("Failed to unmarshal task",
			logger.Error(err),
			logger.String("payload", string(t.Payload())),
		)
		return fmt.Errorf("failed to unmarshal task: %v: %w", err, asynq.SkipRetry)
	}

	ctx = context.WithValue(ctx, logger.TaskIDKey, task.ID)
	logger.FromContext(ctx, w.logger).Info("Processing report task",
		logger.Any("metadata", task.Metadata),
	)

	err := w.reports.HandleReport(ctx, &task)
	writeResult(t, err)
	if err == nil {
		return nil
	}

	// 输入本身有问题时重试没有意义
	if report.IsInputError(err) {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	return err
}

// writeResult 将结果摘要写入 asynq 的任务结果
func writeResult(t *asynq.Task, err error) {
	rw := t.ResultWriter()
	if rw == nil {
		return
	}
	result := map[string]string{"status": "completed"}
	if err != nil {
		result = map[string]string{"status": "failed", "error": err.Error()}
	}
	data, _ := json.Marshal(result)
	rw.Write(data)
}

func (w *ReportWorker) Start(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("failed to start worker server: %w", err)
	}

	go func() {
		<-ctx.Done()
		w.Stop()
	}()

	return nil
}
