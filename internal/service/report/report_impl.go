package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/feichai0017/hasty/config"
	"github.com/feichai0017/hasty/internal/aggregate"
	"github.com/feichai0017/hasty/internal/models"
	"github.com/feichai0017/hasty/internal/utils/validator"
	"github.com/feichai0017/hasty/pkg/converters"
	"github.com/feichai0017/hasty/pkg/logger"
	"github.com/feichai0017/hasty/pkg/queue"
	"github.com/feichai0017/hasty/pkg/storage"
)

// ErrTaskFinished is returned when cancelling a task that already ended.
var ErrTaskFinished = errors.New("task already finished")

type ReportService struct {
	queue     queue.Queue
	storage   storage.Storage
	validator *validator.WorkbookValidator
	xlsx      *converters.XLSXWriter
	json      *converters.JSONConverter
	logger    logger.Logger
	config    *ServiceConfig
}

type ServiceConfig struct {
	MaxFileSize     int64
	QueuePriority   int
	Concurrency     int
	RetentionPeriod time.Duration
	PreviewRows     int
	PreviewTechRows int
}

// DefaultServiceConfig 默认服务配置
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		MaxFileSize:     20 * 1024 * 1024,
		QueuePriority:   2,
		Concurrency:     1,
		RetentionPeriod: 7 * 24 * time.Hour,
		PreviewRows:     converters.DefaultParticipantPreviewRows,
		PreviewTechRows: converters.DefaultTechnologyPreviewRows,
	}
}

// ConfigFromApp 从应用配置生成服务配置
func ConfigFromApp(c config.ReportConfig) *ServiceConfig {
	cfg := DefaultServiceConfig()
	cfg.MaxFileSize = c.MaxFileSize
	cfg.Concurrency = c.Concurrency
	cfg.RetentionPeriod = c.Retention
	cfg.PreviewRows = c.PreviewRows
	cfg.PreviewTechRows = c.PreviewTechRows
	return cfg
}

func NewService(
	q queue.Queue,
	store storage.Storage,
	log logger.Logger,
	cfg *ServiceConfig,
) *ReportService {
	if cfg == nil {
		cfg = DefaultServiceConfig()
	}

	vcfg := validator.DefaultConfig()
	vcfg.MaxFileSize = cfg.MaxFileSize

	return &ReportService{
		queue:     q,
		storage:   store,
		validator: validator.NewWorkbookValidator(log, vcfg),
		xlsx:      converters.NewXLSXWriter(),
		json:      converters.NewJSONConverter(),
		logger:    log,
		config:    cfg,
	}
}

func GetService(log logger.Logger, app *config.AppConfig) (*ReportService, error) {
	store, err := storage.NewStorage(storage.StorageType(app.Storage.Type), log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	q, err := queue.GetQueue(app.Queue)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize queue: %w", err)
	}

	return NewService(q, store, log, ConfigFromApp(app.Report)), nil
}

// ProcessFile 校验上传的工作簿并创建报表任务
func (s *ReportService) ProcessFile(
	ctx context.Context,
	file multipart.File,
	header *multipart.FileHeader,
) (*models.ProcessingTask, error) {
	log := logger.FromContext(ctx, s.logger)
	log.Info("Starting workbook upload",
		logger.String("filename", header.Filename),
		logger.Int64("size", header.Size),
	)

	result, err := s.validator.Validate(header.Filename, header.Size, file)
	if err != nil {
		return nil, fmt.Errorf("failed to validate %s: %w", header.Filename, err)
	}
	if !result.IsValid {
		return nil, fmt.Errorf("%w: %s: %s", ErrInvalidUpload, header.Filename, result.Error())
	}

	// 先解析一次，缺少工作表或列时立即拒绝
	wb, err := converters.ReadWorkbook(file)
	if err != nil {
		log.Warn("Workbook rejected",
			logger.String("filename", header.Filename),
			logger.Error(err),
		)
		return nil, fmt.Errorf("failed to read %s: %w", header.Filename, err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind %s: %w", header.Filename, err)
	}
	commodities := aggregate.CommodityNames(wb.Participants)

	taskID := uuid.New().String()
	now := time.Now()

	task := &models.ProcessingTask{
		ID:        taskID,
		Status:    models.StatusPending,
		Type:      queue.TaskTypeReportGenerate,
		Priority:  s.config.QueuePriority,
		CreatedAt: now,
		UpdatedAt: now,
		Metadata: map[string]string{
			"filename":     header.Filename,
			"size":         strconv.FormatInt(header.Size, 10),
			"hash":         result.FileInfo.Hash,
			"participants": strconv.Itoa(len(wb.Participants)),
			"commodities":  strconv.Itoa(len(commodities)),
		},
	}

	fileID, err := s.storage.Store(ctx, file, storage.UploadKey(taskID))
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	// 入队前保存初始状态，避免覆盖 worker 写入的状态
	status := &queue.TaskStatus{
		TaskID:    taskID,
		Status:    string(models.StatusPending),
		Metadata:  task.Metadata,
		StartedAt: now,
	}
	if err := s.queue.SaveStatus(ctx, status); err != nil {
		log.Error("Failed to save initial status",
			logger.String("taskId", taskID),
			logger.Error(err),
		)
	}

	queueTask := &queue.Task{
		ID:       taskID,
		Type:     task.Type,
		Priority: task.Priority,
		Payload: map[string]interface{}{
			"fileId":   fileID,
			"filename": header.Filename,
			"size":     header.Size,
		},
		Metadata:  task.Metadata,
		CreatedAt: now,
	}

	if err := s.queue.Enqueue(ctx, queueTask); err != nil {
		status.Status = string(models.StatusFailed)
		status.Error = err.Error()
		if saveErr := s.queue.SaveFinalStatus(ctx, status); saveErr != nil {
			log.Error("Failed to save failed status", logger.Error(saveErr))
		}
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	log.Info("Report task created",
		logger.String("taskId", taskID),
		logger.String("filename", header.Filename),
		logger.Strings("commodities", commodities),
	)

	return task, nil
}

// ProcessBatch 批量处理上传的工作簿
func (s *ReportService) ProcessBatch(ctx context.Context, files []*multipart.FileHeader) ([]*models.ProcessingTask, error) {
	tasks := make([]*models.ProcessingTask, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for i, header := range files {
		i, header := i, header
		g.Go(func() error {
			file, err := header.Open()
			if err != nil {
				return fmt.Errorf("failed to open file %s: %w", header.Filename, err)
			}
			defer file.Close()

			task, err := s.ProcessFile(ctx, file, header)
			if err != nil {
				return err
			}
			tasks[i] = task
			return nil
		})
	}

	err := g.Wait()

	// 返回已创建的任务（保持上传顺序）
	created := make([]*models.ProcessingTask, 0, len(tasks))
	for _, t := range tasks {
		if t != nil {
			created = append(created, t)
		}
	}
	return created, err
}

// HandleReport 在 worker 中生成报表
func (s *ReportService) HandleReport(ctx context.Context, task *queue.Task) error {
	if task == nil || task.ID == "" {
		return fmt.Errorf("%w: task has no id", ErrInvalidUpload)
	}
	fileID := task.PayloadString("fileId")
	if fileID == "" {
		return fmt.Errorf("%w: task %s has no file", ErrInvalidUpload, task.ID)
	}

	log := s.logger.With(logger.String("taskId", task.ID))
	log.Info("Generating report", logger.String("filename", task.Metadata["filename"]))

	status := &queue.TaskStatus{
		TaskID:    task.ID,
		Status:    string(models.StatusRunning),
		Metadata:  task.Metadata,
		StartedAt: time.Now(),
	}
	if err := s.queue.SaveStatus(ctx, status); err != nil {
		log.Error("Failed to save running status", logger.Error(err))
	}

	if err := s.generate(ctx, log, task, fileID, status); err != nil {
		status.Status = string(models.StatusFailed)
		if errors.Is(err, context.Canceled) {
			status.Status = string(models.StatusCancelled)
		}
		status.Error = err.Error()
		// 任务上下文可能已取消，状态仍需写入
		if saveErr := s.queue.SaveFinalStatus(context.WithoutCancel(ctx), status); saveErr != nil {
			log.Error("Failed to save final status", logger.Error(saveErr))
		}
		log.Error("Report generation failed", logger.Error(err))
		return err
	}

	status.Status = string(models.StatusCompleted)
	status.Progress = 1.0
	status.Error = ""
	status.FinishedAt = time.Now()
	if err := s.queue.SaveFinalStatus(ctx, status); err != nil {
		log.Error("Failed to save final status", logger.Error(err))
	}

	log.Info("Report generation completed",
		logger.Duration("elapsed", status.FinishedAt.Sub(status.StartedAt)),
	)
	return nil
}

func (s *ReportService) generate(
	ctx context.Context,
	log logger.Logger,
	task *queue.Task,
	fileID string,
	status *queue.TaskStatus,
) error {
	started := time.Now()

	reader, err := s.storage.Get(ctx, fileID)
	if err != nil {
		return fmt.Errorf("failed to get upload: %w", err)
	}
	wb, err := converters.ReadWorkbook(reader)
	reader.Close()
	if err != nil {
		return fmt.Errorf("failed to read workbook: %w", err)
	}

	rep, err := aggregate.Build(ctx, wb.Participants, wb.Technology,
		aggregate.WithConcurrency(s.config.Concurrency),
		aggregate.WithLogger(log),
		aggregate.WithProgress(func(p aggregate.Progress) {
			status.Progress = p.Fraction()
			if err := s.queue.SaveStatus(ctx, status); err != nil {
				log.Warn("Failed to save progress",
					logger.String("commodity", p.Commodity),
					logger.Error(err),
				)
			}
		}),
	)
	if err != nil {
		return err
	}

	buf, err := s.xlsx.Render(rep)
	if err != nil {
		return fmt.Errorf("failed to render workbook: %w", err)
	}

	meta := converters.ReportMetadata{
		FileName:     task.Metadata["filename"],
		Participants: len(wb.Participants),
		ProcessingMs: time.Since(started).Milliseconds(),
	}
	if size, err := strconv.ParseInt(task.Metadata["size"], 10, 64); err == nil {
		meta.FileSize = size
	}
	doc, err := s.json.Convert(task.ID, rep, meta)
	if err != nil {
		return fmt.Errorf("failed to convert report: %w", err)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	// 两种结果都渲染成功后再写入存储
	xlsxKey := storage.ResultKey(task.ID)
	if _, err := s.storage.Store(ctx, bytes.NewReader(buf.Bytes()), xlsxKey); err != nil {
		return fmt.Errorf("failed to store result: %w", err)
	}
	if _, err := s.storage.Store(ctx, bytes.NewReader(data), storage.ResultJSONKey(task.ID)); err != nil {
		if derr := s.storage.Delete(context.WithoutCancel(ctx), xlsxKey); derr != nil {
			log.Warn("Failed to remove partial result",
				logger.String("key", xlsxKey),
				logger.Error(derr),
			)
		}
		return fmt.Errorf("failed to store result: %w", err)
	}

	return nil
}

// GetProcessingStatus 获取处理状态
func (s *ReportService) GetProcessingStatus(ctx context.Context, taskID string) (*models.ProcessingTask, error) {
	status, err := s.queue.GetTaskStatus(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task status: %w", err)
	}

	metadata := status.Metadata
	if metadata == nil {
		metadata = make(map[string]string)
	}

	return &models.ProcessingTask{
		ID:        status.TaskID,
		Status:    models.ParseStatus(status.Status),
		Type:      queue.TaskTypeReportGenerate,
		Priority:  s.config.QueuePriority,
		Progress:  status.Progress,
		Error:     status.Error,
		Metadata:  metadata,
		CreatedAt: status.StartedAt,
		UpdatedAt: status.FinishedAt,
	}, nil
}

func (s *ReportService) requireCompleted(ctx context.Context, taskID string) error {
	status, err := s.GetProcessingStatus(ctx, taskID)
	if err != nil {
		return err
	}
	if status.Status != models.StatusCompleted {
		return fmt.Errorf("%w: %s is %s", ErrTaskNotFinished, taskID, status.Status)
	}
	return nil
}

// GetReport 获取 JSON 格式的报表
func (s *ReportService) GetReport(ctx context.Context, taskID string) (*converters.ProcessedReport, error) {
	if err := s.requireCompleted(ctx, taskID); err != nil {
		return nil, err
	}

	reader, err := s.storage.Get(ctx, storage.ResultJSONKey(taskID))
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	defer reader.Close()

	var result converters.ProcessedReport
	if err := json.NewDecoder(reader).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}

	return &result, nil
}

// Download 获取报表工作簿；调用方负责关闭
func (s *ReportService) Download(ctx context.Context, taskID string) (io.ReadCloser, error) {
	if err := s.requireCompleted(ctx, taskID); err != nil {
		return nil, err
	}

	reader, err := s.storage.Get(ctx, storage.ResultKey(taskID))
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	return reader, nil
}

// Preview 预览上传的工作簿
func (s *ReportService) Preview(ctx context.Context, taskID string) (*models.WorkbookPreview, error) {
	reader, err := s.storage.Get(ctx, storage.UploadKey(taskID))
	if err != nil {
		return nil, fmt.Errorf("failed to get upload: %w", err)
	}
	defer reader.Close()

	wb, err := converters.ReadWorkbook(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook: %w", err)
	}

	preview := wb.Preview(s.config.PreviewRows, s.config.PreviewTechRows)
	return &preview, nil
}

// CancelTask 取消任务
func (s *ReportService) CancelTask(ctx context.Context, taskID string) error {
	current, err := s.GetProcessingStatus(ctx, taskID)
	if err != nil {
		return err
	}
	switch current.Status {
	case models.StatusCompleted, models.StatusFailed, models.StatusCancelled:
		return fmt.Errorf("%w: %s is %s", ErrTaskFinished, taskID, current.Status)
	}

	if err := s.queue.CancelTask(ctx, taskID); err != nil {
		return fmt.Errorf("failed to cancel task: %w", err)
	}

	status := &queue.TaskStatus{
		TaskID:    taskID,
		Status:    string(models.StatusCancelled),
		Progress:  current.Progress,
		Metadata:  current.Metadata,
		StartedAt: current.CreatedAt,
	}
	if err := s.queue.SaveFinalStatus(ctx, status); err != nil {
		s.logger.Error("Failed to save cancelled status",
			logger.String("taskId", taskID),
			logger.Error(err),
		)
	}

	s.logger.Info("Task cancelled",
		logger.String("taskId", taskID),
	)

	return nil
}

// CleanupTasks 清理过期的上传和结果
func (s *ReportService) CleanupTasks(ctx context.Context) error {
	threshold := time.Now().Add(-s.config.RetentionPeriod)

	if err := s.storage.CleanupBefore(ctx, threshold); err != nil {
		return fmt.Errorf("failed to cleanup storage: %w", err)
	}

	s.logger.Info("Completed tasks cleanup",
		logger.Time("threshold", threshold),
	)

	return nil
}

var _ ReportProcessor = (*ReportService)(nil)

// Ping checks that the queue backend is reachable.
func (s *ReportService) Ping(ctx context.Context) error {
	if p, ok := s.queue.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close releases the queue connections.
func (s *ReportService) Close() error {
	if c, ok := s.queue.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
