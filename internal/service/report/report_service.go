package report

import (
	"context"
	"errors"
	"io"
	"mime/multipart"

	"github.com/feichai0017/hasty/internal/aggregate"
	"github.com/feichai0017/hasty/internal/models"
	"github.com/feichai0017/hasty/pkg/converters"
	"github.com/feichai0017/hasty/pkg/queue"
)

var (
	// ErrInvalidUpload is returned when an uploaded file is not an acceptable workbook.
	ErrInvalidUpload = errors.New("invalid upload")
	// ErrTaskNotFinished is returned when a result is requested before the task completed.
	ErrTaskNotFinished = errors.New("task not finished")
)

// ReportProcessor 报表服务接口
type ReportProcessor interface {
	ProcessFile(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*models.ProcessingTask, error)
	ProcessBatch(ctx context.Context, files []*multipart.FileHeader) ([]*models.ProcessingTask, error)
	GetProcessingStatus(ctx context.Context, taskID string) (*models.ProcessingTask, error)
	HandleReport(ctx context.Context, task *queue.Task) error
	GetReport(ctx context.Context, taskID string) (*converters.ProcessedReport, error)
	Download(ctx context.Context, taskID string) (io.ReadCloser, error)
	Preview(ctx context.Context, taskID string) (*models.WorkbookPreview, error)
	CancelTask(ctx context.Context, taskID string) error
	CleanupTasks(ctx context.Context) error
}

// IsInputError reports whether err was caused by the uploaded workbook
// itself, so retrying the task cannot succeed.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidUpload) ||
		errors.Is(err, converters.ErrInvalidWorkbook) ||
		errors.Is(err, converters.ErrMissingSheet) ||
		errors.Is(err, converters.ErrMissingColumn) ||
		errors.Is(err, converters.ErrInvalidRow) ||
		errors.Is(err, aggregate.ErrMissingReference) ||
		errors.Is(err, aggregate.ErrEmptyCommodity) ||
		errors.Is(err, aggregate.ErrMixedCommodity)
}
