package models

import (
	"time"
)

// ProcessingTask 报表生成任务
type ProcessingTask struct {
	ID        string            `json:"id"`
	Status    ProcessingStatus  `json:"status"`
	Type      string            `json:"type"`
	Priority  int               `json:"priority"`
	Progress  float64           `json:"progress"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt,omitempty"`
}

type ProcessingStatus string

const (
	StatusPending   ProcessingStatus = "pending"
	StatusRunning   ProcessingStatus = "running"
	StatusCompleted ProcessingStatus = "completed"
	StatusFailed    ProcessingStatus = "failed"
	StatusCancelled ProcessingStatus = "cancelled"
)

// ParseStatus maps a stored status string to a ProcessingStatus.
// Unknown values are reported as pending.
func ParseStatus(s string) ProcessingStatus {
	switch ProcessingStatus(s) {
	case StatusRunning, "active":
		return StatusRunning
	case StatusCompleted:
		return StatusCompleted
	case StatusFailed:
		return StatusFailed
	case StatusCancelled:
		return StatusCancelled
	default:
		return StatusPending
	}
}

// SheetPreview 工作表预览
type SheetPreview struct {
	Sheet  string     `json:"sheet"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
	Total  int        `json:"total"`
}

// WorkbookPreview is what the user sees before running the analysis.
type WorkbookPreview struct {
	Commodities  []string     `json:"commodities"`
	Participants SheetPreview `json:"participants"`
	Technology   SheetPreview `json:"technology"`
}
