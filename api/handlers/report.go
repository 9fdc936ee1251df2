package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/hasty/internal/models"
	"github.com/feichai0017/hasty/internal/service/report"
	"github.com/feichai0017/hasty/pkg/converters"
	"github.com/feichai0017/hasty/pkg/logger"
)

type ReportHandler struct {
	service report.ReportProcessor
	logger  logger.Logger
}

// ProcessResponse 定义处理响应结构
type ProcessResponse struct {
	TaskID       string `json:"taskId"`
	Status       string `json:"status"`
	Filename     string `json:"filename"`
	FileSize     int64  `json:"fileSize"`
	Participants string `json:"participants"`
	Commodities  string `json:"commodities"`
	CreatedAt    string `json:"createdAt"`
}

// ErrorResponse 定义错误响应结构
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewReportHandler(service report.ReportProcessor, logger logger.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  logger,
	}
}

func newProcessResponse(task *models.ProcessingTask) ProcessResponse {
	size, _ := strconv.ParseInt(task.Metadata["size"], 10, 64)
	return ProcessResponse{
		TaskID:       task.ID,
		Status:       string(task.Status),
		Filename:     task.Metadata["filename"],
		FileSize:     size,
		Participants: task.Metadata["participants"],
		Commodities:  task.Metadata["commodities"],
		CreatedAt:    task.CreatedAt.Format(time.RFC3339),
	}
}

// ProcessReport 上传单个工作簿并创建报表任务
func (h *ReportHandler) ProcessReport(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.handleError(c, "Invalid file upload", newAPIError(http.StatusBadRequest, "invalid_upload", err))
		return
	}
	defer file.Close()

	task, err := h.service.ProcessFile(c.Request.Context(), file, header)
	if err != nil {
		h.handleError(c, "Failed to process workbook", err)
		return
	}

	c.JSON(http.StatusAccepted, newProcessResponse(task))
}

// ProcessBatch 批量上传工作簿
func (h *ReportHandler) ProcessBatch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		h.handleError(c, "Invalid form data", newAPIError(http.StatusBadRequest, "invalid_upload", err))
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		h.handleError(c, "No files provided", newAPIError(http.StatusBadRequest, "invalid_upload", nil))
		return
	}

	tasks, err := h.service.ProcessBatch(c.Request.Context(), files)
	if err != nil {
		h.handleError(c, "Failed to process workbooks", err)
		return
	}

	responses := make([]ProcessResponse, len(tasks))
	for i, task := range tasks {
		responses[i] = newProcessResponse(task)
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": fmt.Sprintf("Processing %d workbooks", len(tasks)),
		"tasks":   responses,
	})
}

// GetStatus 获取处理状态
func (h *ReportHandler) GetStatus(c *gin.Context) {
	task, err := h.service.GetProcessingStatus(c.Request.Context(), c.Param("taskId"))
	if err != nil {
		h.handleError(c, "Failed to get status", err)
		return
	}

	resp := gin.H{
		"taskId":    task.ID,
		"status":    string(task.Status),
		"progress":  task.Progress,
		"error":     task.Error,
		"metadata":  task.Metadata,
		"createdAt": task.CreatedAt.Format(time.RFC3339),
	}
	if !task.UpdatedAt.IsZero() {
		resp["updatedAt"] = task.UpdatedAt.Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, resp)
}

// Download 下载报表：默认工作簿，?format=json 返回 JSON
func (h *ReportHandler) Download(c *gin.Context) {
	taskID := c.Param("taskId")

	if c.Query("format") == "json" {
		result, err := h.service.GetReport(c.Request.Context(), taskID)
		if err != nil {
			h.handleError(c, "Failed to get result", err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=result_%s.json", taskID))
		c.JSON(http.StatusOK, result)
		return
	}

	reader, err := h.service.Download(c.Request.Context(), taskID)
	if err != nil {
		h.handleError(c, "Failed to get result", err)
		return
	}
	defer reader.Close()

	c.DataFromReader(http.StatusOK, -1, converters.XLSXContentType, reader, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%s", converters.ReportFileName),
	})
}

// Preview 预览上传的工作簿
func (h *ReportHandler) Preview(c *gin.Context) {
	preview, err := h.service.Preview(c.Request.Context(), c.Param("taskId"))
	if err != nil {
		h.handleError(c, "Failed to preview workbook", err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

// CancelTask 取消处理任务
func (h *ReportHandler) CancelTask(c *gin.Context) {
	taskID := c.Param("taskId")
	if err := h.service.CancelTask(c.Request.Context(), taskID); err != nil {
		h.handleError(c, "Failed to cancel task", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task cancelled successfully",
		"taskId":  taskID,
	})
}

// handleError 统一错误处理
func handleError(c *gin.Context, log logger.Logger, message string, err error) {
	ae := classify(err)

	fields := []logger.Field{
		logger.String("path", c.Request.URL.Path),
		logger.Int("status", ae.Status),
		logger.Error(err),
	}
	if ae.Status >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context(), log).Error(message, fields...)
	} else {
		logger.FromContext(c.Request.Context(), log).Warn(message, fields...)
	}

	response := ErrorResponse{
		Code:    ae.Code,
		Message: message,
	}
	if err != nil {
		response.Error = err.Error()
	}
	c.AbortWithStatusJSON(ae.Status, response)
}

func (h *ReportHandler) handleError(c *gin.Context, message string, err error) {
	handleError(c, h.logger, message, err)
}
