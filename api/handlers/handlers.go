package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/hasty/internal/service/report"
	"github.com/feichai0017/hasty/pkg/logger"
)

type Handlers struct {
	Report *ReportHandler
	Auth   *AuthHandler
}

func NewHandlers(
	reportService report.ReportProcessor,
	authService Authenticator,
	logger logger.Logger,
) *Handlers {
	return &Handlers{
		Report: NewReportHandler(reportService, logger),
		Auth:   NewAuthHandler(authService, logger),
	}
}

// Health 健康检查
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
