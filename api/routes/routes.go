package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/feichai0017/hasty/api/handlers"
	"github.com/feichai0017/hasty/api/middleware"
	"github.com/feichai0017/hasty/pkg/logger"
)

// Options 路由配置
type Options struct {
	AllowOrigins []string
	Authorizer   middleware.Authorizer
	Logger       logger.Logger
	// MaxUploadBytes bounds multipart parsing memory
	MaxUploadBytes int64
}

// SetupRoutes 配置所有路由
func SetupRoutes(r *gin.Engine, h *handlers.Handlers, opts Options) {
	// 全局中间件
	r.Use(middleware.RequestID(opts.Logger))
	r.Use(middleware.CORS(opts.AllowOrigins))
	if opts.MaxUploadBytes > 0 {
		r.MaxMultipartMemory = opts.MaxUploadBytes
	}

	// API 版本组
	v1 := r.Group("/api/v1")

	// 健康检查
	v1.GET("/health", handlers.Health)

	v1.POST("/auth/login", h.Auth.Login)

	// 报表路由组，需要登录
	reports := v1.Group("/reports")
	reports.Use(middleware.RequireAuth(opts.Authorizer, opts.Logger))
	{
		reports.POST("/process", h.Report.ProcessReport)
		reports.POST("/batch", h.Report.ProcessBatch)
		reports.GET("/status/:taskId", h.Report.GetStatus)
		reports.GET("/download/:taskId", h.Report.Download)
		reports.GET("/preview/:taskId", h.Report.Preview)
		reports.DELETE("/task/:taskId", h.Report.CancelTask)
	}
}
