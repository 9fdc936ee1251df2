package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/hasty/internal/service/auth"
	"github.com/feichai0017/hasty/pkg/logger"
)

// Authenticator issues access tokens.
type Authenticator interface {
	Login(username, password string) (*auth.Token, error)
}

type AuthHandler struct {
	service Authenticator
	logger  logger.Logger
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func NewAuthHandler(service Authenticator, logger logger.Logger) *AuthHandler {
	return &AuthHandler{service: service, logger: logger}
}

// Login 校验凭据并返回访问令牌
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, h.logger, "Invalid login request", newAPIError(http.StatusBadRequest, "invalid_request", err))
		return
	}

	token, err := h.service.Login(req.Username, req.Password)
	if err != nil {
		handleError(c, h.logger, "Login failed", err)
		return
	}
	c.JSON(http.StatusOK, token)
}
