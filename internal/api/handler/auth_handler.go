package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"klimr/backend/config"
	"klimr/backend/internal/dto"
	"klimr/backend/internal/service"
	"klimr/backend/pkg/response"
)

// AuthHandler 本地账号认证 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
	cookies *cookieWriter
	cfg     *config.AuthConfig
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc service.AuthService, cookies *cookieWriter, cfg *config.AuthConfig) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, cookies: cookies, cfg: cfg}
}

// Login 用户名密码登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	ttl := h.cfg.RefreshTokenTTLDefault
	if req.RememberMe {
		ttl = h.cfg.RefreshTokenTTLRemember
	}
	h.cookies.set(c, refreshCookieName, result.RefreshToken, refreshCookiePath, ttl)
	response.OK(c, result)
}

// RefreshToken 刷新 Token；refresh token 取自 Cookie，其次取自请求体
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	result, err := h.authSvc.Refresh(c.Request.Context(), refreshTokenFrom(c))
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	h.cookies.set(c, refreshCookieName, result.RefreshToken, refreshCookiePath, h.cfg.RefreshTokenTTLDefault)
	response.OK(c, result)
}

// Logout 登出，作废当前令牌
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := MustGetClaims(c)
	if !ok {
		return
	}

	if err := h.authSvc.Logout(c.Request.Context(), claims, refreshTokenFrom(c)); err != nil {
		response.InternalError(c)
		return
	}

	h.cookies.set(c, refreshCookieName, "", refreshCookiePath, -1)
	response.OK(c, nil)
}

// GetCurrentAccount 当前登录账号
// GET /api/v1/auth/me
func (h *AuthHandler) GetCurrentAccount(c *gin.Context) {
	accountID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	account, err := h.authSvc.Me(c.Request.Context(), accountID)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, account)
}

// CreateAccount 为人员开通本地账号（仅管理员）
// POST /api/v1/auth/accounts
func (h *AuthHandler) CreateAccount(c *gin.Context) {
	var req dto.CreateAccountRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	account, err := h.authSvc.CreateAccount(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.Created(c, account)
}

func refreshTokenFrom(c *gin.Context) string {
	if token, err := c.Cookie(refreshCookieName); err == nil && token != "" {
		return token
	}
	var req dto.RefreshRequest
	// 请求体可为空
	_ = c.ShouldBindJSON(&req)
	return req.RefreshToken
}

// handleAuthError 统一处理认证模块业务错误
func (h *AuthHandler) handleAuthError(c *gin.Context, err error) {
	if handleValidation(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, 11001, "用户名或密码错误")
	case errors.Is(err, service.ErrRefreshTokenInvalid):
		response.Error(c, http.StatusUnauthorized, 11002, "refresh token 无效或已失效")
	case errors.Is(err, service.ErrAccountNotFound):
		response.NotFound(c, 11003, "账号不存在")
	case errors.Is(err, service.ErrUsernameTaken):
		response.Conflict(c, 11004, "用户名已被占用")
	default:
		response.InternalError(c)
	}
}
