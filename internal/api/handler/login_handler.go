package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"klimr/backend/internal/service"
	"klimr/backend/pkg/oidc"
	"klimr/backend/pkg/response"
)

const stateCookiePath = "/login"

// LoginHandler 外部身份提供方登录桥
type LoginHandler struct {
	authSvc  service.AuthService
	cookies  *cookieWriter
	stateTTL time.Duration
}

// NewLoginHandler 创建 LoginHandler
func NewLoginHandler(authSvc service.AuthService, cookies *cookieWriter, stateTTL time.Duration) *LoginHandler {
	return &LoginHandler{authSvc: authSvc, cookies: cookies, stateTTL: stateTTL}
}

// Begin 生成 state 并重定向到身份提供方
// GET /login
func (h *LoginHandler) Begin(c *gin.Context) {
	challenge, err := h.authSvc.BeginExternalLogin(c.Request.Context())
	if err != nil {
		h.handleLoginError(c, err)
		return
	}

	h.cookies.setCrossSite(c, oidc.StateCookieName, challenge.State, stateCookiePath, h.stateTTL)
	c.Redirect(http.StatusFound, challenge.AuthorizeURL)
}

// Callback 接收 form_post 回调，校验 state 与 ID Token 后签发本地令牌
// POST /login/callback
func (h *LoginHandler) Callback(c *gin.Context) {
	cookieState, _ := c.Cookie(oidc.StateCookieName)
	// state 只用一次，无论成败都清除
	h.cookies.setCrossSite(c, oidc.StateCookieName, "", stateCookiePath, -1)

	result, err := h.authSvc.CompleteExternalLogin(c.Request.Context(), oidc.Callback{
		State:            c.PostForm("state"),
		CookieState:      cookieState,
		IDToken:          c.PostForm("id_token"),
		Error:            c.PostForm("error"),
		ErrorDescription: c.PostForm("error_description"),
	})
	if err != nil {
		h.handleLoginError(c, err)
		return
	}

	h.cookies.set(c, refreshCookieName, result.RefreshToken, refreshCookiePath, 0)
	response.OK(c, result)
}

// handleLoginError 统一处理登录桥错误
func (h *LoginHandler) handleLoginError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, oidc.ErrStateMismatch):
		response.Forbidden(c, 12001, "登录状态校验失败")
	case errors.Is(err, oidc.ErrProviderDenied):
		response.Unauthorized(c, 12002, "身份提供方拒绝登录")
	case errors.Is(err, oidc.ErrMalformedToken),
		errors.Is(err, oidc.ErrInvalidSignature),
		errors.Is(err, oidc.ErrAudienceMismatch),
		errors.Is(err, oidc.ErrNonceMismatch),
		errors.Is(err, oidc.ErrTokenExpired),
		errors.Is(err, oidc.ErrIssuerMismatch),
		errors.Is(err, oidc.ErrMissingSubject):
		response.Unauthorized(c, 12003, "ID Token 无效")
	case errors.Is(err, service.ErrAccountNotLinked):
		response.Forbidden(c, 12004, "该外部身份未绑定账号")
	case errors.Is(err, service.ErrExternalLoginDisabled):
		response.NotFound(c, 12005, "未启用外部身份登录")
	default:
		response.InternalError(c)
	}
}
