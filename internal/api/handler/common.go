package handler

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"klimr/backend/config"
	"klimr/backend/internal/service"
	"klimr/backend/pkg/response"
	"klimr/backend/pkg/validate"
)

// bindJSON 绑定请求体；失败时写入 400 + 字段错误
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		response.ValidationFailed(c, validate.Fields(err))
		return false
	}
	return true
}

// bindQuery 绑定查询参数；失败时写入 400 + 字段错误
func bindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		response.ValidationFailed(c, validate.Fields(err))
		return false
	}
	return true
}

// handleValidation 处理 Service 层返回的字段级校验错误
func handleValidation(c *gin.Context, err error) bool {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		response.ValidationFailed(c, ve.Fields)
		return true
	}
	return false
}

// sendFile 以附件形式返回文件
func sendFile(c *gin.Context, buf *bytes.Buffer, filename, contentType string) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// ── Cookie ──

const (
	refreshCookieName = "klimr_refresh_token"
	refreshCookiePath = "/api/v1/auth"
)

// cookieWriter 按配置写入 HttpOnly Cookie
type cookieWriter struct {
	cfg      *config.CookieConfig
	sameSite http.SameSite
}

func newCookieWriter(cfg *config.CookieConfig) *cookieWriter {
	w := &cookieWriter{cfg: cfg, sameSite: http.SameSiteLaxMode}
	switch strings.ToLower(cfg.SameSite) {
	case "strict":
		w.sameSite = http.SameSiteStrictMode
	case "none":
		w.sameSite = http.SameSiteNoneMode
	}
	return w
}

// set ttl=0 为会话 Cookie，ttl<0 删除 Cookie
func (w *cookieWriter) set(c *gin.Context, name, value, path string, ttl time.Duration) {
	w.write(c, name, value, path, ttl, w.sameSite)
}

// setCrossSite 提供方以跨站 POST 回调时浏览器需要带上该 Cookie；
// 仅在 Secure 时可用 SameSite=None
func (w *cookieWriter) setCrossSite(c *gin.Context, name, value, path string, ttl time.Duration) {
	mode := http.SameSiteLaxMode
	if w.cfg.Secure {
		mode = http.SameSiteNoneMode
	}
	w.write(c, name, value, path, ttl, mode)
}

func (w *cookieWriter) write(c *gin.Context, name, value, path string, ttl time.Duration, mode http.SameSite) {
	maxAge := int(ttl.Seconds())
	if ttl < 0 {
		maxAge = -1
	}
	c.SetSameSite(mode)
	c.SetCookie(name, value, maxAge, path, w.cfg.Domain, w.cfg.Secure, true)
}
