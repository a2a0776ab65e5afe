package dto

// ── 认证模块 DTO ──

// LoginRequest 本地账号登录请求
type LoginRequest struct {
	Username   string `json:"username"    binding:"required,max=150"`
	Password   string `json:"password"    binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

// RefreshRequest 刷新 Token 请求；Cookie 模式下可为空
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// CreateAccountRequest 管理员创建本地账号请求
type CreateAccountRequest struct {
	PersonID string `json:"person_id" binding:"required,uuid"`
	Username string `json:"username"  binding:"required,min=3,max=150"`
	Password string `json:"password"  binding:"required,min=8,max=72"`
	Role     string `json:"role"      binding:"required,oneof=admin teacher student"`
}

// TokenResponse Token 对响应
type TokenResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token,omitempty"` // Cookie 模式下可不返回
	ExpiresIn    int             `json:"expires_in"`              // Access Token 有效期（秒）
	Account      AccountResponse `json:"account"`
}

// AccountResponse 账号信息（脱敏）
type AccountResponse struct {
	ID          string          `json:"id"`
	Username    string          `json:"username"`
	Role        string          `json:"role"`
	Person      *PersonResponse `json:"person,omitempty"`
	External    bool            `json:"external"`
	LastLoginAt string          `json:"last_login_at,omitempty"`
}
