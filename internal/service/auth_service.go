package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"klimr/backend/internal/dto"
	"klimr/backend/internal/model"
	"klimr/backend/internal/repository"
	pkgerrors "klimr/backend/pkg/errors"
	"klimr/backend/pkg/jwt"
	"klimr/backend/pkg/oidc"
)

var (
	ErrInvalidCredentials    = errors.New("用户名或密码错误")
	ErrRefreshTokenInvalid   = errors.New("refresh token 无效或已失效")
	ErrAccountNotFound       = errors.New("账号不存在")
	ErrUsernameTaken         = errors.New("用户名已被占用")
	ErrAccountNotLinked      = errors.New("外部身份未绑定本地账号")
	ErrExternalLoginDisabled = errors.New("未启用外部身份登录")
	ErrSubjectTaken          = errors.New("外部身份已绑定其他账号")
)

// TokenBlacklist 令牌黑名单；redis.Client 实现该接口
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// AuthService 认证业务接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	// Refresh 用 refresh token 换取新的令牌对，旧 refresh token 作废
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	// Logout 作废当前 access token 以及（可选的）refresh token
	Logout(ctx context.Context, access *jwt.Claims, refreshToken string) error
	Me(ctx context.Context, accountID string) (*dto.AccountResponse, error)
	CreateAccount(ctx context.Context, req *dto.CreateAccountRequest, callerID string) (*dto.AccountResponse, error)
	// ResetPassword 为本地账号设置新密码（管理命令行使用）
	ResetPassword(ctx context.Context, username, password string) error
	// LinkExternal 把外部身份 subject 绑定到本地账号；subject 为空表示解绑
	LinkExternal(ctx context.Context, username, subject string) error

	// BeginExternalLogin 生成外部登录的 state 与重定向地址
	BeginExternalLogin(ctx context.Context) (*oidc.Challenge, error)
	// CompleteExternalLogin 校验回调并为绑定的本地账号签发令牌
	CompleteExternalLogin(ctx context.Context, cb oidc.Callback) (*dto.TokenResponse, error)
}

type authService struct {
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	verifier  *oidc.Verifier
	logger    *zap.Logger
}

// NewAuthService 创建 AuthService 实例
// blacklist 为 nil 时登出只由客户端丢弃令牌；verifier 为 nil 表示未启用外部登录
func NewAuthService(
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	verifier *oidc.Verifier,
	logger *zap.Logger,
) AuthService {
	return &authService{
		repo:      repo,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		verifier:  verifier,
		logger:    logger,
	}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	// 1. 查询账号
	account, err := s.repo.Account.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询账号失败", zap.Error(err))
		return nil, err
	}

	// 2. 验证密码 (bcrypt)；外部身份账号没有本地密码
	if account.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*account.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. 生成 Token 对
	return s.issueTokens(ctx, account, req.RememberMe)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	if refreshToken == "" {
		return nil, ErrRefreshTokenInvalid
	}
	claims, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil || claims.TokenType != jwt.TokenTypeRefresh {
		return nil, ErrRefreshTokenInvalid
	}
	if s.blacklist != nil {
		revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			s.logger.Error("查询令牌黑名单失败", zap.Error(err))
			return nil, err
		}
		if revoked {
			return nil, ErrRefreshTokenInvalid
		}
	}

	account, err := s.repo.Account.GetByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRefreshTokenInvalid
		}
		s.logger.Error("查询账号失败", zap.Error(err))
		return nil, err
	}

	// 轮换：旧 refresh token 立即作废
	s.revoke(ctx, claims)
	return s.issueTokens(ctx, account, claims.RememberMe)
}

func (s *authService) Logout(ctx context.Context, access *jwt.Claims, refreshToken string) error {
	if access == nil {
		return nil
	}
	s.revoke(ctx, access)
	if refreshToken != "" {
		// 只作废属于同一账号的 refresh token
		if claims, err := s.jwtMgr.ParseToken(refreshToken); err == nil && claims.AccountID == access.AccountID {
			s.revoke(ctx, claims)
		}
	}
	return nil
}

func (s *authService) Me(ctx context.Context, accountID string) (*dto.AccountResponse, error) {
	account, err := s.repo.Account.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		s.logger.Error("查询账号失败", zap.String("id", accountID), zap.Error(err))
		return nil, err
	}
	resp := toAccountResponse(account)
	return &resp, nil
}

func (s *authService) CreateAccount(ctx context.Context, req *dto.CreateAccountRequest, callerID string) (*dto.AccountResponse, error) {
	var v validationCollector
	if err := checkRefs(ctx, s.repo.Refs, &v, repository.RefPerson, "person_id", req.PersonID); err != nil {
		return nil, err
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	if _, err := s.repo.Account.GetByUsername(ctx, req.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询账号失败", zap.Error(err))
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("生成密码哈希失败", zap.Error(err))
		return nil, err
	}
	hashStr := string(hash)

	account := &model.Account{
		PersonID:     req.PersonID,
		Username:     req.Username,
		PasswordHash: &hashStr,
		Role:         req.Role,
	}
	account.Stamp(callerID)
	if err := s.repo.Account.Create(ctx, account); err != nil {
		if pkgerrors.IsDuplicate(err) {
			return nil, ErrUsernameTaken
		}
		s.logger.Error("创建账号失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("账号已创建", zap.String("account_id", account.AccountID), zap.String("role", account.Role))
	return s.Me(ctx, account.AccountID)
}

func (s *authService) ResetPassword(ctx context.Context, username, password string) error {
	account, err := s.accountByUsername(ctx, username)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("生成密码哈希失败", zap.Error(err))
		return err
	}
	if err := s.repo.Account.SetPassword(ctx, account.AccountID, string(hash)); err != nil {
		s.logger.Error("重置密码失败", zap.Error(err))
		return err
	}
	s.logger.Info("密码已重置", zap.String("account_id", account.AccountID))
	return nil
}

func (s *authService) LinkExternal(ctx context.Context, username, subject string) error {
	account, err := s.accountByUsername(ctx, username)
	if err != nil {
		return err
	}
	var sub *string
	if subject != "" {
		sub = &subject
	}
	if err := s.repo.Account.SetExternalSubject(ctx, account.AccountID, sub); err != nil {
		if pkgerrors.IsDuplicate(err) {
			return ErrSubjectTaken
		}
		s.logger.Error("绑定外部身份失败", zap.Error(err))
		return err
	}
	s.logger.Info("外部身份绑定已更新", zap.String("account_id", account.AccountID), zap.Bool("linked", sub != nil))
	return nil
}

func (s *authService) accountByUsername(ctx context.Context, username string) (*model.Account, error) {
	account, err := s.repo.Account.GetByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		s.logger.Error("查询账号失败", zap.Error(err))
		return nil, err
	}
	return account, nil
}

// ────────────────────── 外部身份登录 ──────────────────────

func (s *authService) BeginExternalLogin(ctx context.Context) (*oidc.Challenge, error) {
	if s.verifier == nil {
		return nil, ErrExternalLoginDisabled
	}
	challenge, err := s.verifier.Begin(ctx)
	if err != nil {
		s.logger.Error("生成登录 state 失败", zap.Error(err))
		return nil, err
	}
	return challenge, nil
}

func (s *authService) CompleteExternalLogin(ctx context.Context, cb oidc.Callback) (*dto.TokenResponse, error) {
	if s.verifier == nil {
		return nil, ErrExternalLoginDisabled
	}
	identity, err := s.verifier.Complete(ctx, cb)
	if err != nil {
		s.logger.Warn("外部登录校验失败", zap.Error(err))
		return nil, err
	}

	account, err := s.repo.Account.GetByExternalSubject(ctx, identity.Subject)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("外部身份未绑定账号", zap.String("subject", identity.Subject), zap.String("username", identity.Username))
			return nil, ErrAccountNotLinked
		}
		s.logger.Error("查询外部账号失败", zap.Error(err))
		return nil, err
	}
	return s.issueTokens(ctx, account, false)
}

// ── 内部辅助 ──

func (s *authService) issueTokens(ctx context.Context, account *model.Account, rememberMe bool) (*dto.TokenResponse, error) {
	accessToken, err := s.jwtMgr.GenerateAccessToken(account.AccountID, account.PersonID, account.Role)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}
	refreshToken, err := s.jwtMgr.GenerateRefreshToken(account.AccountID, account.PersonID, account.Role, rememberMe)
	if err != nil {
		s.logger.Error("生成 RefreshToken 失败", zap.Error(err))
		return nil, err
	}

	now := time.Now()
	if err := s.repo.Account.UpdateLastLogin(ctx, account.AccountID, now); err != nil {
		s.logger.Warn("更新最后登录时间失败", zap.String("account_id", account.AccountID), zap.Error(err))
	} else {
		account.LastLoginAt = &now
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwtMgr.AccessTokenTTL().Seconds()),
		Account:      toAccountResponse(account),
	}, nil
}

// revoke 把令牌加入黑名单直至其自然过期；失败只记录日志
func (s *authService) revoke(ctx context.Context, claims *jwt.Claims) {
	if s.blacklist == nil || claims.ID == "" {
		return
	}
	if err := s.blacklist.BlacklistToken(ctx, claims.ID, claims.RemainingTTL()); err != nil {
		s.logger.Warn("写入令牌黑名单失败", zap.String("jti", claims.ID), zap.Error(err))
	}
}

func toAccountResponse(a *model.Account) dto.AccountResponse {
	resp := dto.AccountResponse{
		ID:       a.AccountID,
		Username: a.Username,
		Role:     a.Role,
		Person:   toPersonResponse(a.Person),
		External: a.ExternalSubject != nil,
	}
	if a.LastLoginAt != nil {
		resp.LastLoginAt = a.LastLoginAt.Format(time.RFC3339)
	}
	return resp
}
