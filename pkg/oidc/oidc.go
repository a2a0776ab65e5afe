// Package oidc 实现外部身份提供方（OpenID Connect，implicit + form_post）的登录桥。
//
// 流程：
//  1. Begin 生成随机 state 与 nonce，state→nonce 写入 StateStore（带 TTL，一次性），
//     调用方把 state 写入浏览器 Cookie 后重定向到 AuthorizeURL。
//  2. 提供方以 form_post 回调，Complete 依次校验：回调 state 与 Cookie 一致、
//     state 可从 StateStore 中消费（不存在、过期、重放均拒绝），然后用提供方公钥校验
//     ID Token 的 RS256 签名，再检查 aud、nonce、exp、iss，最后返回身份信息。
package oidc

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"klimr/backend/config"
)

// StateCookieName 浏览器侧保存 state 的 Cookie 名
const StateCookieName = "klimr_login_state"

// clockSkew 校验 exp 时允许的时钟偏差
const clockSkew = time.Minute

var (
	ErrStateMismatch    = errors.New("登录 state 校验失败")
	ErrProviderDenied   = errors.New("身份提供方拒绝登录")
	ErrMalformedToken   = errors.New("ID Token 格式无效")
	ErrInvalidSignature = errors.New("ID Token 签名无效")
	ErrAudienceMismatch = errors.New("ID Token aud 不匹配")
	ErrNonceMismatch    = errors.New("ID Token nonce 不匹配")
	ErrTokenExpired     = errors.New("ID Token 已过期")
	ErrIssuerMismatch   = errors.New("ID Token iss 不匹配")
	ErrMissingSubject   = errors.New("ID Token 缺少主体标识")
)

// StateStore 一次性 state 存储
// redis.Client 与 MemoryStore 均实现该接口
type StateStore interface {
	SaveLoginState(ctx context.Context, state, nonce string, ttl time.Duration) error
	// ConsumeLoginState 原子地取出并删除；ok=false 表示不存在或已过期
	ConsumeLoginState(ctx context.Context, state string) (nonce string, ok bool, err error)
}

// Challenge 发起登录时生成的一组参数
type Challenge struct {
	State        string
	Nonce        string
	AuthorizeURL string
}

// Callback 提供方回调携带的表单字段与浏览器 Cookie
type Callback struct {
	State            string
	CookieState      string
	IDToken          string
	Error            string
	ErrorDescription string
}

// Identity 从 ID Token 中提取的身份
type Identity struct {
	Subject    string // 优先使用 oid（租户内稳定），否则为 sub
	Name       string
	GivenName  string
	FamilyName string
	Username   string // upn / unique_name / preferred_username
}

// idTokenClaims ID Token 中关心的声明
type idTokenClaims struct {
	Nonce             string `json:"nonce"`
	ObjectID          string `json:"oid"`
	Name              string `json:"name"`
	GivenName         string `json:"given_name"`
	FamilyName        string `json:"family_name"`
	UPN               string `json:"upn"`
	UniqueName        string `json:"unique_name"`
	PreferredUsername string `json:"preferred_username"`
	jwtv5.RegisteredClaims
}

// signingMethods 只接受提供方的 RS256 签名
var signingMethods = []string{jwtv5.SigningMethodRS256.Alg()}

// Verifier 登录桥
type Verifier struct {
	cfg    config.OIDCConfig
	store  StateStore
	keys   jwtv5.Keyfunc
	parser *jwtv5.Parser
	now    func() time.Time
}

// NewVerifier 创建 Verifier；keys 按 kid 返回提供方签名公钥（生产环境见 NewJWKS）
func NewVerifier(cfg *config.OIDCConfig, store StateStore, keys jwtv5.Keyfunc) *Verifier {
	return &Verifier{
		cfg:   *cfg,
		store: store,
		keys:  keys,
		// 时间类声明由 checkIDToken 统一校验（含时钟偏差）
		parser: jwtv5.NewParser(jwtv5.WithValidMethods(signingMethods), jwtv5.WithoutClaimsValidation()),
		now:    time.Now,
	}
}

// StateTTL state 有效期（同时用作 Cookie MaxAge）
func (v *Verifier) StateTTL() time.Duration { return v.cfg.StateTTL }

// Begin 生成并保存 state/nonce，返回重定向地址
func (v *Verifier) Begin(ctx context.Context) (*Challenge, error) {
	state, err := randomToken()
	if err != nil {
		return nil, err
	}
	nonce, err := randomToken()
	if err != nil {
		return nil, err
	}

	if err := v.store.SaveLoginState(ctx, state, nonce, v.cfg.StateTTL); err != nil {
		return nil, fmt.Errorf("保存登录 state 失败: %w", err)
	}

	return &Challenge{
		State:        state,
		Nonce:        nonce,
		AuthorizeURL: v.AuthorizeURL(state, nonce),
	}, nil
}

// AuthorizeURL 拼接提供方授权地址
func (v *Verifier) AuthorizeURL(state, nonce string) string {
	q := url.Values{}
	q.Set("client_id", v.cfg.ClientID)
	q.Set("response_type", "id_token")
	q.Set("response_mode", "form_post")
	q.Set("redirect_uri", v.cfg.RedirectURL)
	q.Set("scope", "openid")
	q.Set("state", state)
	q.Set("nonce", nonce)
	return v.cfg.AuthorizeURL + "?" + q.Encode()
}

// Complete 校验回调并返回身份
func (v *Verifier) Complete(ctx context.Context, cb Callback) (*Identity, error) {
	if cb.State == "" || cb.CookieState == "" ||
		subtle.ConstantTimeCompare([]byte(cb.State), []byte(cb.CookieState)) != 1 {
		return nil, ErrStateMismatch
	}

	nonce, ok, err := v.store.ConsumeLoginState(ctx, cb.State)
	if err != nil {
		return nil, fmt.Errorf("读取登录 state 失败: %w", err)
	}
	if !ok {
		return nil, ErrStateMismatch
	}

	if cb.Error != "" {
		return nil, fmt.Errorf("%w: %s %s", ErrProviderDenied, cb.Error, cb.ErrorDescription)
	}

	return v.checkIDToken(cb.IDToken, nonce)
}

func (v *Verifier) checkIDToken(raw, nonce string) (*Identity, error) {
	if raw == "" {
		return nil, ErrMalformedToken
	}

	if v.keys == nil {
		return nil, ErrInvalidSignature
	}

	var claims idTokenClaims
	if _, err := v.parser.ParseWithClaims(raw, &claims, v.keys); err != nil {
		if errors.Is(err, jwtv5.ErrTokenSignatureInvalid) || errors.Is(err, jwtv5.ErrTokenUnverifiable) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	if !audienceContains(claims.Audience, v.cfg.ClientID) {
		return nil, ErrAudienceMismatch
	}
	if claims.Nonce == "" || subtle.ConstantTimeCompare([]byte(claims.Nonce), []byte(nonce)) != 1 {
		return nil, ErrNonceMismatch
	}
	if claims.ExpiresAt == nil || !v.now().Before(claims.ExpiresAt.Add(clockSkew)) {
		return nil, ErrTokenExpired
	}
	if v.cfg.Issuer != "" && claims.Issuer != v.cfg.Issuer {
		return nil, ErrIssuerMismatch
	}

	subject := claims.ObjectID
	if subject == "" {
		subject = claims.Subject
	}
	if subject == "" {
		return nil, ErrMissingSubject
	}

	username := claims.UPN
	if username == "" {
		username = claims.UniqueName
	}
	if username == "" {
		username = claims.PreferredUsername
	}

	return &Identity{
		Subject:    subject,
		Name:       claims.Name,
		GivenName:  claims.GivenName,
		FamilyName: claims.FamilyName,
		Username:   username,
	}, nil
}

func audienceContains(aud jwtv5.ClaimStrings, clientID string) bool {
	for _, a := range aud {
		if a == clientID {
			return true
		}
	}
	return false
}

// randomToken 32 字节随机数的 base64url 编码
func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("生成随机数失败: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
