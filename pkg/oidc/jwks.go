package oidc

import (
	"context"
	"fmt"

	"github.com/MicahParks/keyfunc/v3"
	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// NewJWKS 从提供方 JWKS 地址加载签名公钥，ctx 取消前在后台刷新；遇到未知 kid 时按需重新拉取
func NewJWKS(ctx context.Context, url string) (jwtv5.Keyfunc, error) {
	k, err := keyfunc.NewDefaultCtx(ctx, []string{url})
	if err != nil {
		return nil, fmt.Errorf("加载 JWKS 失败: %w", err)
	}
	return k.Keyfunc, nil
}
