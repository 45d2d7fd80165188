package security

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultJWTSecret   = "alumnet-dev-secret"
	defaultJWTLifetime = time.Hour * 24
	jwtIssuer          = "Alumnet"
)

var (
	jwtSecret   = []byte(defaultJWTSecret)
	jwtLifetime = defaultJWTLifetime
)

// UserClaims Token 中携带的身份信息；Name 用于实时事件中的展示名
type UserClaims struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// InitJWT 使用配置覆盖默认密钥与有效期
func InitJWT(secret string, expireHours int) {
	if secret != "" {
		jwtSecret = []byte(secret)
	}
	if expireHours > 0 {
		jwtLifetime = time.Duration(expireHours) * time.Hour
	}
}

// TokenLifetime Token 有效期，注销黑名单的 TTL 以此为上限
func TokenLifetime() time.Duration {
	return jwtLifetime
}
