package config

import (
	"strings"
	"time"
)

// RefreshStrategy selects where refresh tokens are tracked.
type RefreshStrategy string

const (
	RefreshStrategyNone   RefreshStrategy = "none"   // No refresh tokens are issued
	RefreshStrategyMemory RefreshStrategy = "memory" // Process-local store, single instance only
	RefreshStrategyRedis  RefreshStrategy = "redis"  // Shared keyed store with TTL
)

type TokenConfig interface {
	GetSigningAlgorithm() string
	GetJWTSecret() string
	GetPrivateKeyFile() string
	GetKeyID() string
	GetIssuer() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetRefreshTokenLength() int
	GetRefreshStrategy() RefreshStrategy
	GetRefreshRotation() bool
}

type Token struct{ values }

var _ TokenConfig = Token{}

func (t Token) GetSigningAlgorithm() string {
	return strings.ToUpper(t.get("JWT_ALGORITHM", "HS256"))
}

func (t Token) GetJWTSecret() string {
	return t.get("JWT_SECRET", "")
}

func (t Token) GetPrivateKeyFile() string {
	return t.get("JWT_PRIVATE_KEY_FILE", "")
}

func (t Token) GetKeyID() string {
	return t.get("JWT_KEY_ID", "default")
}

func (t Token) GetIssuer() string {
	return t.get("JWT_ISSUER", "")
}

func (t Token) GetAccessTokenExpiry() time.Duration {
	return t.getDuration("ACCESS_TOKEN_TTL", time.Hour)
}

func (t Token) GetRefreshTokenExpiry() time.Duration {
	return t.getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour) // 7 days
}

func (t Token) GetRefreshTokenLength() int {
	return t.getInt("REFRESH_TOKEN_LENGTH", 32) // 32 bytes = 256 bits
}

func (t Token) GetRefreshStrategy() RefreshStrategy {
	switch s := RefreshStrategy(strings.ToLower(t.get("REFRESH_STRATEGY", string(RefreshStrategyMemory)))); s {
	case RefreshStrategyNone, RefreshStrategyMemory, RefreshStrategyRedis:
		return s
	default:
		return RefreshStrategyMemory
	}
}

func (t Token) GetRefreshRotation() bool {
	return t.getBool("REFRESH_ROTATE", false)
}
