package config

import (
	"net/netip"
	"strings"
	"time"
)

type SecurityConfig interface {
	GetPasswordHasher() string
	GetBcryptCost() int
	GetOperationTimeout() time.Duration
	GetEnableRateLimiting() bool
	GetRateLimitPerSecond() float64
	GetRateLimitBurst() int
	GetTrustedProxies() []netip.Prefix
}

type Security struct{ values }

var _ SecurityConfig = Security{}

// GetPasswordHasher returns "bcrypt" or "argon2id".
func (s Security) GetPasswordHasher() string {
	return strings.ToLower(s.get("PASSWORD_HASHER", "bcrypt"))
}

func (s Security) GetBcryptCost() int {
	return s.getInt("BCRYPT_COST", 10)
}

// GetOperationTimeout bounds every store round trip made on behalf of one request.
func (s Security) GetOperationTimeout() time.Duration {
	return s.getDuration("OPERATION_TIMEOUT", 5*time.Second)
}

func (s Security) GetEnableRateLimiting() bool {
	return s.getBool("RATE_LIMIT_ENABLED", true)
}

func (s Security) GetRateLimitPerSecond() float64 {
	return float64(s.getInt("RATE_LIMIT_PER_SECOND", 5))
}

func (s Security) GetRateLimitBurst() int {
	return s.getInt("RATE_LIMIT_BURST", 10)
}

// GetTrustedProxies parses TRUSTED_PROXIES, a comma separated list of CIDRs or
// bare addresses. Only requests arriving from these peers have X-Forwarded-For
// honoured. Unparseable entries are skipped.
func (s Security) GetTrustedProxies() []netip.Prefix {
	var prefixes []netip.Prefix
	for _, entry := range strings.Split(s.get("TRUSTED_PROXIES", ""), ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if prefix, err := netip.ParsePrefix(entry); err == nil {
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		if addr, err := netip.ParseAddr(entry); err == nil {
			addr = addr.Unmap()
			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
		}
	}
	return prefixes
}
