package config

import (
	"time"
)

// RateLimitPolicy is one fixed-window budget: at most Max requests per
// Window, counted per client under keys namespaced by Scope. Two policies
// exist: a global one for all API traffic and a stricter one applied only
// to the credential endpoints to blunt stuffing attacks.
type RateLimitPolicy struct {
	Enabled bool
	Scope   string // key namespace, e.g. "global" or "auth"
	Max     int64
	Window  time.Duration
	Prefix  string
}

// LoadGlobalRateLimit reads the policy applied to every API request.
func LoadGlobalRateLimit() RateLimitPolicy {
	return loadRateLimit("RATE_LIMIT", "global", 60, time.Minute)
}

// LoadAuthRateLimit reads the stricter policy for login and registration.
func LoadAuthRateLimit() RateLimitPolicy {
	return loadRateLimit("AUTH_RATE_LIMIT", "auth", 10, time.Minute)
}

func loadRateLimit(prefix, scope string, defMax int64, defWindow time.Duration) RateLimitPolicy {
	p := RateLimitPolicy{
		Enabled: envBool(prefix+"_ENABLED", true),
		Scope:   scope,
		Max:     envInt64(prefix+"_MAX", defMax),
		Window:  envDur(prefix+"_WINDOW", defWindow),
		Prefix:  envStr(prefix+"_PREFIX", "rl"),
	}
	if p.Max < 1 {
		p.Max = 1
	}
	if p.Window <= 0 {
		p.Window = defWindow
	}
	return p
}
