package config

import "github.com/gridbase/gridbase/internal/quota"

// QuotaConfig carries the hard daily ceilings the admission guard enforces.
// These protect the hosting tier's aggregate free quota, not any single
// client; crossing one makes the whole API answer 503 until UTC midnight.
type QuotaConfig struct {
	Limits map[string]int64 // metric -> daily ceiling
}

// LoadQuotaConfig reads the daily limits. Defaults are sized with headroom
// below the hosting tier's published quotas so the guard trips before the
// provider does.
func LoadQuotaConfig() QuotaConfig {
	return QuotaConfig{
		Limits: map[string]int64{
			quota.MetricRequests: envInt64("QUOTA_DAILY_REQUESTS", 90000),
			quota.MetricReads:    envInt64("QUOTA_DAILY_READS", 40000),
			quota.MetricWrites:   envInt64("QUOTA_DAILY_WRITES", 15000),
		},
	}
}
