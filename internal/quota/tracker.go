// Package quota implements the platform-wide admission guard. It tracks
// aggregate daily consumption of scarce backend resources against hard
// ceilings, independent of any single client. Unlike the per-client rate
// limiter, this guard fails closed: when the counter store cannot be
// observed, new work is refused, because an unobservable cost center is a
// bigger risk than over-throttling.
package quota

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gridbase/gridbase/internal/counter"
)

// Tracked metrics. Keys in the counter store embed the UTC calendar date, so
// a new day addresses a fresh zero-valued key and no reset job exists.
const (
	MetricRequests = "requests"
	MetricReads    = "reads"
	MetricWrites   = "writes"
)

// usageTTL keeps finished days around briefly for inspection before the
// store expires them on its own.
const usageTTL = 48 * time.Hour

// Tracker counts daily usage in the shared counter store.
type Tracker struct {
	store  counter.Store
	limits map[string]int64 // metric -> daily ceiling; missing metric means unlimited
	now    func() time.Time // overridable in tests
}

func NewTracker(store counter.Store, limits map[string]int64) *Tracker {
	return &Tracker{store: store, limits: limits, now: time.Now}
}

// TrackUsage atomically adds n to today's counter for metric and reports
// whether the post-increment count is still within the daily limit. A store
// error returns (false, err): the caller must treat the operation as
// over-limit. Increments that land before a cancellation are never rolled
// back; slight over-counting is acceptable, under-counting is not.
func (t *Tracker) TrackUsage(ctx context.Context, metric string, n int64) (bool, error) {
	count, err := t.store.IncrWindow(ctx, t.key(metric), n, usageTTL)
	if err != nil {
		return false, err
	}
	limit, ok := t.limits[metric]
	if !ok {
		return true, nil
	}
	return count <= limit, nil
}

// MetricUsage is one metric's standing for the current UTC day.
type MetricUsage struct {
	Metric string `json:"metric"`
	Used   int64  `json:"used"`
	Limit  int64  `json:"limit"`
	OK     bool   `json:"ok"`
}

// Report is the read-only answer of CheckLimits.
type Report struct {
	Date       string        `json:"date"`
	OK         bool          `json:"ok"`
	Metrics    []MetricUsage `json:"metrics"`
	Violations []string      `json:"violations,omitempty"`
}

// CheckLimits inspects every limited metric for the current day without
// mutating anything. Used by the admin usage dashboard.
func (t *Tracker) CheckLimits(ctx context.Context) (Report, error) {
	rep := Report{Date: t.today(), OK: true}

	metrics := make([]string, 0, len(t.limits))
	for m := range t.limits {
		metrics = append(metrics, m)
	}
	sort.Strings(metrics)

	for _, m := range metrics {
		used, err := t.store.Get(ctx, t.key(m))
		if err != nil {
			return Report{}, err
		}
		limit := t.limits[m]
		ok := used < limit
		rep.Metrics = append(rep.Metrics, MetricUsage{Metric: m, Used: used, Limit: limit, OK: ok})
		if !ok {
			rep.OK = false
			rep.Violations = append(rep.Violations, m)
		}
	}
	return rep, nil
}

// NextReset returns the next UTC midnight, when all daily counters roll
// over to fresh keys.
func (t *Tracker) NextReset() time.Time {
	now := t.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
}

func (t *Tracker) today() string {
	return t.now().UTC().Format("2006-01-02")
}

func (t *Tracker) key(metric string) string {
	return fmt.Sprintf("usage:%s:%s", t.today(), metric)
}
