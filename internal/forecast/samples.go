package forecast

import (
	"time"

	"flowlens/internal/flow"
)

// SamplesFromBuckets flattens a weekly throughput series into the plain
// per-period counts the simulation resamples from. The bucket containing
// asOf is still accruing completions and is excluded, otherwise every run
// would sample one artificially low week.
func SamplesFromBuckets(buckets []flow.ThroughputBucket, asOf time.Time) []int {
	out := make([]int, 0, len(buckets))
	for _, b := range buckets {
		if !asOf.Before(b.WeekStarting) && asOf.Before(b.WeekStarting.AddDate(0, 0, 7)) {
			continue
		}
		out = append(out, b.Count)
	}
	return out
}

// RemainingBacklog counts items that are neither done nor cancelled.
func RemainingBacklog(total, completed, cancelled int) int {
	n := total - completed - cancelled
	if n < 0 {
		n = 0
	}
	return n
}
