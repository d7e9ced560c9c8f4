package forecast

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"flowlens/internal/flow"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultTrials is the trial count used when Options.Trials is zero.
	DefaultTrials = 10000
	// batchSize bounds the work between cancellation checks.
	batchSize = 500
	// maxWorkers bounds the goroutine fan-out.
	maxWorkers = 16
	// maxPeriodsPerTrial is the safety brake for zero-throughput histories.
	maxPeriodsPerTrial = 10000
)

// Outcome labels for forecast results.
const (
	OutcomeForecast         = "forecast"
	OutcomeAlreadyComplete  = "already complete"
	OutcomeInsufficientData = "insufficient data"
)

// Options parameterizes one forecast run.
type Options struct {
	// Backlog is the remaining item count to complete.
	Backlog int
	// PeriodDays is the calendar length of one throughput sample.
	PeriodDays int
	// Trials is the Monte Carlo trial count; zero means DefaultTrials.
	Trials int
	// Seed fixes the random source for reproducible runs; zero draws a
	// time-based seed.
	Seed int64
	// AsOf anchors the projected calendar dates.
	AsOf time.Time
}

func (o Options) withDefaults() Options {
	if o.PeriodDays <= 0 {
		o.PeriodDays = 7
	}
	if o.Trials <= 0 {
		o.Trials = DefaultTrials
	}
	if o.Seed == 0 {
		o.Seed = time.Now().UnixNano()
	}
	if o.AsOf.IsZero() {
		o.AsOf = time.Now()
	}
	return o
}

// Result is the confidence-bounded delivery forecast.
type Result struct {
	Outcome string `json:"outcome"`
	Backlog int    `json:"backlog"`
	Trials  int    `json:"trials"`

	// Percentile periods-to-complete: P10 optimistic, P50 realistic, P90
	// pessimistic.
	OptimisticPeriods  int `json:"optimistic_periods"`
	RealisticPeriods   int `json:"realistic_periods"`
	PessimisticPeriods int `json:"pessimistic_periods"`

	OptimisticDate  *time.Time `json:"optimistic_date,omitempty"`
	RealisticDate   *time.Time `json:"realistic_date,omitempty"`
	PessimisticDate *time.Time `json:"pessimistic_date,omitempty"`

	// Confidence is the inverse-spread score in [0,1]; tighter percentile
	// bands score higher.
	Confidence float64 `json:"confidence"`
}

// Run simulates delivery of the backlog by resampling the historical
// per-period throughput distribution. Trials are split across workers and
// combined by per-worker aggregation; cancellation is checked between
// batches.
func Run(ctx context.Context, samples []int, opts Options) (Result, error) {
	opts = opts.withDefaults()

	if opts.Backlog <= 0 {
		return Result{Outcome: OutcomeAlreadyComplete, Backlog: opts.Backlog}, nil
	}
	if len(samples) < 3 {
		return Result{Outcome: OutcomeInsufficientData, Backlog: opts.Backlog}, nil
	}

	workers := workerCount(opts.Trials)
	perWorker := splitTrials(opts.Trials, workers)
	results := make([][]int, workers)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		i := i
		g.Go(func() error {
			rng := rand.New(rand.NewSource(opts.Seed + int64(i)))
			out := make([]int, 0, perWorker[i])
			for done := 0; done < perWorker[i]; {
				n := batchSize
				if remaining := perWorker[i] - done; n > remaining {
					n = remaining
				}
				for j := 0; j < n; j++ {
					out = append(out, simulateTrial(rng, samples, opts.Backlog))
				}
				done += n
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	periods := make([]int, 0, opts.Trials)
	for _, r := range results {
		periods = append(periods, r...)
	}
	sort.Ints(periods)

	res := Result{
		Outcome:            OutcomeForecast,
		Backlog:            opts.Backlog,
		Trials:             len(periods),
		OptimisticPeriods:  percentileInt(periods, 0.10),
		RealisticPeriods:   percentileInt(periods, 0.50),
		PessimisticPeriods: percentileInt(periods, 0.90),
	}

	opt := opts.AsOf.AddDate(0, 0, res.OptimisticPeriods*opts.PeriodDays)
	mid := opts.AsOf.AddDate(0, 0, res.RealisticPeriods*opts.PeriodDays)
	pes := opts.AsOf.AddDate(0, 0, res.PessimisticPeriods*opts.PeriodDays)
	res.OptimisticDate = &opt
	res.RealisticDate = &mid
	res.PessimisticDate = &pes

	res.Confidence = confidence(res.OptimisticPeriods, res.RealisticPeriods, res.PessimisticPeriods)

	log.Debug().
		Int("backlog", opts.Backlog).
		Int("trials", res.Trials).
		Int("p50_periods", res.RealisticPeriods).
		Float64("confidence", res.Confidence).
		Msg("forecast complete")

	return res, nil
}

// simulateTrial resamples with replacement until the backlog is exhausted,
// returning the number of periods consumed.
func simulateTrial(rng *rand.Rand, samples []int, backlog int) int {
	periods := 0
	remaining := backlog
	for remaining > 0 {
		periods++
		remaining -= samples[rng.Intn(len(samples))]
		if periods >= maxPeriodsPerTrial {
			break
		}
	}
	return periods
}

// workerCount derives the worker pool size from the trial count alone, so
// the seed-to-result mapping is identical on every machine.
func workerCount(trials int) int {
	w := trials / batchSize
	if w < 1 {
		w = 1
	}
	if w > maxWorkers {
		w = maxWorkers
	}
	return w
}

// splitTrials distributes trials across workers, front-loading remainders.
func splitTrials(trials, workers int) []int {
	out := make([]int, workers)
	base := trials / workers
	rem := trials % workers
	for i := range out {
		out[i] = base
		if i < rem {
			out[i]++
		}
	}
	return out
}

// percentileInt returns the nearest-rank percentile of a sorted slice.
func percentileInt(sorted []int, p float64) int {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)) * p)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// confidence scores the inverse relative spread of the percentile band,
// clipped to [0,1]. A degenerate (all-equal) distribution scores 1.
func confidence(p10, p50, p90 int) float64 {
	if p50 <= 0 {
		return 0
	}
	spread := float64(p90-p10) / float64(p50)
	c := 1 - spread/2
	if c < 0 {
		c = 0
	}
	if c > 1 {
		c = 1
	}
	return flow.Round2(c)
}
