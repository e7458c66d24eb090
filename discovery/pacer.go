package discovery

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/pevans/gamingnews/logger"
)

// SleepFunc blocks for d, returning early with the context's error when ctx
// is done first.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the real SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NoSleep returns immediately. Tests use it so waits never block.
func NoSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

// NewRand returns the random source used for user agents, jitter and
// hashtags. A zero seed draws from real entropy; any other seed makes runs
// reproducible.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed))
}

// Pacer spaces out requests with a random delay drawn uniformly from
// [min, max].
type Pacer struct {
	min, max time.Duration
	rng      *rand.Rand
	sleep    SleepFunc
	log      logger.Logger
}

// NewPacer creates a pacer. A nil sleep uses Sleep; max below min is raised
// to min.
func NewPacer(minWait, maxWait time.Duration, rng *rand.Rand, sleep SleepFunc, log logger.Logger) *Pacer {
	if maxWait < minWait {
		maxWait = minWait
	}
	if sleep == nil {
		sleep = Sleep
	}
	if rng == nil {
		rng = NewRand(0)
	}

	return &Pacer{
		min:   minWait,
		max:   maxWait,
		rng:   rng,
		sleep: sleep,
		log:   logger.OrNop(log),
	}
}

// Next draws the next delay.
func (p *Pacer) Next() time.Duration {
	span := int64(p.max - p.min)
	if span <= 0 {
		return p.min
	}
	return p.min + time.Duration(p.rng.Int64N(span+1))
}

// Wait sleeps for the next delay.
func (p *Pacer) Wait(ctx context.Context) error {
	d := p.Next()
	p.log.Debug("Waiting before next request", logger.Duration("delay", d))
	return p.sleep(ctx, d)
}
