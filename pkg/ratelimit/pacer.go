package ratelimit

import (
	"context"
	"time"

	"lcscraper/pkg/config"
	"lcscraper/pkg/logger"
	"lcscraper/pkg/retry"
)

// Pause tells the caller which delay followed a completed item
type Pause int

const (
	// PauseShort is the regular delay between items
	PauseShort Pause = iota
	// PauseLong is the periodic cooldown. The caller must reset its session.
	PauseLong
)

func (p Pause) String() string {
	if p == PauseLong {
		return "long"
	}
	return "short"
}

// Pacer spaces out successfully completed items
type Pacer struct {
	ItemDelay  time.Duration
	PauseEvery int
	PauseDelay time.Duration

	wait   retry.WaitFunc
	logger logger.Logger
}

// NewPacer creates a pacer from the rate limit configuration
func NewPacer(cfg config.RateLimitConfig, log logger.Logger) *Pacer {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Pacer{
		ItemDelay:  cfg.ItemDelay,
		PauseEvery: cfg.PauseEvery,
		PauseDelay: cfg.PauseDelay,
		wait:       retry.Wait,
		logger:     log,
	}
}

// WithWait replaces the function used to sleep
func (p *Pacer) WithWait(wait retry.WaitFunc) *Pacer {
	p.wait = wait
	return p
}

// Plan returns the pause that follows the item at index. Positive multiples
// of PauseEvery get the long pause in place of the short one.
func (p *Pacer) Plan(index int) (Pause, time.Duration) {
	if p.PauseEvery > 0 && index > 0 && index%p.PauseEvery == 0 {
		return PauseLong, p.PauseDelay
	}
	return PauseShort, p.ItemDelay
}

// After sleeps the pause planned for index and reports which one it was
func (p *Pacer) After(ctx context.Context, index int) (Pause, error) {
	pause, delay := p.Plan(index)
	if pause == PauseLong {
		logger.LogPause(p.logger, "periodic cooldown", delay)
	} else {
		p.logger.DebugWithFields("Waiting before next item", map[string]interface{}{
			"index": index,
			"delay": delay,
		})
	}

	if err := p.wait(ctx, delay); err != nil {
		return pause, err
	}
	return pause, nil
}
