package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lcscraper/pkg/checkpoint"
	errs "lcscraper/pkg/errors"
	"lcscraper/pkg/fetcher"
	"lcscraper/pkg/logger"
	"lcscraper/pkg/models"
	"lcscraper/pkg/ratelimit"
	"lcscraper/pkg/retry"
)

// State is the phase the controller is in
type State int

const (
	StateIdle State = iota
	StateFetching
	StateSuccess
	StateTransientFailure
	StateHardAbort
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateSuccess:
		return "success"
	case StateTransientFailure:
		return "transient_failure"
	case StateHardAbort:
		return "hard_abort"
	case StateCompleted:
		return "completed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Checkpoint is the persisted index of the last completed item
type Checkpoint interface {
	Load() (int, error)
	Advance(index int) error
}

// Sink stores the record of a completed item under its index
type Sink interface {
	Store(index int, record models.ProcessedRecord) error
}

// Pacer sleeps after each completed item
type Pacer interface {
	After(ctx context.Context, index int) (ratelimit.Pause, error)
}

// Progress receives per-item outcomes for display
type Progress interface {
	ItemDone(index int, record models.ProcessedRecord)
	ItemFailed(index int, consecutive int, err error)
}

// Options configures a Controller
type Options struct {
	// ProblemBaseURL is joined with an item's slug to build its page URL
	ProblemBaseURL string
	// MaxConsecutiveFailures is the number of failures tolerated in a row;
	// one more aborts the run
	MaxConsecutiveFailures int
	// Recovery is the delay after a failed attempt, before the retry
	Recovery retry.BackoffStrategy
	Wait     retry.WaitFunc
	Progress Progress
	Logger   logger.Logger
}

// Result summarizes a run
type Result struct {
	// Start is the first index visited by the run
	Start int
	// Completed counts the items stored by the run
	Completed int
	// LastIndex is the last completed index, checkpoint.None if none
	LastIndex int
	Failures  int
	Resets    int
	State     State
}

// Controller drives a scrape run over an ordered item list, one item at a
// time. The checkpoint only advances after the item's record is stored, so a
// run stopped at any point resumes at the first item not yet stored.
type Controller struct {
	session    fetcher.Session
	checkpoint Checkpoint
	sink       Sink
	pacer      Pacer
	opts       Options
	logger     logger.Logger
	state      State
}

// New creates a Controller. The session is owned by the controller for the
// duration of Run.
func New(session fetcher.Session, cp Checkpoint, sink Sink, pacer Pacer, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}
	if opts.Recovery == nil {
		opts.Recovery = &retry.ConstantBackoff{}
	}
	if opts.Wait == nil {
		opts.Wait = retry.Wait
	}

	return &Controller{
		session:    session,
		checkpoint: cp,
		sink:       sink,
		pacer:      pacer,
		opts:       opts,
		logger:     opts.Logger,
		state:      StateIdle,
	}
}

// State returns the current phase
func (c *Controller) State() State {
	return c.state
}

// ProblemURL builds the page URL of an item
func ProblemURL(base, slug string) string {
	return strings.TrimRight(base, "/") + "/" + slug
}

// Run processes items from the one after the checkpoint to the end. It
// returns an error of type hard_abort when an item fails more than
// MaxConsecutiveFailures times in a row. Cancelling ctx stops the run
// without counting a failure.
func (c *Controller) Run(ctx context.Context, items []models.CatalogItem) (*Result, error) {
	last, err := c.checkpoint.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	result := &Result{Start: last + 1, LastIndex: last}
	defer func() { result.State = c.state }()

	logger.LogComponentStart(c.logger, "scraper", map[string]interface{}{
		"start": result.Start,
		"total": len(items),
	})

	failures := 0
	for i := last + 1; i < len(items); {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		item := items[i]
		url := ProblemURL(c.opts.ProblemBaseURL, item.Slug)

		c.state = StateFetching
		tags, err := c.session.Fetch(ctx, item, url)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}

			c.state = StateTransientFailure
			failures++
			result.Failures++
			logger.LogItemFailure(c.logger, i, failures, err)
			if c.opts.Progress != nil {
				c.opts.Progress.ItemFailed(i, failures, err)
			}

			if failures > c.opts.MaxConsecutiveFailures {
				c.state = StateHardAbort
				c.logger.ErrorWithFields("Too many failed attempts, aborting", map[string]interface{}{
					"index":    i,
					"failures": failures,
				})
				return result, errs.Wrap(errs.ErrorTypeHardAbort, err,
					fmt.Sprintf("%d consecutive failures at index %d", failures, i))
			}

			if err := c.resetSession(ctx, result); err != nil {
				return result, err
			}
			delay := c.opts.Recovery.NextDelay(failures)
			logger.LogPause(c.logger, "recovery", delay)
			if err := c.opts.Wait(ctx, delay); err != nil {
				return result, err
			}
			continue
		}

		record := models.NewProcessedRecord(item, url, tags)
		if err := c.sink.Store(i, record); err != nil {
			return result, fmt.Errorf("failed to store record %d: %w", i, err)
		}
		if err := c.checkpoint.Advance(i); err != nil {
			return result, fmt.Errorf("failed to advance checkpoint to %d: %w", i, err)
		}

		c.state = StateSuccess
		failures = 0
		result.Completed++
		result.LastIndex = i
		logger.LogItemProgress(c.logger, i, len(items), item.Title, len(tags))
		if c.opts.Progress != nil {
			c.opts.Progress.ItemDone(i, record)
		}

		pause, err := c.pacer.After(ctx, i)
		if err != nil {
			return result, err
		}
		if pause == ratelimit.PauseLong {
			if err := c.resetSession(ctx, result); err != nil {
				return result, err
			}
		}

		i++
	}

	c.state = StateCompleted
	logger.LogComponentStop(c.logger, "scraper", "completed")
	return result, nil
}

func (c *Controller) resetSession(ctx context.Context, result *Result) error {
	if err := c.session.Reset(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		// the next fetch on a broken session fails and is counted
		c.logger.WithError(err).Warn("Session reset failed")
		return nil
	}
	result.Resets++
	return nil
}

// Completed reports whether the checkpoint already covers every item
func Completed(cp int, items []models.CatalogItem) bool {
	return cp != checkpoint.None && cp >= len(items)-1
}
