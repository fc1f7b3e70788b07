package fetcher

import (
	"context"

	"lcscraper/pkg/models"
)

// Session retrieves the tag labels of one problem page. Implementations hold
// page state (cookies, dismissed overlays) between fetches; Reset discards all
// of it. A Session is owned by a single run loop and is not safe for
// concurrent use.
type Session interface {
	Fetch(ctx context.Context, item models.CatalogItem, url string) ([]string, error)
	Reset(ctx context.Context) error
	Close() error
}

// StepResult is the outcome of an optional page step
type StepResult int

const (
	// NotPresent means the step did not apply to the page
	NotPresent StepResult = iota
	// Handled means the step applied and was completed
	Handled
)

func (r StepResult) String() string {
	if r == Handled {
		return "handled"
	}
	return "not_present"
}
