package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"lcscraper/pkg/models"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
)

// StatusTracker prints the progress of a scrape run
type StatusTracker struct {
	Out       io.Writer
	Total     int
	Completed int
	Failures  int
	StartTime time.Time
}

// NewStatusTracker creates a tracker for a run over total items
func NewStatusTracker(out io.Writer, total int) *StatusTracker {
	if out == nil {
		out = Output
	}
	return &StatusTracker{
		Out:       out,
		Total:     total,
		StartTime: time.Now(),
	}
}

// Resume marks the items before start as already completed
func (st *StatusTracker) Resume(start int) {
	st.Completed = start
}

// ItemDone records a stored item and prints its line
func (st *StatusTracker) ItemDone(index int, record models.ProcessedRecord) {
	st.Completed = index + 1
	fmt.Fprintf(st.Out, "%s %s #%d %s %s %s\n",
		Green("[STORED]"),
		st.GetProgressBar(),
		record.Num,
		record.Name,
		Dim(string(record.Difficulty)),
		Yellow(strings.Join(record.Tags, ", ")))
}

// ItemFailed prints a failed attempt
func (st *StatusTracker) ItemFailed(index int, consecutive int, err error) {
	st.Failures++
	fmt.Fprintf(st.Out, "%s index %d (attempt %d): %v\n",
		Red("[FAILED]"), index, consecutive, err)
}

// GetProgressBar returns a formatted progress bar for the run
func (st *StatusTracker) GetProgressBar() string {
	const width = 20
	filled := 0
	if st.Total > 0 {
		filled = int(float64(st.Completed) / float64(st.Total) * width)
	}
	if filled > width {
		filled = width
	}

	bar := strings.Repeat(ProgressBar, filled) +
		strings.Repeat(ProgressEmpty, width-filled)

	return fmt.Sprintf("[%s] %d/%d", bar, st.Completed, st.Total)
}

// GetElapsedTime returns the elapsed time since tracking started
func (st *StatusTracker) GetElapsedTime() time.Duration {
	return time.Since(st.StartTime)
}

// GetRate returns the average number of stored items per minute
func (st *StatusTracker) GetRate(stored int) float64 {
	elapsed := st.GetElapsedTime().Minutes()
	if elapsed == 0 {
		return 0
	}
	return float64(stored) / elapsed
}
