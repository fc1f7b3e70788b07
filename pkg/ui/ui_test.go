package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"lcscraper/pkg/models"
)

type recordingSender struct {
	titles []string
}

func (r *recordingSender) Send(title, message string) error {
	r.titles = append(r.titles, title)
	return errors.New("no display")
}

func TestStatusTrackerProgress(t *testing.T) {
	var buf bytes.Buffer
	st := NewStatusTracker(&buf, 100)
	st.Resume(43)

	assert.Equal(t, "["+strings.Repeat(ProgressBar, 8)+strings.Repeat(ProgressEmpty, 12)+"] 43/100", st.GetProgressBar())

	st.ItemDone(43, models.ProcessedRecord{Name: "Multiply Strings", Num: 43, Difficulty: models.Medium, Tags: []string{"Math", "String"}})
	assert.Equal(t, 44, st.Completed)
	assert.Contains(t, buf.String(), "Multiply Strings")
	assert.Contains(t, buf.String(), "Math, String")

	st.ItemFailed(44, 1, errors.New("timeout"))
	assert.Equal(t, 1, st.Failures)
	assert.Contains(t, buf.String(), "timeout")
}

func TestProgressBarBounds(t *testing.T) {
	st := NewStatusTracker(&bytes.Buffer{}, 0)
	assert.Contains(t, st.GetProgressBar(), "0/0")

	st = NewStatusTracker(&bytes.Buffer{}, 10)
	st.Completed = 12
	assert.Contains(t, st.GetProgressBar(), strings.Repeat(ProgressBar, 20))
}

func TestNotifier(t *testing.T) {
	var buf bytes.Buffer
	old := Output
	Output = &buf
	defer func() { Output = old }()

	sender := &recordingSender{}
	n := NewNotifierWithSender(sender)
	n.SendSuccess("Scrape complete", "50 items stored")
	n.SendError("Scrape aborted", "too many failures")

	assert.Equal(t, []string{"Scrape complete", "Scrape aborted"}, sender.titles)
	assert.Contains(t, buf.String(), "50 items stored")

	NewNotifier(false).SendSuccess("quiet", "console only")
	assert.Contains(t, buf.String(), "console only")
}

func TestDisableColor(t *testing.T) {
	cyan, yellow, red, green, magenta, dim := Cyan, Yellow, Red, Green, Magenta, Dim
	defer func() { Cyan, Yellow, Red, Green, Magenta, Dim = cyan, yellow, red, green, magenta, dim }()

	assert.NotEqual(t, "x", Red("x"))
	DisableColor()
	assert.Equal(t, "x", Red("x"))
	assert.Equal(t, "x", Dim("x"))
}
