package runctx

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCarriesRunID(t *testing.T) {
	ctx, stop := New(context.Background())
	defer stop()

	id := RunID(ctx)
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	other, stop2 := New(context.Background())
	defer stop2()
	assert.NotEqual(t, id, RunID(other))
}

func TestStopCancels(t *testing.T) {
	ctx, stop := New(context.Background())
	stop()
	<-ctx.Done()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestRunIDMissing(t *testing.T) {
	assert.Empty(t, RunID(context.Background()))
	assert.Equal(t, "abc", RunID(WithRunID(context.Background(), "abc")))
}
