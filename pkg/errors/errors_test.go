package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorChain(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("fetch problem 12: %w", Wrap(ErrorTypeTransientFetch, cause, "page load failed"))

	assert.True(t, IsType(err, ErrorTypeTransientFetch))
	assert.False(t, IsType(err, ErrorTypeHardAbort))
	assert.Equal(t, ErrorTypeTransientFetch, TypeOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "transient_fetch error: page load failed: connection reset")
}

func TestIsTypeNested(t *testing.T) {
	inner := New(ErrorTypeSetup, "permission denied for schema public")
	outer := Wrap(ErrorTypeSyncTransaction, inner, "sync aborted")

	assert.True(t, IsType(outer, ErrorTypeSyncTransaction))
	assert.True(t, IsType(outer, ErrorTypeSetup))
	assert.False(t, IsType(errors.New("plain"), ErrorTypeSetup))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(errors.New("plain")))
}

func TestFromStatusCode(t *testing.T) {
	tests := []struct {
		code      int
		wantType  ErrorType
		retryable bool
	}{
		{429, ErrorTypeRateLimit, true},
		{404, ErrorTypeNotFound, false},
		{500, ErrorTypeServerError, true},
		{503, ErrorTypeServerError, true},
		{400, ErrorTypeUnknown, false},
	}

	for _, tt := range tests {
		err := FromStatusCode(tt.code, "unexpected status")
		assert.Equal(t, tt.wantType, err.Type, "code %d", tt.code)
		assert.Equal(t, tt.retryable, IsRetryable(err.Type), "code %d", tt.code)
	}
}
