package pipeline

import (
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestFailureMatching(t *testing.T) {
	missing := &os.PathError{Op: "stat", Path: "street_walk.mp4", Err: os.ErrNotExist}

	tests := []struct {
		name       string
		err        error
		sentinel   error
		other      error
		wantString string
	}{
		{
			name:       "source unavailable",
			err:        SourceUnavailable("street_walk.mp4", missing),
			sentinel:   ErrSourceUnavailable,
			other:      ErrUnexpected,
			wantString: `could not open video source "street_walk.mp4": stat street_walk.mp4: file does not exist`,
		},
		{
			name:       "unexpected",
			err:        Unexpected(errors.New("boom")),
			sentinel:   ErrUnexpected,
			other:      ErrSourceUnavailable,
			wantString: "unexpected processing failure: boom",
		},
		{
			name:       "wrapped",
			err:        errors.Wrap(Unexpected(nil), "run"),
			sentinel:   ErrUnexpected,
			other:      ErrSourceUnavailable,
			wantString: "run: unexpected processing failure",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.err, tt.sentinel))
			assert.False(t, errors.Is(tt.err, tt.other))
			assert.EqualError(t, tt.err, tt.wantString)
		})
	}

	assert.True(t, errors.Is(SourceUnavailable("x", missing), os.ErrNotExist))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "source unavailable", KindSourceUnavailable.String())
	assert.Equal(t, "unexpected", KindUnexpected.String())
	assert.Equal(t, "unknown", Kind(0).String())
}
