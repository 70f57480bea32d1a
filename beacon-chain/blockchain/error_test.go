package blockchain

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/testing/assert"
)

func TestIsInvalidBlock(t *testing.T) {
	assert.Equal(t, false, IsInvalidBlock(nil))
	assert.Equal(t, false, IsInvalidBlock(errors.New("foo")))
	assert.Equal(t, true, IsInvalidBlock(ErrInvalidPayload))
	err := invalidBlock{error: errors.New("bad signature"), root: [32]byte{'a'}}
	assert.Equal(t, true, IsInvalidBlock(err))
	wrapped := errors.Wrap(err, "could not process block")
	assert.Equal(t, true, IsInvalidBlock(wrapped))
	assert.Equal(t, [32]byte{'a'}, InvalidBlockRoot(wrapped))
	assert.Equal(t, [32]byte{}, InvalidBlockRoot(errors.New("foo")))
	assert.Equal(t, [32]byte{}, InvalidBlockRoot(nil))
}

func TestIsFatal(t *testing.T) {
	assert.Equal(t, false, IsFatal(nil))
	assert.Equal(t, false, IsFatal(ErrUnknownParent))
	err := fatal(errors.New("bolt: page corrupted"), "could not read state")
	assert.Equal(t, true, IsFatal(err))
	assert.Equal(t, true, IsFatal(errors.Wrap(err, "outer")))
	assert.ErrorContains(t, "could not read state: bolt: page corrupted", err)
}

func TestIsDeferrable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "unknown parent", err: errors.Wrap(ErrUnknownParent, "parent 0x01"), want: true},
		{name: "unknown parent payload", err: errors.Wrap(ErrUnknownParentPayload, "parent 0x01"), want: true},
		{name: "invalid block", err: invalidBlock{error: errors.New("bad")}, want: false},
		{name: "fatal", err: fatal(errors.New("missing state"), "broken"), want: false},
		{name: "other", err: errors.New("foo"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDeferrable(tt.err))
		})
	}
}
