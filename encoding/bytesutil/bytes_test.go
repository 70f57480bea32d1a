package bytesutil_test

import (
	"testing"

	"github.com/prysmaticlabs/prysm-epbs/encoding/bytesutil"
	"github.com/prysmaticlabs/prysm-epbs/testing/assert"
)

func TestToBytes(t *testing.T) {
	tests := []struct {
		a uint64
		b []byte
	}{
		{0, []byte{0}},
		{255, []byte{255}},
		{256, []byte{0, 1}},
		{65535, []byte{255, 255, 0}},
		{16777217, []byte{1, 0, 0, 1}},
		{4294967297, []byte{1, 0, 0, 0, 1, 0, 0, 0}},
	}
	for _, tt := range tests {
		assert.DeepEqual(t, tt.b, bytesutil.ToBytes(tt.a, len(tt.b)))
	}
}

func TestFromBytes2(t *testing.T) {
	assert.Equal(t, uint16(0x0201), bytesutil.FromBytes2([]byte{1, 2, 3}))
	assert.Equal(t, uint16(0), bytesutil.FromBytes2([]byte{1}))
}

func TestFromBytes8(t *testing.T) {
	assert.Equal(t, uint64(1<<32+1), bytesutil.FromBytes8(bytesutil.Bytes8(1<<32+1)))
	assert.Equal(t, uint64(0), bytesutil.FromBytes8([]byte{1}))
}

func TestReverseByteOrder(t *testing.T) {
	input := []byte{1, 2, 3}
	assert.DeepEqual(t, []byte{3, 2, 1}, bytesutil.ReverseByteOrder(input))
	assert.DeepEqual(t, []byte{1, 2, 3}, input)
}

func TestTrunc(t *testing.T) {
	assert.DeepEqual(t, []byte{1, 2, 3, 4, 5, 6}, bytesutil.Trunc([]byte{1, 2, 3, 4, 5, 6, 7, 8}))
	assert.DeepEqual(t, []byte{1}, bytesutil.Trunc([]byte{1}))
}

func TestSafeCopyBytes(t *testing.T) {
	var nilSlice []byte
	assert.DeepEqual(t, nilSlice, bytesutil.SafeCopyBytes(nil))
	in := []byte{9}
	out := bytesutil.SafeCopyBytes(in)
	out[0] = 1
	assert.Equal(t, byte(9), in[0])
}

func TestZeroRoot(t *testing.T) {
	assert.Equal(t, true, bytesutil.ZeroRoot(make([]byte, 32)))
	assert.Equal(t, false, bytesutil.ZeroRoot([]byte{0, 1}))
}
