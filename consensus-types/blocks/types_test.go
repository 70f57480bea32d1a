package blocks

import (
	"testing"

	"github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/testing/assert"
	"github.com/prysmaticlabs/prysm-epbs/testing/require"
)

func testBlock() *BeaconBlock {
	return &BeaconBlock{
		Slot:          3,
		ProposerIndex: 1,
		ParentRoot:    [32]byte{'p'},
		Body: &BeaconBlockBody{
			SignedExecutionPayloadBid: &epbs.SignedExecutionPayloadBid{
				Message: &epbs.ExecutionPayloadBid{Slot: 3, BuilderIndex: 2, Value: 10},
			},
		},
	}
}

func TestBeaconBlock_RootMatchesHeaderRoot(t *testing.T) {
	blk := testBlock()
	blockRoot, err := blk.HashTreeRoot()
	require.NoError(t, err)
	header, err := blk.Header()
	require.NoError(t, err)
	headerRoot, err := header.HashTreeRoot()
	require.NoError(t, err)
	assert.Equal(t, blockRoot, headerRoot)
}

func TestBeaconBlock_RootCommitsToBid(t *testing.T) {
	blk := testBlock()
	r1, err := blk.HashTreeRoot()
	require.NoError(t, err)
	blk.Body.SignedExecutionPayloadBid.Message.Value = 11
	r2, err := blk.HashTreeRoot()
	require.NoError(t, err)
	assert.NotEqual(t, r1, r2)
}

func TestBeaconBlockIsNil(t *testing.T) {
	assert.ErrorIs(t, BeaconBlockIsNil(nil), ErrNilBlock)
	assert.ErrorIs(t, BeaconBlockIsNil(&SignedBeaconBlock{Block: &BeaconBlock{Body: &BeaconBlockBody{}}}), ErrNilBid)
	require.NoError(t, BeaconBlockIsNil(&SignedBeaconBlock{Block: testBlock()}))
}

func TestSignedBeaconBlock_Copy(t *testing.T) {
	signed := &SignedBeaconBlock{Block: testBlock()}
	cp := signed.Copy()
	cp.Block.Body.SignedExecutionPayloadBid.Message.Value = 99
	cp.Block.Slot = 9
	assert.Equal(t, uint64(10), uint64(signed.Block.Body.SignedExecutionPayloadBid.Message.Value))
	assert.Equal(t, uint64(3), uint64(signed.Block.Slot))
}
