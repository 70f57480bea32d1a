package signing_test

import (
	"testing"

	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/signing"
	fieldparams "github.com/prysmaticlabs/prysm-epbs/config/fieldparams"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/blocks"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/crypto/bls"
	"github.com/prysmaticlabs/prysm-epbs/testing/assert"
	"github.com/prysmaticlabs/prysm-epbs/testing/require"
)

func TestSigningRoot_ComputeDomain(t *testing.T) {
	tests := []struct {
		epoch      uint64
		domainType [4]byte
		domain     []byte
	}{
		{epoch: 1, domainType: [4]byte{4, 0, 0, 0}, domain: []byte{4, 0, 0, 0, 245, 165, 253, 66, 209, 106, 32, 48, 39, 152, 239, 110, 211, 9, 151, 155, 67, 0, 61, 35, 32, 217, 240, 232, 234, 152, 49, 169}},
		{epoch: 2, domainType: [4]byte{5, 0, 0, 0}, domain: []byte{5, 0, 0, 0, 245, 165, 253, 66, 209, 106, 32, 48, 39, 152, 239, 110, 211, 9, 151, 155, 67, 0, 61, 35, 32, 217, 240, 232, 234, 152, 49, 169}},
	}
	for _, tt := range tests {
		got, err := signing.ComputeDomain(tt.domainType, [4]byte{}, [32]byte{})
		require.NoError(t, err)
		assert.DeepEqual(t, tt.domain, got[:])
	}
}

func TestDomain_UsesPreviousVersionBeforeForkEpoch(t *testing.T) {
	fork := &blocks.Fork{PreviousVersion: [4]byte{1}, CurrentVersion: [4]byte{2}, Epoch: 10}
	dt := params.BeaconConfig().DomainBeaconBuilder

	before, err := signing.Domain(fork, 9, dt, [32]byte{})
	require.NoError(t, err)
	want, err := signing.ComputeDomain(dt, [4]byte{1}, [32]byte{})
	require.NoError(t, err)
	assert.Equal(t, want, before)

	after, err := signing.Domain(fork, 10, dt, [32]byte{})
	require.NoError(t, err)
	want, err = signing.ComputeDomain(dt, [4]byte{2}, [32]byte{})
	require.NoError(t, err)
	assert.Equal(t, want, after)

	_, err = signing.Domain(nil, 0, dt, [32]byte{})
	require.ErrorContains(t, "nil fork", err)
}

func TestVerifySigningRoot(t *testing.T) {
	sk, err := bls.RandKey()
	require.NoError(t, err)
	var pub [fieldparams.BLSPubkeyLength]byte
	copy(pub[:], sk.PublicKey().Marshal())

	obj := &blocks.Checkpoint{Epoch: 3, Root: [32]byte{'a'}}
	domain, err := signing.ComputeDomain(params.BeaconConfig().DomainBeaconBuilder, [4]byte{}, [32]byte{})
	require.NoError(t, err)
	sig, err := signing.Sign(obj, domain, sk)
	require.NoError(t, err)
	require.NoError(t, signing.VerifySigningRoot(obj, pub, sig, domain))

	otherDomain, err := signing.ComputeDomain(params.BeaconConfig().DomainPTCAttester, [4]byte{}, [32]byte{})
	require.NoError(t, err)
	assert.ErrorIs(t, signing.VerifySigningRoot(obj, pub, sig, otherDomain), signing.ErrSigFailedToVerify)

	obj.Epoch = 4
	assert.ErrorIs(t, signing.VerifySigningRoot(obj, pub, sig, domain), signing.ErrSigFailedToVerify)
}

func TestVerifyAggregateSigningRoot(t *testing.T) {
	obj := &blocks.Checkpoint{Epoch: primitives.Epoch(1)}
	domain, err := signing.ComputeDomain(params.BeaconConfig().DomainPTCAttester, [4]byte{}, [32]byte{})
	require.NoError(t, err)

	var pubs [][fieldparams.BLSPubkeyLength]byte
	var sigs []bls.Signature
	for i := 0; i < 3; i++ {
		sk, err := bls.RandKey()
		require.NoError(t, err)
		var pub [fieldparams.BLSPubkeyLength]byte
		copy(pub[:], sk.PublicKey().Marshal())
		pubs = append(pubs, pub)
		raw, err := signing.Sign(obj, domain, sk)
		require.NoError(t, err)
		s, err := bls.SignatureFromBytes(raw[:])
		require.NoError(t, err)
		sigs = append(sigs, s)
	}
	var agg [fieldparams.BLSSignatureLength]byte
	copy(agg[:], bls.AggregateSignatures(sigs).Marshal())
	require.NoError(t, signing.VerifyAggregateSigningRoot(obj, pubs, agg, domain))
	assert.ErrorIs(t, signing.VerifyAggregateSigningRoot(obj, pubs[:2], agg, domain), signing.ErrSigFailedToVerify)
	assert.ErrorIs(t, signing.VerifyAggregateSigningRoot(obj, nil, agg, domain), signing.ErrNilRegistry)
}
