// Package testing provides a chain service mock for packages that consume the
// blockchain service.
package testing

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	forkchoicetypes "github.com/prysmaticlabs/prysm-epbs/beacon-chain/forkchoice/types"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/state"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/blocks"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
)

// ErrNilState is returned when the mock has no state.
var ErrNilState = errors.New("nil state")

// ChainService defines the mock interface for testing.
type ChainService struct {
	State                 state.BeaconState
	Root                  []byte
	Slot                  *primitives.Slot
	FinalizedCheckPoint   *blocks.Checkpoint
	CurrentJustifiedCheck *blocks.Checkpoint
	PTC                   []primitives.ValidatorIndex
	Statuses              map[[32]byte]primitives.PayloadStatus
	KnownRoots            map[[32]byte]bool

	ReceiveEnvelopeErr    error
	ReceiveAttestationErr error

	lock                sync.Mutex
	envelopes           []*epbs.SignedExecutionPayloadEnvelope
	payloadAttestations []*epbs.PayloadAttestationMessage
}

// Head mocks the same method in the chain service.
func (s *ChainService) Head(_ context.Context) (forkchoicetypes.ForkChoiceNode, error) {
	var root [32]byte
	copy(root[:], s.Root)
	return forkchoicetypes.ForkChoiceNode{Root: root, PayloadStatus: s.Statuses[root]}, nil
}

// HeadRoot mocks the same method in the chain service.
func (s *ChainService) HeadRoot(_ context.Context) ([]byte, error) {
	if len(s.Root) > 0 {
		return s.Root, nil
	}
	return make([]byte, 32), nil
}

// HeadSlot mocks the same method in the chain service.
func (s *ChainService) HeadSlot() primitives.Slot {
	if s.State == nil {
		return 0
	}
	return s.State.Slot()
}

// HeadState mocks the same method in the chain service.
func (s *ChainService) HeadState(_ context.Context) (state.BeaconState, error) {
	if s.State == nil {
		return nil, ErrNilState
	}
	return s.State.Copy(), nil
}

// CurrentSlot mocks the same method in the chain service.
func (s *ChainService) CurrentSlot() primitives.Slot {
	if s.Slot != nil {
		return *s.Slot
	}
	return s.HeadSlot()
}

// FinalizedCheckpt mocks the same method in the chain service.
func (s *ChainService) FinalizedCheckpt() *blocks.Checkpoint {
	if s.FinalizedCheckPoint == nil {
		return &blocks.Checkpoint{}
	}
	return s.FinalizedCheckPoint
}

// CurrentJustifiedCheckpt mocks the same method in the chain service.
func (s *ChainService) CurrentJustifiedCheckpt() *blocks.Checkpoint {
	if s.CurrentJustifiedCheck == nil {
		return &blocks.Checkpoint{}
	}
	return s.CurrentJustifiedCheck
}

// PTCCommittee mocks the same method in the chain service.
func (s *ChainService) PTCCommittee(_ context.Context, _ primitives.Slot) ([]primitives.ValidatorIndex, error) {
	return s.PTC, nil
}

// PayloadStatus mocks the same method in the chain service.
func (s *ChainService) PayloadStatus(root [32]byte) (primitives.PayloadStatus, error) {
	status, ok := s.Statuses[root]
	if !ok {
		return primitives.PayloadPending, errors.New("unknown root")
	}
	return status, nil
}

// HasBlock mocks the same method in the chain service.
func (s *ChainService) HasBlock(_ context.Context, root [32]byte) bool {
	return s.KnownRoots[root]
}

// ReceiveExecutionPayloadEnvelope mocks the same method in the chain service.
func (s *ChainService) ReceiveExecutionPayloadEnvelope(_ context.Context, env *epbs.SignedExecutionPayloadEnvelope) error {
	if s.ReceiveEnvelopeErr != nil {
		return s.ReceiveEnvelopeErr
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.envelopes = append(s.envelopes, env)
	return nil
}

// ReceivePayloadAttestationMessage mocks the same method in the chain service.
func (s *ChainService) ReceivePayloadAttestationMessage(_ context.Context, msg *epbs.PayloadAttestationMessage) error {
	if s.ReceiveAttestationErr != nil {
		return s.ReceiveAttestationErr
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.payloadAttestations = append(s.payloadAttestations, msg)
	return nil
}

// Envelopes returns the envelopes handed to the mock.
func (s *ChainService) Envelopes() []*epbs.SignedExecutionPayloadEnvelope {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]*epbs.SignedExecutionPayloadEnvelope{}, s.envelopes...)
}

// PayloadAttestations returns the payload attestation messages handed to the mock.
func (s *ChainService) PayloadAttestations() []*epbs.PayloadAttestationMessage {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]*epbs.PayloadAttestationMessage{}, s.payloadAttestations...)
}
