package blockchain

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/epbs"
	epbstypes "github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/encoding/bytesutil"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

// AttestationReceiver interface defines the methods of chain service receive and processing new attestations.
type AttestationReceiver interface {
	ReceiveAttestation(ctx context.Context, validatorIndices []uint64, blockRoot [32]byte, slot primitives.Slot, payloadPresent bool) error
	ReceivePayloadAttestationMessage(ctx context.Context, msg *epbstypes.PayloadAttestationMessage) error
}

// ReceiveAttestation records the LMD votes of already verified attesters in fork choice.
func (s *Service) ReceiveAttestation(ctx context.Context, validatorIndices []uint64, blockRoot [32]byte, slot primitives.Slot, payloadPresent bool) error {
	ctx, span := trace.StartSpan(ctx, "blockChain.ReceiveAttestation")
	defer span.End()
	if !s.cfg.ForkChoiceStore.HasNode(blockRoot) {
		return errors.Wrapf(ErrUnknownBlock, "attestation target %#x", bytesutil.Trunc(blockRoot[:]))
	}
	s.cfg.ForkChoiceStore.ProcessAttestation(ctx, validatorIndices, blockRoot, slot, payloadPresent)
	return nil
}

// ReceivePayloadAttestationMessage records a verified PTC vote in fork choice. The vote
// counts once for every committee seat its validator holds.
func (s *Service) ReceivePayloadAttestationMessage(ctx context.Context, msg *epbstypes.PayloadAttestationMessage) error {
	ctx, span := trace.StartSpan(ctx, "blockChain.ReceivePayloadAttestationMessage")
	defer span.End()
	if msg == nil || msg.Data == nil {
		return errNilAttestation
	}
	root := msg.Data.BeaconBlockRoot
	if !s.cfg.ForkChoiceStore.HasNode(root) {
		return errors.Wrapf(ErrUnknownBlock, "payload attestation block %#x", bytesutil.Trunc(root[:]))
	}
	ptc, err := s.ptcForBlock(ctx, root, msg.Data.Slot)
	if err != nil {
		return err
	}
	seats := epbs.PTCSeats(ptc, msg.ValidatorIndex)
	if len(seats) == 0 {
		return errors.Wrapf(ErrNotInPTC, "validator %d slot %d", msg.ValidatorIndex, msg.Data.Slot)
	}
	s.cfg.ForkChoiceStore.ProcessPayloadAttestation(ctx, root, seats, msg.Data.PayloadPresent)
	log.WithFields(logrus.Fields{
		"slot":           msg.Data.Slot,
		"validator":      msg.ValidatorIndex,
		"root":           fmt.Sprintf("%#x", bytesutil.Trunc(root[:])),
		"payloadPresent": msg.Data.PayloadPresent,
		"seats":          len(seats),
	}).Debug("Processed payload attestation message")
	return nil
}
