package sync

import "github.com/pkg/errors"

var (
	errNilMessage         = errors.New("nil message")
	errWrongMessageType   = errors.New("unexpected message type for topic")
	errUnknownTopic       = errors.New("no validator registered for topic")
	errSelfBuildOnGossip  = errors.New("self-built bids are not gossiped")
	errBidSlotNotCurrent  = errors.New("bid is not for the current or next slot")
	errUnknownParentBlock = errors.New("bid parent block is not known")
	errDuplicateMessage   = errors.New("message already seen")
	errFinalizedSlot      = errors.New("message slot is not later than the finalized slot")
	errUnknownBlock       = errors.New("referenced block is not known")
	errPayloadKnown       = errors.New("payload for block already imported")
	errNotCurrentSlot     = errors.New("payload attestation is not for the current slot")
	errSyncing            = errors.New("node is syncing")
)
