package types

import (
	"fmt"

	fieldparams "github.com/prysmaticlabs/prysm-epbs/config/fieldparams"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/encoding/bytesutil"
)

// BoostProposerRootArgs to call the BoostProposerRoot function.
type BoostProposerRootArgs struct {
	BlockRoot       [32]byte
	BlockSlot       primitives.Slot
	CurrentSlot     primitives.Slot
	SecondsIntoSlot uint64
}

// Checkpoint is an array version of ethpb.Checkpoint. It is used internally in
// forkchoice, while the slice version is used in the interface to legagy code
// in other packages
type Checkpoint struct {
	Epoch primitives.Epoch
	Root  [fieldparams.RootLength]byte
}

// ForkChoiceNode identifies a vertex of the fork choice tree. The same block root
// appears once per payload status it has been seen with.
type ForkChoiceNode struct {
	Root          [fieldparams.RootLength]byte
	PayloadStatus primitives.PayloadStatus
}

// String is used in logs.
func (n ForkChoiceNode) String() string {
	return fmt.Sprintf("%#x/%s", bytesutil.Trunc(n.Root[:]), n.PayloadStatus)
}

// LatestMessage is the most recent fork choice vote of a validator.
type LatestMessage struct {
	Slot           primitives.Slot
	Root           [fieldparams.RootLength]byte
	PayloadPresent bool
}
