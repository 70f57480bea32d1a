package blocks

import "github.com/pkg/errors"

var (
	// ErrNilBlock is returned when a block or one of its required parts is nil.
	ErrNilBlock = errors.New("nil block")
	// ErrNilBid is returned when a block does not commit to an execution payload bid.
	ErrNilBid = errors.New("block does not contain a signed execution payload bid")
)
