package primitives

// PayloadStatus tags a fork-choice node with the execution payload state of its block.
type PayloadStatus uint8

const (
	// PayloadPending is a consensus block whose payload has not been resolved.
	PayloadPending PayloadStatus = iota
	// PayloadEmpty is the branch where the payload was never revealed.
	PayloadEmpty
	// PayloadFull is the branch where the payload was revealed and verified.
	PayloadFull
)

// String returns the human readable status.
func (s PayloadStatus) String() string {
	switch s {
	case PayloadPending:
		return "PENDING"
	case PayloadEmpty:
		return "EMPTY"
	case PayloadFull:
		return "FULL"
	default:
		return "UNKNOWN"
	}
}
