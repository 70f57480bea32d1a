package primitives

// ValidatorIndex in eth2.
type ValidatorIndex uint64

// BuilderIndex is the position of a builder in the builder registry. It is a
// namespace of its own and never aliases a ValidatorIndex.
type BuilderIndex uint64

// CommitteeIndex in eth2.
type CommitteeIndex uint64

// Gwei is the denomination of balances on the beacon chain.
type Gwei uint64

// DomainType is the 4-byte prefix of a signature domain.
type DomainType [4]byte
