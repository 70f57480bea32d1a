package epbs

import "github.com/pkg/errors"

var (
	errNilMessage = errors.New("nil signed message")
	errNilPayload = errors.New("nil execution payload")
	errNilData    = errors.New("nil payload attestation data")
)
