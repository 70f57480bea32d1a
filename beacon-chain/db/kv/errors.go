package kv

import "github.com/pkg/errors"

// ErrNotFound can be used directly, or as a wrapped DBError, whenever a db method needs to
// indicate that a value couldn't be found.
var ErrNotFound = errors.New("not found in db")

// ErrNotFoundGenesisBlockRoot means no genesis block root was found, indicating the db was not initialized with genesis
var ErrNotFoundGenesisBlockRoot = errors.Wrap(ErrNotFound, "genesis block root")

// ErrNotFoundHeadBlockRoot means no head block root was saved yet.
var ErrNotFoundHeadBlockRoot = errors.Wrap(ErrNotFound, "head block root")

// ErrUnsupportedState is returned when saving a state implementation the store cannot serialize.
var ErrUnsupportedState = errors.New("state type cannot be serialized")
