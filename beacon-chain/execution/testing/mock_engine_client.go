// Package testing provides an in-memory execution engine for tests.
package testing

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/execution"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
)

// EngineClient --
type EngineClient struct {
	NewPayloadResp []byte
	Err            error
	// ErrByBlockHash overrides Err for specific payloads.
	ErrByBlockHash map[[32]byte]error

	lock     sync.Mutex
	payloads []*epbs.ExecutionPayload
}

var _ execution.EngineCaller = (*EngineClient)(nil)

// NewPayload --
func (e *EngineClient) NewPayload(ctx context.Context, payload *epbs.ExecutionPayload, _ []common.Hash, _ [32]byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.lock.Lock()
	defer e.lock.Unlock()
	e.payloads = append(e.payloads, payload)
	if err, ok := e.ErrByBlockHash[payload.BlockHash]; ok {
		return nil, err
	}
	return e.NewPayloadResp, e.Err
}

// Payloads returns every payload submitted so far.
func (e *EngineClient) Payloads() []*epbs.ExecutionPayload {
	e.lock.Lock()
	defer e.lock.Unlock()
	return append([]*epbs.ExecutionPayload{}, e.payloads...)
}
