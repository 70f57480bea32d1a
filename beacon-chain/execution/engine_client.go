// Package execution talks to the execution layer over the engine API. Consensus only
// needs one call from it: handing a revealed payload to the EL for validation.
package execution

import (
	"context"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/encoding/bytesutil"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

const (
	// NewPayloadMethodV3 is the engine API method used to submit a revealed payload.
	NewPayloadMethodV3 = "engine_newPayloadV3"

	defaultEngineTimeout = 8 * time.Second
)

// EngineCaller defines the execution layer operations consensus depends on.
type EngineCaller interface {
	NewPayload(ctx context.Context, payload *epbs.ExecutionPayload, versionedHashes []common.Hash, parentBlockRoot [32]byte) ([]byte, error)
}

// Option configures an EngineClient.
type Option func(c *EngineClient) error

// WithJWTSecret authenticates every request with an HS256 token derived from secret.
func WithJWTSecret(secret []byte) Option {
	return func(c *EngineClient) error {
		if len(secret) != jwtSecretLength {
			return errors.Wrapf(ErrInvalidJWTSecret, "expected %d bytes, got %d", jwtSecretLength, len(secret))
		}
		c.jwtSecret = secret
		return nil
	}
}

// WithTimeout bounds each engine API call.
func WithTimeout(d time.Duration) Option {
	return func(c *EngineClient) error {
		c.timeout = d
		return nil
	}
}

// EngineClient is an engine API client over go-ethereum's JSON-RPC client.
type EngineClient struct {
	endpoint  string
	jwtSecret []byte
	timeout   time.Duration
	rpc       *rpc.Client
}

var _ EngineCaller = (*EngineClient)(nil)

// NewEngineClient dials endpoint. The connection is lazy for HTTP endpoints so this does
// not fail when the EL is temporarily down.
func NewEngineClient(ctx context.Context, endpoint string, opts ...Option) (*EngineClient, error) {
	c := &EngineClient{endpoint: endpoint, timeout: defaultEngineTimeout}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if len(c.jwtSecret) == 0 {
		client, err := rpc.DialContext(ctx, endpoint)
		if err != nil {
			return nil, errors.Wrapf(err, "could not dial execution engine at %s", endpoint)
		}
		c.rpc = client
		return c, nil
	}
	httpClient := &http.Client{Timeout: c.timeout, Transport: newJWTTransport(c.jwtSecret)}
	client, err := rpc.DialHTTPWithClient(endpoint, httpClient)
	if err != nil {
		return nil, errors.Wrapf(err, "could not dial execution engine at %s", endpoint)
	}
	c.rpc = client
	return c, nil
}

// Close closes the underlying RPC connection.
func (c *EngineClient) Close() {
	if c.rpc != nil {
		c.rpc.Close()
	}
}

// NewPayload calls engine_newPayloadV3 and maps the returned status. VALID returns the
// latest valid hash and no error, INVALID returns the latest valid hash together with
// ErrInvalidPayloadStatus, SYNCING and ACCEPTED return ErrAcceptedSyncingPayloadStatus.
func (c *EngineClient) NewPayload(ctx context.Context, payload *epbs.ExecutionPayload, versionedHashes []common.Hash, parentBlockRoot [32]byte) ([]byte, error) {
	ctx, span := trace.StartSpan(ctx, "execution.NewPayload")
	defer span.End()
	start := time.Now()
	defer func() {
		newPayloadLatency.Observe(float64(time.Since(start).Milliseconds()))
	}()

	if payload == nil {
		return nil, ErrNilPayload
	}
	if versionedHashes == nil {
		versionedHashes = []common.Hash{}
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result := &payloadStatusJSON{}
	if err := c.rpc.CallContext(ctx, result, NewPayloadMethodV3, payloadToJSON(payload), versionedHashes, common.Hash(parentBlockRoot)); err != nil {
		return nil, errors.Wrap(err, "could not call "+NewPayloadMethodV3)
	}
	return handlePayloadStatus(payload.BlockHash, result)
}

func handlePayloadStatus(blockHash [32]byte, result *payloadStatusJSON) ([]byte, error) {
	if result == nil || result.Status == "" {
		return nil, ErrNilResponse
	}
	newPayloadStatusCount.WithLabelValues(result.Status).Inc()
	var latestValidHash []byte
	if result.LatestValidHash != nil {
		latestValidHash = bytesutil.SafeCopyBytes(result.LatestValidHash[:])
	}
	switch result.Status {
	case StatusValid:
		return latestValidHash, nil
	case StatusAccepted, StatusSyncing:
		return nil, ErrAcceptedSyncingPayloadStatus
	case StatusInvalidBlockHash:
		return nil, ErrInvalidBlockHashPayloadStatus
	case StatusInvalid:
		fields := logrus.Fields{"blockHash": common.Hash(blockHash).Hex()}
		if result.ValidationError != nil {
			fields["validationError"] = *result.ValidationError
		}
		log.WithFields(fields).Debug("Execution engine rejected payload")
		return latestValidHash, ErrInvalidPayloadStatus
	default:
		return nil, errors.Wrapf(ErrUnknownPayloadStatus, "status %q", result.Status)
	}
}
