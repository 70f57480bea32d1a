package execution

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang-jwt/jwt/v4"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/testing/assert"
	"github.com/prysmaticlabs/prysm-epbs/testing/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func testPayload() *epbs.ExecutionPayload {
	p := &epbs.ExecutionPayload{
		ParentHash:   [32]byte{'p'},
		FeeRecipient: [20]byte{'f'},
		BlockNumber:  7,
		GasLimit:     30_000_000,
		Timestamp:    12,
		ExtraData:    []byte("extra"),
		BlockHash:    [32]byte{'h'},
		Transactions: [][]byte{{0x02, 0x01}},
		Withdrawals: []*epbs.Withdrawal{
			{Index: 1, ValidatorIndex: 2, Address: [20]byte{'w'}, Amount: 3},
		},
	}
	p.BaseFeePerGas[0] = 7
	return p
}

type rpcRequest struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// engineServer answers every request with status and records what it received.
func engineServer(t *testing.T, status *payloadStatusJSON, received chan<- rpcRequest, auth chan<- string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		defer func() {
			require.NoError(t, r.Body.Close())
		}()
		if auth != nil {
			auth <- r.Header.Get("Authorization")
		}
		enc, err := ioutil.ReadAll(r.Body)
		require.NoError(t, err)
		req := rpcRequest{}
		require.NoError(t, json.Unmarshal(enc, &req))
		if received != nil {
			received <- req
		}
		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      1,
			"result":  status,
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestEngineClient_NewPayload_Request(t *testing.T) {
	ctx := context.Background()
	validHash := common.Hash{'v'}
	received := make(chan rpcRequest, 1)
	srv := engineServer(t, &payloadStatusJSON{Status: StatusValid, LatestValidHash: &validHash}, received, nil)
	defer srv.Close()

	client, err := NewEngineClient(ctx, srv.URL)
	require.NoError(t, err)
	defer client.Close()

	want := testPayload()
	hashes := []common.Hash{{'b'}}
	parentRoot := [32]byte{'r'}
	resp, err := client.NewPayload(ctx, want, hashes, parentRoot)
	require.NoError(t, err)
	assert.DeepEqual(t, validHash[:], resp)

	req := <-received
	assert.Equal(t, NewPayloadMethodV3, req.Method)
	require.Equal(t, 3, len(req.Params))
	got := &executionPayloadJSON{}
	require.NoError(t, json.Unmarshal(req.Params[0], got))
	assert.DeepEqual(t, want, got.toPayload())
	assert.Equal(t, true, strings.Contains(string(req.Params[0]), `"baseFeePerGas":"0x7"`))
	var gotHashes []common.Hash
	require.NoError(t, json.Unmarshal(req.Params[1], &gotHashes))
	assert.DeepEqual(t, hashes, gotHashes)
	var gotRoot common.Hash
	require.NoError(t, json.Unmarshal(req.Params[2], &gotRoot))
	assert.Equal(t, common.Hash(parentRoot), gotRoot)
}

func TestEngineClient_NewPayload_Status(t *testing.T) {
	validHash := common.Hash{'v'}
	reason := "bad state root"
	tests := []struct {
		name     string
		status   *payloadStatusJSON
		wantErr  error
		wantHash []byte
	}{
		{
			name:     "VALID",
			status:   &payloadStatusJSON{Status: StatusValid, LatestValidHash: &validHash},
			wantHash: validHash[:],
		},
		{
			name:    "SYNCING",
			status:  &payloadStatusJSON{Status: StatusSyncing},
			wantErr: ErrAcceptedSyncingPayloadStatus,
		},
		{
			name:    "ACCEPTED",
			status:  &payloadStatusJSON{Status: StatusAccepted},
			wantErr: ErrAcceptedSyncingPayloadStatus,
		},
		{
			name:     "INVALID",
			status:   &payloadStatusJSON{Status: StatusInvalid, LatestValidHash: &validHash, ValidationError: &reason},
			wantErr:  ErrInvalidPayloadStatus,
			wantHash: validHash[:],
		},
		{
			name:    "INVALID_BLOCK_HASH",
			status:  &payloadStatusJSON{Status: StatusInvalidBlockHash},
			wantErr: ErrInvalidPayloadStatus,
		},
		{
			name:    "UNKNOWN",
			status:  &payloadStatusJSON{Status: "FOO"},
			wantErr: ErrUnknownPayloadStatus,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			srv := engineServer(t, tt.status, nil, nil)
			defer srv.Close()
			client, err := NewEngineClient(ctx, srv.URL)
			require.NoError(t, err)
			defer client.Close()

			resp, err := client.NewPayload(ctx, testPayload(), nil, [32]byte{})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.DeepEqual(t, tt.wantHash, resp)
		})
	}
}

func TestEngineClient_NewPayload_Nil(t *testing.T) {
	client := &EngineClient{timeout: time.Second}
	_, err := client.NewPayload(context.Background(), nil, nil, [32]byte{})
	require.ErrorIs(t, err, ErrNilPayload)
}

func TestEngineClient_JWT(t *testing.T) {
	ctx := context.Background()
	auth := make(chan string, 1)
	srv := engineServer(t, &payloadStatusJSON{Status: StatusSyncing}, nil, auth)
	defer srv.Close()

	client, err := NewEngineClient(ctx, srv.URL, WithJWTSecret(testSecret), WithTimeout(time.Second))
	require.NoError(t, err)
	defer client.Close()
	_, err = client.NewPayload(ctx, testPayload(), nil, [32]byte{})
	require.ErrorIs(t, err, ErrAcceptedSyncingPayloadStatus)

	header := <-auth
	require.Equal(t, true, strings.HasPrefix(header, "Bearer "))
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims, func(token *jwt.Token) (interface{}, error) {
		assert.Equal(t, jwt.SigningMethodHS256.Alg(), token.Method.Alg())
		return testSecret, nil
	})
	require.NoError(t, err)
	assert.Equal(t, true, token.Valid)
	require.NotNil(t, claims.IssuedAt)
	assert.Equal(t, true, time.Since(claims.IssuedAt.Time) < time.Minute)
}

func TestWithJWTSecret_Length(t *testing.T) {
	_, err := NewEngineClient(context.Background(), "http://localhost:8551", WithJWTSecret([]byte("short")))
	require.ErrorIs(t, err, ErrInvalidJWTSecret)
}

func TestParseJWTSecret(t *testing.T) {
	hex := strings.Repeat("ab", 32)
	b, err := ParseJWTSecret(hex)
	require.NoError(t, err)
	assert.Equal(t, 32, len(b))
	b2, err := ParseJWTSecret("0x" + hex + "\n")
	require.NoError(t, err)
	assert.DeepEqual(t, b, b2)

	_, err = ParseJWTSecret("abcd")
	require.ErrorIs(t, err, ErrInvalidJWTSecret)
	_, err = ParseJWTSecret("zz")
	require.ErrorIs(t, err, ErrInvalidJWTSecret)
}
