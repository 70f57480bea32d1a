package blst

import (
	"fmt"
	"runtime"

	lru "github.com/hashicorp/golang-lru"
	blst "github.com/supranational/blst/bindings/go"
)

// Internal types for blst.
type blstPublicKey = blst.P1Affine
type blstSignature = blst.P2Affine
type blstAggregateSignature = blst.P2Aggregate
type blstAggregatePublicKey = blst.P1Aggregate

// dst is the proof-of-possession ciphersuite used by the beacon chain.
var dst = []byte("BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_POP_")

const maxKeys = 1_000_000

var pubkeyCache *lru.Cache

func init() {
	// Reserve 1 core for general application work
	maxProcs := runtime.GOMAXPROCS(0) - 1
	if maxProcs <= 0 {
		maxProcs = 1
	}
	blst.SetMaxProcs(maxProcs)
	keysCache, err := lru.New(maxKeys)
	if err != nil {
		panic(fmt.Sprintf("Could not initiate public keys cache: %v", err))
	}
	pubkeyCache = keysCache
}
