package blockchain

import (
	"fmt"
	"time"

	"github.com/prysmaticlabs/prysm-epbs/consensus-types/blocks"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/encoding/bytesutil"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "blockchain")

// logBlockSyncStatus logs the import of a block and how long it took.
func logBlockSyncStatus(b *blocks.BeaconBlock, root [32]byte, finalizedEpoch primitives.Epoch, start time.Time) {
	bid := b.Bid()
	log.WithFields(logrus.Fields{
		"slot":           b.Slot,
		"root":           fmt.Sprintf("%#x", bytesutil.Trunc(root[:])),
		"parentRoot":     fmt.Sprintf("%#x", bytesutil.Trunc(b.ParentRoot[:])),
		"builder":        bid.BuilderIndex,
		"value":          bid.Value,
		"finalizedEpoch": finalizedEpoch,
		"sinceReceived":  time.Since(start),
	}).Info("Synced new block")
}

// logPayloadRevealed logs the import of a revealed payload.
func logPayloadRevealed(env *epbs.ExecutionPayloadEnvelope, optimistic bool, start time.Time) {
	log.WithFields(logrus.Fields{
		"slot":          env.Slot,
		"root":          fmt.Sprintf("%#x", bytesutil.Trunc(env.BeaconBlockRoot[:])),
		"blockHash":     fmt.Sprintf("%#x", bytesutil.Trunc(env.Payload.BlockHash[:])),
		"builder":       env.BuilderIndex,
		"withdrawals":   len(env.Payload.Withdrawals),
		"optimistic":    optimistic,
		"sinceReceived": time.Since(start),
	}).Info("Synced new payload")
}
