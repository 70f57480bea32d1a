// Package db defines the ability to create a new database
// for the beacon node.
package db

import (
	"context"

	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/db/kv"
)

// NewDB initializes a new DB.
func NewDB(ctx context.Context, dirPath string) (Database, error) {
	return kv.NewKVStore(ctx, dirPath)
}
