package db

import "github.com/prysmaticlabs/prysm-epbs/beacon-chain/db/iface"

// ReadOnlyDatabase exposes the read methods of the beacon node database.
type ReadOnlyDatabase = iface.ReadOnlyDatabase

// NoHeadAccessDatabase exposes the read and write methods of the database.
type NoHeadAccessDatabase = iface.NoHeadAccessDatabase

// HeadAccessDatabase exposes the head accessors on top of NoHeadAccessDatabase.
type HeadAccessDatabase = iface.HeadAccessDatabase

// Database defines the full beacon node database.
type Database = iface.Database
