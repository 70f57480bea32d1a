package blst

import "crypto/rand"

var randReader = rand.Read
