package helpers

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
)

const maxShuffledIndicesCacheSize = 64

var (
	shuffledIndicesCache     *lru.Cache
	shuffledIndicesCacheOnce sync.Once
)

type shuffleKey struct {
	seed  [32]byte
	count int
}

func shuffleCache() *lru.Cache {
	shuffledIndicesCacheOnce.Do(func() {
		c, err := lru.New(maxShuffledIndicesCacheSize)
		if err != nil {
			panic(err)
		}
		shuffledIndicesCache = c
	})
	return shuffledIndicesCache
}

// ClearCache clears the shuffled indices cache. Used in tests that swap configs.
func ClearCache() {
	shuffleCache().Purge()
}

func cachedShuffle(seed [32]byte, indices []primitives.ValidatorIndex) ([]primitives.ValidatorIndex, bool) {
	v, ok := shuffleCache().Get(shuffleKey{seed: seed, count: len(indices)})
	if !ok {
		return nil, false
	}
	shuffled, ok := v.([]primitives.ValidatorIndex)
	return shuffled, ok
}

func saveShuffle(seed [32]byte, count int, shuffled []primitives.ValidatorIndex) {
	shuffleCache().Add(shuffleKey{seed: seed, count: count}, shuffled)
}
