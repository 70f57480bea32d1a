package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
)

// maxEnvelopesPerKey bounds how many envelopes for distinct block roots may wait under
// one (slot, builder) key.
const maxEnvelopesPerKey = 4

var bufferedEnvelopes = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "payload_envelope_buffer_size",
	Help: "The number of (slot, builder) keys with envelopes waiting for their block.",
})

// PayloadEnvelopeBuffer holds payload envelopes that arrived before the beacon block
// committing to their bid. Entries expire after PayloadEnvelopeBufferSlots slots.
type PayloadEnvelopeBuffer struct {
	lock      sync.Mutex
	envelopes *cache.Cache
}

// NewPayloadEnvelopeBuffer creates a buffer whose TTL follows the beacon config.
func NewPayloadEnvelopeBuffer() *PayloadEnvelopeBuffer {
	cfg := params.BeaconConfig()
	ttl := time.Duration(uint64(cfg.PayloadEnvelopeBufferSlots)*cfg.SecondsPerSlot) * time.Second
	return NewPayloadEnvelopeBufferWithTTL(ttl)
}

// NewPayloadEnvelopeBufferWithTTL creates a buffer with an explicit TTL.
func NewPayloadEnvelopeBufferWithTTL(ttl time.Duration) *PayloadEnvelopeBuffer {
	return &PayloadEnvelopeBuffer{envelopes: cache.New(ttl, ttl)}
}

func envelopeKey(slot primitives.Slot, builder primitives.BuilderIndex) string {
	return fmt.Sprintf("%d/%d", slot, builder)
}

// Add buffers env. An envelope for a block root that is already buffered is ignored,
// and Add reports whether env was stored.
func (b *PayloadEnvelopeBuffer) Add(env *epbs.SignedExecutionPayloadEnvelope) (bool, error) {
	if env == nil || env.Message == nil {
		return false, ErrNilEnvelope
	}
	b.lock.Lock()
	defer b.lock.Unlock()
	defer func() { bufferedEnvelopes.Set(float64(b.envelopes.ItemCount())) }()

	msg := env.Message
	key := envelopeKey(msg.Slot, msg.BuilderIndex)
	v, expiry, ok := b.envelopes.GetWithExpiration(key)
	if !ok {
		b.envelopes.Set(key, []*epbs.SignedExecutionPayloadEnvelope{env}, cache.DefaultExpiration)
		return true, nil
	}
	pending, ok := v.([]*epbs.SignedExecutionPayloadEnvelope)
	if !ok {
		b.envelopes.Set(key, []*epbs.SignedExecutionPayloadEnvelope{env}, cache.DefaultExpiration)
		return true, nil
	}
	if len(pending) >= maxEnvelopesPerKey {
		return false, nil
	}
	for _, p := range pending {
		if p.Message.BeaconBlockRoot == msg.BeaconBlockRoot {
			return false, nil
		}
	}
	b.envelopes.Set(key, append(pending, env), remainingTTL(expiry))
	return true, nil
}

// Take removes and returns the envelope buffered for (slot, builder) that completes
// blockRoot.
func (b *PayloadEnvelopeBuffer) Take(slot primitives.Slot, builder primitives.BuilderIndex, blockRoot [32]byte) (*epbs.SignedExecutionPayloadEnvelope, bool) {
	b.lock.Lock()
	defer b.lock.Unlock()
	defer func() { bufferedEnvelopes.Set(float64(b.envelopes.ItemCount())) }()

	key := envelopeKey(slot, builder)
	v, expiry, ok := b.envelopes.GetWithExpiration(key)
	if !ok {
		return nil, false
	}
	pending, ok := v.([]*epbs.SignedExecutionPayloadEnvelope)
	if !ok {
		b.envelopes.Delete(key)
		return nil, false
	}
	for i, p := range pending {
		if p.Message.BeaconBlockRoot != blockRoot {
			continue
		}
		rest := append(pending[:i:i], pending[i+1:]...)
		if len(rest) == 0 {
			b.envelopes.Delete(key)
		} else {
			b.envelopes.Set(key, rest, remainingTTL(expiry))
		}
		return p, true
	}
	return nil, false
}

// remainingTTL keeps an entry's original deadline when it is rewritten.
func remainingTTL(expiry time.Time) time.Duration {
	if expiry.IsZero() {
		return cache.NoExpiration
	}
	if d := time.Until(expiry); d > 0 {
		return d
	}
	return cache.DefaultExpiration
}

// Len returns the number of unexpired (slot, builder) keys.
func (b *PayloadEnvelopeBuffer) Len() int {
	return b.envelopes.ItemCount()
}
