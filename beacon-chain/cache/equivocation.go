package cache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
)

var (
	builderEquivocations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "builder_equivocation_total",
		Help: "The number of conflicting builder bids detected.",
	})
	validatorEquivocations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payload_attestation_equivocation_total",
		Help: "The number of conflicting payload attestations detected.",
	})
	equivocationCachePruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "equivocation_cache_pruned_total",
		Help: "The number of equivocation cache entries dropped at finalization.",
	})
)

// principalSlot identifies one signer's message for one slot. The index is either a
// builder index or a validator index depending on the cache.
type principalSlot struct {
	index uint64
	slot  primitives.Slot
}

// conflict is the evidence kept for an equivocating principal.
type conflict struct {
	first  [32]byte
	second [32]byte
}

// observationCache maps (principal, slot) to the first root that principal signed.
// Conflicting roots are kept in a separate bounded table so that pruning the
// observations at finalization does not drop slashing evidence.
type observationCache struct {
	lock     sync.Mutex
	seen     *lru.Cache
	evidence *lru.Cache
}

func newObservationCache(size int) (*observationCache, error) {
	if size <= 0 {
		return nil, errors.Errorf("invalid cache size %d", size)
	}
	seen, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	evidence, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &observationCache{seen: seen, evidence: evidence}, nil
}

// observe records root for k. When a different root was already recorded it returns
// that first root and true; the first root is never replaced.
func (c *observationCache) observe(k principalSlot, root [32]byte) ([32]byte, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	v, ok := c.seen.Get(k)
	if !ok {
		c.seen.Add(k, root)
		return [32]byte{}, false
	}
	first, ok := v.([32]byte)
	if !ok || first == root {
		return first, false
	}
	if !c.evidence.Contains(k) {
		c.evidence.Add(k, conflict{first: first, second: root})
	}
	return first, true
}

func (c *observationCache) get(k principalSlot) ([32]byte, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	v, ok := c.seen.Get(k)
	if !ok {
		return [32]byte{}, false
	}
	root, ok := v.([32]byte)
	return root, ok
}

func (c *observationCache) conflictFor(k principalSlot) (conflict, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	v, ok := c.evidence.Get(k)
	if !ok {
		return conflict{}, false
	}
	e, ok := v.(conflict)
	return e, ok
}

// prune drops every observation at or below the finalized slot. Evidence is untouched.
func (c *observationCache) prune(finalized primitives.Slot) int {
	c.lock.Lock()
	defer c.lock.Unlock()
	removed := 0
	for _, key := range c.seen.Keys() {
		k, ok := key.(principalSlot)
		if !ok || k.slot > finalized {
			continue
		}
		c.seen.Remove(key)
		removed++
	}
	equivocationCachePruned.Add(float64(removed))
	return removed
}

func (c *observationCache) len() int {
	return c.seen.Len()
}

// BuilderEquivocationCache tracks the bid root each builder committed to per slot.
type BuilderEquivocationCache struct {
	observations *observationCache
}

// NewBuilderEquivocationCache returns a bid cache bounded by the configured
// EquivocationCacheSize.
func NewBuilderEquivocationCache() (*BuilderEquivocationCache, error) {
	c, err := newObservationCache(params.BeaconConfig().EquivocationCacheSize)
	if err != nil {
		return nil, err
	}
	return &BuilderEquivocationCache{observations: c}, nil
}

// Observe records that builder signed the bid with bidRoot for slot. Seeing the same
// root again is not an error. A second, different root yields a *BuilderEquivocationError
// and leaves the first bid in place. Self-built bids are never tracked.
func (c *BuilderEquivocationCache) Observe(builder primitives.BuilderIndex, slot primitives.Slot, bidRoot [32]byte) error {
	if builder == params.BeaconConfig().BuilderIndexSelfBuild {
		return nil
	}
	first, equivocated := c.observations.observe(principalSlot{index: uint64(builder), slot: slot}, bidRoot)
	if !equivocated {
		return nil
	}
	builderEquivocations.Inc()
	return &BuilderEquivocationError{Builder: builder, Slot: slot, First: first, Second: bidRoot}
}

// Seen returns the bid root recorded for (builder, slot).
func (c *BuilderEquivocationCache) Seen(builder primitives.BuilderIndex, slot primitives.Slot) ([32]byte, bool) {
	return c.observations.get(principalSlot{index: uint64(builder), slot: slot})
}

// Evidence returns the first conflict recorded for (builder, slot), if any.
func (c *BuilderEquivocationCache) Evidence(builder primitives.BuilderIndex, slot primitives.Slot) (*BuilderEquivocationError, bool) {
	e, ok := c.observations.conflictFor(principalSlot{index: uint64(builder), slot: slot})
	if !ok {
		return nil, false
	}
	return &BuilderEquivocationError{Builder: builder, Slot: slot, First: e.first, Second: e.second}, true
}

// Prune drops observations for slots at or below finalized and returns how many were removed.
func (c *BuilderEquivocationCache) Prune(finalized primitives.Slot) int {
	return c.observations.prune(finalized)
}

// Len returns the number of live observations.
func (c *BuilderEquivocationCache) Len() int {
	return c.observations.len()
}

// PayloadAttestationCache tracks the payload attestation data root each PTC member
// signed per slot.
type PayloadAttestationCache struct {
	observations *observationCache
}

// NewPayloadAttestationCache returns an attestation cache bounded by the configured
// EquivocationCacheSize.
func NewPayloadAttestationCache() (*PayloadAttestationCache, error) {
	c, err := newObservationCache(params.BeaconConfig().EquivocationCacheSize)
	if err != nil {
		return nil, err
	}
	return &PayloadAttestationCache{observations: c}, nil
}

// Observe records that validator signed data with dataRoot for slot. A conflicting
// root yields a *ValidatorEquivocationError; the validator stays marked as
// equivocating for the slot afterwards.
func (c *PayloadAttestationCache) Observe(validator primitives.ValidatorIndex, slot primitives.Slot, dataRoot [32]byte) error {
	first, equivocated := c.observations.observe(principalSlot{index: uint64(validator), slot: slot}, dataRoot)
	if !equivocated {
		return nil
	}
	validatorEquivocations.Inc()
	return &ValidatorEquivocationError{Validator: validator, Slot: slot, First: first, Second: dataRoot}
}

// Seen returns the data root recorded for (validator, slot).
func (c *PayloadAttestationCache) Seen(validator primitives.ValidatorIndex, slot primitives.Slot) ([32]byte, bool) {
	return c.observations.get(principalSlot{index: uint64(validator), slot: slot})
}

// IsEquivocating reports whether validator signed conflicting data for slot.
func (c *PayloadAttestationCache) IsEquivocating(validator primitives.ValidatorIndex, slot primitives.Slot) bool {
	_, ok := c.observations.conflictFor(principalSlot{index: uint64(validator), slot: slot})
	return ok
}

// Evidence returns the first conflict recorded for (validator, slot), if any.
func (c *PayloadAttestationCache) Evidence(validator primitives.ValidatorIndex, slot primitives.Slot) (*ValidatorEquivocationError, bool) {
	e, ok := c.observations.conflictFor(principalSlot{index: uint64(validator), slot: slot})
	if !ok {
		return nil, false
	}
	return &ValidatorEquivocationError{Validator: validator, Slot: slot, First: e.first, Second: e.second}, true
}

// Prune drops observations for slots at or below finalized and returns how many were removed.
func (c *PayloadAttestationCache) Prune(finalized primitives.Slot) int {
	return c.observations.prune(finalized)
}

// Len returns the number of live observations.
func (c *PayloadAttestationCache) Len() int {
	return c.observations.len()
}
