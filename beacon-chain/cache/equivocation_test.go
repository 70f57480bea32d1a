package cache

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/testing/assert"
	"github.com/prysmaticlabs/prysm-epbs/testing/require"
)

func TestBuilderEquivocationCache_Observe(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	c, err := NewBuilderEquivocationCache()
	require.NoError(t, err)

	first := [32]byte{'a'}
	second := [32]byte{'b'}
	require.NoError(t, c.Observe(1, 10, first))
	require.NoError(t, c.Observe(1, 10, first), "Duplicate bid is not an equivocation")
	require.NoError(t, c.Observe(2, 10, second), "Different builder")
	require.NoError(t, c.Observe(1, 11, second), "Different slot")

	err = c.Observe(1, 10, second)
	require.ErrorIs(t, err, ErrBuilderEquivocation)
	var equivocation *BuilderEquivocationError
	require.Equal(t, true, errors.As(err, &equivocation))
	assert.Equal(t, primitives.BuilderIndex(1), equivocation.Builder)
	assert.Equal(t, primitives.Slot(10), equivocation.Slot)
	assert.Equal(t, first, equivocation.First)
	assert.Equal(t, second, equivocation.Second)

	// The accepted bid is never replaced.
	root, ok := c.Seen(1, 10)
	require.Equal(t, true, ok)
	assert.Equal(t, first, root)

	// A third root conflicts with the first again, evidence keeps the first pair.
	third := [32]byte{'c'}
	require.ErrorIs(t, c.Observe(1, 10, third), ErrBuilderEquivocation)
	evidence, ok := c.Evidence(1, 10)
	require.Equal(t, true, ok)
	assert.Equal(t, second, evidence.Second)
}

func TestBuilderEquivocationCache_SelfBuildIgnored(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	c, err := NewBuilderEquivocationCache()
	require.NoError(t, err)
	selfBuild := params.BeaconConfig().BuilderIndexSelfBuild
	require.NoError(t, c.Observe(selfBuild, 3, [32]byte{'a'}))
	require.NoError(t, c.Observe(selfBuild, 3, [32]byte{'b'}))
	assert.Equal(t, 0, c.Len())
}

func TestPayloadAttestationCache_Observe(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	c, err := NewPayloadAttestationCache()
	require.NoError(t, err)

	present := [32]byte{'p'}
	absent := [32]byte{'w'}
	require.NoError(t, c.Observe(7, 4, present))
	assert.Equal(t, false, c.IsEquivocating(7, 4))

	err = c.Observe(7, 4, absent)
	require.ErrorIs(t, err, ErrValidatorEquivocation)
	assert.ErrorContains(t, "validator 7 equivocated at slot 4", err)
	assert.Equal(t, true, c.IsEquivocating(7, 4))
	assert.Equal(t, false, c.IsEquivocating(7, 5))
	assert.Equal(t, false, c.IsEquivocating(8, 4))
}

func TestEquivocationCache_Prune(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	c, err := NewPayloadAttestationCache()
	require.NoError(t, err)

	for slot := primitives.Slot(1); slot <= 6; slot++ {
		require.NoError(t, c.Observe(1, slot, [32]byte{'a'}))
	}
	require.ErrorIs(t, c.Observe(1, 2, [32]byte{'b'}), ErrValidatorEquivocation)

	assert.Equal(t, 4, c.Prune(4))
	assert.Equal(t, 2, c.Len())
	_, ok := c.Seen(1, 4)
	assert.Equal(t, false, ok)
	_, ok = c.Seen(1, 5)
	assert.Equal(t, true, ok)

	// Evidence outlives the pruned observation.
	assert.Equal(t, true, c.IsEquivocating(1, 2))
	_, ok = c.Evidence(1, 2)
	assert.Equal(t, true, ok)

	// After pruning, a finalized slot starts from scratch.
	require.NoError(t, c.Observe(1, 4, [32]byte{'z'}))
}

func TestEquivocationCache_Bounded(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	cfg := params.BeaconConfig().Copy()
	cfg.EquivocationCacheSize = 4
	params.OverrideBeaconConfig(cfg)

	c, err := NewBuilderEquivocationCache()
	require.NoError(t, err)
	for i := primitives.BuilderIndex(0); i < 10; i++ {
		require.NoError(t, c.Observe(i, 1, [32]byte{byte(i)}))
	}
	assert.Equal(t, 4, c.Len())
	_, ok := c.Seen(0, 1)
	assert.Equal(t, false, ok, "Oldest entry should be evicted")
	_, ok = c.Seen(9, 1)
	assert.Equal(t, true, ok)
}

func TestEquivocationCache_InvalidSize(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	cfg := params.BeaconConfig().Copy()
	cfg.EquivocationCacheSize = 0
	params.OverrideBeaconConfig(cfg)

	_, err := NewBuilderEquivocationCache()
	require.ErrorContains(t, "invalid cache size", err)
}
