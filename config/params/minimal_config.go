package params

// MinimalSpecConfig retrieves the minimal preset, used by devnets and tests.
func MinimalSpecConfig() *BeaconChainConfig {
	minimalConfig := mainnetBeaconConfig.Copy()
	// Misc
	minimalConfig.TargetCommitteeSize = 4
	minimalConfig.MaxCommitteesPerSlot = 4
	minimalConfig.ShuffleRoundCount = 10

	// Time parameters
	minimalConfig.SecondsPerSlot = 6
	minimalConfig.SlotsPerEpoch = 8
	minimalConfig.SlotsPerHistoricalRoot = 64
	minimalConfig.EpochsPerHistoricalVector = 64

	// ePBS
	minimalConfig.PTCSize = 2
	minimalConfig.MaxBuilderWithdrawalsPerPayload = 4
	minimalConfig.EquivocationCacheSize = 1 << 8
	minimalConfig.EquivocationEvidenceSize = 1 << 6
	minimalConfig.HotStateCacheSize = 16

	minimalConfig.PresetBase = "minimal"
	minimalConfig.ConfigName = "minimal"
	return minimalConfig
}
