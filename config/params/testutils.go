package params

import "testing"

// SetupTestConfigCleanup preserves configurations allowing to modify them within tests without any
// restrictions, everything is restored after the test.
func SetupTestConfigCleanup(t testing.TB) {
	prevConfig := BeaconConfig().Copy()
	t.Cleanup(func() {
		OverrideBeaconConfig(prevConfig)
	})
}

// UseMinimalConfig switches the active config to the minimal preset for the rest of the test.
func UseMinimalConfig(t testing.TB) {
	SetupTestConfigCleanup(t)
	OverrideBeaconConfig(MinimalSpecConfig())
}
