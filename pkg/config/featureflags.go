package config

import "sync"

// Package-level feature flags for experimental storage features.
//
// These are process-wide toggles (not part of Config/LoadFromEnv) used by
// pkg/storage to gate write-ahead logging during tests and gradual rollout.

var (
	featureFlagsMu sync.Mutex
	walEnabled     bool
)

// IsWALEnabled reports whether write-ahead logging is currently enabled.
func IsWALEnabled() bool {
	featureFlagsMu.Lock()
	defer featureFlagsMu.Unlock()
	return walEnabled
}

// EnableWAL turns write-ahead logging on.
func EnableWAL() {
	featureFlagsMu.Lock()
	defer featureFlagsMu.Unlock()
	walEnabled = true
}

// DisableWAL turns write-ahead logging off.
func DisableWAL() {
	featureFlagsMu.Lock()
	defer featureFlagsMu.Unlock()
	walEnabled = false
}

// ResetFeatureFlags restores all feature flags to their default (disabled) state.
func ResetFeatureFlags() {
	featureFlagsMu.Lock()
	defer featureFlagsMu.Unlock()
	walEnabled = false
}

// WithWALEnabled enables WAL and returns a cleanup function that disables it again.
func WithWALEnabled() func() {
	EnableWAL()
	return DisableWAL
}
