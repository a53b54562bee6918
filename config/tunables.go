// Package config loads the storage engine's construction-time tunables
// from the environment, the way cmd/petrocore bootstraps a pool without
// the core packages themselves depending on an env library.
package config

import "github.com/kelseyhightower/envconfig"

// Tunables mirrors the constructor parameters spec §6 leaves to the
// caller: buffer pool size and LRU-K, plus the extendible hash table's
// three depth/size knobs.
type Tunables struct {
	PoolSize          int `split_words:"true" default:"64"`
	LRUK              int `envconfig:"LRU_K" default:"5"`
	HeaderMaxDepth    int `split_words:"true" default:"9"`
	DirectoryMaxDepth int `split_words:"true" default:"9"`
	BucketMaxSize     int `split_words:"true" default:"64"`
}

// Load reads Tunables from PETROCORE_* environment variables, applying
// the defaults above for anything unset.
func Load() (Tunables, error) {
	var t Tunables
	if err := envconfig.Process("petrocore", &t); err != nil {
		return Tunables{}, err
	}
	return t, nil
}

// MustLoad is Load, panicking on a malformed environment. Intended for
// process entry points (spec §6's "host program" caller), not library
// code.
func MustLoad() Tunables {
	var t Tunables
	envconfig.MustProcess("petrocore", &t)
	return t
}
