package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig_RouterDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 0.6, cfg.Router.RuleBasedThreshold)
	assert.Equal(t, "specs/protocols", cfg.Router.SpecsDir)
}

func TestDefaultConfig_DatagenDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, uint64(1), cfg.Datagen.Seed)
	assert.Equal(t, "legacy", cfg.Datagen.Shape)
}

func TestDefaultConfig_CacheDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 10000, cfg.Cache.MaxEntries)
	assert.Equal(t, ".slot_cache", cfg.Cache.PersistPath)
}
