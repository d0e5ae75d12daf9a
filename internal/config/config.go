// Package config loads neurlang's configuration via viper (YAML file, env
// vars prefixed NEURLANG_, CLI-settable defaults) and watches the config
// file for changes via fsnotify.
package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/jeremyhahn/neurlang/pkg/container"
)

const DefaultFileWriteDelay = 150 * time.Millisecond

var (
	lastReload  time.Time
	reloadMutex sync.Mutex
)

// DefaultConfig returns a configuration with sensible defaults. Running
// inside a container disables file-based logging by default since most
// container runtimes already capture stdout/stderr.
func DefaultConfig() *Config {
	return &Config{
		Router: RouterConfig{
			RuleBasedThreshold: 0.6,
			SpecsDir:           "specs/protocols",
			TemplatesDir:       "templates",
			Hostname:           "localhost",
			ProtocolFilter:     "*",
		},
		Cache: CacheConfig{
			MaxEntries:     10000,
			MaxMemoryBytes: 100 * 1024 * 1024,
			PersistPath:    ".slot_cache",
		},
		Datagen: DatagenConfig{
			Seed:  1,
			Level: 1,
			Shape: "legacy",
			Count: 100,
		},
		Compiler: CompilerConfig{
			StdlibDir: "stdlib",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Theme:      "default",
			LogDir:     "./logs",
			FileOutput: !container.IsContainerised(),
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     30,
		},
	}
}

// Load reads ./neurlang.yaml (or $NEURLANG_CONFIG_FILE), overlays
// NEURLANG_-prefixed environment variables, and invokes onConfigChange
// whenever the file changes on disk (debounced).
func Load(onConfigChange func()) (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("neurlang")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetEnvPrefix("NEURLANG")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if configFile := os.Getenv("NEURLANG_CONFIG_FILE"); configFile != "" {
			viper.SetConfigFile(configFile)
			if err := viper.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
			}
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	viper.WatchConfig()

	if onConfigChange != nil {
		viper.OnConfigChange(func(e fsnotify.Event) {
			reloadMutex.Lock()
			defer reloadMutex.Unlock()

			now := time.Now()
			if now.Sub(lastReload) < 500*time.Millisecond {
				return
			}
			lastReload = now

			time.Sleep(DefaultFileWriteDelay)
			onConfigChange()
		})
	}
	return cfg, nil
}
