package config

import "time"

// Config is the root configuration for the neurlang pipeline: the
// generation router, the slot cache, the training-data generator and the
// ambient logging stack. One nested struct per concern, unmarshalled in
// one pass by viper.
type Config struct {
	Router   RouterConfig   `mapstructure:"router"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Datagen  DatagenConfig  `mapstructure:"datagen"`
	Compiler CompilerConfig `mapstructure:"compiler"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// RouterConfig mirrors router.Config.
type RouterConfig struct {
	RuleBasedThreshold float64 `mapstructure:"rule_based_threshold"`
	SpecsDir           string  `mapstructure:"specs_dir"`
	TemplatesDir       string  `mapstructure:"templates_dir"`
	ForceOffline       bool    `mapstructure:"force_offline"`
	ForceLLM           bool    `mapstructure:"force_llm"`
	Hostname           string  `mapstructure:"hostname"`
	ProtocolFilter     string  `mapstructure:"protocol_filter"`
}

// CacheConfig mirrors cache.Config.
type CacheConfig struct {
	MaxEntries     int           `mapstructure:"max_entries"`
	MaxMemoryBytes int64         `mapstructure:"max_memory_bytes"`
	TTL            time.Duration `mapstructure:"ttl"`
	Persist        bool          `mapstructure:"persist"`
	PersistPath    string        `mapstructure:"persist_path"`
}

// DatagenConfig mirrors datagen.Config.
type DatagenConfig struct {
	Seed  uint64 `mapstructure:"seed"`
	Level int    `mapstructure:"level"`
	Shape string `mapstructure:"shape"` // "legacy" | "parallel"
	Count int    `mapstructure:"count"`
}

// CompilerConfig holds the stdlib_dir setting. Nothing reads StdlibDir:
// `nl stdlib build` compiles the sources embedded in internal/stdlib.
type CompilerConfig struct {
	StdlibDir string `mapstructure:"stdlib_dir"`
}

// LoggingConfig mirrors logger.Config minus the fields inferred from the
// environment at startup (TTY detection).
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Theme      string `mapstructure:"theme"`
	LogDir     string `mapstructure:"log_dir"`
	FileOutput bool   `mapstructure:"file_output"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}
