package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/jeremyhahn/neurlang/internal/cli"
	"github.com/jeremyhahn/neurlang/internal/logger"
	"github.com/jeremyhahn/neurlang/internal/version"
	"github.com/jeremyhahn/neurlang/pkg/format"
	"github.com/jeremyhahn/neurlang/pkg/nerdstats"
)

func main() {
	startTime := time.Now()
	vlog := log.New(log.Writer(), "", 0)
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		version.PrintVersionInfo(true, vlog)
		os.Exit(0)
	}

	lcfg := buildLoggerConfig()
	logInstance, styledLogger, cleanup, err := logger.NewWithTheme(lcfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()
	slog.SetDefault(logInstance)

	runErr := cli.Execute(styledLogger, logInstance)
	reportProcessStats(styledLogger, startTime)

	if runErr != nil {
		os.Exit(1)
	}
}

func reportProcessStats(sl *logger.StyledLogger, startTime time.Time) {
	runtime.GC()
	stats := nerdstats.Snapshot(startTime)

	sl.Debug("process memory stats",
		"heap_alloc", format.Bytes(stats.HeapAlloc),
		"heap_sys", format.Bytes(stats.HeapSys),
		"heap_inuse", format.Bytes(stats.HeapInuse),
		"total_alloc", format.Bytes(stats.TotalAlloc),
		"memory_pressure", stats.GetMemoryPressure(),
	)

	sl.Debug("allocation stats",
		"total_mallocs", stats.Mallocs,
		"total_frees", stats.Frees,
		"net_objects", int64(stats.Mallocs)-int64(stats.Frees),
	)

	if stats.NumGC > 0 {
		sl.Debug("garbage collection stats",
			"num_gc_cycles", stats.NumGC,
			"last_gc", stats.LastGC.Format(time.RFC3339),
			"total_gc_time", format.Duration(stats.TotalGCTime),
			"gc_cpu_fraction", fmt.Sprintf("%.4f%%", stats.GCCPUFraction*100),
		)
	}

	sl.Debug("runtime stats",
		"uptime", format.Duration(stats.Uptime),
		"go_version", stats.GoVersion,
		"num_cpu", stats.NumCPU,
		"gomaxprocs", stats.GOMAXPROCS,
		"num_goroutines", stats.NumGoroutines,
		"goroutine_health", stats.GetGoroutineHealthStatus(),
	)
}

// buildLoggerConfig creates logger config from environment variables with
// defaults; nl's subcommand-level config (router/cache/datagen/compiler)
// loads separately through internal/config once a subcommand runs.
func buildLoggerConfig() *logger.Config {
	return &logger.Config{
		Level:      envOrDefault("NEURLANG_LOG_LEVEL", "info"),
		FileOutput: envBoolOrDefault("NEURLANG_FILE_OUTPUT", false),
		LogDir:     envOrDefault("NEURLANG_LOG_DIR", "./logs"),
		MaxSize:    envIntOrDefault("NEURLANG_MAX_SIZE", 100),
		MaxBackups: envIntOrDefault("NEURLANG_MAX_BACKUPS", 5),
		MaxAge:     envIntOrDefault("NEURLANG_MAX_AGE", 30),
		Theme:      envOrDefault("NEURLANG_THEME", "default"),
		PrettyLogs: true,
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBoolOrDefault(key string, fallback bool) bool {
	switch os.Getenv(key) {
	case "true", "1":
		return true
	case "false", "0":
		return false
	default:
		return fallback
	}
}

func envIntOrDefault(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return fallback
	}
	return n
}
