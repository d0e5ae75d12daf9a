// Package cli assembles the neurlang command-line tool (nl) from the
// pipeline's adapters: protocol-spec validation and expansion, stdlib
// builds, prompt routing, and training-data generation, each as its own
// cobra subcommand.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/neurlang/internal/config"
	"github.com/jeremyhahn/neurlang/internal/logger"
	"github.com/jeremyhahn/neurlang/pkg/profiler"
)

// state carries the flags and collaborators shared by every subcommand.
type state struct {
	cfg          *config.Config
	styledLogger *logger.StyledLogger
	pprof        bool
}

// Execute builds the root command and runs it against os.Args.
func Execute(styledLogger *logger.StyledLogger, slogger *slog.Logger) error {
	st := &state{styledLogger: styledLogger}

	root := &cobra.Command{
		Use:           "nl",
		Short:         "neurlang: slot-based code-generation and training-data pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(nil)
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			st.cfg = cfg

			if st.pprof {
				profiler.InitialiseProfiler()
				st.styledLogger.Info("pprof profiler enabled", "address", "localhost:19841")
			}
			return nil
		},
	}

	root.PersistentFlags().BoolVar(&st.pprof, "pprof", false, "start an in-process pprof HTTP server")

	root.AddCommand(
		newSpecCmd(st),
		newStdlibCmd(st),
		newRouteCmd(st),
		newDatagenCmd(st),
	)

	if err := root.Execute(); err != nil {
		slogger.Error("command failed", "error", err)
		return err
	}
	return nil
}

// exitErr writes a terse message to stderr and returns an error cobra will
// surface as a nonzero exit code, matching cobra's SilenceUsage/SilenceErrors
// configuration above (the root command prints its own formatted errors).
func exitErr(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, msg)
	return fmt.Errorf("%s", msg)
}
