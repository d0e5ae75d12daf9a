package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/neurlang/internal/compiler/testgen"
	"github.com/jeremyhahn/neurlang/internal/stdlib"
	"github.com/jeremyhahn/neurlang/theme"
)

func newStdlibCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stdlib",
		Short: "compile the bundled Neurlang-subset standard library",
	}
	cmd.AddCommand(newStdlibBuildCmd(st))
	return cmd
}

func newStdlibBuildCmd(st *state) *cobra.Command {
	var outDir string

	c := &cobra.Command{
		Use:   "build",
		Short: "compile every bundled stdlib function and report or write its assembly",
		RunE: func(cmd *cobra.Command, args []string) error {
			fns, err := stdlib.Build()
			if err != nil {
				return exitErr("stdlib build failed: %v", err)
			}

			appTheme := theme.GetTheme(st.cfg.Logging.Theme)

			for _, fn := range fns {
				label := theme.CategoryStyle(appTheme, fn.Compiled.Parsed.Metadata.Category)
				tests := testgen.GenerateFromDoc(fn.Compiled.Parsed.Name, fn.Compiled.Parsed.Metadata)
				st.styledLogger.Info("compiled", "function", fn.Compiled.Parsed.Name, "file", fn.File,
					"category", label, "tests", len(tests))

				if outDir == "" {
					continue
				}
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return fmt.Errorf("creating %s: %w", outDir, err)
				}
				path := filepath.Join(outDir, fn.Compiled.Parsed.Name+".asm")
				if err := os.WriteFile(path, []byte(fn.Compiled.Assembly), 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", path, err)
				}
			}

			st.styledLogger.Info("stdlib build complete", "functions", len(fns))
			return nil
		},
	}

	c.Flags().StringVarP(&outDir, "out", "o", "", "write one .asm file per compiled function to this directory")
	return c
}
