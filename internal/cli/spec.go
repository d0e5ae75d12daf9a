package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/neurlang/internal/adapter/protocolspec"
	"github.com/jeremyhahn/neurlang/internal/adapter/template"
	"github.com/jeremyhahn/neurlang/internal/adapter/validator"
)

func newSpecCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spec",
		Short: "inspect and expand protocol specs",
	}
	cmd.AddCommand(newSpecValidateCmd(st), newSpecExpandCmd(st))
	return cmd
}

func newSpecValidateCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <spec-file>",
		Short: "parse a protocol spec and run the structural + heuristic validators",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := protocolspec.ParseFile(args[0])
			if err != nil {
				return exitErr("parse error: %v", err)
			}
			if err := protocolspec.Validate(&spec); err != nil {
				return exitErr("structural validation failed: %v", err)
			}

			result := validator.Validate(&spec)
			st.styledLogger.Info(result.Summary())
			for _, e := range result.Errors {
				st.styledLogger.Warn("validation error", "detail", e)
			}
			for _, w := range result.Warnings {
				st.styledLogger.Warn("validation warning", "detail", w)
			}
			if !result.Valid() {
				return exitErr("%s has %d validation error(s)", spec.Name, len(result.Errors))
			}
			st.styledLogger.Info("spec is valid", "protocol", spec.Name)
			return nil
		},
	}
}

func newSpecExpandCmd(st *state) *cobra.Command {
	var templatesDir string
	var hostname string
	var out string

	c := &cobra.Command{
		Use:   "expand <spec-file>",
		Short: "expand a protocol spec into a SlotSpec skeleton",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := protocolspec.ParseFile(args[0])
			if err != nil {
				return exitErr("parse error: %v", err)
			}
			if err := protocolspec.Validate(&spec); err != nil {
				return exitErr("structural validation failed: %v", err)
			}

			cfg := template.DefaultConfig()
			cfg.Hostname = hostname
			slotSpec, err := template.New(cfg).Expand(&spec)
			if err != nil {
				return exitErr("expand failed: %v", err)
			}

			encoded, err := json.MarshalIndent(slotSpec, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding slot spec: %w", err)
			}

			if out == "" {
				fmt.Println(string(encoded))
				return nil
			}
			if err := os.WriteFile(out, encoded, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}
			st.styledLogger.Info("slot spec written", "path", out, "slots", len(slotSpec.Slots))
			return nil
		},
	}

	c.Flags().StringVar(&templatesDir, "templates", "", "template directory (informational; expansion is built-in)")
	c.Flags().StringVar(&hostname, "hostname", "localhost", "hostname set in the expander config (the expanded SlotSpec does not include it)")
	c.Flags().StringVarP(&out, "output", "o", "", "write the SlotSpec JSON here instead of stdout")
	return c
}
