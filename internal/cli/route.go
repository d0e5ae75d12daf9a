package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/neurlang/internal/adapter/router"
)

func newRouteCmd(st *state) *cobra.Command {
	var forceOffline, forceLLM bool
	var full bool

	c := &cobra.Command{
		Use:   "route <prompt...>",
		Short: "decide between the rule-based and LLM-decomposition generation paths for a prompt",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args, " ")

			cfg := router.DefaultConfig()
			cfg.SpecsDir = st.cfg.Router.SpecsDir
			cfg.TemplatesDir = st.cfg.Router.TemplatesDir
			cfg.RuleBasedThreshold = st.cfg.Router.RuleBasedThreshold
			cfg.Hostname = st.cfg.Router.Hostname
			cfg.ProtocolFilter = st.cfg.Router.ProtocolFilter
			cfg.ForceOffline = forceOffline
			cfg.ForceLLM = forceLLM

			r := router.New(cfg)

			if !full {
				decision := r.Route(prompt)
				st.styledLogger.InfoRouteDecision("routed", decision.Kind.String())
				st.styledLogger.Info("decision", "protocol", decision.Protocol, "reason", decision.Reason, "confidence", decision.Intent.Confidence)
				return nil
			}

			result, err := r.Generate(prompt)
			if err != nil {
				return exitErr("generation failed: %v", err)
			}
			encoded, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding generation result: %w", err)
			}
			fmt.Println(string(encoded))
			return nil
		},
	}

	c.Flags().BoolVar(&forceOffline, "force-offline", false, "require the rule-based path, failing over to an explanatory LLM-decompose reason")
	c.Flags().BoolVar(&forceLLM, "force-llm", false, "always route to LLM decomposition")
	c.Flags().BoolVar(&full, "full", false, "run the full Generate path (spec expansion) instead of just Route")
	return c
}
