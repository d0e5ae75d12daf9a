// Package router decides between the rule-based offline path and LLM
// decomposition, and drives the Template Expander when the rule-based path
// is taken.
package router

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jeremyhahn/neurlang/internal/adapter/intent"
	"github.com/jeremyhahn/neurlang/internal/adapter/protocolspec"
	"github.com/jeremyhahn/neurlang/internal/adapter/template"
	"github.com/jeremyhahn/neurlang/internal/core/domain"
	"github.com/jeremyhahn/neurlang/internal/util/pattern"
)

// Config mirrors the Rust RouterConfig.
type Config struct {
	RuleBasedThreshold float64
	SpecsDir           string
	TemplatesDir       string
	ForceOffline       bool
	ForceLLM           bool
	Hostname           string
	// ProtocolFilter restricts AvailableProtocols/offline-mode discovery
	// to protocol names matching this glob ("*" wildcard), e.g. "http*"
	// to hide experimental specs from the offline fallback list. Empty
	// means no filtering.
	ProtocolFilter string
}

func DefaultConfig() Config {
	return Config{
		RuleBasedThreshold: 0.6,
		SpecsDir:           "specs/protocols",
		TemplatesDir:       "templates",
		Hostname:           "localhost",
		ProtocolFilter:     "*",
	}
}

// Router decides between the rule-based and LLM-decomposition generation
// paths and drives whichever one it picks.
type Router struct {
	cfg      Config
	intent   *intent.Parser
	expander *template.Expander
}

func New(cfg Config) *Router {
	return &Router{
		cfg: cfg,
		intent: intent.New(intent.Config{OfflineThreshold: cfg.RuleBasedThreshold}),
		expander: template.New(template.Config{
			Hostname:         cfg.Hostname,
			InputBufferSize:  4096,
			OutputBufferSize: 4096,
			MaxConnections:   100,
		}),
	}
}

func WithDefaults() *Router { return New(DefaultConfig()) }

// Route decides which generation path to take for prompt, without
// performing the generation itself.
func (r *Router) Route(prompt string) domain.Route {
	if r.cfg.ForceLLM {
		parsed := r.intent.Parse(prompt)
		return domain.Route{Kind: domain.RouteLlmDecompose, Reason: "Forced LLM mode", Intent: parsed}
	}

	parsed := r.intent.Parse(prompt)

	if r.cfg.ForceOffline {
		if parsed.Protocol != "" && r.ProtocolExists(parsed.Protocol) {
			return domain.Route{Kind: domain.RouteRuleBased, Protocol: parsed.Protocol, Template: parsed.Template, Intent: parsed}
		}
		return domain.Route{
			Kind: domain.RouteLlmDecompose,
			Reason: fmt.Sprintf(
				"Offline mode requested but no matching protocol spec found. Available: %v",
				r.AvailableProtocols()),
			Intent: parsed,
		}
	}

	if parsed.Protocol != "" && r.ProtocolExists(parsed.Protocol) && parsed.Confidence >= r.cfg.RuleBasedThreshold {
		return domain.Route{Kind: domain.RouteRuleBased, Protocol: parsed.Protocol, Template: parsed.Template, Intent: parsed}
	}

	var reason string
	switch {
	case parsed.Protocol == "":
		reason = "No protocol detected in request"
	case parsed.Confidence < r.cfg.RuleBasedThreshold:
		reason = fmt.Sprintf("Confidence too low (%.2f < %.2f)", parsed.Confidence, r.cfg.RuleBasedThreshold)
	default:
		reason = fmt.Sprintf("Protocol spec not found: %q", parsed.Protocol)
	}
	return domain.Route{Kind: domain.RouteLlmDecompose, Reason: reason, Intent: parsed}
}

// Generate routes prompt and, for the rule-based path, expands the matching
// protocol spec into a SlotSpec. The LLM path returns a minimal SlotSpec
// carrying enough metadata for an external LLM-decomposition step to finish;
// that step itself lives outside this module.
func (r *Router) Generate(prompt string) (domain.GenerationResult, error) {
	routeStart := time.Now()
	decision := r.Route(prompt)
	routeTimeMs := float64(time.Since(routeStart).Microseconds()) / 1000.0

	expandStart := time.Now()
	var spec domain.SlotSpec

	switch decision.Kind {
	case domain.RouteRuleBased:
		protoSpec, err := r.LoadProtocol(decision.Protocol)
		if err != nil {
			return domain.GenerationResult{}, err
		}
		spec, err = r.expander.Expand(&protoSpec)
		if err != nil {
			return domain.GenerationResult{}, fmt.Errorf("router: expand %s: %w", decision.Protocol, err)
		}

	case domain.RouteLlmDecompose:
		spec = domain.NewSlotSpec("llm_generated", "Generated from: "+prompt)
		spec.Metadata["llm_reason"] = decision.Reason
		spec.Metadata["prompt"] = prompt
		if decision.Intent.Protocol != "" {
			spec.Protocol = decision.Intent.Protocol
		}
		spec.Template = decision.Intent.Template

	case domain.RouteDirect:
		spec = domain.NewSlotSpec("simple", decision.Description)
		spec.Metadata["direct"] = "true"
	}

	expandTimeMs := float64(time.Since(expandStart).Microseconds()) / 1000.0

	return domain.GenerationResult{
		Spec: spec, Route: decision,
		RouteTimeMs: routeTimeMs, ExpandTimeMs: expandTimeMs,
	}, nil
}

// ProtocolExists reports whether a protocol spec file exists for protocol.
func (r *Router) ProtocolExists(protocol string) bool {
	_, err := os.Stat(r.specPath(protocol))
	return err == nil
}

// LoadProtocol parses the protocol spec file for protocol.
func (r *Router) LoadProtocol(protocol string) (domain.ProtocolSpec, error) {
	path := r.specPath(protocol)
	if _, err := os.Stat(path); err != nil {
		return domain.ProtocolSpec{}, domain.NewRouterError("protocol spec not found", protocol)
	}
	spec, err := protocolspec.ParseFile(path)
	if err != nil {
		return domain.ProtocolSpec{}, err
	}
	return spec, protocolspec.Validate(&spec)
}

func (r *Router) specPath(protocol string) string {
	return filepath.Join(r.cfg.SpecsDir, protocol+".json")
}

// AvailableProtocols lists every protocol name with a.json spec file in
// the configured specs directory.
func (r *Router) AvailableProtocols() []string {
	entries, err := os.ReadDir(r.cfg.SpecsDir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		name := e.Name()[:len(e.Name())-len(".json")]
		if r.cfg.ProtocolFilter != "" && !pattern.MatchesGlob(name, r.cfg.ProtocolFilter) {
			continue
		}
		names = append(names, name)
	}
	return names
}
