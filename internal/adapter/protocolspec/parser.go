// Package protocolspec loads a ProtocolSpec from JSON (always accepted) or
// YAML (optional, via gopkg.in/yaml.v3), and resolves each command
// pattern's captures.
package protocolspec

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jeremyhahn/neurlang/internal/core/domain"
)

// wireSpec mirrors the external JSON/YAML shape (snake_case, optional
// fields) before it is lowered into the internal domain.ProtocolSpec.
type wireSpec struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description" yaml:"description"`
	Version     string            `json:"version" yaml:"version"`
	Transport   string            `json:"transport" yaml:"transport"`
	Port        int               `json:"port" yaml:"port"`
	LineEnding  string            `json:"line_ending" yaml:"line_ending"`
	Greeting    string            `json:"greeting" yaml:"greeting"`
	States      []wireState       `json:"states" yaml:"states"`
	Commands    []wireCommand     `json:"commands" yaml:"commands"`
	Errors      map[string]string `json:"errors" yaml:"errors"`
	Tests       []wireTest        `json:"tests" yaml:"tests"`
}

type wireState struct {
	Name        string `json:"name" yaml:"name"`
	Initial     bool   `json:"initial" yaml:"initial"`
	Terminal    bool   `json:"terminal" yaml:"terminal"`
	Description string `json:"description" yaml:"description"`
}

type wireCommand struct {
	Name        string      `json:"name" yaml:"name"`
	Pattern     string      `json:"pattern" yaml:"pattern"`
	ValidStates []string    `json:"valid_states" yaml:"valid_states"`
	Handler     wireHandler `json:"handler" yaml:"handler"`
}

type wireHandler struct {
	Type        string       `json:"type" yaml:"type"`
	Response    string       `json:"response" yaml:"response"`
	Lines       []string     `json:"lines" yaml:"lines"`
	NextState   string       `json:"next_state" yaml:"next_state"`
	Validation  string       `json:"validation" yaml:"validation"`
	ResponseOK  string       `json:"response_ok" yaml:"response_ok"`
	ResponseErr string       `json:"response_err" yaml:"response_err"`
	Terminator  string       `json:"terminator" yaml:"terminator"`
	MaxSize     int          `json:"max_size" yaml:"max_size"`
	OnComplete  *wireHandler `json:"on_complete" yaml:"on_complete"`
	Custom      string       `json:"custom" yaml:"custom"`
}

type wireTest struct {
	Name  string         `json:"name" yaml:"name"`
	Steps []wireTestStep `json:"steps" yaml:"steps"`
}

type wireTestStep struct {
	Send           string `json:"send" yaml:"send"`
	Expect         string `json:"expect" yaml:"expect"`
	ExpectContains string `json:"expect_contains" yaml:"expect_contains"`
	TimeoutMs      int    `json:"timeout_ms" yaml:"timeout_ms"`
}

// ParseFile loads a ProtocolSpec from a file path, dispatching on extension:
//.json is always supported;.yaml/.yml uses gopkg.in/yaml.v3.
func ParseFile(path string) (domain.ProtocolSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.ProtocolSpec{}, fmt.Errorf("protocolspec: read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".json", "":
		return ParseJSON(data)
	default:
		return domain.ProtocolSpec{}, domain.NewProtocolError(
			fmt.Sprintf("unsupported protocol spec format %q", filepath.Ext(path)), path)
	}
}

// ParseJSON parses a protocol spec from JSON bytes.
func ParseJSON(data []byte) (domain.ProtocolSpec, error) {
	var w wireSpec
	if err := json.Unmarshal(data, &w); err != nil {
		return domain.ProtocolSpec{}, fmt.Errorf("protocolspec: invalid json: %w", err)
	}
	return lower(w)
}

// ParseYAML parses a protocol spec from YAML bytes, the optional input
// format alongside JSON. It returns a clear error when the document cannot
// be decoded rather than silently falling back to JSON.
func ParseYAML(data []byte) (domain.ProtocolSpec, error) {
	var w wireSpec
	if err := yaml.Unmarshal(data, &w); err != nil {
		return domain.ProtocolSpec{}, fmt.Errorf("protocolspec: invalid yaml: %w", err)
	}
	return lower(w)
}

func lower(w wireSpec) (domain.ProtocolSpec, error) {
	spec := domain.ProtocolSpec{
		Name:        w.Name,
		Description: w.Description,
		Version:     w.Version,
		Transport:   domain.Transport(strings.ToLower(w.Transport)),
		Port:        w.Port,
		LineEnding:  w.LineEnding,
		Greeting:    w.Greeting,
		Errors:      w.Errors,
	}
	if spec.Version == "" {
		spec.Version = "1.0"
	}
	if spec.Transport == "" {
		spec.Transport = domain.TransportTCP
	}

	for _, s := range w.States {
		spec.States = append(spec.States, domain.State{
			Name: s.Name, Initial: s.Initial, Terminal: s.Terminal, Description: s.Description,
		})
	}

	for _, c := range w.Commands {
		handler, err := lowerHandler(c.Handler)
		if err != nil {
			return domain.ProtocolSpec{}, fmt.Errorf("command %q: %w", c.Name, err)
		}
		if _, err := ResolveCaptures(c.Pattern); err != nil {
			return domain.ProtocolSpec{}, fmt.Errorf("command %q pattern: %w", c.Name, err)
		}
		spec.Commands = append(spec.Commands, domain.Command{
			Name: c.Name, Pattern: c.Pattern, ValidStates: c.ValidStates, Handler: handler,
		})
	}

	for _, t := range w.Tests {
		var steps []domain.TestStep
		for _, s := range t.Steps {
			steps = append(steps, domain.TestStep{
				Send: s.Send, Expect: s.Expect, ExpectContains: s.ExpectContains, TimeoutMs: s.TimeoutMs,
			})
		}
		spec.Tests = append(spec.Tests, domain.TestScenario{Name: t.Name, Steps: steps})
	}

	return spec, nil
}

func lowerHandler(w wireHandler) (domain.CommandHandler, error) {
	h := domain.CommandHandler{
		Type:        domain.HandlerType(w.Type),
		Response:    w.Response,
		Lines:       w.Lines,
		NextState:   w.NextState,
		Validation:  w.Validation,
		ResponseOK:  w.ResponseOK,
		ResponseErr: w.ResponseErr,
		MaxSize:     w.MaxSize,
		Custom:      w.Custom,
	}
	if w.Terminator != "" {
		h.Terminator = w.Terminator[0]
	}
	if w.OnComplete != nil {
		sub, err := lowerHandler(*w.OnComplete)
		if err != nil {
			return h, err
		}
		h.OnComplete = &sub
	}
	switch h.Type {
	case domain.HandlerSimpleResponse, domain.HandlerMultiLineResponse, domain.HandlerValidatedResponse,
		domain.HandlerMultilineReader, domain.HandlerCloseConnection, domain.HandlerCustom:
	default:
		return h, fmt.Errorf("unknown handler type %q", w.Type)
	}
	return h, nil
}

// Capture is a resolved {name} or {name:spec} placeholder within a command
// pattern.
type Capture struct {
	Name string
	Type domain.CaptureType
	Char rune // only set when Type == domain.CaptureUntilChar
}

// ResolveCaptures walks a pattern and extracts its named captures in order,
// rejecting nested or unclosed braces.
func ResolveCaptures(pattern string) ([]Capture, error) {
	var captures []Capture
	inBrace := false
	var current strings.Builder

	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch c {
		case '{':
			if inBrace {
				return nil, domain.NewProtocolError("nested brace in pattern", pattern)
			}
			inBrace = true
			current.Reset()
		case '}':
			if !inBrace {
				return nil, domain.NewProtocolError("unmatched closing brace in pattern", pattern)
			}
			inBrace = false
			name, spec := splitNameSpec(current.String())
			cap, err := parseCaptureSpec(name, spec)
			if err != nil {
				return nil, err
			}
			captures = append(captures, cap)
		default:
			if inBrace {
				current.WriteByte(c)
			}
		}
	}
	if inBrace {
		return nil, domain.NewProtocolError("unclosed brace in pattern", pattern)
	}
	return captures, nil
}

func splitNameSpec(body string) (name, spec string) {
	idx := strings.IndexByte(body, ':')
	if idx < 0 {
		return body, "word"
	}
	return body[:idx], body[idx+1:]
}

func parseCaptureSpec(name, spec string) (Capture, error) {
	spec = strings.TrimSpace(spec)
	switch {
	case spec == "" || spec == "word":
		return Capture{Name: name, Type: domain.CaptureWord}, nil
	case spec == "quoted":
		return Capture{Name: name, Type: domain.CaptureQuoted}, nil
	case spec == "rest":
		return Capture{Name: name, Type: domain.CaptureRest}, nil
	case spec == "int":
		return Capture{Name: name, Type: domain.CaptureInteger}, nil
	case strings.HasPrefix(spec, "until:"):
		rest := []rune(spec[len("until:"):])
		if len(rest) == 0 {
			return Capture{}, domain.NewProtocolError("until: capture missing delimiter char", name)
		}
		return Capture{Name: name, Type: domain.CaptureUntilChar, Char: rest[0]}, nil
	default:
		return Capture{Name: name, Type: domain.CaptureWord}, nil
	}
}

// FirstToken returns the literal text of a pattern up to (but not
// including) its first capture placeholder or whitespace, whichever comes
// first - used by the Template Expander to build dispatch keywords.
func FirstToken(pattern string) string {
	for i, c := range pattern {
		if c == '{' || c == ' ' {
			return pattern[:i]
		}
	}
	return pattern
}
