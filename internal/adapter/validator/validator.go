// Package validator implements the richer heuristic spec validation pass
// that sits on top of protocolspec.Validate's hard structural checks: it
// collects statistics and soft warnings (reachability, dead ends, test
// coverage, missing error handlers).
package validator

import (
	"strings"

	"github.com/jeremyhahn/neurlang/internal/core/domain"
)

// Stats mirrors the Rust SpecStats.
type Stats struct {
	StateCount         int
	CommandCount       int
	TestCount          int
	TestStepCount      int
	TerminalStateCount int
	CaptureCount       int
}

// Result is the full output of validating a protocol spec.
type Result struct {
	SpecName string
	Errors   []*domain.ValidationError
	Warnings []*domain.ValidationWarning
	Stats    Stats
}

func (r Result) Valid() bool { return len(r.Errors) == 0 }

func (r Result) Summary() string {
	var b strings.Builder
	b.WriteString("Spec '" + r.SpecName + "': ")
	if r.Valid() {
		b.WriteString("VALID")
	} else {
		b.WriteString("INVALID")
	}
	b.WriteString(" (")
	b.WriteString(itoa(r.Stats.StateCount))
	b.WriteString(" states, ")
	b.WriteString(itoa(r.Stats.CommandCount))
	b.WriteString(" commands, ")
	b.WriteString(itoa(r.Stats.TestCount))
	b.WriteString(" tests)")
	if len(r.Errors) > 0 {
		b.WriteString(", ")
		b.WriteString(itoa(len(r.Errors)))
		b.WriteString(" errors")
	}
	if len(r.Warnings) > 0 {
		b.WriteString(", ")
		b.WriteString(itoa(len(r.Warnings)))
		b.WriteString(" warnings")
	}
	return b.String()
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if neg {
		return "-" + string(digits)
	}
	return string(digits)
}

// Validate runs every heuristic check over spec and returns the full
// result, including stats even when the spec is structurally invalid.
func Validate(spec *domain.ProtocolSpec) Result {
	r := Result{SpecName: spec.Name}

	r.Stats.StateCount = len(spec.States)
	r.Stats.CommandCount = len(spec.Commands)
	r.Stats.TestCount = len(spec.Tests)
	for _, t := range spec.Tests {
		r.Stats.TestStepCount += len(t.Steps)
	}

	stateNames := make(map[string]bool, len(spec.States))
	for _, s := range spec.States {
		stateNames[s.Name] = true
	}

	validateStates(&r, spec.States)
	validateCommands(&r, spec.Commands, stateNames)
	checkAmbiguousPatterns(&r, spec.Commands)
	checkReachability(&r, spec, stateNames)
	checkTestCoverage(&r, spec)
	checkErrorHandlers(&r, spec)

	return r
}

func validateStates(r *Result, states []domain.State) {
	seen := make(map[string]bool, len(states))
	var initial []string
	hasTerminal := false

	for _, s := range states {
		if seen[s.Name] {
			r.Errors = append(r.Errors, &domain.ValidationError{Kind: domain.ErrDuplicateState, Subject: s.Name})
		}
		seen[s.Name] = true
		if s.Initial {
			initial = append(initial, s.Name)
		}
		if s.Terminal {
			hasTerminal = true
			r.Stats.TerminalStateCount++
		}
	}

	switch {
	case len(initial) == 0:
		r.Errors = append(r.Errors, &domain.ValidationError{Kind: domain.ErrNoInitialState})
	case len(initial) > 1:
		r.Errors = append(r.Errors, &domain.ValidationError{
			Kind: domain.ErrMultipleInitialStates, Detail: strings.Join(initial, ", "),
		})
	}

	if !hasTerminal {
		r.Warnings = append(r.Warnings, &domain.ValidationWarning{Kind: domain.WarnNoTerminalState})
	}
}

func validateCommands(r *Result, commands []domain.Command, stateNames map[string]bool) {
	seen := make(map[string]bool, len(commands))

	for _, cmd := range commands {
		if seen[cmd.Name] {
			r.Errors = append(r.Errors, &domain.ValidationError{Kind: domain.ErrDuplicateCommand, Subject: cmd.Name})
		}
		seen[cmd.Name] = true

		for _, state := range cmd.ValidStates {
			if state != domain.StateSentinelAny && !stateNames[state] {
				r.Errors = append(r.Errors, &domain.ValidationError{
					Kind: domain.ErrCommandInvalidState, Subject: cmd.Name, Detail: state,
				})
			}
		}

		if cmd.Handler.NextState != "" && cmd.Handler.NextState != domain.StateSentinelSame && !stateNames[cmd.Handler.NextState] {
			r.Errors = append(r.Errors, &domain.ValidationError{
				Kind: domain.ErrInvalidTransition, Subject: cmd.Name, Detail: cmd.Handler.NextState,
			})
		}

		validatePattern(r, cmd.Name, cmd.Pattern)
		r.Stats.CaptureCount += strings.Count(cmd.Pattern, "{")
	}
}

func validatePattern(r *Result, command, pattern string) {
	inCapture := false
	for _, c := range pattern {
		switch c {
		case '{':
			if inCapture {
				r.Errors = append(r.Errors, &domain.ValidationError{
					Kind: domain.ErrInvalidPattern, Subject: command, Detail: "nested braces not allowed in " + pattern,
				})
				return
			}
			inCapture = true
		case '}':
			if !inCapture {
				r.Errors = append(r.Errors, &domain.ValidationError{
					Kind: domain.ErrInvalidPattern, Subject: command, Detail: "unmatched closing brace in " + pattern,
				})
				return
			}
			inCapture = false
		}
	}
	if inCapture {
		r.Errors = append(r.Errors, &domain.ValidationError{
			Kind: domain.ErrInvalidPattern, Subject: command, Detail: "unclosed capture in " + pattern,
		})
	}
}

func checkAmbiguousPatterns(r *Result, commands []domain.Command) {
	prefixes := make(map[string][]string)
	for _, cmd := range commands {
		idx := strings.IndexByte(cmd.Pattern, '{')
		prefix := cmd.Pattern
		if idx >= 0 {
			prefix = cmd.Pattern[:idx]
		}
		prefixes[prefix] = append(prefixes[prefix], cmd.Pattern)
	}
	for prefix, patterns := range prefixes {
		if prefix != "" && len(patterns) == 2 {
			r.Warnings = append(r.Warnings, &domain.ValidationWarning{
				Kind: domain.WarnPermissivePattern, Subject: "2 commands",
				Detail: "same prefix " + prefix + ": " + strings.Join(patterns, ", "),
			})
		}
	}
}

func checkReachability(r *Result, spec *domain.ProtocolSpec, stateNames map[string]bool) {
	reachable := make(map[string]bool)
	var queue []string

	for _, s := range spec.States {
		if s.Initial {
			reachable[s.Name] = true
			queue = append(queue, s.Name)
		}
	}

	for len(queue) > 0 {
		current := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		for _, cmd := range spec.Commands {
			validFromCurrent := contains(cmd.ValidStates, current) || contains(cmd.ValidStates, domain.StateSentinelAny)
			if validFromCurrent && cmd.Handler.NextState != "" && !reachable[cmd.Handler.NextState] {
				reachable[cmd.Handler.NextState] = true
				queue = append(queue, cmd.Handler.NextState)
			}
		}
	}

	for name := range stateNames {
		if !reachable[name] {
			r.Warnings = append(r.Warnings, &domain.ValidationWarning{Kind: domain.WarnUnreachableState, Subject: name})
		}
	}

	for _, s := range spec.States {
		if s.Terminal {
			continue
		}
		hasOutgoing := false
		for _, cmd := range spec.Commands {
			if contains(cmd.ValidStates, s.Name) || contains(cmd.ValidStates, domain.StateSentinelAny) {
				hasOutgoing = true
				break
			}
		}
		if !hasOutgoing {
			r.Warnings = append(r.Warnings, &domain.ValidationWarning{Kind: domain.WarnDeadEndState, Subject: s.Name})
		}
	}
}

func checkTestCoverage(r *Result, spec *domain.ProtocolSpec) {
	tested := make(map[string]bool)
	for _, t := range spec.Tests {
		for _, step := range t.Steps {
			if step.Send == "" {
				continue
			}
			name := step.Send
			for i, c := range step.Send {
				if c == ' ' || c == '\r' || c == '\n' {
					name = step.Send[:i]
					break
				}
			}
			tested[strings.ToUpper(name)] = true
		}
	}
	for _, cmd := range spec.Commands {
		if !tested[strings.ToUpper(cmd.Name)] {
			r.Warnings = append(r.Warnings, &domain.ValidationWarning{Kind: domain.WarnUntestedCommand, Subject: cmd.Name})
		}
	}
}

func checkErrorHandlers(r *Result, spec *domain.ProtocolSpec) {
	for _, errType := range []string{"syntax", "sequence", "unknown"} {
		if _, ok := spec.Errors[errType]; !ok {
			r.Warnings = append(r.Warnings, &domain.ValidationWarning{Kind: domain.WarnMissingErrorHandler, Subject: errType})
		}
	}
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
