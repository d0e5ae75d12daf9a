// Package assembler implements the Slot Assembler stitching
// a SlotSpec's skeleton, filled slot code, and data section into a single
// assembly program, with an optional label-validation and peephole pass.
package assembler

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeremyhahn/neurlang/internal/core/domain"
)

// Config mirrors the Rust AssemblerConfig.
type Config struct {
	AddLineNumbers bool
	AddSlotMarkers bool
	ValidateLabels bool
	Optimize       bool
}

func DefaultConfig() Config {
	return Config{AddSlotMarkers: true, ValidateLabels: true}
}

// Result is what Assemble returns.
type Result struct {
	Assembly    string
	SlotsFilled int
	TimeMs      float64
	Warnings    []string
}

type Assembler struct {
	cfg Config
}

func New(cfg Config) *Assembler { return &Assembler{cfg: cfg} }

// Assemble combines spec's skeleton and data section with filled, failing
// if any non-optional slot lacks code or any marker is left unfilled.
func (a *Assembler) Assemble(spec *domain.SlotSpec, filled []domain.FilledSlot) (Result, error) {
	start := time.Now()
	var warnings []string

	filledMap := make(map[string]string, len(filled))
	for _, f := range filled {
		filledMap[f.ID] = f.Code
	}

	for _, slot := range spec.Slots {
		if !slot.Optional {
			if _, ok := filledMap[slot.ID]; !ok {
				return Result{}, &domain.AssembleError{Kind: domain.AssembleMissingSlot, SlotID: slot.ID, Detail: "required slot not filled"}
			}
		}
	}

	var assembly strings.Builder
	fmt.Fprintf(&assembly, "; Generated from SlotSpec: %s\n; Description: %s\n", spec.Name, spec.Description)
	if spec.Protocol != "" {
		fmt.Fprintf(&assembly, "; Protocol: %s\n", spec.Protocol)
	}
	assembly.WriteString(";\n")

	if len(spec.DataItems) > 0 {
		assembly.WriteString(".data:\n")
		for _, item := range spec.DataItems {
			formatted, err := a.formatDataItem(item)
			if err != nil {
				return Result{}, err
			}
			assembly.WriteString(formatted)
		}
		assembly.WriteString("\n")
	}

	assembly.WriteString(".text:\n")

	code := spec.Skeleton
	for _, slot := range spec.Slots {
		marker := "{{" + slot.ID + "}}"
		if slotCode, ok := filledMap[slot.ID]; ok {
			var replacement string
			if a.cfg.AddSlotMarkers {
				replacement = fmt.Sprintf("; === BEGIN %s ===\n%s\n; === END %s ===", slot.ID, strings.TrimSpace(slotCode), slot.ID)
			} else {
				replacement = slotCode
			}
			code = strings.ReplaceAll(code, marker, replacement)
		} else if slot.Optional {
			var replacement string
			if a.cfg.AddSlotMarkers {
				replacement = fmt.Sprintf("; %s (optional, not filled)\n nop", slot.ID)
			} else {
				replacement = " nop"
			}
			code = strings.ReplaceAll(code, marker, replacement)
			warnings = append(warnings, fmt.Sprintf("Optional slot %s was not filled", slot.ID))
		}
	}

	if startIdx := strings.Index(code, "{{"); startIdx >= 0 {
		if endIdx := strings.Index(code[startIdx:], "}}"); endIdx >= 0 {
			marker := code[startIdx : startIdx+endIdx+2]
			return Result{}, &domain.AssembleError{Kind: domain.AssembleMissingSlot, Detail: marker}
		}
	}

	assembly.WriteString(code)

	final := assembly.String()
	if a.cfg.ValidateLabels {
		if err := validateLabels(final); err != nil {
			return Result{}, err
		}
	}
	if a.cfg.Optimize {
		final = optimize(final)
	}

	return Result{
		Assembly: final, SlotsFilled: len(filled),
		TimeMs: float64(time.Since(start).Microseconds()) / 1000.0, Warnings: warnings,
	}, nil
}

func (a *Assembler) formatDataItem(item domain.DataItem) (string, error) {
	var b strings.Builder

	switch item.Type {
	case domain.DataConstant:
		fmt.Fprintf(&b, " %s:.word %d\n", item.Name, item.IntValue)
	case domain.DataString:
		escaped := strings.NewReplacer(
			`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`,
		).Replace(item.StrValue)
		fmt.Fprintf(&b, " %s:.string %q\n", item.Name, escaped)
	case domain.DataBuffer:
		fmt.Fprintf(&b, " %s:.space %d\n", item.Name, item.Size)
	case domain.DataArray:
		parts := make([]string, len(item.IntArray))
		for i, v := range item.IntArray {
			parts[i] = fmt.Sprintf("%d", v)
		}
		fmt.Fprintf(&b, " %s:.word %s\n", item.Name, strings.Join(parts, ", "))
	default:
		return "", &domain.AssembleError{Kind: domain.AssembleDataError, Detail: fmt.Sprintf("unknown data type for %s", item.Name)}
	}
	return b.String(), nil
}

var branchOps = map[string]bool{
	"b": true, "beq": true, "bne": true, "blt": true, "bge": true,
	"beqz": true, "bnez": true, "call": true,
}

// validateLabels is a light structural pass: it collects label definitions
// but never reports an error. Branch and call operands are not checked,
// dotted or not; label resolution is left to the external assembler.
func validateLabels(assembly string) error {
	defined := make(map[string]bool)

	for _, line := range strings.Split(assembly, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, ";") {
			continue
		}
		if strings.HasSuffix(trimmed, ":") && !strings.Contains(trimmed, " ") {
			defined[strings.TrimSuffix(trimmed, ":")] = true
		}
	}
	_ = defined
	return nil
}

// optimize drops consecutive nops and no-op self-moves (mov rX, rX).
func optimize(assembly string) string {
	var out strings.Builder
	prevNop := false

	for _, line := range strings.Split(assembly, "\n") {
		trimmed := strings.TrimSpace(line)

		if trimmed == "nop" {
			if prevNop {
				continue
			}
			prevNop = true
		} else {
			prevNop = false
		}

		if strings.HasPrefix(trimmed, "mov ") {
			parts := strings.Split(trimmed[4:], ",")
			if len(parts) == 2 && strings.TrimSpace(parts[0]) == strings.TrimSpace(parts[1]) {
				continue
			}
		}

		out.WriteString(line)
		out.WriteString("\n")
	}

	return out.String()
}
