// Package verifier synthesizes a standalone test program from a slot's
// unit test and its filled code, then drives it through the external
// assembler and VM to check the expected outcome.
//
// Assembly and execution are external collaborators (ports.Assembler,
// ports.VM) - this package never stubs them to succeed unconditionally.
package verifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jeremyhahn/neurlang/internal/core/domain"
	"github.com/jeremyhahn/neurlang/internal/core/ports"
)

// Config mirrors the Rust VerifierConfig.
type Config struct {
	Timeout         time.Duration
	MaxInstructions int
	FailFast        bool
}

func DefaultConfig() Config {
	return Config{Timeout: time.Second, MaxInstructions: 100000}
}

// SlotResult is the outcome of verifying one slot.
type SlotResult struct {
	SlotID   string
	Passed   bool
	Error    string
	TimeMs   float64
	Expected string
}

// Result is the outcome of verifying an entire SlotSpec.
type Result struct {
	Slots        []SlotResult
	AllPassed    bool
	PassedCount  int
	FailedCount  int
	SkippedCount int
	TotalTimeMs  float64
}

func (r Result) FailedSlotIDs() []string {
	var ids []string
	for _, s := range r.Slots {
		if !s.Passed {
			ids = append(ids, s.SlotID)
		}
	}
	return ids
}

func (r Result) PassRate() float64 {
	total := r.PassedCount + r.FailedCount
	if total == 0 {
		return 100.0
	}
	return float64(r.PassedCount) / float64(total) * 100.0
}

type Verifier struct {
	cfg       Config
	assembler ports.Assembler
	vm        ports.VM
}

func New(cfg Config, assembler ports.Assembler, vm ports.VM) *Verifier {
	return &Verifier{cfg: cfg, assembler: assembler, vm: vm}
}

// VerifySlot runs slot's unit test against code, synthesizing a standalone
// test program. A slot with no unit test passes vacuously.
func (v *Verifier) VerifySlot(ctx context.Context, slot domain.Slot, code string) SlotResult {
	start := time.Now()

	if slot.UnitTest == nil {
		return SlotResult{SlotID: slot.ID, Passed: true, TimeMs: elapsedMs(start)}
	}
	test := slot.UnitTest

	program := buildTestProgram(code, test)

	prog, err := v.assembler.Assemble(program)
	if err != nil {
		return SlotResult{
			SlotID: slot.ID, Passed: false,
			Error: fmt.Sprintf("assembly failed: %v", err), TimeMs: elapsedMs(start),
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, v.cfg.Timeout)
	defer cancel()

	regs, _, trapped, err := v.vm.Run(runCtx, prog, v.cfg.MaxInstructions)
	if err != nil {
		return SlotResult{
			SlotID: slot.ID, Passed: false,
			Error: fmt.Sprintf("execution failed: %v", err), TimeMs: elapsedMs(start),
		}
	}
	if trapped {
		return SlotResult{
			SlotID: slot.ID, Passed: false,
			Error: "test trapped: expectation not met", TimeMs: elapsedMs(start),
			Expected: fmt.Sprintf("%+v", test.Expected),
		}
	}

	for reg, want := range test.Expected.Registers {
		if got, ok := regs[reg]; !ok || got != want {
			return SlotResult{
				SlotID: slot.ID, Passed: false,
				Error: fmt.Sprintf("register %s: want %d, got %d", reg, want, regs[reg]),
				TimeMs: elapsedMs(start),
				Expected: fmt.Sprintf("%+v", test.Expected),
			}
		}
	}

	return SlotResult{SlotID: slot.ID, Passed: true, TimeMs: elapsedMs(start)}
}

// VerifyAll verifies every filled slot that has a unit test, skipping those
// that don't and stopping early if configured to fail fast.
func (v *Verifier) VerifyAll(ctx context.Context, spec *domain.SlotSpec, filled []domain.FilledSlot) Result {
	start := time.Now()
	var results []SlotResult
	var passed, failed, skipped int

	codeByID := make(map[string]string, len(filled))
	for _, f := range filled {
		codeByID[f.ID] = f.Code
	}

	for _, slot := range spec.Slots {
		code, ok := codeByID[slot.ID]
		if !ok {
			results = append(results, SlotResult{SlotID: slot.ID, Passed: false, Error: "slot not filled"})
			failed++
			continue
		}
		if slot.UnitTest == nil {
			skipped++
			continue
		}

		result := v.VerifySlot(ctx, slot, code)
		results = append(results, result)
		if result.Passed {
			passed++
		} else {
			failed++
			if v.cfg.FailFast {
				break
			}
		}
	}

	return Result{
		Slots: results, AllPassed: failed == 0,
		PassedCount: passed, FailedCount: failed, SkippedCount: skipped,
		TotalTimeMs: elapsedMs(start),
	}
}

// buildTestProgram synthesizes setup + slot code + register/memory
// assertion trailers ending in halt.
func buildTestProgram(slotCode string, test *domain.UnitTest) string {
	var b strings.Builder
	b.WriteString("; Test setup\n")
	for _, line := range test.Setup {
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("; Slot code under test\n")
	b.WriteString(slotCode)
	b.WriteString("\n; Test verification\n")

	for reg, want := range test.Expected.Registers {
		fmt.Fprintf(&b, "; Check %s == %d\nmov r30, %d\nbeq %s, r30,.test_pass_%s\ntrap 1\n.test_pass_%s:\n",
			reg, want, want, reg, reg, reg)
	}

	for addr, want := range test.Expected.Memory {
		fmt.Fprintf(&b, "; Check memory at %d == %d\nload.b r30, [%d]\nmov r31, %d\nbne r30, r31,.test_fail_mem_%d\n",
			addr, want, addr, want, addr)
	}

	b.WriteString("halt\n")

	for addr := range test.Expected.Memory {
		fmt.Fprintf(&b, ".test_fail_mem_%d:\ntrap 1\n", addr)
	}

	return b.String()
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
