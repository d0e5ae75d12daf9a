// Package filler implements pluggable backends generating assembly for a
// slot, composed behind caching, fallback, and a batch path that hands all
// cache misses to the backend in a single FillBatch call.
package filler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jeremyhahn/neurlang/internal/core/domain"
)

// MockBackend generates placeholder or "realistic" pseudo-assembly for a
// slot without any real inference - used for tests and as the filler's
// default primary backend when no model backend is wired in.
type MockBackend struct {
	Delay     time.Duration
	Realistic bool
}

func NewMockBackend() *MockBackend { return &MockBackend{} }
func NewRealisticMockBackend() *MockBackend { return &MockBackend{Realistic: true} }
func NewDelayedMockBackend(d time.Duration) *MockBackend {
	return &MockBackend{Delay: d}
}

func (b *MockBackend) Name() string { return "mock" }
func (b *MockBackend) IsAvailable() bool { return true }

func (b *MockBackend) FillSlot(ctx context.Context, slot domain.Slot) (string, error) {
	if b.Delay > 0 {
		select {
		case <-time.After(b.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return b.generateForType(slot), nil
}

func (b *MockBackend) FillBatch(ctx context.Context, slots []domain.Slot) ([]string, error) {
	if b.Delay > 0 {
		select {
		case <-time.After(b.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = b.generateForType(s)
	}
	return out, nil
}

func (b *MockBackend) generateForType(slot domain.Slot) string {
	if !b.Realistic {
		return fmt.Sprintf("; Placeholder for %s\n; Type: %s\nnop\n", slot.ID, slot.SlotType.Category())
	}

	switch t := slot.SlotType.(type) {
	case domain.PatternMatch:
		var sb strings.Builder
		fmt.Fprintf(&sb, "; PatternMatch: %s\n ; Input: %s\n mov r1, %s\n ; Compare pattern bytes\n", t.Pattern, t.InputReg, t.InputReg)
		for i, c := range t.Pattern {
			if i >= 4 {
				break
			}
			if c != '{' {
				fmt.Fprintf(&sb, " load.b r2, [r1 + %d]\n mov r3, %d\n bne r2, r3, %s\n", i, c, t.NoMatchLabel)
			}
		}
		fmt.Fprintf(&sb, " b %s\n", t.MatchLabel)
		return sb.String()

	case domain.ResponseBuilder:
		var sb strings.Builder
		fmt.Fprintf(&sb, "; ResponseBuilder: %s\n lea r0, %s\n mov r1, 0 ; offset\n", t.Template, t.OutputReg)
		for i, c := range t.Template {
			if i >= 20 {
				break
			}
			if c != '{' && c != '}' {
				fmt.Fprintf(&sb, " mov r2, %d ; %q\n store.b r2, [r0 + r1]\n addi r1, r1, 1\n", c, c)
			}
		}
		fmt.Fprintf(&sb, " mov %s, r1\n", t.LengthReg)
		return sb.String()

	case domain.StateCheck:
		var sb strings.Builder
		fmt.Fprintf(&sb, "; StateCheck: %s in %v\n", t.StateReg, t.ValidStates)
		for _, state := range t.ValidStates {
			fmt.Fprintf(&sb, " mov r1, %s\n beq %s, r1, %s\n", state, t.StateReg, t.OK)
		}
		fmt.Fprintf(&sb, " b %s\n", t.Error)
		return sb.String()

	case domain.StateTransition:
		return fmt.Sprintf("; StateTransition: %s = %s\n mov %s, %s\n", t.StateReg, t.NewState, t.StateReg, t.NewState)

	case domain.SendResponse:
		return fmt.Sprintf("; SendResponse\n mov r0, %s\n mov r1, %s\n mov r2, %s\n io.send r0, r0, r1, r2\n", t.SocketReg, t.BufferReg, t.LengthReg)

	case domain.ReadUntil:
		return fmt.Sprintf("; ReadUntil %q\n mov r0, %s\n lea r1, %s\n mov r2, %d\n io.recv %s, r0, r1, r2\n beqz %s, %s\n",
			t.Delimiter, t.SocketReg, t.BufferReg, t.MaxLen, t.BufferReg, t.BufferReg, t.EOFLabel)

	case domain.ExtensionCall:
		var sb strings.Builder
		fmt.Fprintf(&sb, "; ExtensionCall: %s\n", t.ExtensionID)
		for i, arg := range t.Args {
			fmt.Fprintf(&sb, " mov r%d, %s\n", i, arg)
		}
		fmt.Fprintf(&sb, " ext.call %s, @%q\n", t.ResultReg, t.ExtensionID)
		return sb.String()

	case domain.ErrorResponse:
		var sb strings.Builder
		fmt.Fprintf(&sb, "; ErrorResponse: %d %s\n lea r0, err_%d\n load r1, [err_%d_len]\n mov r2, %s\n io.send r2, r2, r0, r1\n",
			t.Code, t.Message, t.Code, t.Code, t.SocketReg)
		if t.CloseAfter {
			fmt.Fprintf(&sb, " io.close r2, %s\n", t.SocketReg)
		}
		return sb.String()

	default:
		return fmt.Sprintf("; %s (%s)\n nop ; TODO: implement\n", slot.ID, slot.SlotType.Category())
	}
}

// TemplateBackend serves a handful of hand-written templates for the most
// common slot shapes. It has no coverage of slot types it wasn't taught and
// is best used as a fallback, not a primary.
type TemplateBackend struct {
	templates map[string]string
}

func NewTemplateBackend() *TemplateBackend {
	b := &TemplateBackend{templates: make(map[string]string)}
	b.loadBuiltins()
	return b
}

func (b *TemplateBackend) Name() string { return "template" }
func (b *TemplateBackend) IsAvailable() bool { return true }

func (b *TemplateBackend) loadBuiltins() {
	b.templates["state_check_2"] = "; StateCheck for 2 valid states\n" +
		" mov r1, {{STATE_1}}\n beq {{STATE_REG}}, r1, {{OK_LABEL}}\n" +
		" mov r1, {{STATE_2}}\n beq {{STATE_REG}}, r1, {{OK_LABEL}}\n" +
		" b {{ERROR_LABEL}}\n"
	b.templates["send_response"] = "; Send response buffer\n" +
		" mov r0, {{SOCKET_REG}}\n lea r1, {{BUFFER_REG}}\n" +
		" load r2, [{{LENGTH_LABEL}}]\n io.send r0, r0, r1, r2\n"
	b.templates["state_transition"] = "; State transition\n mov {{STATE_REG}}, {{NEW_STATE}}\n"
}

func (b *TemplateBackend) lookup(slot domain.Slot) (string, bool) {
	replacer := func(tpl string, pairs ...string) string {
		return strings.NewReplacer(pairs...).Replace(tpl)
	}

	switch t := slot.SlotType.(type) {
	case domain.StateCheck:
		if len(t.ValidStates) != 2 {
			return "", false
		}
		tpl, ok := b.templates["state_check_2"]
		if !ok {
			return "", false
		}
		return replacer(tpl,
			"{{STATE_REG}}", t.StateReg,
			"{{STATE_1}}", t.ValidStates[0],
			"{{STATE_2}}", t.ValidStates[1],
			"{{OK_LABEL}}", t.OK,
			"{{ERROR_LABEL}}", t.Error,
		), true

	case domain.StateTransition:
		tpl, ok := b.templates["state_transition"]
		if !ok {
			return "", false
		}
		return replacer(tpl, "{{STATE_REG}}", t.StateReg, "{{NEW_STATE}}", t.NewState), true

	case domain.SendResponse:
		tpl, ok := b.templates["send_response"]
		if !ok {
			return "", false
		}
		return replacer(tpl,
			"{{SOCKET_REG}}", t.SocketReg,
			"{{BUFFER_REG}}", t.BufferReg,
			"{{LENGTH_LABEL}}", t.LengthReg,
		), true

	default:
		return "", false
	}
}

func (b *TemplateBackend) FillSlot(ctx context.Context, slot domain.Slot) (string, error) {
	code, ok := b.lookup(slot)
	if !ok {
		return "", &domain.FillError{Kind: domain.FillInvalidSlotType, Backend: b.Name(), Detail: slot.SlotType.Category().String()}
	}
	return code, nil
}

func (b *TemplateBackend) FillBatch(ctx context.Context, slots []domain.Slot) ([]string, error) {
	out := make([]string, len(slots))
	for i, s := range slots {
		code, err := b.FillSlot(ctx, s)
		if err != nil {
			return nil, err
		}
		out[i] = code
	}
	return out, nil
}
