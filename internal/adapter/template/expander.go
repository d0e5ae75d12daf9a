// Package template implements the Template Expander turning
// a ProtocolSpec into a SlotSpec ready for the filler, generating a fixed
// skeleton shape and one slot per handler concern.
package template

import (
	"fmt"
	"strings"

	"github.com/jeremyhahn/neurlang/internal/adapter/protocolspec"
	"github.com/jeremyhahn/neurlang/internal/core/domain"
)

// Config mirrors the Rust ExpanderConfig.
type Config struct {
	Hostname         string
	InputBufferSize  int
	OutputBufferSize int
	MaxConnections   int
}

func DefaultConfig() Config {
	return Config{
		Hostname: "localhost",
		InputBufferSize: 4096,
		OutputBufferSize: 4096,
		MaxConnections: 100,
	}
}

// Expander converts protocol specs into SlotSpecs.
type Expander struct {
	cfg Config
}

func New(cfg Config) *Expander { return &Expander{cfg: cfg} }

// Expand produces a SlotSpec for the given protocol spec: state/error data
// items, the two standard buffers, a fixed skeleton with marker slots, one
// slot set per command, a dispatch slot, and translated test scenarios.
func (e *Expander) Expand(spec *domain.ProtocolSpec) (domain.SlotSpec, error) {
	slotSpec := domain.NewSlotSpec(spec.Name+"_server", spec.Description)
	slotSpec.Protocol = spec.Name

	for i, state := range spec.States {
		slotSpec.AddData(domain.DataItem{
			Name: "STATE_" + state.Name, Type: domain.DataConstant, IntValue: int64(i),
		})
	}

	for name, response := range spec.Errors {
		slotSpec.AddData(domain.DataItem{
			Name: "ERR_" + strings.ToUpper(name), Type: domain.DataString, StrValue: response,
		})
	}

	slotSpec.AddData(domain.DataItem{Name: "input_buffer", Type: domain.DataBuffer, Size: e.cfg.InputBufferSize})
	slotSpec.AddData(domain.DataItem{Name: "output_buffer", Type: domain.DataBuffer, Size: e.cfg.OutputBufferSize})

	slotSpec.Skeleton = e.generateSkeleton(spec)

	for _, cmd := range spec.Commands {
		for _, slot := range e.expandCommand(cmd) {
			slotSpec.AddSlot(slot)
		}
	}
	slotSpec.AddSlot(e.createDispatchSlot(spec))

	for _, test := range spec.Tests {
		slotSpec.AddTest(test)
	}

	return slotSpec, nil
}

func (e *Expander) generateSkeleton(spec *domain.ProtocolSpec) string {
	var b strings.Builder

	fmt.Fprintf(&b, "; %s Server\n; Generated from protocol spec: %s\n;\n", strings.ToUpper(spec.Name), spec.Name)
	b.WriteString("; @server: true\n\n")

	b.WriteString(".data:\n ; State constants\n")
	for i, state := range spec.States {
		fmt.Fprintf(&b, " STATE_%s = %d\n", state.Name, i)
	}
	b.WriteString("\n ; Buffer sizes\n")
	fmt.Fprintf(&b, " INPUT_BUFFER_SIZE = %d\n", e.cfg.InputBufferSize)
	fmt.Fprintf(&b, " OUTPUT_BUFFER_SIZE = %d\n\n", e.cfg.OutputBufferSize)

	b.WriteString(".text:\n.entry:\n ; Initialize server\n {{SLOT_INIT}}\n\n")
	b.WriteString(".accept_loop:\n ; Accept new connection\n {{SLOT_ACCEPT}}\n\n")

	if spec.Greeting != "" {
		b.WriteString(".send_greeting:\n ; Send initial greeting\n {{SLOT_GREETING}}\n\n")
	}

	b.WriteString(".main_loop:\n ; Read command from client\n {{SLOT_READ_CMD}}\n\n")
	b.WriteString(".dispatch:\n ; Dispatch to command handler\n {{SLOT_DISPATCH}}\n\n")

	for _, cmd := range spec.Commands {
		upper := strings.ToUpper(cmd.Name)
		fmt.Fprintf(&b, ".handle_%s:\n ; Handle %s command\n", strings.ToLower(cmd.Name), cmd.Name)
		fmt.Fprintf(&b, " {{SLOT_%s_CHECK}}\n", upper)
		fmt.Fprintf(&b, " {{SLOT_%s_HANDLER}}\n", upper)
		if cmd.Handler.NextState != "" && cmd.Handler.NextState != domain.StateSentinelSame {
			fmt.Fprintf(&b, " {{SLOT_%s_TRANSITION}}\n", upper)
		}
		b.WriteString(" b.main_loop\n\n")
	}

	b.WriteString(".error_syntax:\n {{SLOT_ERROR_SYNTAX}}\n b.main_loop\n\n")
	b.WriteString(".error_sequence:\n {{SLOT_ERROR_SEQUENCE}}\n b.main_loop\n\n")
	b.WriteString(".error_unknown:\n {{SLOT_ERROR_UNKNOWN}}\n b.main_loop\n\n")
	b.WriteString(".client_disconnect:\n ; Close client socket and return to accept\n {{SLOT_CLOSE}}\n b.accept_loop\n")

	return b.String()
}

func (e *Expander) expandCommand(cmd domain.Command) []domain.Slot {
	var slots []domain.Slot
	upper := strings.ToUpper(cmd.Name)
	lower := strings.ToLower(cmd.Name)

	if !contains(cmd.ValidStates, domain.StateSentinelAny) {
		var valid []string
		for _, s := range cmd.ValidStates {
			valid = append(valid, "STATE_"+s)
		}
		slots = append(slots, domain.Slot{
			ID: "SLOT_" + upper + "_CHECK",
			Name: lower + "_state_check",
			SlotType: domain.StateCheck{
				StateReg: "r20", ValidStates: valid,
				OK: lower + "_state_ok", Error: ".error_sequence",
			},
			Context: domain.SlotContext{
				Registers: map[string]string{"r20": "current state"},
				Labels: []string{lower + "_state_ok", ".error_sequence"},
			},
		})
	}

	slots = append(slots, e.expandHandler(cmd, cmd.Handler)...)

	if cmd.Handler.NextState != "" && cmd.Handler.NextState != domain.StateSentinelSame {
		slots = append(slots, domain.Slot{
			ID: "SLOT_" + upper + "_TRANSITION",
			Name: lower + "_transition",
			SlotType: domain.StateTransition{
				StateReg: "r20", NewState: "STATE_" + cmd.Handler.NextState,
			},
			Context: domain.SlotContext{
				Registers: map[string]string{"r20": "current state"},
				StateConsts: map[string]int{"STATE_" + cmd.Handler.NextState: 0},
			},
		})
	}

	return slots
}

func (e *Expander) expandHandler(cmd domain.Command, h domain.CommandHandler) []domain.Slot {
	upper := strings.ToUpper(cmd.Name)
	lower := strings.ToLower(cmd.Name)
	var slots []domain.Slot

	switch h.Type {
	case domain.HandlerSimpleResponse:
		if h.Response != "" {
			captures, _ := protocolspec.ResolveCaptures(cmd.Pattern)
			variables := make(map[string]string, len(captures)+1)
			for i, c := range captures {
				variables[c.Name] = fmt.Sprintf("r%d", 3+i)
			}
			if strings.Contains(h.Response, "{hostname}") {
				variables["hostname"] = "r30"
			}
			slots = append(slots,
				domain.Slot{
					ID: "SLOT_" + upper + "_HANDLER", Name: lower + "_response",
					SlotType: domain.ResponseBuilder{Template: h.Response, Variables: variables, OutputReg: "r6", LengthReg: "r7"},
					Context: domain.SlotContext{
						Registers: map[string]string{"r6": "output_buffer", "r7": "output_length", "r10": "socket_fd"},
						TempRegs: []string{"r1", "r2", "r8", "r9"},
					},
				},
				sendSlot(upper, lower),
			)
		}

	case domain.HandlerMultiLineResponse:
		var sb strings.Builder
		for _, l := range h.Lines {
			sb.WriteString(l)
			sb.WriteString("\r\n")
		}
		slots = append(slots,
			domain.Slot{
				ID: "SLOT_" + upper + "_HANDLER", Name: lower + "_multiline",
				SlotType: domain.ResponseBuilder{Template: sb.String(), OutputReg: "r6", LengthReg: "r7"},
			},
			sendSlot(upper, lower),
		)

	case domain.HandlerValidatedResponse:
		if h.Validation != "" {
			slots = append(slots, domain.Slot{
				ID: "SLOT_" + upper + "_VALIDATE", Name: lower + "_validate",
				SlotType: domain.ValidationHook{
					InputReg: "r3", ExtensionID: h.Validation,
					OKLabel: lower + "_valid", ErrLabel: lower + "_invalid",
				},
			})
		}
		if h.ResponseOK != "" {
			slots = append(slots, domain.Slot{
				ID: "SLOT_" + upper + "_OK", Name: lower + "_ok_response",
				SlotType: domain.ResponseBuilder{Template: h.ResponseOK, OutputReg: "r6", LengthReg: "r7"},
			})
		}
		if h.ResponseErr != "" {
			slots = append(slots, domain.Slot{
				ID: "SLOT_" + upper + "_ERR", Name: lower + "_err_response",
				SlotType: domain.ErrorResponse{SocketReg: "r10", Code: 0, Message: h.ResponseErr},
			})
		}

	case domain.HandlerMultilineReader:
		if h.Response != "" {
			slots = append(slots, domain.Slot{
				ID: "SLOT_" + upper + "_INIT", Name: lower + "_init",
				SlotType: domain.ResponseBuilder{Template: h.Response, OutputReg: "r6", LengthReg: "r7"},
			})
		}
		terminator := h.Terminator
		if terminator == 0 {
			terminator = '\n'
		}
		maxLen := h.MaxSize
		if maxLen == 0 {
			maxLen = 10485760
		}
		slots = append(slots, domain.Slot{
			ID: "SLOT_" + upper + "_READ", Name: lower + "_read",
			SlotType: domain.ReadUntil{
				SocketReg: "r10", Delimiter: terminator, BufferReg: "r4",
				MaxLen: maxLen, EOFLabel: ".client_disconnect",
			},
		})
		if h.OnComplete != nil {
			slots = append(slots, e.expandHandler(cmd, *h.OnComplete)...)
		}

	case domain.HandlerCloseConnection:
		if h.Response != "" {
			slots = append(slots,
				domain.Slot{
					ID: "SLOT_" + upper + "_HANDLER", Name: lower + "_goodbye",
					SlotType: domain.ResponseBuilder{Template: h.Response, OutputReg: "r6", LengthReg: "r7"},
				},
				sendSlot(upper, lower),
			)
		}

	case domain.HandlerCustom:
		slots = append(slots, domain.Slot{
			ID: "SLOT_" + upper + "_HANDLER", Name: lower + "_custom",
			SlotType: domain.ExtensionCall{
				ExtensionID: "handle " + lower + " command",
				Args: []string{"r0", "r1"},
				ResultReg: "r0",
			},
		})
	}

	return slots
}

func sendSlot(upper, lower string) domain.Slot {
	return domain.Slot{
		ID: "SLOT_" + upper + "_SEND", Name: lower + "_send",
		SlotType: domain.SendResponse{SocketReg: "r10", BufferReg: "r6", LengthReg: "r7"},
		Context: domain.SlotContext{
			Registers: map[string]string{"r10": "socket_fd", "r6": "output_buffer", "r7": "output_length"},
		},
	}
}

func (e *Expander) createDispatchSlot(spec *domain.ProtocolSpec) domain.Slot {
	var cases []domain.PatternSwitchCase
	for _, cmd := range spec.Commands {
		keyword := protocolspec.FirstToken(cmd.Pattern)
		if keyword == "" {
			keyword = cmd.Name
		}
		cases = append(cases, domain.PatternSwitchCase{Keyword: keyword, Label: ".handle_" + strings.ToLower(cmd.Name)})
	}
	return domain.Slot{
		ID: "SLOT_DISPATCH", Name: "command_dispatch",
		SlotType: domain.PatternSwitch{InputReg: "r0", Cases: cases, DefaultLabel: ".error_unknown"},
		Context: domain.SlotContext{
			Registers: map[string]string{"r0": "input_buffer"},
			Labels: []string{".error_unknown"},
		},
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
