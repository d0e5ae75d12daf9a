package protocolspec

import (
	"fmt"

	"github.com/jeremyhahn/neurlang/internal/core/domain"
)

// Validate performs the structural checks the parser itself is
// responsible for (as distinct from the richer heuristic pass in
// internal/adapter/validator): exactly one initial state, every
// valid_states/next_state reference resolves.
func Validate(spec *domain.ProtocolSpec) error {
	initialCount := 0
	for _, s := range spec.States {
		if s.Initial {
			initialCount++
		}
	}
	switch {
	case initialCount == 0:
		return domain.NewProtocolError("no state declares initial: true", "states")
	case initialCount > 1:
		return domain.NewProtocolError("more than one state declares initial: true", "states")
	}

	for _, cmd := range spec.Commands {
		for _, vs := range cmd.ValidStates {
			if vs == domain.StateSentinelAny {
				continue
			}
			if !spec.HasState(vs) {
				return domain.NewProtocolError(
					fmt.Sprintf("valid_states entry %q is not a defined state", vs),
					fmt.Sprintf("commands[%s].valid_states", cmd.Name))
			}
		}
		if err := validateHandler(spec, cmd.Name, cmd.Handler); err != nil {
			return err
		}
	}

	return nil
}

func validateHandler(spec *domain.ProtocolSpec, cmdName string, h domain.CommandHandler) error {
	if h.NextState != "" && h.NextState != domain.StateSentinelSame {
		if !spec.HasState(h.NextState) {
			return domain.NewProtocolError(
				fmt.Sprintf("next_state %q is not a defined state", h.NextState),
				fmt.Sprintf("commands[%s].handler.next_state", cmdName))
		}
	}
	if h.OnComplete != nil {
		return validateHandler(spec, cmdName, *h.OnComplete)
	}
	return nil
}
