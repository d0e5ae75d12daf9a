package domain

// Transport is the declared wire transport of a ProtocolSpec.
type Transport string

const (
	TransportTCP Transport = "tcp"
	TransportUDP Transport = "udp"
	TransportUnix Transport = "unix"
)

// StateSentinelAny is the special valid_states entry meaning "any state".
const StateSentinelAny = "ANY"

// StateSentinelSame is the special next_state value meaning "no transition".
const StateSentinelSame = "SAME"

// State is one node of the protocol's state machine.
type State struct {
	Name        string
	Initial     bool
	Terminal    bool
	Description string
}

// HandlerType enumerates the shapes a command handler can take.
type HandlerType string

const (
	HandlerSimpleResponse HandlerType = "simple_response"
	HandlerMultiLineResponse HandlerType = "multi_line_response"
	HandlerValidatedResponse HandlerType = "validated_response"
	HandlerMultilineReader HandlerType = "multiline_reader"
	HandlerCloseConnection HandlerType = "close_connection"
	HandlerCustom HandlerType = "custom"
)

// CommandHandler describes how a matched command is handled. on_complete is
// the only cyclic field in the data model and is owned, not
// back-referenced.
type CommandHandler struct {
	Type HandlerType

	Response    string // simple_response
	Lines       []string // multi_line_response
	NextState   string // simple/multi_line/validated/custom - "" or SAME means no transition
	Validation  string // validated_response: extension id used to validate
	ResponseOK  string // validated_response
	ResponseErr string // validated_response
	Terminator  byte // multiline_reader
	MaxSize     int // multiline_reader
	OnComplete  *CommandHandler // multiline_reader: recursive handler run once terminator seen
	Custom      string // custom: plain-English description of the extension behaviour
}

// Command is one recognised protocol command.
type Command struct {
	Name        string
	Pattern     string // literal text with {name} / {name:spec} placeholders
	ValidStates []string
	Handler     CommandHandler
}

// ProtocolSpec is the declarative description of a line/command protocol,
// loaded from JSON (always) or YAML (optionally).
type ProtocolSpec struct {
	Name        string
	Description string
	Version     string
	Transport   Transport
	Port        int
	LineEnding  string // defaults to "\r\n" when empty
	Greeting    string

	States   []State
	Commands []Command
	Errors   map[string]string // error name -> response string

	Tests []TestScenario
}

// InitialState returns the spec's sole initial state, if any.
func (p *ProtocolSpec) InitialState() (State, bool) {
	for _, s := range p.States {
		if s.Initial {
			return s, true
		}
	}
	return State{}, false
}

// HasState reports whether name is a defined state.
func (p *ProtocolSpec) HasState(name string) bool {
	for _, s := range p.States {
		if s.Name == name {
			return true
		}
	}
	return false
}

// EffectiveLineEnding returns the configured line ending, defaulting to CRLF.
func (p *ProtocolSpec) EffectiveLineEnding() string {
	if p.LineEnding == "" {
		return "\r\n"
	}
	return p.LineEnding
}
