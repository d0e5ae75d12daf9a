package domain

// SlotContext enumerates the resources a generated slot body may reference:
// the registers available with a human description, jumpable labels, data
// symbols, state constants and scratch temporaries. It is advisory context
// handed to a filler backend, never enforced by the assembler.
type SlotContext struct {
	Registers   map[string]string // reg name -> human description
	Labels      []string
	DataSymbols []string
	StateConsts map[string]int
	TempRegs    []string
}

// Slot is a filled or unfilled hole in a SlotSpec skeleton.
type Slot struct {
	ID        string
	Name      string
	SlotType  SlotType
	Context   SlotContext
	UnitTest  *UnitTest
	Optional  bool
	DependsOn []string
}

// UnitTest is the per-slot setup/input/expected triple the Verifier
// synthesizes a test program from.
type UnitTest struct {
	Setup    []string // assembly lines run before the slot body
	Input    map[string]string // register -> literal value to load before running
	Expected ExpectedOutcome
}

// ExpectedOutcome names the registers and memory bytes a passing run must
// produce.
type ExpectedOutcome struct {
	Registers map[string]int64 // register -> expected value
	Memory    map[int]byte // address -> expected byte
}
