package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// DataType enumerates the payload shapes a DataItem can carry.
type DataType int

const (
	DataConstant DataType = iota
	DataString
	DataBuffer
	DataArray
)

// DataItem is one ordered entry in a SlotSpec's data section.
type DataItem struct {
	Name     string
	Type     DataType
	IntValue int64 // Constant
	StrValue string // String
	Size     int // Buffer
	IntArray []int64 // Array
}

// TestStep is one send/expect step of an end-to-end SlotSpec test scenario.
type TestStep struct {
	Send           string
	Expect         string
	ExpectContains string
	TimeoutMs      int
}

// TestScenario is an ordered sequence of send/expect steps over an opaque
// transport.
type TestScenario struct {
	Name  string
	Steps []TestStep
}

// SlotSpec is the skeleton + typed holes + data section + tests produced by
// either the Template Expander (rule path) or an LLM stub (LLM path).
type SlotSpec struct {
	Name        string
	Description string
	Protocol    string // protocol name, empty if not protocol-derived
	Template    string // template name that produced this spec, if any
	DataItems   []DataItem
	Skeleton    string
	Slots       []Slot
	Tests       []TestScenario
	Metadata    map[string]string
}

// NewSlotSpec returns an empty SlotSpec ready for incremental population by
// the Template Expander or an LLM-decomposition stub.
func NewSlotSpec(name, description string) SlotSpec {
	return SlotSpec{
		Name: name,
		Description: description,
		Metadata: make(map[string]string),
	}
}

func (s *SlotSpec) AddData(item DataItem) { s.DataItems = append(s.DataItems, item) }
func (s *SlotSpec) AddSlot(slot Slot) { s.Slots = append(s.Slots, slot) }
func (s *SlotSpec) AddTest(test TestScenario) { s.Tests = append(s.Tests, test) }

var slotMarkerRe = regexp.MustCompile(`\{\{([A-Za-z0-9_]+)\}\}`)

// SlotByID returns the slot with the given id, or false if absent.
func (s *SlotSpec) SlotByID(id string) (Slot, bool) {
	for _, slot := range s.Slots {
		if slot.ID == id {
			return slot, true
		}
	}
	return Slot{}, false
}

// MarkersInSkeleton returns every {{ID}} marker literally present in the
// skeleton, in order of first appearance, deduplicated.
func (s *SlotSpec) MarkersInSkeleton() []string {
	matches := slotMarkerRe.FindAllStringSubmatch(s.Skeleton, -1)
	seen := make(map[string]bool, len(matches))
	var ids []string
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			ids = append(ids, m[1])
		}
	}
	return ids
}

// CheckInvariants enforces the structural invariants a SlotSpec must hold
// regardless of how it was produced. It is the minimal data-model
// correctness the SlotSpec itself guarantees; the richer heuristic checks
// (reachability, dead ends, ...) live in the validator package.
func (s *SlotSpec) CheckInvariants() error {
	markers := make(map[string]bool)
	for _, id := range s.MarkersInSkeleton() {
		markers[id] = true
	}

	slotIDs := make(map[string]bool, len(s.Slots))
	for _, slot := range s.Slots {
		if slotIDs[slot.ID] {
			return fmt.Errorf("slotspec %q: duplicate slot id %q", s.Name, slot.ID)
		}
		slotIDs[slot.ID] = true
	}

	// Invariant 1: every marker matches some slot id.
	for marker := range markers {
		if !slotIDs[marker] {
			return fmt.Errorf("slotspec %q: skeleton marker {{%s}} has no matching slot", s.Name, marker)
		}
	}

	// Invariant 2: non-optional slots must appear in the skeleton exactly once.
	for _, slot := range s.Slots {
		if slot.Optional {
			continue
		}
		count := strings.Count(s.Skeleton, "{{"+slot.ID+"}}")
		if count != 1 {
			return fmt.Errorf("slotspec %q: non-optional slot %q appears %d times in skeleton (want 1)", s.Name, slot.ID, count)
		}
	}

	// Invariant 4: data item names unique.
	names := make(map[string]bool, len(s.DataItems))
	for _, item := range s.DataItems {
		if names[item.Name] {
			return fmt.Errorf("slotspec %q: duplicate data item name %q", s.Name, item.Name)
		}
		names[item.Name] = true
	}

	// Invariant 5: depends_on targets exist within the same spec.
	for _, slot := range s.Slots {
		for _, dep := range slot.DependsOn {
			if !slotIDs[dep] {
				return fmt.Errorf("slotspec %q: slot %q depends_on unknown slot %q", s.Name, slot.ID, dep)
			}
		}
	}

	return nil
}
