// Package ports declares the interfaces that separate the slot pipeline's
// core from its external collaborators ("deliberately out of
// scope... treated as external collaborators with stated interfaces") and
// the pluggable pieces within the core itself (backends, cache).
package ports

import (
	"context"
	"time"

	"github.com/jeremyhahn/neurlang/internal/core/domain"
)

// ExternalProgram is what the external assembler's Program exposes. Neither
// the encoding nor the instruction semantics are defined here - only the
// surface this module depends on.
type ExternalProgram interface {
	Instructions() []domain.Instruction
	Encode() ([]byte, error)
}

// Assembler is the external textual-assembly -> Program step.
// It is NOT implemented by this module; a concrete binding lives outside the
// core and is supplied to the Verifier.
type Assembler interface {
	Assemble(source string) (ExternalProgram, error)
}

// VM is the external execution contract the Verifier drives a synthesized
// test program through: this core never stubs it to succeed
// unconditionally - a real binding must actually execute.
type VM interface {
	Run(ctx context.Context, prog ExternalProgram, maxInstructions int) (regs map[string]int64, mem func(addr int) byte, trapped bool, err error)
}

// SlotFillerBackend is the pluggable slot-code generator interface.
// Implementations must be synchronous from the core's point of view;
// an intrinsically async backend (an LLM call) adapts at its own boundary.
type SlotFillerBackend interface {
	Name() string
	IsAvailable() bool
	FillSlot(ctx context.Context, slot domain.Slot) (string, error)
	// FillBatch processes slots in order and returns code in the same
	// order. The default backend behaviour is sequential; a backend that
	// can batch (a GPU, a server-side model) overrides it.
	FillBatch(ctx context.Context, slots []domain.Slot) ([]string, error)
}

// CacheEntry is one stored slot-code line in the Slot Cache.
type CacheEntry struct {
	Code        string
	CreatedAt   time.Time
	AccessCount int64
	LastAccess  time.Time
}

// CacheStats mirrors statistics block.
type CacheStats struct {
	Lookups     int64
	Hits        int64
	Misses      int64
	Entries     int
	MemoryBytes int64
	Evictions   int64
}

func (s CacheStats) HitRate() float64 {
	if s.Lookups == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Lookups)
}

// SlotCache is the LRU cache port threaded explicitly through the filler -
// no singletons ("global state").
type SlotCache interface {
	Get(key uint64) (CacheEntry, bool)
	Put(key uint64, code string) error
	Clear()
	Stats() CacheStats
	Save(path string) error
	Load(path string) error
}
