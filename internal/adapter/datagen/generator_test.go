package datagen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/neurlang/internal/core/domain"
	"github.com/jeremyhahn/neurlang/internal/core/ports"
)

// stubAssembler succeeds with a program of no instructions, or fails every
// call when fail is set; it exercises the generator without requiring a
// real external assembler.
type stubAssembler struct {
	fail bool
}

type stubProgram struct{}

func (stubProgram) Instructions() []domain.Instruction { return nil }
func (stubProgram) Encode() ([]byte, error)             { return nil, nil }

func (s stubAssembler) Assemble(source string) (ports.ExternalProgram, error) {
	if s.fail {
		return nil, assert.AnError
	}
	return stubProgram{}, nil
}

func TestImmBin_IdentityRange(t *testing.T) {
	assert.Equal(t, uint8(0), immBin(0))
	assert.Equal(t, uint8(127), immBin(127))
}

func TestImmBin_NegativeFold(t *testing.T) {
	assert.Equal(t, uint8(255), immBin(-1))
	assert.Equal(t, uint8(128), immBin(-128))
}

func TestImmBin_LogarithmicBin(t *testing.T) {
	got := immBin(1000)
	assert.GreaterOrEqual(t, got, uint8(128))
	assert.LessOrEqual(t, got, uint8(128+15))
}

func TestAllowedCategories_Level1OnlyArithmetic(t *testing.T) {
	g := &Generator{cfg: Config{Level: 1}}
	cats := g.allowedCategories()
	assert.Equal(t, []domain.TrainingCategory{domain.CatArithmetic}, cats)
}

func TestAllowedCategories_ClampsOutOfRange(t *testing.T) {
	g := &Generator{cfg: Config{Level: 99}}
	assert.Len(t, g.allowedCategories(), 14)

	g = &Generator{cfg: Config{Level: -3}}
	assert.Len(t, g.allowedCategories(), 1)
}

func TestEmitArithmetic_Deterministic(t *testing.T) {
	rng := newRNG(42)
	ex := emitArithmetic(rng)
	require.Equal(t, domain.CatArithmetic, ex.category)
	require.NotNil(t, ex.expectedOutput)
	assert.Contains(t, ex.assembly, "halt")
	assert.Equal(t, ex, emitArithmetic(newRNG(42)))
}

func TestOpcodeID_UnknownFallsBack(t *testing.T) {
	assert.Equal(t, uint8(0xFF), opcodeID("not-a-real-opcode"))
	assert.Equal(t, uint8(0), opcodeID("mov"))
}

func TestRegisterID_NamedAndNumbered(t *testing.T) {
	assert.Equal(t, uint8(5), registerID("r5"))
	assert.Equal(t, uint8(253), registerID(domain.RegZero))
	assert.Equal(t, uint8(0), registerID(""))
}

func TestGenerateLegacy_KeepsEveryAssembledExample(t *testing.T) {
	g := New(Config{Seed: 7, Level: 1, Shape: ShapeLegacy, Count: 3}, stubAssembler{})
	out, err := g.GenerateLegacy()
	require.NoError(t, err)
	assert.Len(t, out, 3)
	assert.Equal(t, 3, g.Stats.Generated)
	assert.Equal(t, 0, g.Stats.Discarded)

	g = New(Config{Seed: 7, Level: 1, Shape: ShapeLegacy, Count: 0}, stubAssembler{fail: true})
	out, err = g.GenerateLegacy()
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestPackInstructions_PadsAndTruncates(t *testing.T) {
	instrs := []domain.Instruction{
		{Opcode: "add", Rd: "r0", Rs1: "r0", Rs2: "r1"},
	}
	packed := packInstructions(instrs)
	assert.True(t, packed[0].Valid)
	assert.False(t, packed[1].Valid)

	long := make([]domain.Instruction, domain.MaxParallelSlots+5)
	packed = packInstructions(long)
	assert.True(t, packed[domain.MaxParallelSlots-1].Valid)
}
