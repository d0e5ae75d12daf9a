// Package datagen implements the Training-Data Generator: a
// ChaCha8-seeded family of category emitters that synthesize
// (prompt, assembly) pairs, packaged into either the Legacy or Parallel
// JSONL shape, validated against an external assembler before being kept.
package datagen

import (
	"fmt"
	"math/rand/v2"

	"github.com/jeremyhahn/neurlang/internal/core/domain"
	"github.com/jeremyhahn/neurlang/internal/core/ports"
)

// Shape selects the output record format.
type Shape int

const (
	ShapeLegacy Shape = iota
	ShapeParallel
)

// Config controls one generation run.
type Config struct {
	Seed  uint64
	Level int // 1..5, gates which categories are drawn from
	Shape Shape
	Count int
}

// curriculum maps a level to the categories unlocked at that level and
// below.
var curriculum = map[int][]domain.TrainingCategory{
	1: {domain.CatArithmetic},
	2: {domain.CatArithmetic, domain.CatConditionals},
	3: {domain.CatArithmetic, domain.CatConditionals, domain.CatLoops, domain.CatMemory, domain.CatIntrinsics, domain.CatFPU},
	4: {domain.CatArithmetic, domain.CatConditionals, domain.CatLoops, domain.CatMemory, domain.CatIntrinsics, domain.CatFPU,
		domain.CatFunctions, domain.CatAlgorithms, domain.CatStdlib},
	5: {domain.CatArithmetic, domain.CatConditionals, domain.CatLoops, domain.CatMemory, domain.CatIntrinsics, domain.CatFPU,
		domain.CatFunctions, domain.CatAlgorithms, domain.CatStdlib,
		domain.CatConcurrency, domain.CatSecurity, domain.CatIO, domain.CatExtensions, domain.CatCrypto},
}

// emitted is one synthesized example before validation and shaping.
type emitted struct {
	prompt         string
	assembly       string
	expectedOutput *int64
	category       domain.TrainingCategory
}

// emitterFunc draws one example using rng.
type emitterFunc func(rng *rand.Rand) emitted

var emitters = map[domain.TrainingCategory]emitterFunc{
	domain.CatArithmetic:   emitArithmetic,
	domain.CatConditionals: emitConditional,
	domain.CatLoops:        emitLoop,
	domain.CatMemory:       emitMemory,
	domain.CatIntrinsics:   emitIntrinsic,
	domain.CatFPU:          emitFPU,
	domain.CatFunctions:    emitFunction,
	domain.CatAlgorithms:   emitAlgorithm,
	domain.CatStdlib:       emitStdlib,
	domain.CatConcurrency:  emitConcurrency,
	domain.CatSecurity:     emitSecurity,
	domain.CatIO:           emitIO,
	domain.CatExtensions:   emitExtension,
	domain.CatCrypto:       emitCrypto,
}

// Stats reports how many synthesized examples were discarded by
// assembler validation.
type Stats struct {
	Generated int
	Discarded int
}

// Generator drives the category emitters and validates their output
// through an external assembler: each synthesized example is validated,
// failures are counted, and the example is discarded.
type Generator struct {
	cfg       Config
	assembler ports.Assembler
	rng       *rand.Rand
	Stats     Stats
}

func New(cfg Config, assembler ports.Assembler) *Generator {
	return &Generator{cfg: cfg, assembler: assembler, rng: newRNG(cfg.Seed)}
}

// GenerateLegacy produces up to cfg.Count LegacyExample records.
func (g *Generator) GenerateLegacy() ([]domain.LegacyExample, error) {
	if g.cfg.Shape != ShapeLegacy {
		return nil, fmt.Errorf("datagen: generator configured for parallel shape")
	}
	cats := g.allowedCategories()
	out := make([]domain.LegacyExample, 0, g.cfg.Count)

	for len(out) < g.cfg.Count {
		cat := cats[g.rng.IntN(len(cats))]
		ex := emitters[cat](g.rng)
		g.Stats.Generated++

		if _, err := g.assembler.Assemble(ex.assembly); err != nil {
			g.Stats.Discarded++
			continue
		}

		out = append(out, domain.LegacyExample{
			Prompt: ex.prompt, BinaryIR: []byte(ex.assembly),
			Assembly: ex.assembly, ExpectedOutput: ex.expectedOutput,
			Level: g.cfg.Level, Category: string(ex.category),
		})
	}
	return out, nil
}

// GenerateParallel produces up to cfg.Count ParallelExample records.
func (g *Generator) GenerateParallel() ([]domain.ParallelExample, error) {
	if g.cfg.Shape != ShapeParallel {
		return nil, fmt.Errorf("datagen: generator configured for legacy shape")
	}
	cats := g.allowedCategories()
	out := make([]domain.ParallelExample, 0, g.cfg.Count)

	for len(out) < g.cfg.Count {
		cat := cats[g.rng.IntN(len(cats))]
		ex := emitters[cat](g.rng)
		g.Stats.Generated++

		prog, err := g.assembler.Assemble(ex.assembly)
		if err != nil {
			g.Stats.Discarded++
			continue
		}

		var tests []domain.TestCase
		if ex.expectedOutput != nil {
			tests = []domain.TestCase{{Input: nil, Expected: *ex.expectedOutput}}
		}

		out = append(out, domain.ParallelExample{
			Context: ex.prompt,
			Instructions: packInstructions(prog.Instructions()),
			TestCases: tests,
			Category: string(ex.category),
		})
	}
	return out, nil
}

func (g *Generator) allowedCategories() []domain.TrainingCategory {
	level := g.cfg.Level
	if level < 1 {
		level = 1
	}
	if level > 5 {
		level = 5
	}
	return curriculum[level]
}

// packInstructions packs an assembled program's instructions into the
// fixed 64-slot tensor shape, padding with {valid:0} entries and
// truncating anything beyond the slot count.
func packInstructions(instrs []domain.Instruction) [domain.MaxParallelSlots]domain.InstructionData {
	var out [domain.MaxParallelSlots]domain.InstructionData
	for i := 0; i < domain.MaxParallelSlots && i < len(instrs); i++ {
		in := instrs[i]
		data := domain.InstructionData{
			Valid: true, Opcode: opcodeID(in.Opcode), Mode: modeID(in.Mode),
			Rd: registerID(in.Rd), Rs1: registerID(in.Rs1), Rs2: registerID(in.Rs2),
		}
		if in.Imm != nil {
			data.HasImm = true
			data.ImmBin = immBin(int64(*in.Imm))
		}
		out[i] = data
	}
	return out
}

// opcodes is a fixed ordinal assignment used only to pack mnemonics into a
// tensor byte; unrecognized opcodes fall back to 0xFF ("unknown").
var opcodes = []string{
	"mov", "add", "sub", "mul", "div", "rem", "and", "or", "xor", "shl", "shr",
	"neg", "eqz", "nez", "load", "store", "beq", "bne", "blt", "ble", "bgt", "bge",
	"beqz", "bnez", "b", "call", "halt", "trap", "fadd", "fsub", "fmul", "fdiv",
	"fcmp", "fmov", "bits.popcount", "bits.clz", "bits.ctz", "bits.bswap", "bits.from_bits",
}

func opcodeID(name string) uint8 {
	for i, op := range opcodes {
		if op == name {
			return uint8(i)
		}
	}
	return 0xFF
}

func modeID(mode string) uint8 {
	switch mode {
	case "", "reg":
		return 0
	case "imm":
		return 1
	case "b":
		return 2
	case "w":
		return 3
	default:
		return 0xFF
	}
}

// registerID parses a register operand name ("r5", "zero",...) into its
// numeric slot; symbolic names map to fixed high slots out of the r0..r15
// range.
func registerID(name string) uint8 {
	switch name {
	case "":
		return 0
	case domain.RegZero:
		return 253
	case domain.RegSP:
		return 254
	case domain.RegFP, domain.RegLR, domain.RegPC, domain.RegCSP, domain.RegCFP:
		return 255
	}
	var n int
	if _, err := fmt.Sscanf(name, "r%d", &n); err == nil {
		return uint8(n)
	}
	return 252
}
