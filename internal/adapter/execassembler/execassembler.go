// Package execassembler binds the slot assembler's external assembler port
// (neither the encoding nor the instruction semantics are defined by the
// core) to a real out-of-process toolchain.
//
// The bound command is invoked once per Assemble call with the assembly
// text on stdin and must write a JSON program document (see wireProgram)
// to stdout.
package execassembler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/jeremyhahn/neurlang/internal/core/domain"
	"github.com/jeremyhahn/neurlang/internal/core/ports"
)

// wireInstruction is the JSON shape one instruction takes on the wire.
type wireInstruction struct {
	Opcode string `json:"opcode"`
	Mode   string `json:"mode"`
	Rd     string `json:"rd"`
	Rs1    string `json:"rs1"`
	Rs2    string `json:"rs2"`
	Imm    *int32 `json:"imm,omitempty"`
}

// wireProgram is what the bound external command must emit on stdout.
type wireProgram struct {
	Instructions []wireInstruction `json:"instructions"`
	Encoded      []byte            `json:"encoded"`
}

// Program adapts a decoded wireProgram to ports.ExternalProgram.
type Program struct {
	instrs  []domain.Instruction
	encoded []byte
}

func (p *Program) Instructions() []domain.Instruction { return p.instrs }
func (p *Program) Encode() ([]byte, error) { return p.encoded, nil }

// Assembler shells out to an external assembler binary for every Assemble
// call (the assembler is "deliberately out of scope... treated as
// an external collaborator").
type Assembler struct {
	Command string
	Args    []string
	Timeout time.Duration
}

// New returns an Assembler bound to the given command, defaulting Timeout
// to 10s if unset.
func New(command string, args ...string) *Assembler {
	return &Assembler{Command: command, Args: args, Timeout: 10 * time.Second}
}

// Assemble writes source to the bound command's stdin and decodes its
// stdout as a wireProgram.
func (a *Assembler) Assemble(source string) (ports.ExternalProgram, error) {
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, a.Command, a.Args...)
	cmd.Stdin = bytes.NewBufferString(source)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("execassembler: %s failed: %w (stderr: %s)", a.Command, err, stderr.String())
	}

	var wire wireProgram
	if err := json.Unmarshal(stdout.Bytes(), &wire); err != nil {
		return nil, fmt.Errorf("execassembler: decoding %s output: %w", a.Command, err)
	}

	instrs := make([]domain.Instruction, len(wire.Instructions))
	for i, w := range wire.Instructions {
		instrs[i] = domain.Instruction{
			Opcode: w.Opcode, Mode: w.Mode, Rd: w.Rd, Rs1: w.Rs1, Rs2: w.Rs2, Imm: w.Imm,
		}
	}

	return &Program{instrs: instrs, encoded: wire.Encoded}, nil
}
