// Package compiler orchestrates the Rust-Subset Parser, Analyzer, and Code
// Generator into a single source-to-assembly-text pipeline.
package compiler

import (
	"github.com/jeremyhahn/neurlang/internal/compiler/analyzer"
	"github.com/jeremyhahn/neurlang/internal/compiler/codegen"
	"github.com/jeremyhahn/neurlang/internal/compiler/parser"
	"github.com/jeremyhahn/neurlang/internal/core/domain"
)

// CompiledFunction is one function's full pipeline output.
type CompiledFunction struct {
	Parsed   domain.ParsedFunction
	Analyzed domain.AnalyzedFunction
	Instrs   []codegen.GeneratedInstr
	Assembly string
}

// Compile runs source through parse, analyze, and codegen, wrapping any
// stage failure in a domain.CompileError tagged with the stage it occurred
// in.
func Compile(source string) ([]CompiledFunction, error) {
	mod, err := parser.ParseModule(source)
	if err != nil {
		return nil, &domain.CompileError{Kind: domain.CompileParse, Detail: "parsing rust-subset source", Err: err}
	}

	out := make([]CompiledFunction, 0, len(mod.Functions))
	for _, fn := range mod.Functions {
		analyzed, err := analyzer.Analyze(fn)
		if err != nil {
			return nil, &domain.CompileError{Kind: domain.CompileAnalysis, Detail: "analyzing " + fn.Name, Err: err}
		}

		instrs, err := codegen.Generate(analyzed)
		if err != nil {
			return nil, &domain.CompileError{Kind: domain.CompileCodeGen, Detail: "generating code for " + fn.Name, Err: err}
		}

		out = append(out, CompiledFunction{
			Parsed: fn, Analyzed: analyzed, Instrs: instrs,
			Assembly: codegen.Serialize(instrs),
		})
	}

	return out, nil
}
