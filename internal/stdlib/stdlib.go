// Package stdlib holds the small library of Neurlang-subset source
// functions bundled with the pipeline: math and array helpers
// that compile through the same parser/analyzer/codegen pipeline as
// user-authored source. Metadata returns their doc-comment metadata; the
// training-data generator does not read it.
//
// Condensed to the subset internal/compiler/parser accepts.
package stdlib

import (
	_ "embed"
	"sort"

	"github.com/jeremyhahn/neurlang/internal/compiler"
	"github.com/jeremyhahn/neurlang/internal/core/domain"
)

//go:embed sources/math.rs
var mathSource string

//go:embed sources/array.rs
var arraySource string

// Sources maps a library file name to its embedded source text.
var Sources = map[string]string{
	"math.rs": mathSource,
	"array.rs": arraySource,
}

// Function pairs one compiled stdlib function with the file it came from.
type Function struct {
	File     string
	Compiled compiler.CompiledFunction
}

// Build compiles every bundled source file and returns every accepted
// function across all of them, in file-name order. A syntax error in one
// file is returned immediately rather than partially compiling.
func Build() ([]Function, error) {
	names := make([]string, 0, len(Sources))
	for name := range Sources {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []Function
	for _, name := range names {
		compiled, err := compiler.Compile(Sources[name])
		if err != nil {
			return nil, err
		}
		for _, fn := range compiled {
			out = append(out, Function{File: name, Compiled: fn})
		}
	}
	return out, nil
}

// Metadata returns the Neurlang doc-comment metadata for every bundled
// function that declares any, keyed by function name.
func Metadata() (map[string]domain.NeurlangMetadata, error) {
	fns, err := Build()
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.NeurlangMetadata, len(fns))
	for _, fn := range fns {
		out[fn.Compiled.Parsed.Name] = fn.Compiled.Parsed.Metadata
	}
	return out, nil
}
