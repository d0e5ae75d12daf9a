package stdlib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_CompilesAllSources(t *testing.T) {
	fns, err := Build()
	require.NoError(t, err)
	require.NotEmpty(t, fns)

	names := make(map[string]string, len(fns))
	for _, fn := range fns {
		names[fn.Compiled.Parsed.Name] = fn.File
	}

	assert.Equal(t, "math.rs", names["factorial"])
	assert.Equal(t, "math.rs", names["fibonacci"])
	assert.Equal(t, "math.rs", names["gcd"])
	assert.Equal(t, "math.rs", names["lcm"])
	assert.Equal(t, "array.rs", names["sum"])
	assert.Equal(t, "array.rs", names["reverse"])
}

func TestBuild_FileOrderIsSorted(t *testing.T) {
	fns, err := Build()
	require.NoError(t, err)

	sawMath := false
	for _, fn := range fns {
		if fn.File == "math.rs" {
			sawMath = true
		}
		if fn.File == "array.rs" {
			assert.False(t, sawMath, "array.rs functions must come before math.rs in sorted order")
		}
	}
}

// reverse exercises the pointer-deref assignment codegen path
// (*ptr.add(lo) = *ptr.add(hi);), so a successful Build is itself the
// regression check for it. The bundled sources carry no attributes, so
// attribute skipping is not exercised here.
func TestBuild_ReverseCompiles(t *testing.T) {
	fns, err := Build()
	require.NoError(t, err)

	for _, fn := range fns {
		if fn.Compiled.Parsed.Name == "reverse" {
			assert.NotEmpty(t, fn.Compiled.Instrs)
			assert.NotEmpty(t, fn.Compiled.Assembly)
			return
		}
	}
	t.Fatal("reverse not found in compiled stdlib functions")
}

func TestMetadata_FactorialHasPromptsAndParams(t *testing.T) {
	meta, err := Metadata()
	require.NoError(t, err)

	factorial, ok := meta["factorial"]
	require.True(t, ok)
	assert.Equal(t, "algorithm/math", factorial.Category)
	assert.Equal(t, "2", factorial.Difficulty)
	assert.NotEmpty(t, factorial.Prompts)
	require.Len(t, factorial.ParamDocs, 1)
	assert.Equal(t, "n", factorial.ParamDocs[0].Name)
	assert.Equal(t, "r0", factorial.ParamDocs[0].Register)
}

func TestMetadata_SumHasArrayParams(t *testing.T) {
	meta, err := Metadata()
	require.NoError(t, err)

	sum, ok := meta["sum"]
	require.True(t, ok)
	assert.Equal(t, "array", sum.Category)
	require.Len(t, sum.ParamDocs, 2)
	assert.Equal(t, "arr", sum.ParamDocs[0].Name)
	assert.Equal(t, "len", sum.ParamDocs[1].Name)
}
