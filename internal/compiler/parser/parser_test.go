package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/neurlang/internal/core/domain"
)

func TestParseModule_SimpleFunction(t *testing.T) {
	src := `
pub fn add(a: u64, b: u64) -> u64 {
    a + b
}
`
	mod, err := ParseModule(src)
	require.NoError(t, err)
	require.Len(t, mod.Functions, 1)

	fn := mod.Functions[0]
	assert.Equal(t, "add", fn.Name)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "a", fn.Params[0].Name)
	assert.Equal(t, domain.TypeU64, fn.Params[0].Type.Kind)
	require.NotNil(t, fn.ReturnType)
	assert.Equal(t, domain.TypeU64, fn.ReturnType.Kind)
	require.Len(t, fn.Body, 1)

	ret, ok := fn.Body[0].(domain.ReturnStmt)
	require.True(t, ok)
	bin, ok := ret.Value.(domain.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, domain.OpAdd, bin.Op)
}

func TestParseModule_SkipsTestFunctions(t *testing.T) {
	src := `
pub fn test_add() -> u64 {
    1
}
pub fn real_fn() -> u64 {
    2
}
`
	mod, err := ParseModule(src)
	require.NoError(t, err)
	require.Len(t, mod.Functions, 1)
	assert.Equal(t, "real_fn", mod.Functions[0].Name)
}

func TestParseModule_ControlFlow(t *testing.T) {
	src := `
pub fn fact(n: u64) -> u64 {
    let mut acc: u64 = 1;
    let mut i: u64 = 1;
    while i <= n {
        acc = acc * i;
        i = i + 1;
    }
    return acc;
}
`
	mod, err := ParseModule(src)
	require.NoError(t, err)
	require.Len(t, mod.Functions, 1)

	fn := mod.Functions[0]
	require.Len(t, fn.Body, 4)
	_, isLet := fn.Body[0].(domain.LetStmt)
	assert.True(t, isLet)
	whileStmt, ok := fn.Body[2].(domain.WhileStmt)
	require.True(t, ok)
	require.Len(t, whileStmt.Body, 2)
}

func TestParseModule_ForRange(t *testing.T) {
	src := `
pub fn sum_to(n: u64) -> u64 {
    let mut total: u64 = 0;
    for i in 0..=n {
        total = total + i;
    }
    return total;
}
`
	mod, err := ParseModule(src)
	require.NoError(t, err)
	fn := mod.Functions[0]
	forStmt, ok := fn.Body[1].(domain.ForStmt)
	require.True(t, ok)
	assert.Equal(t, "i", forStmt.Var)
	assert.True(t, forStmt.Inclusive)
}

func TestParseModule_NeurlangMetadata(t *testing.T) {
	src := `
/// Computes the GCD of two integers.
///
/// # Prompts
/// - Compute the greatest common divisor
/// - Find gcd(a, b)
///
/// # Parameters
/// - a=r0 "first operand"
/// - b=r1 "second operand"
///
/// - Category: math
/// - Difficulty: 2
pub fn gcd(a: u64, b: u64) -> u64 {
    return a;
}
`
	mod, err := ParseModule(src)
	require.NoError(t, err)
	require.Len(t, mod.Functions, 1)

	meta := mod.Functions[0].Metadata
	assert.Equal(t, "math", meta.Category)
	assert.Equal(t, "2", meta.Difficulty)
	assert.Len(t, meta.Prompts, 2)
	require.Len(t, meta.ParamDocs, 2)
	assert.Equal(t, "a", meta.ParamDocs[0].Name)
	assert.Equal(t, "r0", meta.ParamDocs[0].Register)
	assert.Equal(t, "first operand", meta.ParamDocs[0].Description)
}

func TestParseModule_PointerTypes(t *testing.T) {
	src := `
pub unsafe fn strlen(p: *const u8) -> u64 {
    let mut n: u64 = 0;
    while *p.add(n) != 0 {
        n = n + 1;
    }
    return n;
}
`
	mod, err := ParseModule(src)
	require.NoError(t, err)
	fn := mod.Functions[0]
	require.Len(t, fn.Params, 1)
	assert.Equal(t, domain.TypePtr, fn.Params[0].Type.Kind)
	require.NotNil(t, fn.Params[0].Type.Elem)
	assert.Equal(t, domain.TypeU8, fn.Params[0].Type.Elem.Kind)
}
