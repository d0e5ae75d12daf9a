package compiler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_Factorial(t *testing.T) {
	src := `
pub fn factorial(n: u64) -> u64 {
    let mut acc: u64 = 1;
    let mut i: u64 = 1;
    while i <= n {
        acc = acc * i;
        i = i + 1;
    }
    return acc;
}
`
	compiled, err := Compile(src)
	require.NoError(t, err)
	require.Len(t, compiled, 1)

	fn := compiled[0]
	assert.Equal(t, "factorial", fn.Parsed.Name)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(fn.Assembly), "halt"))
	assert.Contains(t, fn.Assembly, "mul")
	assert.Contains(t, fn.Assembly, "bgt")
}

func TestCompile_StrlenNoShlForBytePointer(t *testing.T) {
	src := `
pub unsafe fn strlen(p: *const u8) -> u64 {
    let mut n: u64 = 0;
    let mut cur: *const u8 = p;
    while *cur != 0 {
        cur = cur.add(1);
        n = n + 1;
    }
    return n;
}
`
	compiled, err := Compile(src)
	require.NoError(t, err)
	require.Len(t, compiled, 1)
	assert.NotContains(t, compiled[0].Assembly, "shl")
}

func TestCompile_RejectsMacros(t *testing.T) {
	src := `
pub fn bad() -> u64 {
    println!("nope");
    0
}
`
	_, err := Compile(src)
	require.Error(t, err)
}
