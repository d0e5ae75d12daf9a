package execassembler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAssemble_InvalidOutputErrors uses `cat` as the bound command: stdin is
// echoed to stdout verbatim, so this exercises the process plumbing without
// needing a real assembler binary on the test runner. Since `cat`'s output
// is not JSON, decoding is expected to fail - this pins the error path.
func TestAssemble_InvalidOutputErrors(t *testing.T) {
	a := New("cat")
	_, err := a.Assemble("mov r0, 1\nhalt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execassembler")
}

func TestAssemble_MissingCommandErrors(t *testing.T) {
	a := New("definitely-not-a-real-binary-xyz")
	_, err := a.Assemble("halt")
	require.Error(t, err)
}

func TestNew_DefaultsTimeout(t *testing.T) {
	a := New("cat")
	assert.Positive(t, a.Timeout)
}
