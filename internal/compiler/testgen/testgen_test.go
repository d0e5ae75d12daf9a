package testgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/neurlang/internal/core/domain"
)

func TestGenerateFromDoc_ParsesCallLines(t *testing.T) {
	meta := domain.NeurlangMetadata{
		ParamDocs: []domain.ParamDoc{{Name: "n", Register: "r0"}},
		TestLines: []string{"factorial(0) = 1", "factorial(5) = 120"},
	}

	tests := GenerateFromDoc("factorial", meta)
	require.Len(t, tests, 2)
	assert.Equal(t, RegValue{"r0", 0}, tests[0].Inputs[0])
	assert.Equal(t, RegValue{"r0", 1}, tests[0].Outputs[0])
	assert.Equal(t, RegValue{"r0", 120}, tests[1].Outputs[0])
}

func TestGenerateFromDoc_ParsesStringArgs(t *testing.T) {
	meta := domain.NeurlangMetadata{
		TestLines: []string{`strlen("hello") = 5`},
	}

	tests := GenerateFromDoc("strlen", meta)
	require.Len(t, tests, 1)
	require.Len(t, tests[0].Memory, 1)
	assert.Equal(t, "hello", tests[0].Memory[0].Data)
	assert.Equal(t, tests[0].Memory[0].Address, tests[0].Inputs[0].Value)
}

func TestGenerateFromDoc_ParsesInlineArrow(t *testing.T) {
	meta := domain.NeurlangMetadata{TestLines: []string{"5, 3 -> 8"}}

	tests := GenerateFromDoc("add", meta)
	require.Len(t, tests, 1)
	assert.Equal(t, uint64(5), tests[0].Inputs[0].Value)
	assert.Equal(t, uint64(3), tests[0].Inputs[1].Value)
	assert.Equal(t, uint64(8), tests[0].Outputs[0].Value)
}

func TestGenerateFromDoc_FallsBackToDefaults(t *testing.T) {
	tests := GenerateFromDoc("gcd", domain.NeurlangMetadata{})
	require.NotEmpty(t, tests)
	assert.Equal(t, RegValue{"r0", 48}, tests[0].Inputs[0])
}

func TestGenerateDefaults_UnknownFunctionUsesParamCount(t *testing.T) {
	assert.Len(t, GenerateDefaults("totally_unknown", 1), 1)
	assert.Len(t, GenerateDefaults("totally_unknown", 2), 1)
	assert.Nil(t, GenerateDefaults("totally_unknown", 3))
}
