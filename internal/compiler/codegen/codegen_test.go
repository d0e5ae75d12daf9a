package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/neurlang/internal/compiler/analyzer"
	"github.com/jeremyhahn/neurlang/internal/core/domain"
)

func mustAnalyze(t *testing.T, fn domain.ParsedFunction) domain.AnalyzedFunction {
	t.Helper()
	out, err := analyzer.Analyze(fn)
	require.NoError(t, err)
	return out
}

func TestGenerate_EndsInHalt(t *testing.T) {
	fn := mustAnalyze(t, domain.ParsedFunction{
		Name: "f",
		Body: []domain.ParsedStmt{domain.ReturnStmt{Value: domain.IntLit{Value: 1}}},
	})

	instrs, err := Generate(fn)
	require.NoError(t, err)
	require.NotEmpty(t, instrs)
	assert.Equal(t, "halt", instrs[len(instrs)-1].Instr)
}

func TestGenerate_DoesNotDoubleHalt(t *testing.T) {
	fn := mustAnalyze(t, domain.ParsedFunction{
		Name: "f",
		Body: []domain.ParsedStmt{domain.ReturnStmt{Value: domain.IntLit{Value: 1}}},
	})

	instrs, err := Generate(fn)
	require.NoError(t, err)

	haltCount := 0
	for _, in := range instrs {
		if in.Instr == "halt" {
			haltCount++
		}
	}
	assert.Equal(t, 1, haltCount)
}

func TestGenerate_WhileLoopEmitsLabelsAndBranches(t *testing.T) {
	fn := mustAnalyze(t, domain.ParsedFunction{
		Name:   "f",
		Params: []domain.Param{{Name: "n", Type: domain.TypeInfo{Kind: domain.TypeU64}}},
		Body: []domain.ParsedStmt{
			domain.LetStmt{Name: "i", Mutable: true, Value: domain.IntLit{Value: 0}},
			domain.WhileStmt{
				Cond: domain.BinaryExpr{Op: domain.OpLt, Left: domain.VarExpr{Name: "i"}, Right: domain.VarExpr{Name: "n"}},
				Body: []domain.ParsedStmt{
					domain.AssignStmt{Target: domain.VarExpr{Name: "i"}, Value: domain.BinaryExpr{Op: domain.OpAdd, Left: domain.VarExpr{Name: "i"}, Right: domain.IntLit{Value: 1}}},
				},
			},
		},
	})

	instrs, err := Generate(fn)
	require.NoError(t, err)

	var labels, branches int
	for _, in := range instrs {
		if in.Label != "" {
			labels++
		}
		if in.BranchTarget != "" {
			branches++
		}
	}
	assert.Equal(t, 2, labels)
	assert.GreaterOrEqual(t, branches, 2)
}

func TestGenerate_PointerAddScalesByElemSize(t *testing.T) {
	u8ptr := domain.TypeInfo{Kind: domain.TypePtr, Elem: &domain.TypeInfo{Kind: domain.TypeU8}}
	fn := mustAnalyze(t, domain.ParsedFunction{
		Name:   "f",
		Params: []domain.Param{{Name: "p", Type: u8ptr}, {Name: "n", Type: domain.TypeInfo{Kind: domain.TypeU64}}},
		Body: []domain.ParsedStmt{
			domain.ReturnStmt{Value: domain.MethodCallExpr{Receiver: domain.VarExpr{Name: "p"}, Method: "add", Args: []domain.ParsedExpr{domain.VarExpr{Name: "n"}}}},
		},
	})

	instrs, err := Generate(fn)
	require.NoError(t, err)

	for _, in := range instrs {
		assert.NotContains(t, in.Instr, "shl")
	}
}

func TestGenerate_PointerAddScalesU64Stride(t *testing.T) {
	u64ptr := domain.TypeInfo{Kind: domain.TypePtr, Elem: &domain.TypeInfo{Kind: domain.TypeU64}}
	fn := mustAnalyze(t, domain.ParsedFunction{
		Name:   "f",
		Params: []domain.Param{{Name: "p", Type: u64ptr}, {Name: "n", Type: domain.TypeInfo{Kind: domain.TypeU64}}},
		Body: []domain.ParsedStmt{
			domain.ReturnStmt{Value: domain.MethodCallExpr{Receiver: domain.VarExpr{Name: "p"}, Method: "add", Args: []domain.ParsedExpr{domain.VarExpr{Name: "n"}}}},
		},
	})

	instrs, err := Generate(fn)
	require.NoError(t, err)

	found := false
	for _, in := range instrs {
		if strings.Contains(in.Instr, "shl") && strings.Contains(in.Instr, "3") {
			found = true
		}
	}
	assert.True(t, found, "expected a shl by 3 (log2(8)) for u64 pointer stride")
}

func TestGenerate_IntrinsicEmitsBitsOpcode(t *testing.T) {
	fn := mustAnalyze(t, domain.ParsedFunction{
		Name:   "f",
		Params: []domain.Param{{Name: "x", Type: domain.TypeInfo{Kind: domain.TypeU64}}},
		Body: []domain.ParsedStmt{
			domain.ReturnStmt{Value: domain.CallExpr{Func: "popcount", Args: []domain.ParsedExpr{domain.VarExpr{Name: "x"}}}},
		},
	})

	instrs, err := Generate(fn)
	require.NoError(t, err)

	found := false
	for _, in := range instrs {
		if strings.Contains(in.Instr, "bits.popcount") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestSerialize_ResolvesLabelsAndBranches(t *testing.T) {
	instrs := []GeneratedInstr{
		{Instr: "mov r0, 1"},
		{Instr: "b", BranchTarget: ".end"},
		{Label: ".end"},
		{Instr: "halt"},
	}
	out := Serialize(instrs)
	assert.Contains(t, out, "mov r0, 1")
	assert.Contains(t, out, "b .end")
	assert.Contains(t, out, ".end:")
	assert.Contains(t, out, "halt")
}
