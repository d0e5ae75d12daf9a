package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/neurlang/internal/core/domain"
)

func u64() domain.TypeInfo { return domain.TypeInfo{Kind: domain.TypeU64} }

func TestAnalyze_ParamsGetSequentialRegisters(t *testing.T) {
	fn := domain.ParsedFunction{
		Name: "add",
		Params: []domain.Param{
			{Name: "a", Type: u64()},
			{Name: "b", Type: u64()},
		},
		Body: []domain.ParsedStmt{
			domain.ReturnStmt{Value: domain.BinaryExpr{Op: domain.OpAdd, Left: domain.VarExpr{Name: "a"}, Right: domain.VarExpr{Name: "b"}}},
		},
	}

	out, err := Analyze(fn)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Variables["a"].Register)
	assert.Equal(t, 1, out.Variables["b"].Register)
	assert.True(t, out.Variables["a"].IsParam)
	assert.Equal(t, 1, out.MaxRegister)
}

func TestAnalyze_ImmutableReassignmentFails(t *testing.T) {
	fn := domain.ParsedFunction{
		Name: "f",
		Body: []domain.ParsedStmt{
			domain.LetStmt{Name: "x", Mutable: false, Value: domain.IntLit{Value: 1}},
			domain.AssignStmt{Target: domain.VarExpr{Name: "x"}, Value: domain.IntLit{Value: 2}},
		},
	}

	_, err := Analyze(fn)
	require.Error(t, err)
	var analyzeErr *domain.AnalyzeError
	require.ErrorAs(t, err, &analyzeErr)
	assert.Equal(t, domain.AnalyzeImmutableAssignment, analyzeErr.Kind)
}

func TestAnalyze_DeferredInitializationPromotes(t *testing.T) {
	fn := domain.ParsedFunction{
		Name: "f",
		Body: []domain.ParsedStmt{
			domain.LetStmt{Name: "x", Mutable: false, Type: &domain.TypeInfo{Kind: domain.TypeU64}},
			domain.AssignStmt{Target: domain.VarExpr{Name: "x"}, Value: domain.IntLit{Value: 5}},
		},
	}

	out, err := Analyze(fn)
	require.NoError(t, err)
	assert.True(t, out.Variables["x"].IsInitialized)
}

func TestAnalyze_RegisterOverflow(t *testing.T) {
	var params []domain.Param
	for i := 0; i < 17; i++ {
		params = append(params, domain.Param{Name: string(rune('a' + i)), Type: u64()})
	}
	fn := domain.ParsedFunction{Name: "f", Params: params}

	_, err := Analyze(fn)
	require.Error(t, err)
	var analyzeErr *domain.AnalyzeError
	require.ErrorAs(t, err, &analyzeErr)
	assert.Equal(t, domain.AnalyzeRegisterOverflow, analyzeErr.Kind)
}

func TestAnalyze_ForLoopVariableIsMutableU64(t *testing.T) {
	fn := domain.ParsedFunction{
		Name: "f",
		Body: []domain.ParsedStmt{
			domain.ForStmt{
				Var: "i", Start: domain.IntLit{Value: 0}, End: domain.IntLit{Value: 10},
				Body: []domain.ParsedStmt{domain.ExprStmt{Expr: domain.VarExpr{Name: "i"}}},
			},
		},
	}

	out, err := Analyze(fn)
	require.NoError(t, err)
	assert.True(t, out.Variables["i"].IsMutable)
	assert.Equal(t, domain.TypeU64, out.Variables["i"].Type.Kind)
}

func TestAnalyze_ComparisonYieldsBool(t *testing.T) {
	fn := domain.ParsedFunction{
		Name:   "f",
		Params: []domain.Param{{Name: "a", Type: u64()}},
		Body: []domain.ParsedStmt{
			domain.LetStmt{Name: "ok", Value: domain.BinaryExpr{Op: domain.OpLt, Left: domain.VarExpr{Name: "a"}, Right: domain.IntLit{Value: 10}}},
		},
	}

	out, err := Analyze(fn)
	require.NoError(t, err)
	assert.Equal(t, domain.TypeBool, out.Variables["ok"].Type.Kind)
}
