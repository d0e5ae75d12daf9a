// Package analyzer implements the Rust-Subset Analyzer:
// scope tracking, register allocation, mutability checking, and type
// inference over the parser's typed AST.
package analyzer

import (
	"github.com/jeremyhahn/neurlang/internal/core/domain"
)

const maxRegisters = 16

// stdlibReturnTypes is the fixed table of call/method-call return types
// (item 4). Entries not listed default to U64.
var stdlibReturnTypes = map[string]domain.TypeKind{
	"gcd": domain.TypeU64, "lcm": domain.TypeU64,
	"sqrt": domain.TypeF64, "abs": domain.TypeF64, "pow": domain.TypeF64,
	"floor": domain.TypeF64, "ceil": domain.TypeF64, "round": domain.TypeF64,
	"popcount": domain.TypeU64, "clz": domain.TypeU64, "ctz": domain.TypeU64,
	"bswap": domain.TypeU64, "from_bits": domain.TypeF64, "to_bits": domain.TypeU64,
	"len": domain.TypeU64, "push": domain.TypeUnit, "pop": domain.TypeU64,
	"add": domain.TypeU64, "offset": domain.TypeU64, "read": domain.TypeU64, "write": domain.TypeUnit,
}

// scope is one lexical level of name → Variable bindings.
type scope struct {
	vars map[string]domain.Variable
}

// Analyzer walks one function's body, allocating registers and inferring
// types as it goes.
type Analyzer struct {
	scopes    []scope
	closed    map[string]domain.Variable
	nextReg   int
	maxReg    int
	loopDepth int
}

func New() *Analyzer { return &Analyzer{closed: make(map[string]domain.Variable)} }

// Analyze runs the full pipeline over fn and returns the enriched function.
func Analyze(fn domain.ParsedFunction) (domain.AnalyzedFunction, error) {
	a := New()
	a.pushScope()
	defer a.popScope()

	vars := make(map[string]domain.Variable)

	for _, param := range fn.Params {
		reg, err := a.allocRegister()
		if err != nil {
			return domain.AnalyzedFunction{}, err
		}
		v := domain.Variable{Type: param.Type, Register: reg, IsMutable: false, IsParam: true, IsInitialized: true}
		a.declare(param.Name, v)
		vars[param.Name] = v
	}

	if err := a.analyzeStmts(fn.Body); err != nil {
		return domain.AnalyzedFunction{}, err
	}

	for name, v := range a.allVars() {
		vars[name] = v
	}

	return domain.AnalyzedFunction{Function: fn, Variables: vars, MaxRegister: a.maxReg}, nil
}

func (a *Analyzer) pushScope() { a.scopes = append(a.scopes, scope{vars: make(map[string]domain.Variable)}) }
func (a *Analyzer) popScope() {
	for k, v := range a.scopes[len(a.scopes)-1].vars {
		a.closed[k] = v
	}
	a.scopes = a.scopes[:len(a.scopes)-1]
}

func (a *Analyzer) declare(name string, v domain.Variable) {
	a.scopes[len(a.scopes)-1].vars[name] = v
}

// allVars flattens the bindings of every scope already closed plus every
// scope still on the stack (only the function-level scope remains once
// analysis completes) into a single map for the returned AnalyzedFunction.
// A live binding wins over a closed one of the same name.
func (a *Analyzer) allVars() map[string]domain.Variable {
	out := make(map[string]domain.Variable, len(a.closed))
	for k, v := range a.closed {
		out[k] = v
	}
	for _, s := range a.scopes {
		for k, v := range s.vars {
			out[k] = v
		}
	}
	return out
}

func (a *Analyzer) lookup(name string) (domain.Variable, bool) {
	for i := len(a.scopes) - 1; i >= 0; i-- {
		if v, ok := a.scopes[i].vars[name]; ok {
			return v, true
		}
	}
	return domain.Variable{}, false
}

// update rewrites name's binding in the nearest scope that holds it.
func (a *Analyzer) update(name string, v domain.Variable) {
	for i := len(a.scopes) - 1; i >= 0; i-- {
		if _, ok := a.scopes[i].vars[name]; ok {
			a.scopes[i].vars[name] = v
			return
		}
	}
}

func (a *Analyzer) allocRegister() (int, error) {
	if a.nextReg >= maxRegisters {
		return 0, &domain.AnalyzeError{Kind: domain.AnalyzeRegisterOverflow, Detail: "exceeded r0..r15"}
	}
	reg := a.nextReg
	a.nextReg++
	if reg > a.maxReg {
		a.maxReg = reg
	}
	return reg, nil
}

func (a *Analyzer) analyzeStmts(stmts []domain.ParsedStmt) error {
	for _, stmt := range stmts {
		if err := a.analyzeStmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyzer) analyzeStmt(stmt domain.ParsedStmt) error {
	switch s := stmt.(type) {
	case domain.LetStmt:
		var ty domain.TypeInfo
		if s.Type != nil {
			ty = *s.Type
		} else if s.Value != nil {
			t, err := a.inferType(s.Value)
			if err != nil {
				return err
			}
			ty = t
		} else {
			ty = domain.TypeInfo{Kind: domain.TypeUnknown, Unknown: "inferred"}
		}
		reg, err := a.allocRegister()
		if err != nil {
			return err
		}
		a.declare(s.Name, domain.Variable{
			Type: ty, Register: reg, IsMutable: s.Mutable, IsInitialized: s.Value != nil,
		})
		if s.Value != nil {
			if _, err := a.inferType(s.Value); err != nil {
				return err
			}
		}
		return nil

	case domain.AssignStmt:
		target, ok := s.Target.(domain.VarExpr)
		if ok {
			v, found := a.lookup(target.Name)
			if !found {
				return &domain.AnalyzeError{Kind: domain.AnalyzeUndefinedVariable, Detail: target.Name}
			}
			if v.IsInitialized && !v.IsMutable {
				return &domain.AnalyzeError{Kind: domain.AnalyzeImmutableAssignment, Detail: target.Name}
			}
			v.IsInitialized = true
			a.update(target.Name, v)
		}
		_, err := a.inferType(s.Value)
		return err

	case domain.ExprStmt:
		_, err := a.inferType(s.Expr)
		return err

	case domain.IfStmt:
		if _, err := a.inferType(s.Cond); err != nil {
			return err
		}
		a.pushScope()
		err := a.analyzeStmts(s.Then)
		a.popScope()
		if err != nil {
			return err
		}
		if s.Else != nil {
			a.pushScope()
			err = a.analyzeStmts(s.Else)
			a.popScope()
		}
		return err

	case domain.WhileStmt:
		if _, err := a.inferType(s.Cond); err != nil {
			return err
		}
		a.loopDepth++
		a.pushScope()
		err := a.analyzeStmts(s.Body)
		a.popScope()
		a.loopDepth--
		return err

	case domain.LoopStmt:
		a.loopDepth++
		a.pushScope()
		err := a.analyzeStmts(s.Body)
		a.popScope()
		a.loopDepth--
		return err

	case domain.ForStmt:
		if _, err := a.inferType(s.Start); err != nil {
			return err
		}
		if _, err := a.inferType(s.End); err != nil {
			return err
		}
		reg, err := a.allocRegister()
		if err != nil {
			return err
		}
		a.loopDepth++
		a.pushScope()
		a.declare(s.Var, domain.Variable{
			Type: domain.TypeInfo{Kind: domain.TypeU64}, Register: reg,
			IsMutable: true, IsInitialized: true,
		})
		err = a.analyzeStmts(s.Body)
		a.popScope()
		a.loopDepth--
		return err

	case domain.ReturnStmt:
		if s.Value != nil {
			_, err := a.inferType(s.Value)
			return err
		}
		return nil

	case domain.BreakStmt, domain.ContinueStmt:
		return nil
	}
	return nil
}

// inferType resolves expr's type under the current scope stack.
func (a *Analyzer) inferType(expr domain.ParsedExpr) (domain.TypeInfo, error) {
	switch e := expr.(type) {
	case domain.IntLit:
		return domain.TypeInfo{Kind: domain.TypeU64}, nil
	case domain.FloatLit:
		return domain.TypeInfo{Kind: domain.TypeF64}, nil
	case domain.BoolLit:
		return domain.TypeInfo{Kind: domain.TypeBool}, nil

	case domain.VarExpr:
		v, ok := a.lookup(e.Name)
		if !ok {
			return domain.TypeInfo{}, &domain.AnalyzeError{Kind: domain.AnalyzeUndefinedVariable, Detail: e.Name}
		}
		return v.Type, nil

	case domain.BinaryExpr:
		left, err := a.inferType(e.Left)
		if err != nil {
			return domain.TypeInfo{}, err
		}
		if _, err := a.inferType(e.Right); err != nil {
			return domain.TypeInfo{}, err
		}
		switch e.Op {
		case domain.OpEq, domain.OpNe, domain.OpLt, domain.OpLe, domain.OpGt, domain.OpGe, domain.OpLAnd, domain.OpLOr:
			return domain.TypeInfo{Kind: domain.TypeBool}, nil
		default:
			return left, nil
		}

	case domain.UnaryExpr:
		operand, err := a.inferType(e.Operand)
		if err != nil {
			return domain.TypeInfo{}, err
		}
		if e.Op == domain.UnNot {
			return domain.TypeInfo{Kind: domain.TypeBool}, nil
		}
		if e.Op == domain.UnDeref {
			if operand.Elem != nil {
				return *operand.Elem, nil
			}
			return domain.TypeInfo{Kind: domain.TypeU64}, nil
		}
		return operand, nil

	case domain.CallExpr:
		for _, arg := range e.Args {
			if _, err := a.inferType(arg); err != nil {
				return domain.TypeInfo{}, err
			}
		}
		if kind, ok := stdlibReturnTypes[e.Func]; ok {
			return domain.TypeInfo{Kind: kind}, nil
		}
		return domain.TypeInfo{Kind: domain.TypeU64}, nil

	case domain.MethodCallExpr:
		if _, err := a.inferType(e.Receiver); err != nil {
			return domain.TypeInfo{}, err
		}
		for _, arg := range e.Args {
			if _, err := a.inferType(arg); err != nil {
				return domain.TypeInfo{}, err
			}
		}
		if kind, ok := stdlibReturnTypes[e.Method]; ok {
			return domain.TypeInfo{Kind: kind}, nil
		}
		return domain.TypeInfo{Kind: domain.TypeU64}, nil

	case domain.DerefExpr:
		operand, err := a.inferType(e.Operand)
		if err != nil {
			return domain.TypeInfo{}, err
		}
		if operand.Elem != nil {
			return *operand.Elem, nil
		}
		return domain.TypeInfo{Kind: domain.TypeU64}, nil

	case domain.IndexExpr:
		base, err := a.inferType(e.Base)
		if err != nil {
			return domain.TypeInfo{}, err
		}
		if _, err := a.inferType(e.Index); err != nil {
			return domain.TypeInfo{}, err
		}
		if base.Elem != nil {
			return *base.Elem, nil
		}
		return domain.TypeInfo{Kind: domain.TypeU64}, nil

	case domain.CastExpr:
		if _, err := a.inferType(e.Operand); err != nil {
			return domain.TypeInfo{}, err
		}
		return e.Target, nil

	case domain.BlockExpr:
		a.pushScope()
		err := a.analyzeStmts(e.Stmts)
		a.popScope()
		if err != nil {
			return domain.TypeInfo{}, err
		}
		if e.Tail != nil {
			return a.inferType(e.Tail)
		}
		return domain.TypeInfo{Kind: domain.TypeUnit}, nil

	case domain.IfExpr:
		if _, err := a.inferType(e.Cond); err != nil {
			return domain.TypeInfo{}, err
		}
		thenTy, err := a.inferType(e.Then)
		if err != nil {
			return domain.TypeInfo{}, err
		}
		if _, err := a.inferType(e.Else); err != nil {
			return domain.TypeInfo{}, err
		}
		return thenTy, nil
	}

	return domain.TypeInfo{Kind: domain.TypeUnknown, Unknown: "expr"}, nil
}
