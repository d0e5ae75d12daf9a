// Package codegen implements the Code Generator: it lowers an
// AnalyzedFunction into a flat sequence of GeneratedInstr with symbolic
// branch targets, ready for assembly-text serialization.
package codegen

import (
	"fmt"
	"math/bits"

	"github.com/jeremyhahn/neurlang/internal/core/domain"
)

// GeneratedInstr is one emitted instruction; Label is set when a branch
// target resolves here, BranchTarget is set when Instr itself branches to
// a not-yet-emitted label.
type GeneratedInstr struct {
	Label        string
	Instr        string
	Comment      string
	BranchTarget string
}

// intrinsics map recognized free-function names to their dedicated
// `bits.*` opcode.
var intrinsics = map[string]string{
	"popcount": "bits.popcount",
	"clz": "bits.clz",
	"ctz": "bits.ctz",
	"bswap": "bits.bswap",
	"f64::from_bits": "bits.from_bits",
}

// pointerMethods are the pointer-arithmetic method calls that special-case
// stride scaling rather than becoming a generic call.
var pointerMethods = map[string]bool{"add": true, "offset": true}

type loopLabels struct {
	breakLabel    string
	continueLabel string
}

// Generator lowers one function at a time; label/temp counters reset per
// Generate call via New.
type Generator struct {
	instrs    []GeneratedInstr
	labelSeq  int
	loopStack []loopLabels
}

func New() *Generator { return &Generator{} }

// Generate lowers fn's body into a flat instruction list, appending a
// trailing halt if the body didn't already end in one.
func Generate(fn domain.AnalyzedFunction) ([]GeneratedInstr, error) {
	g := New()
	for _, stmt := range fn.Function.Body {
		if err := g.genStmt(stmt, fn); err != nil {
			return nil, err
		}
	}
	if len(g.instrs) == 0 || g.instrs[len(g.instrs)-1].Instr != "halt" {
		g.emit("halt", "")
	}
	return g.instrs, nil
}

func (g *Generator) emit(instr, comment string) {
	g.instrs = append(g.instrs, GeneratedInstr{Instr: instr, Comment: comment})
}

// emitBranch emits a branch instruction. operands holds any register
// operands preceding the target (e.g. "r15, r14" for a two-register
// compare-branch), empty for an unconditional branch or call.
func (g *Generator) emitBranch(mnemonic, operands, target string) {
	instr := mnemonic
	if operands != "" {
		instr += " " + operands
	}
	g.instrs = append(g.instrs, GeneratedInstr{Instr: instr, BranchTarget: target})
}

func (g *Generator) emitLabel(label string) {
	g.instrs = append(g.instrs, GeneratedInstr{Label: label})
}

func (g *Generator) newLabel(prefix string) string {
	g.labelSeq++
	return fmt.Sprintf(".%s_%d", prefix, g.labelSeq)
}

// tempFor returns the nesting-appropriate scratch register for a
// destination register dst (r15, else r14, else r13).
func tempFor(dst string) string {
	switch dst {
	case "r15":
		return "r14"
	case "r14":
		return "r13"
	default:
		return "r15"
	}
}

func reg(n int) string { return fmt.Sprintf("r%d", n) }

func (g *Generator) genStmt(stmt domain.ParsedStmt, fn domain.AnalyzedFunction) error {
	switch s := stmt.(type) {
	case domain.LetStmt:
		v, ok := fn.Variables[s.Name]
		if !ok {
			return fmt.Errorf("codegen: unresolved variable %q", s.Name)
		}
		if s.Value != nil {
			return g.genExpr(s.Value, reg(v.Register), fn)
		}
		return nil

	case domain.AssignStmt:
		if deref, ok := s.Target.(domain.UnaryExpr); ok && deref.Op == domain.UnDeref {
			return g.genStoreDeref(deref.Operand, s.Value, fn)
		}
		if deref, ok := s.Target.(domain.DerefExpr); ok {
			return g.genStoreDeref(deref.Operand, s.Value, fn)
		}
		target, ok := s.Target.(domain.VarExpr)
		if !ok {
			return fmt.Errorf("codegen: unsupported assignment target")
		}
		v, ok := fn.Variables[target.Name]
		if !ok {
			return fmt.Errorf("codegen: unresolved variable %q", target.Name)
		}
		return g.genExpr(s.Value, reg(v.Register), fn)

	case domain.ExprStmt:
		return g.genExpr(s.Expr, "r15", fn)

	case domain.IfStmt:
		return g.genIf(s, fn)

	case domain.WhileStmt:
		return g.genWhile(s, fn)

	case domain.LoopStmt:
		return g.genLoop(s, fn)

	case domain.ForStmt:
		return g.genFor(s, fn)

	case domain.ReturnStmt:
		if s.Value != nil {
			if err := g.genExpr(s.Value, "r0", fn); err != nil {
				return err
			}
		}
		g.emit("halt", "")
		return nil

	case domain.BreakStmt:
		if len(g.loopStack) == 0 {
			return fmt.Errorf("codegen: break outside loop")
		}
		g.emitBranch("b", "", g.loopStack[len(g.loopStack)-1].breakLabel)
		return nil

	case domain.ContinueStmt:
		if len(g.loopStack) == 0 {
			return fmt.Errorf("codegen: continue outside loop")
		}
		g.emitBranch("b", "", g.loopStack[len(g.loopStack)-1].continueLabel)
		return nil
	}
	return fmt.Errorf("codegen: unsupported statement %T", stmt)
}

func (g *Generator) genIf(s domain.IfStmt, fn domain.AnalyzedFunction) error {
	elseLabel := g.newLabel("else")
	endLabel := g.newLabel("endif")

	if err := g.genCondBranchFalse(s.Cond, elseLabel, fn); err != nil {
		return err
	}
	for _, stmt := range s.Then {
		if err := g.genStmt(stmt, fn); err != nil {
			return err
		}
	}
	if s.Else != nil {
		g.emitBranch("b", "", endLabel)
	}
	g.emitLabel(elseLabel)
	if s.Else != nil {
		for _, stmt := range s.Else {
			if err := g.genStmt(stmt, fn); err != nil {
				return err
			}
		}
		g.emitLabel(endLabel)
	}
	return nil
}

func (g *Generator) genWhile(s domain.WhileStmt, fn domain.AnalyzedFunction) error {
	top := g.newLabel("while")
	end := g.newLabel("endwhile")

	g.loopStack = append(g.loopStack, loopLabels{breakLabel: end, continueLabel: top})
	defer func() { g.loopStack = g.loopStack[:len(g.loopStack)-1] }()

	g.emitLabel(top)
	if err := g.genCondBranchFalse(s.Cond, end, fn); err != nil {
		return err
	}
	for _, stmt := range s.Body {
		if err := g.genStmt(stmt, fn); err != nil {
			return err
		}
	}
	g.emitBranch("b", "", top)
	g.emitLabel(end)
	return nil
}

func (g *Generator) genLoop(s domain.LoopStmt, fn domain.AnalyzedFunction) error {
	top := g.newLabel("loop")
	end := g.newLabel("endloop")

	g.loopStack = append(g.loopStack, loopLabels{breakLabel: end, continueLabel: top})
	defer func() { g.loopStack = g.loopStack[:len(g.loopStack)-1] }()

	g.emitLabel(top)
	for _, stmt := range s.Body {
		if err := g.genStmt(stmt, fn); err != nil {
			return err
		}
	}
	g.emitBranch("b", "", top)
	g.emitLabel(end)
	return nil
}

func (g *Generator) genFor(s domain.ForStmt, fn domain.AnalyzedFunction) error {
	v, ok := fn.Variables[s.Var]
	if !ok {
		return fmt.Errorf("codegen: unresolved loop variable %q", s.Var)
	}
	ivReg := reg(v.Register)

	if err := g.genExpr(s.Start, ivReg, fn); err != nil {
		return err
	}

	top := g.newLabel("for")
	cont := g.newLabel("forcont")
	end := g.newLabel("endfor")

	g.loopStack = append(g.loopStack, loopLabels{breakLabel: end, continueLabel: cont})
	defer func() { g.loopStack = g.loopStack[:len(g.loopStack)-1] }()

	endTemp := tempFor(ivReg)
	if err := g.genExpr(s.End, endTemp, fn); err != nil {
		return err
	}

	g.emitLabel(top)
	if s.Inclusive {
		g.emitBranch("bgt", fmt.Sprintf("%s, %s", ivReg, endTemp), end)
	} else {
		g.emitBranch("bge", fmt.Sprintf("%s, %s", ivReg, endTemp), end)
	}

	for _, stmt := range s.Body {
		if err := g.genStmt(stmt, fn); err != nil {
			return err
		}
	}

	g.emitLabel(cont)
	g.emit(fmt.Sprintf("add %s, %s, 1", ivReg, ivReg), "")
	g.emitBranch("b", "", top)
	g.emitLabel(end)
	return nil
}

// genCondBranchFalse emits cond's evaluation and a branch to falseLabel
// taken when cond is false (i.e. zero).
func (g *Generator) genCondBranchFalse(cond domain.ParsedExpr, falseLabel string, fn domain.AnalyzedFunction) error {
	if bin, ok := cond.(domain.BinaryExpr); ok {
		if op, ok := invertedComparisonOp(bin.Op); ok {
			if err := g.genExpr(bin.Left, "r15", fn); err != nil {
				return err
			}
			if err := g.genExpr(bin.Right, "r14", fn); err != nil {
				return err
			}
			g.emitBranch(op, "r15, r14", falseLabel)
			return nil
		}
	}
	if err := g.genExpr(cond, "r15", fn); err != nil {
		return err
	}
	g.emitBranch("beqz", "r15", falseLabel)
	return nil
}

// invertedComparisonOp returns the branch mnemonic that fires when the
// comparison is FALSE, so a single branch skips the true-branch code.
func invertedComparisonOp(op domain.BinOp) (string, bool) {
	switch op {
	case domain.OpEq:
		return "bne", true
	case domain.OpNe:
		return "beq", true
	case domain.OpLt:
		return "bge", true
	case domain.OpLe:
		return "bgt", true
	case domain.OpGt:
		return "ble", true
	case domain.OpGe:
		return "blt", true
	default:
		return "", false
	}
}

func isComparisonOp(op domain.BinOp) bool {
	_, ok := invertedComparisonOp(op)
	return ok
}

// genExpr evaluates expr into dst.
func (g *Generator) genExpr(expr domain.ParsedExpr, dst string, fn domain.AnalyzedFunction) error {
	switch e := expr.(type) {
	case domain.IntLit:
		g.emit(fmt.Sprintf("mov %s, %d", dst, e.Value), "")
		return nil

	case domain.FloatLit:
		g.emit(fmt.Sprintf("fmov %s, %v", dst, e.Value), "")
		return nil

	case domain.BoolLit:
		val := 0
		if e.Value {
			val = 1
		}
		g.emit(fmt.Sprintf("mov %s, %d", dst, val), "")
		return nil

	case domain.VarExpr:
		v, ok := fn.Variables[e.Name]
		if !ok {
			return fmt.Errorf("codegen: unresolved variable %q", e.Name)
		}
		src := reg(v.Register)
		if src != dst {
			g.emit(fmt.Sprintf("mov %s, %s", dst, src), "")
		}
		return nil

	case domain.BinaryExpr:
		return g.genBinary(e, dst, fn)

	case domain.UnaryExpr:
		return g.genUnary(e, dst, fn)

	case domain.CallExpr:
		return g.genCall(e, dst, fn)

	case domain.MethodCallExpr:
		return g.genMethodCall(e, dst, fn)

	case domain.DerefExpr:
		if err := g.genExpr(e.Operand, dst, fn); err != nil {
			return err
		}
		g.emit(fmt.Sprintf("load %s, [%s]", dst, dst), "")
		return nil

	case domain.IndexExpr:
		temp := tempFor(dst)
		if err := g.genExpr(e.Base, dst, fn); err != nil {
			return err
		}
		if err := g.genExpr(e.Index, temp, fn); err != nil {
			return err
		}
		g.emit(fmt.Sprintf("add %s, %s, %s", dst, dst, temp), "")
		g.emit(fmt.Sprintf("load %s, [%s]", dst, dst), "")
		return nil

	case domain.CastExpr:
		return g.genExpr(e.Operand, dst, fn)

	case domain.BlockExpr:
		for _, stmt := range e.Stmts {
			if err := g.genStmt(stmt, fn); err != nil {
				return err
			}
		}
		if e.Tail != nil {
			return g.genExpr(e.Tail, dst, fn)
		}
		return nil

	case domain.IfExpr:
		elseLabel := g.newLabel("else")
		endLabel := g.newLabel("endif")
		if err := g.genCondBranchFalse(e.Cond, elseLabel, fn); err != nil {
			return err
		}
		if err := g.genExpr(e.Then, dst, fn); err != nil {
			return err
		}
		g.emitBranch("b", "", endLabel)
		g.emitLabel(elseLabel)
		if err := g.genExpr(e.Else, dst, fn); err != nil {
			return err
		}
		g.emitLabel(endLabel)
		return nil
	}
	return fmt.Errorf("codegen: unsupported expression %T", expr)
}

// genStoreDeref lowers `*addr = value;`: the address evaluates into r15, the
// value into r14, mirroring the fixed-temp convention used elsewhere for
// two-operand memory operations.
func (g *Generator) genStoreDeref(addr domain.ParsedExpr, value domain.ParsedExpr, fn domain.AnalyzedFunction) error {
	if err := g.genExpr(addr, "r15", fn); err != nil {
		return err
	}
	if err := g.genExpr(value, "r14", fn); err != nil {
		return err
	}
	g.emit("store r14, [r15]", "")
	return nil
}

func (g *Generator) genUnary(e domain.UnaryExpr, dst string, fn domain.AnalyzedFunction) error {
	if err := g.genExpr(e.Operand, dst, fn); err != nil {
		return err
	}
	switch e.Op {
	case domain.UnNeg:
		g.emit(fmt.Sprintf("neg %s, %s", dst, dst), "")
	case domain.UnNot:
		g.emit(fmt.Sprintf("eqz %s, %s", dst, dst), "")
	case domain.UnDeref:
		g.emit(fmt.Sprintf("load %s, [%s]", dst, dst), "")
	}
	return nil
}

// isSimple reports whether expr can be evaluated in place without clobber
// risk: a literal or a bare variable reference.
func isSimple(expr domain.ParsedExpr) bool {
	switch expr.(type) {
	case domain.IntLit, domain.FloatLit, domain.BoolLit, domain.VarExpr:
		return true
	default:
		return false
	}
}

func referencesRegister(expr domain.ParsedExpr, reg string, fn domain.AnalyzedFunction) bool {
	if v, ok := expr.(domain.VarExpr); ok {
		if variable, ok := fn.Variables[v.Name]; ok {
			return fmt.Sprintf("r%d", variable.Register) == reg
		}
	}
	return false
}

func isFloatType(t domain.TypeInfo) bool { return t.Kind == domain.TypeF64 }

func (g *Generator) genBinary(e domain.BinaryExpr, dst string, fn domain.AnalyzedFunction) error {
	switch e.Op {
	case domain.OpLAnd:
		return g.genShortCircuit(e, dst, fn, true)
	case domain.OpLOr:
		return g.genShortCircuit(e, dst, fn, false)
	}

	if isComparisonOp(e.Op) {
		return g.genComparison(e, dst, fn)
	}

	temp := tempFor(dst)

	// Right operand evaluates first into temp if it references dst or is
	// structurally complex.
	if referencesRegister(e.Right, dst, fn) || !isSimple(e.Right) {
		if err := g.genExpr(e.Right, temp, fn); err != nil {
			return err
		}
		if err := g.genExpr(e.Left, dst, fn); err != nil {
			return err
		}
		return g.emitArith(e.Op, dst, dst, temp, fn, e.Left)
	}

	if err := g.genExpr(e.Left, dst, fn); err != nil {
		return err
	}
	if err := g.genExpr(e.Right, temp, fn); err != nil {
		return err
	}
	return g.emitArith(e.Op, dst, dst, temp, fn, e.Left)
}

func (g *Generator) emitArith(op domain.BinOp, dst, lhs, rhs string, fn domain.AnalyzedFunction, leftOperand domain.ParsedExpr) error {
	float := false
	if t, err := inferQuickType(leftOperand, fn); err == nil {
		float = isFloatType(t)
	}

	mnemonic, ok := arithMnemonic(op, float)
	if !ok {
		return fmt.Errorf("codegen: unsupported binary operator %q", op)
	}
	g.emit(fmt.Sprintf("%s %s, %s, %s", mnemonic, dst, lhs, rhs), "")
	return nil
}

// inferQuickType is a narrow re-derivation of a variable's declared type,
// used only to pick integer vs. FPU opcodes; it does not re-run full
// analysis.
func inferQuickType(expr domain.ParsedExpr, fn domain.AnalyzedFunction) (domain.TypeInfo, error) {
	switch e := expr.(type) {
	case domain.FloatLit:
		return domain.TypeInfo{Kind: domain.TypeF64}, nil
	case domain.VarExpr:
		if v, ok := fn.Variables[e.Name]; ok {
			return v.Type, nil
		}
	}
	return domain.TypeInfo{Kind: domain.TypeU64}, nil
}

func arithMnemonic(op domain.BinOp, float bool) (string, bool) {
	if float {
		switch op {
		case domain.OpAdd:
			return "fadd", true
		case domain.OpSub:
			return "fsub", true
		case domain.OpMul:
			return "fmul", true
		case domain.OpDiv:
			return "fdiv", true
		}
		return "", false
	}
	switch op {
	case domain.OpAdd:
		return "add", true
	case domain.OpSub:
		return "sub", true
	case domain.OpMul:
		return "mul", true
	case domain.OpDiv:
		return "div", true
	case domain.OpRem:
		return "rem", true
	case domain.OpAnd:
		return "and", true
	case domain.OpOr:
		return "or", true
	case domain.OpXor:
		return "xor", true
	case domain.OpShl:
		return "shl", true
	case domain.OpShr:
		return "shr", true
	}
	return "", false
}

// genComparison lowers a comparison to the branch-and-set-1/0 sequence.
func (g *Generator) genComparison(e domain.BinaryExpr, dst string, fn domain.AnalyzedFunction) error {
	temp := tempFor(dst)
	if err := g.genExpr(e.Left, dst, fn); err != nil {
		return err
	}
	if err := g.genExpr(e.Right, temp, fn); err != nil {
		return err
	}

	trueLabel := g.newLabel("cmp_true")
	endLabel := g.newLabel("cmp_end")

	mnemonic := comparisonBranch(e.Op)
	g.emitBranch(mnemonic, fmt.Sprintf("%s, %s", dst, temp), trueLabel)
	g.emit(fmt.Sprintf("mov %s, 0", dst), "")
	g.emitBranch("b", "", endLabel)
	g.emitLabel(trueLabel)
	g.emit(fmt.Sprintf("mov %s, 1", dst), "")
	g.emitLabel(endLabel)
	return nil
}

func comparisonBranch(op domain.BinOp) string {
	switch op {
	case domain.OpEq:
		return "beq"
	case domain.OpNe:
		return "bne"
	case domain.OpLt:
		return "blt"
	case domain.OpLe:
		return "ble"
	case domain.OpGt:
		return "bgt"
	case domain.OpGe:
		return "bge"
	}
	return "beq"
}

// genShortCircuit lowers && (isAnd true) and || (isAnd false): each operand
// is compared to zero, then AND'd/OR'd, with || also normalized to a strict
// 0/1 boolean afterward.
func (g *Generator) genShortCircuit(e domain.BinaryExpr, dst string, fn domain.AnalyzedFunction, isAnd bool) error {
	temp := tempFor(dst)

	if err := g.genExpr(e.Left, dst, fn); err != nil {
		return err
	}
	g.emit(fmt.Sprintf("nez %s, %s", dst, dst), "")
	if err := g.genExpr(e.Right, temp, fn); err != nil {
		return err
	}
	g.emit(fmt.Sprintf("nez %s, %s", temp, temp), "")

	if isAnd {
		g.emit(fmt.Sprintf("and %s, %s, %s", dst, dst, temp), "")
	} else {
		g.emit(fmt.Sprintf("or %s, %s, %s", dst, dst, temp), "")
		g.emit(fmt.Sprintf("nez %s, %s", dst, dst), "")
	}
	return nil
}

func (g *Generator) genCall(e domain.CallExpr, dst string, fn domain.AnalyzedFunction) error {
	if opcode, ok := intrinsics[e.Func]; ok {
		if len(e.Args) != 1 {
			return fmt.Errorf("codegen: intrinsic %q takes exactly one argument", e.Func)
		}
		if err := g.genExpr(e.Args[0], dst, fn); err != nil {
			return err
		}
		g.emit(fmt.Sprintf("%s %s, %s", opcode, dst, dst), "")
		return nil
	}

	for i, arg := range e.Args {
		if i >= 4 {
			break
		}
		if err := g.genExpr(arg, reg(i), fn); err != nil {
			return err
		}
	}

	g.emitBranch("call", "", "@"+e.Func)
	if dst != "r0" {
		g.emit(fmt.Sprintf("mov %s, r0", dst), "")
	}
	return nil
}

// genMethodCall special-cases pointer arithmetic (p.add(n)/p.offset(n)):
// the offset is scaled by log2(elem_size) only when elem_size > 1, so byte
// pointers get stride 1 and u64/f64 pointers get stride 8.
func (g *Generator) genMethodCall(e domain.MethodCallExpr, dst string, fn domain.AnalyzedFunction) error {
	if pointerMethods[e.Method] && len(e.Args) == 1 {
		elemSize := 1
		if v, ok := e.Receiver.(domain.VarExpr); ok {
			if variable, ok := fn.Variables[v.Name]; ok {
				elemSize = variable.Type.ElemSize()
			}
		}

		temp := tempFor(dst)
		if err := g.genExpr(e.Receiver, dst, fn); err != nil {
			return err
		}
		if err := g.genExpr(e.Args[0], temp, fn); err != nil {
			return err
		}
		if elemSize > 1 {
			shift := bits.Len(uint(elemSize)) - 1
			g.emit(fmt.Sprintf("shl %s, %s, %d", temp, temp, shift), "")
		}
		g.emit(fmt.Sprintf("add %s, %s, %s", dst, dst, temp), "")
		return nil
	}

	if err := g.genExpr(e.Receiver, "r0", fn); err != nil {
		return err
	}
	for i, arg := range e.Args {
		if i+1 >= 4 {
			break
		}
		if err := g.genExpr(arg, reg(i+1), fn); err != nil {
			return err
		}
	}
	g.emitBranch("call", "", "@"+e.Method)
	if dst != "r0" {
		g.emit(fmt.Sprintf("mov %s, r0", dst), "")
	}
	return nil
}
