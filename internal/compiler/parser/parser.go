package parser

import (
	"strconv"
	"strings"

	"github.com/jeremyhahn/neurlang/internal/core/domain"
)

// Module is the parsed output: every accepted `pub fn` found at top level or
// nested one module deep (a single level of `mod { ... }` is inlined, not
// tracked as a namespace).
type Module struct {
	Functions []domain.ParsedFunction
}

// ParseError reports a rejected or unsupported construct, distinguishing a
// hard syntax error from an accepted-but-unsupported-subset construct.
type ParseError struct {
	Unsupported bool
	Detail      string
	Line        int
}

func (e *ParseError) Error() string {
	kind := "syntax"
	if e.Unsupported {
		kind = "unsupported"
	}
	if e.Line > 0 {
		return kind + " error at line " + strconv.Itoa(e.Line) + ": " + e.Detail
	}
	return kind + " error: " + e.Detail
}

// ParseModule tokenizes and parses source, skipping functions named
// `test_*` and non-fn items, matching the original's test-exclusion and
// item-filtering rules.
func ParseModule(source string) (Module, error) {
	toks, err := tokenize(source)
	if err != nil {
		return Module{}, &ParseError{Detail: err.Error()}
	}
	p := &parser{toks: toks}

	var mod Module
	for !p.atEOF() {
		var doc []string
		for p.cur().kind == tokDocComment {
			doc = append(doc, p.cur().text)
			p.advance()
		}
		if p.atEOF() {
			break
		}
		for p.curIs(tokPunct, "#") {
			p.skipAttribute()
		}
		if p.atEOF() {
			break
		}

		switch {
		case p.curIs(tokIdent, "mod"):
			funcs, err := p.parseInlineMod()
			if err != nil {
				return Module{}, err
			}
			mod.Functions = append(mod.Functions, funcs...)
		case p.curIsFnStart():
			fn, err := p.parseFunction(strings.Join(doc, "\n"))
			if err != nil {
				return Module{}, err
			}
			if fn != nil {
				mod.Functions = append(mod.Functions, *fn)
			}
		default:
			// Skip tokens belonging to an item we don't model (struct,
			// impl, use, const,...) until the next top-level boundary.
			p.skipUnknownItem()
		}
	}

	return mod, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) cur() token { return p.toks[p.pos] }
func (p *parser) atEOF() bool { return p.cur().kind == tokEOF }
func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) curIs(kind tokenKind, text string) bool {
	return p.cur().kind == kind && p.cur().text == text
}

func (p *parser) curIsFnStart() bool {
	i := p.pos
	for i < len(p.toks) {
		t := p.toks[i]
		if t.kind != tokIdent {
			return false
		}
		switch t.text {
		case "pub", "unsafe", "async", "const":
			i++
			continue
		case "fn":
			return true
		default:
			return false
		}
	}
	return false
}

func (p *parser) expectPunct(text string) error {
	if p.cur().kind != tokPunct || p.cur().text != text {
		return &ParseError{Detail: "expected '" + text + "', found '" + p.cur().text + "'", Line: p.cur().line}
	}
	p.advance()
	return nil
}

func (p *parser) expectIdent() (string, error) {
	if p.cur().kind != tokIdent {
		return "", &ParseError{Detail: "expected identifier, found '" + p.cur().text + "'", Line: p.cur().line}
	}
	t := p.advance()
	return t.text, nil
}

// skipUnknownItem advances past a brace-delimited or semicolon-terminated
// item the grammar doesn't model.
func (p *parser) skipUnknownItem() {
	depth := 0
	for !p.atEOF() {
		t := p.advance()
		if t.kind == tokPunct {
			switch t.text {
			case "{":
				depth++
			case "}":
				depth--
				if depth <= 0 {
					return
				}
			case ";":
				if depth == 0 {
					return
				}
			}
		}
	}
}

// skipAttribute advances past one `#[...]` or `#![...]` attribute,
// tracking bracket depth so a nested `[` (e.g. `#[cfg(feature = "x")]`)
// doesn't terminate early.
func (p *parser) skipAttribute() {
	p.advance() // "#"
	if p.curIs(tokPunct, "!") {
		p.advance()
	}
	if !p.curIs(tokPunct, "[") {
		return
	}
	depth := 0
	for !p.atEOF() {
		t := p.advance()
		if t.kind == tokPunct {
			switch t.text {
			case "[":
				depth++
			case "]":
				depth--
				if depth <= 0 {
					return
				}
			}
		}
	}
}

func (p *parser) parseInlineMod() ([]domain.ParsedFunction, error) {
	p.advance() // "mod"
	if _, err := p.expectIdent(); err != nil {
		return nil, err
	}
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}

	var funcs []domain.ParsedFunction
	for !p.atEOF() && !p.curIs(tokPunct, "}") {
		var doc []string
		for p.cur().kind == tokDocComment {
			doc = append(doc, p.cur().text)
			p.advance()
		}
		for p.curIs(tokPunct, "#") {
			p.skipAttribute()
		}
		if p.curIsFnStart() {
			fn, err := p.parseFunction(strings.Join(doc, "\n"))
			if err != nil {
				return nil, err
			}
			if fn != nil {
				funcs = append(funcs, *fn)
			}
		} else {
			p.skipUnknownItem()
		}
	}
	return funcs, p.expectPunct("}")
}

// parseFunction parses one `[pub] [unsafe] fn name(params) [-> Type] { body }`,
// returning nil (not an error) for `test_*` functions.
func (p *parser) parseFunction(doc string) (*domain.ParsedFunction, error) {
	isUnsafe := false
	for p.cur().kind == tokIdent && p.cur().text != "fn" {
		if p.cur().text == "unsafe" {
			isUnsafe = true
		}
		p.advance()
	}
	if err := expectKeyword(p, "fn"); err != nil {
		return nil, err
	}

	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	skipTestFn := strings.HasPrefix(name, "test_")

	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}

	var retType *domain.TypeInfo
	if p.curIs(tokPunct, "->") {
		p.advance()
		ty, err := p.parseType()
		if err != nil {
			return nil, err
		}
		retType = &ty
	}

	body, err := p.parseBlockStmts()
	if err != nil {
		return nil, err
	}

	if skipTestFn {
		return nil, nil
	}

	_ = isUnsafe
	return &domain.ParsedFunction{
		Name: name, Params: params, ReturnType: retType, Body: body,
		Metadata: parseNeurlangMetadata(doc),
	}, nil
}

func expectKeyword(p *parser, kw string) error {
	if !p.curIs(tokIdent, kw) {
		return &ParseError{Detail: "expected '" + kw + "', found '" + p.cur().text + "'", Line: p.cur().line}
	}
	p.advance()
	return nil
}

func (p *parser) parseParams() ([]domain.Param, error) {
	var params []domain.Param
	for !p.curIs(tokPunct, ")") {
		if p.curIs(tokIdent, "mut") {
			p.advance()
		}
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(":"); err != nil {
			return nil, err
		}
		ty, err := p.parseType()
		if err != nil {
			return nil, err
		}
		params = append(params, domain.Param{Name: name, Type: ty})

		if p.curIs(tokPunct, ",") {
			p.advance()
			continue
		}
		break
	}
	return params, p.expectPunct(")")
}

// parseType parses the restricted type grammar: u8/u64/i64/f64/bool/,
// *const T, *mut T, or an unrecognized identifier captured as Unknown.
func (p *parser) parseType() (domain.TypeInfo, error) {
	if p.curIs(tokPunct, "*") {
		p.advance()
		mutable := false
		switch {
		case p.curIs(tokIdent, "const"):
			p.advance()
		case p.curIs(tokIdent, "mut"):
			mutable = true
			p.advance()
		}
		elem, err := p.parseType()
		if err != nil {
			return domain.TypeInfo{}, err
		}
		kind := domain.TypePtr
		if mutable {
			kind = domain.TypeMutPtr
		}
		return domain.TypeInfo{Kind: kind, Elem: &elem}, nil
	}

	if p.curIs(tokPunct, "(") {
		p.advance()
		if err := p.expectPunct(")"); err != nil {
			return domain.TypeInfo{}, err
		}
		return domain.TypeInfo{Kind: domain.TypeUnit}, nil
	}

	name, err := p.expectIdent()
	if err != nil {
		return domain.TypeInfo{}, err
	}
	switch name {
	case "u8":
		return domain.TypeInfo{Kind: domain.TypeU8}, nil
	case "u64", "usize":
		return domain.TypeInfo{Kind: domain.TypeU64}, nil
	case "i64", "isize":
		return domain.TypeInfo{Kind: domain.TypeI64}, nil
	case "f64":
		return domain.TypeInfo{Kind: domain.TypeF64}, nil
	case "bool":
		return domain.TypeInfo{Kind: domain.TypeBool}, nil
	default:
		return domain.TypeInfo{Kind: domain.TypeUnknown, Unknown: name}, nil
	}
}

// parseBlockStmts parses `{ stmt* }`, consuming the braces.
func (p *parser) parseBlockStmts() ([]domain.ParsedStmt, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	stmts, err := p.parseStmtsUntilBrace()
	if err != nil {
		return nil, err
	}
	return stmts, p.expectPunct("}")
}

func (p *parser) parseStmtsUntilBrace() ([]domain.ParsedStmt, error) {
	var stmts []domain.ParsedStmt
	for !p.atEOF() && !p.curIs(tokPunct, "}") {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

func (p *parser) parseStmt() (domain.ParsedStmt, error) {
	switch {
	case p.curIs(tokIdent, "let"):
		return p.parseLet()
	case p.curIs(tokIdent, "if"):
		return p.parseIfStmt()
	case p.curIs(tokIdent, "while"):
		return p.parseWhile()
	case p.curIs(tokIdent, "loop"):
		return p.parseLoop()
	case p.curIs(tokIdent, "for"):
		return p.parseFor()
	case p.curIs(tokIdent, "return"):
		p.advance()
		if p.curIs(tokPunct, ";") {
			p.advance()
			return domain.ReturnStmt{}, nil
		}
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.consumeOptionalSemi(); err != nil {
			return nil, err
		}
		return domain.ReturnStmt{Value: expr}, nil
	case p.curIs(tokIdent, "break"):
		p.advance()
		if err := p.consumeOptionalSemi(); err != nil {
			return nil, err
		}
		return domain.BreakStmt{}, nil
	case p.curIs(tokIdent, "continue"):
		p.advance()
		if err := p.consumeOptionalSemi(); err != nil {
			return nil, err
		}
		return domain.ContinueStmt{}, nil
	default:
		return p.parseExprOrAssignStmt()
	}
}

func (p *parser) consumeOptionalSemi() error {
	if p.curIs(tokPunct, ";") {
		p.advance()
	}
	return nil
}

func (p *parser) parseLet() (domain.ParsedStmt, error) {
	p.advance() // "let"
	mutable := false
	if p.curIs(tokIdent, "mut") {
		mutable = true
		p.advance()
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}

	var declType *domain.TypeInfo
	if p.curIs(tokPunct, ":") {
		p.advance()
		ty, err := p.parseType()
		if err != nil {
			return nil, err
		}
		declType = &ty
	}

	var value domain.ParsedExpr
	if p.curIs(tokPunct, "=") {
		p.advance()
		value, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if err := p.expectPunct(";"); err != nil {
		return nil, err
	}

	return domain.LetStmt{Name: name, Mutable: mutable, Type: declType, Value: value}, nil
}

func (p *parser) parseIfStmt() (domain.ParsedStmt, error) {
	p.advance() // "if"
	cond, err := p.parseExprNoStruct()
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlockStmts()
	if err != nil {
		return nil, err
	}

	var els []domain.ParsedStmt
	if p.curIs(tokIdent, "else") {
		p.advance()
		if p.curIs(tokIdent, "if") {
			stmt, err := p.parseIfStmt()
			if err != nil {
				return nil, err
			}
			els = []domain.ParsedStmt{stmt}
		} else {
			els, err = p.parseBlockStmts()
			if err != nil {
				return nil, err
			}
		}
	}

	return domain.IfStmt{Cond: cond, Then: then, Else: els}, nil
}

func (p *parser) parseWhile() (domain.ParsedStmt, error) {
	p.advance() // "while"
	cond, err := p.parseExprNoStruct()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlockStmts()
	if err != nil {
		return nil, err
	}
	return domain.WhileStmt{Cond: cond, Body: body}, nil
}

func (p *parser) parseLoop() (domain.ParsedStmt, error) {
	p.advance() // "loop"
	body, err := p.parseBlockStmts()
	if err != nil {
		return nil, err
	}
	return domain.LoopStmt{Body: body}, nil
}

func (p *parser) parseFor() (domain.ParsedStmt, error) {
	p.advance() // "for"
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := expectKeyword(p, "in"); err != nil {
		return nil, err
	}
	start, err := p.parseRangeOperand()
	if err != nil {
		return nil, err
	}

	inclusive := false
	if p.curIs(tokPunct, "..=") {
		inclusive = true
		p.advance()
	} else if p.curIs(tokPunct, "..") {
		p.advance()
	} else {
		return nil, &ParseError{Detail: "expected '..' or '..=' in for range", Line: p.cur().line}
	}

	end, err := p.parseRangeOperand()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlockStmts()
	if err != nil {
		return nil, err
	}

	return domain.ForStmt{Var: name, Start: start, End: end, Inclusive: inclusive, Body: body}, nil
}

// parseRangeOperand parses the additive-precedence expression on either
// side of `..`/`..=`, stopping before the range punctuation itself.
func (p *parser) parseRangeOperand() (domain.ParsedExpr, error) {
	return p.parseBinary(0, true)
}

// parseExprOrAssignStmt disambiguates `target = expr;` from a bare
// expression statement by parsing the left side first.
func (p *parser) parseExprOrAssignStmt() (domain.ParsedStmt, error) {
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.curIs(tokPunct, "=") {
		p.advance()
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(";"); err != nil {
			return nil, err
		}
		return domain.AssignStmt{Target: expr, Value: value}, nil
	}
	if p.curIs(tokPunct, "}") {
		// Implicit tail return: a function body's last statement with no
		// trailing semicolon is this function's return value in Rust.
		return domain.ReturnStmt{Value: expr}, nil
	}
	if err := p.consumeOptionalSemi(); err != nil {
		return nil, err
	}
	return domain.ExprStmt{Expr: expr}, nil
}

// --- expressions, precedence-climbing ---

var binaryPrec = map[string]int{
	"||": 1, "&&": 2,
	"==": 3, "!=": 3, "<": 3, "<=": 3, ">": 3, ">=": 3,
	"|": 4, "^": 5, "&": 6,
	"<<": 7, ">>": 7,
	"+": 8, "-": 8,
	"*": 9, "/": 9, "%": 9,
}

var binaryOpFromPunct = map[string]domain.BinOp{
	"+": domain.OpAdd, "-": domain.OpSub, "*": domain.OpMul, "/": domain.OpDiv, "%": domain.OpRem,
	"&": domain.OpAnd, "|": domain.OpOr, "^": domain.OpXor, "<<": domain.OpShl, ">>": domain.OpShr,
	"==": domain.OpEq, "!=": domain.OpNe, "<": domain.OpLt, "<=": domain.OpLe, ">": domain.OpGt, ">=": domain.OpGe,
	"&&": domain.OpLAnd, "||": domain.OpLOr,
}

func (p *parser) parseExpr() (domain.ParsedExpr, error) { return p.parseBinary(0, false) }

// parseExprNoStruct is used for if/while conditions, where Rust disallows a
// bare struct-literal brace (irrelevant to this subset, kept for clarity of
// intent at call sites).
func (p *parser) parseExprNoStruct() (domain.ParsedExpr, error) { return p.parseBinary(0, false) }

func (p *parser) parseBinary(minPrec int, stopAtRange bool) (domain.ParsedExpr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		if p.cur().kind != tokPunct {
			break
		}
		if stopAtRange && (p.cur().text == ".." || p.cur().text == "..=") {
			break
		}
		prec, ok := binaryPrec[p.cur().text]
		if !ok || prec < minPrec {
			break
		}
		op := binaryOpFromPunct[p.cur().text]
		p.advance()
		right, err := p.parseBinary(prec+1, stopAtRange)
		if err != nil {
			return nil, err
		}
		left = domain.BinaryExpr{Op: op, Left: left, Right: right}
	}

	return left, nil
}

func (p *parser) parseUnary() (domain.ParsedExpr, error) {
	switch {
	case p.curIs(tokPunct, "-"):
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return domain.UnaryExpr{Op: domain.UnNeg, Operand: operand}, nil
	case p.curIs(tokPunct, "!"):
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return domain.UnaryExpr{Op: domain.UnNot, Operand: operand}, nil
	case p.curIs(tokPunct, "*"):
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return domain.DerefExpr{Operand: operand}, nil
	default:
		return p.parsePostfix()
	}
}

func (p *parser) parsePostfix() (domain.ParsedExpr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case p.curIs(tokPunct, "."):
			p.advance()
			method, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			if !p.curIs(tokPunct, "(") {
				return nil, &ParseError{Unsupported: true, Detail: "field access is not supported, only method calls", Line: p.cur().line}
			}
			args, err := p.parseCallArgs()
			if err != nil {
				return nil, err
			}
			expr = domain.MethodCallExpr{Receiver: expr, Method: method, Args: args}
		case p.curIs(tokPunct, "["):
			p.advance()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct("]"); err != nil {
				return nil, err
			}
			expr = domain.IndexExpr{Base: expr, Index: idx}
		case p.curIs(tokIdent, "as"):
			p.advance()
			ty, err := p.parseType()
			if err != nil {
				return nil, err
			}
			expr = domain.CastExpr{Operand: expr, Target: ty}
		default:
			return expr, nil
		}
	}
}

func (p *parser) parseCallArgs() ([]domain.ParsedExpr, error) {
	p.advance() // "("
	var args []domain.ParsedExpr
	for !p.curIs(tokPunct, ")") {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.curIs(tokPunct, ",") {
			p.advance()
			continue
		}
		break
	}
	return args, p.expectPunct(")")
}

func (p *parser) parsePrimary() (domain.ParsedExpr, error) {
	t := p.cur()

	switch t.kind {
	case tokInt:
		p.advance()
		n, err := strconv.ParseInt(t.text, 0, 64)
		if err != nil {
			return nil, &ParseError{Detail: "invalid integer literal '" + t.text + "'", Line: t.line}
		}
		return domain.IntLit{Value: n}, nil
	case tokFloat:
		p.advance()
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, &ParseError{Detail: "invalid float literal '" + t.text + "'", Line: t.line}
		}
		return domain.FloatLit{Value: f}, nil
	case tokIdent:
		switch t.text {
		case "true":
			p.advance()
			return domain.BoolLit{Value: true}, nil
		case "false":
			p.advance()
			return domain.BoolLit{Value: false}, nil
		case "if":
			return p.parseIfExpr()
		}
		p.advance()
		if p.curIs(tokPunct, "!") {
			return nil, &ParseError{Unsupported: true, Detail: "macros are not supported: " + t.text + "!", Line: t.line}
		}
		if p.curIs(tokPunct, "(") {
			args, err := p.parseCallArgs()
			if err != nil {
				return nil, err
			}
			return domain.CallExpr{Func: t.text, Args: args}, nil
		}
		return domain.VarExpr{Name: t.text}, nil
	case tokPunct:
		switch t.text {
		case "(":
			p.advance()
			inner, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			return inner, nil
		case "{":
			return p.parseBlockExpr()
		}
	}

	return nil, &ParseError{Detail: "unexpected token '" + t.text + "'", Line: t.line}
}

// parseIfExpr parses `if cond { expr } else { expr }` used in tail
// position as a value-producing expression.
func (p *parser) parseIfExpr() (domain.ParsedExpr, error) {
	p.advance() // "if"
	cond, err := p.parseExprNoStruct()
	if err != nil {
		return nil, err
	}
	then, err := p.parseTailExpr()
	if err != nil {
		return nil, err
	}
	if !p.curIs(tokIdent, "else") {
		return nil, &ParseError{Unsupported: true, Detail: "if-expression requires an else branch", Line: p.cur().line}
	}
	p.advance()
	els, err := p.parseTailExpr()
	if err != nil {
		return nil, err
	}
	return domain.IfExpr{Cond: cond, Then: then, Else: els}, nil
}

// parseTailExpr parses a brace block as a single expression (its tail
// value), used for if-expression arms.
func (p *parser) parseTailExpr() (domain.ParsedExpr, error) {
	if p.curIs(tokIdent, "if") {
		return p.parseIfExpr()
	}
	return p.parseBlockExpr()
}

func (p *parser) parseBlockExpr() (domain.ParsedExpr, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}

	var stmts []domain.ParsedStmt
	var tail domain.ParsedExpr

	for !p.atEOF() && !p.curIs(tokPunct, "}") {
		if isExprStart(p.cur()) && p.isTailPosition() {
			expr, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if p.curIs(tokPunct, ";") {
				p.advance()
				stmts = append(stmts, domain.ExprStmt{Expr: expr})
				continue
			}
			tail = expr
			break
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}

	if err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return domain.BlockExpr{Stmts: stmts, Tail: tail}, nil
}

// isTailPosition is a conservative heuristic: keyword-led statements
// (let/if/while/loop/for/return/break/continue) are always parsed as
// statements; everything else is attempted as an expression that may turn
// out to be the block's tail value.
func (p *parser) isTailPosition() bool {
	switch p.cur().text {
	case "let", "if", "while", "loop", "for", "return", "break", "continue":
		return false
	default:
		return true
	}
}

func isExprStart(t token) bool {
	if t.kind == tokInt || t.kind == tokFloat || t.kind == tokString {
		return true
	}
	if t.kind == tokIdent {
		return true
	}
	return t.kind == tokPunct && (t.text == "(" || t.text == "{" || t.text == "-" || t.text == "!" || t.text == "*")
}
