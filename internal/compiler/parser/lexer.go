// Package parser implements the Rust-Subset Parser: it reads
// the restricted `pub fn` syntax accepted by the code generator and
// produces the typed AST defined in internal/core/domain/rust_ast.go.
//
// No Go library parses Rust syntax, so this package hand-rolls a lexer and
// recursive-descent parser over the accepted grammar subset - a justified
// stdlib-only component, documented in DESIGN.md.
package parser

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokInt
	tokFloat
	tokString
	tokPunct
	tokDocComment
)

type token struct {
	kind tokenKind
	text string
	pos  int
	line int
}

// lexer tokenizes the accepted Rust-subset grammar: identifiers, keywords,
// integer/float literals, the punctuation the codegen understands, and
// `///` doc comment lines (collected verbatim, newline-joined, ahead of an
// `fn` item).
type lexer struct {
	src  string
	pos  int
	line int
}

func newLexer(src string) *lexer { return &lexer{src: src, line: 1} }

func (l *lexer) peekByte() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) peekByteAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentCont(b byte) bool { return isIdentStart(b) || (b >= '0' && b <= '9') }
func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// tokenize reads the entire source into a flat token stream. Regular `//`
// line comments and block comments are discarded; `///` doc comment lines
// are preserved as tokDocComment, one token per line, with the leading
// `///` and exactly one following space stripped.
func tokenize(src string) ([]token, error) {
	l := newLexer(src)
	var toks []token

	for {
		l.skipInertWhitespace()
		if l.pos >= len(l.src) {
			toks = append(toks, token{kind: tokEOF, line: l.line})
			return toks, nil
		}

		b := l.peekByte()

		switch {
		case b == '/' && l.peekByteAt(1) == '/' && l.peekByteAt(2) == '/':
			start := l.pos + 3
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
			text := strings.TrimPrefix(l.src[start:l.pos], " ")
			toks = append(toks, token{kind: tokDocComment, text: text, line: l.line})
		case b == '/' && l.peekByteAt(1) == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case b == '/' && l.peekByteAt(1) == '*':
			l.pos += 2
			for l.pos < len(l.src) && !(l.peekByte() == '*' && l.peekByteAt(1) == '/') {
				if l.src[l.pos] == '\n' {
					l.line++
				}
				l.pos++
			}
			l.pos += 2
		case isIdentStart(b):
			start := l.pos
			for l.pos < len(l.src) && isIdentCont(l.peekByte()) {
				l.pos++
			}
			toks = append(toks, token{kind: tokIdent, text: l.src[start:l.pos], line: l.line})
		case isDigit(b):
			tok, err := l.lexNumber()
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
		case b == '"':
			tok, err := l.lexString()
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
		default:
			tok := l.lexPunct()
			toks = append(toks, tok)
		}
	}
}

func (l *lexer) skipInertWhitespace() {
	for l.pos < len(l.src) {
		b := l.src[l.pos]
		if b == '\n' {
			l.line++
			l.pos++
			continue
		}
		if b == ' ' || b == '\t' || b == '\r' {
			l.pos++
			continue
		}
		break
	}
}

func (l *lexer) lexNumber() (token, error) {
	start := l.pos
	isFloat := false
	for l.pos < len(l.src) && (isDigit(l.peekByte()) || l.peekByte() == '_') {
		l.pos++
	}
	if l.peekByte() == '.' && isDigit(l.peekByteAt(1)) {
		isFloat = true
		l.pos++
		for l.pos < len(l.src) && (isDigit(l.peekByte()) || l.peekByte() == '_') {
			l.pos++
		}
	}
	text := strings.ReplaceAll(l.src[start:l.pos], "_", "")
	// Skip Rust integer-literal type suffixes (u64, i64, usize,...).
	for isIdentCont(l.peekByte()) {
		l.pos++
	}
	if isFloat {
		return token{kind: tokFloat, text: text, line: l.line}, nil
	}
	return token{kind: tokInt, text: text, line: l.line}, nil
}

func (l *lexer) lexString() (token, error) {
	l.pos++ // opening quote
	start := l.pos
	for l.pos < len(l.src) && l.src[l.pos] != '"' {
		if l.src[l.pos] == '\\' {
			l.pos++
		}
		l.pos++
	}
	if l.pos >= len(l.src) {
		return token{}, fmt.Errorf("unterminated string literal at line %d", l.line)
	}
	text := l.src[start:l.pos]
	l.pos++ // closing quote
	return token{kind: tokString, text: text, line: l.line}, nil
}

// multiByte lists the punctuation tokens longer than one byte, longest
// first so greedy matching picks e.g. "..=" before "..".
var multiByte = []string{"..=", "->", "&&", "||", "==", "!=", "<=", ">=", "<<", ">>", "::", ".."}

func (l *lexer) lexPunct() token {
	for _, p := range multiByte {
		if strings.HasPrefix(l.src[l.pos:], p) {
			l.pos += len(p)
			return token{kind: tokPunct, text: p, line: l.line}
		}
	}
	b := l.src[l.pos]
	l.pos++
	return token{kind: tokPunct, text: string(b), line: l.line}
}
