// Package lexer turns CSML source bytes into a flat token sequence.
//
// Lexing never fails fatally: a byte the lexer cannot classify becomes an
// Illegal token and scanning continues. The parser is responsible for
// turning an Illegal token into a positioned error.
package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/csml-lang/interpreter/pkg/token"
)

// Lex scans src and returns its token sequence, always terminated with an
// EOF token.
func Lex(src []byte) []token.Token {
	l := &lexer{src: src, line: 1, column: 1}
	return l.lexAll()
}

type lexer struct {
	src    []byte
	offset int
	line   int
	column int
}

func (l *lexer) lexAll() []token.Token {
	var toks []token.Token
	for {
		l.skipWhitespace()
		if l.offset >= len(l.src) {
			break
		}
		toks = l.lexOne(toks)
	}
	toks = append(toks, token.Token{Kind: token.EOF, Pos: l.position()})
	return toks
}

// lexOne scans exactly one source token (which may expand to several
// StringLiteral/ComplexString tokens for a spliced string) and appends it
// to toks.
func (l *lexer) lexOne(toks []token.Token) []token.Token {
	if l.src[l.offset] == '"' {
		return append(toks, l.lexString()...)
	}
	return append(toks, l.next())
}

// lexUntil scans tokens until it consumes the closing delimiter close (which
// it also consumes), used for the recursive `{{ ... }}` splice body. It
// returns the inner tokens (without a trailing EOF) and reports whether the
// closing delimiter was found before the source ran out.
func (l *lexer) lexUntil(close string) ([]token.Token, bool) {
	var toks []token.Token
	for {
		l.skipWhitespace()
		if l.offset >= len(l.src) {
			return toks, false
		}
		if strings.HasPrefix(l.rest(), close) {
			l.advanceBytes(len(close))
			return toks, true
		}
		toks = l.lexOne(toks)
	}
}

func (l *lexer) position() token.Position {
	return token.Position{Line: l.line, Column: l.column, Offset: l.offset}
}

func (l *lexer) skipWhitespace() {
	for l.offset < len(l.src) {
		b := l.src[l.offset]
		if b != ' ' && b != '\t' && b != '\r' && b != '\n' {
			break
		}
		l.advanceBytes(1)
	}
}

// advanceBytes moves the cursor forward n bytes, tracking line/column.
func (l *lexer) advanceBytes(n int) {
	for range n {
		if l.offset >= len(l.src) {
			return
		}
		if l.src[l.offset] == '\n' {
			l.line++
			l.column = 1
		} else {
			l.column++
		}
		l.offset++
	}
}

func (l *lexer) rest() string { return string(l.src[l.offset:]) }

// next lexes exactly one token starting at the current offset, which must
// not be whitespace and must not be at end of input.
func (l *lexer) next() token.Token {
	pos := l.position()

	// 1. multi-char operators
	if kind, ok := matchOperator(l.rest(), true); ok {
		lit := operatorLiterals[kind]
		l.advanceBytes(len(lit))
		return token.Token{Kind: kind, Literal: lit, Pos: pos}
	}

	// 2. single-char operators
	if kind, ok := matchOperator(l.rest(), false); ok {
		lit := operatorLiterals[kind]
		l.advanceBytes(len(lit))
		return token.Token{Kind: kind, Literal: lit, Pos: pos}
	}

	// 3. punctuation
	if kind, ok := punctuationKinds[l.src[l.offset]]; ok {
		lit := string(l.src[l.offset])
		l.advanceBytes(1)
		return token.Token{Kind: kind, Literal: lit, Pos: pos}
	}

	// 5. integer literal
	if isDigit(l.src[l.offset]) {
		return l.lexInteger(pos)
	}

	// 6. identifier / reserved / keyword / bool literal
	if r, _ := utf8.DecodeRune(l.src[l.offset:]); isIdentStart(r) {
		return l.lexIdent(pos)
	}

	// 7. illegal: consume exactly one byte
	lit := string(l.src[l.offset])
	l.advanceBytes(1)
	return token.Token{Kind: token.Illegal, Literal: lit, Pos: pos}
}

var operatorsByLen = []struct {
	lit  string
	kind token.Kind
}{
	{"==", token.Equal},
	{"||", token.Or},
	{"&&", token.And},
	{">=", token.GreaterThanEqual},
	{"<=", token.LessThanEqual},
	{"=", token.Assign},
	{">", token.GreaterThan},
	{"<", token.LessThan},
}

var operatorLiterals = map[token.Kind]string{
	token.Equal:            "==",
	token.Or:               "||",
	token.And:              "&&",
	token.GreaterThanEqual: ">=",
	token.LessThanEqual:    "<=",
	token.Assign:           "=",
	token.GreaterThan:      ">",
	token.LessThan:         "<",
}

var punctuationKinds = map[byte]token.Kind{
	',': token.Comma,
	'.': token.Dot,
	';': token.SemiColon,
	':': token.Colon,
	'(': token.LParen,
	')': token.RParen,
	'{': token.LBrace,
	'}': token.RBrace,
	'[': token.LBracket,
	']': token.RBracket,
}

// matchOperator checks rest against the operator table, restricted to
// two-byte operators when multi is true and to one-byte operators
// otherwise, so multi-char operators are always tried first (longest
// match).
func matchOperator(rest string, multi bool) (token.Kind, bool) {
	for _, op := range operatorsByLen {
		if multi != (len(op.lit) == 2) {
			continue
		}
		if strings.HasPrefix(rest, op.lit) {
			return op.kind, true
		}
	}
	return 0, false
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isIdentStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }

func (l *lexer) lexInteger(pos token.Position) token.Token {
	start := l.offset
	for l.offset < len(l.src) && isDigit(l.src[l.offset]) {
		l.advanceBytes(1)
	}
	return token.Token{Kind: token.IntLiteral, Literal: string(l.src[start:l.offset]), Pos: pos}
}

func (l *lexer) lexIdent(pos token.Position) token.Token {
	start := l.offset
	for l.offset < len(l.src) {
		r, size := utf8.DecodeRune(l.src[l.offset:])
		if r != '_' && !unicode.IsLetter(r) {
			break
		}
		l.advanceBytes(size)
	}
	name := string(l.src[start:l.offset])

	if kind, ok := token.Keywords[name]; ok {
		return token.Token{Kind: kind, Literal: name, Pos: pos}
	}
	if token.ReservedFuncs[name] {
		return token.Token{Kind: token.ReservedFunc, Literal: name, Pos: pos}
	}
	if name == "True" || name == "False" {
		return token.Token{Kind: token.BoolLiteral, Literal: name, Pos: pos}
	}
	return token.Token{Kind: token.Ident, Literal: name, Pos: pos}
}

// lexString scans a double-quoted string, splicing out `{{ ... }}` regions
// as recursively-lexed ComplexString tokens. A string with no splice
// collapses to a single StringLiteral token; a string with one or more
// splices yields a sequence of StringLiteral/ComplexString tokens in source
// order, one per non-empty segment between splices (an empty leading,
// trailing or in-between segment produces no token).
// The parser is responsible for joining a multi-token run into one
// ComplexLiteral node.
func (l *lexer) lexString() []token.Token {
	pos := l.position()
	l.advanceBytes(1) // opening quote

	var segments []token.Token
	var lit strings.Builder
	segPos := l.position()
	sawSplice := false

	flush := func(force bool) {
		if lit.Len() > 0 || force {
			segments = append(segments, token.Token{Kind: token.StringLiteral, Literal: lit.String(), Pos: segPos})
			lit.Reset()
		}
	}

	for l.offset < len(l.src) {
		switch {
		case l.src[l.offset] == '"':
			l.advanceBytes(1)
			flush(!sawSplice && len(segments) == 0)
			if len(segments) == 0 {
				return []token.Token{{Kind: token.StringLiteral, Literal: "", Pos: pos}}
			}
			return segments
		case strings.HasPrefix(l.rest(), "{{"):
			flush(false)
			sawSplice = true
			splicePos := l.position()
			l.advanceBytes(2)
			inner, _ := l.lexUntil("}}")
			segments = append(segments, token.Token{Kind: token.ComplexString, Pos: splicePos, Inner: inner})
			segPos = l.position()
		default:
			r, size := utf8.DecodeRune(l.src[l.offset:])
			lit.WriteRune(r)
			l.advanceBytes(size)
		}
	}
	// unterminated string: return what we have; the missing closing quote
	// is not reported, by the lexer or by the parser.
	flush(false)
	if len(segments) == 0 {
		return []token.Token{{Kind: token.StringLiteral, Literal: "", Pos: pos}}
	}
	return segments
}
