// Package token defines the closed set of lexical token kinds produced by
// the CSML lexer and the source-position metadata attached to every token
// and AST node.
package token

import "fmt"

// Kind identifies the lexical category of a [Token]. The set is closed: the
// lexer never produces a Kind outside this list.
type Kind int

const (
	// Illegal marks a byte the lexer could not classify. The parser turns
	// an Illegal token into a positioned [ParseError]; the lexer itself
	// never fails.
	Illegal Kind = iota
	EOF

	// Operators
	Equal             // ==
	Or                // ||
	And               // &&
	Assign            // =
	GreaterThan       // >
	LessThan          // <
	GreaterThanEqual  // >=
	LessThanEqual     // <=

	// Punctuation
	Comma
	Dot
	SemiColon
	Colon
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket

	// Keywords
	If
	Flow
	Goto
	Remember

	// ReservedFunc carries the reserved builtin name in Token.Literal
	// ("retry", "ask", "say", "import").
	ReservedFunc

	// Ident carries an identifier name in Token.Literal.
	Ident

	// IntLiteral carries a base-10 integer in Token.Literal.
	IntLiteral

	// BoolLiteral carries "True" or "False" in Token.Literal.
	BoolLiteral

	// StringLiteral carries the literal (non-spliced) text of a string
	// segment in Token.Literal.
	StringLiteral

	// ComplexString carries the inner token sub-sequence of a `{{ ... }}`
	// splice in Token.Inner.
	ComplexString
)

var kindNames = map[Kind]string{
	Illegal:          "ILLEGAL",
	EOF:              "EOF",
	Equal:            "==",
	Or:               "||",
	And:              "&&",
	Assign:           "=",
	GreaterThan:      ">",
	LessThan:         "<",
	GreaterThanEqual: ">=",
	LessThanEqual:    "<=",
	Comma:            ",",
	Dot:              ".",
	SemiColon:        ";",
	Colon:            ":",
	LParen:           "(",
	RParen:           ")",
	LBrace:           "{",
	RBrace:           "}",
	LBracket:         "[",
	RBracket:         "]",
	If:               "if",
	Flow:             "flow",
	Goto:             "goto",
	Remember:         "remember",
	ReservedFunc:     "RESERVED_FUNC",
	Ident:            "IDENT",
	IntLiteral:       "INT",
	BoolLiteral:      "BOOL",
	StringLiteral:    "STRING",
	ComplexString:    "COMPLEX_STRING",
}

// String returns the human-readable name of k, used in error messages.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Keywords maps exact-match reserved words to their keyword Kind.
var Keywords = map[string]Kind{
	"if":       If,
	"flow":     Flow,
	"goto":     Goto,
	"remember": Remember,
}

// ReservedFuncs is the set of reserved builtin-call names recognised by the
// lexer as ReservedFunc tokens rather than plain identifiers.
var ReservedFuncs = map[string]bool{
	"retry":  true,
	"ask":    true,
	"say":    true,
	"import": true,
}

// Position is a 1-based line/column pair plus a 0-based byte offset into the
// flow's source text.
type Position struct {
	Line   int
	Column int
	Offset int
}

// Token is a single lexical unit with its source position.
//
// Literal carries the decoded text for Ident, ReservedFunc, IntLiteral,
// BoolLiteral, and StringLiteral kinds. Inner carries the recursively lexed
// sub-sequence for ComplexString kinds.
type Token struct {
	Kind    Kind
	Literal string
	Pos     Position
	Inner   []Token
}

// Interval is the source range of an AST node, lying inside its containing
// flow's source text.
//
// EndLine and EndColumn are optional (zero when the node spans a single
// point, e.g. an empty block); Offset is the byte offset of the node's
// first token.
type Interval struct {
	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int
	Offset      int
}

// IntervalFromToken builds an Interval that starts (and, absent further
// information, ends) at t's position.
func IntervalFromToken(t Token) Interval {
	return Interval{
		StartLine:   t.Pos.Line,
		StartColumn: t.Pos.Column,
		Offset:      t.Pos.Offset,
	}
}
