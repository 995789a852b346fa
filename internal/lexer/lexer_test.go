package lexer_test

import (
	"testing"

	"github.com/csml-lang/interpreter/internal/lexer"
	"github.com/csml-lang/interpreter/pkg/token"
)

func kinds(toks []token.Token) []token.Kind {
	ks := make([]token.Kind, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}
	return ks
}

func assertKinds(t *testing.T, toks []token.Token, want ...token.Kind) {
	t.Helper()
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestLex_Operators(t *testing.T) {
	t.Parallel()
	toks := lexer.Lex([]byte("== || && >= <= = > <"))
	assertKinds(t, toks,
		token.Equal, token.Or, token.And, token.GreaterThanEqual, token.LessThanEqual,
		token.Assign, token.GreaterThan, token.LessThan, token.EOF)
}

func TestLex_OperatorsLongestMatchFirst(t *testing.T) {
	t.Parallel()
	// a naive single-char-first scanner would split "==" into "=" "=".
	toks := lexer.Lex([]byte("a==b"))
	assertKinds(t, toks, token.Ident, token.Equal, token.Ident, token.EOF)
}

func TestLex_Punctuation(t *testing.T) {
	t.Parallel()
	toks := lexer.Lex([]byte(", . ; : ( ) { } [ ]"))
	assertKinds(t, toks,
		token.Comma, token.Dot, token.SemiColon, token.Colon,
		token.LParen, token.RParen, token.LBrace, token.RBrace,
		token.LBracket, token.RBracket, token.EOF)
}

func TestLex_Keywords(t *testing.T) {
	t.Parallel()
	toks := lexer.Lex([]byte("if flow goto remember"))
	assertKinds(t, toks, token.If, token.Flow, token.Goto, token.Remember, token.EOF)
}

func TestLex_ReservedFuncs(t *testing.T) {
	t.Parallel()
	toks := lexer.Lex([]byte("retry ask say import"))
	assertKinds(t, toks, token.ReservedFunc, token.ReservedFunc, token.ReservedFunc, token.ReservedFunc, token.EOF)
	for i, name := range []string{"retry", "ask", "say", "import"} {
		if toks[i].Literal != name {
			t.Errorf("token %d literal = %q, want %q", i, toks[i].Literal, name)
		}
	}
}

func TestLex_BoolLiterals(t *testing.T) {
	t.Parallel()
	toks := lexer.Lex([]byte("True False"))
	assertKinds(t, toks, token.BoolLiteral, token.BoolLiteral, token.EOF)
	if toks[0].Literal != "True" || toks[1].Literal != "False" {
		t.Errorf("literals = %q, %q", toks[0].Literal, toks[1].Literal)
	}
}

func TestLex_IdentVsReservedVsKeyword(t *testing.T) {
	t.Parallel()
	toks := lexer.Lex([]byte("hello_world iffy flowchart"))
	assertKinds(t, toks, token.Ident, token.Ident, token.Ident, token.EOF)
}

func TestLex_Integer(t *testing.T) {
	t.Parallel()
	toks := lexer.Lex([]byte("42 0 007"))
	assertKinds(t, toks, token.IntLiteral, token.IntLiteral, token.IntLiteral, token.EOF)
	if toks[0].Literal != "42" || toks[1].Literal != "0" || toks[2].Literal != "007" {
		t.Errorf("literals = %q %q %q", toks[0].Literal, toks[1].Literal, toks[2].Literal)
	}
}

func TestLex_PlainStringCollapsesToOneLiteral(t *testing.T) {
	t.Parallel()
	toks := lexer.Lex([]byte(`"hello world"`))
	assertKinds(t, toks, token.StringLiteral, token.EOF)
	if toks[0].Literal != "hello world" {
		t.Errorf("literal = %q", toks[0].Literal)
	}
}

func TestLex_EmptyString(t *testing.T) {
	t.Parallel()
	toks := lexer.Lex([]byte(`""`))
	assertKinds(t, toks, token.StringLiteral, token.EOF)
	if toks[0].Literal != "" {
		t.Errorf("literal = %q, want empty", toks[0].Literal)
	}
}

func TestLex_ComplexStringSplice(t *testing.T) {
	t.Parallel()
	toks := lexer.Lex([]byte(`"hello {{ name }}!"`))
	// "hello " StringLiteral, {{ name }} ComplexString, "!" StringLiteral
	assertKinds(t, toks, token.StringLiteral, token.ComplexString, token.StringLiteral, token.EOF)
	if toks[0].Literal != "hello " {
		t.Errorf("prefix literal = %q", toks[0].Literal)
	}
	if toks[2].Literal != "!" {
		t.Errorf("suffix literal = %q", toks[2].Literal)
	}
	assertKinds(t, toks[1].Inner, token.Ident)
	if toks[1].Inner[0].Literal != "name" {
		t.Errorf("inner literal = %q", toks[1].Inner[0].Literal)
	}
}

func TestLex_ComplexStringSpliceAtStart(t *testing.T) {
	t.Parallel()
	toks := lexer.Lex([]byte(`"{{ name }} says hi"`))
	assertKinds(t, toks, token.ComplexString, token.StringLiteral, token.EOF)
	if toks[1].Literal != " says hi" {
		t.Errorf("suffix literal = %q", toks[1].Literal)
	}
}

func TestLex_ComplexStringWithExpression(t *testing.T) {
	t.Parallel()
	toks := lexer.Lex([]byte(`"total: {{ a.b(1) }}"`))
	assertKinds(t, toks, token.StringLiteral, token.ComplexString, token.EOF)
	assertKinds(t, toks[1].Inner, token.Ident, token.Dot, token.Ident, token.LParen, token.IntLiteral, token.RParen)
}

func TestLex_NestedStringInsideSplice(t *testing.T) {
	t.Parallel()
	toks := lexer.Lex([]byte(`"{{ f("x") }}"`))
	assertKinds(t, toks, token.ComplexString, token.EOF)
	assertKinds(t, toks[0].Inner, token.Ident, token.LParen, token.StringLiteral, token.RParen)
}

func TestLex_IllegalByte(t *testing.T) {
	t.Parallel()
	toks := lexer.Lex([]byte("a # b"))
	assertKinds(t, toks, token.Ident, token.Illegal, token.Ident, token.EOF)
	if toks[1].Literal != "#" {
		t.Errorf("illegal literal = %q", toks[1].Literal)
	}
}

func TestLex_WhitespaceInsignificant(t *testing.T) {
	t.Parallel()
	a := lexer.Lex([]byte("a.b ( 1 )"))
	b := lexer.Lex([]byte("a.b(1)"))
	if len(a) != len(b) {
		t.Fatalf("token counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Kind != b[i].Kind {
			t.Errorf("token %d kind differs: %s vs %s", i, a[i].Kind, b[i].Kind)
		}
	}
}

func TestLex_PositionsTrackLineAndColumn(t *testing.T) {
	t.Parallel()
	toks := lexer.Lex([]byte("a\nb"))
	if toks[0].Pos.Line != 1 || toks[0].Pos.Column != 1 {
		t.Errorf("first token pos = %+v", toks[0].Pos)
	}
	if toks[1].Pos.Line != 2 || toks[1].Pos.Column != 1 {
		t.Errorf("second token pos = %+v", toks[1].Pos)
	}
}

func TestLex_StepSkeleton(t *testing.T) {
	t.Parallel()
	src := `flow greeting(event)
start: say "hi {{ user.name }}"
goto next`
	toks := lexer.Lex([]byte(src))
	if toks[len(toks)-1].Kind != token.EOF {
		t.Fatalf("last token should be EOF, got %s", toks[len(toks)-1].Kind)
	}
	var sawGoto, sawSay bool
	for _, tk := range toks {
		if tk.Kind == token.Goto {
			sawGoto = true
		}
		if tk.Kind == token.ReservedFunc && tk.Literal == "say" {
			sawSay = true
		}
	}
	if !sawGoto || !sawSay {
		t.Errorf("expected goto and say tokens, sawGoto=%v sawSay=%v", sawGoto, sawSay)
	}
}
