package lexer

import (
	"testing"

	"github.com/skx/cc/internal/source"
	"github.com/skx/cc/token"
)

type expect struct {
	typ     token.Type
	literal string
}

// fromString is a test-local convenience wrapper: it builds a Lexer
// straight from a literal program string, without every test having to
// build a source.Buffer by hand.
func fromString(input string) *Lexer {
	return New(source.New("test.c", input))
}

func run(t *testing.T, input string, want []expect) {
	t.Helper()
	l := fromString(input)
	for i, tt := range want {
		tok, err := l.NextToken()
		if err != nil {
			t.Fatalf("tests[%d] - unexpected lex error: %s", i, err)
		}
		if tok.Type != tt.typ {
			t.Fatalf("tests[%d] - tokentype wrong, expected=%q, got=%q", i, tt.typ, tok.Type)
		}
		if tok.Literal != tt.literal {
			t.Fatalf("tests[%d] - literal wrong, expected=%q, got=%q", i, tt.literal, tok.Literal)
		}
	}
}

func TestParseNumbers(t *testing.T) {
	run(t, `3 43 0 010 0x1F`, []expect{
		{token.NUMBER, "3"},
		{token.NUMBER, "43"},
		{token.NUMBER, "0"},
		{token.NUMBER, "010"},
		{token.NUMBER, "0x1F"},
		{token.EOF, ""},
	})
}

func TestNumberValues(t *testing.T) {
	l := fromString(`10 010 0x10`)

	tok, err := l.NextToken()
	if err != nil || tok.IntValue != 10 || tok.IntBase != token.Decimal {
		t.Fatalf("decimal literal mis-decoded: %+v err=%v", tok, err)
	}
	tok, err = l.NextToken()
	if err != nil || tok.IntValue != 8 || tok.IntBase != token.Octal {
		t.Fatalf("octal literal mis-decoded: %+v err=%v", tok, err)
	}
	tok, err = l.NextToken()
	if err != nil || tok.IntValue != 16 || tok.IntBase != token.Hex {
		t.Fatalf("hex literal mis-decoded: %+v err=%v", tok, err)
	}
}

func TestParseOperators(t *testing.T) {
	run(t, `+ - * / % = < > & | ^ ~ ! ? : ; , . ( ) { } [ ]`, []expect{
		{token.PLUS, "+"},
		{token.MINUS, "-"},
		{token.ASTERISK, "*"},
		{token.SLASH, "/"},
		{token.PERCENT, "%"},
		{token.ASSIGN, "="},
		{token.LT, "<"},
		{token.GT, ">"},
		{token.AMPERSAND, "&"},
		{token.PIPE, "|"},
		{token.CARET, "^"},
		{token.TILDE, "~"},
		{token.BANG, "!"},
		{token.QUESTION, "?"},
		{token.COLON, ":"},
		{token.SEMICOLON, ";"},
		{token.COMMA, ","},
		{token.DOT, "."},
		{token.LPAREN, "("},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.RBRACE, "}"},
		{token.LBRACKET, "["},
		{token.RBRACKET, "]"},
		{token.EOF, ""},
	})
}

func TestMaximalMunch(t *testing.T) {
	run(t, `<<= >>= == != <= >= && || ++ -- << >> += -= *= /= %= |= &= ^= -> < = -`, []expect{
		{token.SHLASSIGN, "<<="},
		{token.SHRASSIGN, ">>="},
		{token.EQ, "=="},
		{token.NOTEQ, "!="},
		{token.LTEQ, "<="},
		{token.GTEQ, ">="},
		{token.ANDAND, "&&"},
		{token.OROR, "||"},
		{token.INC, "++"},
		{token.DEC, "--"},
		{token.SHL, "<<"},
		{token.SHR, ">>"},
		{token.PLUSEQ, "+="},
		{token.MINUSEQ, "-="},
		{token.STAREQ, "*="},
		{token.SLASHEQ, "/="},
		{token.PERCENTEQ, "%="},
		{token.PIPEEQ, "|="},
		{token.AMPEQ, "&="},
		{token.CARETEQ, "^="},
		{token.ARROW, "->"},
		{token.LT, "<"},
		{token.ASSIGN, "="},
		{token.MINUS, "-"},
		{token.EOF, ""},
	})
}

func TestKeywordsAndIdents(t *testing.T) {
	run(t, `int char void if else while for do break continue return goto sizeof struct foo _bar1`, []expect{
		{token.INT, "int"},
		{token.CHAR, "char"},
		{token.VOID, "void"},
		{token.IF, "if"},
		{token.ELSE, "else"},
		{token.WHILE, "while"},
		{token.FOR, "for"},
		{token.DO, "do"},
		{token.BREAK, "break"},
		{token.CONTINUE, "continue"},
		{token.RETURN, "return"},
		{token.GOTO, "goto"},
		{token.SIZEOF, "sizeof"},
		{token.STRUCT, "struct"},
		{token.IDENT, "foo"},
		{token.IDENT, "_bar1"},
		{token.EOF, ""},
	})
}

func TestStringLiteral(t *testing.T) {
	l := fromString(`"abc" "a\"b\n"`)

	tok, err := l.NextToken()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if tok.Type != token.STRING || tok.Str != "abc" {
		t.Fatalf("got %+v", tok)
	}

	tok, err = l.NextToken()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if tok.Type != token.STRING || tok.Str != "a\"b\n" {
		t.Fatalf("got %+v", tok)
	}
}

func TestUnterminatedString(t *testing.T) {
	l := fromString(`"abc`)
	_, err := l.NextToken()
	if err == nil {
		t.Fatalf("expected an error for an unterminated string")
	}
}

func TestComments(t *testing.T) {
	run(t, "1 // a comment\n+ /* block\ncomment */ 2", []expect{
		{token.NUMBER, "1"},
		{token.PLUS, "+"},
		{token.NUMBER, "2"},
		{token.EOF, ""},
	})
}

func TestUnterminatedBlockComment(t *testing.T) {
	l := fromString(`1 /* never closed`)
	_, err := l.NextToken()
	if err != nil {
		t.Fatalf("unexpected error on the leading number: %s", err)
	}
	_, err = l.NextToken()
	if err == nil {
		t.Fatalf("expected an error for an unterminated block comment")
	}
}

func TestParseBogus(t *testing.T) {
	l := fromString(`$`)
	_, err := l.NextToken()
	if err == nil {
		t.Fatalf("expected an error for an unrecognized byte")
	}
}
