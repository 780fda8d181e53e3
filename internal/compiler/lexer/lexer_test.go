package lexer

import (
	"testing"
)

func tokenTypes(tokens []Token) []TokenType {
	types := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.Type
	}
	return types
}

func TestScanModelDeclaration(t *testing.T) {
	source := `model Post {
  id: int @pk
  title: string!
}`

	l := New(source, "post.site")
	tokens, errs := l.ScanTokens()

	if len(errs) > 0 {
		t.Fatalf("unexpected lex errors: %v", errs)
	}

	expected := []TokenType{
		TOKEN_MODEL, TOKEN_IDENTIFIER, TOKEN_LBRACE,
		TOKEN_IDENTIFIER, TOKEN_COLON, TOKEN_INT, TOKEN_AT, TOKEN_IDENTIFIER,
		TOKEN_IDENTIFIER, TOKEN_COLON, TOKEN_STRING, TOKEN_BANG,
		TOKEN_RBRACE, TOKEN_EOF,
	}

	got := tokenTypes(tokens)
	if len(got) != len(expected) {
		t.Fatalf("token count = %d, want %d (%v)", len(got), len(expected), got)
	}
	for i, want := range expected {
		if got[i] != want {
			t.Errorf("token[%d] = %s, want %s", i, got[i], want)
		}
	}
}

func TestScanLiterals(t *testing.T) {
	tests := []struct {
		source  string
		typ     TokenType
		literal interface{}
	}{
		{`42`, TOKEN_INT_LITERAL, int64(42)},
		{`-7`, TOKEN_INT_LITERAL, int64(-7)},
		{`3.14`, TOKEN_FLOAT_LITERAL, 3.14},
		{`"hello"`, TOKEN_STRING_LITERAL, "hello"},
		{`"a\nb"`, TOKEN_STRING_LITERAL, "a\nb"},
		{`true`, TOKEN_TRUE, nil},
		{`false`, TOKEN_FALSE, nil},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			l := New(tt.source, "test.site")
			tokens, errs := l.ScanTokens()
			if len(errs) > 0 {
				t.Fatalf("unexpected lex errors: %v", errs)
			}
			if tokens[0].Type != tt.typ {
				t.Errorf("type = %s, want %s", tokens[0].Type, tt.typ)
			}
			if tt.literal != nil && tokens[0].Literal != tt.literal {
				t.Errorf("literal = %v, want %v", tokens[0].Literal, tt.literal)
			}
		})
	}
}

func TestScanAnnotationArguments(t *testing.T) {
	source := `@site(component: "image", permissions: "rcu")`

	l := New(source, "test.site")
	tokens, errs := l.ScanTokens()
	if len(errs) > 0 {
		t.Fatalf("unexpected lex errors: %v", errs)
	}

	expected := []TokenType{
		TOKEN_AT, TOKEN_IDENTIFIER, TOKEN_LPAREN,
		TOKEN_IDENTIFIER, TOKEN_COLON, TOKEN_STRING_LITERAL, TOKEN_COMMA,
		TOKEN_IDENTIFIER, TOKEN_COLON, TOKEN_STRING_LITERAL,
		TOKEN_RPAREN, TOKEN_EOF,
	}

	got := tokenTypes(tokens)
	if len(got) != len(expected) {
		t.Fatalf("token count = %d, want %d (%v)", len(got), len(expected), got)
	}
	for i, want := range expected {
		if got[i] != want {
			t.Errorf("token[%d] = %s, want %s", i, got[i], want)
		}
	}
}

func TestCommentsAreDiscarded(t *testing.T) {
	source := "# heading\nmodel Tag { } # trailing\n"

	l := New(source, "test.site")
	tokens, errs := l.ScanTokens()
	if len(errs) > 0 {
		t.Fatalf("unexpected lex errors: %v", errs)
	}

	expected := []TokenType{TOKEN_MODEL, TOKEN_IDENTIFIER, TOKEN_LBRACE, TOKEN_RBRACE, TOKEN_EOF}
	got := tokenTypes(tokens)
	if len(got) != len(expected) {
		t.Fatalf("token count = %d, want %d (%v)", len(got), len(expected), got)
	}
}

func TestLineAndColumnTracking(t *testing.T) {
	source := "model Post {\n  id: int\n}"

	l := New(source, "post.site")
	tokens, _ := l.ScanTokens()

	// "id" is on line 2, column 3
	var idTok *Token
	for i := range tokens {
		if tokens[i].Lexeme == "id" {
			idTok = &tokens[i]
			break
		}
	}
	if idTok == nil {
		t.Fatal("id token not found")
	}
	if idTok.Line != 2 || idTok.Column != 3 {
		t.Errorf("id position = %d:%d, want 2:3", idTok.Line, idTok.Column)
	}
	if idTok.File != "post.site" {
		t.Errorf("file = %s, want post.site", idTok.File)
	}
}

func TestUnterminatedString(t *testing.T) {
	l := New(`name: "oops`, "test.site")
	_, errs := l.ScanTokens()
	if len(errs) == 0 {
		t.Fatal("expected a lex error for unterminated string")
	}
}

func TestUnexpectedCharacter(t *testing.T) {
	l := New(`model Post { id: int $ }`, "test.site")
	_, errs := l.ScanTokens()
	if len(errs) != 1 {
		t.Fatalf("expected 1 lex error, got %d", len(errs))
	}
}
