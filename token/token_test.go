package token

import "testing"

func TestCreate(t *testing.T) {
	tests := []struct {
		name string
		typ  TokenType
		want string
	}{
		{"paren", LPAREN, "("},
		{"fatarrow", FATARROW, "=>"},
		{"keyword fn", FN, "fn"},
		{"eof", EOF, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Create(tt.typ, 1, 0)
			if got.Type != tt.typ || got.Lexeme != tt.want {
				t.Errorf("Create(%v) = %+v, want lexeme %q", tt.typ, got, tt.want)
			}
		})
	}
}

func TestCreateLiteral(t *testing.T) {
	got := CreateLiteral(INT, int64(42), "42", 3, 5)
	if got.Type != INT || got.Lexeme != "42" || got.Literal != int64(42) {
		t.Errorf("CreateLiteral() = %+v", got)
	}
}

func TestKeyWords(t *testing.T) {
	for word, typ := range KeyWords {
		if symbolLexemes[typ] != word {
			t.Errorf("keyword %q maps to %v, whose canonical lexeme is %q", word, typ, symbolLexemes[typ])
		}
	}
}
