package dub

import "testing"

func TestLexer(t *testing.T) {
	type test struct {
		input  string
		expect []token
	}
	tests := []test{
		{
			input: "A '* 2",
			expect: []token{
				token{typ: typeIdentifier, text: "A"},
				token{typ: typeQuote, text: "'"},
				token{typ: typeAsterisk, text: "*"},
				token{typ: typeInt, text: "2"},
				token{typ: typeEOF},
			},
		},
		{
			input: "A 1 2",
			expect: []token{
				token{typ: typeIdentifier, text: "A"},
				token{typ: typeInt, text: "1"},
				token{typ: typeInt, text: "2"},
				token{typ: typeEOF},
			},
		},
		{
			input: "'1:2 /    / 3,4",
			expect: []token{
				token{typ: typeQuote, text: "'"},
				token{typ: typeInt, text: "1"},
				token{typ: typeColon, text: ":"},
				token{typ: typeInt, text: "2"},
				token{typ: typeSlash, text: "/"},
				token{typ: typeSlash, text: "/"},
				token{typ: typeInt, text: "3"},
				token{typ: typeComma, text: ","},
				token{typ: typeInt, text: "4"},
				token{typ: typeEOF},
			},
		},
		{
			input: "1.0",
			expect: []token{
				token{typ: typeFloat, text: "1.0"},
				token{typ: typeEOF},
			},
		},
		{
			input: "-1.",
			expect: []token{
				token{typ: typeFloat, text: "-1."},
				token{typ: typeEOF},
			},
		},
		{
			input: "-.1",
			expect: []token{
				token{typ: typeFloat, text: "-.1"},
				token{typ: typeEOF},
			},
		},
		{
			input: `command "this is a string" 1`,
			expect: []token{
				token{typ: typeIdentifier, text: "command"},
				token{typ: typeString, text: `"this is a string"`},
				token{typ: typeInt, text: "1"},
				token{typ: typeEOF},
			},
		},
		{
			input: "set synth env.attack 0.5",
			expect: []token{
				token{typ: typeIdentifier, text: "set"},
				token{typ: typeIdentifier, text: "synth"},
				token{typ: typeIdentifier, text: "env.attack"},
				token{typ: typeFloat, text: "0.5"},
				token{typ: typeEOF},
			},
		},
		{
			input: "loop a 4 [60 (64 67) [62 -1]]",
			expect: []token{
				token{typ: typeIdentifier, text: "loop"},
				token{typ: typeIdentifier, text: "a"},
				token{typ: typeInt, text: "4"},
				token{typ: typeLBracket, text: "["},
				token{typ: typeInt, text: "60"},
				token{typ: typeLParen, text: "("},
				token{typ: typeInt, text: "64"},
				token{typ: typeInt, text: "67"},
				token{typ: typeRParen, text: ")"},
				token{typ: typeLBracket, text: "["},
				token{typ: typeInt, text: "62"},
				token{typ: typeInt, text: "-1"},
				token{typ: typeRBracket, text: "]"},
				token{typ: typeRBracket, text: "]"},
				token{typ: typeEOF},
			},
		},
		{
			input: "preset harp; play 60 # pluck",
			expect: []token{
				token{typ: typeIdentifier, text: "preset"},
				token{typ: typeIdentifier, text: "harp"},
				token{typ: typeSemicolon, text: ";"},
				token{typ: typeIdentifier, text: "play"},
				token{typ: typeInt, text: "60"},
				token{typ: typeEOF},
			},
		},
		{
			input: "# only a comment",
			expect: []token{
				token{typ: typeEOF},
			},
		},
	}
	for _, test := range tests {
		t.Log(test.input)
		tokens, err := lex(test.input)
		if err != nil {
			t.Errorf("unexpected lex error: %v", err)
			continue
		}
		if len(tokens) != len(test.expect) {
			t.Fatalf("token mismatch: \nwant: %+v, \ngot:  %+v", test.expect, tokens)
		}
		for i, got := range tokens {
			want := test.expect[i]
			if want.typ != got.typ {
				t.Errorf("wrong type: want %v, got %v", want, got)
			}
			if want.text != got.text {
				t.Errorf("wrong text: want %v, got %v", want, got)
			}
		}
	}
}

func TestLexerErrors(t *testing.T) {
	for _, input := range []string{
		"a -",
		"a .-",
		`load "unterminated`,
		"a b!",
	} {
		_, err := lex(input)
		if err == nil {
			t.Errorf("expected error for input: %q", input)
		}
	}
}

func TestLexerPositions(t *testing.T) {
	tokens, err := lex("set  synth [1]")
	if err != nil {
		t.Fatal(err)
	}
	want := []int{0, 5, 11, 12, 13, 14}
	if len(tokens) != len(want) {
		t.Fatalf("want %d tokens, got %d", len(want), len(tokens))
	}
	for i, tok := range tokens {
		if tok.pos != want[i] {
			t.Errorf("token %q: want position %d, got %d", tok.text, want[i], tok.pos)
		}
	}
}

func TestLexerErrorPosition(t *testing.T) {
	_, err := lex("set synth cutoff 8!00")
	serr, ok := err.(*SyntaxError)
	if !ok {
		t.Fatalf("want a *SyntaxError, got %v", err)
	}
	if serr.Pos != 18 {
		t.Errorf("want position 18, got %d", serr.Pos)
	}
}
