package dub

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	type test struct {
		input string
		want  Command
	}
	tests := []test{
		{
			input: "A '1",
			want: Command{
				Name: Identifier("A"),
				Args: []Node{
					MatchExpr{
						matchers: []matchItem{
							{level: 0, matcher: listMatch{1}},
						},
					},
				},
			},
		},
		{
			input: "A '*/*",
			want: Command{
				Name: Identifier("A"),
				Args: []Node{
					MatchExpr{
						matchers: []matchItem{
							{level: 0, matcher: matchAll},
							{level: 1, matcher: matchAll},
						},
					},
				},
			},
		},
		{
			input: "A '*//3,4",
			want: Command{
				Name: Identifier("A"),
				Args: []Node{
					MatchExpr{
						matchers: []matchItem{
							{level: 0, matcher: matchAll},
							{level: 2, matcher: listMatch{3, 4}},
						},
					},
				},
			},
		},
		{
			input: "A '1,2//3:4",
			want: Command{
				Name: Identifier("A"),
				Args: []Node{
					MatchExpr{
						matchers: []matchItem{
							{level: 0, matcher: listMatch{1, 2}},
							{level: 2, matcher: rangeMatch{start: 3, end: 4}},
						},
					},
				},
			},
		},
		{
			input: `load-sound "a/file.wav"`,
			want: Command{
				Name: Identifier("load-sound"),
				Args: []Node{String("a/file.wav")},
			},
		},
		{
			input: `load ""`,
			want: Command{
				Name: Identifier("load"),
				Args: []Node{String("")},
			},
		},
		{
			input: "set synth cutoff 1200",
			want: Command{
				Name: Identifier("set"),
				Args: []Node{Identifier("synth"), Identifier("cutoff"), Number(1200)},
			},
		},
		{
			input: "loop a synth 2 [60 (64 67) [62 .5] []]",
			want: Command{
				Name: Identifier("loop"),
				Args: []Node{
					Identifier("a"),
					Identifier("synth"),
					Number(2),
					Array{
						Number(60),
						Tuple{Number(64), Number(67)},
						Array{Number(62), Number(0.5)},
						Array{},
					},
				},
			},
		},
	}
	for _, test := range tests {
		t.Log(test.input)
		got, err := Parse(test.input)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(test.want, got) {
			t.Errorf("\nwant: %+v\ngot:  %+v", test.want, got)
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{
		"",
		"1 2",
		"loop [60 62",
		"loop (60]",
		"a '1 2",
		"a '1/",
		"a '1:x",
		"a; b",
		"# nothing",
	} {
		if _, err := Parse(input); err == nil {
			t.Errorf("expected error for input: %q", input)
		}
	}
}

func TestParseAll(t *testing.T) {
	got, err := ParseAll("preset harp;; play 60 ; pulse a synth 42 '*/2 # off-beats")
	if err != nil {
		t.Fatal(err)
	}
	want := []Command{
		{Name: "preset", Args: []Node{Identifier("harp")}},
		{Name: "play", Args: []Node{Number(60)}},
		{Name: "pulse", Args: []Node{
			Identifier("a"),
			Identifier("synth"),
			Number(42),
			MatchExpr{matchers: []matchItem{
				{level: 0, matcher: matchAll},
				{level: 1, matcher: listMatch{2}},
			}},
		}},
	}
	if !reflect.DeepEqual(want, got) {
		t.Errorf("\nwant: %+v\ngot:  %+v", want, got)
	}

	cmds, err := ParseAll("  # just a comment")
	if err != nil || len(cmds) != 0 {
		t.Errorf("want no commands, got %v, %v", cmds, err)
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, err := Parse("loop a synth 2 [60 62")
	serr, ok := err.(*SyntaxError)
	if !ok {
		t.Fatalf("want a *SyntaxError, got %v", err)
	}
	if serr.Pos != 21 || serr.Msg != "unexpected end of input" {
		t.Errorf("want end of input at 21, got %v", serr)
	}
}
