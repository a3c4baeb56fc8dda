package content

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "  \n\t\n  ",
			want:  "",
		},
		{
			name:  "line wrap repaired",
			input: "This is a sentence that was\nbroken by OCR across two lines.",
			want:  "This is a sentence that was broken by OCR across two lines.",
		},
		{
			name:  "invisible characters removed",
			input: "he\u200Bllo\u200C wor\u200Dld\uFEFF",
			want:  "hello world",
		},
		{
			name:  "carriage returns normalized",
			input: "First line.\r\nSecond line.\rThird line.",
			want:  "First line.\nSecond line.\nThird line.",
		},
		{
			name:  "paragraph breaks capped at one blank line",
			input: "Para one\n\n\n\nPara two",
			want:  "Para one\n\nPara two",
		},
		{
			name:  "whitespace-only line is a paragraph break",
			input: "Para one.\n   \nPara two.",
			want:  "Para one.\n\nPara two.",
		},
		{
			name:  "list items stay on their own lines",
			input: "Shopping list\n- milk\n- eggs\n* bread\n• butter",
			want:  "Shopping list\n- milk\n- eggs\n* bread\n• butter",
		},
		{
			name:  "numbered list items",
			input: "Steps\n1. open\n2. close",
			want:  "Steps\n1. open\n2. close",
		},
		{
			name:  "list item continuation joined",
			input: "- first item that\ncontinues here\n- second",
			want:  "- first item that continues here\n- second",
		},
		{
			name:  "colon closes the paragraph",
			input: "Note:\nsomething follows",
			want:  "Note:\nsomething follows",
		},
		{
			name:  "semicolon closes the paragraph",
			input: "one;\ntwo",
			want:  "one;\ntwo",
		},
		{
			name:  "hyphenated word wrap rejoined",
			input: "the infor-\nmation was lost",
			want:  "the information was lost",
		},
		{
			name:  "separator dash is not a word wrap",
			input: "price 10 -\ntwenty",
			want:  "price 10 - twenty",
		},
		{
			name:  "hyphen before list item dropped",
			input: "intro-\n- item",
			want:  "intro- item",
		},
		{
			name:  "hyphen before blank line kept",
			input: "end-\n\nnext",
			want:  "end-\n\nnext",
		},
		{
			name:  "leading and trailing blank lines trimmed",
			input: "\n\n  Hello  \n\n",
			want:  "Hello",
		},
		{
			name:  "indented lines trimmed before joining",
			input: "   broken\n      text here",
			want:  "broken text here",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// normalizeCorpus holds inputs that exercise every branch of Normalize.
var normalizeCorpus = []string{
	"",
	"plain",
	"This is a sentence that was\nbroken by OCR across two lines.",
	"Relatório de Reunião\n\nDiscutimos #projeto e #prazo.\nContato: ana@example.com\nLink: https://example.com/doc\n- Item um\n- Item dois",
	"a\r\n\r\n\r\n\r\nb\rc",
	"\uFEFFtitle\u200B\n\n\n\n\nbody",
	"end-\n\nnext",
	"intro-\n- item\n- other-\n\n- last",
	"-\n- x",
	"x.\n-\n- y\n- z",
	"infor-\nmation\nwell-\n\n\nknown",
	"1. one\n2. two\nthree\n\n\n4. four",
	"   \n \t \n",
	"Olá:\nmundo;\nfim!\nnovo?\nlinha",
	"\u200B\u200B\n\u200B",
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, input := range normalizeCorpus {
		once := Normalize(input)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q:\n once = %q\ntwice = %q", input, once, twice)
		}
	}
}

func TestNormalize_Invariants(t *testing.T) {
	for _, input := range normalizeCorpus {
		got := Normalize(input)

		if strings.Contains(got, "\r") {
			t.Errorf("Normalize(%q) contains carriage return: %q", input, got)
		}
		if strings.ContainsAny(got, "\u200B\u200C\u200D\uFEFF") {
			t.Errorf("Normalize(%q) contains invisible characters: %q", input, got)
		}
		if strings.Contains(got, "\n\n\n") {
			t.Errorf("Normalize(%q) contains 3+ consecutive newlines: %q", input, got)
		}
		if got != strings.TrimSpace(got) {
			t.Errorf("Normalize(%q) has surrounding whitespace: %q", input, got)
		}
	}
}

func TestIsListItem(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"- item", true},
		{"* item", true},
		{"• item", true},
		{"12. item", true},
		{"  - indented", true},
		{"-item", false},
		{"1.item", false},
		{"plain text", false},
		{"a. not numbered", false},
	}

	for _, tt := range tests {
		if got := IsListItem(tt.line); got != tt.want {
			t.Errorf("IsListItem(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}
