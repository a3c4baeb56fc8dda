package content

import (
	"reflect"
	"testing"
)

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
		{
			name:  "single sentence without terminator",
			input: "Uma frase só",
			want:  []string{"Uma frase só"},
		},
		{
			name:  "split on all terminators",
			input: "Primeira. Segunda? Terceira! Quarta",
			want:  []string{"Primeira.", "Segunda?", "Terceira!", "Quarta"},
		},
		{
			name:  "lowercase continuation does not split",
			input: "Olá mundo. é minúscula. Fim!",
			want:  []string{"Olá mundo. é minúscula.", "Fim!"},
		},
		{
			name:  "accented capital starts a sentence",
			input: "Primeiro. Édson chegou.",
			want:  []string{"Primeiro.", "Édson chegou."},
		},
		{
			name:  "terminator without whitespace does not split",
			input: "Ver v1.Two. Done",
			want:  []string{"Ver v1.Two.", "Done"},
		},
		{
			name:  "newline counts as whitespace",
			input: "Fim da linha.\nOutra linha.",
			want:  []string{"Fim da linha.", "Outra linha."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitSentences(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitSentences(%q) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty text",
			input: "",
			want:  "",
		},
		{
			name:  "fewer sentences than the limit",
			input: "Uma frase só",
			want:  "Uma frase só",
		},
		{
			name:  "highest score first",
			input: "Gatos gostam de dormir. Cachorros gostam de correr e gatos gostam de sol. O sol brilha.",
			want:  "Cachorros gostam de correr e gatos gostam de sol. Gatos gostam de dormir. O sol brilha.",
		},
		{
			name:  "ties keep document order",
			input: "Alfa beta. Gama delta. Alfa gama. Beta delta.",
			want:  "Alfa beta. Gama delta. Alfa gama.",
		},
		{
			name:  "lowest scoring sentence dropped",
			input: "Café quente. Café forte e café doce. Nada aqui. Café com leite.",
			want:  "Café forte e café doce. Café quente. Café com leite.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Summarize(tt.input); got != tt.want {
				t.Errorf("Summarize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestWordFrequencies(t *testing.T) {
	got := wordFrequencies("O gato, e (o) GATO! de casa.")
	want := map[string]int{"gato": 2, "casa": 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("wordFrequencies = %v, want %v", got, want)
	}
}
