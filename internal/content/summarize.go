package content

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SummarySentences is the number of sentences kept in a summary.
const SummarySentences = 3

// wordPunctuation is stripped from every token before counting.
const wordPunctuation = ".,!?;:()"

// Summarize builds an extractive summary: the highest-scoring sentences,
// where a sentence scores the sum of its words' frequencies in the whole text.
// Sentences are joined in score order (highest first); ties keep document order.
func Summarize(normalized string) string {
	sentences := SplitSentences(normalized)
	if len(sentences) == 0 {
		return ""
	}

	freq := wordFrequencies(normalized)

	type scored struct {
		sentence string
		score    int
	}
	ranked := make([]scored, len(sentences))
	for i, s := range sentences {
		ranked[i] = scored{sentence: s, score: scoreSentence(s, freq)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	n := min(SummarySentences, len(ranked))
	parts := make([]string, n)
	for i := range n {
		parts[i] = ranked[i].sentence
	}
	return strings.Join(parts, " ")
}

// SplitSentences splits text at '.', '?' or '!' followed by whitespace and an
// uppercase letter. Returned sentences are trimmed; empty ones are dropped.
func SplitSentences(text string) []string {
	var sentences []string
	start := 0

	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '.' && c != '?' && c != '!' {
			continue
		}

		// Need at least one whitespace rune before the next sentence starts
		j := i + 1
		for j < len(text) {
			r, size := utf8.DecodeRuneInString(text[j:])
			if !unicode.IsSpace(r) {
				break
			}
			j += size
		}
		if j == i+1 || j >= len(text) {
			continue
		}

		next, _ := utf8.DecodeRuneInString(text[j:])
		if !unicode.IsUpper(next) {
			continue
		}

		if s := strings.TrimSpace(text[start : i+1]); s != "" {
			sentences = append(sentences, s)
		}
		start = j
		i = j - 1
	}

	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// wordFrequencies counts non-stop-word tokens over the lowercased text.
func wordFrequencies(text string) map[string]int {
	freq := make(map[string]int)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		word := cleanWord(token)
		if word == "" || IsStopWord(word) {
			continue
		}
		freq[word]++
	}
	return freq
}

// scoreSentence sums the frequencies of the words in a sentence.
func scoreSentence(sentence string, freq map[string]int) int {
	score := 0
	for _, token := range strings.Fields(strings.ToLower(sentence)) {
		score += freq[cleanWord(token)]
	}
	return score
}

// cleanWord removes sentence punctuation from a token.
func cleanWord(token string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(wordPunctuation, r) {
			return -1
		}
		return r
	}, token)
}
