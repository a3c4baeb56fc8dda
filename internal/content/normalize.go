package content

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// invisibleReplacer drops zero-width characters and the byte-order mark.
var invisibleReplacer = strings.NewReplacer(
	"\u200B", "",
	"\u200C", "",
	"\u200D", "",
	"\uFEFF", "",
)

// listMarkerRegex matches a line that starts like a list item: -, *, • or "N." followed by whitespace.
var listMarkerRegex = regexp.MustCompile(`^\s*([-*•]|\d+\.)\s`)

// hyphenWrapRegex matches a word broken with a hyphen at the end of a line.
// The character after the newline is captured so a blank line is never consumed.
var hyphenWrapRegex = regexp.MustCompile(`-\n([^\n])`)

// excessBreaksRegex matches three or more consecutive newlines.
var excessBreaksRegex = regexp.MustCompile(`\n{3,}`)

// sentenceEnders are the characters that close a paragraph buffer.
const sentenceEnders = ".?!:;"

// Normalize repairs raw extracted text into clean paragraphs:
// 1. Strip zero-width characters and BOM
// 2. Convert \r\n and \r to \n
// 3. Rejoin lines broken mid-sentence, keeping blank lines and list items apart
// 4. Drop hyphenated wraps, cap paragraph breaks at one blank line, trim
//
// Normalize never fails; empty input yields an empty string.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	text := invisibleReplacer.Replace(raw)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	var paragraph string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		// Blank line: close the paragraph and keep the break
		if trimmed == "" {
			if paragraph != "" {
				out = append(out, paragraph)
				paragraph = ""
			}
			out = append(out, "")
			continue
		}

		if paragraph != "" && !endsSentence(paragraph) && !IsListItem(trimmed) {
			if stem, ok := cutWordWrap(paragraph); ok {
				paragraph = stem + trimmed
			} else {
				paragraph += " " + trimmed
			}
			continue
		}

		if paragraph != "" {
			out = append(out, paragraph)
		}
		paragraph = trimmed
	}
	if paragraph != "" {
		out = append(out, paragraph)
	}

	joined := strings.Join(out, "\n")
	joined = hyphenWrapRegex.ReplaceAllString(joined, "$1")
	joined = excessBreaksRegex.ReplaceAllString(joined, "\n\n")

	return strings.TrimSpace(joined)
}

// IsListItem reports whether a line starts with a list marker followed by whitespace.
func IsListItem(line string) bool {
	return listMarkerRegex.MatchString(line)
}

// endsSentence reports whether a trimmed paragraph ends with strong punctuation.
func endsSentence(paragraph string) bool {
	return strings.IndexByte(sentenceEnders, paragraph[len(paragraph)-1]) >= 0
}

// cutWordWrap removes a trailing hyphen that splits a word across lines.
// The hyphen must follow a letter, so dashes used as separators are kept.
func cutWordWrap(paragraph string) (string, bool) {
	stem, ok := strings.CutSuffix(paragraph, "-")
	if !ok || stem == "" {
		return paragraph, false
	}
	r, _ := utf8.DecodeLastRuneInString(stem)
	if !unicode.IsLetter(r) {
		return paragraph, false
	}
	return stem, true
}
