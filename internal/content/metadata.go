package content

import (
	"strings"
	"unicode/utf8"
)

// Title length bounds (exclusive), counted in runes.
const (
	minTitleChars  = 5
	maxTitleChars  = 100
	titleScanLines = 5
)

// Metadata holds the signals derived from normalized text.
type Metadata struct {
	SuggestedTitle string   `json:"suggestedTitle"`
	ContentType    string   `json:"contentType"`
	Date           *string  `json:"date"`
	Tags           []string `json:"tags"`
	Links          []string `json:"links"`
	Emails         []string `json:"emails"`
	ListItems      []string `json:"listItems"`
	Summary        string   `json:"summary"`
}

// Extract derives metadata from normalized text. Each field is computed
// independently; Summary is left empty (see Summarize and Process).
func Extract(normalized string) Metadata {
	return Metadata{
		SuggestedTitle: SuggestTitle(normalized),
		ContentType:    Classify(normalized),
		Date:           FindDate(normalized),
		Tags:           FindTags(normalized),
		Links:          FindLinks(normalized),
		Emails:         FindEmails(normalized),
		ListItems:      FindListItems(normalized),
	}
}

// SuggestTitle picks the first of the leading non-empty lines that looks like a title.
func SuggestTitle(text string) string {
	lines := nonEmptyLines(text)

	var title string
	for i, line := range lines {
		if i == titleScanLines {
			break
		}
		trimmed := strings.TrimSpace(line)
		n := utf8.RuneCountInString(trimmed)
		if n > minTitleChars && n < maxTitleChars {
			title = strings.TrimSpace(headingRegex.ReplaceAllString(trimmed, ""))
			break
		}
	}

	if title == "" && len(lines) > 0 {
		title = strings.TrimSpace(lines[0])
	}
	if title == "" {
		title = UntitledTitle
	}
	return title
}

// Classify assigns a content type label by keyword rules.
// A checklist marker turns an otherwise generic note into a task.
func Classify(text string) string {
	label := TypeUnknown
	for _, rule := range categoryRules {
		if rule.pattern.MatchString(text) {
			label = rule.label
			break
		}
	}

	if (label == TypeNote || label == TypeUnknown) && checkboxRegex.MatchString(text) {
		label = TypeTask
	}
	return label
}

// FindDate returns the first D/M/Y or YYYY-MM-DD substring, or nil.
func FindDate(text string) *string {
	match := dateRegex.FindString(text)
	if match == "" {
		return nil
	}
	return &match
}

// FindTags returns #tag and [tag] markers without their delimiters, first-seen order.
func FindTags(text string) []string {
	var tags []string
	for _, m := range tagRegex.FindAllStringSubmatch(text, -1) {
		tag := m[1]
		if tag == "" {
			tag = m[2]
		}
		tags = append(tags, tag)
	}
	return unique(tags)
}

// FindLinks returns absolute http(s) URLs, first-seen order.
func FindLinks(text string) []string {
	return unique(linkRegex.FindAllString(text, -1))
}

// FindEmails returns email addresses, first-seen order.
func FindEmails(text string) []string {
	return unique(emailRegex.FindAllString(text, -1))
}

// FindListItems returns the text after the marker of every list line, in document order.
func FindListItems(text string) []string {
	items := []string{}
	for _, line := range nonEmptyLines(text) {
		if m := listItemRegex.FindStringSubmatch(line); m != nil {
			items = append(items, m[1])
		}
	}
	return items
}

// nonEmptyLines splits text into lines and drops the blank ones.
func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// unique removes duplicates while keeping first-seen order. Never returns nil.
func unique(values []string) []string {
	seen := make(map[string]bool, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			result = append(result, v)
		}
	}
	return result
}
