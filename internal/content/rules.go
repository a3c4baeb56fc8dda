package content

import "regexp"

// Content type labels.
const (
	TypeStudy   = "Material de Estudo"
	TypeArticle = "Artigo"
	TypeMeeting = "Reunião"
	TypeTask    = "Tarefa"
	TypeDiary   = "Diário"
	TypeNote    = "Nota"
	TypeUnknown = "Desconhecido"
)

// UntitledTitle is the title used when the text has no lines at all.
const UntitledTitle = "Sem Título"

// categoryRule maps a keyword pattern to a content type label.
type categoryRule struct {
	label   string
	pattern *regexp.Regexp
}

// categoryRules are evaluated in order; the first match wins. Keywords match
// anywhere in the text, so "ata" also hits words such as "data".
var categoryRules = []categoryRule{
	{TypeStudy, regexp.MustCompile(`(?i)estudo|resumo|aula`)},
	{TypeArticle, regexp.MustCompile(`(?i)artigo|not[ií]cia`)},
	{TypeMeeting, regexp.MustCompile(`(?i)reuni[aã]o|ata`)},
	{TypeTask, regexp.MustCompile(`(?i)tarefa|to.?do|task`)},
	{TypeDiary, regexp.MustCompile(`(?i)di[aá]rio|journal`)},
	{TypeNote, regexp.MustCompile(`(?i)nota|note`)},
}

// checkboxRegex matches "[ ]" or "[x]" checklist markers.
var checkboxRegex = regexp.MustCompile(`(?i)\[\s*\]|\[x\]`)

// Field patterns.
var (
	dateRegex     = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{2,4}|\d{4}-\d{2}-\d{2}`)
	tagRegex      = regexp.MustCompile(`#([\p{L}\p{N}_]+)|\[([\p{L}\p{N}_]+)\]`)
	linkRegex     = regexp.MustCompile(`https?://\S+`)
	emailRegex    = regexp.MustCompile(`[a-zA-Z0-9._-]+@[a-zA-Z0-9._-]+\.[a-zA-Z0-9_-]+`)
	listItemRegex = regexp.MustCompile(`^\s*(?:[-*•]|\d+\.)\s+(.*)`)
	headingRegex  = regexp.MustCompile(`^#+\s*`)
)

// stopWords are Portuguese function words ignored when scoring sentences.
var stopWords = map[string]struct{}{
	"e": {}, "o": {}, "a": {}, "os": {}, "as": {},
	"de": {}, "do": {}, "da": {}, "dos": {}, "das": {},
	"em": {}, "no": {}, "na": {}, "nos": {}, "nas": {},
	"um": {}, "uma": {}, "para": {}, "por": {}, "com": {},
	"ao": {}, "aos": {}, "à": {}, "é": {},
	"não": {}, "mas": {}, "ou": {}, "se": {}, "que": {}, "como": {},
	"eu": {}, "você": {}, "ele": {}, "ela": {}, "nós": {}, "eles": {}, "elas": {},
	"este": {}, "esta": {}, "isto": {}, "aquele": {}, "aquela": {}, "aquilo": {},
}

// IsStopWord reports whether a lowercased, punctuation-free word is a stop word.
func IsStopWord(word string) bool {
	_, ok := stopWords[word]
	return ok
}
