package content

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProcess_MeetingReport(t *testing.T) {
	raw := "Relatório de Reunião\n\nDiscutimos #projeto e #prazo.\nContato: ana@example.com\nLink: https://example.com/doc\n- Item um\n- Item dois"

	result := Process(raw)

	require.Equal(t, raw, result.OriginalContent)
	require.Equal(t,
		"Relatório de Reunião\n\nDiscutimos #projeto e #prazo.\nContato: ana@example.com Link: https://example.com/doc\n- Item um\n- Item dois",
		result.NormalizedText)

	md := result.Metadata
	require.Equal(t, "Relatório de Reunião", md.SuggestedTitle)
	require.Equal(t, TypeMeeting, md.ContentType)
	require.Nil(t, md.Date)
	require.Equal(t, []string{"projeto", "prazo"}, md.Tags)
	require.Equal(t, []string{"ana@example.com"}, md.Emails)
	require.Equal(t, []string{"https://example.com/doc"}, md.Links)
	require.Equal(t, []string{"Item um", "Item dois"}, md.ListItems)
	require.NotEmpty(t, md.Summary)
}

func TestProcess_LineWrapRepair(t *testing.T) {
	result := Process("This is a sentence that was\nbroken by OCR across two lines.")

	require.Equal(t, "This is a sentence that was broken by OCR across two lines.", result.NormalizedText)
	require.Equal(t, result.NormalizedText, result.Metadata.Summary)
}

func TestProcess_Empty(t *testing.T) {
	result := Process("")

	require.Empty(t, result.NormalizedText)
	require.Equal(t, UntitledTitle, result.Metadata.SuggestedTitle)
	require.Equal(t, TypeUnknown, result.Metadata.ContentType)
	require.Empty(t, result.Metadata.Summary)
}

func TestProcess_JSONShape(t *testing.T) {
	data, err := json.Marshal(Process("Reunião de equipe em 2024-05-01"))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Contains(t, decoded, "originalContent")
	require.Contains(t, decoded, "normalizedText")

	md, ok := decoded["metadata"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"suggestedTitle", "contentType", "date", "tags", "links", "emails", "listItems", "summary"} {
		require.Contains(t, md, key)
	}
	require.Equal(t, "2024-05-01", md["date"])
	require.Equal(t, []any{}, md["tags"])
}

func TestProcess_Deterministic(t *testing.T) {
	for _, input := range normalizeCorpus {
		require.Equal(t, Process(input), Process(input))
	}
}
