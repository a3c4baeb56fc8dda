// Package analyze asks an OpenAI-compatible chat model to suggest a title,
// summary, tags and category for a normalized note.
package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"

	"github.com/hpungsan/brain/internal/config"
	"github.com/hpungsan/brain/internal/logger"
	"github.com/hpungsan/brain/internal/provider"
)

// Analysis is the metadata suggested by the model.
type Analysis struct {
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Tags     []string `json:"tags"`
	Category string   `json:"category"`
}

// Analyzer suggests note metadata for a text.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (*Analysis, error)
	Model() string
}

// Config configures the chat client.
type Config struct {
	Endpoint    string
	Model       string
	APIKey      string
	Temperature float64
	// Timeout per API request. Default: 60s.
	Timeout time.Duration
	Logger  logger.Logger
}

// FromConfig maps application configuration onto client configuration.
// A blank endpoint or key reuses the embedding settings.
func FromConfig(cfg *config.Config, log logger.Logger) Config {
	a := cfg.Analysis
	endpoint := a.Endpoint
	if strings.TrimSpace(endpoint) == "" {
		endpoint = cfg.Embedding.Endpoint
	}
	apiKey := a.APIKey
	if strings.TrimSpace(apiKey) == "" {
		apiKey = cfg.Embedding.APIKey
	}
	return Config{
		Endpoint:    endpoint,
		Model:       a.Model,
		APIKey:      apiKey,
		Temperature: a.Temperature,
		Timeout:     time.Duration(a.TimeoutSeconds) * time.Second,
		Logger:      log,
	}
}

// New creates an Analyzer backed by the chat completions API.
func New(cfg Config) Analyzer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	return &chatAnalyzer{
		client: provider.NewOpenAIClient(provider.OpenAIConfig{
			Endpoint: cfg.Endpoint,
			APIKey:   cfg.APIKey,
			Timeout:  cfg.Timeout,
		}),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		log:         cfg.Logger,
	}
}

const systemPrompt = "Você é um assistente de organização de conhecimento altamente eficiente. " +
	"Sua tarefa é analisar o texto fornecido e extrair informações estruturadas. " +
	"Responda sempre com um objeto JSON válido, sem nenhum texto ou formatação adicional."

const userPromptTemplate = `Analise o seguinte texto e retorne um objeto JSON com as seguintes chaves:
- "title": Um título conciso e informativo para o texto (máximo 10 palavras).
- "summary": Um resumo executivo do conteúdo (2-4 frases).
- "tags": Um array com 3 a 5 palavras-chave ou tags relevantes em português.
- "category": Uma única categoria sugerida para o texto (ex: "Trabalho", "Pessoal", "Estudo", "Tecnologia", "Finanças").

Texto para análise:
---
%s
---`

type chatAnalyzer struct {
	client      openai.Client
	model       string
	temperature float64
	log         logger.Logger
}

func (a *chatAnalyzer) Analyze(ctx context.Context, text string) (*Analysis, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(a.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(fmt.Sprintf(userPromptTemplate, text)),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}
	if a.temperature > 0 {
		params.Temperature = openai.Float(a.temperature)
	}

	start := time.Now()
	resp, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned for model %s", a.model)
	}

	analysis, err := Parse(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	a.log.Debug("analysis complete",
		logger.String("model", resp.Model),
		logger.Int("tags", len(analysis.Tags)),
		logger.Duration("duration", time.Since(start)))
	return analysis, nil
}

func (a *chatAnalyzer) Model() string { return a.model }

// Parse decodes the model's JSON answer. Tags may arrive as an array or as a
// comma-separated string; every field is trimmed.
func Parse(content string) (*Analysis, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var raw struct {
		Title    string          `json:"title"`
		Summary  string          `json:"summary"`
		Tags     json.RawMessage `json:"tags"`
		Category string          `json:"category"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &raw); err != nil {
		return nil, fmt.Errorf("decode model answer: %w", err)
	}

	tags, err := parseTags(raw.Tags)
	if err != nil {
		return nil, err
	}
	return &Analysis{
		Title:    strings.TrimSpace(raw.Title),
		Summary:  strings.TrimSpace(raw.Summary),
		Tags:     tags,
		Category: strings.TrimSpace(raw.Category),
	}, nil
}

func parseTags(raw json.RawMessage) ([]string, error) {
	tags := []string{}
	if len(raw) == 0 || string(raw) == "null" {
		return tags, nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		var joined string
		if err := json.Unmarshal(raw, &joined); err != nil {
			return nil, fmt.Errorf("decode tags: want array or string, got %s", raw)
		}
		list = strings.Split(joined, ",")
	}
	for _, t := range list {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags, nil
}
