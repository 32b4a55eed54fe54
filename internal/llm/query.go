// Package llm builds structured retrieval queries with an OpenAI chat model.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/SYH0213/genminute-ai/internal/models"
	"github.com/SYH0213/genminute-ai/internal/retrieval"
)

// DefaultModel is used when no chat model is configured.
const DefaultModel = openai.GPT4oMini

type implQueryConstructor struct {
	client *openai.Client
	model  string
}

// NewQueryConstructor creates a self-query constructor backed by OpenAI
// chat completions in JSON mode.
func NewQueryConstructor(apiKey, model string) retrieval.QueryConstructor {
	if model == "" {
		model = DefaultModel
	}
	return &implQueryConstructor{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// Construct asks the model for a semantic query and metadata filter.
func (c *implQueryConstructor) Construct(ctx context.Context, query string, kind models.CollectionKind) (models.StructuredQuery, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: BuildPrompt(kind)},
			{Role: openai.ChatMessageRoleUser, Content: query},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return models.StructuredQuery{}, fmt.Errorf("%w: chat completion: %v", models.ErrRetrievalUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return models.StructuredQuery{}, fmt.Errorf("%w: chat completion returned no choices", models.ErrRetrievalUnavailable)
	}

	return ParseStructuredQuery(resp.Choices[0].Message.Content, kind)
}

// BuildPrompt renders the instructions for one collection from its
// content description and attribute table.
func BuildPrompt(kind models.CollectionKind) string {
	var b strings.Builder
	b.WriteString("Your goal is to structure the user's query to match the request schema below.\n\n")
	b.WriteString("Respond with a single JSON object:\n")
	b.WriteString("{\"query\": string, \"filter\": object}\n\n")
	b.WriteString("\"query\" is the text to compare to document contents, with every filter condition removed. ")
	b.WriteString("Use an empty string if nothing is left.\n")
	b.WriteString("\"filter\" maps attribute names to the exact value the attribute must equal. ")
	b.WriteString("Only use the attributes listed below. ")
	b.WriteString("For date ranges use the keys \"date_from\" and \"date_to\" in YYYY-MM-DD format. ")
	b.WriteString("Use an empty object if no filter applies.\n\n")

	fmt.Fprintf(&b, "Data source:\ncontent: %s\nattributes:\n", kind.ContentDescription())
	attrs, _ := json.MarshalIndent(kind.Attributes(), "", "  ")
	b.Write(attrs)
	b.WriteString("\n")
	return b.String()
}

type rawStructuredQuery struct {
	Query  string         `json:"query"`
	Filter map[string]any `json:"filter"`
}

// ParseStructuredQuery decodes a model answer into a query and a filter
// valid for kind. Unknown attributes and empty values are dropped.
func ParseStructuredQuery(raw string, kind models.CollectionKind) (models.StructuredQuery, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var parsed rawStructuredQuery
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &parsed); err != nil {
		return models.StructuredQuery{}, fmt.Errorf("%w: parse structured query: %v", models.ErrRetrievalUnavailable, err)
	}

	sq := models.StructuredQuery{Query: strings.TrimSpace(parsed.Query)}
	f := &sq.Filter
	for key, value := range parsed.Filter {
		s := valueString(value)
		if s == "" || strings.EqualFold(s, "NO_FILTER") {
			continue
		}

		switch key {
		case "meeting_id", "dialogue_id":
			f.MeetingID = s
		case "audio_file":
			f.AudioFile = s
		case "title", "meeting_title":
			f.Title = s
		case "meeting_date", "date":
			f.Date = datePart(s)
		case "date_from":
			f.DateFrom = datePart(s)
		case "date_to":
			f.DateTo = datePart(s)
		case "main_topic":
			if kind == models.CollectionSubtopic {
				f.MainTopic = s
			}
		case "summary_index":
			if kind != models.CollectionSubtopic {
				continue
			}
			if idx, err := strconv.Atoi(s); err == nil && idx >= 0 {
				f.SummaryIndex = &idx
			}
		}
	}
	return sq, nil
}

func valueString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

func datePart(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}
