package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"taskdeck/pkg/domain"
)

// ResponseKind selects the fixed output schema for one inference call.
type ResponseKind string

const (
	// KindBase requests a generic conversational reply.
	KindBase ResponseKind = "base"
	// KindProject requests structured project metadata.
	KindProject ResponseKind = "project"
)

// BaseResult is the generic reply shape.
type BaseResult struct {
	Response string `json:"response"`
}

// ProjectResult is the project-creation shape. Dates are epoch seconds.
type ProjectResult struct {
	Title     string                 `json:"title"`
	Summary   string                 `json:"summary"`
	Content   string                 `json:"content"`
	Priority  domain.ProjectPriority `json:"priority"`
	Category  domain.ProjectCategory `json:"category"`
	StartDate int64                  `json:"start_date"`
	EndDate   int64                  `json:"end_date"`
}

// Result is a tagged union: exactly one of Base or Project is set, matching
// the requested kind.
type Result struct {
	Kind    ResponseKind
	Base    *BaseResult
	Project *ProjectResult
}

// Inferencer performs one structured-output inference round trip.
// A nil result with nil error means the model declined or produced an
// unparsable reply; callers treat that as "nothing created", not a failure.
type Inferencer interface {
	Infer(ctx context.Context, systemPrompt, userPrompt string, kind ResponseKind) (*Result, error)
}

// Client calls any OpenAI-compatible /v1/chat/completions endpoint that
// supports json_schema response formats. Works with vLLM, LiteLLM,
// OpenRouter, self-hosted models, etc.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient builds a structured-output client.
// baseURL should include the /v1 prefix, e.g. "https://api.openai.com/v1".
func NewClient(baseURL, apiKey, model string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return &Client{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(apiKey),
		model:   strings.TrimSpace(model),
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Infer sends one blocking chat-completion request constrained to the schema
// for kind. No retry, no backoff; transport and API failures propagate.
func (c *Client) Infer(ctx context.Context, systemPrompt, userPrompt string, kind ResponseKind) (*Result, error) {
	if c.model == "" {
		return nil, fmt.Errorf("inference model required")
	}
	schema, schemaName, err := schemaFor(kind)
	if err != nil {
		return nil, err
	}
	messages := make([]chatMessage, 0, 2)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: userPrompt})

	reqBody := chatRequest{
		Model:    c.model,
		Messages: messages,
		ResponseFormat: &responseFormat{
			Type: "json_schema",
			JSONSchema: jsonSchemaSpec{
				Name:   schemaName,
				Strict: true,
				Schema: schema,
			},
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	url := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inference request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error.Message != "" {
			return nil, fmt.Errorf("inference api error: %s", errResp.Error.Message)
		}
		return nil, fmt.Errorf("inference api error: %s", resp.Status)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("inference decode: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, nil
	}
	choice := chatResp.Choices[0].Message
	if choice.Refusal != "" {
		return nil, nil
	}
	return parseResult(kind, choice.Content), nil
}

// parseResult maps raw model output onto the requested shape. Anything that
// does not decode cleanly yields nil, never an error.
func parseResult(kind ResponseKind, content string) *Result {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	switch kind {
	case KindBase:
		var base BaseResult
		if err := json.Unmarshal([]byte(content), &base); err != nil || base.Response == "" {
			return nil
		}
		return &Result{Kind: KindBase, Base: &base}
	case KindProject:
		var project ProjectResult
		if err := json.Unmarshal([]byte(content), &project); err != nil {
			return nil
		}
		if project.Title == "" {
			return nil
		}
		if _, ok := domain.ParseProjectPriority(string(project.Priority)); !ok {
			project.Priority = domain.PriorityLow
		}
		if _, ok := domain.ParseProjectCategory(string(project.Category)); !ok {
			project.Category = domain.CategoryShortTerm
		}
		return &Result{Kind: KindProject, Project: &project}
	default:
		return nil
	}
}

func schemaFor(kind ResponseKind) (json.RawMessage, string, error) {
	switch kind {
	case KindBase:
		return baseSchema, "base_response", nil
	case KindProject:
		return projectSchema, "project_response", nil
	default:
		return nil, "", fmt.Errorf("unknown response kind: %s", kind)
	}
}

var baseSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"response": {"type": "string"}
	},
	"required": ["response"],
	"additionalProperties": false
}`)

var projectSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"title": {"type": "string"},
		"summary": {"type": "string"},
		"content": {"type": "string"},
		"priority": {"type": "string", "enum": ["low", "medium", "high", "critical"]},
		"category": {"type": "string", "enum": ["short_term", "mid_term", "long_term", "forever"]},
		"start_date": {"type": "integer"},
		"end_date": {"type": "integer"}
	},
	"required": ["title", "summary", "content", "priority", "category", "start_date", "end_date"],
	"additionalProperties": false
}`)

// OpenAI-compatible request/response types.

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type       string         `json:"type"`
	JSONSchema jsonSchemaSpec `json:"json_schema"`
}

type jsonSchemaSpec struct {
	Name   string          `json:"name"`
	Strict bool            `json:"strict"`
	Schema json.RawMessage `json:"schema"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal,omitempty"`
		} `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
