// Package oracle turns PDF bytes into a candidate identity: it extracts the
// document text and asks an OpenAI-compatible chat model for a structured
// classification, validated against the identity JSON schema.
package oracle

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/JaimeStill/docket/internal/identity"
	"github.com/JaimeStill/docket/pkg/formatting"
)

//go:embed identity.schema.json
var identitySchema []byte

const schemaURL = "identity.schema.json"

// Oracle classifies document text into a candidate identity.
type Oracle interface {
	Classify(ctx context.Context, text string) (identity.Identity, error)
}

type client struct {
	endpoint   string
	model      string
	apiKey     string
	timeout    time.Duration
	maxChars   int
	maxRetries int
	schema     *jsonschema.Schema
	format     responseFormat
	http       *http.Client
	logger     *slog.Logger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type       string          `json:"type"`
	JSONSchema *jsonSchemaSpec `json:"json_schema,omitempty"`
}

type jsonSchemaSpec struct {
	Name   string          `json:"name"`
	Schema json.RawMessage `json:"schema"`
	Strict bool            `json:"strict"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
	} `json:"choices"`
}

// New creates an Oracle. A missing API key is a configuration failure.
func New(cfg *Config, httpClient *http.Client, logger *slog.Logger) (Oracle, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: api key required", ErrConfiguration)
	}

	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}

	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &client{
		endpoint:   strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		timeout:    cfg.TimeoutDuration(),
		maxChars:   cfg.MaxTextChars,
		maxRetries: cfg.MaxRetries,
		schema:     schema,
		format: responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchemaSpec{
				Name:   "identity",
				Schema: strictSchema(),
				Strict: true,
			},
		},
		http:   httpClient,
		logger: logger.With("system", "oracle"),
	}, nil
}

func (c *client) Classify(ctx context.Context, text string) (identity.Identity, error) {
	if len(text) > c.maxChars {
		c.logger.DebugContext(ctx, "truncating document text", "chars", len(text), "max", c.maxChars)
		text = strings.ToValidUTF8(text[:c.maxChars], "")
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: instructions},
			{Role: "user", Content: text},
		},
		ResponseFormat: c.format,
	})
	if err != nil {
		return identity.Identity{}, fmt.Errorf("encode request: %w", err)
	}

	content, err := c.complete(ctx, body)
	if err != nil {
		return identity.Identity{}, err
	}

	return Decode(c.schema, content)
}

// Decode validates model output against schema and decodes it. Output
// wrapped in a markdown code fence is accepted.
func Decode(schema *jsonschema.Schema, content string) (identity.Identity, error) {
	raw, err := formatting.Parse[json.RawMessage](content)
	if err != nil {
		return identity.Identity{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return identity.Identity{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if err := schema.Validate(inst); err != nil {
		return identity.Identity{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	var id identity.Identity
	if err := json.Unmarshal(raw, &id); err != nil {
		return identity.Identity{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return id, nil
}

// Schema returns the compiled identity schema.
func Schema() (*jsonschema.Schema, error) {
	return compileSchema()
}

func (c *client) complete(ctx context.Context, body []byte) (string, error) {
	for attempt := 0; ; attempt++ {
		content, status, err := c.attempt(ctx, body)
		if err == nil {
			return content, nil
		}
		if !retryable(status) || attempt >= c.maxRetries {
			return "", err
		}

		delay := time.Duration(attempt+1) * time.Second
		c.logger.WarnContext(ctx, "retrying classification", "status", status, "attempt", attempt+1, "delay", delay)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (c *client) attempt(ctx context.Context, body []byte) (string, int, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %w", ErrRemote, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		msg := strings.TrimSpace(string(snippet))

		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return "", resp.StatusCode, fmt.Errorf("%w: status %d: %s", ErrConfiguration, resp.StatusCode, msg)
		default:
			return "", resp.StatusCode, fmt.Errorf("%w: status %d: %s", ErrRemote, resp.StatusCode, msg)
		}
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", resp.StatusCode, fmt.Errorf("%w: decode response: %w", ErrRemote, err)
	}
	if len(out.Choices) == 0 {
		return "", resp.StatusCode, fmt.Errorf("%w: no choices", ErrDecode)
	}

	msg := out.Choices[0].Message
	if msg.Refusal != "" {
		return "", resp.StatusCode, fmt.Errorf("%w: model refused: %s", ErrDecode, msg.Refusal)
	}
	return msg.Content, resp.StatusCode, nil
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func compileSchema() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(identitySchema))
	if err != nil {
		return nil, fmt.Errorf("parse identity schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("add identity schema: %w", err)
	}

	schema, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile identity schema: %w", err)
	}
	return schema, nil
}

// strictSchema strips the keywords structured output endpoints reject.
func strictSchema() json.RawMessage {
	var m map[string]any
	if err := json.Unmarshal(identitySchema, &m); err != nil {
		return identitySchema
	}
	delete(m, "$schema")
	delete(m, "title")

	out, err := json.Marshal(m)
	if err != nil {
		return identitySchema
	}
	return out
}
