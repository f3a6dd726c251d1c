package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"doneby/internal/config"
	"doneby/internal/observability"
)

// SuggestionClient asks the LLM for action-plan text.
type SuggestionClient interface {
	SuggestPlans(ctx context.Context, videoTitle string) ([]string, error)
	ConvertToTitle(ctx context.Context, planText string) (string, error)
}

// OpenAIClient talks to an OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	endpoint string
	apiKey   string
	model    string
	http     *http.Client
}

// NewOpenAIClient builds a suggestion client from application config.
func NewOpenAIClient(cfg *config.Config) *OpenAIClient {
	timeout := time.Duration(cfg.SuggestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &OpenAIClient{
		endpoint: cfg.SuggestAPIURL,
		apiKey:   cfg.SuggestAPIKey,
		model:    cfg.SuggestModel,
		http:     &http.Client{Timeout: timeout},
	}
}

const suggestPrompt = `You will be given the title of a YouTube video a viewer just watched.
Propose exactly 3 small, concrete action plans the viewer could commit to within a week.
Answer with a JSON array of 3 strings and nothing else.`

const titlePrompt = `Condense the following action plan into a short motivating title of at most 30 characters.
Answer with the title only, no quotes.`

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// SuggestPlans asks the model for three plan suggestions for the given video title.
func (c *OpenAIClient) SuggestPlans(ctx context.Context, videoTitle string) (plans []string, err error) {
	start := time.Now()
	defer func() { observability.ObserveExternalCall("suggest", start, err) }()

	content, err := c.complete(ctx, suggestPrompt, videoTitle)
	if err != nil {
		return nil, err
	}

	// Models occasionally wrap the array in a code fence; strip it before parsing.
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &plans); err != nil {
		return nil, fmt.Errorf("suggestion response was not a JSON array: %w", err)
	}
	if len(plans) == 0 {
		return nil, fmt.Errorf("suggestion response contained no plans")
	}
	return plans, nil
}

// ConvertToTitle condenses plan text into a short title.
func (c *OpenAIClient) ConvertToTitle(ctx context.Context, planText string) (title string, err error) {
	start := time.Now()
	defer func() { observability.ObserveExternalCall("suggest", start, err) }()

	content, err := c.complete(ctx, titlePrompt, planText)
	if err != nil {
		return "", err
	}
	title = strings.Trim(strings.TrimSpace(content), `"`)
	if title == "" {
		return "", fmt.Errorf("title conversion returned empty text")
	}
	return title, nil
}

func (c *OpenAIClient) complete(ctx context.Context, system, user string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("suggestion request failed: %w", err)
	}
	defer resp.Body.Close()

	var body chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("suggestion response was not valid JSON: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if body.Error != nil {
			return "", fmt.Errorf("suggestion service error: %s", body.Error.Message)
		}
		return "", fmt.Errorf("suggestion service returned status %d", resp.StatusCode)
	}
	if len(body.Choices) == 0 {
		return "", fmt.Errorf("suggestion response contained no choices")
	}
	return body.Choices[0].Message.Content, nil
}
