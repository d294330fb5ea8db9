package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

// Credentials supplies the provider API key. ok is false when no key is
// configured, which callers surface as a configuration problem instead of
// attempting a request.
type Credentials interface {
	APIKey() (string, bool)
}

// StaticCredentials holds a key loaded from configuration. An empty key means
// not configured.
type StaticCredentials struct {
	Key string
}

func (c StaticCredentials) APIKey() (string, bool) {
	key := strings.TrimSpace(c.Key)
	return key, key != ""
}

// Request is one completion call. JSONResponse asks the provider to constrain
// output to a single JSON object.
type Request struct {
	System       string
	User         string
	JSONResponse bool
	Temperature  float64
	MaxTokens    int
}

// Client produces a completion for a prompt pair. Implementations classify
// failures into the package's error taxonomy.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Options configure an OpenAIChatClient.
type Options struct {
	BaseURL        string
	Model          string
	MaxTokens      int
	TimeoutSeconds int
}

// OpenAIChatClient calls an OpenAI-compatible chat completions endpoint.
type OpenAIChatClient struct {
	credentials Credentials
	baseURL     string
	model       string
	maxTokens   int
	httpClient  *http.Client
}

func NewOpenAIChatClient(credentials Credentials, opts Options) *OpenAIChatClient {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	timeoutSeconds := opts.TimeoutSeconds
	if timeoutSeconds <= 0 {
		timeoutSeconds = 30
	}
	return &OpenAIChatClient{
		credentials: credentials,
		baseURL:     baseURL,
		model:       strings.TrimSpace(opts.Model),
		maxTokens:   opts.MaxTokens,
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutSeconds) * time.Second,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (c *OpenAIChatClient) Complete(ctx context.Context, req Request) (string, error) {
	apiKey, ok := c.credentials.APIKey()
	if !ok {
		return "", ErrNoCredential
	}

	messages := make([]chatMessage, 0, 2)
	if system := strings.TrimSpace(req.System); system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: strings.TrimSpace(req.User)})

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}
	payload := map[string]any{
		"model":       c.model,
		"messages":    messages,
		"temperature": req.Temperature,
	}
	if maxTokens > 0 {
		payload["max_tokens"] = maxTokens
	}
	if req.JSONResponse {
		payload["response_format"] = map[string]any{"type": "json_object"}
	}
	bodyRaw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	request, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/chat/completions",
		bytes.NewReader(bodyRaw),
	)
	if err != nil {
		return "", err
	}
	request.Header.Set("Authorization", "Bearer "+apiKey)
	request.Header.Set("Content-Type", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return "", &TransportError{Cause: err}
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return "", &TransportError{Cause: err}
	}

	switch {
	case response.StatusCode == http.StatusUnauthorized || response.StatusCode == http.StatusForbidden:
		return "", ErrInvalidCredential
	case response.StatusCode == http.StatusTooManyRequests:
		return "", ErrRateLimited
	case response.StatusCode < 200 || response.StatusCode >= 300:
		return "", &ServiceError{
			Status:  response.StatusCode,
			Message: serviceErrorMessage(responseBody),
		}
	}

	content := extractCompletionContent(responseBody)
	if content == "" {
		return "", ErrMalformedResponse
	}
	return content, nil
}

func extractCompletionContent(responseBody []byte) string {
	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(responseBody, &parsed); err != nil {
		return ""
	}
	if len(parsed.Choices) == 0 {
		return ""
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content)
}

// serviceErrorMessage prefers the provider's error envelope message over the
// raw body, which may be HTML or pages of JSON.
func serviceErrorMessage(responseBody []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(responseBody, &envelope); err == nil {
		if message := strings.TrimSpace(envelope.Error.Message); message != "" {
			return message
		}
	}
	return truncateForLog(string(responseBody), 600)
}

func truncateForLog(value string, limit int) string {
	trimmed := strings.TrimSpace(value)
	if limit <= 0 || len(trimmed) <= limit {
		return trimmed
	}
	return trimmed[:limit] + "...(truncated)"
}
