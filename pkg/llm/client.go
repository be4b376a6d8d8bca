package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/buddybotics/go-buddy/internal/httpc"
)

// Client is the HTTP chat client. One Client serves every vendor; see the
// package documentation for the preset model.
type Client struct {
	config *Config
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a new chat client.
func NewClient(opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	return &Client{
		config: cfg,
		http:   httpc.NewClient(cfg.Timeout),
		logger: cfg.Logger.With("component", "llm.client"),
	}, nil
}

// Chat generates a complete chat completion.
func (c *Client) Chat(ctx context.Context, msgs []Message) (*ChatResponse, error) {
	start := time.Now()

	resp, err := c.post(ctx, msgs, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	content := ""
	model := ""
	switch c.config.wireFormat() {
	case wireOllama:
		var result ollamaResponse
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return nil, wrapError(c.config.Vendor, fmt.Errorf("decode response: %w", err))
		}
		if result.Error != "" {
			return nil, &APIError{Message: result.Error, Vendor: c.config.Vendor}
		}
		content = result.Message.Content
		model = result.Model
	default:
		var result chatCompletionResponse
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return nil, wrapError(c.config.Vendor, fmt.Errorf("decode response: %w", err))
		}
		if len(result.Choices) == 0 {
			return nil, wrapError(c.config.Vendor, fmt.Errorf("no choices returned"))
		}
		content = result.Choices[0].Message.Content
		model = result.Model
	}

	return &ChatResponse{
		Content:   content,
		Model:     model,
		LatencyMs: time.Since(start).Milliseconds(),
	}, nil
}

// Close releases resources.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// validate checks configuration at the point of use.
func (c *Client) validate() error {
	if c.config.Model == "" {
		return ErrNoModel
	}
	if c.config.APIKey == "" && !c.config.keyOptional() {
		return ErrNoAPIKey
	}
	if c.config.endpoint() == "" {
		return ErrNoURL
	}
	return nil
}

// buildPayload constructs the API request payload.
func (c *Client) buildPayload(msgs []Message, stream bool) map[string]any {
	wireFmt := c.config.wireFormat()

	messages := make([]map[string]any, len(msgs))
	for i, msg := range msgs {
		m := map[string]any{
			"role": string(msg.Role),
		}
		switch {
		case len(msg.Images) == 0:
			m["content"] = msg.Content
		case wireFmt == wireOllama:
			m["content"] = msg.Content
			images := make([]string, len(msg.Images))
			for j, img := range msg.Images {
				images[j] = base64.StdEncoding.EncodeToString(img)
			}
			m["images"] = images
		default:
			parts := []map[string]any{
				{"type": "text", "text": msg.Content},
			}
			for _, img := range msg.Images {
				parts = append(parts, map[string]any{
					"type":      "image_url",
					"image_url": map[string]string{"url": dataURL(img)},
				})
			}
			m["content"] = parts
		}
		messages[i] = m
	}

	payload := map[string]any{
		"model":    c.config.Model,
		"messages": messages,
		"stream":   stream,
	}

	if c.config.MaxTokens > 0 {
		payload["max_tokens"] = c.config.MaxTokens
	}
	if c.config.Temperature > 0 {
		payload["temperature"] = c.config.Temperature
	}
	for name, value := range c.config.Params {
		payload[name] = value
	}

	return payload
}

// post marshals and sends the chat request with retries.
func (c *Client) post(ctx context.Context, msgs []Message, stream bool) (*http.Response, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(c.buildPayload(msgs, stream))
	if err != nil {
		return nil, wrapError(c.config.Vendor, fmt.Errorf("marshal payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.config.endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, wrapError(c.config.Vendor, fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	client := c.http
	if stream {
		client = httpc.NewClient(c.config.StreamTimeout)
	}

	return c.doWithRetry(ctx, client, req, body)
}

// doWithRetry performs the request with linear-backoff retry on 429/5xx.
func (c *Client) doWithRetry(ctx context.Context, client *http.Client, req *http.Request, body []byte) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.config.RetryDelay * time.Duration(attempt)):
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
		}

		resp, err := client.Do(req)
		if err != nil {
			lastErr = wrapError(c.config.Vendor, err)
			c.logger.Warn("request failed, retrying",
				"attempt", attempt+1,
				"error", err,
			)
			continue
		}

		if resp.StatusCode == 429 || resp.StatusCode >= 500 {
			lastErr = c.parseError(resp)
			resp.Body.Close()
			c.logger.Warn("retrying request",
				"attempt", attempt+1,
				"status", resp.StatusCode,
			)
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

// parseError reads and parses an error response body.
func (c *Client) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	message := string(body)
	code := ""
	if apiErr, ok := decodeErrorPayload(body); ok {
		message = apiErr.Message
		code = apiErr.Code
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Code:       code,
		Vendor:     c.config.Vendor,
	}
}

// decodeErrorPayload extracts an OpenAI-style or Ollama-style error object
// from a JSON body. Returns false when the body carries no error payload.
func decodeErrorPayload(body []byte) (*APIError, bool) {
	var errResp struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(body, &errResp) != nil || len(errResp.Error) == 0 {
		return nil, false
	}

	// OpenAI-compatible vendors nest an object; Ollama uses a bare string.
	var obj struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	if json.Unmarshal(errResp.Error, &obj) == nil && obj.Message != "" {
		return &APIError{Message: obj.Message, Code: obj.Code}, true
	}

	var msg string
	if json.Unmarshal(errResp.Error, &msg) == nil && msg != "" {
		return &APIError{Message: msg}, true
	}

	return nil, false
}

// API response types.
type chatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type ollamaResponse struct {
	Model   string `json:"model"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done  bool   `json:"done"`
	Error string `json:"error"`
}

// Verify Client implements Provider at compile time.
var _ Provider = (*Client)(nil)
