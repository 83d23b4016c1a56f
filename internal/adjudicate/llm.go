package adjudicate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/entity-resolver/internal/normalize"
)

const defaultHTTPTimeout = 30 * time.Second

const systemPrompt = "You compare business records. Answer with a single word: yes or no."

// LLMConfig captures the settings for an OpenAI-compatible chat endpoint.
type LLMConfig struct {
	URL            string
	APIKey         string
	Model          string
	TimeoutSeconds int
}

// LLMOracle asks a chat-completions model whether two records match.
type LLMOracle struct {
	cfg        LLMConfig
	httpClient *http.Client
}

// LLMOption customizes the oracle.
type LLMOption func(*LLMOracle)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) LLMOption {
	return func(o *LLMOracle) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// NewLLMOracle constructs an oracle for the configured endpoint.
func NewLLMOracle(cfg LLMConfig, opts ...LLMOption) *LLMOracle {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	o := &LLMOracle{
		cfg: LLMConfig{
			URL:            strings.TrimSpace(cfg.URL),
			APIKey:         strings.TrimSpace(cfg.APIKey),
			Model:          strings.TrimSpace(cfg.Model),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("oracle request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
		Text    string      `json:"text"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Decide sends the pair to the model and interprets its answer.
func (o *LLMOracle) Decide(ctx context.Context, req Request) (bool, error) {
	if o.cfg.URL == "" {
		return false, fmt.Errorf("%w: no endpoint configured", ErrOracleUnavailable)
	}
	payload := chatCompletionRequest{
		Model: o.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: Prompt(req)},
		},
		Temperature: 0,
		MaxTokens:   10,
	}
	answer, err := o.complete(ctx, payload)
	if err != nil {
		return false, err
	}
	return ParseAnswer(answer), nil
}

// Prompt renders the question put to the model for one pair.
func Prompt(req Request) string {
	return fmt.Sprintf(
		"Record A: %s\nRecord B: %s\nDo these represent the same entity? Answer only 'yes' or 'no'.",
		describe(req.Record1), describe(req.Record2),
	)
}

func describe(r normalize.Record) string {
	return fmt.Sprintf("id=%s name=%q address=%q", r.ID, r.Name, r.Address)
}

// ParseAnswer reports whether a model answer is affirmative. Answers
// starting with "yes" or "sim" count as yes; anything else is no.
func ParseAnswer(answer string) bool {
	a := strings.ToLower(strings.TrimSpace(answer))
	a = strings.TrimLeft(a, "\"'`*. ")
	return strings.HasPrefix(a, "yes") || strings.HasPrefix(a, "sim")
}

func (o *LLMOracle) complete(ctx context.Context, payload chatCompletionRequest) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("oracle request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.URL, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("oracle request: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("oracle request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		statusErr := &httpStatusError{StatusCode: resp.StatusCode, Body: string(body)}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return "", fmt.Errorf("%w: %w", ErrOracleUnavailable, statusErr)
		}
		return "", statusErr
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("oracle request: decode response: %w", err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("oracle request: api error: %s", strings.TrimSpace(completion.Error.Message))
	}
	for _, choice := range completion.Choices {
		for _, content := range []string{choice.Message.Content, choice.Text} {
			if s := strings.TrimSpace(content); s != "" {
				return s, nil
			}
		}
	}
	return "", errors.New("oracle request: empty answer")
}
