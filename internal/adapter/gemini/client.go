package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ernestobalbinse/HurriAid/internal/domain"
	"github.com/ernestobalbinse/HurriAid/internal/observability"
	"golang.org/x/time/rate"
)

// ErrInvalidAPIKey is returned when the API rejects the configured key.
var ErrInvalidAPIKey = errors.New("API key not valid: check GOOGLE_API_KEY and key restrictions")

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Options configures a Client.
type Options struct {
	APIKey    string
	Model     string
	Timeout   time.Duration // per attempt
	Retries   int           // total attempts
	RateLimit float64       // requests per second, 0 disables limiting
}

// Client implements domain.Oracle using the Gemini generateContent REST API.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	retries    int
	limiter    *rate.Limiter
	newBackOff func() backoff.BackOff
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Gemini client. A client without an API key is valid
// and fails every call with domain.ErrOracleNotConfigured.
func NewClient(opts Options, metrics *observability.Metrics, logger *slog.Logger) *Client {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return &Client{
		apiKey:     opts.APIKey,
		model:      opts.Model,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{},
		timeout:    opts.Timeout,
		retries:    max(opts.Retries, 1),
		limiter:    limiter,
		newBackOff: defaultBackOff,
		metrics:    metrics,
		logger:     logger,
	}
}

// defaultBackOff starts at 0.8s and doubles up to 6s with jitter.
func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 800 * time.Millisecond
	b.Multiplier = 2
	b.MaxInterval = 6 * time.Second
	b.RandomizationFactor = 0.3
	b.MaxElapsedTime = 0
	return b
}

// Generate sends the prompt and returns the text of the first candidate.
func (c *Client) Generate(ctx context.Context, p domain.Prompt) (string, error) {
	op := string(p.Operation)
	if c.apiKey == "" {
		c.metrics.OracleRequests.WithLabelValues(op, "unconfigured").Inc()
		return "", domain.ErrOracleNotConfigured
	}

	body, err := json.Marshal(newRequest(p))
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	start := time.Now()
	attempt := 0
	call := func() (string, error) {
		attempt++
		if attempt > 1 {
			c.metrics.OracleRetries.WithLabelValues(op).Inc()
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return "", backoff.Permanent(err)
		}
		return c.attempt(ctx, body)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), uint64(c.retries-1)), ctx)
	text, err := backoff.RetryNotifyWithData(call, b, func(err error, wait time.Duration) {
		c.logger.Warn("gemini call failed, retrying", "operation", op, "attempt", attempt, "wait", wait, "error", err)
	})
	c.metrics.OracleDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			c.metrics.OracleRequests.WithLabelValues(op, "timeout").Inc()
			return "", fmt.Errorf("%w after %s (%d attempts)", domain.ErrOracleTimeout, c.timeout, attempt)
		}
		c.metrics.OracleRequests.WithLabelValues(op, "error").Inc()
		return "", fmt.Errorf("gemini %s: %w", op, err)
	}

	c.metrics.OracleRequests.WithLabelValues(op, "success").Inc()
	c.logger.Debug("gemini call complete", "operation", op, "attempts", attempt, "duration", time.Since(start))
	return text, nil
}

// attempt performs one HTTP round trip. Errors worth retrying are returned
// as-is; everything else is wrapped in backoff.Permanent.
func (c *Client) attempt(ctx context.Context, body []byte) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	u := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", classifyError(resp.StatusCode, data)
	}

	var out generateResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
		return "", backoff.Permanent(fmt.Errorf("prompt blocked: %s", out.PromptFeedback.BlockReason))
	}
	text := out.text()
	if text == "" {
		return "", backoff.Permanent(errors.New("empty model response"))
	}
	return text, nil
}

func classifyError(status int, body []byte) error {
	var apiErr errorResponse
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
		msg = apiErr.Error.Message
	}

	switch {
	case strings.Contains(msg, "API key not valid") || strings.Contains(msg, "API_KEY_INVALID"):
		return backoff.Permanent(ErrInvalidAPIKey)
	case status == http.StatusTooManyRequests || status >= 500:
		return fmt.Errorf("gemini API error: status %d: %s", status, msg)
	default:
		return backoff.Permanent(fmt.Errorf("gemini API error: status %d: %s", status, msg))
	}
}

// Gemini API request and response types.

type request struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	TopP             float64 `json:"topP,omitempty"`
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
}

func newRequest(p domain.Prompt) request {
	cfg := generationConfig{
		Temperature:     p.Temperature,
		MaxOutputTokens: p.MaxTokens,
		TopP:            0.9,
	}
	if p.JSON {
		cfg.ResponseMIMEType = "application/json"
	}
	return request{
		Contents:         []content{{Role: "user", Parts: []part{{Text: p.Text}}}},
		GenerationConfig: cfg,
	}
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

func (r generateResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return strings.TrimSpace(b.String())
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
