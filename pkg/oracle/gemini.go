package oracle

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the Gemini generative language API base URL.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1"

	defaultModel = "gemini-1.5-pro"

	// Low temperature keeps the probability estimates stable between runs.
	defaultTemperature = 0.15
	defaultTopP        = 0.8

	defaultRateLimit = 1.0 // requests per second
	defaultBurst     = 2
)

// GeminiClient calls the Gemini generateContent endpoint. It implements
// Client.
type GeminiClient struct {
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	topP        float64
	httpClient  *http.Client
	limiter     *rate.Limiter
}

var _ Client = (*GeminiClient)(nil)

// GeminiOption configures the client.
type GeminiOption func(*GeminiClient)

// WithModel selects a model name.
func WithModel(model string) GeminiOption {
	return func(c *GeminiClient) {
		c.model = model
	}
}

// WithBaseURL sets a custom base URL.
func WithBaseURL(url string) GeminiOption {
	return func(c *GeminiClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) GeminiOption {
	return func(c *GeminiClient) {
		c.httpClient = client
	}
}

// WithSampling overrides temperature and topP.
func WithSampling(temperature, topP float64) GeminiOption {
	return func(c *GeminiClient) {
		c.temperature = temperature
		c.topP = topP
	}
}

// WithRateLimit sets custom rate limiting.
func WithRateLimit(rps float64, burst int) GeminiOption {
	return func(c *GeminiClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewGeminiClient creates a Gemini client.
func NewGeminiClient(apiKey string, opts ...GeminiOption) *GeminiClient {
	c := &GeminiClient{
		apiKey:      apiKey,
		model:       defaultModel,
		baseURL:     DefaultBaseURL,
		temperature: defaultTemperature,
		topP:        defaultTopP,
		httpClient: &http.Client{
			// LLM calls are slow; the context still bounds individual calls.
			Timeout: 120 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type geminiRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"topP"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Complete sends the prompt and returns the first candidate's text.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("gemini: missing API key")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature: c.temperature,
			TopP:        c.topP,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	u := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, "POST", u, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("gemini error %d: %s", resp.StatusCode, string(raw))
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: empty response")
	}

	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
