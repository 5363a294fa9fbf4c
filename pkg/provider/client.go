package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the sports-data API base URL.
	DefaultBaseURL = "https://api.matchpick.io"

	defaultRateLimit = 5.0 // requests per second
	defaultBurst     = 3
)

// Client talks to the sports-data API. It implements ContextProvider.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ ContextProvider = (*Client)(nil)

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithRateLimit sets custom rate limiting.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewClient creates a sports-data API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// boardResponse is the wire shape of the match board endpoint. Odds families
// stay raw so the snapshot layer owns their interpretation.
type boardResponse struct {
	Basic     Basic                      `json:"basic"`
	Odds      map[string]json.RawMessage `json:"odds"`
	Community []Post                     `json:"community"`
	ScoreHome *int                       `json:"scoreHome"`
	ScoreAway *int                       `json:"scoreAway"`
	Status    string                     `json:"status"`
	Result    string                     `json:"result"`
}

// MatchContext fetches the record and board endpoints for a match and merges
// them, applying caller overrides last.
func (c *Client) MatchContext(ctx context.Context, matchID int64, sportsType string, ov *Overrides) (*MatchContext, error) {
	params := url.Values{}
	if sportsType != "" {
		params.Set("sportsType", sportsType)
	}

	var board boardResponse
	if err := c.get(ctx, fmt.Sprintf("/matches/%d/board", matchID), params, &board); err != nil {
		return nil, fmt.Errorf("fetch board: %w", err)
	}

	var records Records
	if err := c.get(ctx, fmt.Sprintf("/matches/%d/record", matchID), params, &records); err != nil {
		return nil, fmt.Errorf("fetch records: %w", err)
	}

	mc := &MatchContext{
		MatchID:    matchID,
		SportsType: sportsType,
		Basic:      board.Basic,
		Records:    records,
		OddsRaw:    board.Odds,
		Community:  board.Community,
		Status:     board.Status,
		Result:     board.Result,
	}
	if board.ScoreHome != nil || board.ScoreAway != nil {
		boardScore := Overrides{ScoreHome: board.ScoreHome, ScoreAway: board.ScoreAway}
		mc.Score = boardScore.Score()
	}

	if ov != nil {
		if s := ov.Score(); s != nil {
			mc.Score = s
		}
		if ov.Status != "" {
			mc.Status = ov.Status
		}
		if ov.Result != "" {
			mc.Result = ov.Result
		}
	}

	return mc, nil
}

// PopularMatches lists the matches worth pre-computing for a date.
func (c *Client) PopularMatches(ctx context.Context, date string, tomorrow bool) ([]MatchSummary, error) {
	params := url.Values{}
	params.Set("date", date)
	if tomorrow {
		params.Set("tomorrow", strconv.FormatBool(true))
	}

	var matches []MatchSummary
	if err := c.get(ctx, "/matches/popular", params, &matches); err != nil {
		return nil, err
	}
	return matches, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("api error %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
