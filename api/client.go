// Package api is the HTTP client for the ratings service's /stocks and
// /recommendations endpoints.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/gorilla/schema"
	"github.com/rs/zerolog"

	"stock-ratings/credentials"
	"stock-ratings/models"
)

const (
	stocksPath          = "/stocks"
	recommendationsPath = "/recommendations"
)

// Config holds the remote service settings.
type Config struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	Retries int           `yaml:"retries"`
}

func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:8080",
		Timeout: 10 * time.Second,
	}
}

// Validate checks the base URL and limits.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid api base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid api base_url scheme: %q (must be http or https)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("api base_url %q has no host", c.BaseURL)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("api timeout cannot be negative")
	}
	if c.Retries < 0 {
		return fmt.Errorf("api retries cannot be negative")
	}
	return nil
}

// Client talks to the ratings service.
type Client struct {
	http   *resty.Client
	creds  credentials.Provider
	logger zerolog.Logger
}

type Option func(*Client)

// WithCredentials attaches a bearer token looked up under credentials.TokenKey.
func WithCredentials(p credentials.Provider) Option {
	return func(c *Client) { c.creds = p }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for cfg.BaseURL.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rc := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetRetryCount(cfg.Retries)
	if cfg.Timeout > 0 {
		rc.SetTimeout(cfg.Timeout)
	}

	c := &Client{
		http:   rc,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

var encoder = schema.NewEncoder()

// FetchStocks requests one page of stocks.
func (c *Client) FetchStocks(ctx context.Context, q StockQuery) (*StockPage, error) {
	var page StockPage
	if err := c.get(ctx, stocksPath, &q, &page); err != nil {
		return nil, err
	}
	if page.Items == nil {
		page.Items = []models.Stock{}
	}
	return &page, nil
}

// FetchRecommendations requests the scored recommendations. The endpoint
// returns a bare array, with no pagination envelope.
func (c *Client) FetchRecommendations(ctx context.Context, q RecommendationQuery) ([]models.Recommendation, error) {
	var recs []models.Recommendation
	if err := c.get(ctx, recommendationsPath, &q, &recs); err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []models.Recommendation{}
	}
	return recs, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.GetClient().CloseIdleConnections()
	return nil
}

func (c *Client) get(ctx context.Context, path string, query interface{}, out interface{}) error {
	params := url.Values{}
	if err := encoder.Encode(query, params); err != nil {
		return &Error{Kind: KindTransport, Endpoint: path, Err: fmt.Errorf("failed to encode query: %w", err)}
	}

	requestID := uuid.NewString()
	req := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(params).
		SetHeader("X-Request-ID", requestID)
	if token := c.token(); token != "" {
		req.SetAuthToken(token)
	}

	log := c.logger.With().Str("request_id", requestID).Str("path", path).Logger()
	log.Debug().Str("query", params.Encode()).Msg("Fetching")

	resp, err := req.Get(path)
	if err != nil {
		log.Warn().Err(err).Msg("Request failed")
		return &Error{Kind: KindTransport, Endpoint: path, Err: err}
	}

	if !resp.IsSuccess() {
		log.Warn().Int("status", resp.StatusCode()).Msg("Unexpected status")
		return &Error{
			Kind:       KindStatus,
			Endpoint:   path,
			StatusCode: resp.StatusCode(),
			Status:     resp.Status(),
			Body:       excerpt(resp.Body()),
		}
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		log.Warn().Err(err).Msg("Invalid response body")
		return &Error{Kind: KindDecode, Endpoint: path, Err: err}
	}

	log.Debug().Int("status", resp.StatusCode()).Dur("elapsed", resp.Time()).Msg("Fetched")
	return nil
}

func (c *Client) token() string {
	if c.creds == nil {
		return ""
	}
	token, err := c.creds.GetCredential(credentials.TokenKey)
	if err != nil {
		return ""
	}
	return token
}
