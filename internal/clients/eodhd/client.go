// Package eodhd provides a price feed client for the EODHD API
package eodhd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/bobmcallan/heritage/internal/common"
	"github.com/bobmcallan/heritage/internal/interfaces"
	"github.com/bobmcallan/heritage/internal/models"
)

// flexDecimal handles JSON prices that may be a number, a numeric string or
// a placeholder such as "NA".
type flexDecimal struct {
	decimal.Decimal
	Valid bool
}

func (f *flexDecimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = flexDecimal{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			*f = flexDecimal{}
			return nil
		}
		*f = flexDecimal{Decimal: d, Valid: true}
		return nil
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("cannot unmarshal %s into decimal", string(data))
	}
	*f = flexDecimal{Decimal: d, Valid: true}
	return nil
}

const (
	DefaultBaseURL   = "https://eodhd.com/api"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
)

// ErrNoPrice is returned when the feed has no usable price for a ticker.
var ErrNoPrice = errors.New("no price available")

// Client implements the PriceFeedClient interface
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new EODHD client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EODHD API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("EODHD API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

type realTimeResponse struct {
	Code          string      `json:"code"`
	Timestamp     int64       `json:"timestamp"`
	Close         flexDecimal `json:"close"`
	PreviousClose flexDecimal `json:"previousClose"`
}

// GetRealTimePrice returns the latest traded price of ticker. Outside market
// hours the feed may report no close, in which case the previous close is used.
func (c *Client) GetRealTimePrice(ctx context.Context, ticker string) (decimal.Decimal, error) {
	var resp realTimeResponse
	if err := c.get(ctx, "/real-time/"+url.PathEscape(ticker), nil, &resp); err != nil {
		return decimal.Zero, err
	}

	switch {
	case resp.Close.Valid && resp.Close.Sign() > 0:
		return resp.Close.Decimal, nil
	case resp.PreviousClose.Valid && resp.PreviousClose.Sign() > 0:
		return resp.PreviousClose.Decimal, nil
	}
	return decimal.Zero, fmt.Errorf("%s: %w", ticker, ErrNoPrice)
}

type eodBarResponse struct {
	Date  string      `json:"date"`
	Close flexDecimal `json:"close"`
}

// GetMonthlyCloses returns one closing price per month between from and to,
// in ascending month order. Bars without a usable close are skipped.
func (c *Client) GetMonthlyCloses(ctx context.Context, ticker string, from, to time.Time) ([]models.MonthlyClose, error) {
	params := url.Values{}
	params.Set("period", "m")
	params.Set("order", "a")
	if !from.IsZero() {
		params.Set("from", from.Format("2006-01-02"))
	}
	if !to.IsZero() {
		params.Set("to", to.Format("2006-01-02"))
	}

	var bars []eodBarResponse
	if err := c.get(ctx, "/eod/"+url.PathEscape(ticker), params, &bars); err != nil {
		return nil, err
	}

	byMonth := make(map[models.Month]decimal.Decimal, len(bars))
	for _, bar := range bars {
		date, err := time.Parse("2006-01-02", bar.Date)
		if err != nil {
			c.logger.Warn().Str("ticker", ticker).Str("date", bar.Date).Msg("Skipping bar with unparseable date")
			continue
		}
		if !bar.Close.Valid || bar.Close.Sign() <= 0 {
			continue
		}
		// the last bar of a month wins
		byMonth[models.MonthOf(date)] = bar.Close.Decimal
	}

	closes := make([]models.MonthlyClose, 0, len(byMonth))
	for m, p := range byMonth {
		closes = append(closes, models.MonthlyClose{Month: m, Close: p})
	}
	sort.Slice(closes, func(i, j int) bool { return closes[i].Month.Before(closes[j].Month) })
	return closes, nil
}

// Compile-time check
var _ interfaces.PriceFeedClient = (*Client)(nil)
