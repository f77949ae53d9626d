// Package api is the typed client for the EconoRise backend. Every failure
// is reported as an *Error of kind KindHTTP or KindConnection.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"econorise/internal/core"
	"econorise/internal/log"
	"econorise/internal/metrics"
)

// Endpoint paths, relative to the base URL.
const (
	PathAssessEligibility     = "/assess_eligibility"
	PathEconomicIndicators    = "/get_economic_indicators"
	PathFinancialHealth       = "/get_financial_health"
	PathMarketData            = "/get_market_data"
	PathDevelopmentIndicators = "/get_development_indicators"
)

// DefaultCountry is used when no country code is given.
const DefaultCountry = "IND"

const (
	defaultTimeout          = 30 * time.Second
	maxDrainBytes     int64 = 64 << 10
)

type Client struct {
	baseURL        string
	host           string
	httpClient     *http.Client
	defaultCountry string
	logger         *log.Logger
	metrics        metrics.Collector
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds every request, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithDefaultCountry sets the country used when a caller passes none.
func WithDefaultCountry(country string) Option {
	return func(c *Client) {
		if country = strings.TrimSpace(country); country != "" {
			c.defaultCountry = country
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l.WithComponent(log.ComponentAPIClient) }
}

func WithMetrics(m metrics.Collector) Option {
	return func(c *Client) { c.metrics = m }
}

// New returns a client for the backend at baseURL, e.g. http://localhost:5000/api.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL:        baseURL,
		host:           u.Host,
		httpClient:     &http.Client{Timeout: defaultTimeout},
		defaultCountry: DefaultCountry,
		logger:         log.Discard(),
		metrics:        metrics.NoOp{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured backend address.
func (c *Client) BaseURL() string { return c.baseURL }

// AssessEligibility scores a loan application. TransactionData is sent verbatim.
func (c *Client) AssessEligibility(ctx context.Context, req core.AssessmentRequest) (*core.AssessmentResponse, error) {
	var out core.AssessmentResponse
	if err := c.do(ctx, http.MethodPost, PathAssessEligibility, nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetEconomicIndicators returns both series in payload order.
func (c *Client) GetEconomicIndicators(ctx context.Context) (*core.EconomicIndicators, error) {
	var out core.EconomicIndicators
	if err := c.do(ctx, http.MethodGet, PathEconomicIndicators, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetFinancialHealth analyzes already parsed transactions.
func (c *Client) GetFinancialHealth(ctx context.Context, transactions []core.Transaction) (*core.FinancialHealthResult, error) {
	if transactions == nil {
		transactions = []core.Transaction{}
	}
	var out core.FinancialHealthResult
	body := core.FinancialHealthRequest{Transactions: transactions}
	if err := c.do(ctx, http.MethodPost, PathFinancialHealth, nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetMarketData(ctx context.Context) ([]core.MarketDataItem, error) {
	var out []core.MarketDataItem
	if err := c.do(ctx, http.MethodGet, PathMarketData, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetDevelopmentIndicators fetches the World Bank series for an ISO-3166
// alpha-3 country code. An empty code means the default country.
func (c *Client) GetDevelopmentIndicators(ctx context.Context, country string) (*core.DevelopmentIndicators, error) {
	country = strings.TrimSpace(country)
	if country == "" {
		country = c.defaultCountry
	}
	var out core.DevelopmentIndicators
	query := url.Values{"country": {country}}
	if err := c.do(ctx, http.MethodGet, PathDevelopmentIndicators, query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckHealth reports whether the backend answered the indicators endpoint.
// Any HTTP response counts; only transport failures mean offline.
func (c *Client) CheckHealth(ctx context.Context) bool {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+PathEconomicIndicators, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.DebugContext(ctx, "Health check failed",
			log.FieldOperation, log.OpCheck,
			log.FieldError, err.Error(),
			log.FieldDuration, time.Since(start).Milliseconds())
		return false
	}
	drain(resp.Body)

	c.logger.DebugContext(ctx, "Health check answered",
		log.FieldOperation, log.OpCheck,
		log.FieldStatusCode, resp.StatusCode,
		log.FieldDuration, time.Since(start).Milliseconds())
	return true
}

// do performs one request and decodes a 2xx JSON body into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	start := time.Now()
	err := c.roundTrip(ctx, method, path, query, in, out)
	elapsed := time.Since(start)

	if err == nil {
		c.metrics.RecordRequest(path, metrics.OutcomeSuccess, elapsed)
		c.logger.DebugContext(ctx, "Backend call succeeded",
			log.FieldEndpoint, path,
			log.FieldOperation, log.OpFetch,
			log.FieldDuration, elapsed.Milliseconds())
		return nil
	}

	outcome := metrics.OutcomeConnectionError
	if err.HasStatus() {
		outcome = metrics.OutcomeHTTPError
	}
	c.metrics.RecordRequest(path, outcome, elapsed)

	args := []any{
		log.FieldEndpoint, path,
		log.FieldOperation, log.OpFetch,
		log.FieldErrorKind, err.Kind.String(),
		log.FieldDuration, elapsed.Milliseconds(),
	}
	if err.HasStatus() {
		args = append(args, log.FieldStatusCode, err.Status)
	} else if err.Err != nil {
		args = append(args, log.FieldError, err.Err.Error())
	}
	c.logger.WarnContext(ctx, "Backend call failed", args...)
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, in, out any) *Error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return c.connErr(path, fmt.Errorf("encode request: %w", err))
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return c.connErr(path, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.connErr(path, err)
	}
	defer drain(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Kind: KindHTTP, Status: resp.StatusCode, Endpoint: path, Host: c.host}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return c.connErr(path, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (c *Client) connErr(path string, cause error) *Error {
	return &Error{Kind: KindConnection, Endpoint: path, Host: c.host, Err: cause}
}

// drain discards what is left of a body so the connection can be reused.
func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxDrainBytes))
	_ = body.Close()
}
