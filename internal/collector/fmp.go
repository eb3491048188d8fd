package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"IncomeLens/internal/model"
)

const (
	defaultBaseURL = "https://financialmodelingprep.com"
	defaultTimeout = 30 * time.Second
)

// FMPOptions configures an FMPFetcher.
type FMPOptions struct {
	BaseURL string
	APIKey  string
	Symbol  string
	Period  string
	Proxy   string
	Timeout time.Duration
	// RatePerSecond caps outgoing requests; <= 0 disables the limiter.
	RatePerSecond float64
}

// FMPFetcher implements Fetcher using the Financial Modeling Prep
// income-statement endpoint.
type FMPFetcher struct {
	BaseURL string
	APIKey  string
	Symbol  string
	Period  string
	Client  *http.Client

	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewFMPFetcher creates a new fetcher with optional proxy support.
func NewFMPFetcher(opts FMPOptions, logger *zap.Logger) *FMPFetcher {
	transport := &http.Transport{}
	if opts.Proxy != "" {
		if u, err := url.Parse(opts.Proxy); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Period == "" {
		opts.Period = "annual"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var limiter *rate.Limiter
	if opts.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1)
	}

	return &FMPFetcher{
		BaseURL: opts.BaseURL,
		APIKey:  opts.APIKey,
		Symbol:  opts.Symbol,
		Period:  opts.Period,
		Client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		limiter: limiter,
		logger:  logger,
	}
}

func (f *FMPFetcher) Name() string { return "fmp" }

func (f *FMPFetcher) endpoint() (string, error) {
	u, err := url.Parse(f.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	u.Path = path.Join("/", u.Path, "api/v3/income-statement", f.Symbol)
	q := url.Values{}
	q.Set("period", f.Period)
	if f.APIKey != "" {
		q.Set("apikey", f.APIKey)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Load performs one GET and returns the coerced records in feed order.
func (f *FMPFetcher) Load(ctx context.Context) ([]model.Record, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, &NetworkError{Err: fmt.Errorf("rate limit wait: %w", err)}
		}
	}

	endpoint, err := f.endpoint()
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: redact(err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &NetworkError{StatusCode: resp.StatusCode}
	}

	records, err := f.decode(body)
	if err != nil {
		return nil, err
	}
	f.logger.Info("income statements loaded",
		zap.String("symbol", f.Symbol),
		zap.Int("records", len(records)),
		zap.Duration("elapsed", time.Since(start)))
	return records, nil
}

func (f *FMPFetcher) decode(body []byte) ([]model.Record, error) {
	trimmed := bytes.TrimSpace(body)
	if !json.Valid(trimmed) {
		return nil, &ParseError{Detail: "response is not JSON"}
	}
	// FMP reports bad keys and exhausted quotas as a 200 with an error object.
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var apiErr struct {
			Message string `json:"Error Message"`
		}
		if err := json.Unmarshal(trimmed, &apiErr); err == nil && apiErr.Message != "" {
			return nil, &ParseError{Detail: "upstream error: " + apiErr.Message}
		}
	}
	if err := validatePayload(trimmed); err != nil {
		return nil, err
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, &ParseError{Detail: "decode array", Err: err}
	}
	records, dropped := model.Ingest(elems, f.logger)
	if dropped > 0 {
		f.logger.Warn("records dropped during coercion",
			zap.Int("dropped", dropped),
			zap.Int("kept", len(records)))
	}
	return records, nil
}

// redact strips the request URL, which carries the API key, from client errors.
func redact(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s: %w", ue.Op, ue.Err)
	}
	return err
}
