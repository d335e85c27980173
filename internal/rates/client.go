// Package rates implements the outbound client for the third-party
// exchange-rate lookup service.
//
// The service is treated as best-effort: every call is bounded by a timeout,
// retried once, and any failure surfaces as domain.ErrExternal, which the
// expense aggregator degrades to "rate unavailable" rather than failing the
// caller.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"

	"github.com/tripweaver/backend/internal/domain"
)

// Client fetches exchange rates over HTTP.
// It implements service.RateClient.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
}

// New constructs a Client for the given base URL. Each attempt is bounded by
// timeout; a zero timeout defaults to 5 seconds.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		timeout:    timeout,
	}
}

// apiResponse is the wire shape of the lookup service's answer. The rate is
// a JSON string to preserve exact digits.
type apiResponse struct {
	Rate string `json:"rate"`
}

// Fetch returns the base→quote rate for the given date.
// The request is retried once with the same timeout before giving up; all
// failures are reported as domain.ErrExternal.
func (c *Client) Fetch(ctx context.Context, base, quote string, date time.Time) (decimal.Decimal, error) {
	u := fmt.Sprintf("%s?base=%s&quote=%s&date=%s",
		c.baseURL, url.QueryEscape(base), url.QueryEscape(quote), date.Format("2006-01-02"))

	var rate decimal.Decimal
	err := retry.Do(ctx, retry.WithMaxRetries(1, retry.NewConstant(100*time.Millisecond)),
		func(ctx context.Context) error {
			r, err := c.fetchOnce(ctx, u)
			if err != nil {
				return retry.RetryableError(err)
			}
			rate = r
			return nil
		})
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: rate lookup %s→%s: %v", domain.ErrExternal, base, quote, err)
	}
	return rate, nil
}

// fetchOnce performs a single bounded request.
func (c *Client) fetchOnce(ctx context.Context, u string) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Decimal{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Decimal{}, fmt.Errorf("decode response: %w", err)
	}

	rate, err := decimal.NewFromString(body.Rate)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse rate %q: %w", body.Rate, err)
	}
	if !rate.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("non-positive rate %q", body.Rate)
	}
	return rate, nil
}
