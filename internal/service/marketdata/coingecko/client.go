package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/coinsentry/tracker-agent/internal/service/marketdata"
)

const (
	DefaultBaseURL  = "https://api.coingecko.com/api/v3"
	DefaultTimeout  = 30 * time.Second
	DefaultCooldown = 60 * time.Second
)

var _ marketdata.Provider = (*Client)(nil)

// Client CoinGecko REST 客户端
// On an HTTP 429 the client suspends all requests for the cool-down window
// and fails fast with ErrRateLimited until the window has passed.
type Client struct {
	baseURL  string
	httpCli  *http.Client
	cooldown time.Duration

	mu             sync.Mutex
	suspendedUntil time.Time
}

func NewClient(baseURL string, timeout, cooldown time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Client{
		baseURL:  baseURL,
		httpCli:  &http.Client{Timeout: timeout},
		cooldown: cooldown,
	}
}

func (c *Client) suspended() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Now().Before(c.suspendedUntil)
}

func (c *Client) suspend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.suspendedUntil = time.Now().Add(c.cooldown)
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	if c.suspended() {
		return marketdata.ErrRateLimited
	}

	u := fmt.Sprintf("%s/%s", c.baseURL, endpoint)
	if len(params) > 0 {
		u = fmt.Sprintf("%s?%s", u, params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return fmt.Errorf("%w: get %s: %v", marketdata.ErrUnavailable, endpoint, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decode %s: %v", marketdata.ErrUnavailable, endpoint, err)
		}
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		slog.Warn("rate limited by coingecko, entering cooldown", "cooldown", c.cooldown)
		c.suspend()
		return marketdata.ErrRateLimited
	case resp.StatusCode == http.StatusNotFound:
		return marketdata.ErrNotFound
	default:
		return fmt.Errorf("%w: %s returned status %d", marketdata.ErrUnavailable, endpoint, resp.StatusCode)
	}
}
