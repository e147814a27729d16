// Package rates looks up the live retail rate for a currency pair.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// Fetcher is the lookup contract used by the refresh pipeline.
type Fetcher interface {
	FetchRate(ctx context.Context, sell, buy string) (float64, error)
}

// Client calls GET {base}/rate/public.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client. timeout is the only deadline applied to a
// lookup; zero means none.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type rateResponse struct {
	RetailRate *float64 `json:"retailRate"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// FetchRate returns the retail rate for selling sell and buying buy.
func (c *Client) FetchRate(ctx context.Context, sell, buy string) (float64, error) {
	q := url.Values{}
	q.Set("sellCurrency", sell)
	q.Set("buyCurrency", buy)
	endpoint := c.baseURL + "/rate/public?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("building rate request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", reqID)

	log := c.logger.With(
		zap.String("request_id", reqID),
		zap.String("sell", sell),
		zap.String("buy", buy),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("rate lookup failed", zap.Error(err))
		return 0, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		log.Warn("reading rate response", zap.Error(err))
		return 0, &TransportError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		var er errorResponse
		if json.Unmarshal(body, &er) == nil && er.Detail != "" {
			log.Info("rate lookup rejected", zap.Int("status", resp.StatusCode), zap.String("detail", er.Detail))
			return 0, &BusinessError{StatusCode: resp.StatusCode, Detail: er.Detail}
		}
		log.Warn("rate lookup failed", zap.Int("status", resp.StatusCode))
		return 0, &TransportError{StatusCode: resp.StatusCode}
	}

	var rr rateResponse
	if err := json.Unmarshal(body, &rr); err != nil || rr.RetailRate == nil || *rr.RetailRate <= 0 {
		log.Warn("rate response missing retailRate", zap.ByteString("body", truncate(body, 256)))
		return 0, &BusinessError{StatusCode: resp.StatusCode, Detail: errInvalidResponse}
	}

	log.Debug("rate lookup ok",
		zap.Float64("rate", *rr.RetailRate),
		zap.Duration("elapsed", time.Since(start)),
	)
	return *rr.RetailRate, nil
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}
