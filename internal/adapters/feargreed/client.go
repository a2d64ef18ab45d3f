package feargreed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmaranges/cryptopilot/internal/domain"
)

const defaultBase = "https://api.alternative.me"

// Neutral is the fallback reading when the index cannot be fetched; it
// biases nothing.
var Neutral = domain.FearGreed{Value: 50, Label: "Neutral"}

type indexResponse struct {
	Data []struct {
		Value          string `json:"value"`
		Classification string `json:"value_classification"`
	} `json:"data"`
}

// Client fetches the crypto fear & greed index. It implements
// ports.SentimentProvider.
type Client struct {
	http *http.Client
	base string
}

// NewClient creates a Client. An empty base falls back to the production API.
func NewClient(base string) *Client {
	if base == "" {
		base = defaultBase
	}
	return &Client{
		http: &http.Client{Timeout: 10 * time.Second},
		base: strings.TrimRight(base, "/"),
	}
}

// FearGreed returns the latest index reading.
func (c *Client) FearGreed(ctx context.Context) (domain.FearGreed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/fng/?limit=1", nil)
	if err != nil {
		return Neutral, fmt.Errorf("feargreed.FearGreed: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Neutral, fmt.Errorf("feargreed.FearGreed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Neutral, fmt.Errorf("feargreed.FearGreed: status %d", resp.StatusCode)
	}

	var raw indexResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return Neutral, fmt.Errorf("feargreed.FearGreed: decode: %w", err)
	}
	if len(raw.Data) == 0 {
		return Neutral, fmt.Errorf("feargreed.FearGreed: empty data")
	}

	value, err := strconv.Atoi(raw.Data[0].Value)
	if err != nil {
		return Neutral, fmt.Errorf("feargreed.FearGreed: parse value %q: %w", raw.Data[0].Value, err)
	}
	return domain.FearGreed{Value: value, Label: raw.Data[0].Classification}, nil
}
