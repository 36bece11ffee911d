package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/observability/metrics"
)

const (
	startOfDay = " 00:00:00"
	endOfDay   = " 23:59:59"
)

// Fetcher is the read-only view of the telemetry source the engine depends on.
type Fetcher interface {
	Fetch(ctx context.Context, phase domain.Phase, q domain.HistoricalQuery) ([]domain.TimedReading, error)
}

// Client reads channel feeds from a ThingSpeak-compatible HTTP API.
type Client struct {
	baseURL  string
	apiKey   string
	channels map[domain.Phase]string
	http     *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithAPIKey sets the read key sent as api_key.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithTimeout replaces the default 10s request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// New builds a client for the given base URL and phase→channel table.
func New(baseURL string, channels map[domain.Phase]string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("feed: empty base url")
	}
	table := make(map[domain.Phase]string, len(channels))
	for p, id := range channels {
		if strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("feed: empty channel for %s", p)
		}
		table[p] = id
	}
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		channels: table,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Channel returns the channel id behind a phase.
func (c *Client) Channel(phase domain.Phase) (string, bool) {
	id, ok := c.channels[phase]
	return id, ok
}

// Fetch runs one request for the phase's channel. Exactly one attempt is made.
func (c *Client) Fetch(ctx context.Context, phase domain.Phase, q domain.HistoricalQuery) ([]domain.TimedReading, error) {
	channel, ok := c.channels[phase]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownPhase, phase)
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	readings, err := c.FetchChannel(ctx, channel, q)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.ObserveFeed(string(phase), string(q.Kind), result, time.Since(start))
	return readings, err
}

// FetchChannel queries a channel directly by id.
func (c *Client) FetchChannel(ctx context.Context, channel string, q domain.HistoricalQuery) ([]domain.TimedReading, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	u := c.baseURL + "/channels/" + url.PathEscape(channel) + "/feeds.json"
	if encoded := c.params(q).Encode(); encoded != "" {
		u += "?" + encoded
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", domain.ErrFeedUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: channel %s: %w", domain.ErrFeedUnavailable, channel, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: channel %s: %s", domain.ErrFeedUnavailable, channel, resp.Status)
	}

	var payload feedsPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: channel %s: decode: %w", domain.ErrFeedUnavailable, channel, err)
	}
	readings, err := payload.readings()
	if err != nil {
		return nil, fmt.Errorf("%w: channel %s: %w", domain.ErrFeedUnavailable, channel, err)
	}

	log.Debug().Str("channel", channel).Str("query", q.String()).Int("readings", len(readings)).Msg("feed fetched")
	return readings, nil
}

func (c *Client) params(q domain.HistoricalQuery) url.Values {
	params := url.Values{}
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
	if q.IsCount() {
		params.Set("results", strconv.Itoa(q.N))
		return params
	}
	params.Set("start", q.Start.Format(domain.DateLayout)+startOfDay)
	params.Set("end", q.End.Format(domain.DateLayout)+endOfDay)
	return params
}

type feedsPayload struct {
	Feeds []map[string]json.RawMessage `json:"feeds"`
}

func (p feedsPayload) readings() ([]domain.TimedReading, error) {
	if p.Feeds == nil {
		return nil, errors.New("payload has no feeds")
	}
	out := make([]domain.TimedReading, 0, len(p.Feeds))
	for i, entry := range p.Feeds {
		var created string
		if err := json.Unmarshal(entry["created_at"], &created); err != nil {
			return nil, fmt.Errorf("feed %d: created_at: %w", i, err)
		}
		at, err := time.Parse(time.RFC3339, created)
		if err != nil {
			return nil, fmt.Errorf("feed %d: created_at: %w", i, err)
		}
		r := domain.TimedReading{At: at}
		for _, f := range domain.Fields() {
			r.Values[f] = decodeValue(entry[f.Key()])
		}
		out = append(out, r)
	}
	return out, nil
}

// decodeValue accepts strings, bare numbers and null; anything else is kept as raw text.
func decodeValue(raw json.RawMessage) domain.Value {
	if len(raw) == 0 || string(raw) == "null" {
		return domain.NullValue
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return domain.TextValue(s)
	}
	return domain.TextValue(string(raw))
}
