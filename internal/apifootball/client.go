// Package apifootball provides a client for the API-Football v3 REST API.
package apifootball

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"golang.org/x/time/rate"

	"github.com/L1bertine/football-statbot/internal/models"
)

// DefaultBaseURL is the public API-Football v3 endpoint.
const DefaultBaseURL = "https://v3.football.api-sports.io"

const maxBodyBytes = 4 << 20

var errTransient = errors.New("api-football transient failure")

// Record is one undecoded element of a fixtures response.
type Record = json.RawMessage

// TeamStatistics is one side of a /fixtures/statistics response.
type TeamStatistics struct {
	Team       TeamRef     `json:"team"`
	Statistics []StatEntry `json:"statistics"`
}

// TeamRef identifies a team.
type TeamRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// StatEntry is a single metric. Value is a number, a string such as "65%", or null.
type StatEntry struct {
	Type  string      `json:"type"`
	Value interface{} `json:"value"`
}

type envelope struct {
	Errors   json.RawMessage   `json:"errors"`
	Results  int               `json:"results"`
	Response []json.RawMessage `json:"response"`
}

type statisticsEnvelope struct {
	Errors   json.RawMessage  `json:"errors"`
	Response []TeamStatistics `json:"response"`
}

// ClientConfig holds HTTP transport and pacing tuning.
type ClientConfig struct {
	MaxRetries        int
	RetryDelayBase    time.Duration
	RequestsPerMinute int
}

// Client provides access to API-Football.
type Client struct {
	baseURL        string
	apiKey         string
	httpClient     *http.Client
	limiter        *rate.Limiter
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new API-Football client.
func NewClient(baseURL, apiKey string, timeout time.Duration, cfg ClientConfig) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelayBase <= 0 {
		cfg.RetryDelayBase = time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(cfg.RequestsPerMinute) / 60.0)
	}
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		apiKey:         apiKey,
		httpClient:     &http.Client{Timeout: timeout},
		limiter:        rate.NewLimiter(limit, 1),
		maxRetries:     cfg.MaxRetries,
		retryDelayBase: cfg.RetryDelayBase,
	}
}

// LiveFixtures returns the raw in-progress fixture records, optionally restricted to leagues.
func (c *Client) LiveFixtures(ctx context.Context, leagues []int) ([]Record, error) {
	live := "all"
	if len(leagues) > 0 {
		ids := make([]string, len(leagues))
		for i, id := range leagues {
			ids[i] = strconv.Itoa(id)
		}
		live = strings.Join(ids, "-")
	}

	raw, err := c.get(ctx, "/fixtures", url.Values{"live": {live}})
	if err != nil {
		return nil, errors.Wrap(err, "fetch live fixtures")
	}

	var env envelope
	if err := sonic.Unmarshal(raw, &env); err != nil {
		return nil, errors.Wrap(err, "decode live fixtures")
	}
	if err := envelopeError(env.Errors); err != nil {
		return nil, errors.Wrap(err, "fetch live fixtures")
	}

	return env.Response, nil
}

// Statistics returns per-team statistics for a fixture. An empty slice means
// the provider has no statistics for it yet.
func (c *Client) Statistics(ctx context.Context, fixtureID int64) ([]TeamStatistics, error) {
	raw, err := c.get(ctx, "/fixtures/statistics", url.Values{"fixture": {strconv.FormatInt(fixtureID, 10)}})
	if err != nil {
		return nil, errors.Wrapf(err, "fetch statistics for fixture %d", fixtureID)
	}

	var env statisticsEnvelope
	if err := sonic.Unmarshal(raw, &env); err != nil {
		return nil, errors.Wrapf(err, "decode statistics for fixture %d", fixtureID)
	}
	if err := envelopeError(env.Errors); err != nil {
		return nil, errors.Wrapf(err, "fetch statistics for fixture %d", fixtureID)
	}
	return env.Response, nil
}

// get performs a paced GET with linear-backoff retry on transport errors and 5xx.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(err, "rate limit wait")
		}

		body, err := c.do(ctx, u)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !errors.Is(err, errTransient) || attempt == c.maxRetries {
			break
		}

		timer := time.NewTimer(c.retryDelayBase * time.Duration(attempt+1))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-apisports-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "send request"), errTransient)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "read response body"), errTransient)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusForbidden:
		return nil, errors.Mark(errors.Newf("provider status=%d body=%s", resp.StatusCode, truncate(body, 200)), models.ErrSuspended)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, errors.Mark(errors.Newf("provider status=%d body=%s", resp.StatusCode, truncate(body, 200)), errTransient)
	default:
		return nil, errors.Newf("provider status=%d body=%s", resp.StatusCode, truncate(body, 200))
	}
}

// envelopeError interprets the "errors" member, which is an empty array on
// success and an object keyed by error kind otherwise.
func envelopeError(raw json.RawMessage) error {
	trimmed := strings.TrimSpace(string(raw))
	switch trimmed {
	case "", "null", "[]", "{}":
		return nil
	}

	var details map[string]interface{}
	if strings.HasPrefix(trimmed, "{") {
		if err := sonic.UnmarshalString(trimmed, &details); err != nil {
			return errors.Newf("provider error: %s", truncate([]byte(trimmed), 200))
		}
	} else {
		var list []interface{}
		if err := sonic.UnmarshalString(trimmed, &list); err != nil || len(list) == 0 {
			return nil
		}
		details = make(map[string]interface{}, len(list))
		for i, item := range list {
			details[strconv.Itoa(i)] = item
		}
	}

	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	suspended := false
	for _, k := range keys {
		msg := fmt.Sprint(details[k])
		parts = append(parts, k+": "+msg)
		if k == "access" || k == "requests" || strings.Contains(strings.ToLower(msg), "suspended") {
			suspended = true
		}
	}

	err := errors.Newf("provider error: %s", strings.Join(parts, "; "))
	if suspended {
		return errors.Mark(err, models.ErrSuspended)
	}
	return err
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
