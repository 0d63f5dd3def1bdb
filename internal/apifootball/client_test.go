package apifootball

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/L1bertine/football-statbot/internal/models"
)

const liveBody = `{
  "get": "fixtures",
  "parameters": {"live": "all"},
  "errors": [],
  "results": 2,
  "response": [
    {"fixture": {"id": 1001, "status": {"elapsed": 63, "short": "2H"}},
     "league": {"id": 39, "name": "Premier League"},
     "teams": {"home": {"id": 1, "name": "Arsenal"}, "away": {"id": 2, "name": "Chelsea"}},
     "goals": {"home": 1, "away": 0}},
    {"fixture": {"id": "oops"}}
  ]
}`

const statsBody = `{
  "errors": [],
  "response": [
    {"team": {"id": 1, "name": "Arsenal"}, "statistics": [
      {"type": "Shots on Goal", "value": 7},
      {"type": "Ball Possession", "value": "68%"},
      {"type": "Yellow Cards", "value": null}
    ]},
    {"team": {"id": 2, "name": "Chelsea"}, "statistics": [
      {"type": "Shots on Goal", "value": 2}
    ]}
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "secret", 5*time.Second, ClientConfig{
		MaxRetries:     2,
		RetryDelayBase: time.Millisecond,
	})
}

func TestLiveFixtures(t *testing.T) {
	var gotKey, gotLive string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-apisports-key")
		gotLive = r.URL.Query().Get("live")
		assert.Equal(t, "/fixtures", r.URL.Path)
		_, _ = w.Write([]byte(liveBody))
	})

	records, err := c.LiveFixtures(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "all", gotLive)
	// Malformed elements are passed through for the snapshot builder to reject.
	assert.Len(t, records, 2)
}

func TestLiveFixtures_Leagues(t *testing.T) {
	var gotLive string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotLive = r.URL.Query().Get("live")
		_, _ = w.Write([]byte(`{"errors": [], "response": []}`))
	})

	records, err := c.LiveFixtures(context.Background(), []int{39, 140})
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, "39-140", gotLive)
}

func TestStatistics(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fixtures/statistics", r.URL.Path)
		assert.Equal(t, "1001", r.URL.Query().Get("fixture"))
		_, _ = w.Write([]byte(statsBody))
	})

	stats, err := c.Statistics(context.Background(), 1001)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, int64(1), stats[0].Team.ID)
	assert.Equal(t, "Ball Possession", stats[0].Statistics[1].Type)
	assert.Equal(t, "68%", stats[0].Statistics[1].Value)
	assert.Nil(t, stats[0].Statistics[2].Value)
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"errors": [], "response": []}`))
	})

	_, err := c.LiveFixtures(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetryExhausted(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.LiveFixtures(context.Background(), nil)
	require.Error(t, err)
	assert.False(t, models.IsFatal(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := c.LiveFixtures(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSuspension(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "forbidden", status: http.StatusForbidden, body: `{}`},
		{name: "access error", status: http.StatusOK, body: `{"errors": {"access": "Your account is suspended"}, "response": []}`},
		{name: "request quota", status: http.StatusOK, body: `{"errors": {"requests": "You have reached the request limit for the day"}, "response": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.LiveFixtures(context.Background(), nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrSuspended), "err = %v", err)
		})
	}
}

func TestEnvelopeError(t *testing.T) {
	tests := []struct {
		name          string
		raw           string
		wantErr       bool
		wantSuspended bool
	}{
		{name: "empty array", raw: `[]`},
		{name: "absent", raw: ``},
		{name: "null", raw: `null`},
		{name: "empty object", raw: `{}`},
		{name: "token error", raw: `{"token": "Error/Missing application key"}`, wantErr: true},
		{name: "rate limit", raw: `{"rateLimit": "Too many requests"}`, wantErr: true},
		{name: "requests quota", raw: `{"requests": "limit reached"}`, wantErr: true, wantSuspended: true},
		{name: "suspended wording", raw: `["account suspended"]`, wantErr: true, wantSuspended: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := envelopeError([]byte(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("envelopeError(%s) = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if got := errors.Is(err, models.ErrSuspended); got != tt.wantSuspended {
				t.Errorf("suspended = %v, want %v", got, tt.wantSuspended)
			}
		})
	}
}

func TestContextCancelledDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, "k", time.Second, ClientConfig{MaxRetries: 3, RetryDelayBase: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.LiveFixtures(ctx, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
