package fetcher

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/metrics"
	"github.com/sells-group/outreach-cli/internal/resilience"
)

type sleepLog struct {
	waits []time.Duration
}

func (s *sleepLog) sleep(ctx context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return ctx.Err()
}

func newTestClient(sl *sleepLog, m *metrics.Metrics, policies map[string]resilience.Policy) *Client {
	return New(Options{
		UserAgent: "test-agent",
		Timeout:   5 * time.Second,
		Policies:  policies,
		Metrics:   m,
		Sleep:     sl.sleep,
	})
}

func TestCall_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "plumbers", r.URL.Query().Get("q"))
		assert.Equal(t, "uk", r.URL.Query().Get("gl"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := newTestClient(&sleepLog{}, nil, nil)
	resp, err := c.Call(context.Background(), Request{
		Provider: "serp",
		URL:      srv.URL + "/scrape?gl=uk",
		Query:    url.Values{"q": {"plumbers"}},
		Header:   http.Header{"X-Api-Key": {"secret"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, 1, resp.Attempts)

	var out struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, resp.Decode(&out))
	assert.True(t, out.OK)
}

func TestCall_PostsJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		data, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"domain":"a.com"}`, string(data))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(&sleepLog{}, nil, nil)
	_, err := c.Call(context.Background(), Request{
		Provider: "contacts",
		Method:   http.MethodPost,
		URL:      srv.URL,
		Body:     map[string]string{"domain": "a.com"},
	})
	require.NoError(t, err)
}

func TestCall_RetriesTransientThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	sl := &sleepLog{}
	m := metrics.New(prometheus.NewRegistry())
	c := newTestClient(sl, m, nil)

	resp, err := c.Call(context.Background(), Request{Provider: "serp", URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Attempts)
	assert.Equal(t, []time.Duration{1500 * time.Millisecond, 3000 * time.Millisecond}, sl.waits)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ProviderAttempts.WithLabelValues("serp", "retry")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderAttempts.WithLabelValues("serp", "success")))
}

func TestCall_RateLimitedExhausts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	}))
	defer srv.Close()

	sl := &sleepLog{}
	c := newTestClient(sl, nil, nil)
	_, err := c.Call(context.Background(), Request{Provider: "serp", URL: srv.URL})
	require.Error(t, err)

	var fe *resilience.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 429, fe.Status)
	assert.Equal(t, 3, fe.Attempts)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []time.Duration{2500 * time.Millisecond, 5000 * time.Millisecond}, sl.waits)
}

func TestCall_QuotaNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"errors":[{"details":"You have reached your usage limit"}]}`))
	}))
	defer srv.Close()

	c := newTestClient(&sleepLog{}, nil, nil)
	_, err := c.Call(context.Background(), Request{Provider: "hunter", URL: srv.URL})
	require.Error(t, err)
	assert.True(t, resilience.IsQuotaExhausted(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestCall_NotFoundFailsFast(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(&sleepLog{}, nil, nil)
	_, err := c.Call(context.Background(), Request{Provider: "serp", URL: srv.URL})
	require.Error(t, err)
	assert.True(t, resilience.IsNotFound(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestCall_PerRequestMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(&sleepLog{}, nil, nil)
	_, err := c.Call(context.Background(), Request{Provider: "serp", URL: srv.URL, MaxAttempts: 1})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCall_RequiresProvider(t *testing.T) {
	c := newTestClient(&sleepLog{}, nil, nil)
	_, err := c.Call(context.Background(), Request{URL: "http://example.invalid"})
	assert.Error(t, err)
}

func TestCallEndpoints_FallsThroughOn404(t *testing.T) {
	var legacyHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/scrape-contacts", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/contacts", func(w http.ResponseWriter, r *http.Request) {
		legacyHits.Add(1)
		_, _ = w.Write([]byte(`{"data":[]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	policies := map[string]resilience.Policy{
		"contacts": resilience.DefaultPolicy().WithStatus(404, resilience.ActionNextEndpoint),
	}
	c := newTestClient(&sleepLog{}, nil, policies)

	resp, err := CallEndpoints(context.Background(), c, Request{Provider: "contacts"},
		[]string{srv.URL + "/scrape-contacts", srv.URL + "/contacts"})
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, int32(1), legacyHits.Load())
}

func TestCallEndpoints_StopsWhenPolicyFails404(t *testing.T) {
	var second atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) {
		second.Add(1)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(&sleepLog{}, nil, nil)
	_, err := CallEndpoints(context.Background(), c, Request{Provider: "serp"},
		[]string{srv.URL + "/a", srv.URL + "/b"})
	require.Error(t, err)
	assert.Equal(t, int32(0), second.Load())
}

func TestAdaptiveLimiter(t *testing.T) {
	l := NewAdaptiveLimiter(10, 1)
	l.OnRateLimit()
	assert.InDelta(t, 5.0, float64(l.Limit()), 0.001)
	l.OnRateLimit()
	l.OnRateLimit()
	assert.InDelta(t, 2.5, float64(l.Limit()), 0.001, "floored at initial/4")

	for range 20 {
		l.OnSuccess()
	}
	assert.InDelta(t, 20.0, float64(l.Limit()), 0.001, "capped at 2x initial")
}

func TestCall_LimiterSlowsOn429(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	lim := NewAdaptiveLimiter(100, 10)
	c := New(Options{
		Limiters: map[string]*AdaptiveLimiter{"serp": lim},
		Sleep:    (&sleepLog{}).sleep,
	})
	_, err := c.Call(context.Background(), Request{Provider: "serp", URL: srv.URL})
	require.NoError(t, err)
	// halved on 429, then +20% on success
	assert.InDelta(t, 60.0, float64(lim.Limit()), 0.001)
}

func TestResponse_DecodeError(t *testing.T) {
	resp := &Response{Status: 200, Body: []byte("<html>not json</html>")}
	var v map[string]any
	err := resp.Decode(&v)
	require.Error(t, err)
	assert.True(t, IsDecodeError(err))
}
