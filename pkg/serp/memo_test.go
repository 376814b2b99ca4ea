package serp

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanServer(t *testing.T, calls *atomic.Int32, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		_, _ = fmt.Fprintf(w, `{"domain":%q,"da":{"da":42},"emails":[{"email":"jane@%s"}]}`,
			r.URL.Query().Get("domain"), r.URL.Query().Get("domain"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestScanMemo_OneCallPerHost(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	memo := NewScanMemo(newTestClient(scanServer(t, &calls, http.StatusOK), "k"), time.Minute)
	ctx := context.Background()

	first, err := memo.WebsiteScan(ctx, "acme.com")
	require.NoError(t, err)
	second, err := memo.WebsiteScan(ctx, "ACME.com")
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	assert.Same(t, first, second)
	require.NotNil(t, second.DA)
	assert.InDelta(t, 42.0, second.DA.DA, 0.001)

	_, err = memo.WebsiteScan(ctx, "other.com")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestScanMemo_Expires(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	memo := NewScanMemo(newTestClient(scanServer(t, &calls, http.StatusOK), "k"), time.Minute)
	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	memo.now = func() time.Time { return now }

	_, err := memo.WebsiteScan(context.Background(), "acme.com")
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)
	_, err = memo.WebsiteScan(context.Background(), "acme.com")
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
}

func TestScanMemo_ErrorsNotKept(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	memo := NewScanMemo(newTestClient(scanServer(t, &calls, http.StatusNotFound), "k"), time.Minute)

	_, err := memo.WebsiteScan(context.Background(), "acme.com")
	require.Error(t, err)
	_, err = memo.WebsiteScan(context.Background(), "acme.com")
	require.Error(t, err)

	assert.Equal(t, int32(2), calls.Load())
}

func TestScanMemo_Bounded(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	memo := NewScanMemo(newTestClient(scanServer(t, &calls, http.StatusOK), "k"), time.Minute)
	for i := 0; i < memoSize+3; i++ {
		_, err := memo.WebsiteScan(context.Background(), fmt.Sprintf("host%d.com", i))
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, len(memo.entries), memoSize)
}
