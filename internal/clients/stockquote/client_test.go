package stockquote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/stocktrader/internal/common"
)

func TestGetQuote_ParsesResponse(t *testing.T) {
	var capturedPath, capturedAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		capturedAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"symbol":"IBM","price":135.25,"date":"2026-10-13"}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL + "/"))
	quote, err := client.GetQuote(context.Background(), "Bearer tok", "IBM")
	require.NoError(t, err)

	assert.Equal(t, "/IBM", capturedPath)
	assert.Equal(t, "Bearer tok", capturedAuth)
	assert.Equal(t, "IBM", quote.Symbol)
	assert.Equal(t, 135.25, quote.Price)
	assert.Equal(t, "2026-10-13", quote.Date)
}

func TestGetQuote_NoAuthHeaderWhenAnonymous(t *testing.T) {
	var hasAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasAuth = r.Header["Authorization"]
		w.Write([]byte(`{"price":1.5,"date":"2026-10-13"}`))
	}))
	defer srv.Close()

	quote, err := NewClient(WithBaseURL(srv.URL)).GetQuote(context.Background(), "", "T")
	require.NoError(t, err)
	assert.False(t, hasAuth)
	assert.Equal(t, "T", quote.Symbol, "symbol defaults to the requested one")
}

func TestGetQuote_FailureKinds(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    common.FailureKind
	}{
		{
			name:    "rejected on non-OK status",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusServiceUnavailable) },
			want:    common.FailureRejected,
		},
		{
			name:    "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{not json`)) },
			want:    common.FailureMalformed,
		},
		{
			name:    "zero price",
			handler: func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"symbol":"X","price":0}`)) },
			want:    common.FailureMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewClient(WithBaseURL(srv.URL)).GetQuote(context.Background(), "", "X")
			require.Error(t, err)
			assert.Equal(t, tt.want, common.FailureKindOf(err))
		})
	}
}

func TestGetQuote_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient(WithBaseURL(srv.URL)).GetQuote(ctx, "", "SLOW")
	require.Error(t, err)
	assert.Equal(t, common.FailureTimeout, common.FailureKindOf(err))
}

func TestGetQuote_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	_, err := NewClient(WithBaseURL(addr)).GetQuote(context.Background(), "", "DOWN")
	require.Error(t, err)
	assert.Equal(t, common.FailureTransport, common.FailureKindOf(err))
}

func TestGetQuote_Unconfigured(t *testing.T) {
	_, err := NewClient(WithBaseURL("")).GetQuote(context.Background(), "", "X")
	require.Error(t, err)
	assert.Equal(t, common.FailureUnconfigured, common.FailureKindOf(err))
}
