package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPathParam(t *testing.T) {
	cases := []struct {
		path, prefix, suffix, want string
	}{
		{"/api/portfolios/alice", "/api/portfolios/", "", "alice"},
		{"/api/portfolios/alice/feedback", "/api/portfolios/", "", "alice"},
		{"/api/portfolios/alice/feedback", "/api/portfolios/", "/feedback", "alice"},
		{"/api/portfolios/alice/feedback", "/api/portfolios/alice/", "", "feedback"},
		{"/api/portfolios/alice", "/api/portfolios/alice/", "", ""},
		{"/api/other", "/api/portfolios/", "", ""},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, tc.path, nil)
		if got := PathParam(r, tc.prefix, tc.suffix); got != tc.want {
			t.Errorf("PathParam(%q, %q, %q) = %q, want %q", tc.path, tc.prefix, tc.suffix, got, tc.want)
		}
	}
}

func TestRequireMethod(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/version", nil)
	if RequireMethod(rec, r, http.MethodGet, http.MethodHead) {
		t.Fatal("expected POST to be rejected")
	}
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
	if got := rec.Header().Get("Allow"); got != "GET, HEAD" {
		t.Errorf("expected Allow header 'GET, HEAD', got %q", got)
	}
}
