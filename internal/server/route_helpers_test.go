package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRouteByMethod_MatchingMethod(t *testing.T) {
	called := false
	routes := MethodRouter{
		http.MethodDelete: func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusNoContent)
		},
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/chart-data/cache", nil)
	w := httptest.NewRecorder()
	RouteByMethod(w, req, routes)

	if !called {
		t.Error("expected handler to be called")
	}
	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}
}

func TestRouteByMethod_NoMatchingMethod(t *testing.T) {
	routes := MethodRouter{
		http.MethodGet:  func(w http.ResponseWriter, r *http.Request) {},
		http.MethodHead: func(w http.ResponseWriter, r *http.Request) {},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/chart-data", nil)
	w := httptest.NewRecorder()
	RouteByMethod(w, req, routes)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", w.Code)
	}
	if got := w.Header().Get("Allow"); got != "GET, HEAD" {
		t.Errorf("expected Allow GET, HEAD, got %q", got)
	}
}
