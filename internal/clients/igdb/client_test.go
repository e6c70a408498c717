package igdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/gamepile/gamepile-backend/internal/logger"
)

func newTestClient(t *testing.T, serverURL string) Client {
	t.Helper()
	t.Setenv("IGDB_CLIENT_ID", "test-client")
	t.Setenv("IGDB_ACCESS_TOKEN", "test-token")
	t.Setenv("IGDB_URL", serverURL)
	t.Setenv("IGDB_MAX_RETRIES", "2")

	c, err := NewClient(&logger.Logger{SugaredLogger: zap.NewNop().Sugar()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestFetchByID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/games" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Client-ID") != "test-client" ||
			r.Header.Get("Authorization") != "Bearer test-token" {
			t.Error("auth headers missing")
		}
		w.Write([]byte(`[{"id": 1942, "name": "The Witcher 3: Wild Hunt"}]`))
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	rec, err := c.FetchByID(context.Background(), 1942)
	if err != nil {
		t.Fatalf("FetchByID: %v", err)
	}
	if rec["name"] != "The Witcher 3: Wild Hunt" {
		t.Errorf("record = %v", rec)
	}
}

func TestFetchByIDAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	rec, err := c.FetchByID(context.Background(), 999999)
	if err != nil {
		t.Fatalf("FetchByID: %v", err)
	}
	if rec != nil {
		t.Errorf("absent id should yield nil record, got %v", rec)
	}
}

func TestFetchQueryRetriesAfterRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`[{"id": 7}]`))
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	start := time.Now()
	records, err := c.FetchQuery(context.Background(), "fields id; limit 1;", "games")
	if err != nil {
		t.Fatalf("FetchQuery: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %v", records)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want a single retry", calls.Load())
	}
	if time.Since(start) < time.Second {
		t.Error("retry did not honor the Retry-After header")
	}
}

func TestFetchQueryExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	_, err := c.FetchQuery(context.Background(), "fields id;", "games")
	var te *TransportError
	if !errors.As(err, &te) || te.StatusCode != http.StatusTooManyRequests {
		t.Errorf("err = %v, want a 429 TransportError", err)
	}
}

func TestFetchQueryServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	_, err := c.FetchQuery(context.Background(), "fields id;", "games")
	var te *TransportError
	if !errors.As(err, &te) || te.StatusCode != http.StatusInternalServerError {
		t.Errorf("err = %v, want a 500 TransportError", err)
	}
}
