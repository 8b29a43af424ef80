package wiki

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"
)

// newTestClient creates a client pointed at a mock MediaWiki API server.
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := &Config{
		BaseURL:    server.URL,
		Site:       "testwiki",
		Timeout:    5 * time.Second,
		MaxRetries: 2,
		UserAgent:  "TestClient/1.0",
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	client := NewClient(config, logger)
	t.Cleanup(client.Close)
	return client, server
}

// writeJSON responds with the given payload as the API would.
func writeJSON(t *testing.T, w http.ResponseWriter, payload map[string]interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		t.Errorf("encoding response: %v", err)
	}
}

func TestNewClient(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	if client.semaphore == nil {
		t.Error("semaphore should be initialized")
	}
	if cap(client.semaphore) != MaxConcurrentRequests {
		t.Errorf("semaphore capacity = %d, want %d", cap(client.semaphore), MaxConcurrentRequests)
	}
	if client.cache == nil {
		t.Error("cache should be initialized")
	}
	if client.breaker == nil {
		t.Error("circuit breaker should be initialized")
	}
}

func TestClientSite(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	if got := client.Site(); got != "testwiki" {
		t.Errorf("Site() = %q, want testwiki", got)
	}

	client.config.Site = ""
	want := server.Listener.Addr().String()
	if got := client.Site(); got != want {
		t.Errorf("Site() without config = %q, want host %q", got, want)
	}
}

func TestClientCache(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	client.setCache("test:key", "value", "page_info")
	cached, ok := client.getCached("test:key")
	if !ok {
		t.Fatal("expected cached value")
	}
	if cached.(string) != "value" {
		t.Errorf("cached = %v, want value", cached)
	}

	if _, ok := client.getCached("test:absent"); ok {
		t.Error("absent key should miss")
	}

	client.InvalidateCachePrefix("test:")
	if _, ok := client.getCached("test:key"); ok {
		t.Error("invalidated key should miss")
	}
}

func TestAPIRequestErrorEnvelope(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]interface{}{
			"error": map[string]interface{}{
				"code": "badtitle",
				"info": "Bad title",
			},
		})
	})

	_, err := client.PageInfo(context.Background(), "Anything")
	if err == nil {
		t.Fatal("expected API error")
	}
	if APIErrorCode(err) != "badtitle" {
		t.Errorf("APIErrorCode = %q, want badtitle", APIErrorCode(err))
	}
}

func TestAPIRequestRetriesServerErrors(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeJSON(t, w, map[string]interface{}{
			"query": map[string]interface{}{
				"pages": map[string]interface{}{
					"1": map[string]interface{}{
						"pageid": 1, "ns": 0, "title": "Test",
					},
				},
			},
		})
	})

	info, err := client.PageInfo(context.Background(), "Test")
	if err != nil {
		t.Fatalf("PageInfo after retry: %v", err)
	}
	if !info.Exists {
		t.Error("expected page to exist after retry")
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("calls = %d, want 2 (one retry)", calls)
	}
}

func TestAPIRequestClientErrorNotRetried(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	})

	if _, err := client.PageInfo(context.Background(), "Test"); err == nil {
		t.Fatal("expected error for 403")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("calls = %d, want 1 (4xx not retried)", calls)
	}
}

func TestAPIRequestContextCancelled(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		writeJSON(t, w, map[string]interface{}{})
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.PageInfo(ctx, "Test"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestJSONHelpers(t *testing.T) {
	if getString("x") != "x" || getString(nil) != "" || getString(5) != "" {
		t.Error("getString mismatch")
	}
	if getInt(float64(7)) != 7 || getInt(nil) != 0 {
		t.Error("getInt mismatch")
	}
	if getInt64(float64(9)) != 9 || getInt64("x") != 0 {
		t.Error("getInt64 mismatch")
	}
	if getMap(map[string]interface{}{"a": 1}) == nil || getMap(nil) != nil {
		t.Error("getMap mismatch")
	}
	if getSlice([]interface{}{1}) == nil || getSlice("x") != nil {
		t.Error("getSlice mismatch")
	}
}

func TestQueryPages(t *testing.T) {
	page, err := queryPages(map[string]interface{}{
		"query": map[string]interface{}{
			"pages": map[string]interface{}{
				"42": map[string]interface{}{"title": "Test"},
			},
		},
	})
	if err != nil {
		t.Fatalf("queryPages: %v", err)
	}
	if getString(page["title"]) != "Test" {
		t.Errorf("title = %q, want Test", getString(page["title"]))
	}

	if _, err := queryPages(map[string]interface{}{}); err == nil {
		t.Error("missing query object should error")
	}
	if _, err := queryPages(map[string]interface{}{
		"query": map[string]interface{}{},
	}); err == nil {
		t.Error("missing pages object should error")
	}
}
