package wiki

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"
)

// newAuthedTestClient creates a client with bot credentials against a mock
// server that handles the full token/login/edit exchange.
func newAuthedTestClient(t *testing.T, onEdit func(r *http.Request) map[string]interface{}) *Client {
	t.Helper()
	handler := func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		switch {
		case r.Form.Get("meta") == "tokens" && r.Form.Get("type") == "login":
			writeJSON(t, w, map[string]interface{}{
				"query": map[string]interface{}{
					"tokens": map[string]interface{}{"logintoken": "LOGIN+\\"},
				},
			})
		case r.Form.Get("action") == "login":
			if r.Form.Get("lgtoken") != "LOGIN+\\" {
				t.Errorf("lgtoken = %q, want LOGIN+\\", r.Form.Get("lgtoken"))
			}
			writeJSON(t, w, map[string]interface{}{
				"login": map[string]interface{}{"result": "Success", "lgusername": "Bot"},
			})
		case r.Form.Get("meta") == "tokens" && r.Form.Get("type") == "csrf":
			writeJSON(t, w, map[string]interface{}{
				"query": map[string]interface{}{
					"tokens": map[string]interface{}{"csrftoken": "CSRF+\\"},
				},
			})
		case r.Form.Get("action") == "edit":
			writeJSON(t, w, onEdit(r))
		default:
			t.Errorf("unexpected request: %v", r.Form)
		}
	}

	server := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(server.Close)

	config := &Config{
		BaseURL:    server.URL,
		Site:       "testwiki",
		Username:   "Bot@tool",
		Password:   "botpassword",
		Timeout:    5 * time.Second,
		MaxRetries: 1,
		UserAgent:  "TestClient/1.0",
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	client := NewClient(config, logger)
	t.Cleanup(client.Close)
	return client
}

func TestEditPage(t *testing.T) {
	client := newAuthedTestClient(t, func(r *http.Request) map[string]interface{} {
		if r.Form.Get("token") != "CSRF+\\" {
			t.Errorf("token = %q, want CSRF+\\", r.Form.Get("token"))
		}
		if r.Form.Get("title") != "Report" {
			t.Errorf("title = %q, want Report", r.Form.Get("title"))
		}
		if r.Form.Get("text") != "new body" {
			t.Errorf("text = %q, want new body", r.Form.Get("text"))
		}
		if r.Form.Get("summary") != "update report" {
			t.Errorf("summary = %q", r.Form.Get("summary"))
		}
		if r.Form.Get("minor") != "1" {
			t.Error("minor flag should be set")
		}
		if r.Form.Get("bot") != "1" {
			t.Error("bot flag should be set")
		}
		return map[string]interface{}{
			"edit": map[string]interface{}{
				"result":   "Success",
				"title":    "Report",
				"pageid":   7,
				"newrevid": 1234,
			},
		}
	})

	result, err := client.EditPage(context.Background(), "Report", "new body", "update report", true, true)
	if err != nil {
		t.Fatalf("EditPage: %v", err)
	}
	if !result.Success {
		t.Fatalf("result = %+v, want success", result)
	}
	if result.RevisionID != 1234 {
		t.Errorf("RevisionID = %d, want 1234", result.RevisionID)
	}
	if result.NewPage {
		t.Error("NewPage should be false")
	}
}

func TestEditPageCreatesNewPage(t *testing.T) {
	client := newAuthedTestClient(t, func(r *http.Request) map[string]interface{} {
		return map[string]interface{}{
			"edit": map[string]interface{}{
				"result": "Success",
				"title":  "Fresh",
				"pageid": 8,
				"new":    "",
			},
		}
	})

	result, err := client.EditPage(context.Background(), "Fresh", "body", "", false, false)
	if err != nil {
		t.Fatalf("EditPage: %v", err)
	}
	if !result.NewPage {
		t.Error("NewPage should be true")
	}
}

func TestEditPageRejected(t *testing.T) {
	client := newAuthedTestClient(t, func(r *http.Request) map[string]interface{} {
		return map[string]interface{}{
			"edit": map[string]interface{}{"result": "Failure"},
		}
	})

	result, err := client.EditPage(context.Background(), "Protected", "body", "", false, false)
	if err != nil {
		t.Fatalf("EditPage: %v", err)
	}
	if result.Success {
		t.Error("rejected edit should not report success")
	}
}

func TestEditPageInvalidatesTextCache(t *testing.T) {
	client := newAuthedTestClient(t, func(r *http.Request) map[string]interface{} {
		return map[string]interface{}{
			"edit": map[string]interface{}{"result": "Success", "title": "Report"},
		}
	})

	client.setCache("page_text:Report", "stale", "page_text")
	client.setCache("page_info:Report", PageInfo{Title: "Report"}, "page_info")
	client.setCache("page_text:Other", "unrelated", "page_text")

	if _, err := client.EditPage(context.Background(), "Report", "body", "", false, false); err != nil {
		t.Fatalf("EditPage: %v", err)
	}

	if _, ok := client.getCached("page_text:Report"); ok {
		t.Error("page_text cache for the edited page should be invalidated")
	}
	if _, ok := client.getCached("page_info:Report"); ok {
		t.Error("page_info cache for the edited page should be invalidated")
	}
	if _, ok := client.getCached("page_text:Other"); !ok {
		t.Error("unrelated cache entries should survive")
	}
}

func TestEditPageWithoutCredentials(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should reach the server without credentials")
	})

	if _, err := client.EditPage(context.Background(), "Report", "body", "", false, false); err == nil {
		t.Fatal("EditPage without credentials should fail")
	}
}

func TestEnsureLoggedInWithoutCredentials(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("anonymous reads should not trigger a login request")
	})

	if err := client.EnsureLoggedIn(context.Background()); err != nil {
		t.Fatalf("EnsureLoggedIn: %v", err)
	}
}

// newRejectedLoginClient creates a client with bad credentials against a
// mock server that hands out login tokens but rejects every login.
func newRejectedLoginClient(t *testing.T) *Client {
	t.Helper()
	handler := func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		switch {
		case r.Form.Get("meta") == "tokens":
			writeJSON(t, w, map[string]interface{}{
				"query": map[string]interface{}{
					"tokens": map[string]interface{}{"logintoken": "T"},
				},
			})
		case r.Form.Get("action") == "login":
			writeJSON(t, w, map[string]interface{}{
				"login": map[string]interface{}{"result": "Failed", "reason": "Incorrect password"},
			})
		}
	}
	server := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(server.Close)

	config := &Config{
		BaseURL:    server.URL,
		Username:   "Bot@tool",
		Password:   "wrong",
		Timeout:    5 * time.Second,
		MaxRetries: 1,
		UserAgent:  "TestClient/1.0",
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	client := NewClient(config, logger)
	t.Cleanup(client.Close)
	return client
}

func TestLoginRejected(t *testing.T) {
	client := newRejectedLoginClient(t)

	if err := client.EnsureLoggedIn(context.Background()); err == nil {
		t.Fatal("rejected login should error")
	}
}

func TestLoginRejectedResetsSession(t *testing.T) {
	client := newRejectedLoginClient(t)

	// Seed stale auth state as if an earlier session had expired.
	client.mu.Lock()
	client.csrfToken = "stale"
	client.mu.Unlock()
	jarBefore := client.httpClient.Jar

	if err := client.EnsureLoggedIn(context.Background()); err == nil {
		t.Fatal("rejected login should error")
	}

	if client.httpClient.Jar == jarBefore {
		t.Error("rejected login should swap in a fresh cookie jar")
	}
	client.mu.RLock()
	defer client.mu.RUnlock()
	if client.loggedIn {
		t.Error("client should not be marked logged in")
	}
	if client.csrfToken != "" {
		t.Error("stale CSRF token should be cleared")
	}
}
