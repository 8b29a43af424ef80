package wiki

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/wikimech/wikiext/metrics"
)

// sessionLifetime is how long a login or CSRF token is trusted before
// re-authenticating.
const sessionLifetime = 60 * time.Minute

// EnsureLoggedIn logs in when credentials are configured and the session
// has expired. Wikis that allow anonymous reads work without credentials.
func (c *Client) EnsureLoggedIn(ctx context.Context) error {
	if !c.config.HasCredentials() {
		return nil
	}

	c.mu.RLock()
	loggedIn := c.loggedIn && time.Now().Before(c.tokenExpiry)
	c.mu.RUnlock()
	if loggedIn {
		return nil
	}

	return c.login(ctx)
}

// login authenticates with the wiki using a bot password.
func (c *Client) login(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loggedIn && time.Now().Before(c.tokenExpiry) {
		return nil
	}

	if !c.config.HasCredentials() {
		metrics.AuthFailures.WithLabelValues("no_credentials").Inc()
		return fmt.Errorf("no credentials configured: set MEDIAWIKI_USERNAME and MEDIAWIKI_PASSWORD")
	}

	loginToken, err := c.fetchToken(ctx, "login")
	if err != nil {
		metrics.AuthFailures.WithLabelValues("login_token").Inc()
		return fmt.Errorf("failed to get login token: %w", err)
	}

	params := url.Values{}
	params.Set("action", "login")
	params.Set("lgname", c.config.Username)
	params.Set("lgpassword", c.config.Password)
	params.Set("lgtoken", loginToken)

	resp, err := c.apiRequest(ctx, params)
	if err != nil {
		metrics.AuthFailures.WithLabelValues("request").Inc()
		return fmt.Errorf("login failed: %w", err)
	}

	login := getMap(resp["login"])
	if login == nil {
		metrics.AuthFailures.WithLabelValues("bad_response").Inc()
		return fmt.Errorf("unexpected login response")
	}

	result := getString(login["result"])
	if result != "Success" {
		metrics.AuthFailures.WithLabelValues("rejected").Inc()
		// Drop the session cookies the failed attempt left behind, so the
		// next attempt starts with a fresh login token.
		c.resetSession()
		if reason := login["reason"]; reason != nil {
			return fmt.Errorf("login failed: %s - %v", result, reason)
		}
		return fmt.Errorf("login failed: %s", result)
	}

	c.loggedIn = true
	c.tokenExpiry = time.Now().Add(sessionLifetime)
	c.logger.Info("Successfully logged in", "username", c.config.Username)
	return nil
}

// resetSession swaps in an empty cookie jar and clears cached auth state.
// Caller must hold c.mu.
func (c *Client) resetSession() {
	jar, _ := cookiejar.New(nil)
	c.httpClient.Jar = jar
	c.loggedIn = false
	c.csrfToken = ""
	c.tokenExpiry = time.Time{}
	c.logger.Debug("Session reset for fresh login")
}

// getCSRFToken returns a CSRF token for write operations, logging in first
// when needed.
func (c *Client) getCSRFToken(ctx context.Context) (string, error) {
	c.mu.RLock()
	if c.csrfToken != "" && time.Now().Before(c.tokenExpiry) {
		token := c.csrfToken
		c.mu.RUnlock()
		return token, nil
	}
	c.mu.RUnlock()

	if err := c.login(ctx); err != nil {
		return "", err
	}

	token, err := c.fetchToken(ctx, "csrf")
	if err != nil {
		metrics.AuthFailures.WithLabelValues("csrf_token").Inc()
		return "", fmt.Errorf("failed to get CSRF token: %w", err)
	}

	c.mu.Lock()
	c.csrfToken = token
	c.tokenExpiry = time.Now().Add(sessionLifetime)
	c.mu.Unlock()

	return token, nil
}

// fetchToken requests a token of the given type from meta=tokens.
func (c *Client) fetchToken(ctx context.Context, tokenType string) (string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("meta", "tokens")
	params.Set("type", tokenType)

	resp, err := c.apiRequest(ctx, params)
	if err != nil {
		return "", err
	}

	tokens := getMap(getMap(resp["query"])["tokens"])
	token := getString(tokens[tokenType+"token"])
	if token == "" {
		return "", fmt.Errorf("no %s token in response", tokenType)
	}
	return token, nil
}
