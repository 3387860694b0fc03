package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// TokenSource fetches a fresh access token from the provider's auth
// endpoint. It is the only network call the cache ever makes.
type TokenSource func(ctx context.Context) (token string, expiresIn time.Duration, err error)

// TokenCache holds one access token with its expiry so repeated recordings
// skip the auth round-trip. Safe for concurrent use.
type TokenCache struct {
	mu      sync.Mutex
	token   string
	expires time.Time
	now     func() time.Time
}

func NewTokenCache() *TokenCache {
	return &TokenCache{now: time.Now}
}

// Get returns the cached token, or "" if none is cached or it expired.
func (c *TokenCache) Get() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == "" || !c.now().Before(c.expires) {
		return ""
	}
	return c.token
}

// Put caches a token for the given lifetime. A small safety margin is
// shaved off so a token is never handed out right at its expiry edge.
func (c *TokenCache) Put(token string, expiresIn time.Duration) {
	const margin = 30 * time.Second
	if expiresIn > margin {
		expiresIn -= margin
	}
	c.mu.Lock()
	c.token = token
	c.expires = c.now().Add(expiresIn)
	c.mu.Unlock()
}

// Invalidate drops the cached token. Called when the provider rejects it as
// stale before its recorded expiry.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// StaticTokenSource hands out a fixed API key. Used when the provider
// accepts long-lived keys directly on the websocket.
func StaticTokenSource(key string) TokenSource {
	return func(ctx context.Context) (string, time.Duration, error) {
		return key, 24 * time.Hour, nil
	}
}

// HTTPTokenSource exchanges an API key for a short-lived session token at
// the provider's auth endpoint.
func HTTPTokenSource(client *http.Client, url, apiKey string) TokenSource {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context) (string, time.Duration, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
		if err != nil {
			return "", 0, fmt.Errorf("token request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+apiKey)

		resp, err := client.Do(req)
		if err != nil {
			return "", 0, fmt.Errorf("token request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return "", 0, fmt.Errorf("token endpoint returned %s", resp.Status)
		}

		var body struct {
			Token     string `json:"token"`
			ExpiresIn int    `json:"expires_in"` // seconds
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return "", 0, fmt.Errorf("token response: %w", err)
		}
		if body.Token == "" {
			return "", 0, fmt.Errorf("token endpoint returned an empty token")
		}
		return body.Token, time.Duration(body.ExpiresIn) * time.Second, nil
	}
}

// Fetch returns a usable token, going to the source only when the cache is
// empty or expired.
func (c *TokenCache) Fetch(ctx context.Context, source TokenSource) (string, error) {
	if tok := c.Get(); tok != "" {
		return tok, nil
	}
	tok, ttl, err := source(ctx)
	if err != nil {
		return "", err
	}
	c.Put(tok, ttl)
	return tok, nil
}
