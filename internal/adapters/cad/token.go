package cad

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/fenestra-io/configurator/internal/core"
)

// tokenSource caches the vendor bearer token behind a TTL guard. One
// instance lives inside each Client; there is no process-global cache.
// Concurrent refreshes collapse into a single upstream call.
type tokenSource struct {
	tokenURL   string
	apiKey     string
	httpClient *http.Client
	now        func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time

	group singleflight.Group
}

// tokenSkew is subtracted from the reported lifetime so a token is refreshed
// before the vendor starts rejecting it.
const tokenSkew = 30 * time.Second

func newTokenSource(tokenURL, apiKey string, httpClient *http.Client) *tokenSource {
	return &tokenSource{
		tokenURL:   tokenURL,
		apiKey:     apiKey,
		httpClient: httpClient,
		now:        time.Now,
	}
}

// Token returns a valid bearer token, fetching a fresh one when the cached
// token is missing or expired.
func (ts *tokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	if ts.token != "" && ts.now().Before(ts.expiresAt) {
		token := ts.token
		ts.mu.Unlock()
		return token, nil
	}
	ts.mu.Unlock()

	result, err, _ := ts.group.Do("token", func() (interface{}, error) {
		return ts.fetch(ctx)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (ts *tokenSource) fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.tokenURL, strings.NewReader(""))
	if err != nil {
		return "", core.ErrAuth("building token request").WithCause(err)
	}
	req.Header.Set("X-Api-Key", ts.apiKey)

	resp, err := ts.httpClient.Do(req)
	if err != nil {
		return "", core.ErrAuth("token endpoint unreachable").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", core.ErrAuth(fmt.Sprintf("token endpoint returned status %d", resp.StatusCode))
	}

	var payload struct {
		Token     string `json:"token"`
		ExpiresIn int    `json:"expiresIn"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", core.ErrAuth("decoding token response").WithCause(err)
	}
	if payload.Token == "" {
		return "", core.ErrAuth("token endpoint returned an empty token")
	}

	ttl := time.Duration(payload.ExpiresIn) * time.Second
	if ttl <= tokenSkew {
		ttl = tokenSkew * 2
	}

	ts.mu.Lock()
	ts.token = payload.Token
	ts.expiresAt = ts.now().Add(ttl - tokenSkew)
	ts.mu.Unlock()

	return payload.Token, nil
}

// Invalidate drops the cached token so the next call fetches a fresh one.
func (ts *tokenSource) Invalidate() {
	ts.mu.Lock()
	ts.token = ""
	ts.mu.Unlock()
}
