package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/auxd/internal/shared"
)

// Refresher exchanges a host's stored refresh token for a new access token
// at the upstream token endpoint. It performs exactly one outbound request
// per call and does not persist the result; the refresh coordinator owns
// persistence so it can cache the token before committing.
type Refresher struct {
	store        CredentialStore
	clientID     string
	clientSecret string
	tokenURL     string
	httpClient   *http.Client
}

// NewRefresher creates a refresher using the given client credentials.
func NewRefresher(store CredentialStore, clientID, clientSecret string, opts ...RefresherOption) *Refresher {
	r := &Refresher{
		store:        store,
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     TokenURL,
		httpClient:   http.DefaultClient,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RefresherOption configures a [Refresher].
type RefresherOption func(*Refresher)

// WithTokenURL overrides the token endpoint, used by tests.
func WithTokenURL(tokenURL string) RefresherOption {
	return func(r *Refresher) { r.tokenURL = tokenURL }
}

// WithRefreshHTTPClient overrides the underlying [http.Client].
func WithRefreshHTTPClient(httpClient *http.Client) RefresherOption {
	return func(r *Refresher) { r.httpClient = httpClient }
}

// Refresh mints a new access token from the stored refresh token.
//
// Fails with [shared.ErrRefreshFailed] when the host has no credential
// record, the record lacks a refresh token or token type, or the token
// endpoint answers non-2xx.
func (r *Refresher) Refresh(ctx context.Context, hostID string) (*TokenResult, error) {
	account, err := r.store.Find(hostID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	if account.RefreshToken() == "" {
		return nil, fmt.Errorf("%w: refresh token is empty", shared.ErrRefreshFailed)
	}
	if account.TokenType() == "" {
		return nil, fmt.Errorf("%w: token type is empty", shared.ErrRefreshFailed)
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", account.RefreshToken())

	req, err := http.NewRequestWithContext(ctx, "POST", r.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", shared.ErrRefreshFailed, err)
	}

	req.SetBasicAuth(r.clientID, r.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", shared.ErrRefreshFailed, resp.StatusCode)
	}

	var token TokenResult
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", shared.ErrRefreshFailed, err)
	}

	return &token, nil
}
