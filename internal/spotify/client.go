package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	// AuthURL is the Spotify account authorization endpoint.
	AuthURL = "https://accounts.spotify.com/authorize"
	// TokenURL is the Spotify token endpoint.
	TokenURL = "https://accounts.spotify.com/api/token"
	// BaseURL is the Spotify Web API root.
	BaseURL = "https://api.spotify.com/v1"
)

// APIError is a failed Spotify API response. It carries the HTTP status so
// callers can distinguish auth expiry (401) from other failures instead of
// matching on message text.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("spotify API error: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("spotify API error: status %d", e.StatusCode)
}

// IsAuthError reports whether the upstream rejected the access token.
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// IsAuthError reports whether err is an upstream auth rejection.
func IsAuthError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsAuthError()
}

// Client is an upstream API client bound to one access token. It is cheap
// to construct and built per request by the [Factory]; it never refreshes
// the token itself.
type Client struct {
	accessToken string
	tokenType   string
	baseURL     string
	httpClient  *http.Client
}

// NewClient creates a client bound to the given access token.
func NewClient(accessToken, tokenType string, opts ...ClientOption) *Client {
	if tokenType == "" {
		tokenType = "Bearer"
	}
	c := &Client{
		accessToken: accessToken,
		tokenType:   tokenType,
		baseURL:     BaseURL,
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClientOption configures a [Client].
type ClientOption func(*Client)

// WithBaseURL overrides the API root, used by tests.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient overrides the underlying [http.Client].
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

// doRequest performs an authenticated HTTP request to the Spotify API.
//
// A nil result skips decoding; 204 responses decode into nothing.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	apiURL := c.baseURL + endpoint

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", c.tokenType+" "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errBody struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errBody); decodeErr == nil {
			apiErr.Message = errBody.Error.Message
		}
		return apiErr
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// UserProfile retrieves the current authenticated user's profile.
func (c *Client) UserProfile(ctx context.Context) (*User, error) {
	var user User
	if err := c.doRequest(ctx, "GET", "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetPlaybackState retrieves the current playback state. Returns nil when
// nothing is playing (the upstream answers 204).
func (c *Client) GetPlaybackState(ctx context.Context) (*PlaybackState, error) {
	var state PlaybackState
	if err := c.doRequest(ctx, "GET", "/me/player", nil, &state); err != nil {
		return nil, err
	}
	if state.Device.ID == "" && state.Item == nil {
		return nil, nil
	}
	return &state, nil
}

// GetQueue retrieves the user's playback queue.
func (c *Client) GetQueue(ctx context.Context) (*Queue, error) {
	var queue Queue
	if err := c.doRequest(ctx, "GET", "/me/player/queue", nil, &queue); err != nil {
		return nil, err
	}
	return &queue, nil
}

// GetRecentlyPlayed retrieves the most recently played tracks.
func (c *Client) GetRecentlyPlayed(ctx context.Context, limit int) (*RecentlyPlayed, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}

	var recent RecentlyPlayed
	endpoint := fmt.Sprintf("/me/player/recently-played?limit=%d", limit)
	if err := c.doRequest(ctx, "GET", endpoint, nil, &recent); err != nil {
		return nil, err
	}
	return &recent, nil
}

// SkipToNext skips playback to the next track on the given device.
func (c *Client) SkipToNext(ctx context.Context, deviceID string) error {
	return c.doRequest(ctx, "POST", "/me/player/next?device_id="+url.QueryEscape(deviceID), nil, nil)
}

// SkipToPrevious skips playback to the previous track on the given device.
func (c *Client) SkipToPrevious(ctx context.Context, deviceID string) error {
	return c.doRequest(ctx, "POST", "/me/player/previous?device_id="+url.QueryEscape(deviceID), nil, nil)
}

// PausePlayback pauses playback on the given device.
func (c *Client) PausePlayback(ctx context.Context, deviceID string) error {
	return c.doRequest(ctx, "PUT", "/me/player/pause?device_id="+url.QueryEscape(deviceID), nil, nil)
}

// StartResumePlayback resumes playback on the given device.
func (c *Client) StartResumePlayback(ctx context.Context, deviceID string) error {
	return c.doRequest(ctx, "PUT", "/me/player/play?device_id="+url.QueryEscape(deviceID), nil, nil)
}

// AddToQueue appends a track to the end of the playback queue.
func (c *Client) AddToQueue(ctx context.Context, uri string) error {
	return c.doRequest(ctx, "POST", "/me/player/queue?uri="+url.QueryEscape(uri), nil, nil)
}

// GetAvailableDevices lists the user's playback devices.
func (c *Client) GetAvailableDevices(ctx context.Context) ([]Device, error) {
	var response struct {
		Devices []Device `json:"devices"`
	}
	if err := c.doRequest(ctx, "GET", "/me/player/devices", nil, &response); err != nil {
		return nil, err
	}
	return response.Devices, nil
}

// TransferPlayback moves playback to the given device.
func (c *Client) TransferPlayback(ctx context.Context, deviceID string, play bool) error {
	body := map[string]any{"device_ids": []string{deviceID}, "play": play}
	return c.doRequest(ctx, "PUT", "/me/player", body, nil)
}

// HasSavedTracks checks which of the given tracks are in the user's library.
func (c *Client) HasSavedTracks(ctx context.Context, trackIDs []string) ([]bool, error) {
	if len(trackIDs) == 0 {
		return nil, fmt.Errorf("no track IDs provided")
	}

	ids := url.QueryEscape(strings.Join(trackIDs, ","))
	var saved []bool
	if err := c.doRequest(ctx, "GET", "/me/tracks/contains?ids="+ids, nil, &saved); err != nil {
		return nil, err
	}
	return saved, nil
}

// SaveTracks adds the given tracks to the user's library.
func (c *Client) SaveTracks(ctx context.Context, trackIDs []string) error {
	if len(trackIDs) == 0 {
		return fmt.Errorf("no track IDs provided")
	}
	body := map[string][]string{"ids": trackIDs}
	return c.doRequest(ctx, "PUT", "/me/tracks", body, nil)
}

// RemoveSavedTracks removes the given tracks from the user's library.
func (c *Client) RemoveSavedTracks(ctx context.Context, trackIDs []string) error {
	if len(trackIDs) == 0 {
		return fmt.Errorf("no track IDs provided")
	}
	body := map[string][]string{"ids": trackIDs}
	return c.doRequest(ctx, "DELETE", "/me/tracks", body, nil)
}

// SavedTracks retrieves the user's saved tracks with pagination.
func (c *Client) SavedTracks(ctx context.Context, limit, offset int) (*PaginatedTracks, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/me/tracks?limit=%d&offset=%d", limit, offset)

	var response PaginatedTracks
	if err := c.doRequest(ctx, "GET", endpoint, nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// Search queries the catalog for the given item types.
func (c *Client) Search(ctx context.Context, term string, types []string, market string, limit, offset int) (*SearchResults, error) {
	if term == "" {
		return nil, fmt.Errorf("search term cannot be empty")
	}
	if len(types) == 0 {
		types = []string{"track"}
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	params := url.Values{}
	params.Set("q", term)
	params.Set("type", strings.Join(types, ","))
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))
	if market != "" {
		params.Set("market", market)
	}

	var results SearchResults
	if err := c.doRequest(ctx, "GET", "/search?"+params.Encode(), nil, &results); err != nil {
		return nil, err
	}
	return &results, nil
}
