// Spotify Web API response types based on https://developer.spotify.com/documentation/web-api/reference/
package spotify

// User represents a Spotify user profile.
type User struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Email       string  `json:"email"`
	Country     string  `json:"country"`
	Product     string  `json:"product"` // premium, free, etc.
	Images      []Image `json:"images"`
}

// Image represents an image resource.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type externalIDs struct {
	ISRC string `json:"isrc"`
}

// Track represents a Spotify track.
type Track struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Artists     []Artist    `json:"artists"`
	Album       Album       `json:"album"`
	DurationMS  int         `json:"duration_ms"`
	Explicit    bool        `json:"explicit"`
	ExternalIDs externalIDs `json:"external_ids"`
	Popularity  int         `json:"popularity"`
	URI         string      `json:"uri"`
}

// Artist represents a Spotify artist.
type Artist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres"`
	Images []Image  `json:"images"`
	URI    string   `json:"uri"`
}

// Album represents a Spotify album.
type Album struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Artists     []Artist `json:"artists"`
	ReleaseDate string   `json:"release_date"`
	TotalTracks int      `json:"total_tracks"`
	Images      []Image  `json:"images"`
	URI         string   `json:"uri"`
}

// Device represents a playback device.
type Device struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	IsActive      bool   `json:"is_active"`
	IsRestricted  bool   `json:"is_restricted"`
	VolumePercent int    `json:"volume_percent"`
}

// PlaybackState represents the current playback of a user's account.
type PlaybackState struct {
	Device       Device `json:"device"`
	RepeatState  string `json:"repeat_state"`
	ShuffleState bool   `json:"shuffle_state"`
	ProgressMS   int    `json:"progress_ms"`
	IsPlaying    bool   `json:"is_playing"`
	Item         *Track `json:"item"`
	Timestamp    int64  `json:"timestamp"`
}

// Queue represents the user's playback queue.
type Queue struct {
	CurrentlyPlaying *Track  `json:"currently_playing"`
	Queue            []Track `json:"queue"`
}

// PlayHistoryItem represents one entry of the recently played list.
type PlayHistoryItem struct {
	Track    Track  `json:"track"`
	PlayedAt string `json:"played_at"`
}

// RecentlyPlayed represents a page of the user's play history.
type RecentlyPlayed struct {
	Items []PlayHistoryItem `json:"items"`
}

// SavedTrack represents a track saved in the user's library.
type SavedTrack struct {
	AddedAt string `json:"added_at"`
	Track   Track  `json:"track"`
}

// PaginatedTracks represents a paginated response of saved tracks.
type PaginatedTracks struct {
	Items    []SavedTrack `json:"items"`
	Total    int          `json:"total"`
	Limit    int          `json:"limit"`
	Offset   int          `json:"offset"`
	Next     *string      `json:"next"`
	Previous *string      `json:"previous"`
}

// SearchPage is a paginated slice of search results for one item type.
type SearchPage[T any] struct {
	Items    []T     `json:"items"`
	Total    int     `json:"total"`
	Limit    int     `json:"limit"`
	Offset   int     `json:"offset"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

// SearchResults represents a catalog search response.
type SearchResults struct {
	Tracks  *SearchPage[Track]  `json:"tracks,omitempty"`
	Albums  *SearchPage[Album]  `json:"albums,omitempty"`
	Artists *SearchPage[Artist] `json:"artists,omitempty"`
}

// TokenResult is the upstream token endpoint's response to a refresh. Field
// names follow the OAuth2 wire format verbatim; renaming any breaks the
// integration.
type TokenResult struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
	RefreshToken string `json:"refresh_token,omitempty"`
}
