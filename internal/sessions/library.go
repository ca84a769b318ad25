package sessions

import (
	"context"
	"fmt"

	"github.com/desertthunder/auxd/internal/shared"
	"github.com/desertthunder/auxd/internal/spotify"
)

// Host library operations. These act on the host's own account rather than
// a session, and the mutating ones consult the expiration protocol first
// so a stale token surfaces as a reauthentication prompt instead of a
// half-failed write.

// HasSavedTrack reports whether the track is in the host's library.
func (a *Actions) HasSavedTrack(ctx context.Context, hostID, trackID string) (bool, error) {
	if trackID == "" {
		return false, fmt.Errorf("%w: track id is required", shared.ErrInvalidInput)
	}

	var saved bool
	err := a.auth.WithReauthRetry(ctx, hostID, func(client *spotify.Client) error {
		results, err := client.HasSavedTracks(ctx, []string{trackID})
		if err != nil {
			return err
		}
		saved = len(results) > 0 && results[0]
		return nil
	})
	return saved, err
}

// SaveTrack adds the track to the host's library.
func (a *Actions) SaveTrack(ctx context.Context, hostID, trackID string) error {
	if trackID == "" {
		return fmt.Errorf("%w: track id is required", shared.ErrInvalidInput)
	}

	if err := a.requireLiveToken(ctx, hostID); err != nil {
		return err
	}

	client, err := a.auth.GetClient(hostID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrUpstreamUnavailable, err)
	}
	return client.SaveTracks(ctx, []string{trackID})
}

// RemoveSavedTrack removes the track from the host's library.
func (a *Actions) RemoveSavedTrack(ctx context.Context, hostID, trackID string) error {
	if trackID == "" {
		return fmt.Errorf("%w: track id is required", shared.ErrInvalidInput)
	}

	if err := a.requireLiveToken(ctx, hostID); err != nil {
		return err
	}

	client, err := a.auth.GetClient(hostID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrUpstreamUnavailable, err)
	}
	return client.RemoveSavedTracks(ctx, []string{trackID})
}

// GetFavourites pages through the host's saved tracks.
func (a *Actions) GetFavourites(ctx context.Context, hostID string, limit, offset int) (*spotify.PaginatedTracks, error) {
	var tracks *spotify.PaginatedTracks
	err := a.auth.WithReauthRetry(ctx, hostID, func(client *spotify.Client) error {
		var err error
		tracks, err = client.SavedTracks(ctx, limit, offset)
		return err
	})
	return tracks, err
}

// CheckExpiration exposes the host's token verdict so a UI can decide
// whether to prompt reauthentication.
func (a *Actions) CheckExpiration(ctx context.Context, hostID string) (bool, error) {
	verdict, err := a.auth.CheckExpiration(ctx, hostID)
	if err != nil {
		return false, err
	}
	return verdict.Expired, verdict.Err
}

// requireLiveToken runs the expiration protocol and refuses the operation
// when the host must reauthenticate interactively.
func (a *Actions) requireLiveToken(ctx context.Context, hostID string) error {
	verdict, err := a.auth.CheckExpiration(ctx, hostID)
	if err != nil {
		return err
	}
	if verdict.Expired {
		return fmt.Errorf("%w: please reauthenticate", shared.ErrTokenExpired)
	}
	return nil
}

// Search queries the catalog with an application token; it needs no
// session or host context.
func (a *Actions) Search(ctx context.Context, term string, types []string, market string, page int) (*spotify.SearchResults, error) {
	if a.catalog == nil {
		return nil, fmt.Errorf("%w: catalog search not configured", shared.ErrMissingConfig)
	}

	client, err := a.catalog.Client(ctx)
	if err != nil {
		return nil, err
	}

	const limit = 20
	if page < 0 {
		page = 0
	}
	return client.Search(ctx, term, types, market, limit, limit*page)
}
