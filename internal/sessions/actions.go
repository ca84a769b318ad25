package sessions

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/auxd/internal/shared"
	"github.com/desertthunder/auxd/internal/spotify"
)

// GetPlayback returns the host's current playback state, or nil when
// nothing is playing.
func (a *Actions) GetPlayback(ctx context.Context, creds Credentials) (*spotify.PlaybackState, error) {
	session, err := a.Resolve(creds)
	if err != nil {
		return nil, err
	}

	var state *spotify.PlaybackState
	err = a.auth.WithReauthRetry(ctx, session.HostID(), func(client *spotify.Client) error {
		var err error
		state, err = client.GetPlaybackState(ctx)
		return err
	})
	return state, err
}

// GetQueue returns the host's playback queue.
func (a *Actions) GetQueue(ctx context.Context, creds Credentials) (*spotify.Queue, error) {
	session, err := a.Resolve(creds)
	if err != nil {
		return nil, err
	}

	var queue *spotify.Queue
	err = a.auth.WithReauthRetry(ctx, session.HostID(), func(client *spotify.Client) error {
		var err error
		queue, err = client.GetQueue(ctx)
		return err
	})
	return queue, err
}

// GetHistory returns the host's ten most recently played tracks.
func (a *Actions) GetHistory(ctx context.Context, creds Credentials) (*spotify.RecentlyPlayed, error) {
	session, err := a.Resolve(creds)
	if err != nil {
		return nil, err
	}

	var recent *spotify.RecentlyPlayed
	err = a.auth.WithReauthRetry(ctx, session.HostID(), func(client *spotify.Client) error {
		var err error
		recent, err = client.GetRecentlyPlayed(ctx, 10)
		return err
	})
	return recent, err
}

// TogglePlayPause pauses playback when playing and resumes it when paused.
func (a *Actions) TogglePlayPause(ctx context.Context, creds Credentials) error {
	session, err := a.Resolve(creds)
	if err != nil {
		return err
	}
	if err := checkPermission(session, creds.CallerID, session.Permissions().PlayPause, "play_pause"); err != nil {
		return err
	}

	return a.auth.WithReauthRetry(ctx, session.HostID(), func(client *spotify.Client) error {
		state, deviceID, err := activeDevice(ctx, client)
		if err != nil {
			return err
		}
		if state.IsPlaying {
			return client.PausePlayback(ctx, deviceID)
		}
		return client.StartResumePlayback(ctx, deviceID)
	})
}

// SkipForward skips to the next track.
func (a *Actions) SkipForward(ctx context.Context, creds Credentials) error {
	session, err := a.Resolve(creds)
	if err != nil {
		return err
	}
	if err := checkPermission(session, creds.CallerID, session.Permissions().Skip, "skip"); err != nil {
		return err
	}

	return a.auth.WithReauthRetry(ctx, session.HostID(), func(client *spotify.Client) error {
		_, deviceID, err := activeDevice(ctx, client)
		if err != nil {
			return err
		}
		return client.SkipToNext(ctx, deviceID)
	})
}

// SkipBackward skips to the previous track.
func (a *Actions) SkipBackward(ctx context.Context, creds Credentials) error {
	session, err := a.Resolve(creds)
	if err != nil {
		return err
	}
	if err := checkPermission(session, creds.CallerID, session.Permissions().Skip, "skip"); err != nil {
		return err
	}

	return a.auth.WithReauthRetry(ctx, session.HostID(), func(client *spotify.Client) error {
		_, deviceID, err := activeDevice(ctx, client)
		if err != nil {
			return err
		}
		return client.SkipToPrevious(ctx, deviceID)
	})
}

// AddToQueue appends a track to the end of the host's queue.
func (a *Actions) AddToQueue(ctx context.Context, creds Credentials, songURI string) error {
	if songURI == "" {
		return fmt.Errorf("%w: song uri is required", shared.ErrInvalidInput)
	}

	session, err := a.Resolve(creds)
	if err != nil {
		return err
	}
	if err := checkPermission(session, creds.CallerID, session.Permissions().AddToQueue, "add_to_queue"); err != nil {
		return err
	}

	return a.auth.WithReauthRetry(ctx, session.HostID(), func(client *spotify.Client) error {
		return client.AddToQueue(ctx, songURI)
	})
}

// SkipQueue skips playback forward to the queued track with the given URI.
//
// The upstream has no skip-to-position primitive, so a track at queue index
// K is reached by issuing K+1 skip-next calls, fired together and awaited
// as a group. Preserved for upstream interop.
func (a *Actions) SkipQueue(ctx context.Context, creds Credentials, uriToSkipTo string) error {
	if uriToSkipTo == "" {
		return fmt.Errorf("%w: target uri is required", shared.ErrInvalidInput)
	}

	session, err := a.Resolve(creds)
	if err != nil {
		return err
	}
	if err := checkPermission(session, creds.CallerID, session.Permissions().SkipQueue, "skip_queue"); err != nil {
		return err
	}

	return a.auth.WithReauthRetry(ctx, session.HostID(), func(client *spotify.Client) error {
		_, deviceID, err := activeDevice(ctx, client)
		if err != nil {
			return err
		}

		queue, err := client.GetQueue(ctx)
		if err != nil {
			return err
		}

		index := -1
		for i, track := range queue.Queue {
			if track.URI == uriToSkipTo {
				index = i
				break
			}
		}
		if index == -1 {
			return fmt.Errorf("%w: %s", shared.ErrTrackNotInQueue, uriToSkipTo)
		}

		var wg sync.WaitGroup
		errs := make([]error, index+1)
		for i := 0; i <= index; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = client.SkipToNext(ctx, deviceID)
			}(i)
		}
		wg.Wait()

		for _, err := range errs {
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// GetDevices lists the host's playback devices. Host only.
func (a *Actions) GetDevices(ctx context.Context, creds Credentials) ([]spotify.Device, error) {
	session, err := a.Resolve(creds)
	if err != nil {
		return nil, err
	}
	if err := requireHost(session, creds.CallerID); err != nil {
		return nil, err
	}

	var devices []spotify.Device
	err = a.auth.WithReauthRetry(ctx, session.HostID(), func(client *spotify.Client) error {
		var err error
		devices, err = client.GetAvailableDevices(ctx)
		return err
	})
	return devices, err
}

// StartPlayback transfers playback to the given device. Host only.
func (a *Actions) StartPlayback(ctx context.Context, creds Credentials, deviceID string) error {
	if deviceID == "" {
		return fmt.Errorf("%w: device id is required", shared.ErrInvalidInput)
	}

	session, err := a.Resolve(creds)
	if err != nil {
		return err
	}
	if err := requireHost(session, creds.CallerID); err != nil {
		return err
	}

	return a.auth.WithReauthRetry(ctx, session.HostID(), func(client *spotify.Client) error {
		return client.TransferPlayback(ctx, deviceID, true)
	})
}

// activeDevice fetches the playback state and the id of the device it is
// on. Fails with [shared.ErrNoActiveDevice] when nothing is playing.
func activeDevice(ctx context.Context, client *spotify.Client) (*spotify.PlaybackState, string, error) {
	state, err := client.GetPlaybackState(ctx)
	if err != nil {
		return nil, "", err
	}
	if state == nil || state.Device.ID == "" {
		return nil, "", shared.ErrNoActiveDevice
	}
	return state, state.Device.ID, nil
}
