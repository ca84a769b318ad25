package ui

import "github.com/desertthunder/auxd/internal/spotify"

// tickMsg triggers the next playback poll.
type tickMsg struct{}

// playbackMsg carries a polled playback snapshot (or the error that
// prevented one) back onto the UI goroutine.
type playbackMsg struct {
	state *spotify.PlaybackState
	queue *spotify.Queue
	err   error
}

// actionDoneMsg reports completion of a user-triggered playback action.
type actionDoneMsg struct {
	err error
}
