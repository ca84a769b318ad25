package ui

import (
	"strings"

	"github.com/desertthunder/auxd/internal/spotify"
)

// queueItem adapts a queued track for [list.Model] rendering.
type queueItem struct {
	track spotify.Track
}

func (i queueItem) Title() string {
	return i.track.Name
}

func (i queueItem) Description() string {
	names := make([]string, len(i.track.Artists))
	for j, artist := range i.track.Artists {
		names[j] = artist.Name
	}
	return strings.Join(names, ", ")
}

func (i queueItem) FilterValue() string {
	return i.track.Name + " " + i.Description()
}
