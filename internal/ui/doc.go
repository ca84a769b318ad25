// Package ui implements the interactive session monitor using bubbletea's Elm architecture.
//
// The monitor polls the playback state and queue for a session on a fixed interval
// and renders a now-playing line plus the upcoming queue as a [list.Model].
// Playback controls (space, n, p, enter) go through the same permission-gated
// action layer guests use, so a monitor opened with guest credentials is bound by
// the session's permission bits.
//
// The [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Keyboard navigation uses vim-style bindings (j/k, enter, q) with contextual
// help displayed via charmbracelet/bubbles/help.
package ui
