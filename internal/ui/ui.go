package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/auxd/internal/sessions"
	"github.com/desertthunder/auxd/internal/spotify"
)

// DefaultPollInterval is how often the monitor refreshes playback state.
// The system polls by design; there is no push channel to subscribe to.
const DefaultPollInterval = 5 * time.Second

// Model is the session monitor: a polling now-playing display with the
// upcoming queue, driven through the same action layer guests use.
type Model struct {
	ctx      context.Context
	actions  *sessions.Actions
	creds    sessions.Credentials
	interval time.Duration

	width  int
	height int

	state     *spotify.PlaybackState
	queueList list.Model
	listReady bool
	status    string
	err       error

	help help.Model
	keys keyMap
}

// NewModel creates a monitor for the session identified by creds.
func NewModel(ctx context.Context, actions *sessions.Actions, creds sessions.Credentials, interval time.Duration) *Model {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Model{
		ctx:      ctx,
		actions:  actions,
		creds:    creds,
		interval: interval,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init starts the first fetch and the poll ticker.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetchPlayback(), m.tick())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.listReady {
			m.queueList.SetSize(msg.Width-4, msg.Height-10)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case tickMsg:
		return m, tea.Batch(m.fetchPlayback(), m.tick())

	case playbackMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.state = msg.state
		m.setQueue(msg.queue)
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.status = styles.warn.Render(msg.err.Error())
		} else {
			m.status = ""
		}
		return m, m.fetchPlayback()
	}

	if m.listReady {
		var cmd tea.Cmd
		m.queueList, cmd = m.queueList.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.refresh):
		return m, m.fetchPlayback()
	case key.Matches(msg, m.keys.toggle):
		return m, m.run(func() error { return m.actions.TogglePlayPause(m.ctx, m.creds) })
	case key.Matches(msg, m.keys.next):
		return m, m.run(func() error { return m.actions.SkipForward(m.ctx, m.creds) })
	case key.Matches(msg, m.keys.prev):
		return m, m.run(func() error { return m.actions.SkipBackward(m.ctx, m.creds) })
	case key.Matches(msg, m.keys.jump):
		if m.listReady {
			if item, ok := m.queueList.SelectedItem().(queueItem); ok {
				uri := item.track.URI
				return m, m.run(func() error { return m.actions.SkipQueue(m.ctx, m.creds, uri) })
			}
		}
		return m, nil
	}

	if m.listReady {
		var cmd tea.Cmd
		m.queueList, cmd = m.queueList.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the monitor.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(styles.title.Render(fmt.Sprintf("auxd session %s", m.creds.Code)))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}

	b.WriteString(m.renderNowPlaying())
	b.WriteString("\n")

	if m.listReady {
		b.WriteString(m.queueList.View())
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString(m.status)
		b.WriteString("\n")
	}

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderNowPlaying() string {
	if m.state == nil || m.state.Item == nil {
		return styles.help.Render("Nothing playing")
	}

	track := m.state.Item
	artists := make([]string, len(track.Artists))
	for i, artist := range track.Artists {
		artists[i] = artist.Name
	}

	indicator := "▶"
	if !m.state.IsPlaying {
		indicator = "⏸"
	}

	line := fmt.Sprintf("%s %s — %s", indicator, track.Name, strings.Join(artists, ", "))
	progress := fmt.Sprintf("%s / %s", formatDuration(m.state.ProgressMS), formatDuration(track.DurationMS))

	return styles.ok.Render(line) + "  " + styles.help.Render(progress)
}

func (m *Model) setQueue(queue *spotify.Queue) {
	if queue == nil {
		return
	}

	items := make([]list.Item, len(queue.Queue))
	for i, track := range queue.Queue {
		items[i] = queueItem{track: track}
	}

	if !m.listReady {
		m.queueList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.queueList.Title = "Up Next"
		m.queueList.SetShowHelp(false)
		m.queueList.SetSize(m.width-4, m.height-10)
		m.listReady = true
		return
	}
	m.queueList.SetItems(items)
}

// fetchPlayback loads playback state and queue off the UI goroutine.
func (m *Model) fetchPlayback() tea.Cmd {
	return func() tea.Msg {
		state, err := m.actions.GetPlayback(m.ctx, m.creds)
		if err != nil {
			return playbackMsg{err: err}
		}
		queue, err := m.actions.GetQueue(m.ctx, m.creds)
		if err != nil {
			return playbackMsg{state: state, err: err}
		}
		return playbackMsg{state: state, queue: queue}
	}
}

func (m *Model) run(action func() error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{err: action()}
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func formatDuration(ms int) string {
	d := time.Duration(ms) * time.Millisecond
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
