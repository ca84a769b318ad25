package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/auxd/internal/auth"
	"github.com/desertthunder/auxd/internal/models"
	"github.com/desertthunder/auxd/internal/shared"
	"github.com/desertthunder/auxd/internal/spotify"
)

// memorySessionStore is an in-memory SessionStore for tests.
type memorySessionStore struct {
	mu        sync.Mutex
	sessions  []*models.Session
	nextCode  int
	codeCalls int
}

func (m *memorySessionStore) FindByCodeAndPassword(code, password string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.Code() == code && s.Password() == password {
			return s, nil
		}
	}
	return nil, shared.ErrSessionNotFound
}

func (m *memorySessionStore) CountByHost(hostID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, s := range m.sessions {
		if s.HostID() == hostID {
			count++
		}
	}
	return count, nil
}

func (m *memorySessionStore) GenerateCode() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codeCalls++
	m.nextCode++
	return fmt.Sprintf("%04d", m.nextCode), nil
}

func (m *memorySessionStore) Create(session *models.Session) error {
	if err := session.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	session.SetID(shared.GenerateID())
	m.sessions = append(m.sessions, session)
	return nil
}

func (m *memorySessionStore) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.sessions {
		if s.ID() == id {
			m.sessions = append(m.sessions[:i], m.sessions[i+1:]...)
			return nil
		}
	}
	return shared.ErrSessionNotFound
}

func (m *memorySessionStore) List(criteria map[string]any) ([]*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hostID, _ := criteria["host_id"].(string)
	var out []*models.Session
	for _, s := range m.sessions {
		if hostID == "" || s.HostID() == hostID {
			out = append(out, s)
		}
	}
	return out, nil
}

// upstream is a fake playback API that counts hits per endpoint.
type upstream struct {
	mu    sync.Mutex
	hits  map[string]int
	idle  bool
	queue []spotify.Track
}

func (u *upstream) record(key string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.hits == nil {
		u.hits = make(map[string]int)
	}
	u.hits[key]++
}

func (u *upstream) count(key string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits[key]
}

func (u *upstream) total() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	total := 0
	for _, n := range u.hits {
		total += n
	}
	return total
}

func (u *upstream) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		u.record(key)

		switch key {
		case "GET /me/player":
			if u.idle {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			json.NewEncoder(w).Encode(spotify.PlaybackState{
				Device:    spotify.Device{ID: "device-1", IsActive: true},
				IsPlaying: true,
				Item:      &spotify.Track{ID: "now", Name: "Now Playing"},
			})
		case "GET /me/player/queue":
			json.NewEncoder(w).Encode(spotify.Queue{
				CurrentlyPlaying: &spotify.Track{ID: "now"},
				Queue:            u.queue,
			})
		case "GET /me/player/devices":
			json.NewEncoder(w).Encode(map[string][]spotify.Device{
				"devices": {{ID: "device-1", IsActive: true}},
			})
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}
}

// serverFactory builds clients pointed at the fake upstream.
type serverFactory struct {
	url    string
	client *http.Client
}

func (f *serverFactory) GetClient(hostID string) (*spotify.Client, error) {
	return spotify.NewClient("test-token", "Bearer",
		spotify.WithBaseURL(f.url), spotify.WithHTTPClient(f.client)), nil
}

type noopRefresher struct{}

func (noopRefresher) Refresh(ctx context.Context, hostID string) (*spotify.TokenResult, error) {
	return nil, errors.New("refresh not expected in this test")
}

type noopTokenStore struct{}

func (noopTokenStore) UpdateToken(hostID, accessToken, tokenType, refreshToken, scope string, expiresAt time.Time) error {
	return nil
}

// newHarness builds an Actions layer over an in-memory store and a fake
// upstream, seeded with one session for host-1.
func newHarness(t *testing.T, permissions models.Permissions) (*Actions, *memorySessionStore, *upstream) {
	t.Helper()

	up := &upstream{queue: []spotify.Track{
		{ID: "q0", URI: "spotify:track:q0"},
		{ID: "q1", URI: "spotify:track:q1"},
		{ID: "q2", URI: "spotify:track:q2"},
	}}
	srv := httptest.NewServer(up.handler())
	t.Cleanup(srv.Close)

	factory := &serverFactory{url: srv.URL, client: srv.Client()}
	coordinator := auth.NewCoordinator(noopRefresher{}, noopTokenStore{}, auth.CoordinatorOpts{
		Logger: shared.NewLogger(io.Discard),
	})
	authService := auth.NewService(factory, coordinator, auth.ServiceOpts{
		Logger: shared.NewLogger(io.Discard),
	})

	store := &memorySessionStore{}
	session := models.NewSession(1, "host-1", "4321", "Living Room", "secret", "DE", permissions)
	if err := store.Create(session); err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}

	actions := NewActions(store, authService, ActionsOpts{
		MaxPerHost: 3,
		Logger:     shared.NewLogger(io.Discard),
	})
	return actions, store, up
}

func guestCreds() Credentials {
	return Credentials{Code: "4321", Password: "secret"}
}

func hostCreds() Credentials {
	return Credentials{Code: "4321", Password: "secret", CallerID: "host-1"}
}

func TestResolve(t *testing.T) {
	actions, _, _ := newHarness(t, models.DefaultPermissions())

	t.Run("valid credentials", func(t *testing.T) {
		session, err := actions.Resolve(guestCreds())
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if session.HostID() != "host-1" {
			t.Errorf("HostID = %q", session.HostID())
		}
	})

	t.Run("empty credentials are rejected before lookup", func(t *testing.T) {
		if _, err := actions.Resolve(Credentials{}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := actions.Resolve(Credentials{Code: "4321", Password: "nope"})
		if !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})
}

func TestPermissionGate(t *testing.T) {
	t.Run("default session lets guests queue", func(t *testing.T) {
		actions, _, up := newHarness(t, models.DefaultPermissions())

		if err := actions.AddToQueue(context.Background(), guestCreds(), "spotify:track:abc"); err != nil {
			t.Fatalf("AddToQueue() error = %v", err)
		}
		if got := up.count("POST /me/player/queue"); got != 1 {
			t.Errorf("expected 1 queue call, got %d", got)
		}
	})

	t.Run("denied action never reaches the upstream", func(t *testing.T) {
		actions, _, up := newHarness(t, models.DefaultPermissions())

		err := actions.TogglePlayPause(context.Background(), guestCreds())
		if !errors.Is(err, shared.ErrPermissionDenied) {
			t.Fatalf("expected ErrPermissionDenied, got %v", err)
		}
		if got := up.total(); got != 0 {
			t.Errorf("denied action made %d upstream calls", got)
		}
	})

	t.Run("host bypasses every flag", func(t *testing.T) {
		actions, _, up := newHarness(t, models.Permissions{})

		if err := actions.TogglePlayPause(context.Background(), hostCreds()); err != nil {
			t.Fatalf("TogglePlayPause() as host error = %v", err)
		}
		if got := up.count("PUT /me/player/pause"); got != 1 {
			t.Errorf("expected the host's pause to go through, got %d calls", got)
		}
	})

	t.Run("skip needs its own flag", func(t *testing.T) {
		actions, _, up := newHarness(t, models.Permissions{AddToQueue: true})

		if err := actions.SkipForward(context.Background(), guestCreds()); !errors.Is(err, shared.ErrPermissionDenied) {
			t.Fatalf("expected ErrPermissionDenied, got %v", err)
		}
		if got := up.total(); got != 0 {
			t.Errorf("denied skip made %d upstream calls", got)
		}

		actions2, _, up2 := newHarness(t, models.Permissions{Skip: true})
		if err := actions2.SkipForward(context.Background(), guestCreds()); err != nil {
			t.Fatalf("SkipForward() error = %v", err)
		}
		if got := up2.count("POST /me/player/next"); got != 1 {
			t.Errorf("expected 1 skip, got %d", got)
		}
	})

	t.Run("device operations are host only", func(t *testing.T) {
		actions, _, up := newHarness(t, models.Permissions{AddToQueue: true, PlayPause: true, Skip: true, SkipQueue: true})

		if _, err := actions.GetDevices(context.Background(), guestCreds()); !errors.Is(err, shared.ErrPermissionDenied) {
			t.Fatalf("expected ErrPermissionDenied for guest, got %v", err)
		}
		if got := up.total(); got != 0 {
			t.Errorf("denied device listing made %d upstream calls", got)
		}

		devices, err := actions.GetDevices(context.Background(), hostCreds())
		if err != nil {
			t.Fatalf("GetDevices() as host error = %v", err)
		}
		if len(devices) != 1 {
			t.Errorf("devices = %d, want 1", len(devices))
		}
	})
}

func TestSkipQueue(t *testing.T) {
	t.Run("issues one skip per position up to the target", func(t *testing.T) {
		actions, _, up := newHarness(t, models.Permissions{SkipQueue: true})

		// q2 sits at index 2, so reaching it takes three skips
		if err := actions.SkipQueue(context.Background(), guestCreds(), "spotify:track:q2"); err != nil {
			t.Fatalf("SkipQueue() error = %v", err)
		}
		if got := up.count("POST /me/player/next"); got != 3 {
			t.Errorf("expected 3 skip calls, got %d", got)
		}
	})

	t.Run("first queued track takes a single skip", func(t *testing.T) {
		actions, _, up := newHarness(t, models.Permissions{SkipQueue: true})

		if err := actions.SkipQueue(context.Background(), guestCreds(), "spotify:track:q0"); err != nil {
			t.Fatalf("SkipQueue() error = %v", err)
		}
		if got := up.count("POST /me/player/next"); got != 1 {
			t.Errorf("expected 1 skip call, got %d", got)
		}
	})

	t.Run("unknown track skips nothing", func(t *testing.T) {
		actions, _, up := newHarness(t, models.Permissions{SkipQueue: true})

		err := actions.SkipQueue(context.Background(), guestCreds(), "spotify:track:ghost")
		if !errors.Is(err, shared.ErrTrackNotInQueue) {
			t.Fatalf("expected ErrTrackNotInQueue, got %v", err)
		}
		if got := up.count("POST /me/player/next"); got != 0 {
			t.Errorf("expected no skips for an unknown track, got %d", got)
		}
	})

	t.Run("target uri is required", func(t *testing.T) {
		actions, _, _ := newHarness(t, models.Permissions{SkipQueue: true})

		if err := actions.SkipQueue(context.Background(), guestCreds(), ""); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestNoActiveDevice(t *testing.T) {
	actions, _, up := newHarness(t, models.Permissions{PlayPause: true})
	up.idle = true

	err := actions.TogglePlayPause(context.Background(), guestCreds())
	if !errors.Is(err, shared.ErrNoActiveDevice) {
		t.Fatalf("expected ErrNoActiveDevice, got %v", err)
	}
	if got := up.count("PUT /me/player/pause") + up.count("PUT /me/player/play"); got != 0 {
		t.Errorf("expected no playback mutation without a device, got %d calls", got)
	}
}

func TestCreateSession(t *testing.T) {
	t.Run("assigns a generated code", func(t *testing.T) {
		actions, store, _ := newHarness(t, models.DefaultPermissions())

		session, err := actions.CreateSession("host-2", "Kitchen", "password", "DE", models.DefaultPermissions())
		if err != nil {
			t.Fatalf("CreateSession() error = %v", err)
		}
		if session.Code() == "" || len(session.Code()) != 4 {
			t.Errorf("code = %q, want a four-digit code", session.Code())
		}
		if store.codeCalls != 1 {
			t.Errorf("GenerateCode called %d times", store.codeCalls)
		}
	})

	t.Run("enforces the per-host limit", func(t *testing.T) {
		actions, store, _ := newHarness(t, models.DefaultPermissions())

		// The harness seeds one session; the limit is three
		for i := 0; i < 2; i++ {
			if _, err := actions.CreateSession("host-1", "Extra", "password", "DE", models.DefaultPermissions()); err != nil {
				t.Fatalf("CreateSession() %d error = %v", i, err)
			}
		}

		codeCalls := store.codeCalls
		_, err := actions.CreateSession("host-1", "One Too Many", "password", "DE", models.DefaultPermissions())
		if !errors.Is(err, shared.ErrSessionLimit) {
			t.Fatalf("expected ErrSessionLimit, got %v", err)
		}
		if store.codeCalls != codeCalls {
			t.Error("no code should be generated once the limit is hit")
		}
	})

	t.Run("limits are per host", func(t *testing.T) {
		actions, _, _ := newHarness(t, models.DefaultPermissions())

		for i := 0; i < 2; i++ {
			if _, err := actions.CreateSession("host-1", "Extra", "password", "DE", models.DefaultPermissions()); err != nil {
				t.Fatalf("CreateSession() %d error = %v", i, err)
			}
		}
		if _, err := actions.CreateSession("host-2", "Elsewhere", "password", "DE", models.DefaultPermissions()); err != nil {
			t.Errorf("another host should be unaffected: %v", err)
		}
	})
}

func TestDeleteSession(t *testing.T) {
	t.Run("by id", func(t *testing.T) {
		actions, store, _ := newHarness(t, models.DefaultPermissions())
		session := store.sessions[0]

		if err := actions.DeleteSession("host-1", session.ID()); err != nil {
			t.Fatalf("DeleteSession() error = %v", err)
		}
		if n, _ := store.CountByHost("host-1"); n != 0 {
			t.Errorf("expected no sessions left, got %d", n)
		}
	})

	t.Run("by code", func(t *testing.T) {
		actions, store, _ := newHarness(t, models.DefaultPermissions())

		if err := actions.DeleteSession("host-1", "4321"); err != nil {
			t.Fatalf("DeleteSession() error = %v", err)
		}
		if n, _ := store.CountByHost("host-1"); n != 0 {
			t.Errorf("expected no sessions left, got %d", n)
		}
	})

	t.Run("only the owner's sessions are visible", func(t *testing.T) {
		actions, _, _ := newHarness(t, models.DefaultPermissions())

		err := actions.DeleteSession("host-2", "4321")
		if !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound for another host, got %v", err)
		}
	})
}

func TestListSessions(t *testing.T) {
	actions, _, _ := newHarness(t, models.DefaultPermissions())

	if _, err := actions.CreateSession("host-2", "Kitchen", "password", "DE", models.DefaultPermissions()); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	sessions, err := actions.ListSessions("host-1")
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session for host-1, got %d", len(sessions))
	}
	if sessions[0].Code() != "4321" {
		t.Errorf("code = %q", sessions[0].Code())
	}
}
