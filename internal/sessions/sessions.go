// package sessions implements the guest-facing session operations.
//
// Every operation resolves the session from the code+password pair guests
// present, checks the relevant permission flag (the host bypasses all of
// them), and performs the upstream call through the auth service's
// retry-once-after-reauth wrapper.
package sessions

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/auxd/internal/auth"
	"github.com/desertthunder/auxd/internal/models"
	"github.com/desertthunder/auxd/internal/shared"
	"github.com/desertthunder/auxd/internal/spotify"
)

// SessionStore resolves and manages listening sessions. Implemented by
// [repositories.SessionRepository].
type SessionStore interface {
	FindByCodeAndPassword(code, password string) (*models.Session, error)
	CountByHost(hostID string) (int, error)
	GenerateCode() (string, error)
	Create(session *models.Session) error
	Delete(id string) error
	List(criteria map[string]any) ([]*models.Session, error)
}

// Credentials identify a caller against a session. CallerID is the host id
// of an authenticated host, empty for anonymous guests.
type Credentials struct {
	Code     string `json:"code"`
	Password string `json:"password"`
	CallerID string `json:"-"`
}

// Actions is the collaborator-facing surface of session operations.
type Actions struct {
	store      SessionStore
	auth       *auth.Service
	catalog    *spotify.AppTokenSource
	maxPerHost int
	logger     *log.Logger
}

// ActionsOpts configures [Actions].
type ActionsOpts struct {
	// Catalog provides app tokens for search; search is unavailable
	// without it.
	Catalog    *spotify.AppTokenSource
	MaxPerHost int
	Logger     *log.Logger
}

// NewActions creates the session action layer.
func NewActions(store SessionStore, authService *auth.Service, opts ActionsOpts) *Actions {
	if opts.MaxPerHost <= 0 {
		opts.MaxPerHost = 10
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Actions{
		store:      store,
		auth:       authService,
		catalog:    opts.Catalog,
		maxPerHost: opts.MaxPerHost,
		logger:     opts.Logger,
	}
}

// Resolve looks up the session for the given credentials.
func (a *Actions) Resolve(creds Credentials) (*models.Session, error) {
	if creds.Code == "" || creds.Password == "" {
		return nil, fmt.Errorf("%w: code and password are required", shared.ErrInvalidInput)
	}
	return a.store.FindByCodeAndPassword(creds.Code, creds.Password)
}

// CreateSession creates a listening session for a host, generating a
// unique four-digit code. Hosts are limited to maxPerHost live sessions.
func (a *Actions) CreateSession(hostID, name, password, market string, permissions models.Permissions) (*models.Session, error) {
	count, err := a.store.CountByHost(hostID)
	if err != nil {
		return nil, err
	}
	if count >= a.maxPerHost {
		return nil, fmt.Errorf("%w: delete old sessions before creating a new one", shared.ErrSessionLimit)
	}

	code, err := a.store.GenerateCode()
	if err != nil {
		return nil, err
	}

	session := models.NewSession(0, hostID, code, name, password, market, permissions)
	if err := a.store.Create(session); err != nil {
		return nil, err
	}

	a.logger.Info("created session", "code", session.Code(), "host", hostID)
	return session, nil
}

// ListSessions lists a host's live sessions.
func (a *Actions) ListSessions(hostID string) ([]*models.Session, error) {
	return a.store.List(map[string]any{"host_id": hostID})
}

// DeleteSession removes a session owned by the host.
func (a *Actions) DeleteSession(hostID, id string) error {
	sessions, err := a.store.List(map[string]any{"host_id": hostID})
	if err != nil {
		return err
	}
	for _, s := range sessions {
		if s.ID() == id || s.Code() == id {
			return a.store.Delete(s.ID())
		}
	}
	return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
}

// checkPermission enforces a session permission flag against the caller.
// The host always passes.
func checkPermission(session *models.Session, callerID string, allowed bool, name string) error {
	if callerID != "" && callerID == session.HostID() {
		return nil
	}
	if !allowed {
		return fmt.Errorf("%w: session does not allow you to %s",
			shared.ErrPermissionDenied, models.PermissionDescriptions[name])
	}
	return nil
}

// requireHost enforces that the caller is the session's host.
func requireHost(session *models.Session, callerID string) error {
	if callerID == "" || callerID != session.HostID() {
		return fmt.Errorf("%w: only the host may do this", shared.ErrPermissionDenied)
	}
	return nil
}
