package models

import (
	"fmt"
	"time"
)

// Permissions are the per-session flags deciding what guests may do.
// The host always bypasses them.
type Permissions struct {
	AddToQueue bool
	PlayPause  bool
	Skip       bool
	SkipQueue  bool
}

// DefaultPermissions returns the permission set new sessions start with:
// guests may queue songs but not control playback.
func DefaultPermissions() Permissions {
	return Permissions{AddToQueue: true}
}

// PermissionDescriptions maps permission names to guest-facing descriptions.
var PermissionDescriptions = map[string]string{
	"add_to_queue": "add songs to the end of the queue",
	"play_pause":   "toggle play / pause",
	"skip":         "skip songs one by one",
	"skip_queue":   "skip to a certain point in the queue",
}

// Session is a password-protected listening session exposing a host's
// playback to guests.
type Session struct {
	id          string
	sequence    int
	hostID      string
	code        string
	name        string
	password    string
	market      string
	permissions Permissions
	createdAt   time.Time
	updatedAt   time.Time
	deletedAt   *time.Time
}

// NewSession creates a session owned by the given host.
func NewSession(sequence int, hostID, code, name, password, market string, permissions Permissions) *Session {
	now := time.Now()
	if market == "" {
		market = "DE"
	}
	return &Session{
		sequence:    sequence,
		hostID:      hostID,
		code:        code,
		name:        name,
		password:    password,
		market:      market,
		permissions: permissions,
		createdAt:   now,
		updatedAt:   now,
	}
}

func (s *Session) ID() string               { return s.id }
func (s *Session) Sequence() int            { return s.sequence }
func (s *Session) HostID() string           { return s.hostID }
func (s *Session) Code() string             { return s.code }
func (s *Session) Name() string             { return s.name }
func (s *Session) Password() string         { return s.password }
func (s *Session) Market() string           { return s.market }
func (s *Session) Permissions() Permissions { return s.permissions }
func (s *Session) CreatedAt() time.Time     { return s.createdAt }
func (s *Session) UpdatedAt() time.Time     { return s.updatedAt }
func (s *Session) DeletedAt() *time.Time    { return s.deletedAt }

func (s *Session) SetID(id string)                 { s.id = id }
func (s *Session) SetUpdatedAt(t time.Time)        { s.updatedAt = t }
func (s *Session) SetDeletedAt(t *time.Time)       { s.deletedAt = t }
func (s *Session) SetPermissions(p Permissions)    { s.permissions = p }
func (s *Session) SetName(name string)             { s.name = name }

// Validate checks the session's data.
func (s *Session) Validate() error {
	if s.hostID == "" {
		return fmt.Errorf("session host id cannot be empty")
	}
	if s.name == "" {
		return fmt.Errorf("session name cannot be empty")
	}
	if len(s.code) < 4 {
		return fmt.Errorf("session code must be at least four characters long")
	}
	if len(s.password) < 4 {
		return fmt.Errorf("session password must be at least four characters long")
	}
	return nil
}
