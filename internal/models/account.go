package models

import (
	"fmt"
	"time"
)

// Account is the persisted OAuth credential record for a host's Spotify
// account. It is mutated only by the initial grant and by token refreshes.
type Account struct {
	id           string
	sequence     int
	hostID       string
	displayName  string
	accessToken  string
	tokenType    string
	refreshToken string
	scope        string
	expiresAt    time.Time
	createdAt    time.Time
	updatedAt    time.Time
	deletedAt    *time.Time
}

// NewAccount creates an account record for the given host.
func NewAccount(sequence int, hostID, displayName string) *Account {
	now := time.Now()
	return &Account{
		sequence:    sequence,
		hostID:      hostID,
		displayName: displayName,
		createdAt:   now,
		updatedAt:   now,
	}
}

func (a *Account) ID() string            { return a.id }
func (a *Account) Sequence() int         { return a.sequence }
func (a *Account) HostID() string        { return a.hostID }
func (a *Account) DisplayName() string   { return a.displayName }
func (a *Account) AccessToken() string   { return a.accessToken }
func (a *Account) TokenType() string     { return a.tokenType }
func (a *Account) RefreshToken() string  { return a.refreshToken }
func (a *Account) Scope() string         { return a.scope }
func (a *Account) ExpiresAt() time.Time  { return a.expiresAt }
func (a *Account) CreatedAt() time.Time  { return a.createdAt }
func (a *Account) UpdatedAt() time.Time  { return a.updatedAt }
func (a *Account) DeletedAt() *time.Time { return a.deletedAt }

func (a *Account) SetID(id string)            { a.id = id }
func (a *Account) SetUpdatedAt(t time.Time)   { a.updatedAt = t }
func (a *Account) SetDeletedAt(t *time.Time)  { a.deletedAt = t }
func (a *Account) SetDisplayName(name string) { a.displayName = name }

// SetToken overwrites the stored token fields. An empty refreshToken keeps
// the previous one, since the upstream only rotates it sometimes.
func (a *Account) SetToken(accessToken, tokenType, refreshToken, scope string, expiresAt time.Time) {
	a.accessToken = accessToken
	a.tokenType = tokenType
	if refreshToken != "" {
		a.refreshToken = refreshToken
	}
	a.scope = scope
	a.expiresAt = expiresAt
}

// Validate checks the account's data.
func (a *Account) Validate() error {
	if a.hostID == "" {
		return fmt.Errorf("account host id cannot be empty")
	}
	return nil
}

// Complete reports whether every field required to build an upstream client
// is present. Expiry in the past does not make a record incomplete; expiry
// is discovered lazily through upstream call failure.
func (a *Account) Complete() bool {
	return a.accessToken != "" && a.tokenType != "" && a.refreshToken != "" && !a.expiresAt.IsZero()
}

// MissingFields names the token fields that are absent, for error messages.
func (a *Account) MissingFields() []string {
	var missing []string
	if a.accessToken == "" {
		missing = append(missing, "access_token")
	}
	if a.tokenType == "" {
		missing = append(missing, "token_type")
	}
	if a.refreshToken == "" {
		missing = append(missing, "refresh_token")
	}
	if a.expiresAt.IsZero() {
		missing = append(missing, "expires_at")
	}
	return missing
}
