package spotify

import (
	"fmt"
	"strings"

	"github.com/desertthunder/auxd/internal/models"
	"github.com/desertthunder/auxd/internal/shared"
)

// CredentialStore is the read side of the credential record storage the
// factory and refresher depend on.
type CredentialStore interface {
	Find(hostID string) (*models.Account, error)
}

// Factory builds authenticated upstream clients from stored credential
// records. It is stateless and called per request; it never checks whether
// the token is still unexpired, expiry surfaces as a 401 on use.
type Factory struct {
	store CredentialStore
	opts  []ClientOption
}

// NewFactory creates a client factory reading from the given store.
func NewFactory(store CredentialStore, opts ...ClientOption) *Factory {
	return &Factory{store: store, opts: opts}
}

// GetClient reads the credential record for hostID, validates it in one
// step, and returns a client bound to the current access token.
//
// Fails with [shared.ErrCredentialMissing] when no record exists and
// [shared.ErrCredentialIncomplete] when required token fields are absent.
func (f *Factory) GetClient(hostID string) (*Client, error) {
	account, err := f.store.Find(hostID)
	if err != nil {
		return nil, err
	}

	if !account.Complete() {
		return nil, fmt.Errorf("%w: missing %s", shared.ErrCredentialIncomplete,
			strings.Join(account.MissingFields(), ", "))
	}

	return NewClient(account.AccessToken(), account.TokenType(), f.opts...), nil
}
