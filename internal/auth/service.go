package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/auxd/internal/shared"
	"github.com/desertthunder/auxd/internal/spotify"
)

// DefaultTimeout bounds how long a caller waits on a coordinated refresh.
// The underlying refresh is not aborted when the wait times out.
const DefaultTimeout = 5 * time.Second

// ClientFactory builds an authenticated upstream client from stored
// credentials. Implemented by [spotify.Factory].
type ClientFactory interface {
	GetClient(hostID string) (*spotify.Client, error)
}

// Verdict is the result of an expiration check.
type Verdict struct {
	Expired bool
	Err     error
}

// Service ties the client factory and refresh coordinator together into
// the expiration-detection-and-recovery protocol consumed by the action
// handlers and exposed to the UI.
type Service struct {
	factory     ClientFactory
	coordinator *Coordinator
	timeout     time.Duration
	logger      *log.Logger
}

// ServiceOpts configures a [Service].
type ServiceOpts struct {
	Timeout time.Duration
	Logger  *log.Logger
}

// NewService creates the auth service.
func NewService(factory ClientFactory, coordinator *Coordinator, opts ServiceOpts) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Service{
		factory:     factory,
		coordinator: coordinator,
		timeout:     opts.Timeout,
		logger:      opts.Logger,
	}
}

// GetClient builds an upstream client for the host.
func (s *Service) GetClient(hostID string) (*spotify.Client, error) {
	return s.factory.GetClient(hostID)
}

// Reauth requests a coordinated token refresh, bounded by the service
// timeout.
func (s *Service) Reauth(ctx context.Context, hostID string) (*spotify.TokenResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.coordinator.Reauth(ctx, hostID)
}

// CheckExpiration probes the upstream with the host's stored token and
// reports whether the host must reauthenticate interactively.
//
// A factory failure is a configuration error, returned as the second
// value, not an expiry verdict. Any probe failure triggers exactly one
// coordinated reauth; if that succeeds the verdict is not-expired (the
// caller fetches a fresh client on next use, the probe is not retried),
// and if it fails the verdict is expired with the refresh error attached.
func (s *Service) CheckExpiration(ctx context.Context, hostID string) (Verdict, error) {
	client, err := s.factory.GetClient(hostID)
	if err != nil {
		return Verdict{}, err
	}

	if _, err := client.GetPlaybackState(ctx); err == nil {
		return Verdict{}, nil
	}

	if _, err := s.Reauth(ctx, hostID); err != nil {
		return Verdict{Expired: true, Err: err}, nil
	}

	return Verdict{}, nil
}

// WithReauthRetry runs fn with a client for the host. When fn fails with
// an upstream auth error, it requests one coordinated reauth, rebuilds the
// client, and retries fn exactly once. A second failure is surfaced to the
// caller uninterpreted; nothing here loops.
func (s *Service) WithReauthRetry(ctx context.Context, hostID string, fn func(*spotify.Client) error) error {
	client, err := s.factory.GetClient(hostID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrUpstreamUnavailable, err)
	}

	err = fn(client)
	if err == nil || !spotify.IsAuthError(err) {
		return err
	}

	s.logger.Debug("retrying after reauth", "host", hostID)

	if _, rerr := s.Reauth(ctx, hostID); rerr != nil {
		return rerr
	}

	client, err = s.factory.GetClient(hostID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrUpstreamUnavailable, err)
	}

	return fn(client)
}
