package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Credential errors: a host either has no linked account at all or a
	// record missing required token fields. Neither is retried.
	ErrCredentialMissing    = fmt.Errorf("no credential record for host")
	ErrCredentialIncomplete = fmt.Errorf("incomplete credential record")

	// Authentication errors
	ErrAuthFailed    = fmt.Errorf("authentication failed")
	ErrRefreshFailed = fmt.Errorf("token refresh failed")
	ErrTokenExpired  = fmt.Errorf("access token expired")

	// Session errors
	ErrSessionNotFound  = fmt.Errorf("session not found")
	ErrPermissionDenied = fmt.Errorf("session permission denied")
	ErrSessionLimit     = fmt.Errorf("session limit reached")
	ErrCodeExhausted    = fmt.Errorf("could not generate a unique session code")

	// Upstream errors
	ErrUpstreamUnavailable = fmt.Errorf("upstream client unavailable")
	ErrNoActiveDevice      = fmt.Errorf("no active playback device")
	ErrTrackNotInQueue     = fmt.Errorf("track not found in queue")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)
