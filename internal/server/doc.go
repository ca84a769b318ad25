// Package server provides HTTP routing, middleware, and OAuth handling for the auxd API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// Shipped middleware: [LoggingMiddleware] (request logging via charmbracelet/log) and
// [RateLimitMiddleware] (per-client token buckets via golang.org/x/time/rate).
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization code callback flow used when a host
// links their Spotify account.
//
// The handler validates the state parameter (CSRF protection), exchanges the authorization code for tokens,
// and sends the result through a channel.
//
// It only processes one callback to prevent replay attacks.
//
// # Action API
//
// [ActionHandler] exposes the session action layer (internal/sessions) as RPC-style JSON
// endpoints under /api/. Guests authenticate per call with a session code+password pair in
// the request body; an authenticated host is identified by the [HostHeader] header set by
// the fronting auth layer. Errors map to HTTP statuses by their sentinel type
// (permission denied 403, session not found 404, credential problems 502, expired token 401).
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
