// Package spotify is the Web API client layer.
//
//   - [Client] : authenticated REST client for playback, queue, library, and search endpoints
//   - [Refresher] : exchanges a host's stored refresh token for a new access token
//   - [Factory] : builds a [Client] from a host's stored credential record
//   - [AppTokenSource] : client-credentials token source for catalog search
//
// Auth failures surface as [APIError] with a 401 status; [IsAuthError]
// is how callers decide whether a reauthentication attempt is worthwhile.
package spotify
