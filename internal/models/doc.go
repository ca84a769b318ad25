// Package models defines domain entities and persistence interfaces for the auxd playback sharing service.
//
// Persistent entities:
//   - [Account] : OAuth credential record for a host's Spotify account
//   - [Session] : Password-protected listening session with guest [Permissions]
//
// All persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
