// Package repositories implements SQLite persistence for all domain entities.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// All repositories support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [AccountRepository] : Linked Spotify accounts with token storage and host-id lookups
//   - [SessionRepository] : Listening sessions with code+password resolution and unique code generation
//
// Sequence numbers provide stable, human-readable ordering (e.g., account #3, session #7) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
