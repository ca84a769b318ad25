// Package auth implements token expiration detection and coordinated
// recovery for host accounts. The [Coordinator] deduplicates concurrent
// refreshes per host; the [Service] wraps upstream calls with a single
// retry after reauthentication.
package auth
