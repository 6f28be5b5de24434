// Package client talks to the public deck API.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic contract (see the Client interface) for the two
//     session calls the viewer needs: CreateSession and UpdateSession.
//  2. A concrete JSON-over-HTTP implementation (see HTTPClient) that retries
//     session creation once after a fixed delay, validates responses, and
//     maps HTTP failures to sentinel errors.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) for the
//     viewer's small SQLite state file.
//
// # Error Handling
//
// Failures are returned as *common.ViewerError values of kind
// common.ErrNetwork or common.ErrIntegrity. The HTTP condition behind a
// network failure can be matched with errors.Is against ErrUnavailable,
// ErrUnauthorized or ErrNotFound.
//
// The client never mutates viewer state; callers apply results themselves.
package client
