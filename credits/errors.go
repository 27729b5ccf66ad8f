/*
errors.go - Error types for the credit ledger

A denied consumption is not an error: the gate reports it through
Decision.Granted with the human-readable reason, and callers build their
own error kinds from it. The ledger itself only fails on persistence
problems and idempotency replays.
*/
package credits

import "errors"

// ErrDuplicateIdempotencyKey is returned when a transaction with the same
// idempotency key already exists. Expected behavior for retried grants;
// the original transaction stands.
var ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")
