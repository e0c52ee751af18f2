// Package lock serializes issuance for one (issuer, recipient) pair so two
// concurrent requests cannot both pass the duplicate check.
package lock

import (
	"context"
	"strings"
	"time"
)

const keyPrefix = "certguard:issuance:"

// Lock is a held lease. Release is safe to call after expiry.
type Lock interface {
	Release(ctx context.Context) error
}

// Locker acquires leases. Acquire returns sentinel.ErrConflict when the key is held.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

// Key builds the lock key for an issuer and recipient email.
func Key(issuerID, recipientEmail string) string {
	return keyPrefix + strings.TrimSpace(issuerID) + ":" + strings.ToLower(strings.TrimSpace(recipientEmail))
}
