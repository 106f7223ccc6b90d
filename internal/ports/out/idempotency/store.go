package idempotency

import (
	"context"
	"errors"
	"time"
)

// Key is the value of the Idempotency-Key header.
type Key string

// Scope is a key as used on one route. The same key on another route is unrelated.
type Scope struct {
	Key   Key
	Route string
}

// Entry is what a scope remembers: the hash of the payload it was first used
// with, and the created member response once that create succeeded. CreatedAt
// is stored with microsecond precision.
type Entry struct {
	BodyHash  string
	Response  []byte
	CreatedAt time.Time
}

// Completed reports whether a response is available for replay.
func (e Entry) Completed() bool { return len(e.Response) > 0 }

// ErrNotClaimed is returned by Complete for a scope that was never claimed.
var ErrNotClaimed = errors.New("idempotency scope not claimed")

type Store interface {
	// Claim binds bodyHash to scope. When scope is already bound, Claim leaves
	// it unchanged and returns the existing entry with fresh=false.
	Claim(ctx context.Context, scope Scope, bodyHash string, at time.Time) (existing Entry, fresh bool, err error)
	// Complete stores the response to replay for scope.
	Complete(ctx context.Context, scope Scope, response []byte) error
	// Release drops an uncompleted claim made at claimedAt so the key can be
	// used again. Completed entries and newer claims are left alone.
	Release(ctx context.Context, scope Scope, claimedAt time.Time) error
}
