package ports

import (
	"context"
	"time"

	"github.com/Fried333/verus-connect/core"
)

// ChallengeStore holds live challenges and their verified results.
//
// All operations are atomic with respect to each other: issue, verify and
// poll-read handlers share one store across concurrent requests, and no
// partial update may ever be visible.
type ChallengeStore interface {
	// Put registers a new challenge. Returns core.ErrDuplicateChallenge if
	// the identifier is already present.
	Put(ctx context.Context, challenge *core.Challenge) error

	// Get retrieves a live challenge. Returns core.ErrChallengeNotFound if
	// it was never issued or has been reaped.
	Get(ctx context.Context, id string) (*core.Challenge, error)

	// SetResult records the verified result for a live challenge. A second
	// call for the same identifier overwrites (wallets retry webhook
	// delivery). Returns core.ErrChallengeNotFound if no matching live
	// challenge exists.
	SetResult(ctx context.Context, id string, result *core.Result) error

	// GetResult returns the result for a challenge. A nil result with a nil
	// error means the challenge is live but unresolved (pending). Returns
	// core.ErrChallengeNotFound when the challenge itself does not exist.
	GetResult(ctx context.Context, id string) (*core.Result, error)

	// Reap removes every challenge (and its result) older than ttl and
	// returns how many were removed.
	Reap(ctx context.Context, ttl time.Duration) int

	// Len returns the number of live challenges.
	Len(ctx context.Context) int
}
