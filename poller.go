package verusconnect

import (
	"context"
	"fmt"
	"time"

	"github.com/Fried333/verus-connect/core"
)

const (
	// DefaultPollInterval is the pause between result queries
	DefaultPollInterval = 3 * time.Second

	// DefaultPollTimeout is how long polling keeps going before giving up
	DefaultPollTimeout = 5 * time.Minute
)

// GetResultFunc queries the backend for the current poll outcome of a
// challenge.
type GetResultFunc func(ctx context.Context, challengeID string) (*core.PollResponse, error)

// Poll queries getResult for the challenge until it resolves.
//
// The first query fires immediately, then one per interval with no
// overlapping queries. Transport errors on individual queries are swallowed
// and treated as pending: transient backend unavailability must not abort
// an otherwise-successful login. The loop ends with the verified response,
// ErrLoginFailed on a terminal backend failure, ErrPollTimeout once the
// wall-clock deadline passes (checked at the top of each tick), or
// ErrCancelled as soon as ctx is done.
func Poll(ctx context.Context, getResult GetResultFunc, challengeID string, interval, timeout time.Duration) (*core.PollResponse, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if timeout <= 0 {
		timeout = DefaultPollTimeout
	}

	if err := ctx.Err(); err != nil {
		return nil, ErrCancelled
	}

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if time.Now().After(deadline) {
			return nil, ErrPollTimeout
		}

		resp, err := getResult(ctx, challengeID)
		if err == nil {
			switch resp.Status {
			case core.StatusVerified:
				return resp, nil
			case core.StatusError:
				reason := resp.Error
				if reason == "" {
					reason = "challenge failed"
				}
				return nil, fmt.Errorf("%w: %s", ErrLoginFailed, reason)
			}
			// pending: keep polling
		} else if ctx.Err() != nil {
			return nil, ErrCancelled
		}

		select {
		case <-ctx.Done():
			return nil, ErrCancelled
		case <-ticker.C:
		}
	}
}
