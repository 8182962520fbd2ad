package verusconnect

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fried333/verus-connect/core"
)

func scriptedResults(responses ...*core.PollResponse) GetResultFunc {
	var calls int32
	return func(ctx context.Context, challengeID string) (*core.PollResponse, error) {
		n := atomic.AddInt32(&calls, 1)
		if int(n) > len(responses) {
			return responses[len(responses)-1], nil
		}
		return responses[n-1], nil
	}
}

func TestPoll_ResolvesOnVerified(t *testing.T) {
	verified := &core.PollResponse{Status: core.StatusVerified, IAddress: "iSigner"}
	getResult := scriptedResults(
		&core.PollResponse{Status: core.StatusPending},
		&core.PollResponse{Status: core.StatusPending},
		verified,
	)

	start := time.Now()
	resp, err := Poll(context.Background(), getResult, "iChallenge", 50*time.Millisecond, time.Second)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, verified, resp)
	// Verified on the third tick: not before t=100ms, and well before the
	// fourth tick.
	assert.GreaterOrEqual(t, elapsed, 90*time.Millisecond)
	assert.Less(t, elapsed, 200*time.Millisecond)
}

func TestPoll_Timeout(t *testing.T) {
	getResult := scriptedResults(&core.PollResponse{Status: core.StatusPending})

	start := time.Now()
	_, err := Poll(context.Background(), getResult, "iChallenge", 50*time.Millisecond, 120*time.Millisecond)
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, ErrPollTimeout)
	assert.GreaterOrEqual(t, elapsed, 120*time.Millisecond)
	assert.Less(t, elapsed, 250*time.Millisecond)
}

func TestPoll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	getResult := scriptedResults(&core.PollResponse{Status: core.StatusPending})

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := Poll(ctx, getResult, "iChallenge", 50*time.Millisecond, time.Second)
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, ErrCancelled)
	// Cancellation must not wait for the next scheduled tick
	assert.Less(t, elapsed, 50*time.Millisecond)
}

func TestPoll_CancelledBeforeFirstTick(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	_, err := Poll(ctx, func(ctx context.Context, id string) (*core.PollResponse, error) {
		called = true
		return nil, nil
	}, "iChallenge", 50*time.Millisecond, time.Second)

	assert.ErrorIs(t, err, ErrCancelled)
	assert.False(t, called, "no query may fire after cancellation")
}

func TestPoll_TerminalBackendFailure(t *testing.T) {
	getResult := scriptedResults(&core.PollResponse{Status: core.StatusError, Error: "identity revoked"})

	_, err := Poll(context.Background(), getResult, "iChallenge", 50*time.Millisecond, time.Second)
	assert.ErrorIs(t, err, ErrLoginFailed)
	assert.Contains(t, err.Error(), "identity revoked")
}

func TestPoll_TransportErrorsAreSwallowed(t *testing.T) {
	var calls int32
	getResult := func(ctx context.Context, id string) (*core.PollResponse, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return nil, errors.New("connection refused")
		}
		return &core.PollResponse{Status: core.StatusVerified, IAddress: "iSigner"}, nil
	}

	resp, err := Poll(context.Background(), getResult, "iChallenge", 20*time.Millisecond, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "iSigner", resp.IAddress)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}
