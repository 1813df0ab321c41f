package services

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/domain"
	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/ports/driving"
)

func pendingFor(providerID, correlationID string) domain.PendingAuthState {
	return domain.PendingAuthState{
		CorrelationID: correlationID,
		ProviderID:    providerID,
		State:         "state-" + correlationID,
		ResponseType:  domain.ResponseTypeCode,
	}
}

func TestFlowTracker_Lifecycle(t *testing.T) {
	tracker := NewFlowTracker()
	assert.Equal(t, domain.FlowIdle, tracker.State("google"))

	outcome, err := tracker.Begin(pendingFor("google", "c1"))
	require.NoError(t, err)
	assert.Equal(t, domain.FlowAwaitingCallback, tracker.State("google"))

	pending, err := tracker.Claim("c1")
	require.NoError(t, err)
	assert.Equal(t, "state-c1", pending.State)
	assert.Equal(t, domain.FlowExchanging, tracker.State("google"))

	tracker.Finish("c1", driving.FlowOutcome{Err: errors.New("done")})
	assert.Equal(t, domain.FlowIdle, tracker.State("google"))

	out := <-outcome
	assert.EqualError(t, out.Err, "done")

	_, ok := tracker.Pending("google")
	assert.False(t, ok)
}

func TestFlowTracker_BeginWhilePending(t *testing.T) {
	tracker := NewFlowTracker()
	_, err := tracker.Begin(pendingFor("google", "c1"))
	require.NoError(t, err)

	_, err = tracker.Begin(pendingFor("google", "c2"))
	require.ErrorIs(t, err, domain.ErrFlowAlreadyPending)

	// The original flow is untouched.
	pending, ok := tracker.Pending("google")
	require.True(t, ok)
	assert.Equal(t, "c1", pending.CorrelationID)

	// Other providers are independent.
	_, err = tracker.Begin(pendingFor("github", "c3"))
	assert.NoError(t, err)
}

func TestFlowTracker_BeginWhileExchanging(t *testing.T) {
	tracker := NewFlowTracker()
	_, err := tracker.Begin(pendingFor("google", "c1"))
	require.NoError(t, err)
	_, err = tracker.Claim("c1")
	require.NoError(t, err)

	_, err = tracker.Begin(pendingFor("google", "c2"))
	assert.ErrorIs(t, err, domain.ErrFlowAlreadyPending)
}

func TestFlowTracker_StrayCallbacks(t *testing.T) {
	tracker := NewFlowTracker()

	_, err := tracker.Claim("unknown")
	assert.ErrorIs(t, err, domain.ErrNoPendingFlow)

	_, err = tracker.Begin(pendingFor("google", "c1"))
	require.NoError(t, err)
	_, err = tracker.Claim("c1")
	require.NoError(t, err)

	// A duplicate callback for a flow already exchanging is stray.
	_, err = tracker.Claim("c1")
	assert.ErrorIs(t, err, domain.ErrNoPendingFlow)
	assert.Equal(t, domain.FlowExchanging, tracker.State("google"))
}

func TestFlowTracker_ConcurrentClaimSingleWinner(t *testing.T) {
	tracker := NewFlowTracker()
	_, err := tracker.Begin(pendingFor("google", "c1"))
	require.NoError(t, err)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := tracker.Claim("c1"); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestFlowTracker_ConcurrentBeginSingleWinner(t *testing.T) {
	tracker := NewFlowTracker()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := pendingFor("google", string(rune('a'+i)))
			if _, err := tracker.Begin(p); err == nil {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestFlowTracker_Abandon(t *testing.T) {
	tracker := NewFlowTracker()
	_, err := tracker.Begin(pendingFor("google", "c1"))
	require.NoError(t, err)

	assert.True(t, tracker.Abandon("c1"))
	assert.Equal(t, domain.FlowIdle, tracker.State("google"))
	assert.False(t, tracker.Abandon("c1"))

	// A late callback after abandonment is stray.
	_, err = tracker.Claim("c1")
	assert.ErrorIs(t, err, domain.ErrNoPendingFlow)

	// An exchanging flow cannot be abandoned.
	_, err = tracker.Begin(pendingFor("google", "c2"))
	require.NoError(t, err)
	_, err = tracker.Claim("c2")
	require.NoError(t, err)
	assert.False(t, tracker.Abandon("c2"))
}

func TestFlowTracker_FinishUnknownIsNoop(t *testing.T) {
	tracker := NewFlowTracker()
	assert.NotPanics(t, func() {
		tracker.Finish("missing", driving.FlowOutcome{})
	})
}
