package services

import (
	"sync"

	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/domain"
	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/ports/driving"
)

type trackedFlow struct {
	pending domain.PendingAuthState
	state   domain.FlowState
	outcome chan driving.FlowOutcome
}

// FlowTracker holds at most one pending login per provider and drives its
// IDLE -> AWAITING_CALLBACK -> EXCHANGING -> IDLE transitions. Every
// transition is a single critical section, so two callers can never both win.
type FlowTracker struct {
	mu            sync.Mutex
	byProvider    map[string]*trackedFlow
	byCorrelation map[string]string
}

// NewFlowTracker creates an empty FlowTracker.
func NewFlowTracker() *FlowTracker {
	return &FlowTracker{
		byProvider:    make(map[string]*trackedFlow),
		byCorrelation: make(map[string]string),
	}
}

// Begin records pending as AWAITING_CALLBACK. It fails with ErrFlowAlreadyPending,
// leaving the existing flow untouched, if the provider is not idle.
// The returned channel receives exactly one outcome when the flow finishes.
func (t *FlowTracker) Begin(pending domain.PendingAuthState) (<-chan driving.FlowOutcome, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, busy := t.byProvider[pending.ProviderID]; busy {
		return nil, domain.ErrFlowAlreadyPending
	}
	flow := &trackedFlow{
		pending: pending,
		state:   domain.FlowAwaitingCallback,
		outcome: make(chan driving.FlowOutcome, 1),
	}
	t.byProvider[pending.ProviderID] = flow
	t.byCorrelation[pending.CorrelationID] = pending.ProviderID
	return flow.outcome, nil
}

// Claim moves the flow for correlationID from AWAITING_CALLBACK to EXCHANGING
// and returns its pending state. Unknown or already-claimed ids yield ErrNoPendingFlow.
func (t *FlowTracker) Claim(correlationID string) (domain.PendingAuthState, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	flow, ok := t.flowFor(correlationID)
	if !ok || flow.state != domain.FlowAwaitingCallback {
		return domain.PendingAuthState{}, domain.ErrNoPendingFlow
	}
	flow.state = domain.FlowExchanging
	return flow.pending, nil
}

// Finish clears the flow, returning the provider to IDLE, and then publishes out.
func (t *FlowTracker) Finish(correlationID string, out driving.FlowOutcome) {
	t.mu.Lock()
	flow, ok := t.flowFor(correlationID)
	if ok {
		t.remove(flow)
	}
	t.mu.Unlock()

	if ok {
		flow.outcome <- out
	}
}

// Abandon clears a flow that is still awaiting its callback.
// It returns false if the flow is unknown or already exchanging.
func (t *FlowTracker) Abandon(correlationID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	flow, ok := t.flowFor(correlationID)
	if !ok || flow.state != domain.FlowAwaitingCallback {
		return false
	}
	t.remove(flow)
	return true
}

// State returns the provider's current flow state.
func (t *FlowTracker) State(providerID string) domain.FlowState {
	t.mu.Lock()
	defer t.mu.Unlock()
	if flow, ok := t.byProvider[providerID]; ok {
		return flow.state
	}
	return domain.FlowIdle
}

// Pending returns the provider's pending state, if any.
func (t *FlowTracker) Pending(providerID string) (domain.PendingAuthState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	flow, ok := t.byProvider[providerID]
	if !ok {
		return domain.PendingAuthState{}, false
	}
	return flow.pending, true
}

func (t *FlowTracker) flowFor(correlationID string) (*trackedFlow, bool) {
	providerID, ok := t.byCorrelation[correlationID]
	if !ok {
		return nil, false
	}
	flow, ok := t.byProvider[providerID]
	return flow, ok
}

func (t *FlowTracker) remove(flow *trackedFlow) {
	delete(t.byProvider, flow.pending.ProviderID)
	delete(t.byCorrelation, flow.pending.CorrelationID)
}
