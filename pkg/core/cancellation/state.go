// Package cancellation holds the lifecycle shared by tee times and standing requests
package cancellation

import (
	"fmt"

	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/model"
)

type State string

const (
	// Pending is the initial state of a standing request awaiting approval
	Pending               State = "pending"
	Active                State = "active"
	CancellationRequested State = "cancellation-requested"
	// Removed is terminal; the record no longer exists in the store
	Removed State = "removed"
)

type Event string

const (
	Approve       Event = "approve"
	Deny          Event = "deny"
	Request       Event = "request-cancellation"
	ApproveCancel Event = "approve-cancellation"
	DenyCancel    Event = "deny-cancellation"
	StaffDelete   Event = "delete"
)

var transitions = map[State]map[Event]State{
	Pending: {
		Approve: Active,
		Deny:    Removed,
	},
	Active: {
		Request:     CancellationRequested,
		StaffDelete: Removed,
	},
	CancellationRequested: {
		// Repeating a request leaves the flag set
		Request:       CancellationRequested,
		ApproveCancel: Removed,
		DenyCancel:    Active,
		StaffDelete:   Removed,
	},
}

// Next returns the state reached by applying event in from, or model.ErrInvalidTransition
func Next(from State, event Event) (State, error) {
	if to, ok := transitions[from][event]; ok {
		return to, nil
	}
	return from, fmt.Errorf("%w: cannot %s when %s", model.ErrInvalidTransition, event, from)
}

// Can reports whether event is allowed in from
func Can(from State, event Event) bool {
	_, ok := transitions[from][event]
	return ok
}

// OfTeeTime derives the state of a stored tee time
func OfTeeTime(t *model.TeeTime) State {
	if t.CancellationRequested {
		return CancellationRequested
	}
	return Active
}

// OfStandingRequest derives the state of a stored standing request
func OfStandingRequest(r *model.StandingRequest) State {
	switch {
	case !r.IsApproved():
		return Pending
	case r.CancellationRequested:
		return CancellationRequested
	default:
		return Active
	}
}
