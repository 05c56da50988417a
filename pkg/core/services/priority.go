package services

import (
	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/model"
)

// PriorityStrategy assigns the tie-break priority of a validated standing request.
// Lower numbers are served first when requests compete for the same time.
type PriorityStrategy interface {
	// Name identifies the strategy in logs
	Name() string

	// AssignPriority returns the priority number for req
	AssignPriority(req *model.StandingRequest) int
}

// ConstantPriority gives every request the same priority
type ConstantPriority struct {
	Value int
}

func (c ConstantPriority) Name() string {
	return "constant"
}

func (c ConstantPriority) AssignPriority(*model.StandingRequest) int {
	return c.Value
}

// PriorityFunc adapts a function to PriorityStrategy
type PriorityFunc struct {
	Label string
	Fn    func(req *model.StandingRequest) int
}

func (p PriorityFunc) Name() string {
	return p.Label
}

func (p PriorityFunc) AssignPriority(req *model.StandingRequest) int {
	return p.Fn(req)
}

// EarliestStartPriority ranks earlier requested tee-off times ahead of later ones,
// counting 8 minute slots from Base
type EarliestStartPriority struct {
	Base model.TimeOfDay
}

func (e EarliestStartPriority) Name() string {
	return "earliest-start"
}

func (e EarliestStartPriority) AssignPriority(req *model.StandingRequest) int {
	offset := req.RequestedStartTime.Minutes() - e.Base.Minutes()
	if offset < 0 {
		return 1
	}
	return 1 + offset/8
}
