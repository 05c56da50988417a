package teesheet

import (
	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/model"
)

// Window is a closed interval of the day; both boundaries are bookable
type Window struct {
	From model.TimeOfDay
	To   model.TimeOfDay
}

// Contains reports whether t lies in [From, To]
func (w Window) Contains(t model.TimeOfDay) bool {
	return t >= w.From && t <= w.To
}

var (
	startOfDay = model.Clock(0, 0)
	endOfDay   = model.Clock(24, 0)
)

// AccessPolicy maps tier classes to the windows in which they may book.
// A class with no windows may never book.
type AccessPolicy struct {
	windows map[model.TierClass][]Window
}

// NewAccessPolicy builds a policy from an explicit class table
func NewAccessPolicy(windows map[model.TierClass][]Window) *AccessPolicy {
	copied := make(map[model.TierClass][]Window, len(windows))
	for class, ws := range windows {
		copied[class] = append([]Window(nil), ws...)
	}
	return &AccessPolicy{windows: copied}
}

// DefaultAccessPolicy is the club's canonical tier table
func DefaultAccessPolicy() *AccessPolicy {
	return NewAccessPolicy(map[model.TierClass][]Window{
		model.TierClassGold: {
			{From: startOfDay, To: endOfDay},
		},
		model.TierClassSilver: {
			{From: startOfDay, To: model.Clock(15, 0)},
			{From: model.Clock(17, 30), To: endOfDay},
		},
		model.TierClassBronze: {
			{From: startOfDay, To: model.Clock(15, 0)},
			{From: model.Clock(18, 0), To: endOfDay},
		},
		model.TierClassSocial: nil,
	})
}

// IsAllowed reports whether a member of tier may tee off at t
func (p *AccessPolicy) IsAllowed(tier model.Tier, t model.TimeOfDay) bool {
	for _, w := range p.windows[tier.Class()] {
		if w.Contains(t) {
			return true
		}
	}
	return false
}

// Windows returns the windows for tier in table order
func (p *AccessPolicy) Windows(tier model.Tier) []Window {
	return append([]Window(nil), p.windows[tier.Class()]...)
}
