package teesheet

import (
	"time"

	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/model"
)

const (
	// DefaultSlotWidth is the length of every tee time
	DefaultSlotWidth = 8 * time.Minute
)

var (
	DefaultDayStart = model.Clock(6, 0)
	DefaultDayEnd   = model.Clock(20, 0)
)

// Grid describes the operating window of a business day and the slot width within it
type Grid struct {
	DayStart model.TimeOfDay
	DayEnd   model.TimeOfDay
	Width    time.Duration
}

// DefaultGrid is 06:00-20:00 in 8 minute slots (105 slots)
func DefaultGrid() Grid {
	return Grid{DayStart: DefaultDayStart, DayEnd: DefaultDayEnd, Width: DefaultSlotWidth}
}

// Generate returns the ordered slots covering [dayStart, dayEnd).
// A trailing remainder shorter than width is not a slot.
func Generate(dayStart, dayEnd model.TimeOfDay, width time.Duration) []model.Slot {
	step := int(width / time.Minute)
	if step <= 0 || dayEnd <= dayStart {
		return nil
	}

	count := (dayEnd.Minutes() - dayStart.Minutes()) / step
	slots := make([]model.Slot, 0, count)
	for i := 0; i < count; i++ {
		start := dayStart + model.TimeOfDay(i*step)
		slots = append(slots, model.Slot{Start: start, End: start + model.TimeOfDay(step)})
	}
	return slots
}

// Slots returns the grid's canonical slots
func (g Grid) Slots() []model.Slot {
	return Generate(g.DayStart, g.DayEnd, g.Width)
}

// WidthMinutes returns the slot width in whole minutes
func (g Grid) WidthMinutes() int {
	return int(g.Width / time.Minute)
}

// InOperatingWindow reports whether start lies in [DayStart, DayEnd)
func (g Grid) InOperatingWindow(start model.TimeOfDay) bool {
	return start >= g.DayStart && start < g.DayEnd
}

// IsValidInterval reports whether [start, end] is exactly one slot wide with both
// boundaries on a multiple of the slot width (minutes since midnight)
func (g Grid) IsValidInterval(start, end model.TimeOfDay) bool {
	w := g.WidthMinutes()
	if w <= 0 {
		return false
	}
	return end.Minutes()-start.Minutes() == w &&
		start.Minutes()%w == 0 &&
		end.Minutes()%w == 0
}

// IsAligned reports whether both boundaries sit on the slot grid
func (g Grid) IsAligned(start, end model.TimeOfDay) bool {
	w := g.WidthMinutes()
	return w > 0 && start.Minutes()%w == 0 && end.Minutes()%w == 0
}

// IsValidInterval checks an interval against the default 8 minute width
func IsValidInterval(start, end model.TimeOfDay) bool {
	return DefaultGrid().IsValidInterval(start, end)
}
