package sheetsclient

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/model"
)

const (
	columnTime  = "Time"
	columnNotes = "Notes"
)

var teeSheetHeader = []interface{}{columnTime, "Player 1", "Player 2", "Player 3", "Player 4", "Phone", "Carts", "Booked by", "Status", columnNotes}

// TeeSheetRow is one slot of the published day
type TeeSheetRow struct {
	Slot     string
	Players  [model.MaxPlayers]string
	Phone    string
	Carts    string
	BookedBy string
	Status   string
	Notes    string
}

// TeeSheet is the starter's view of a single day
type TeeSheet struct {
	Date time.Time
	Rows []TeeSheetRow
}

// BuildTeeSheet lays out every grid slot for the day, filling booked slots from teeTimes.
// names maps member ids to display names; unknown ids are shown as "Member #<id>".
func BuildTeeSheet(date time.Time, slots []model.Slot, teeTimes []model.TeeTime, names map[int]string) *TeeSheet {
	bySlot := make(map[model.Slot]*model.TeeTime, len(teeTimes))
	for i := range teeTimes {
		bySlot[teeTimes[i].Slot()] = &teeTimes[i]
	}

	name := func(id int) string {
		if n, ok := names[id]; ok && n != "" {
			return n
		}
		return fmt.Sprintf("Member #%d", id)
	}

	sheet := &TeeSheet{Date: model.DateOnly(date), Rows: make([]TeeSheetRow, 0, len(slots))}
	for _, slot := range slots {
		row := TeeSheetRow{Slot: slot.Label()}
		if t, ok := bySlot[slot]; ok {
			row.Players[0] = name(t.MemberID)
			for i, id := range t.AdditionalMemberIDs {
				if id != 0 {
					row.Players[i+1] = name(id)
				}
			}
			row.Phone = t.Phone
			if t.Carts != nil {
				row.Carts = strconv.Itoa(*t.Carts)
			}
			row.BookedBy = t.EmployeeName
			row.Status = "Booked"
			if t.CancellationRequested {
				row.Status = "Cancellation requested"
			}
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet
}

// TabTitle returns the tab name for a day, e.g. "Tue Jul 01 2025"
func TabTitle(date time.Time) string {
	return date.Format("Mon Jan 02 2006")
}

// Values renders the header and rows, carrying over notes keyed by slot label
func (s *TeeSheet) Values(notes map[string]string) [][]interface{} {
	values := make([][]interface{}, 0, len(s.Rows)+1)
	values = append(values, teeSheetHeader)
	for _, row := range s.Rows {
		note := row.Notes
		if note == "" {
			note = notes[row.Slot]
		}
		values = append(values, []interface{}{
			row.Slot,
			row.Players[0], row.Players[1], row.Players[2], row.Players[3],
			row.Phone, row.Carts, row.BookedBy, row.Status, note,
		})
	}
	return values
}

// existingNotes reads the Notes column of a previously published tab
func existingNotes(values [][]interface{}) map[string]string {
	notes := make(map[string]string)
	if len(values) == 0 {
		return notes
	}

	timeCol := findColumnIndex(values[0], columnTime)
	notesCol := findColumnIndex(values[0], columnNotes)
	if timeCol == -1 || notesCol == -1 {
		return notes
	}

	for _, row := range values[1:] {
		if len(row) <= notesCol || len(row) <= timeCol {
			continue
		}
		slot := fmt.Sprint(row[timeCol])
		if note := fmt.Sprint(row[notesCol]); note != "" {
			notes[slot] = note
		}
	}
	return notes
}

func findColumnIndex(header []interface{}, name string) int {
	for i, cell := range header {
		if fmt.Sprint(cell) == name {
			return i
		}
	}
	return -1
}

// PublishTeeSheet writes the day to its own tab.
// An existing tab is overwritten but notes entered by staff are kept against their slot.
func (c *Client) PublishTeeSheet(ctx context.Context, spreadsheetID string, sheet *TeeSheet) error {
	title := TabTitle(sheet.Date)
	sheetRange := fmt.Sprintf("'%s'!A1:J", title)

	exists, err := c.HasSheet(ctx, spreadsheetID, title)
	if err != nil {
		return err
	}

	notes := map[string]string{}
	if exists {
		current, err := c.GetValues(ctx, spreadsheetID, sheetRange)
		if err != nil {
			return fmt.Errorf("failed to read existing tab: %w", err)
		}
		notes = existingNotes(current)

		if err := c.ClearValues(ctx, spreadsheetID, sheetRange); err != nil {
			return err
		}
	} else if _, err := c.CreateSheet(ctx, spreadsheetID, title); err != nil {
		return fmt.Errorf("failed to create tab: %w", err)
	}

	if err := c.WriteValues(ctx, spreadsheetID, fmt.Sprintf("'%s'!A1", title), sheet.Values(notes)); err != nil {
		return fmt.Errorf("failed to write tee sheet: %w", err)
	}
	return nil
}
