package sheetsclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/model"
)

func TestBuildTeeSheet(t *testing.T) {
	date := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	slots := []model.Slot{
		{Start: model.Clock(6, 0), End: model.Clock(6, 8)},
		{Start: model.Clock(6, 8), End: model.Clock(6, 16)},
	}
	carts := 2
	booked := model.TeeTime{
		ID:                    1,
		Date:                  date,
		StartTime:             model.Clock(6, 8),
		EndTime:               model.Clock(6, 16),
		MemberID:              5,
		AdditionalMemberIDs:   [3]int{0, 9, 0},
		Players:               2,
		Phone:                 "780-555-0100",
		Carts:                 &carts,
		EmployeeName:          "clerk",
		CancellationRequested: true,
	}

	sheet := BuildTeeSheet(date, slots, []model.TeeTime{booked}, map[int]string{5: "Ada Park"})

	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, TeeSheetRow{Slot: "06:00-06:08"}, sheet.Rows[0])

	row := sheet.Rows[1]
	assert.Equal(t, "06:08-06:16", row.Slot)
	assert.Equal(t, [4]string{"Ada Park", "", "Member #9", ""}, row.Players)
	assert.Equal(t, "2", row.Carts)
	assert.Equal(t, "clerk", row.BookedBy)
	assert.Equal(t, "Cancellation requested", row.Status)
}

func TestTabTitle(t *testing.T) {
	assert.Equal(t, "Tue Jul 01 2025", TabTitle(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)))
}

func TestValues_CarriesNotesBySlot(t *testing.T) {
	sheet := &TeeSheet{Rows: []TeeSheetRow{{Slot: "06:00-06:08"}, {Slot: "06:08-06:16"}}}
	previous := [][]interface{}{
		teeSheetHeader,
		{"06:08-06:16", "", "", "", "", "", "", "", "", "Shotgun start"},
		{"06:00-06:08"},
	}

	values := sheet.Values(existingNotes(previous))

	require.Len(t, values, 3)
	assert.Equal(t, teeSheetHeader, values[0])
	assert.Equal(t, "", values[1][9])
	assert.Equal(t, "Shotgun start", values[2][9])
}

func TestExistingNotes_MissingColumns(t *testing.T) {
	assert.Empty(t, existingNotes(nil))
	assert.Empty(t, existingNotes([][]interface{}{{"Date", "Team lead"}}))
}
