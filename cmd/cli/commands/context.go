package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/TravisESimmons/GolfClubBAIST/internal/config"
	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/model"
	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/services"
	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/teesheet"
	"github.com/TravisESimmons/GolfClubBAIST/pkg/postgres"
)

// AppContext holds the application dependencies shared across all commands.
// main fills it in before any RunE executes.
type AppContext struct {
	Env          string
	Cfg          *config.Config
	Database     *postgres.DB
	Ledger       *services.BookingLedger
	Standing     *services.StandingRequestEngine
	Availability *services.AvailabilityIndex
	Grid         teesheet.Grid
	Actor        model.Actor
	Logger       *zap.Logger
	Ctx          context.Context
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD, got %q", s)
	}
	return d, nil
}

func parseID(name, s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%s must be a positive integer, got: %s", name, s)
	}
	return id, nil
}

func formatTeeTime(t *model.TeeTime) string {
	status := ""
	if t.CancellationRequested {
		status = "  [cancellation requested]"
	}
	return fmt.Sprintf("#%-5d %s %s  member %-5d players %d/%d%s",
		t.ID, t.Date.Format(time.DateOnly), t.Slot().Label(), t.MemberID, t.Players, model.MaxPlayers, status)
}

func formatStanding(r *model.StandingRequest) string {
	status := "pending"
	if r.IsApproved() {
		status = "approved by " + r.ApprovedBy
	}
	if r.CancellationRequested {
		status += ", cancellation requested"
	}
	return fmt.Sprintf("#%-5d %-9s %s-%s  %s to %s  member %-5d priority %d  (%s)",
		r.ID, r.DayOfWeek, r.RequestedStartTime, r.RequestedEndTime,
		r.StartDate.Format(time.DateOnly), r.EndDate.Format(time.DateOnly),
		r.MemberID, r.PriorityNumber, status)
}
