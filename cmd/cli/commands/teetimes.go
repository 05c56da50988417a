package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/model"
	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/teesheet"
)

// bookingFlags are shared by bookTeeTime and updateTeeTime
type bookingFlags struct {
	date     string
	start    string
	end      string
	member   int
	with     []int
	phone    string
	carts    int
	employee string
}

func (f *bookingFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.date, "date", "", "Booking date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.start, "start", "", "Slot start (HH:MM)")
	cmd.Flags().StringVar(&f.end, "end", "", "Slot end (HH:MM), defaults to start plus one slot")
	cmd.Flags().IntVar(&f.member, "member", 0, "Primary member id")
	cmd.Flags().IntSliceVar(&f.with, "with", nil, "Additional member ids (up to 3)")
	cmd.Flags().StringVar(&f.phone, "phone", "", "Contact phone")
	cmd.Flags().IntVar(&f.carts, "carts", 0, "Number of carts")
	cmd.Flags().StringVar(&f.employee, "employee", "", "Name of the employee taking the booking")
}

// apply copies every flag that was set onto req
func (f *bookingFlags) apply(cmd *cobra.Command, req *teesheet.BookingRequest, grid teesheet.Grid) error {
	changed := cmd.Flags().Changed

	if changed("date") {
		d, err := parseDate(f.date)
		if err != nil {
			return err
		}
		req.Date = d
	}
	if changed("start") {
		start, err := model.ParseTimeOfDay(f.start)
		if err != nil {
			return err
		}
		req.StartTime = start
		req.EndTime = start.Add(grid.Width)
	}
	if changed("end") {
		end, err := model.ParseTimeOfDay(f.end)
		if err != nil {
			return err
		}
		req.EndTime = end
	}
	if changed("member") {
		req.MemberID = f.member
	}
	if changed("with") {
		req.AdditionalMemberIDs = f.with
	}
	if changed("phone") {
		req.Phone = f.phone
	}
	if changed("carts") {
		carts := f.carts
		req.Carts = &carts
	}
	if changed("employee") {
		req.EmployeeName = f.employee
	}
	return nil
}

// BookTeeTimeCmd creates the bookTeeTime command
func BookTeeTimeCmd(app *AppContext) *cobra.Command {
	var flags bookingFlags
	cmd := &cobra.Command{
		Use:   "bookTeeTime",
		Short: "Book a single tee time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var req teesheet.BookingRequest
			if err := flags.apply(cmd, &req, app.Grid); err != nil {
				return err
			}

			app.Logger.Debug("bookTeeTime command",
				zap.String("date", req.Date.Format(time.DateOnly)),
				zap.Int("member_id", req.MemberID))

			result, err := app.Ledger.Create(app.Ctx, req)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Tee time booked!\n\n")
			fmt.Fprintf(cmd.OutOrStdout(), "Tee Time ID: %d\n", result.TeeTimeID)
			fmt.Fprintf(cmd.OutOrStdout(), "Score ID:    %d\n\n", result.ScoreID)
			return nil
		},
	}
	flags.register(cmd)
	cmd.MarkFlagRequired("date")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("member")
	return cmd
}

// UpdateTeeTimeCmd creates the updateTeeTime command
func UpdateTeeTimeCmd(app *AppContext) *cobra.Command {
	var flags bookingFlags
	cmd := &cobra.Command{
		Use:   "updateTeeTime <tee_time_id>",
		Short: "Change a tee time; flags that are not given keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("tee_time_id", args[0])
			if err != nil {
				return err
			}

			current, err := app.Ledger.Get(app.Ctx, id)
			if err != nil {
				return err
			}

			req := teesheet.BookingRequest{
				Date:                current.Date,
				StartTime:           current.StartTime,
				EndTime:             current.EndTime,
				MemberID:            current.MemberID,
				AdditionalMemberIDs: current.Additional(),
				Phone:               current.Phone,
				Carts:               current.Carts,
				EmployeeName:        current.EmployeeName,
			}
			if err := flags.apply(cmd, &req, app.Grid); err != nil {
				return err
			}

			updated, err := app.Ledger.Update(app.Ctx, app.Actor, id, req)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Tee time updated\n\n%s\n\n", formatTeeTime(updated))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

// JoinTeeTimeCmd creates the joinTeeTime command
func JoinTeeTimeCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "joinTeeTime <tee_time_id> <member_id>",
		Short: "Add a member to the first open position of a tee time",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("tee_time_id", args[0])
			if err != nil {
				return err
			}
			memberID, err := parseID("member_id", args[1])
			if err != nil {
				return err
			}

			joined, err := app.Ledger.Join(app.Ctx, id, memberID)
			if err != nil {
				return err
			}
			if !joined {
				fmt.Fprintf(cmd.OutOrStdout(), "Tee time %d is full\n", id)
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Member %d joined tee time %d\n", memberID, id)
			return nil
		},
	}
}

// LeaveTeeTimeCmd creates the leaveTeeTime command
func LeaveTeeTimeCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "leaveTeeTime <tee_time_id> <member_id>",
		Short: "Remove an additional member from a tee time",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("tee_time_id", args[0])
			if err != nil {
				return err
			}
			memberID, err := parseID("member_id", args[1])
			if err != nil {
				return err
			}

			left, err := app.Ledger.Leave(app.Ctx, id, memberID)
			if err != nil {
				return err
			}
			if !left {
				fmt.Fprintf(cmd.OutOrStdout(), "Member %d is not an additional player on tee time %d\n", memberID, id)
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Member %d left tee time %d\n", memberID, id)
			return nil
		},
	}
}

// teeTimeActionCmd builds the commands that apply one cancellation workflow step by id
func teeTimeActionCmd(app *AppContext, use, short, done string, action func(id int) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <tee_time_id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("tee_time_id", args[0])
			if err != nil {
				return err
			}

			app.Logger.Debug(use+" command", zap.Int("tee_time_id", id), zap.String("role", string(app.Actor.Role)))

			if err := action(id); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Tee time %d %s\n", id, done)
			return nil
		},
	}
}

// RequestCancellationCmd creates the requestCancellation command
func RequestCancellationCmd(app *AppContext) *cobra.Command {
	return teeTimeActionCmd(app, "requestCancellation", "Ask staff to cancel a tee time", "cancellation requested",
		func(id int) error { return app.Ledger.RequestCancellation(app.Ctx, id, app.Actor) })
}

// ApproveCancellationCmd creates the approveCancellation command
func ApproveCancellationCmd(app *AppContext) *cobra.Command {
	return teeTimeActionCmd(app, "approveCancellation", "Approve a pending cancellation (staff)", "removed",
		func(id int) error { return app.Ledger.ApproveCancellation(app.Ctx, id, app.Actor) })
}

// DenyCancellationCmd creates the denyCancellation command
func DenyCancellationCmd(app *AppContext) *cobra.Command {
	return teeTimeActionCmd(app, "denyCancellation", "Deny a pending cancellation (staff)", "kept",
		func(id int) error { return app.Ledger.DenyCancellation(app.Ctx, id, app.Actor) })
}

// DeleteTeeTimeCmd creates the deleteTeeTime command
func DeleteTeeTimeCmd(app *AppContext) *cobra.Command {
	return teeTimeActionCmd(app, "deleteTeeTime", "Delete a tee time with its players and score (staff)", "deleted",
		func(id int) error { return app.Ledger.Delete(app.Ctx, id, app.Actor) })
}

// ListTeeTimesCmd creates the listTeeTimes command
func ListTeeTimesCmd(app *AppContext) *cobra.Command {
	var (
		date          string
		member        int
		joinable      bool
		cancellations bool
	)

	cmd := &cobra.Command{
		Use:   "listTeeTimes",
		Short: "List tee times by date, by member, joinable ones, or those awaiting cancellation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				teeTimes []model.TeeTime
				err      error
			)

			switch {
			case date != "":
				d, perr := parseDate(date)
				if perr != nil {
					return perr
				}
				teeTimes, err = app.Ledger.ListByDate(app.Ctx, d)
			case member != 0:
				teeTimes, err = app.Ledger.ListByMember(app.Ctx, member)
			case joinable:
				teeTimes, err = app.Ledger.ListJoinable(app.Ctx)
			case cancellations:
				teeTimes, err = app.Ledger.ListCancellationRequests(app.Ctx)
			default:
				return fmt.Errorf("one of --date, --member, --joinable or --cancellations is required")
			}
			if err != nil {
				return err
			}

			if len(teeTimes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tee times found")
				return nil
			}
			for i := range teeTimes {
				fmt.Fprintln(cmd.OutOrStdout(), formatTeeTime(&teeTimes[i]))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Tee times on a date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&member, "member", 0, "Tee times a member plays in")
	cmd.Flags().BoolVar(&joinable, "joinable", false, "Upcoming tee times with open positions")
	cmd.Flags().BoolVar(&cancellations, "cancellations", false, "Tee times awaiting a cancellation decision")
	cmd.MarkFlagsMutuallyExclusive("date", "member", "joinable", "cancellations")
	return cmd
}

// PlayersCmd creates the players command
func PlayersCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "players <tee_time_id>",
		Short: "Show who is playing in a tee time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("tee_time_id", args[0])
			if err != nil {
				return err
			}

			players, err := app.Ledger.PlayerNames(app.Ctx, id, app.Actor)
			if err != nil {
				return err
			}

			for _, p := range players {
				label := "Player"
				if p.Position == 0 {
					label = "Booked by"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %-9s %s\n", label, p.Name)
			}
			return nil
		},
	}
}

// AvailableSlotsCmd creates the availableSlots command
func AvailableSlotsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "availableSlots <date>",
		Short: "List the open slots of a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDate(args[0])
			if err != nil {
				return err
			}

			slots, err := app.Availability.OpenSlots(app.Ctx, date)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n%d open slots on %s\n\n", len(slots), date.Format("Mon Jan 02 2006"))
			for _, slot := range slots {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", slot.Label())
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
}
