package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/model"
	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/services"
)

// RequestStandingCmd creates the requestStanding command
func RequestStandingCmd(app *AppContext) *cobra.Command {
	var (
		member    int
		day       string
		start     string
		end       string
		startDate string
		endDate   string
		with      []int
	)

	cmd := &cobra.Command{
		Use:   "requestStanding",
		Short: "Request a weekly standing tee time for a foursome",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := services.StandingRequestInput{
				MemberID:            member,
				DayOfWeek:           day,
				AdditionalPlayerIDs: with,
			}

			var err error
			if in.RequestedStartTime, err = model.ParseTimeOfDay(start); err != nil {
				return err
			}
			if end == "" {
				in.RequestedEndTime = in.RequestedStartTime.Add(app.Grid.Width)
			} else if in.RequestedEndTime, err = model.ParseTimeOfDay(end); err != nil {
				return err
			}
			if in.StartDate, err = parseDate(startDate); err != nil {
				return err
			}
			if in.EndDate, err = parseDate(endDate); err != nil {
				return err
			}

			app.Logger.Debug("requestStanding command", zap.Int("member_id", member), zap.String("day_of_week", day))

			req, err := app.Standing.Create(app.Ctx, app.Actor, in)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Standing request submitted for approval\n\n%s\n\n", formatStanding(req))
			return nil
		},
	}

	cmd.Flags().IntVar(&member, "member", 0, "Requesting shareholder id")
	cmd.Flags().StringVar(&day, "day", "", "Day of week; must match --start-date when given")
	cmd.Flags().StringVar(&start, "start", "", "Requested start time (HH:MM)")
	cmd.Flags().StringVar(&end, "end", "", "Requested end time (HH:MM), defaults to start plus one slot")
	cmd.Flags().StringVar(&startDate, "start-date", "", "First date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end-date", "", "Last date (YYYY-MM-DD)")
	cmd.Flags().IntSliceVar(&with, "with", nil, "The three other players' member ids")
	for _, name := range []string{"member", "start", "start-date", "end-date", "with"} {
		cmd.MarkFlagRequired(name)
	}
	return cmd
}

// ApproveStandingCmd creates the approveStanding command
func ApproveStandingCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "approveStanding <request_id>",
		Short: "Approve a pending standing request (staff)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("request_id", args[0])
			if err != nil {
				return err
			}

			req, err := app.Standing.Approve(app.Ctx, id, app.Actor)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Standing request approved\n\n%s\n", formatStanding(req))
			return nil
		},
	}
}

func standingActionCmd(app *AppContext, use, short, done string, action func(id int) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <request_id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("request_id", args[0])
			if err != nil {
				return err
			}

			app.Logger.Debug(use+" command", zap.Int("standing_request_id", id), zap.String("role", string(app.Actor.Role)))

			if err := action(id); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Standing request %d %s\n", id, done)
			return nil
		},
	}
}

// DenyStandingCmd creates the denyStanding command
func DenyStandingCmd(app *AppContext) *cobra.Command {
	return standingActionCmd(app, "denyStanding", "Deny a pending standing request (staff)", "denied",
		func(id int) error { return app.Standing.Deny(app.Ctx, id, app.Actor) })
}

// RequestStandingCancellationCmd creates the requestStandingCancellation command
func RequestStandingCancellationCmd(app *AppContext) *cobra.Command {
	return standingActionCmd(app, "requestStandingCancellation", "Ask staff to cancel an approved standing request", "cancellation requested",
		func(id int) error { return app.Standing.RequestCancellation(app.Ctx, id, app.Actor) })
}

// ApproveStandingCancellationCmd creates the approveStandingCancellation command
func ApproveStandingCancellationCmd(app *AppContext) *cobra.Command {
	return standingActionCmd(app, "approveStandingCancellation", "Approve a standing cancellation (staff)", "removed",
		func(id int) error { return app.Standing.ApproveCancellation(app.Ctx, id, app.Actor) })
}

// DenyStandingCancellationCmd creates the denyStandingCancellation command
func DenyStandingCancellationCmd(app *AppContext) *cobra.Command {
	return standingActionCmd(app, "denyStandingCancellation", "Deny a standing cancellation (staff)", "kept",
		func(id int) error { return app.Standing.DenyCancellation(app.Ctx, id, app.Actor) })
}

// DeleteStandingCmd creates the deleteStanding command
func DeleteStandingCmd(app *AppContext) *cobra.Command {
	return standingActionCmd(app, "deleteStanding", "Delete a standing request (staff)", "deleted",
		func(id int) error { return app.Standing.Delete(app.Ctx, id, app.Actor) })
}

// ListStandingCmd creates the listStanding command
func ListStandingCmd(app *AppContext) *cobra.Command {
	var (
		member        int
		pending       bool
		cancellations bool
	)

	cmd := &cobra.Command{
		Use:   "listStanding",
		Short: "List standing requests by member, pending approval, or awaiting cancellation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				reqs []model.StandingRequest
				err  error
			)

			switch {
			case member != 0:
				reqs, err = app.Standing.ListByMember(app.Ctx, member)
			case pending:
				reqs, err = app.Standing.ListPending(app.Ctx)
			case cancellations:
				reqs, err = app.Standing.ListCancellationRequests(app.Ctx)
			default:
				return fmt.Errorf("one of --member, --pending or --cancellations is required")
			}
			if err != nil {
				return err
			}

			if len(reqs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No standing requests found")
				return nil
			}
			for i := range reqs {
				fmt.Fprintln(cmd.OutOrStdout(), formatStanding(&reqs[i]))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&member, "member", 0, "Requests made by a member")
	cmd.Flags().BoolVar(&pending, "pending", false, "Requests awaiting approval")
	cmd.Flags().BoolVar(&cancellations, "cancellations", false, "Approved requests awaiting a cancellation decision")
	cmd.MarkFlagsMutuallyExclusive("member", "pending", "cancellations")
	return cmd
}

// StandingDatesCmd creates the standingDates command
func StandingDatesCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "standingDates <request_id>",
		Short: "List the dates a standing request covers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("request_id", args[0])
			if err != nil {
				return err
			}

			req, err := app.Standing.Get(app.Ctx, id)
			if err != nil {
				return err
			}

			dates, err := services.Occurrences(req)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n%s at %s (%d dates)\n\n", req.DayOfWeek, req.EffectiveTime(), len(dates))
			for i, d := range dates {
				fmt.Fprintf(cmd.OutOrStdout(), "  %2d. %s\n", i+1, d.Format("2006-01-02 (Monday)"))
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
}
