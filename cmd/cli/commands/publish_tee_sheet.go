package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TravisESimmons/GolfClubBAIST/internal/config"
	"github.com/TravisESimmons/GolfClubBAIST/pkg/clients/sheetsclient"
)

// PublishTeeSheetCmd creates the publishTeeSheet command
func PublishTeeSheetCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "publishTeeSheet <date>",
		Short: "Write a day's tee sheet to the configured Google spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDate(args[0])
			if err != nil {
				return err
			}
			if app.Cfg.TeeSheetID == "" {
				return fmt.Errorf("teeSheetID is not set in the config file")
			}

			teeTimes, err := app.Ledger.ListByDate(app.Ctx, date)
			if err != nil {
				return err
			}

			var ids []int
			for i := range teeTimes {
				ids = append(ids, teeTimes[i].PlayerIDs()...)
			}
			names, err := app.Ledger.MemberNames(app.Ctx, ids)
			if err != nil {
				return err
			}

			sheet := sheetsclient.BuildTeeSheet(date, app.Grid.Slots(), teeTimes, names)

			app.Logger.Info("Loading OAuth client configuration")
			oauthCfg, err := config.LoadOAuthClientWithEnv(app.Env)
			if err != nil {
				return fmt.Errorf("failed to load OAuth client config: %w", err)
			}

			client, err := sheetsclient.NewClient(app.Ctx, oauthCfg, app.Env, app.Logger)
			if err != nil {
				return fmt.Errorf("failed to create sheets client: %w", err)
			}

			if err := client.PublishTeeSheet(app.Ctx, app.Cfg.TeeSheetID, sheet); err != nil {
				return err
			}

			app.Logger.Info("Tee sheet published",
				zap.String("tab", sheetsclient.TabTitle(date)),
				zap.Int("tee_times", len(teeTimes)))
			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Published %d tee times to tab %q\n\n", len(teeTimes), sheetsclient.TabTitle(date))
			return nil
		},
	}
}
