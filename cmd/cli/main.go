package main

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TravisESimmons/GolfClubBAIST/cmd/cli/commands"
	"github.com/TravisESimmons/GolfClubBAIST/internal/config"
	"github.com/TravisESimmons/GolfClubBAIST/pkg/cache"
	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/model"
	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/services"
	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/teesheet"
	"github.com/TravisESimmons/GolfClubBAIST/pkg/events"
	"github.com/TravisESimmons/GolfClubBAIST/pkg/postgres"
	"github.com/TravisESimmons/GolfClubBAIST/pkg/utils/logging"
)

var (
	env       string
	actorID   int
	actorRole string
	actorName string

	app         = &commands.AppContext{}
	redisClient *redis.Client
	publisher   *events.Publisher
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "teesheet",
		Short: "Golf club tee sheet - book tee times and manage standing requests",
		Long:  `A CLI for booking tee times, handling cancellations, and approving standing weekly requests.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			closeApp()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")
	rootCmd.PersistentFlags().IntVar(&actorID, "as", 0, "Member id of the person running the command")
	rootCmd.PersistentFlags().StringVar(&actorRole, "role", string(model.RoleMember), "Role of the person running the command (member, committee, shopclerk, employee, admin)")
	rootCmd.PersistentFlags().StringVar(&actorName, "name", "", "Name recorded as approver")

	rootCmd.AddCommand(
		commands.BookTeeTimeCmd(app),
		commands.UpdateTeeTimeCmd(app),
		commands.JoinTeeTimeCmd(app),
		commands.LeaveTeeTimeCmd(app),
		commands.RequestCancellationCmd(app),
		commands.ApproveCancellationCmd(app),
		commands.DenyCancellationCmd(app),
		commands.DeleteTeeTimeCmd(app),
		commands.ListTeeTimesCmd(app),
		commands.PlayersCmd(app),
		commands.AvailableSlotsCmd(app),
		commands.RequestStandingCmd(app),
		commands.ApproveStandingCmd(app),
		commands.DenyStandingCmd(app),
		commands.RequestStandingCancellationCmd(app),
		commands.ApproveStandingCancellationCmd(app),
		commands.DenyStandingCancellationCmd(app),
		commands.DeleteStandingCmd(app),
		commands.ListStandingCmd(app),
		commands.StandingDatesCmd(app),
		commands.ServeCmd(app),
		commands.MigrateCmd(app),
		commands.PublishTeeSheetCmd(app),
	)

	if err := rootCmd.Execute(); err != nil {
		closeApp()
		os.Exit(1)
	}
}

// initApp sets up logger, config, database, optional cache and event publisher, and the services
func initApp() error {
	var err error
	app.Env = env
	app.Ctx = context.Background()
	app.Actor = model.Actor{MemberID: actorID, Role: model.ParseRole(actorRole), Name: actorName}

	app.Logger, err = logging.InitLogger(env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application", zap.String("environment", env))

	app.Logger.Info("Loading configuration")
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Grid, err = app.Cfg.Grid()
	if err != nil {
		return err
	}
	app.Logger.Debug("Configuration loaded successfully",
		zap.String("day_start", app.Grid.DayStart.String()),
		zap.String("day_end", app.Grid.DayEnd.String()),
		zap.Duration("slot_width", app.Grid.Width))

	app.Logger.Info("Connecting to database")
	app.Database, err = postgres.NewDB(app.Ctx, app.Cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.Logger.Debug("Database connected")

	var slotCache services.SlotCache
	if r := app.Cfg.Redis; r != nil {
		app.Logger.Info("Connecting to redis", zap.String("addr", r.Addr))
		redisClient, err = cache.NewRedisClient(app.Ctx, r.Addr, r.Password, r.DB)
		if err != nil {
			return err
		}
		slotCache = cache.NewAvailabilityCache(redisClient, r.CacheTTL)
	}

	var eventPublisher services.EventPublisher
	if a := app.Cfg.AMQP; a != nil {
		app.Logger.Info("Connecting to rabbitmq", zap.String("exchange", a.Exchange))
		publisher, err = events.NewPublisher(a.URL, a.Exchange)
		if err != nil {
			return err
		}
		eventPublisher = publisher
	}

	policy := teesheet.DefaultAccessPolicy()
	validator := teesheet.NewValidator(app.Grid, policy, app.Database, nil)
	app.Availability = services.NewAvailabilityIndex(app.Database, app.Grid, slotCache, app.Logger)
	app.Ledger = services.NewBookingLedger(app.Database, app.Database, validator, app.Availability, eventPublisher, app.Logger, nil)
	app.Standing = services.NewStandingRequestEngine(
		app.Database,
		app.Database,
		services.ConstantPriority{Value: app.Cfg.StandingPriority},
		eventPublisher,
		app.Logger,
		nil,
	)

	app.Logger.Info("Application initialized", zap.String("role", string(app.Actor.Role)), zap.Int("actor_id", app.Actor.MemberID))
	return nil
}

func closeApp() {
	if publisher != nil {
		publisher.Close()
		publisher = nil
	}
	if redisClient != nil {
		redisClient.Close()
		redisClient = nil
	}
	if app.Database != nil {
		app.Database.Close()
		app.Database = nil
	}
	if app.Logger != nil {
		app.Logger.Sync()
	}
}
