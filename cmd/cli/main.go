package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dockbook/cmd/cli/commands"
	"dockbook/internal/config"
	"dockbook/pkg/cache"
	"dockbook/pkg/core/admission"
	"dockbook/pkg/core/availability"
	"dockbook/pkg/core/docks"
	"dockbook/pkg/core/rules"
	"dockbook/pkg/core/schedule"
	"dockbook/pkg/core/services"
	"dockbook/pkg/postgres"
	"dockbook/pkg/utils/logging"
)

var (
	configPath string
	verbose    bool
	app        *commands.AppContext
)

func main() {
	// .env is optional; environment variables win when both are set
	godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "dockbook",
		Short: "Dockbook CLI - book warehouse dock appointments",
		Long:  `A CLI for managing dock appointment slots, docks and bookings against a shared warehouse schedule.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil {
				if app.Database != nil {
					app.Database.Close()
				}
				if app.Logger != nil {
					app.Logger.Sync()
				}
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file (defaults + env vars when omitted)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging on the console")

	rootCmd.AddCommand(commands.MigrateCmd(appRef))
	rootCmd.AddCommand(commands.SlotsCmd(appRef))
	rootCmd.AddCommand(commands.DocksCmd(appRef))
	rootCmd.AddCommand(commands.UsageCmd(appRef))
	rootCmd.AddCommand(commands.AdmitCmd(appRef))
	rootCmd.AddCommand(commands.CancelCmd(appRef))
	rootCmd.AddCommand(commands.AvailabilityCmd(appRef))
	rootCmd.AddCommand(commands.EvaluateCmd(appRef))
	rootCmd.AddCommand(commands.RankCmd(appRef))
	rootCmd.AddCommand(commands.AdminCmd(appRef))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// appRef defers dependency access until PersistentPreRunE has run.
func appRef() *commands.AppContext {
	return app
}

// initApp loads config, connects the database and wires the core
// components together.
func initApp() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.Init(cfg.Env, verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("Starting dockbook", zap.String("env", cfg.Env))

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	ctx := context.Background()
	database, err := postgres.NewDB(ctx, cfg.DatabaseURL, cfg.ConflictRetries)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	closures, err := schedule.ParseClosures(cfg.ClosureRules)
	if err != nil {
		return fmt.Errorf("failed to parse closure rules: %w", err)
	}

	scheduleCache := cache.New[string, []schedule.EffectiveSlot](time.Duration(cfg.ScheduleCacheTTLSeconds) * time.Second)
	settingsCache := cache.New[string, int](time.Duration(cfg.SettingsCacheTTLSeconds) * time.Second)

	store := &database.Store
	avail := docks.NewAvailability(store, nil, logger)
	resolver := schedule.NewResolver(store, avail, scheduleCache, closures, loc, logger)
	avail.BindSlots(resolver)

	settings := services.NewSettings(store, settingsCache, cfg.DefaultBufferMinutes, logger)
	engine := admission.NewEngine(database, settings, closures, loc, logger)
	search := availability.NewSearch(resolver, avail, store, loc, logger)

	app = &commands.AppContext{
		Cfg:          cfg,
		Database:     database,
		Resolver:     resolver,
		Docks:        avail,
		Settings:     settings,
		Admin:        services.NewAdmin(store, scheduleCache, logger),
		Appointments: services.NewAppointments(store, logger),
		Engine:       engine,
		Planner:      admission.NewPlanner(engine, search, cfg.CandidateRetries, loc, logger),
		Search:       search,
		Evaluator:    rules.NewEvaluator(cfg.Rules, store, logger),
		Loc:          loc,
		Logger:       logger,
		Ctx:          ctx,
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromPath(configPath)
	}

	cfg := config.Default()
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("set DATABASE_URL or pass --config: %w", err)
	}
	return cfg, nil
}
