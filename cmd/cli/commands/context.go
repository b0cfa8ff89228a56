package commands

import (
	"context"
	"time"

	"go.uber.org/zap"

	"dockbook/internal/config"
	"dockbook/pkg/core/admission"
	"dockbook/pkg/core/availability"
	"dockbook/pkg/core/docks"
	"dockbook/pkg/core/rules"
	"dockbook/pkg/core/schedule"
	"dockbook/pkg/core/services"
	"dockbook/pkg/postgres"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg          *config.Config
	Database     *postgres.DB
	Resolver     *schedule.Resolver
	Docks        *docks.Availability
	Settings     *services.Settings
	Admin        *services.Admin
	Appointments *services.Appointments
	Engine       *admission.Engine
	Planner      *admission.Planner
	Search       *availability.Search
	Evaluator    *rules.Evaluator
	Loc          *time.Location
	Logger       *zap.Logger
	Ctx          context.Context
}
