package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"dockbook/pkg/db"
)

// AdminCmd creates the admin command group for schedule and dock
// configuration. Every mutation invalidates the schedule cache.
func AdminCmd(getApp func() *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage slot templates, overrides and docks",
	}
	cmd.AddCommand(addTemplateCmd(getApp))
	cmd.AddCommand(toggleTemplateCmd(getApp))
	cmd.AddCommand(addOverrideCmd(getApp))
	cmd.AddCommand(addDockCmd(getApp))
	cmd.AddCommand(toggleDockCmd(getApp))
	cmd.AddCommand(dockSlotCmd(getApp))
	cmd.AddCommand(dockOverrideCmd(getApp))
	cmd.AddCommand(setBufferCmd(getApp))
	return cmd
}

func addTemplateCmd(getApp func() *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add-template <weekday> <start> <end> <max_points>",
		Short: "Add a recurring weekly slot (weekday 0=Sunday)",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp()
			weekday, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("weekday must be a number: %w", err)
			}
			maxPoints, err := strconv.Atoi(args[3])
			if err != nil {
				return fmt.Errorf("max_points must be a number: %w", err)
			}

			tpl := &db.SlotTemplate{
				Weekday:   weekday,
				StartTime: args[1],
				EndTime:   args[2],
				MaxPoints: maxPoints,
				Active:    true,
			}
			if err := app.Admin.CreateSlotTemplate(app.Ctx, tpl); err != nil {
				return err
			}
			fmt.Printf("✓ Template %s created\n", tpl.ID)
			return nil
		},
	}
}

func toggleTemplateCmd(getApp func() *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle-template <template_id> <active>",
		Short: "Enable or disable a recurring slot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp()
			active, err := strconv.ParseBool(args[1])
			if err != nil {
				return fmt.Errorf("active must be true or false: %w", err)
			}
			if err := app.Admin.SetSlotTemplateActive(app.Ctx, args[0], active); err != nil {
				return err
			}
			fmt.Println("✓ Template updated")
			return nil
		},
	}
}

func addOverrideCmd(getApp func() *AppContext) *cobra.Command {
	var (
		dateEnd   string
		slotStart string
		reason    string
	)

	cmd := &cobra.Command{
		Use:   "add-override <date> <max_points>",
		Short: "Replace slot budgets for a date (or range with --until)",
		Long: `Creates a date-specific budget override. Without --slot it applies to
every slot of the day; with --slot it replaces that slot's time and
budget. max_points 0 closes the slot(s).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp()
			date, err := parseDate(args[0], app.Loc)
			if err != nil {
				return err
			}
			maxPoints, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("max_points must be a number: %w", err)
			}

			ov := &db.SlotOverride{Date: date, MaxPoints: maxPoints, Reason: reason}
			if dateEnd != "" {
				end, err := parseDate(dateEnd, app.Loc)
				if err != nil {
					return err
				}
				ov.DateEnd = &end
			}
			if slotStart != "" {
				ov.StartTime = &slotStart
			}

			if err := app.Admin.CreateSlotOverride(app.Ctx, ov); err != nil {
				return err
			}
			fmt.Println("✓ Override created")
			return nil
		},
	}

	cmd.Flags().StringVar(&dateEnd, "until", "", "Inclusive end date for a ranged override")
	cmd.Flags().StringVar(&slotStart, "slot", "", "Target only the slot starting at this time")
	cmd.Flags().StringVar(&reason, "reason", "", "Reason shown to bookers")
	return cmd
}

func addDockCmd(getApp func() *AppContext) *cobra.Command {
	var sortOrder int

	cmd := &cobra.Command{
		Use:   "add-dock <name> <code>",
		Short: "Register a loading bay",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp()
			dock := &db.Dock{Name: args[0], Code: args[1], SortOrder: sortOrder, Active: true}
			if err := app.Admin.CreateDock(app.Ctx, dock); err != nil {
				return err
			}
			fmt.Printf("✓ Dock %s created\n", dock.ID)
			return nil
		},
	}

	cmd.Flags().IntVar(&sortOrder, "sort", 0, "Tie-break order for assignment")
	return cmd
}

func toggleDockCmd(getApp func() *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle-dock <dock_id> <active>",
		Short: "Enable or disable a dock globally",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp()
			active, err := strconv.ParseBool(args[1])
			if err != nil {
				return fmt.Errorf("active must be true or false: %w", err)
			}
			if err := app.Admin.SetDockActive(app.Ctx, args[0], active); err != nil {
				return err
			}
			fmt.Println("✓ Dock updated")
			return nil
		},
	}
}

func dockSlotCmd(getApp func() *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "dock-slot <dock_id> <template_id> <active>",
		Short: "Declare whether a dock serves a recurring slot",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp()
			active, err := strconv.ParseBool(args[2])
			if err != nil {
				return fmt.Errorf("active must be true or false: %w", err)
			}
			if err := app.Admin.SetDockSlotAvailability(app.Ctx, args[0], args[1], active); err != nil {
				return err
			}
			fmt.Println("✓ Dock slot availability set")
			return nil
		},
	}
}

func dockOverrideCmd(getApp func() *AppContext) *cobra.Command {
	var dateEnd string

	cmd := &cobra.Command{
		Use:   "dock-override <dock_id> <date> <active>",
		Short: "Enable or disable a dock for specific dates",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp()
			date, err := parseDate(args[1], app.Loc)
			if err != nil {
				return err
			}
			active, err := strconv.ParseBool(args[2])
			if err != nil {
				return fmt.Errorf("active must be true or false: %w", err)
			}

			ov := &db.DockOverride{DockID: args[0], Date: date, IsActive: active}
			if dateEnd != "" {
				end, err := parseDate(dateEnd, app.Loc)
				if err != nil {
					return err
				}
				ov.DateEnd = &end
			}

			if err := app.Admin.CreateDockOverride(app.Ctx, ov); err != nil {
				return err
			}
			fmt.Println("✓ Dock override created")
			return nil
		},
	}

	cmd.Flags().StringVar(&dateEnd, "until", "", "Inclusive end date for a ranged override")
	return cmd
}

func setBufferCmd(getApp func() *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set-buffer <minutes>",
		Short: "Set the global idle buffer between dock appointments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp()
			minutes, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("minutes must be a number: %w", err)
			}
			if err := app.Settings.SetBufferMinutes(app.Ctx, minutes); err != nil {
				return err
			}
			fmt.Printf("✓ Buffer set to %d minutes\n", minutes)
			return nil
		},
	}
}
