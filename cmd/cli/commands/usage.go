package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"dockbook/pkg/core/timeslot"
)

// UsageCmd creates the usage command
func UsageCmd(getApp func() *AppContext) *cobra.Command {
	var breakdown bool

	cmd := &cobra.Command{
		Use:   "usage <date> <slot_start>",
		Short: "Show the points consumed in a slot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp()
			date, err := parseDate(args[0], app.Loc)
			if err != nil {
				return err
			}
			slotStart := args[1]
			if _, err := timeslot.ParseClock(slotStart); err != nil {
				return err
			}

			if !breakdown {
				points, err := app.Appointments.SlotUsage(app.Ctx, date, slotStart)
				if err != nil {
					return err
				}
				fmt.Printf("%s %s: %d points used\n", timeslot.DateKey(date), slotStart, points)
				return nil
			}

			entries, total, err := app.Appointments.SlotUsageBreakdown(app.Ctx, date, slotStart)
			if err != nil {
				return err
			}
			fmt.Printf("\n%s %s: %d points used\n\n", timeslot.DateKey(date), slotStart, total)
			for _, e := range entries {
				fmt.Printf("  %-36s %-24s %s  %d pt\n", e.AppointmentID, e.ProviderName, e.Size, e.PointsUsed)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().BoolVar(&breakdown, "breakdown", false, "List per-appointment contributions")
	return cmd
}
