package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"dockbook/pkg/core/timeslot"
)

// DocksCmd creates the docks command
func DocksCmd(getApp func() *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "docks <date> <slot_start>",
		Short: "List the docks serving a slot on a date",
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

			docks, err := app.Docks.ActiveDocks(app.Ctx, date, slotStart)
			if err != nil {
				return err
			}

			if len(docks) == 0 {
				fmt.Printf("No active docks for %s %s\n", timeslot.DateKey(date), slotStart)
				return nil
			}

			fmt.Printf("\nActive docks for %s %s:\n\n", timeslot.DateKey(date), slotStart)
			for _, d := range docks {
				fmt.Printf("  %-4s %s (%s)\n", d.Code, d.Name, d.ID)
			}
			fmt.Println()
			return nil
		},
	}
}
