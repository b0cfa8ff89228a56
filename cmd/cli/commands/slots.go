package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"dockbook/pkg/core/timeslot"
)

// SlotsCmd creates the slots command
func SlotsCmd(getApp func() *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "slots <date>",
		Short: "Show the effective slots for a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp()
			date, err := parseDate(args[0], app.Loc)
			if err != nil {
				return err
			}

			slots, err := app.Resolver.EffectiveSlots(app.Ctx, date)
			if err != nil {
				return err
			}

			if len(slots) == 0 {
				fmt.Printf("No slots configured for %s\n", timeslot.DateKey(date))
				return nil
			}

			fmt.Printf("\nSlots for %s:\n\n", timeslot.DateKey(date))
			for _, s := range slots {
				marker := ""
				if s.IsOverride {
					marker = " (override"
					if s.Reason != "" {
						marker += ": " + s.Reason
					}
					marker += ")"
				}
				if s.Closed() {
					fmt.Printf("  %s-%s  CLOSED%s\n", s.Start, s.End, marker)
					continue
				}
				fmt.Printf("  %s-%s  %d points, %d docks%s\n", s.Start, s.End, s.MaxPoints, s.ActiveDockCount, marker)
			}
			fmt.Println()
			return nil
		},
	}
}
