package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"dockbook/pkg/core/timeslot"
)

// AvailabilityCmd creates the availability command
func AvailabilityCmd(getApp func() *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "availability <from> <to> <points_needed>",
		Short: "List slots with spare capacity in a date range",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp()
			from, err := parseDate(args[0], app.Loc)
			if err != nil {
				return err
			}
			to, err := parseDate(args[1], app.Loc)
			if err != nil {
				return err
			}
			points, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("points_needed must be a number: %w", err)
			}

			days, err := app.Search.FindAvailableSlots(app.Ctx, from, to, points)
			if err != nil {
				return err
			}

			if len(days) == 0 {
				fmt.Printf("No availability for %d point(s) between %s and %s\n",
					points, timeslot.DateKey(from), timeslot.DateKey(to))
				return nil
			}

			fmt.Println()
			for _, day := range days {
				fmt.Printf("%s:\n", timeslot.DateKey(day.Date))
				for _, s := range day.Slots {
					fmt.Printf("  %s-%s  %d points free, %d docks\n",
						s.Start, s.End, s.PointsAvailable, s.DocksAvailable)
				}
			}
			fmt.Println()
			return nil
		},
	}
}
