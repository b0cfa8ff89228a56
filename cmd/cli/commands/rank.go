package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"dockbook/pkg/core/timeslot"
)

// RankCmd creates the rank command
func RankCmd(getApp func() *AppContext) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "rank <from> <to> <points_needed> <size>",
		Short: "Search availability and order the results by preference",
		Args:  cobra.ExactArgs(4),
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
			size := args[3]

			days, err := app.Search.FindAvailableSlots(app.Ctx, from, to, points)
			if err != nil {
				return err
			}

			ranked, err := app.Evaluator.RankAvailableSlots(app.Ctx, days, size, category)
			if err != nil {
				return err
			}

			if len(ranked) == 0 {
				fmt.Println("No candidates found")
				return nil
			}

			fmt.Println()
			for i, r := range ranked {
				fmt.Printf("  %2d. %s %s-%s  %d points free, %d docks  (score %d)\n",
					i+1, timeslot.DateKey(r.Date), r.Slot.Start, r.Slot.End,
					r.Slot.PointsAvailable, r.Slot.DocksAvailable, r.Score)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Provider category")
	return cmd
}
