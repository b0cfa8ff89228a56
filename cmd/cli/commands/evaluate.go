package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"dockbook/pkg/core/rules"
	"dockbook/pkg/core/timeslot"
)

// EvaluateCmd creates the evaluate command
func EvaluateCmd(getApp func() *AppContext) *cobra.Command {
	var (
		size     string
		category string
		dockCode string
	)

	cmd := &cobra.Command{
		Use:   "evaluate <date> <slot_start> <start> <end>",
		Short: "Score a candidate booking against the advisory rules",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp()
			date, err := parseDate(args[0], app.Loc)
			if err != nil {
				return err
			}
			start, end, err := parseWindow(date, args[2], args[3])
			if err != nil {
				return err
			}

			eval, err := app.Evaluator.EvaluateSlot(app.Ctx, rules.Candidate{
				Date:      date,
				SlotStart: args[1],
				Start:     start,
				End:       end,
				Size:      size,
				Category:  category,
				DockCode:  dockCode,
			})
			if err != nil {
				return err
			}

			fmt.Printf("\nScore: %d/100\n", eval.Score)
			if eval.Allowed {
				fmt.Println("Allowed: yes")
			} else {
				fmt.Println("Allowed: no (enforced rule)")
			}
			for _, w := range eval.Warnings {
				fmt.Printf("  ⚠ %s\n", w)
			}
			if eval.Suggestion != nil {
				fmt.Printf("  Suggestion: %s %s\n",
					timeslot.DateKey(*eval.Suggestion), eval.Suggestion.Format(timeslot.ClockLayout))
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().StringVar(&size, "size", "M", "Size tier: S, M or L")
	cmd.Flags().StringVar(&category, "category", "", "Provider category")
	cmd.Flags().StringVar(&dockCode, "dock", "", "Candidate dock code")
	return cmd
}
