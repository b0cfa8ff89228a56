package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"dockbook/pkg/core/admission"
	"dockbook/pkg/core/timeslot"
)

// AdmitCmd creates the admit command
func AdmitCmd(getApp func() *AppContext) *cobra.Command {
	var (
		category    string
		externalRef string
		editID      string
		noSearch    bool
	)

	cmd := &cobra.Command{
		Use:   "admit <provider> <date> <slot_start> <start> <end>",
		Short: "Book an appointment against a slot and a dock",
		Long: `Validates the request against the slot's point budget and the dock
timetable, then books atomically. By default a full slot triggers a
bounded search for the next bookable candidate; --no-search surfaces
the rejection for the requested slot instead.`,
		Args: cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp()
			date, err := parseDate(args[1], app.Loc)
			if err != nil {
				return err
			}
			start, end, err := parseWindow(date, args[3], args[4])
			if err != nil {
				return err
			}

			req := admission.Request{
				ProviderName: args[0],
				Category:     category,
				Date:         date,
				SlotStart:    args[2],
				Start:        start,
				End:          end,
				ExternalRef:  externalRef,
				ExcludeID:    editID,
			}

			var res *admission.Result
			if noSearch || editID != "" {
				res, err = app.Engine.ValidateAndAdmit(app.Ctx, req)
			} else {
				res, err = app.Planner.Admit(app.Ctx, req)
			}
			if err != nil {
				return err
			}

			printAdmission(res)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Provider category, for the advisory rules")
	cmd.Flags().StringVar(&externalRef, "ref", "", "External reference key for idempotent booking")
	cmd.Flags().StringVar(&editID, "edit", "", "Re-validate and update an existing appointment id")
	cmd.Flags().BoolVar(&noSearch, "no-search", false, "Do not search for an alternative slot on rejection")
	return cmd
}

func printAdmission(res *admission.Result) {
	if res.Admitted {
		a := res.Appointment
		fmt.Printf("\n✓ Appointment %s booked\n\n", a.ID)
		fmt.Printf("  %s %s-%s on dock %s (size %s, %d pt)\n",
			timeslot.DateKey(a.SlotDate),
			a.Start.Format(timeslot.ClockLayout),
			a.End.Format(timeslot.ClockLayout),
			a.DockID, a.Size, a.PointsUsed)
		fmt.Printf("  Slot %s now at %d/%d points\n\n", a.SlotStartTime, res.PointsUsed, res.MaxPoints)
		return
	}

	fmt.Printf("\n✗ Rejected: %s (%s)\n", res.Message, res.Code)
	if res.Slot != nil {
		fmt.Printf("  Slot %s: %d/%d points used, %d free, %d docks active\n",
			res.Slot.Start, res.PointsUsed, res.MaxPoints, res.PointsFree, res.ActiveDocks)
	}
	fmt.Println()
}
