package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"dockbook/pkg/core/timeslot"
)

// CancelCmd creates the cancel command
func CancelCmd(getApp func() *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <appointment_id>",
		Short: "Cancel an appointment, freeing its points and dock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp()
			appt, err := app.Appointments.Cancel(app.Ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("✓ Cancelled %s (%s, %s %s, %d pt freed)\n",
				appt.ID, appt.ProviderName, timeslot.DateKey(appt.SlotDate), appt.SlotStartTime, appt.PointsUsed)
			return nil
		},
	}
}
