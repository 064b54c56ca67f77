package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func (c *cli) dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Summarize today's appointments, active staff and critical inventory",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()
			summary, err := svc.Dashboard.Summary(cmd.Context())
			if err != nil {
				return err
			}
			return c.render(cmd, summary, func(w io.Writer) {
				fmt.Fprintf(w, "DATE\t%s\n", summary.Date)
				fmt.Fprintf(w, "ACTIVE PATIENTS\t%d\n", summary.ActivePatients)
				fmt.Fprintf(w, "ACTIVE DOCTORS\t%d\n", summary.ActiveDoctors)
				fmt.Fprintf(w, "TODAY\t%d (%d done, %d pending)\n", summary.TodayAppointments, summary.CompletedToday, summary.PendingToday)
				fmt.Fprintf(w, "CRITICAL INVENTORY\t%d (%d out, %d low)\n", summary.CriticalInventory, summary.OutOfStock, summary.LowStock)
				for _, row := range summary.Today {
					fmt.Fprintf(w, "%s\t%s with %s (%s, %s)\n", row.Time, row.PatientName, row.DoctorName, row.VisitType, row.Status)
				}
			})
		},
	}
}
