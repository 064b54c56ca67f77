package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/wolfman30/clinic-nexus/internal/listing"
	"github.com/wolfman30/clinic-nexus/internal/records"
)

func (c *cli) appointmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "appointments",
		Aliases: []string{"appt"},
		Short:   "List and transition appointments",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List appointments with patient and doctor names",
		RunE: func(cmd *cobra.Command, args []string) error {
			term, _ := cmd.Flags().GetString("q")
			svc, err := c.services(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()
			rows, err := svc.Rows.Items(cmd.Context())
			if err != nil {
				return err
			}
			rows = listing.FilterAppointments(rows, term)
			return c.render(cmd, rows, func(w io.Writer) {
				fmt.Fprintln(w, "ID\tDATE\tTIME\tPATIENT\tDOCTOR\tTYPE\tSTATUS")
				for _, r := range rows {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.Date, r.Time, r.PatientName, r.DoctorName, r.VisitType, r.Status)
				}
			})
		},
	}
	listCmd.Flags().String("q", "", "Filter by patient, doctor, visit type or notes")
	cmd.AddCommand(listCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "complete <id>",
		Short: "Mark an appointment done and bill it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, err := c.services(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()
			ctx, flush := c.collect(cmd)
			defer flush()

			appt, err := svc.Coordinator.Load(ctx, id)
			if err != nil {
				return err
			}
			result, err := svc.Coordinator.Complete(ctx, appt)
			if result.Appointment.ID != 0 {
				if renderErr := c.render(cmd, result, func(w io.Writer) {
					fmt.Fprintf(w, "appointment\t%d\t%s\n", result.Appointment.ID, result.Appointment.Status)
					fmt.Fprintf(w, "billing\t%s\n", result.BillingResult)
				}); renderErr != nil {
					return renderErr
				}
			}
			return err
		},
	})

	rescheduleCmd := &cobra.Command{
		Use:   "reschedule <id>",
		Short: "Move a scheduled appointment to a new date and time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			date, _ := cmd.Flags().GetString("date")
			at, _ := cmd.Flags().GetString("time")
			svc, err := c.services(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()
			ctx, flush := c.collect(cmd)
			defer flush()

			appt, err := svc.Coordinator.Load(ctx, id)
			if err != nil {
				return err
			}
			moved, err := svc.Coordinator.Reschedule(ctx, appt, date, at)
			if err != nil {
				return err
			}
			return c.render(cmd, moved, func(w io.Writer) { printAppointment(w, moved) })
		},
	}
	rescheduleCmd.Flags().String("date", "", "New date (YYYY-MM-DD)")
	rescheduleCmd.Flags().String("time", "", "New time (HH:MM)")
	_ = rescheduleCmd.MarkFlagRequired("date")
	_ = rescheduleCmd.MarkFlagRequired("time")
	cmd.AddCommand(rescheduleCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a scheduled appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, err := c.services(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()
			ctx, flush := c.collect(cmd)
			defer flush()

			appt, err := svc.Coordinator.Load(ctx, id)
			if err != nil {
				return err
			}
			canceled, err := svc.Coordinator.Cancel(ctx, appt)
			if err != nil {
				return err
			}
			return c.render(cmd, canceled, func(w io.Writer) { printAppointment(w, canceled) })
		},
	})

	return cmd
}

func printAppointment(w io.Writer, a records.Appointment) {
	fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", a.ID, a.Date, a.Time, a.VisitType, a.Status)
}
