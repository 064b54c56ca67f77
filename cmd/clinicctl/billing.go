package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/wolfman30/clinic-nexus/internal/billing"
	"github.com/wolfman30/clinic-nexus/internal/records"
)

func (c *cli) billingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "billing",
		Short: "Billing records and fees",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "tariff [visit-type]",
		Short: "Show the fee for a visit type, or the whole schedule",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			types := []records.VisitType{records.VisitCheckUp, records.VisitProcedure, records.VisitEmergency}
			if len(args) == 1 {
				types = []records.VisitType{records.VisitType(args[0])}
			}
			fees := make(map[records.VisitType]records.Amount, len(types))
			for _, vt := range types {
				fees[vt] = billing.Tariff(vt)
			}
			return c.render(cmd, fees, func(w io.Writer) {
				for _, vt := range types {
					fmt.Fprintf(w, "%s\t%s\n", vt, fees[vt].Dollars())
				}
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "summary",
		Short: "Show total revenue and pending amount",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()
			summary, err := svc.Billing.Summary(cmd.Context())
			if err != nil {
				return err
			}
			return c.render(cmd, summary, func(w io.Writer) {
				fmt.Fprintf(w, "Total revenue\t%s\t(%d paid)\n", summary.TotalRevenue.Dollars(), summary.PaidCount)
				fmt.Fprintf(w, "Pending\t%s\t(%d unpaid)\n", summary.Pending.Dollars(), summary.UnpaidCount)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "pay <id>",
		Short: "Mark a billing record paid today",
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

			paid, err := svc.Billing.Pay(ctx, id)
			if err != nil {
				return err
			}
			return c.render(cmd, paid, func(w io.Writer) {
				fmt.Fprintf(w, "%d\t%s\tpaid %s\n", paid.ID, paid.Amount.Dollars(), paid.PaymentDate)
			})
		},
	})

	return cmd
}
