package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func (c *cli) inventoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Stock levels",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "low-stock",
		Short: "List active items at or below their reorder threshold",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()
			reorders, err := svc.Inventory.LowStock(cmd.Context())
			if err != nil {
				return err
			}
			return c.render(cmd, reorders, func(w io.Writer) {
				fmt.Fprintln(w, "ID\tITEM\tSTOCK\tTHRESHOLD\tREORDER")
				for _, r := range reorders {
					fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\n", r.Item.ID, r.Item.Name, r.Item.StockQuantity, r.Item.ReorderThreshold, r.Quantity)
				}
			})
		},
	})
	return cmd
}
