package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wolfman30/clinic-nexus/internal/search"
)

func (c *cli) searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <patients|staff|appointments> <query>",
		Short: "Look up patients, staff or appointments by name",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := search.ParseKind(args[0])
			if err != nil {
				return err
			}
			svc, err := c.services(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()
			hits, err := svc.Searcher.Search(cmd.Context(), kind, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			return c.render(cmd, hits, func(w io.Writer) {
				for _, h := range hits {
					fmt.Fprintf(w, "%d\t%s\t%s\n", h.ID, h.Name, h.Detail)
				}
			})
		},
	}
}
