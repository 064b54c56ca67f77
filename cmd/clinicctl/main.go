// Command clinicctl drives the appointment workflow from a terminal.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/wolfman30/clinic-nexus/internal/app/bootstrap"
	appconfig "github.com/wolfman30/clinic-nexus/internal/config"
	"github.com/wolfman30/clinic-nexus/internal/notify"
	"github.com/wolfman30/clinic-nexus/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type cli struct {
	apiURL  string
	output  string
	verbose bool
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	rootCmd := &cobra.Command{
		Use:          "clinicctl",
		Short:        "Operate clinic appointments, billing and inventory",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&c.apiURL, "api", "", "Clinic API base URL (overrides CLINIC_API_URL)")
	rootCmd.PersistentFlags().StringVarP(&c.output, "output", "o", "text", "Output format: text or json")
	rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Log to stderr")

	rootCmd.AddCommand(c.appointmentsCmd())
	rootCmd.AddCommand(c.billingCmd())
	rootCmd.AddCommand(c.searchCmd())
	rootCmd.AddCommand(c.inventoryCmd())
	rootCmd.AddCommand(c.dashboardCmd())
	return rootCmd
}

// services wires the workflow layer for one command invocation.
func (c *cli) services(cmd *cobra.Command) (*bootstrap.Services, error) {
	cfg := appconfig.Load()
	if c.apiURL != "" {
		cfg.ClinicAPIURL = strings.TrimRight(c.apiURL, "/")
	}
	logger := logging.Discard()
	if c.verbose {
		logger = logging.NewWithWriter(cfg.LogLevel, "text", cmd.ErrOrStderr())
	}
	return bootstrap.BuildServices(cmd.Context(), cfg, logger, nil)
}

// collect routes notifications raised by the command to stderr.
func (c *cli) collect(cmd *cobra.Command) (context.Context, func()) {
	rec := notify.NewRecorder()
	ctx := notify.WithNotifier(cmd.Context(), rec)
	return ctx, func() {
		for _, n := range rec.Notifications() {
			fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s: %s\n", n.Level, n.Title, n.Description)
		}
	}
}

// render prints v as JSON, or through text when the output format is text.
func (c *cli) render(cmd *cobra.Command, v any, text func(w io.Writer)) error {
	out := cmd.OutOrStdout()
	if c.output == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	text(tw)
	return tw.Flush()
}

func parseID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
