// Package cli implements the covidmap command line tool. It computes the same
// statistics as the ETL service from a JSON records file or the history API.
package cli

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
)

type options struct {
	recordsFile string
	apiURL      string
	regionsFile string
	timeout     time.Duration
	colorMode   string
	jsonOut     bool
	verbose     bool

	printer *printer
	logger  *slog.Logger
}

// NewRootCmd builds the covidmap command tree.
func NewRootCmd() *cobra.Command {
	o := &options{}

	root := &cobra.Command{
		Use:   "covidmap",
		Short: "State COVID-19 statistics from daily records",
		Long: `covidmap computes seven-day state statistics, severity levels, and daily
history tables from a JSON file of state daily records or a COVID Tracking
style HTTP API.

Example usage:
  covidmap map cases --records daily.json     # Regions grouped by level
  covidmap snapshot NY --api-url $API         # Every metric for one region
  covidmap daily US --records daily.json      # National daily history
  covidmap neighbors PA east                  # Hexgrid neighbor lookup`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return o.init(cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&o.recordsFile, "records", "", "JSON file holding an array of state daily records")
	flags.StringVar(&o.apiURL, "api-url", os.Getenv("TRACKING_API_URL"), "history API base URL (default $TRACKING_API_URL)")
	flags.StringVar(&o.regionsFile, "regions", os.Getenv("REGIONS_FILE"), "region catalog YAML (default embedded)")
	flags.DurationVar(&o.timeout, "timeout", 10*time.Second, "history API request timeout")
	flags.StringVar(&o.colorMode, "color", "auto", "color output: auto, always, or never")
	flags.BoolVar(&o.jsonOut, "json", false, "output as JSON")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "verbose logging")

	root.AddCommand(
		newMetricsCmd(o),
		newMapCmd(o),
		newSnapshotCmd(o),
		newRegionsCmd(o),
		newNeighborsCmd(o),
		newLayoutCmd(o),
		newDailyCmd(o),
		newValidateCmd(o),
	)
	return root
}

// Execute runs the command tree against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

func (o *options) init(out, errOut io.Writer) error {
	useColors, err := resolveColors(o.colorMode)
	if err != nil {
		return err
	}
	o.printer = newPrinter(out, useColors)

	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	o.logger = slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))

	if o.recordsFile != "" && o.apiURL != "" {
		o.logger.Debug("both --records and --api-url set; using --records")
	}
	return nil
}
