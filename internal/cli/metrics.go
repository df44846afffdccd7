package cli

import (
	"fmt"
	"math"
	"strconv"

	"github.com/couchcryptid/covid-state-etl/internal/domain"
	"github.com/spf13/cobra"
)

func newMetricsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "List the selectable metrics and their severity levels",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			metrics := domain.Metrics()
			if o.jsonOut {
				return o.printer.json(metrics)
			}
			var rows [][]string
			for _, m := range metrics {
				for _, l := range m.Levels {
					rows = append(rows, []string{m.ID, o.printer.level(l.Style, l.ID), boundText(l.Min), boundText(l.Max), l.Title})
				}
			}
			return o.printer.table([]string{"metric", "level", "min", "max", "title"}, rows)
		},
	}
}

func boundText(v float64) string {
	if math.IsInf(v, 0) {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func newMapCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:     "map <metric>",
		Aliases: []string{"levels"},
		Short:   "Compute a metric for every region and group regions by level",
		Long: `Compute a metric for every region over its trailing seven-day window and
list the regions under each severity level, highest first.

Examples:
  covidmap map cases --records daily.json
  covidmap levels percent-positive --api-url $TRACKING_API_URL --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			metric, err := domain.LookupMetric(args[0])
			if err != nil {
				return err
			}
			catalog, err := o.catalog()
			if err != nil {
				return err
			}
			src, err := o.source()
			if err != nil {
				return err
			}
			history, err := src.history(cmd.Context(), catalog.Regions())
			if err != nil {
				return err
			}
			view, err := domain.BuildMapView(metric, catalog.SortedByName(), history)
			if err != nil {
				return err
			}
			if o.jsonOut {
				return o.printer.json(view)
			}
			return o.printMapView(view)
		},
	}
}

func (o *options) printMapView(view domain.MapView) error {
	o.printer.printf("%s\n%s\n", view.Metric.Title, o.printer.faint(view.Metric.Subtitle))
	for _, g := range view.Groups {
		o.printer.header(fmt.Sprintf("%s (%d)", o.printer.level(g.Level.Style, g.Level.Title), len(g.Statistics)))
		if len(g.Statistics) == 0 {
			continue
		}
		rows := make([][]string, len(g.Statistics))
		for i, s := range g.Statistics {
			rows[i] = []string{s.Region, s.Name, s.Display, s.Link}
		}
		if err := o.printer.table([]string{"code", "name", "value", "link"}, rows); err != nil {
			return err
		}
	}
	if len(view.Skipped) > 0 {
		o.printer.printf("\n%s\n", o.printer.faint(fmt.Sprintf("%d regions without a statistic", len(view.Skipped))))
	}
	return nil
}

func newSnapshotCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot <code>",
		Short: "Compute every metric for one region",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := o.catalog()
			if err != nil {
				return err
			}
			r, err := catalog.Lookup(args[0])
			if err != nil {
				return err
			}
			src, err := o.source()
			if err != nil {
				return err
			}
			records, err := src.daily(cmd.Context(), r.Code)
			if err != nil {
				return err
			}
			snap, err := domain.BuildSnapshot(r, records, domain.Metrics())
			if err != nil {
				return err
			}
			if o.jsonOut {
				return o.printer.json(snap)
			}

			o.printer.printf("%s (%s) %s to %s, %d days\n", snap.Name, snap.Region,
				snap.WindowStart.Format("2006-01-02"), snap.WindowEnd.Format("2006-01-02"), snap.Days)
			rows := make([][]string, 0, len(snap.Statistics)+len(snap.Unavailable))
			for _, s := range snap.Statistics {
				rows = append(rows, []string{s.Metric, s.Display, o.printer.level(s.Level.Style, s.Level.Title)})
			}
			for _, u := range snap.Unavailable {
				rows = append(rows, []string{u.Metric, "-", o.printer.faint(u.Reason)})
			}
			return o.printer.table([]string{"metric", "value", "level"}, rows)
		},
	}
}
