package cli

import (
	"fmt"

	"github.com/couchcryptid/covid-state-etl/internal/domain"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func newDailyCmd(o *options) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "daily <code>",
		Short: "Print a region's daily history, newest first",
		Long: `Print the daily history table for a region: cumulative positive and negative
results, their sum, new tests, pending results, and deaths. Use US for national
totals; with --records they are summed across every region in the file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if days == 0 || days < -1 {
				return fmt.Errorf("invalid --days %d: must be positive or -1", days)
			}
			catalog, err := o.catalog()
			if err != nil {
				return err
			}
			code, name, err := resolveCode(catalog, args[0])
			if err != nil {
				return err
			}
			src, err := o.source()
			if err != nil {
				return err
			}
			records, err := src.daily(cmd.Context(), code)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return fmt.Errorf("no daily records for %s", code)
			}
			records = domain.TrailingWindow(records, days)
			if o.jsonOut {
				return o.printer.json(records)
			}

			o.printer.printf("%s daily history\n", name)
			n := message.NewPrinter(language.English)
			rows := make([][]string, len(records))
			for i, r := range records {
				rows[i] = []string{
					r.Date.Format("2006-01-02"),
					n.Sprintf("%d", r.Positive),
					n.Sprintf("%d", r.Negative),
					n.Sprintf("%d", r.Positive+r.Negative),
					n.Sprintf("%d", r.TotalTestResultsIncrease),
					n.Sprintf("%d", r.Pending),
					n.Sprintf("%d", r.Death),
				}
			}
			return o.printer.table([]string{"date", "positive", "negative", "pos + neg", "new tests", "pending", "deaths"}, rows)
		},
	}
	cmd.Flags().IntVar(&days, "days", -1, "limit to the most recent days (-1 for all)")
	return cmd
}
