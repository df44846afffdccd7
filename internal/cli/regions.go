package cli

import (
	"fmt"
	"strconv"

	"github.com/couchcryptid/covid-state-etl/internal/domain"
	"github.com/couchcryptid/covid-state-etl/internal/hexgrid"
	"github.com/couchcryptid/covid-state-etl/internal/region"
	"github.com/spf13/cobra"
)

var directions = []region.Direction{region.North, region.East, region.South, region.West}

func newRegionsCmd(o *options) *cobra.Command {
	var sortBy string
	cmd := &cobra.Command{
		Use:   "regions",
		Short: "List regions with their page links",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			catalog, err := o.catalog()
			if err != nil {
				return err
			}
			var regions []domain.Region
			switch sortBy {
			case "name":
				regions = catalog.SortedByName()
			case "code":
				regions = catalog.SortedByCode()
			default:
				return fmt.Errorf("invalid --sort %q: must be name or code", sortBy)
			}
			if o.jsonOut {
				return o.printer.json(regions)
			}
			rows := make([][]string, len(regions))
			for i, r := range regions {
				rows[i] = []string{r.Code, r.Name, strconv.FormatInt(r.Population, 10), r.Link()}
			}
			return o.printer.table([]string{"code", "name", "population", "link"}, rows)
		},
	}
	cmd.Flags().StringVar(&sortBy, "sort", "name", "order by name or code")
	return cmd
}

func newNeighborsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "neighbors <code> [direction]",
		Short: "Show a region's hexgrid neighbors",
		Long: `Show the regions adjacent to a region on the hexgrid map. Directions are
north, south, east, west, or their first letters.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			catalog, err := o.catalog()
			if err != nil {
				return err
			}
			r, err := catalog.Lookup(args[0])
			if err != nil {
				return err
			}
			adj := catalog.Adjacency()

			if len(args) == 2 {
				d, err := region.ParseDirection(args[1])
				if err != nil {
					return err
				}
				code, ok := adj.Neighbor(r.Code, d)
				if !ok {
					return fmt.Errorf("%s has no neighbor to the %s", r.Code, d)
				}
				o.printer.printf("%s\n", code)
				return nil
			}

			neighbors := adj.Neighbors(r.Code)
			if o.jsonOut {
				return o.printer.json(neighbors)
			}
			rows := make([][]string, 0, len(neighbors))
			for _, d := range directions {
				code, ok := neighbors[d]
				if !ok {
					continue
				}
				n, _ := catalog.Lookup(code)
				rows = append(rows, []string{d.String(), n.Code, n.Name})
			}
			return o.printer.table([]string{"direction", "code", "name"}, rows)
		},
	}
}

func newLayoutCmd(o *options) *cobra.Command {
	extent := hexgrid.DefaultExtent
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Project the hexgrid map into a canvas",
		Long: `Project every region's hexagon with Mercator and fit the result into the
canvas. --json prints each cell with its GeoJSON polygon.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			catalog, err := o.catalog()
			if err != nil {
				return err
			}
			cells, err := hexgrid.Layout(catalog.Regions(), extent)
			if err != nil {
				return err
			}
			if o.jsonOut {
				return o.printer.json(cells)
			}
			rows := make([][]string, len(cells))
			for i, c := range cells {
				rows[i] = []string{
					c.Region,
					formatCoord(c.Centroid.X), formatCoord(c.Centroid.Y),
					formatCoord(c.Bounds.MinX), formatCoord(c.Bounds.MinY),
					formatCoord(c.Bounds.MaxX), formatCoord(c.Bounds.MaxY),
				}
			}
			return o.printer.table([]string{"code", "x", "y", "min x", "min y", "max x", "max y"}, rows)
		},
	}
	cmd.Flags().Float64Var(&extent.Width, "width", extent.Width, "canvas width")
	cmd.Flags().Float64Var(&extent.Height, "height", extent.Height, "canvas height")
	cmd.Flags().Float64Var(&extent.MarginX, "margin-x", extent.MarginX, "horizontal margin")
	cmd.Flags().Float64Var(&extent.MarginY, "margin-y", extent.MarginY, "vertical margin")
	return cmd
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
