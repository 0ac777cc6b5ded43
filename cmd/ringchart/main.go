// Command ringchart renders the dashboard ring chart offline, from counts given
// on the command line or from a society database.
package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"society/internal/adapters/canvas"
	contentStore "society/internal/adapters/storage/content"
	memberStore "society/internal/adapters/storage/member"
	"society/internal/application/projections"
	"society/internal/domain/content"
	"society/internal/domain/ringchart"
)

// fallbackPalette colours categories the dashboard does not know, in order of appearance.
var fallbackPalette = []string{"#34495e", "#c0392b", "#2ecc71", "#9b59b6", "#f39c12", "#1abc9c"}

type renderOptions struct {
	counts     []string
	dbPath     string
	format     string
	width      int
	height     int
	hover      string
	outputPath string
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:          "ringchart",
		Short:        "Render the society dashboard ring chart",
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.AddCommand(newRenderCmd())
	return root
}

func newRenderCmd() *cobra.Command {
	var opts renderOptions
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a chart to a PNG or SVG file",
		Long: `render draws category counts as a ring chart and prints the segment table.

Counts come from repeated --count category=value flags, or from --db, which
reads the same figures the admin dashboard shows.`,
		Example: `  ringchart render --count books=10 --count projects=20 -o chart.png
  ringchart render --db society.db --format svg --hover 300,120 -o chart.svg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRender(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.counts, "count", nil, "category=value, repeatable; order is preserved")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "read counts from a society SQLite database")
	cmd.Flags().StringVar(&opts.format, "format", "", "png or svg (default: from the output extension, else png)")
	cmd.Flags().IntVar(&opts.width, "width", 480, "canvas width in pixels")
	cmd.Flags().IntVar(&opts.height, "height", 480, "canvas height in pixels")
	cmd.Flags().StringVar(&opts.hover, "hover", "", "x,y pointer position to replay before saving")
	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "output file path (required)")
	cmd.MarkFlagRequired("output")
	cmd.MarkFlagsMutuallyExclusive("count", "db")
	return cmd
}

func runRender(ctx context.Context, out io.Writer, opts renderOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var (
		ds  ringchart.Dataset
		err error
	)
	switch {
	case opts.dbPath != "":
		ds, err = datasetFromDB(ctx, opts.dbPath)
	case len(opts.counts) > 0:
		ds, err = datasetFromFlags(opts.counts)
	default:
		return fmt.Errorf("either --count or --db is required")
	}
	if err != nil {
		return err
	}

	format := opts.format
	if format == "" {
		format = canvas.FormatPNG
		if strings.HasSuffix(strings.ToLower(opts.outputPath), ".svg") {
			format = canvas.FormatSVG
		}
	}

	chartOpts := ringchart.DefaultOptions()
	cv, err := canvas.New(format, opts.width, opts.height, chartOpts.Background)
	if err != nil {
		return err
	}
	chart := ringchart.New(chartOpts)
	chart.Render(ds, cv)

	if opts.hover != "" {
		p, err := parsePoint(opts.hover)
		if err != nil {
			return err
		}
		tip := &printTooltip{out: out}
		feed := ringchart.NewPointerFeed()
		unbind := chart.BindInteraction(ringchart.Binding{Events: feed, Surface: cv, Tooltip: tip})
		feed.Move(p)
		unbind()
		if !tip.shown {
			fmt.Fprintf(out, "hover (%g,%g): no segment\n", p.X, p.Y)
		}
	}

	var buf bytes.Buffer
	if err := cv.Save(&buf); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := os.WriteFile(opts.outputPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if err := printSegments(out, chart.Segments(), ds.Total()); err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %s (%s %dx%d)\n", opts.outputPath, format, opts.width, opts.height)
	return nil
}

// datasetFromFlags parses category=value pairs. Dashboard categories keep their
// dashboard colours; others take the fallback palette.
func datasetFromFlags(pairs []string) (ringchart.Dataset, error) {
	colors := make(map[string]string, len(pairs))
	counts := make([]ringchart.CategoryCount, 0, len(pairs))
	extra := 0
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok {
			return ringchart.Dataset{}, fmt.Errorf("--count %q: want category=value", pair)
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return ringchart.Dataset{}, fmt.Errorf("--count %q: %w", pair, err)
		}
		if _, seen := colors[name]; !seen {
			if c, known := content.CategoryColors[name]; known {
				colors[name] = c
			} else {
				colors[name] = fallbackPalette[extra%len(fallbackPalette)]
				extra++
			}
		}
		counts = append(counts, ringchart.CategoryCount{Category: name, Count: n})
	}
	return ringchart.NewDataset(colors, counts...)
}

func datasetFromDB(ctx context.Context, path string) (ringchart.Dataset, error) {
	if _, err := os.Stat(path); err != nil {
		return ringchart.Dataset{}, fmt.Errorf("database: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return ringchart.Dataset{}, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	return projections.QueryGetDashboardDataset(ctx, projections.GetDashboardDatasetDeps{
		ContentStore: contentStore.NewSQLiteStore(db),
		MemberStore:  memberStore.NewSQLiteStore(db),
	})
}

func parsePoint(s string) (ringchart.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return ringchart.Point{}, fmt.Errorf("--hover %q: want x,y", s)
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if errX != nil || errY != nil || !finite(x) || !finite(y) {
		return ringchart.Point{}, fmt.Errorf("--hover %q: want finite numbers", s)
	}
	return ringchart.Point{X: x, Y: y}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func printSegments(out io.Writer, segments []ringchart.Segment, total float64) error {
	if len(segments) == 0 {
		fmt.Fprintln(out, "no data: empty chart")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tCOUNT\tSHARE\tCOLOUR")
	for _, s := range segments {
		fmt.Fprintf(tw, "%s\t%g\t%.1f%%\t%s\n", s.Category, s.Value, s.Percentage, s.Color)
	}
	fmt.Fprintf(tw, "total\t%g\t\t\n", total)
	return tw.Flush()
}

// printTooltip reports the replayed hover on the command output.
type printTooltip struct {
	out   io.Writer
	shown bool
}

func (t *printTooltip) Show(seg ringchart.Segment, at ringchart.Point) {
	t.shown = true
	fmt.Fprintf(t.out, "hover (%g,%g): %s %g (%.1f%%)\n", at.X, at.Y, seg.Category, seg.Value, seg.Percentage)
}

func (t *printTooltip) Hide() {}
