package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/signalnine/studyscope/internal/analytics"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func formatRange(r *analytics.Range) string {
	if r == nil {
		return "-"
	}
	return fmt.Sprintf("[%s, %s]", formatFloat(r.Min), formatFloat(r.Max))
}

func filledCells(g analytics.ContourGrid) int {
	n := 0
	for _, row := range g.Z {
		for _, z := range row {
			if z != nil {
				n++
			}
		}
	}
	return n
}

func lastPoint(s analytics.Series) (string, string) {
	if s.Len() == 0 {
		return "-", "-"
	}
	i := s.Len() - 1
	return strconv.Itoa(int(s.X[i])), formatFloat(s.Y[i])
}

func scale(log bool) string {
	if log {
		return "log"
	}
	return "linear"
}

func writeTable(r *StudyReport, w io.Writer) error {
	fmt.Fprintf(w, "STUDY %s (%s)  trials: %d  completed: %d\n", r.Study, r.Direction, r.Trials, r.Completed)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if r.History != nil {
		fmt.Fprintln(tw, "\nHISTORY")
		fmt.Fprintln(tw, "TRIAL\tVALUE\tBEST")
		fmt.Fprintln(tw, strings.Repeat("-", 40))
		for i := range r.History.Raw.X {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", int(r.History.Raw.X[i]),
				formatFloat(r.History.Raw.Y[i]), formatFloat(r.History.RunningBest.Y[i]))
		}
	}
	if r.Intermediate != nil {
		fmt.Fprintln(tw, "\nINTERMEDIATE")
		fmt.Fprintln(tw, "CURVE\tSTEPS\tLAST STEP\tLAST VALUE")
		fmt.Fprintln(tw, strings.Repeat("-", 60))
		for _, s := range r.Intermediate {
			step, value := lastPoint(s)
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", s.Name, s.Len(), step, value)
		}
	}
	if r.Contour != nil {
		fmt.Fprintln(tw, "\nCONTOUR")
		fmt.Fprintln(tw, "X\tY\tX RANGE\tY RANGE\tGRID\tFILLED")
		fmt.Fprintln(tw, strings.Repeat("-", 80))
		for _, p := range r.Contour {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%dx%d\t%d\n",
				p.X.Param, p.Y.Param, formatRange(p.X.Range), formatRange(p.Y.Range),
				len(p.Grid.X), len(p.Grid.Y), filledCells(p.Grid))
		}
	}
	if r.ParallelCoordinate != nil {
		fmt.Fprintln(tw, "\nPARALLEL COORDINATE")
		fmt.Fprintln(tw, "DIMENSION\tRANGE\tVALUES")
		fmt.Fprintln(tw, strings.Repeat("-", 60))
		for _, d := range r.ParallelCoordinate {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", d.Label, formatRange(d.Range), len(d.Values))
		}
	}
	if r.Slice != nil {
		fmt.Fprintln(tw, "\nSLICE")
		fmt.Fprintln(tw, "PARAM\tSCALE\tPOINTS")
		fmt.Fprintln(tw, strings.Repeat("-", 40))
		for _, s := range r.Slice {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", s.Param, scale(s.LogScale), s.Points.Len())
		}
	}
	fmt.Fprintln(tw)
	return tw.Flush()
}

func writeMarkdown(r *StudyReport, w io.Writer) error {
	fmt.Fprintf(w, "## %s\n\n", r.Study)
	fmt.Fprintf(w, "Direction: %s. Trials: %d (%d completed).\n\n", r.Direction, r.Trials, r.Completed)

	if r.History != nil {
		fmt.Fprintln(w, "### Optimization history")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "| Trial | Value | Best |")
		fmt.Fprintln(w, "|---|---|---|")
		for i := range r.History.Raw.X {
			fmt.Fprintf(w, "| %d | %s | %s |\n", int(r.History.Raw.X[i]),
				formatFloat(r.History.Raw.Y[i]), formatFloat(r.History.RunningBest.Y[i]))
		}
		fmt.Fprintln(w)
	}
	if r.Intermediate != nil {
		fmt.Fprintln(w, "### Intermediate values")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "| Curve | Steps | Last Step | Last Value |")
		fmt.Fprintln(w, "|---|---|---|---|")
		for _, s := range r.Intermediate {
			step, value := lastPoint(s)
			fmt.Fprintf(w, "| %s | %d | %s | %s |\n", s.Name, s.Len(), step, value)
		}
		fmt.Fprintln(w)
	}
	if r.Contour != nil {
		fmt.Fprintln(w, "### Contour")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "| X | Y | X Range | Y Range | Grid | Filled |")
		fmt.Fprintln(w, "|---|---|---|---|---|---|")
		for _, p := range r.Contour {
			fmt.Fprintf(w, "| %s | %s | %s | %s | %dx%d | %d |\n",
				p.X.Param, p.Y.Param, formatRange(p.X.Range), formatRange(p.Y.Range),
				len(p.Grid.X), len(p.Grid.Y), filledCells(p.Grid))
		}
		fmt.Fprintln(w)
	}
	if r.ParallelCoordinate != nil {
		fmt.Fprintln(w, "### Parallel coordinate")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "| Dimension | Range | Values |")
		fmt.Fprintln(w, "|---|---|---|")
		for _, d := range r.ParallelCoordinate {
			fmt.Fprintf(w, "| %s | %s | %d |\n", d.Label, formatRange(d.Range), len(d.Values))
		}
		fmt.Fprintln(w)
	}
	if r.Slice != nil {
		fmt.Fprintln(w, "### Slice")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "| Param | Scale | Points |")
		fmt.Fprintln(w, "|---|---|---|")
		for _, s := range r.Slice {
			fmt.Fprintf(w, "| %s | %s | %d |\n", s.Param, scale(s.LogScale), s.Points.Len())
		}
		fmt.Fprintln(w)
	}
	return nil
}
