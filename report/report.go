// Package report renders harness results as text and charts.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/sarchlab/bpsim/harness"
)

// DefaultOutputFile is the report file written when no other is named.
const DefaultOutputFile = "brchPredict.txt"

// WriteText writes the per-run counters of a single result.
func WriteText(w io.Writer, res *harness.Result) error {
	s := res.Stats

	lines := []string{
		fmt.Sprintf("predictor: %s", res.Name),
		fmt.Sprintf("takenCorrect: %d", s.TakenCorrect),
		fmt.Sprintf("takenIncorrect: %d", s.TakenIncorrect),
		fmt.Sprintf("notTakenCorrect: %d", s.NotTakenCorrect),
		fmt.Sprintf("notTakenIncorrect: %d", s.NotTakenIncorrect),
		fmt.Sprintf("Precision: %.4f%%", s.Accuracy()),
	}

	if s.BTBLookups > 0 {
		lines = append(lines,
			fmt.Sprintf("btbHitRate: %.2f%%", s.BTBHitRate()),
			fmt.Sprintf("targetMispredictions: %d", s.TargetMispredictions))
	}

	if res.Summary.Windows > 1 {
		lines = append(lines, fmt.Sprintf(
			"windows: %d mean %.2f%% min %.2f%% max %.2f%% stddev %.2f p10 %.2f%%",
			res.Summary.Windows, res.Summary.Mean, res.Summary.Min,
			res.Summary.Max, res.Summary.StdDev, res.Summary.P10))
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// WriteTable writes one row per result.
func WriteTable(w io.Writer, results []*harness.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "PREDICTOR\tBRANCHES\tMISPREDICTS\tACCURACY\tWORST WINDOW")
	for _, res := range results {
		s := res.Stats
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f%%\t%.2f%%\n",
			res.Name, s.Total(), s.Total()-s.Correct(), s.Accuracy(), res.Summary.Min)
	}

	return tw.Flush()
}

// PlotAccuracy draws accuracy per window, one line per result, and saves
// the chart to path. The image format follows the file extension.
func PlotAccuracy(results []*harness.Result, path string) error {
	p := plot.New()
	p.Title.Text = "Branch prediction accuracy"
	p.X.Label.Text = "window"
	p.Y.Label.Text = "accuracy (%)"
	p.Y.Max = 100

	lines := make([]interface{}, 0, 2*len(results))
	for _, res := range results {
		if len(res.Windows) == 0 {
			log.WithFields(log.Fields{"predictor": res.Name}).
				Warn("No windows to plot")
			continue
		}

		pts := make(plotter.XYs, len(res.Windows))
		for i, acc := range res.Windows {
			pts[i].X = float64(i)
			pts[i].Y = acc
		}
		lines = append(lines, res.Name, pts)
	}

	if len(lines) == 0 {
		return errors.New("no accuracy windows to plot")
	}

	if err := plotutil.AddLinePoints(p, lines...); err != nil {
		return errors.Wrap(err, "failed plotting accuracy")
	}

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "failed saving plot to %q", path)
	}
	return nil
}
