package monitor

import (
	"fmt"
	"image/color"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/jfsehuanes/thunderfish/internal/tracker"
)

// riseMarkerMinHz: excursions at least this tall get start/end markers;
// smaller ones would clutter the plot.
const riseMarkerMinHz = 1.5

// seriesPalette cycles across trajectories.
var seriesPalette = []color.RGBA{
	{R: 31, G: 119, B: 180, A: 255},
	{R: 255, G: 127, B: 14, A: 255},
	{R: 44, G: 160, B: 44, A: 255},
	{R: 214, G: 39, B: 40, A: 255},
	{R: 148, G: 103, B: 189, A: 255},
	{R: 140, G: 86, B: 75, A: 255},
	{R: 227, G: 119, B: 194, A: 255},
	{R: 127, G: 127, B: 127, A: 255},
	{R: 188, G: 189, B: 34, A: 255},
	{R: 23, G: 190, B: 207, A: 255},
}

// timeFactor picks the divisor and axis label so short recordings plot in
// seconds, medium ones in minutes and long ones in hours.
func timeFactor(axis tracker.TimeAxis) (float64, string) {
	end := axis[len(axis)-1]
	switch {
	case end <= 120:
		return 1, "Time [sec]"
	case end < 7200:
		return 60, "Time [min]"
	default:
		return 3600, "Time [h]"
	}
}

// SavePlot renders every trajectory as a colored frequency-over-time
// series into a PNG at path. Rise starts are marked with open red
// circles, rise ends with open green squares. The y range is derived from
// the per-trajectory mean frequencies so outlier excursions cannot
// stretch the plot.
func SavePlot(arena *tracker.Arena, axis tracker.TimeAxis, path string) error {
	live := arena.Live()
	if len(live) == 0 {
		return fmt.Errorf("nothing to plot: no trajectories")
	}

	factor, xLabel := timeFactor(axis)
	p := plot.New()
	p.X.Label.Text = xLabel
	p.Y.Label.Text = "Frequency [Hz]"

	means := make([]float64, 0, len(live))
	for i, tr := range live {
		pts := make(plotter.XYs, 0, tr.ValidCount())
		freqs := make([]float64, 0, tr.ValidCount())
		for idx, sm := range tr.Samples {
			if !sm.Valid {
				continue
			}
			pts = append(pts, plotter.XY{X: axis[idx] / factor, Y: sm.Freq})
			freqs = append(freqs, sm.Freq)
		}
		if len(pts) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("trajectory %d series: %w", tr.ID, err)
		}
		sc.GlyphStyle.Radius = vg.Points(1.5)
		sc.GlyphStyle.Color = seriesPalette[i%len(seriesPalette)]
		p.Add(sc)
		means = append(means, stat.Mean(freqs, nil))
	}
	if len(means) == 0 {
		return fmt.Errorf("nothing to plot: all trajectories empty")
	}

	var starts, ends plotter.XYs
	for _, tr := range live {
		for _, r := range tr.Rises {
			if r.StartFreq-r.EndFreq <= riseMarkerMinHz {
				continue
			}
			starts = append(starts, plotter.XY{X: axis[r.Start] / factor, Y: r.StartFreq})
			ends = append(ends, plotter.XY{X: axis[r.End] / factor, Y: r.EndFreq})
		}
	}
	if len(starts) > 0 {
		begin, err := plotter.NewScatter(starts)
		if err != nil {
			return fmt.Errorf("rise begin markers: %w", err)
		}
		begin.GlyphStyle = draw.GlyphStyle{
			Shape:  draw.RingGlyph{},
			Radius: vg.Points(3.5),
			Color:  color.RGBA{R: 255, A: 255},
		}
		p.Add(begin)
		p.Legend.Add("rise begin", begin)

		end, err := plotter.NewScatter(ends)
		if err != nil {
			return fmt.Errorf("rise end markers: %w", err)
		}
		end.GlyphStyle = draw.GlyphStyle{
			Shape:  draw.SquareGlyph{},
			Radius: vg.Points(3.5),
			Color:  color.RGBA{G: 160, A: 255},
		}
		p.Add(end)
		p.Legend.Add("rise end", end)
		p.Legend.Top = true
	}

	minMean, maxMean := means[0], means[0]
	for _, m := range means[1:] {
		if m < minMean {
			minMean = m
		}
		if m > maxMean {
			maxMean = m
		}
	}
	p.Y.Min = minMean - 150
	p.Y.Max = maxMean + 150

	if err := p.Save(11.6*vg.Inch, 8.2*vg.Inch, path); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}
