package monitor

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/jfsehuanes/thunderfish/internal/tracker"
)

// SaveHTMLReport writes a standalone interactive scatter report of all
// trajectories to path. One series per trajectory, so individual fish can
// be toggled in the legend.
func SaveHTMLReport(arena *tracker.Arena, axis tracker.TimeAxis, recording, path string) error {
	live := arena.Live()
	if len(live) == 0 {
		return fmt.Errorf("nothing to report: no trajectories")
	}

	factor, xLabel := timeFactor(axis)

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Frequency trajectories",
			Width:     "1160px",
			Height:    "820px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Fundamental frequency trajectories",
			Subtitle: fmt.Sprintf("recording=%s trajectories=%d", recording, len(live)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: xLabel, NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "Frequency [Hz]", Scale: opts.Bool(true)}),
	)

	for _, tr := range live {
		data := make([]opts.ScatterData, 0, tr.ValidCount())
		for idx, sm := range tr.Samples {
			if !sm.Valid {
				continue
			}
			data = append(data, opts.ScatterData{Value: []interface{}{axis[idx] / factor, sm.Freq}})
		}
		scatter.AddSeries(fmt.Sprintf("fish %d", tr.ID), data,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	if err := scatter.Render(f); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}
