package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/diffraction.report/internal/diffraction"
)

// WriteHTML renders a self-contained HTML report with the processed pattern,
// fitted background and model overlaid on one chart, plus a peak map.
func WriteHTML(w io.Writer, result *diffraction.Result) error {
	if result.Processed == nil || len(result.Processed.Q) == 0 {
		return fmt.Errorf("result has no processed data to plot")
	}
	q := result.Processed.Q
	intensity := observedCurve(result)
	model := modelCurve(result, q)

	xLabels := make([]string, len(q))
	obs := make([]opts.LineData, len(q))
	fit := make([]opts.LineData, len(q))
	for i := range q {
		xLabels[i] = fmt.Sprintf("%.4f", q[i])
		obs[i] = opts.LineData{Value: intensity[i]}
		fit[i] = opts.LineData{Value: model[i]}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Peak Analysis", Width: "1200px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    plotTitle(result),
			Subtitle: fmt.Sprintf("detected=%d fitted=%d", result.Metadata.NumPeaksDetected, result.Metadata.NumPeaksFitted),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Q (A^-1)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Intensity"}),
	)
	line.SetXAxis(xLabels).
		AddSeries("observed", obs).
		AddSeries("fitted model", fit)

	if result.Background != nil && len(result.Background.Points) == len(q) {
		bg := make([]opts.LineData, len(q))
		for i := range q {
			bg[i] = opts.LineData{Value: result.Background.Points[i]}
		}
		line.AddSeries("background", bg)
	}

	page := components.NewPage()
	page.AddCharts(line)

	if len(result.Peaks) > 0 {
		page.AddCharts(peakScatter(result))
	}

	return page.Render(w)
}

// peakScatter plots fitted peak positions against height, sized by a fixed
// symbol so weak peaks stay visible.
func peakScatter(result *diffraction.Result) *charts.Scatter {
	data := make([]opts.ScatterData, 0, len(result.Peaks))
	for _, p := range result.Peaks {
		data = append(data, opts.ScatterData{Value: []interface{}{p.Position, p.Height, p.DSpacing}})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1200px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: "Fitted peaks", Subtitle: fmt.Sprintf("n=%d", len(result.Peaks))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Q (A^-1)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Height"}),
	)
	scatter.AddSeries("peaks", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))
	return scatter
}
