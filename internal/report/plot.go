package report

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/diffraction.report/internal/diffraction"
)

const fwhmFactor = 2.3548200450309493

// SavePNG renders the observed pattern, the fitted background and the
// reconstructed peak model to a PNG file. The result must carry processed
// data; server responses include it by default.
func SavePNG(result *diffraction.Result, file string) error {
	if result.Processed == nil || len(result.Processed.Q) == 0 {
		return fmt.Errorf("result has no processed data to plot")
	}
	q := result.Processed.Q
	intensity := observedCurve(result)

	p := plot.New()
	p.Title.Text = plotTitle(result)
	p.X.Label.Text = "Q (A^-1)"
	p.Y.Label.Text = "Intensity"

	obs := make(plotter.XYs, len(q))
	for i := range q {
		obs[i] = plotter.XY{X: q[i], Y: intensity[i]}
	}
	obsLine, err := plotter.NewLine(obs)
	if err != nil {
		return fmt.Errorf("observed line: %w", err)
	}
	obsLine.Width = vg.Points(1)
	p.Add(obsLine)
	p.Legend.Add("observed", obsLine)

	if result.Background != nil && len(result.Background.Points) == len(q) {
		bg := make(plotter.XYs, len(q))
		for i := range q {
			bg[i] = plotter.XY{X: q[i], Y: result.Background.Points[i]}
		}
		bgLine, err := plotter.NewLine(bg)
		if err != nil {
			return fmt.Errorf("background line: %w", err)
		}
		bgLine.Width = vg.Points(1)
		bgLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(bgLine)
		p.Legend.Add("background", bgLine)
	}

	if len(result.Peaks) > 0 {
		model := modelCurve(result, q)
		fit := make(plotter.XYs, len(q))
		for i := range q {
			fit[i] = plotter.XY{X: q[i], Y: model[i]}
		}
		fitLine, err := plotter.NewLine(fit)
		if err != nil {
			return fmt.Errorf("model line: %w", err)
		}
		fitLine.Width = vg.Points(1)
		p.Add(fitLine)
		p.Legend.Add("fitted model", fitLine)
	}

	return p.Save(14*vg.Inch, 6*vg.Inch, file)
}

// observedCurve recovers the as-measured intensities. Processed data is
// background-subtracted, so the fitted background is added back when present.
func observedCurve(result *diffraction.Result) []float64 {
	intensity := result.Processed.Intensity
	observed := make([]float64, len(intensity))
	copy(observed, intensity)
	if result.Background != nil && len(result.Background.Points) == len(observed) {
		for i := range observed {
			observed[i] += result.Background.Points[i]
		}
	}
	return observed
}

// modelCurve reconstructs background plus Gaussian peak contributions on the
// sample grid, matching how the overall fit quality is computed.
func modelCurve(result *diffraction.Result, q []float64) []float64 {
	model := make([]float64, len(q))
	if result.Background != nil && len(result.Background.Points) == len(q) {
		copy(model, result.Background.Points)
	}
	for _, peak := range result.Peaks {
		sigma := peak.Width / fwhmFactor
		if sigma <= 0 || math.IsNaN(sigma) {
			continue
		}
		for i, x := range q {
			d := x - peak.Position
			model[i] += peak.Height * math.Exp(-d*d/(2*sigma*sigma))
		}
	}
	return model
}

func plotTitle(result *diffraction.Result) string {
	name := "Diffraction pattern"
	if result.Processed != nil && result.Processed.SampleName != "" {
		name = result.Processed.SampleName
	}
	return fmt.Sprintf("%s (%d peaks, R^2=%.3f)",
		name, len(result.Peaks), result.Metadata.OverallRSquared)
}
