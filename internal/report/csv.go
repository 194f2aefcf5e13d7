// Package report renders analysis results as CSV tables, PNG plots and
// standalone HTML pages.
package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/banshee-data/diffraction.report/internal/diffraction"
)

var csvHeader = []string{
	"peak_id",
	"position_A_inv",
	"d_spacing_A",
	"height",
	"width",
	"area",
	"r_squared",
	"profile_type",
}

// WriteCSV writes the fitted peak list as a CSV table. An empty peak list
// produces a single explanatory line rather than a bare header.
func WriteCSV(w io.Writer, peaks []diffraction.Peak) error {
	if len(peaks) == 0 {
		_, err := io.WriteString(w, "No peaks detected\n")
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, p := range peaks {
		row := []string{
			strconv.Itoa(p.ID),
			formatFloat(p.Position),
			formatFloat(p.DSpacing),
			formatFloat(p.Height),
			formatFloat(p.Width),
			formatFloat(p.Area),
			formatFloat(p.RSquared),
			string(p.ProfileType),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
