// Package chifile loads two-column powder-diffraction text files (.chi,
// .xy, .dat): whitespace-separated Q and intensity values with optional
// comment and header lines. The loader performs no peak analysis; it only
// produces the (Q, intensity) pair the engine consumes.
package chifile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Data is a loaded two-column pattern.
type Data struct {
	Q         []float64
	Intensity []float64
	Filename  string
}

var supportedExtensions = map[string]bool{
	".chi": true,
	".xy":  true,
	".dat": true,
	".txt": true,
}

// Load reads a supported two-column file from disk.
func Load(path string) (*Data, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExtensions[ext] {
		return nil, fmt.Errorf("unsupported file format %q (supported: .chi .xy .dat .txt)", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	data.Filename = filepath.Base(path)
	return data, nil
}

// Parse reads two whitespace-separated float columns. Lines starting with
// '#' or '!' are comments; blank lines are skipped. Leading non-numeric
// lines are tolerated as file headers, but once data rows have begun a
// malformed row is an error reported with its line number.
func Parse(r io.Reader) (*Data, error) {
	var q, intensity []float64

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	inData := false
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}

		fields := strings.Fields(line)
		qv, err1 := strconv.ParseFloat(fields[0], 64)
		var iv float64
		err2 := fmt.Errorf("missing intensity column")
		if len(fields) >= 2 {
			iv, err2 = strconv.ParseFloat(fields[1], 64)
		}

		if err1 != nil || err2 != nil {
			if !inData {
				// Header line before any data rows.
				continue
			}
			return nil, fmt.Errorf("line %d: expected two numeric columns, got %q", lineNo, line)
		}

		inData = true
		q = append(q, qv)
		intensity = append(intensity, iv)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(q) == 0 {
		return nil, fmt.Errorf("no data rows found")
	}
	return &Data{Q: q, Intensity: intensity}, nil
}
