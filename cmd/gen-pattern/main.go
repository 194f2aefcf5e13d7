// Command gen-pattern generates synthetic two-column diffraction patterns
// for testing the analysis pipeline.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"
)

func main() {
	output := flag.String("o", "sample.xy", "output path")
	points := flag.Int("n", 1000, "number of sample points")
	qMin := flag.Float64("qmin", 1.0, "start of the Q range (A^-1)")
	qMax := flag.Float64("qmax", 10.0, "end of the Q range (A^-1)")
	peaks := flag.String("peaks", "3:100:0.05,5:250:0.08,7:80:0.06",
		"comma-separated position:height:sigma triples")
	slope := flag.Float64("slope", 2.0, "linear background slope")
	offset := flag.Float64("offset", 10.0, "linear background offset")
	noise := flag.Float64("noise", 0.5, "gaussian noise amplitude")
	seed := flag.Int64("seed", 1, "noise seed")
	flag.Parse()

	specs, err := parsePeaks(*peaks)
	if err != nil {
		log.Fatalf("bad -peaks value: %v", err)
	}

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("create output: %v", err)
	}
	defer f.Close()

	rng := rand.New(rand.NewSource(*seed))
	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "# synthetic pattern: %d points, %d peaks\n", *points, len(specs))
	for i := 0; i < *points; i++ {
		q := *qMin + (*qMax-*qMin)*float64(i)/float64(*points-1)
		y := *offset + *slope*q + rng.NormFloat64()**noise
		for _, p := range specs {
			d := q - p.pos
			y += p.height * math.Exp(-d*d/(2*p.sigma*p.sigma))
		}
		fmt.Fprintf(w, "%.6f %.6f\n", q, y)
	}
	if err := w.Flush(); err != nil {
		log.Fatalf("write output: %v", err)
	}
	log.Printf("✓ Created: %s", *output)
}

type peakSpec struct {
	pos    float64
	height float64
	sigma  float64
}

func parsePeaks(s string) ([]peakSpec, error) {
	var specs []peakSpec
	for _, triple := range strings.Split(s, ",") {
		parts := strings.Split(strings.TrimSpace(triple), ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("expected position:height:sigma, got %q", triple)
		}
		var vals [3]float64
		for i, p := range parts {
			v, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return nil, fmt.Errorf("parse %q: %w", p, err)
			}
			vals[i] = v
		}
		if vals[2] <= 0 {
			return nil, fmt.Errorf("sigma must be positive in %q", triple)
		}
		specs = append(specs, peakSpec{pos: vals[0], height: vals[1], sigma: vals[2]})
	}
	return specs, nil
}
