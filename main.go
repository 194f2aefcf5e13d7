package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/banshee-data/diffraction.report/internal/api"
	"github.com/banshee-data/diffraction.report/internal/chifile"
	"github.com/banshee-data/diffraction.report/internal/diffraction"
	"github.com/banshee-data/diffraction.report/internal/report"
)

var (
	listen = flag.String("listen", ":8080", "Listen address for the analysis service")
	input  = flag.String("input", "", "Analyze a pattern file (.chi/.xy/.dat/.txt) instead of serving")
	remote = flag.String("remote", "", "Send the analysis to a running service at this base URL instead of running locally")
	output = flag.String("output", "", "Directory for JSON/CSV/plot outputs (default: alongside the input file)")

	profileType     = flag.String("profile", "gaussian", "Peak profile: gaussian, lorentzian, voigt or pseudo_voigt")
	backgroundType  = flag.String("background", "linear", "Background model: none, linear, polynomial, chebyshev or spline")
	backgroundOrder = flag.Int("background-order", 1, "Background polynomial order")
	quality         = flag.Float64("quality", 0.95, "Minimum per-peak R^2 to keep a fit")
	minProminence   = flag.Float64("min-prominence", 0.01, "Peak prominence threshold as a fraction of the intensity range")
	minDistance     = flag.Float64("min-distance", 0.1, "Minimum peak separation in Q units")

	savePlot = flag.Bool("plot", false, "Write a PNG plot of the fit")
	saveHTML = flag.Bool("html", false, "Write an interactive HTML report")
	saveCSV  = flag.Bool("csv", false, "Write the peak list as CSV")
)

func main() {
	flag.Parse()

	if *input != "" {
		if err := runAnalysis(*input); err != nil {
			log.Fatalf("analysis failed: %v", err)
		}
		return
	}

	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	serve(*listen)
}

func buildConfig() (diffraction.AnalysisConfig, error) {
	cfg := diffraction.DefaultConfig()
	cfg.Fitting.ProfileType = diffraction.ProfileType(*profileType)
	cfg.Fitting.BackgroundType = diffraction.BackgroundType(*backgroundType)
	cfg.Fitting.BackgroundOrder = *backgroundOrder
	cfg.QualityThreshold = *quality
	cfg.Detection.MinProminence = minProminence
	cfg.Detection.MinDistance = minDistance

	switch cfg.Fitting.ProfileType {
	case diffraction.ProfileGaussian, diffraction.ProfileLorentzian,
		diffraction.ProfileVoigt, diffraction.ProfilePseudoVoigt:
	default:
		return cfg, fmt.Errorf("unknown profile type %q", *profileType)
	}
	switch cfg.Fitting.BackgroundType {
	case diffraction.BackgroundNone, diffraction.BackgroundLinear,
		diffraction.BackgroundPolynomial, diffraction.BackgroundChebyshev,
		diffraction.BackgroundSpline:
	default:
		return cfg, fmt.Errorf("unknown background type %q", *backgroundType)
	}
	return cfg, nil
}

func runAnalysis(path string) error {
	data, err := chifile.Load(path)
	if err != nil {
		return err
	}
	log.Printf("loaded %d points from %s", len(data.Q), path)

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	pattern := diffraction.Pattern{
		Q:          data.Q,
		Intensity:  data.Intensity,
		Filename:   filepath.Base(path),
		SampleName: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}

	var result *diffraction.Result
	if *remote != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		result, err = api.NewClient(*remote).Analyze(ctx, api.AnalyzeRequest{Data: pattern, Config: &cfg})
	} else {
		result, err = diffraction.New().Analyze(pattern.Q, pattern.Intensity, cfg)
	}
	if err != nil {
		return err
	}
	if result.Processed != nil {
		result.Processed.Filename = pattern.Filename
		result.Processed.SampleName = pattern.SampleName
	}

	printSummary(path, result)
	return saveOutputs(path, result)
}

func printSummary(path string, result *diffraction.Result) {
	meta := result.Metadata
	fmt.Println("\n=== Peak Analysis Results ===")
	fmt.Printf("File: %s\n", path)
	fmt.Printf("Peaks detected: %d\n", meta.NumPeaksDetected)
	fmt.Printf("Peaks fitted: %d\n", meta.NumPeaksFitted)
	fmt.Printf("Overall R^2: %.3f\n", meta.OverallRSquared)
	fmt.Printf("Processing time: %.1f ms\n", meta.ProcessingMs)

	if len(meta.Warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range meta.Warnings {
			fmt.Printf("  [WARNING] %s\n", w)
		}
	}

	if len(result.Peaks) > 0 {
		fmt.Printf("\n=== Peak Details (%d peaks) ===\n", len(result.Peaks))
		fmt.Println("ID | Position (A^-1) | d-spacing (A) | Height | Width | R^2")
		fmt.Println(strings.Repeat("-", 60))
		for _, p := range result.Peaks {
			fmt.Printf("%2d | %11.4f | %10.3f | %6.0f | %5.3f | %.3f\n",
				p.ID, p.Position, p.DSpacing, p.Height, p.Width, p.RSquared)
		}
	}
}

func saveOutputs(path string, result *diffraction.Result) error {
	dir := *output
	if dir == "" {
		dir = filepath.Dir(path)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	jsonFile := filepath.Join(dir, base+"_peaks.json")
	buf, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(jsonFile, append(buf, '\n'), 0o644); err != nil {
		return err
	}
	log.Printf("results saved to %s", jsonFile)

	if *saveCSV {
		f, err := os.Create(filepath.Join(dir, base+"_peaks.csv"))
		if err != nil {
			return err
		}
		if err := report.WriteCSV(f, result.Peaks); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		log.Printf("peak summary saved to %s", f.Name())
	}

	if *savePlot {
		file := filepath.Join(dir, base+"_fit.png")
		if err := report.SavePNG(result, file); err != nil {
			return err
		}
		log.Printf("plot saved to %s", file)
	}

	if *saveHTML {
		f, err := os.Create(filepath.Join(dir, base+"_report.html"))
		if err != nil {
			return err
		}
		if err := report.WriteHTML(f, result); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		log.Printf("HTML report saved to %s", f.Name())
	}
	return nil
}

func serve(addr string) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()

	apiMux := api.NewServer(diffraction.New()).ServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", apiMux))
	mux.Handle("/", apiMux)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("got request %q", r.URL.Path)
		mux.ServeHTTP(w, r)
	})

	server := &http.Server{
		Addr:    addr,
		Handler: h,
	}

	go func() {
		log.Printf("peak analysis service listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	log.Printf("Graceful shutdown complete")
}
