package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/sagepoint/homepricing/internal/dataset"
	"github.com/sagepoint/homepricing/internal/render"
	"github.com/sagepoint/homepricing/internal/valuation"
)

// pricing-report runs one analysis over the on-disk data files and writes
// the report as markdown, HTML, or PDF.
func main() {
	_ = godotenv.Load()

	dataDir := flag.String("data", "./data", "path to the property data directory")
	outputPath := flag.String("out", "", "output file (defaults to stdout; required for -format pdf)")
	format := flag.String("format", "md", "output format: md, html, or pdf")
	numComps := flag.Int("comps", 7, "number of comparables to rank")
	configPath := flag.String("config", "", "path to JSON scoring config overlay")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg := valuation.DefaultConfig()
	if *configPath != "" {
		loaded, err := valuation.LoadConfigFromFile(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("load scoring config")
		}
		cfg = loaded
	}

	loader := dataset.NewLoader(*dataDir, log)
	ds, err := loader.Load()
	if err != nil {
		log.Fatal().Err(err).Str("data_dir", *dataDir).Msg("load dataset")
	}

	report, err := valuation.NewAssembler(cfg).Analyze(valuation.AnalyzeRequest{
		Subject:     ds.Subject,
		Transcript:  ds.Transcript,
		Comparables: ds.Comparables,
		NumComps:    *numComps,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("analysis failed")
	}
	log.Info().
		Str("report_id", report.ReportID).
		Float64("recommended_price", report.Price.RecommendedPrice).
		Str("confidence", string(report.Price.Confidence)).
		Msg("analysis complete")

	var out []byte
	switch *format {
	case "md":
		out = []byte(report.Justification)
	case "html":
		doc, err := render.HTML(report)
		if err != nil {
			log.Fatal().Err(err).Msg("render html")
		}
		out = []byte(doc)
	case "pdf":
		if *outputPath == "" {
			log.Fatal().Msg("-out is required for pdf output")
		}
		pdf, err := render.NewPDFRenderer().Render(context.Background(), report)
		if err != nil {
			log.Fatal().Err(err).Msg("render pdf")
		}
		out = pdf
	default:
		log.Fatal().Str("format", *format).Msg("unknown format")
	}

	if *outputPath == "" {
		fmt.Print(string(out))
		return
	}
	if err := os.WriteFile(*outputPath, out, 0o644); err != nil {
		log.Fatal().Err(err).Msg("write output")
	}
	log.Info().Str("path", *outputPath).Msg("report written")
}
