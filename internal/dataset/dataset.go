package dataset

import (
	"github.com/sagepoint/homepricing/internal/valuation"
)

// Dataset bundles the three property data files into the inputs of one
// analysis run.
type Dataset struct {
	Subject     valuation.SubjectHome
	Transcript  string
	Comparables []valuation.ComparableSale
}

// Summary describes the loaded data without running an analysis.
type Summary struct {
	Subject     SubjectSummary    `json:"subject_property"`
	Transcript  TranscriptSummary `json:"video_transcript"`
	Comparables CompPoolSummary   `json:"comparable_properties"`
}

type SubjectSummary struct {
	Address   string  `json:"address"`
	Bedrooms  int     `json:"bedrooms"`
	Bathrooms float64 `json:"bathrooms"`
	Sqft      int     `json:"sqft"`
	YearBuilt int     `json:"year_built"`
}

type TranscriptSummary struct {
	Length  int    `json:"length"`
	Preview string `json:"preview"`
}

type CompPoolSummary struct {
	Count           int      `json:"count"`
	SampleAddresses []string `json:"sample_addresses"`
}

const (
	transcriptPreviewChars = 200
	summarySampleSize      = 5
)

// Summarize reduces the dataset to the shape served by the data-summary
// endpoint.
func (d *Dataset) Summarize() Summary {
	preview := d.Transcript
	if len(preview) > transcriptPreviewChars {
		preview = preview[:transcriptPreviewChars] + "..."
	}

	samples := make([]string, 0, summarySampleSize)
	for _, c := range d.Comparables {
		samples = append(samples, c.Address)
		if len(samples) == summarySampleSize {
			break
		}
	}

	return Summary{
		Subject: SubjectSummary{
			Address:   d.Subject.Address,
			Bedrooms:  d.Subject.Bedrooms,
			Bathrooms: d.Subject.Bathrooms,
			Sqft:      d.Subject.SquareFootage,
			YearBuilt: d.Subject.YearBuilt,
		},
		Transcript: TranscriptSummary{
			Length:  len(d.Transcript),
			Preview: preview,
		},
		Comparables: CompPoolSummary{
			Count:           len(d.Comparables),
			SampleAddresses: samples,
		},
	}
}
