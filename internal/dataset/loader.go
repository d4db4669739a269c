package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sagepoint/homepricing/internal/valuation"
)

// The three files the loader expects in the data directory. Names follow
// the upstream data-collection export.
const (
	SubjectFile    = "SUBJECT_PROPERTY_DETAILS.json"
	TranscriptFile = "PRE_WALK_VIDEO_TRANSCRIPTION.json"
	SalesFile      = "PHOENIX_SALES_RECORDS.json"
)

// fallbackDaysSinceSale is assumed when a listing's sale date is missing
// or unparseable.
const fallbackDaysSinceSale = 90

// Loader reads the property data files from a directory and normalizes
// them into pipeline inputs. Listings with no square footage or sale
// price are dropped with a warning rather than failing the whole load.
type Loader struct {
	dir string
	now func() time.Time
	log zerolog.Logger
}

func NewLoader(dir string, log zerolog.Logger) *Loader {
	return &Loader{dir: dir, now: time.Now, log: log}
}

// Load reads and normalizes all three files.
func (l *Loader) Load() (*Dataset, error) {
	subject, err := l.loadSubject()
	if err != nil {
		return nil, err
	}
	transcript, err := l.loadTranscript()
	if err != nil {
		return nil, err
	}
	comparables, err := l.loadComparables()
	if err != nil {
		return nil, err
	}
	return &Dataset{
		Subject:     subject,
		Transcript:  transcript,
		Comparables: comparables,
	}, nil
}

// --- raw file shapes ---

type propertyAddress struct {
	Street    string  `json:"street"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	Zip       string  `json:"zip"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type propertyDetails struct {
	PropertyAddress  propertyAddress `json:"property_address"`
	Bedrooms         int             `json:"bedrooms"`
	FullBathrooms    float64         `json:"full_bathrooms"`
	Sqft             int             `json:"sqft"`
	YearBuilt        int             `json:"year_built"`
	LotSqft          int             `json:"lot_sqft"`
	GarageSpaces     int             `json:"garage_spaces"`
	HasPrivatePool   bool            `json:"has_private_pool"`
	HasCommunityPool bool            `json:"has_community_pool"`
}

type subjectFile struct {
	PropertyDetails propertyDetails `json:"property_details"`
}

type transcriptFile struct {
	TranscribeResult struct {
		Transcript string `json:"transcript"`
	} `json:"transcribe_result"`
}

type salesListing struct {
	// list_price is recorded in cents.
	ListPrice       int64           `json:"list_price"`
	SaleDate        string          `json:"sale_date"`
	PropertyDetails propertyDetails `json:"property_details"`
}

type salesFile struct {
	Listings []salesListing `json:"listings"`
}

func (l *Loader) loadSubject() (valuation.SubjectHome, error) {
	var raw subjectFile
	if err := l.readJSON(SubjectFile, &raw); err != nil {
		return valuation.SubjectHome{}, err
	}
	d := raw.PropertyDetails
	return valuation.SubjectHome{
		Address:       formatAddress(d.PropertyAddress),
		Latitude:      d.PropertyAddress.Latitude,
		Longitude:     d.PropertyAddress.Longitude,
		SquareFootage: d.Sqft,
		Bedrooms:      d.Bedrooms,
		Bathrooms:     d.FullBathrooms,
		YearBuilt:     d.YearBuilt,
		Pool:          d.HasPrivatePool || d.HasCommunityPool,
		Garage:        d.GarageSpaces > 0,
		LotSize:       d.LotSqft,
	}, nil
}

func (l *Loader) loadTranscript() (string, error) {
	var raw transcriptFile
	if err := l.readJSON(TranscriptFile, &raw); err != nil {
		return "", err
	}
	return raw.TranscribeResult.Transcript, nil
}

func (l *Loader) loadComparables() ([]valuation.ComparableSale, error) {
	var raw salesFile
	if err := l.readJSON(SalesFile, &raw); err != nil {
		return nil, err
	}

	out := make([]valuation.ComparableSale, 0, len(raw.Listings))
	skipped := 0
	for _, listing := range raw.Listings {
		d := listing.PropertyDetails
		salePrice := float64(listing.ListPrice) / 100
		if d.Sqft <= 0 || salePrice <= 0 {
			skipped++
			continue
		}
		out = append(out, valuation.ComparableSale{
			Address:       formatAddress(d.PropertyAddress),
			Latitude:      d.PropertyAddress.Latitude,
			Longitude:     d.PropertyAddress.Longitude,
			SquareFootage: d.Sqft,
			Bedrooms:      d.Bedrooms,
			Bathrooms:     d.FullBathrooms,
			YearBuilt:     d.YearBuilt,
			Pool:          d.HasPrivatePool,
			Garage:        d.GarageSpaces > 0,
			LotSize:       d.LotSqft,
			SalePrice:     salePrice,
			SaleDate:      listing.SaleDate,
			DaysSinceSale: l.daysSinceSale(listing.SaleDate),
		})
	}
	if skipped > 0 {
		l.log.Warn().Int("skipped", skipped).Int("loaded", len(out)).
			Msg("dropped sales listings with missing sqft or price")
	}
	return out, nil
}

func (l *Loader) readJSON(name string, v any) error {
	path := filepath.Join(l.dir, name)
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

// daysSinceSale derives recency from the listing's sale date, falling back
// to a stale-but-usable default when the date is absent or malformed.
func (l *Loader) daysSinceSale(saleDate string) int {
	saleDate = strings.TrimSpace(saleDate)
	if saleDate == "" {
		return fallbackDaysSinceSale
	}
	t, err := time.Parse("2006-01-02", saleDate)
	if err != nil {
		t, err = time.Parse(time.RFC3339, saleDate)
	}
	if err != nil {
		l.log.Warn().Str("sale_date", saleDate).Msg("unparseable sale date, using fallback recency")
		return fallbackDaysSinceSale
	}
	days := int(l.now().UTC().Sub(t).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

func formatAddress(a propertyAddress) string {
	return strings.TrimSpace(fmt.Sprintf("%s, %s, %s %s", a.Street, a.City, a.State, a.Zip))
}
