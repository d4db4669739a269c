package valuation

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// FactorWeights are the fixed coefficients of the comparable ranking
// distance. They must sum to 1.0.
type FactorWeights struct {
	Geographic float64 `json:"geographic"`
	Size       float64 `json:"size"`
	BedBath    float64 `json:"bed_bath"`
	Age        float64 `json:"age"`
	Recency    float64 `json:"recency"`
}

// Keywords is the versioned keyword configuration the condition analyzer
// matches against the walkthrough transcript. Matching is case-insensitive
// and whole-word (multi-word phrases match literally); the lists carry
// lowercase entries.
type Keywords struct {
	Version  string   `json:"version"`
	Positive []string `json:"positive"`
	Negative []string `json:"negative"`
}

// Config collects every scoring constant in one place so tests can assert
// the documented values and callers can substitute their own.
type Config struct {
	Weights          FactorWeights `json:"weights"`
	EarthRadiusMiles float64       `json:"earth_radius_miles"`
	DefaultTopN      int           `json:"default_top_n"`

	// Condition scoring.
	Keywords           Keywords `json:"keywords"`
	BaseConditionScore int      `json:"base_condition_score"`
	SentimentTiltMax   int      `json:"sentiment_tilt_max"`
	MaxListedFindings  int      `json:"max_listed_findings"`
	InteriorAreas      []string `json:"interior_areas"`
	ExteriorAreas      []string `json:"exterior_areas"`

	// Price estimation.
	DistanceEpsilon        float64 `json:"distance_epsilon"`
	ConditionAdjCapPct     float64 `json:"condition_adjustment_cap_pct"`
	PoolAdjustmentPct      float64 `json:"pool_adjustment_pct"`
	GarageAdjustmentPct    float64 `json:"garage_adjustment_pct"`
	RangeHighPct           float64 `json:"range_high_confidence_pct"`
	RangeMediumPct         float64 `json:"range_medium_confidence_pct"`
	RangeLowPct            float64 `json:"range_low_confidence_pct"`
	HighConfMinComps       int     `json:"high_confidence_min_comps"`
	HighConfMinSimilarity  float64 `json:"high_confidence_min_similarity"`
	LowConfBelowComps      int     `json:"low_confidence_below_comps"`
	LowConfBelowSimilarity float64 `json:"low_confidence_below_similarity"`

	// ReferenceYear anchors property-age math. Zero means the current year
	// at analysis time.
	ReferenceYear int `json:"reference_year,omitempty"`

	// Clock stamps reports; nil means time.Now.
	Clock func() time.Time `json:"-"`
}

// DefaultConfig returns the documented production constants.
//
// Ranking distance = 0.30*geo + 0.20*size + 0.15*bedbath + 0.15*age +
// 0.20*recency, each factor normalized to [0,1] against the maximum
// observed value across the full candidate pool of the request.
func DefaultConfig() Config {
	return Config{
		Weights: FactorWeights{
			Geographic: 0.30,
			Size:       0.20,
			BedBath:    0.15,
			Age:        0.15,
			Recency:    0.20,
		},
		EarthRadiusMiles: 3958.8,
		DefaultTopN:      5,

		Keywords: Keywords{
			Version: "2025-09",
			Positive: []string{
				"renovated", "remodeled", "updated", "upgraded", "new roof",
				"new appliances", "granite", "modern", "spacious", "pristine",
				"immaculate", "well-maintained", "excellent condition",
				"good condition", "hardwood", "beautiful",
			},
			Negative: []string{
				"leak", "damage", "outdated", "worn", "crack", "repair",
				"replace", "stain", "mold", "issue", "problem", "concern",
				"needs paint", "dated",
			},
		},
		BaseConditionScore: 75,
		SentimentTiltMax:   15,
		MaxListedFindings:  5,
		InteriorAreas:      []string{"kitchen", "bathroom", "bedroom", "living", "flooring", "walls"},
		ExteriorAreas:      []string{"roof", "siding", "paint", "landscaping", "driveway", "backyard"},

		DistanceEpsilon:        0.001,
		ConditionAdjCapPct:     10,
		PoolAdjustmentPct:      3,
		GarageAdjustmentPct:    2,
		RangeHighPct:           4,
		RangeMediumPct:         5,
		RangeLowPct:            8,
		HighConfMinComps:       5,
		HighConfMinSimilarity:  70,
		LowConfBelowComps:      3,
		LowConfBelowSimilarity: 40,
	}
}

// LoadConfigFromFile overlays JSON config on top of the defaults. The
// defaults are returned alongside the error when the file cannot be used.
func LoadConfigFromFile(path string) (Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func (c Config) now() time.Time {
	if c.Clock != nil {
		return c.Clock()
	}
	return time.Now()
}

func (c Config) referenceYear() int {
	if c.ReferenceYear != 0 {
		return c.ReferenceYear
	}
	return c.now().Year()
}
