package valuation

import "time"

// ConditionLabel is the ordered condition rating derived from the numeric
// condition score. Poor < Fair < Average < Good < Excellent.
type ConditionLabel string

const (
	ConditionPoor      ConditionLabel = "Poor"
	ConditionFair      ConditionLabel = "Fair"
	ConditionAverage   ConditionLabel = "Average"
	ConditionGood      ConditionLabel = "Good"
	ConditionExcellent ConditionLabel = "Excellent"
)

type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "Low"
	ConfidenceMedium ConfidenceLevel = "Medium"
	ConfidenceHigh   ConfidenceLevel = "High"
)

// Stage names attached to errors surfaced by the assembler.
const (
	StageConditionAnalysis   = "condition_analysis"
	StageComparableSelection = "comparable_selection"
	StagePriceEstimation     = "price_estimation"
	StageJustification       = "justification"
)

// SubjectHome is the property being valued. It is immutable for the
// duration of an analysis run.
type SubjectHome struct {
	Address       string  `json:"address" validate:"required"`
	Latitude      float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude     float64 `json:"longitude" validate:"gte=-180,lte=180"`
	SquareFootage int     `json:"square_footage" validate:"required,gt=0"`
	Bedrooms      int     `json:"bedrooms" validate:"gte=0"`
	Bathrooms     float64 `json:"bathrooms" validate:"gte=0"`
	YearBuilt     int     `json:"year_built" validate:"required,gt=1700"`
	Pool          bool    `json:"pool,omitempty"`
	Garage        bool    `json:"garage,omitempty"`
	LotSize       int     `json:"lot_size,omitempty"`
}

// ComparableSale is a previously sold property used as a valuation
// reference. SimilarityScore, KNNDistance, DistanceMiles, and
// ScoreBreakdown are derived, analysis-scoped fields: the selector always
// overwrites them, and any caller-supplied values are ignored.
type ComparableSale struct {
	Address       string  `json:"address"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	SquareFootage int     `json:"square_footage"`
	Bedrooms      int     `json:"bedrooms"`
	Bathrooms     float64 `json:"bathrooms"`
	YearBuilt     int     `json:"year_built"`
	Pool          bool    `json:"pool,omitempty"`
	Garage        bool    `json:"garage,omitempty"`
	LotSize       int     `json:"lot_size,omitempty"`
	SalePrice     float64 `json:"sale_price"`
	DaysSinceSale int     `json:"days_since_sale"`
	SaleDate      string  `json:"sale_date,omitempty"`

	SimilarityScore float64         `json:"similarity_score"`
	KNNDistance     float64         `json:"knn_distance"`
	DistanceMiles   float64         `json:"distance_miles"`
	ScoreBreakdown  *ScoreBreakdown `json:"score_breakdown,omitempty"`
}

// ScoreBreakdown records each ranking factor's raw, pre-normalization
// contribution for display and debugging.
type ScoreBreakdown struct {
	DistanceMiles  float64 `json:"distance_miles"`
	SqftDiff       int     `json:"sqft_diff"`
	BedroomsDiff   int     `json:"bedrooms_diff"`
	BathroomsDiff  float64 `json:"bathrooms_diff"`
	AgeDiffYears   int     `json:"age_diff_years"`
	DaysSinceSale  int     `json:"days_since_sale"`
	PoolMatch      bool    `json:"pool_match"`
	GarageMatch    bool    `json:"garage_match"`
}

// ConditionSummary is the output of the condition analyzer.
// TranscriptAnalyzed is false when the walkthrough transcript was empty and
// the score fell back to the age-only baseline; the estimator caps
// confidence at Medium in that case.
type ConditionSummary struct {
	OverallCondition   ConditionLabel    `json:"overall_condition"`
	ConditionScore     int               `json:"condition_score"`
	Highlights         []string          `json:"highlights"`
	Concerns           []string          `json:"concerns"`
	Interior           map[string]string `json:"interior_condition"`
	Exterior           map[string]string `json:"exterior_condition"`
	Summary            string            `json:"summary"`
	TranscriptAnalyzed bool              `json:"transcript_analyzed"`
}

type PriceRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Adjustments holds the percentage adjustments applied on top of the
// comparable-derived base price. Values are percentages, not fractions.
type Adjustments struct {
	ConditionPct float64            `json:"condition_adjustment"`
	FeaturesPct  map[string]float64 `json:"feature_adjustments"`
}

type PriceRecommendation struct {
	BasePrice          float64         `json:"base_price"`
	Adjustments        Adjustments     `json:"adjustments"`
	TotalAdjustmentPct float64         `json:"total_adjustment_pct"`
	RecommendedPrice   float64         `json:"recommended_price"`
	PriceRange         PriceRange      `json:"price_range"`
	PricePerSqft       float64         `json:"price_per_sqft"`
	Confidence         ConfidenceLevel `json:"confidence"`
}

// PricingReport is the immutable result of one analysis run.
type PricingReport struct {
	ReportID      string              `json:"report_id"`
	Subject       SubjectHome         `json:"subject_home"`
	Condition     ConditionSummary    `json:"condition_summary"`
	Comparables   []ComparableSale    `json:"top_comparables"`
	Price         PriceRecommendation `json:"price_recommendation"`
	Justification string              `json:"justification"`
	GeneratedAt   time.Time           `json:"generated_at"`
}

// AnalyzeRequest carries the inputs of a full pipeline run.
type AnalyzeRequest struct {
	Subject     SubjectHome      `json:"subject_home"`
	Photos      []string         `json:"photos"`
	Transcript  string           `json:"video_transcript"`
	Comparables []ComparableSale `json:"comparable_sales"`
	NumComps    int              `json:"num_comps,omitempty"`
}
