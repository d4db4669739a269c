package valuation

import (
	"fmt"
	"math"
)

// PriceEstimator turns the ranked comparables and the condition summary
// into a point price, a range, and a confidence level.
type PriceEstimator struct {
	cfg Config
}

func NewPriceEstimator(cfg Config) *PriceEstimator {
	return &PriceEstimator{cfg: cfg}
}

// Estimate computes the recommendation. An empty comparable list is an
// insufficient-data failure: this stage never emits a zero price.
func (e *PriceEstimator) Estimate(subject SubjectHome, comparables []ComparableSale, condition ConditionSummary) (PriceRecommendation, error) {
	if err := validateSubject(subject); err != nil {
		return PriceRecommendation{}, err
	}
	if len(comparables) == 0 {
		return PriceRecommendation{}, NewInsufficientDataError("no usable comparable sales to estimate from")
	}

	base, err := e.basePrice(subject, comparables)
	if err != nil {
		return PriceRecommendation{}, err
	}

	conditionAdj := e.conditionAdjustmentPct(condition.ConditionScore)
	featureAdj := e.featureAdjustmentsPct(subject, comparables)

	totalPct := conditionAdj
	for _, pct := range featureAdj {
		totalPct += pct
	}

	recommended := math.Round(base * (1 + totalPct/100))
	confidence := e.confidence(comparables, condition)
	rangePct := e.rangePct(confidence)

	return PriceRecommendation{
		BasePrice: math.Round(base),
		Adjustments: Adjustments{
			ConditionPct: round(conditionAdj, 2),
			FeaturesPct:  featureAdj,
		},
		TotalAdjustmentPct: round(totalPct, 2),
		RecommendedPrice:   recommended,
		PriceRange: PriceRange{
			Low:  math.Round(recommended * (1 - rangePct/100)),
			High: math.Round(recommended * (1 + rangePct/100)),
		},
		PricePerSqft: round(recommended/float64(subject.SquareFootage), 2),
		Confidence:   confidence,
	}, nil
}

// basePrice is the inverse-distance-weighted average of the comparables'
// per-square-foot prices scaled to the subject's square footage. Weights
// are 1/(distance+ε), normalized to sum to 1.
func (e *PriceEstimator) basePrice(subject SubjectHome, comparables []ComparableSale) (float64, error) {
	var weightSum float64
	weights := make([]float64, len(comparables))
	for i, c := range comparables {
		if c.SquareFootage <= 0 {
			return 0, NewComputationError(fmt.Sprintf("comparable %q has non-positive square footage", c.Address))
		}
		w := 1 / (c.KNNDistance + e.cfg.DistanceEpsilon)
		weights[i] = w
		weightSum += w
	}
	if weightSum <= 0 || math.IsInf(weightSum, 0) || math.IsNaN(weightSum) {
		return 0, NewComputationError("comparable weights do not normalize")
	}

	var base float64
	for i, c := range comparables {
		adjusted := c.SalePrice / float64(c.SquareFootage) * float64(subject.SquareFootage)
		base += adjusted * (weights[i] / weightSum)
	}
	return base, nil
}

// conditionAdjustmentPct maps the 0-100 condition score linearly onto the
// capped adjustment band: 50 is neutral, 100 is +cap, 0 is -cap.
func (e *PriceEstimator) conditionAdjustmentPct(score int) float64 {
	pct := float64(score-50) / 50 * e.cfg.ConditionAdjCapPct
	return clamp(pct, -e.cfg.ConditionAdjCapPct, e.cfg.ConditionAdjCapPct)
}

// featureAdjustmentsPct applies the fixed bumps for features the subject
// has and the comparable majority lacks, or vice versa.
func (e *PriceEstimator) featureAdjustmentsPct(subject SubjectHome, comparables []ComparableSale) map[string]float64 {
	out := map[string]float64{}

	poolShare := featureShare(comparables, func(c ComparableSale) bool { return c.Pool })
	if subject.Pool && poolShare < 0.5 {
		out["pool"] = e.cfg.PoolAdjustmentPct
	} else if !subject.Pool && poolShare > 0.5 {
		out["pool"] = -e.cfg.PoolAdjustmentPct
	}

	garageShare := featureShare(comparables, func(c ComparableSale) bool { return c.Garage })
	if subject.Garage && garageShare < 0.5 {
		out["garage"] = e.cfg.GarageAdjustmentPct
	} else if !subject.Garage && garageShare > 0.5 {
		out["garage"] = -e.cfg.GarageAdjustmentPct
	}

	return out
}

func featureShare(comparables []ComparableSale, has func(ComparableSale) bool) float64 {
	count := 0
	for _, c := range comparables {
		if has(c) {
			count++
		}
	}
	return float64(count) / float64(len(comparables))
}

// confidence applies the fixed rule table: Low when the comparable set is
// thin or dissimilar, High only with a deep, similar set, Medium otherwise.
// An age-only condition assessment (no transcript) caps the result at
// Medium.
func (e *PriceEstimator) confidence(comparables []ComparableSale, condition ConditionSummary) ConfidenceLevel {
	avg := averageSimilarity(comparables)

	level := ConfidenceMedium
	switch {
	case len(comparables) < e.cfg.LowConfBelowComps || avg < e.cfg.LowConfBelowSimilarity:
		level = ConfidenceLow
	case len(comparables) >= e.cfg.HighConfMinComps && avg >= e.cfg.HighConfMinSimilarity:
		level = ConfidenceHigh
	}

	if !condition.TranscriptAnalyzed && level == ConfidenceHigh {
		level = ConfidenceMedium
	}
	return level
}

func averageSimilarity(comparables []ComparableSale) float64 {
	if len(comparables) == 0 {
		return 0
	}
	var sum float64
	for _, c := range comparables {
		sum += c.SimilarityScore
	}
	return sum / float64(len(comparables))
}

func (e *PriceEstimator) rangePct(confidence ConfidenceLevel) float64 {
	switch confidence {
	case ConfidenceHigh:
		return e.cfg.RangeHighPct
	case ConfidenceLow:
		return e.cfg.RangeLowPct
	default:
		return e.cfg.RangeMediumPct
	}
}
