package valuation

import (
	"math"
	"sort"
)

// ComparableSelector ranks candidate sales against the subject with a
// weighted multi-factor distance; lower distance means more similar.
type ComparableSelector struct {
	cfg Config
}

func NewComparableSelector(cfg Config) *ComparableSelector {
	return &ComparableSelector{cfg: cfg}
}

// rawFactors holds one candidate's pre-normalization factor values.
type rawFactors struct {
	geoMiles float64
	sqftDiff float64
	bedBath  float64
	ageYears float64
	recency  float64
}

// Select returns the top n candidates ordered by ascending weighted
// distance, ties broken by more recent sale. Candidates missing square
// footage, coordinates, or a positive sale price are excluded before
// scoring. An empty candidate list yields an empty result, not an error.
//
// Every factor is normalized against the maximum observed value across the
// full candidate pool of the request, before ranking. A zero denominator
// (all candidates identical on a factor) contributes zero distance.
func (s *ComparableSelector) Select(subject SubjectHome, candidates []ComparableSale, n int) ([]ComparableSale, error) {
	if err := validateSubject(subject); err != nil {
		return nil, err
	}
	if n <= 0 {
		n = s.cfg.DefaultTopN
	}

	valid := make([]ComparableSale, 0, len(candidates))
	for _, c := range candidates {
		if !usableCandidate(c) {
			continue
		}
		valid = append(valid, c)
	}
	if len(valid) == 0 {
		return []ComparableSale{}, nil
	}

	raws := make([]rawFactors, len(valid))
	var maxes rawFactors
	for i, c := range valid {
		r := rawFactors{
			geoMiles: haversineMiles(subject.Latitude, subject.Longitude, c.Latitude, c.Longitude, s.cfg.EarthRadiusMiles),
			sqftDiff: math.Abs(float64(subject.SquareFootage - c.SquareFootage)),
			bedBath:  math.Abs(float64(subject.Bedrooms-c.Bedrooms)) + math.Abs(subject.Bathrooms-c.Bathrooms),
			ageYears: math.Abs(float64(subject.YearBuilt - c.YearBuilt)),
			recency:  float64(c.DaysSinceSale),
		}
		raws[i] = r
		maxes.geoMiles = math.Max(maxes.geoMiles, r.geoMiles)
		maxes.sqftDiff = math.Max(maxes.sqftDiff, r.sqftDiff)
		maxes.bedBath = math.Max(maxes.bedBath, r.bedBath)
		maxes.ageYears = math.Max(maxes.ageYears, r.ageYears)
		maxes.recency = math.Max(maxes.recency, r.recency)
	}

	w := s.cfg.Weights
	scored := make([]ComparableSale, len(valid))
	for i, c := range valid {
		r := raws[i]
		distance := w.Geographic*normalize(r.geoMiles, maxes.geoMiles) +
			w.Size*normalize(r.sqftDiff, maxes.sqftDiff) +
			w.BedBath*normalize(r.bedBath, maxes.bedBath) +
			w.Age*normalize(r.ageYears, maxes.ageYears) +
			w.Recency*normalize(r.recency, maxes.recency)

		c.KNNDistance = round(distance, 4)
		c.SimilarityScore = clamp(round(100*(1-distance), 2), 0, 100)
		c.DistanceMiles = round(r.geoMiles, 2)
		c.ScoreBreakdown = &ScoreBreakdown{
			DistanceMiles: round(r.geoMiles, 2),
			SqftDiff:      int(r.sqftDiff),
			BedroomsDiff:  absInt(subject.Bedrooms - c.Bedrooms),
			BathroomsDiff: math.Abs(subject.Bathrooms - c.Bathrooms),
			AgeDiffYears:  int(r.ageYears),
			DaysSinceSale: c.DaysSinceSale,
			PoolMatch:     subject.Pool == c.Pool,
			GarageMatch:   subject.Garage == c.Garage,
		}
		scored[i] = c
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].KNNDistance != scored[j].KNNDistance {
			return scored[i].KNNDistance < scored[j].KNNDistance
		}
		return scored[i].DaysSinceSale < scored[j].DaysSinceSale
	})

	if len(scored) > n {
		scored = scored[:n]
	}
	return scored, nil
}

// usableCandidate rejects records that would poison scoring: zero/missing
// square footage (division by zero in price-per-sqft), missing coordinates,
// or a non-positive sale price.
func usableCandidate(c ComparableSale) bool {
	if c.SquareFootage <= 0 {
		return false
	}
	if c.Latitude == 0 && c.Longitude == 0 {
		return false
	}
	if c.SalePrice <= 0 {
		return false
	}
	if c.DaysSinceSale < 0 {
		return false
	}
	return true
}

// haversineMiles is the great-circle distance between two coordinates.
func haversineMiles(lat1, lon1, lat2, lon2, radiusMiles float64) float64 {
	la1 := lat1 * math.Pi / 180
	la2 := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(la1)*math.Cos(la2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return radiusMiles * c
}

func normalize(v, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return v / max
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
