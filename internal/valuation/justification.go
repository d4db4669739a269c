package valuation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// JustificationGenerator renders the structured pipeline outputs into a
// fixed sequence of markdown sections. `## ` marks section boundaries and
// `- ` marks list items; the presentation layer parses exactly that
// markup. Fully deterministic: no free generation.
type JustificationGenerator struct{}

func NewJustificationGenerator() *JustificationGenerator {
	return &JustificationGenerator{}
}

func (g *JustificationGenerator) Generate(subject SubjectHome, condition ConditionSummary, comparables []ComparableSale, price PriceRecommendation) string {
	var b strings.Builder

	// --- Executive Summary ---
	fmt.Fprintf(&b, "## Executive Summary\n\n")
	fmt.Fprintf(&b, "Based on the comparable sales analysis and condition assessment, the recommended listing price for %s is %s. ", subject.Address, formatUSD(price.RecommendedPrice))
	fmt.Fprintf(&b, "The probable sale range is %s to %s, with %s confidence in this estimate.\n\n",
		formatUSD(price.PriceRange.Low), formatUSD(price.PriceRange.High), strings.ToLower(string(price.Confidence)))

	// --- Market Analysis ---
	fmt.Fprintf(&b, "## Market Analysis\n\n")
	if len(comparables) > 0 {
		var priceSum, sqftSum float64
		for _, c := range comparables {
			priceSum += c.SalePrice
			sqftSum += float64(c.SquareFootage)
		}
		avgPrice := priceSum / float64(len(comparables))
		avgPerSqft := priceSum / sqftSum
		fmt.Fprintf(&b, "The analysis used %d comparable sales with an average sale price of %s. ", len(comparables), formatUSD(avgPrice))
		fmt.Fprintf(&b, "The recommended price works out to $%.2f per square foot against a comparable-set average of $%.2f per square foot.\n\n",
			price.PricePerSqft, avgPerSqft)
	} else {
		fmt.Fprintf(&b, "No comparable sales were available for market context.\n\n")
	}

	// --- Condition Assessment ---
	fmt.Fprintf(&b, "## Condition Assessment\n\n")
	fmt.Fprintf(&b, "The property is rated %s (score %d/100). %s\n", condition.OverallCondition, condition.ConditionScore, condition.Summary)
	if len(condition.Highlights) > 0 {
		fmt.Fprintf(&b, "\nPositive attributes:\n\n")
		for _, h := range condition.Highlights {
			fmt.Fprintf(&b, "- %s\n", h)
		}
	}
	if len(condition.Concerns) > 0 {
		fmt.Fprintf(&b, "\nAreas for attention:\n\n")
		for _, c := range condition.Concerns {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}
	fmt.Fprintf(&b, "\n")

	// --- Comparable Sales ---
	fmt.Fprintf(&b, "## Comparable Sales\n\n")
	if len(comparables) > 0 {
		fmt.Fprintf(&b, "The %d most comparable recent sales, in ranked order:\n\n", len(comparables))
		for i, c := range comparables {
			fmt.Fprintf(&b, "%d. %s\n", i+1, c.Address)
			fmt.Fprintf(&b, "   - Sale price: %s (%s sq ft, %d bed / %s bath)\n",
				formatUSD(c.SalePrice), formatThousands(int64(c.SquareFootage)), c.Bedrooms, trimFloat(c.Bathrooms))
			fmt.Fprintf(&b, "   - Distance: %.2f miles, sold %d days ago\n", c.DistanceMiles, c.DaysSinceSale)
			fmt.Fprintf(&b, "   - Similarity: %.1f/100\n", c.SimilarityScore)
		}
		fmt.Fprintf(&b, "\n")
	} else {
		fmt.Fprintf(&b, "No ranked comparables to list.\n\n")
	}

	// --- Price Adjustments ---
	fmt.Fprintf(&b, "## Price Adjustments\n\n")
	fmt.Fprintf(&b, "Base price from weighted comparables: %s. Total adjustment: %+.1f%%.\n\n", formatUSD(price.BasePrice), price.TotalAdjustmentPct)
	fmt.Fprintf(&b, "- Condition adjustment: %+.1f%%\n", price.Adjustments.ConditionPct)
	for _, feature := range sortedKeys(price.Adjustments.FeaturesPct) {
		fmt.Fprintf(&b, "- %s adjustment: %+.1f%%\n", titleWord(feature), price.Adjustments.FeaturesPct[feature])
	}
	fmt.Fprintf(&b, "\n")

	// --- Conclusion ---
	fmt.Fprintf(&b, "## Conclusion\n\n")
	fmt.Fprintf(&b, "The recommended listing price of %s is supported by %s. ", formatUSD(price.RecommendedPrice), confidenceBasis(price.Confidence))
	fmt.Fprintf(&b, "This positions the property competitively while reflecting its assessed condition.\n")

	return b.String()
}

func confidenceBasis(confidence ConfidenceLevel) string {
	switch confidence {
	case ConfidenceHigh:
		return "a deep set of highly similar recent sales"
	case ConfidenceLow:
		return "limited comparable data; the wider price range reflects that uncertainty"
	default:
		return "solid comparable data with some variation"
	}
}

// formatUSD renders a whole-dollar amount with thousands separators.
func formatUSD(amount float64) string {
	neg := amount < 0
	v := int64(amount + 0.5)
	if neg {
		v = int64(-amount + 0.5)
	}
	s := "$" + formatThousands(v)
	if neg {
		return "-" + s
	}
	return s
}

func formatThousands(v int64) string {
	s := strconv.FormatInt(v, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func titleWord(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Deterministic section output regardless of map iteration order.
	sort.Strings(keys)
	return keys
}
