package valuation

import (
	"strings"
	"testing"
)

func sampleRecommendation() PriceRecommendation {
	return PriceRecommendation{
		BasePrice: 398000,
		Adjustments: Adjustments{
			ConditionPct: 5,
			FeaturesPct:  map[string]float64{"pool": 3, "garage": -2},
		},
		TotalAdjustmentPct: 6,
		RecommendedPrice:   421880,
		PriceRange:         PriceRange{Low: 400786, High: 442974},
		PricePerSqft:       210.94,
		Confidence:         ConfidenceMedium,
	}
}

func TestGenerateSectionOrder(t *testing.T) {
	gen := NewJustificationGenerator()
	md := gen.Generate(testSubject(), analyzedCondition(80), similarComps(3, 85), sampleRecommendation())

	sections := []string{
		"## Executive Summary",
		"## Market Analysis",
		"## Condition Assessment",
		"## Comparable Sales",
		"## Price Adjustments",
		"## Conclusion",
	}
	last := -1
	for _, s := range sections {
		idx := strings.Index(md, s)
		if idx < 0 {
			t.Fatalf("missing section %q", s)
		}
		if idx <= last {
			t.Fatalf("section %q out of order", s)
		}
		last = idx
	}
}

func TestGenerateIncludesKeyFigures(t *testing.T) {
	gen := NewJustificationGenerator()
	md := gen.Generate(testSubject(), analyzedCondition(80), similarComps(3, 85), sampleRecommendation())

	for _, want := range []string{
		"$421,880",                  // recommended price
		"$400,786",                  // range low
		"$442,974",                  // range high
		"medium confidence",         // lowercased confidence
		"- Condition adjustment: +5.0%",
		"- Garage adjustment: -2.0%", // sorted feature keys: garage before pool
		"- Pool adjustment: +3.0%",
		"Similarity: 85.0/100",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("justification missing %q", want)
		}
	}
	if strings.Index(md, "Garage adjustment") > strings.Index(md, "Pool adjustment") {
		t.Error("feature adjustments not in sorted key order")
	}
}

func TestGenerateHandlesEmptyComparables(t *testing.T) {
	gen := NewJustificationGenerator()
	md := gen.Generate(testSubject(), analyzedCondition(80), nil, sampleRecommendation())

	if !strings.Contains(md, "No comparable sales were available") {
		t.Fatal("expected empty-market fallback text")
	}
	if !strings.Contains(md, "No ranked comparables to list") {
		t.Fatal("expected empty comparable list fallback text")
	}
}

func TestGenerateListsFindings(t *testing.T) {
	condition := analyzedCondition(80)
	condition.Highlights = []string{"Renovated kitchen."}
	condition.Concerns = []string{"Roof needs repair."}

	gen := NewJustificationGenerator()
	md := gen.Generate(testSubject(), condition, similarComps(3, 85), sampleRecommendation())

	if !strings.Contains(md, "- Renovated kitchen.") {
		t.Fatal("highlight not rendered as a list item")
	}
	if !strings.Contains(md, "- Roof needs repair.") {
		t.Fatal("concern not rendered as a list item")
	}
}

func TestGenerateDeterministic(t *testing.T) {
	gen := NewJustificationGenerator()
	first := gen.Generate(testSubject(), analyzedCondition(80), similarComps(3, 85), sampleRecommendation())
	second := gen.Generate(testSubject(), analyzedCondition(80), similarComps(3, 85), sampleRecommendation())
	if first != second {
		t.Fatal("expected byte-identical output for identical input")
	}
}

func TestFormatUSD(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "$0"},
		{999, "$999"},
		{1000, "$1,000"},
		{430000, "$430,000"},
		{1234567, "$1,234,567"},
		{421879.6, "$421,880"},
		{-25000, "-$25,000"},
	}
	for _, tc := range cases {
		if got := formatUSD(tc.in); got != tc.want {
			t.Errorf("formatUSD(%f): got %s want %s", tc.in, got, tc.want)
		}
	}
}
