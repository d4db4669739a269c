package render

import (
	"strings"
	"testing"
	"time"

	"github.com/sagepoint/homepricing/internal/valuation"
)

func sampleReport() valuation.PricingReport {
	return valuation.PricingReport{
		ReportID: "r-123",
		Subject: valuation.SubjectHome{
			Address:       "4286 E Mesquite Trail, Phoenix, AZ 85044",
			Latitude:      33.50,
			Longitude:     -112.10,
			SquareFootage: 2000,
			YearBuilt:     2005,
		},
		Condition: valuation.ConditionSummary{
			OverallCondition: valuation.ConditionGood,
			ConditionScore:   72,
		},
		Price: valuation.PriceRecommendation{
			RecommendedPrice: 421880,
			Confidence:       valuation.ConfidenceMedium,
		},
		Justification: "## Executive Summary\n\nRecommended price is **$421,880**.\n\n" +
			"## Comparable Sales\n\n1. 100 W Elm St\n",
		GeneratedAt: time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestHTMLRendersMarkdownSections(t *testing.T) {
	doc, err := HTML(sampleReport())
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if !strings.Contains(doc, "<h2>Executive Summary</h2>") {
		t.Fatal("markdown heading not converted")
	}
	if !strings.Contains(doc, "<strong>$421,880</strong>") {
		t.Fatal("bold price not converted")
	}
	if !strings.Contains(doc, "<ol>") {
		t.Fatal("numbered comparable list not converted")
	}
}

func TestHTMLIncludesMetaAndBadges(t *testing.T) {
	doc, err := HTML(sampleReport())
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if !strings.Contains(doc, "4286 E Mesquite Trail, Phoenix, AZ 85044") {
		t.Fatal("missing property address in header")
	}
	if !strings.Contains(doc, "confidence-medium") {
		t.Fatal("missing confidence badge class")
	}
	if !strings.Contains(doc, "Good Condition") {
		t.Fatal("missing condition badge")
	}
	if !strings.Contains(doc, "r-123") {
		t.Fatal("missing report id")
	}
}

func TestHTMLEscapesAddress(t *testing.T) {
	report := sampleReport()
	report.Subject.Address = `1 <script>alert("x")</script> Way`
	doc, err := HTML(report)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(doc, "<script>alert") {
		t.Fatal("address not escaped in header")
	}
}
