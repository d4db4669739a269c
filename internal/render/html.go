package render

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/sagepoint/homepricing/internal/valuation"
)

// HTML renders a pricing report's markdown justification into a styled,
// self-contained HTML document suitable for viewing or PDF printing.
func HTML(report valuation.PricingReport) (string, error) {
	var content strings.Builder
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(report.Justification), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}

	return "<!doctype html><html><head><meta charset='utf-8'><title>Pricing Report</title>" +
		"<style>" + reportCSS + "</style></head><body>" +
		"<div class='report-wrap'><section class='report-viewer'>" +
		"<div class='report-header'>" +
		"<div class='report-meta'>" + metaHTML(report) + "</div>" +
		"<div class='report-badges'>" + badgeHTML(report) + "</div>" +
		"</div><div class='report-html'>" + content.String() + "</div>" +
		"</section></div></body></html>", nil
}

const reportCSS = `
body{font-family:Georgia,serif;background:#f9f7f3;margin:0;padding:1rem;color:#1c1917;}
.report-wrap{max-width:900px;margin:0 auto;}
.report-viewer{background:#fff;border:1px solid #e7e5e4;border-radius:6px;padding:1.5rem 2rem;}
.report-header{display:flex;justify-content:space-between;align-items:flex-start;border-bottom:2px solid #1c1917;padding-bottom:0.75rem;margin-bottom:1rem;}
.report-meta{font-size:0.85rem;color:#44403c;line-height:1.5;}
.report-meta strong{color:#1c1917;}
.report-badge{display:inline-block;background:#ecfdf5;color:#065f46;border:1px solid #6ee7b7;border-radius:4px;padding:0.2rem 0.55rem;font-size:0.75rem;font-weight:700;margin-left:0.35rem;}
.report-badge.confidence-low{background:#fef2f2;color:#991b1b;border-color:#fca5a5;}
.report-badge.confidence-medium{background:#fffbeb;color:#92400e;border-color:#fcd34d;}
.report-html h2{font-size:1.15rem;border-bottom:1px solid #d6d3d1;padding-bottom:0.25rem;}
.report-html li{margin:0.2rem 0;}
.report-html table{width:100%;border-collapse:collapse;font-size:0.85rem;}
.report-html th,.report-html td{border:1px solid #a8a29e;padding:0.35rem 0.45rem;text-align:left;}
@media print{ @page{size:auto;margin:12mm;} body{background:#fff;padding:0;} .report-viewer{border:0;} }
`

func metaHTML(report valuation.PricingReport) string {
	var out strings.Builder
	out.WriteString("<div><strong>Property:</strong> " + html.EscapeString(report.Subject.Address) + "</div>")
	if report.ReportID != "" {
		out.WriteString("<div><strong>Report:</strong> " + html.EscapeString(report.ReportID) + "</div>")
	}
	if !report.GeneratedAt.IsZero() {
		out.WriteString("<div><strong>Date:</strong> " + html.EscapeString(report.GeneratedAt.Format("January 2, 2006")+" "+report.GeneratedAt.Format(time.Kitchen)+" UTC") + "</div>")
	}
	return out.String()
}

func badgeHTML(report valuation.PricingReport) string {
	var out strings.Builder
	out.WriteString("<span class='report-badge confidence-" +
		strings.ToLower(string(report.Price.Confidence)) + "'>" +
		html.EscapeString(string(report.Price.Confidence)) + " Confidence</span>")
	out.WriteString("<span class='report-badge'>" +
		html.EscapeString(string(report.Condition.OverallCondition)) + " Condition</span>")
	return out.String()
}
