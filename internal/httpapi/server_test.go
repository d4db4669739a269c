package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sagepoint/homepricing/internal/dataset"
	"github.com/sagepoint/homepricing/internal/valuation"
)

// fakeData serves a fixed in-memory dataset.
type fakeData struct {
	ds  *dataset.Dataset
	err error
}

func (f *fakeData) Load() (*dataset.Dataset, error) {
	return f.ds, f.err
}

func testSubject() valuation.SubjectHome {
	return valuation.SubjectHome{
		Address:       "4286 E Mesquite Trail, Phoenix, AZ 85044",
		Latitude:      33.50,
		Longitude:     -112.10,
		SquareFootage: 2000,
		Bedrooms:      3,
		Bathrooms:     2,
		YearBuilt:     2005,
		Garage:        true,
	}
}

func testComparables(n int) []valuation.ComparableSale {
	out := make([]valuation.ComparableSale, n)
	for i := range out {
		out[i] = valuation.ComparableSale{
			Address:       fmt.Sprintf("%d W Elm St, Phoenix, AZ 85044", 100+i),
			Latitude:      33.50 + float64(i)*0.01,
			Longitude:     -112.10,
			SquareFootage: 2000 + i*50,
			Bedrooms:      3,
			Bathrooms:     2,
			YearBuilt:     2005 - i,
			Garage:        true,
			SalePrice:     400000 + float64(i)*5000,
			DaysSinceSale: 30 + i*10,
		}
	}
	return out
}

func testServer(t *testing.T, data DataSource) http.Handler {
	t.Helper()
	cfg := valuation.DefaultConfig()
	cfg.ReferenceYear = 2025
	cfg.Clock = func() time.Time { return time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC) }
	return NewServer(valuation.NewAssembler(cfg), data, zerolog.Nop())
}

func postJSON(t *testing.T, h http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	blob, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(blob))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func getPath(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v (%s)", err, w.Body.String())
	}
	return body
}

func TestAnalyzeHome(t *testing.T) {
	h := testServer(t, &fakeData{})

	w := postJSON(t, h, "/api/analyze-home", valuation.AnalyzeRequest{
		Subject:     testSubject(),
		Transcript:  "The kitchen was renovated. Some worn carpet upstairs.",
		Comparables: testComparables(6),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}

	body := decodeResponse(t, w)
	if body["ok"] != true {
		t.Fatalf("expected ok response: %v", body)
	}
	if body["report_id"] == "" || body["report_id"] == nil {
		t.Fatal("missing report_id")
	}
	price, _ := body["price_recommendation"].(map[string]any)
	if price["recommended_price"].(float64) <= 0 {
		t.Fatalf("bad recommendation: %v", price)
	}
	comps, _ := body["top_comparables"].([]any)
	if len(comps) != 5 {
		t.Fatalf("expected default 5 comparables, got %d", len(comps))
	}
}

func TestAnalyzeHomeHTMLFormat(t *testing.T) {
	h := testServer(t, &fakeData{})

	blob, err := json.Marshal(valuation.AnalyzeRequest{
		Subject:     testSubject(),
		Transcript:  "Renovated kitchen with granite counters.",
		Comparables: testComparables(6),
	})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/analyze-home?format=html", bytes.NewReader(blob))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("expected HTML content type, got %q", ct)
	}
	doc := w.Body.String()
	if !strings.Contains(doc, "<h2>Executive Summary</h2>") {
		t.Fatal("rendered document missing executive summary heading")
	}
	if !strings.Contains(doc, testSubject().Address) {
		t.Fatal("rendered document missing subject address")
	}
}

func TestAnalyzeHomeValidationEnvelope(t *testing.T) {
	h := testServer(t, &fakeData{})

	subject := testSubject()
	subject.SquareFootage = 0
	w := postJSON(t, h, "/api/analyze-home", valuation.AnalyzeRequest{
		Subject:     subject,
		Comparables: testComparables(3),
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}

	body := decodeResponse(t, w)
	if body["ok"] != false {
		t.Fatalf("expected ok=false: %v", body)
	}
	errObj, _ := body["error"].(map[string]any)
	if errObj["code"] != valuation.CodeValidation {
		t.Fatalf("expected validation code, got %v", errObj)
	}
	if errObj["stage"] != valuation.StageConditionAnalysis {
		t.Fatalf("expected condition stage, got %v", errObj["stage"])
	}
}

func TestAnalyzeHomeNoComparables(t *testing.T) {
	h := testServer(t, &fakeData{})

	w := postJSON(t, h, "/api/analyze-home", valuation.AnalyzeRequest{
		Subject:    testSubject(),
		Transcript: "Renovated kitchen.",
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeResponse(t, w)
	errObj, _ := body["error"].(map[string]any)
	if errObj["code"] != valuation.CodeInsufficientData {
		t.Fatalf("expected insufficient_data, got %v", errObj)
	}
	if errObj["stage"] != valuation.StagePriceEstimation {
		t.Fatalf("expected estimation stage, got %v", errObj["stage"])
	}
}

func TestAnalyzeHomeMalformedJSON(t *testing.T) {
	h := testServer(t, &fakeData{})

	req := httptest.NewRequest(http.MethodPost, "/api/analyze-home", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", w.Code)
	}
}

func TestAnalyzeCondition(t *testing.T) {
	h := testServer(t, &fakeData{})

	w := postJSON(t, h, "/api/analyze-condition", map[string]any{
		"subject_home":     testSubject(),
		"video_transcript": "Beautiful hardwood floors and granite counters.",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	body := decodeResponse(t, w)
	summary, _ := body["condition_summary"].(map[string]any)
	if summary["transcript_analyzed"] != true {
		t.Fatalf("expected transcript-based summary: %v", summary)
	}
	if summary["condition_score"].(float64) <= 0 {
		t.Fatalf("bad condition score: %v", summary)
	}
}

func TestSelectComparables(t *testing.T) {
	h := testServer(t, &fakeData{})

	w := postJSON(t, h, "/api/select-comparables", map[string]any{
		"subject_home":     testSubject(),
		"comparable_sales": testComparables(8),
		"num_comps":        3,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	body := decodeResponse(t, w)
	comps, _ := body["comparables"].([]any)
	if len(comps) != 3 {
		t.Fatalf("expected 3 comparables, got %d", len(comps))
	}
	first, _ := comps[0].(map[string]any)
	if _, ok := first["similarity_score"]; !ok {
		t.Fatalf("missing similarity score: %v", first)
	}
}

func TestAnalyzeFromData(t *testing.T) {
	data := &fakeData{ds: &dataset.Dataset{
		Subject:     testSubject(),
		Transcript:  "The kitchen was renovated last spring.",
		Comparables: testComparables(10),
	}}
	h := testServer(t, data)

	w := getPath(t, h, "/api/analyze-from-data")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	body := decodeResponse(t, w)
	if body["data_source"] != "real_data_files" {
		t.Fatalf("missing data_source marker: %v", body["data_source"])
	}
	comps, _ := body["top_comparables"].([]any)
	if len(comps) != 7 {
		t.Fatalf("expected 7 comparables from data analysis, got %d", len(comps))
	}
}

func TestAnalyzeFromDataLoadFailure(t *testing.T) {
	data := &fakeData{err: fmt.Errorf("no such directory")}
	h := testServer(t, data)

	w := getPath(t, h, "/api/analyze-from-data")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unloadable dataset, got %d", w.Code)
	}
}

func TestDataSummary(t *testing.T) {
	data := &fakeData{ds: &dataset.Dataset{
		Subject:     testSubject(),
		Transcript:  "Short transcript.",
		Comparables: testComparables(4),
	}}
	h := testServer(t, data)

	w := getPath(t, h, "/api/data-summary")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	body := decodeResponse(t, w)
	summary, _ := body["summary"].(map[string]any)
	pool, _ := summary["comparable_properties"].(map[string]any)
	if pool["count"].(float64) != 4 {
		t.Fatalf("wrong comparable count: %v", pool)
	}
}

func TestHealth(t *testing.T) {
	h := testServer(t, &fakeData{})
	w := getPath(t, h, "/api/health")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	body := decodeResponse(t, w)
	if body["status"] != "healthy" {
		t.Fatalf("unexpected health payload: %v", body)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := testServer(t, &fakeData{})

	if w := getPath(t, h, "/api/analyze-home"); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET analyze-home: expected 405, got %d", w.Code)
	}
	if w := postJSON(t, h, "/api/health", map[string]any{}); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST health: expected 405, got %d", w.Code)
	}
}
