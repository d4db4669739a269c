package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sagepoint/homepricing/internal/dataset"
	"github.com/sagepoint/homepricing/internal/render"
	"github.com/sagepoint/homepricing/internal/valuation"
)

// DataSource loads the property dataset. The file loader and the SQLite
// store both satisfy it; loading happens per request so updates are
// picked up without a restart.
type DataSource interface {
	Load() (*dataset.Dataset, error)
}

// datasetAnalysisTopN is the comparable count used by the from-data
// endpoint, where the pool is large enough to support a deeper set.
const datasetAnalysisTopN = 7

type Server struct {
	assembler *valuation.Assembler
	data      DataSource
	log       zerolog.Logger
	started   time.Time
}

func NewServer(assembler *valuation.Assembler, data DataSource, log zerolog.Logger) http.Handler {
	s := &Server{
		assembler: assembler,
		data:      data,
		log:       log,
		started:   time.Now(),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/analyze-home", s.handleAnalyzeHome)
	mux.HandleFunc("/api/analyze-condition", s.handleAnalyzeCondition)
	mux.HandleFunc("/api/select-comparables", s.handleSelectComparables)
	mux.HandleFunc("/api/analyze-from-data", s.handleAnalyzeFromData)
	mux.HandleFunc("/api/data-summary", s.handleDataSummary)
	mux.HandleFunc("/api/health", s.handleHealth)
	return s.withRequestLog(mux)
}

// withRequestLog wraps the mux with a structured access log.
func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps pipeline errors onto the JSON error envelope. Unknown
// error types surface as internal failures.
func writeError(w http.ResponseWriter, err error) {
	var ve *valuation.Error
	if errors.As(err, &ve) {
		writeJSON(w, ve.Status, map[string]any{
			"ok": false,
			"error": map[string]any{
				"code":    ve.Code,
				"message": ve.Message,
				"stage":   ve.Stage,
			},
		})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]any{
		"ok": false,
		"error": map[string]any{
			"code":    valuation.CodeInternal,
			"message": err.Error(),
		},
	})
}

func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return valuation.NewValidationError("request body required")
	}
	blob, err := io.ReadAll(r.Body)
	if err != nil {
		return valuation.NewValidationError("read request body: " + err.Error())
	}
	if len(blob) == 0 {
		return valuation.NewValidationError("request body required")
	}
	if err := json.Unmarshal(blob, dst); err != nil {
		return valuation.NewValidationError("invalid JSON: " + err.Error())
	}
	return nil
}

func methodOnly(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// writeReport serves the finished report as JSON, or as rendered HTML
// when the request asks for ?format=html.
func (s *Server) writeReport(w http.ResponseWriter, r *http.Request, report valuation.PricingReport, extra map[string]any) {
	if strings.EqualFold(r.URL.Query().Get("format"), "html") {
		doc, err := render.HTML(report)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, doc)
		return
	}

	payload := map[string]any{
		"ok":                   true,
		"report_id":            report.ReportID,
		"subject_home":         report.Subject,
		"condition_summary":    report.Condition,
		"top_comparables":      report.Comparables,
		"price_recommendation": report.Price,
		"justification":        report.Justification,
		"generated_at":         report.GeneratedAt,
	}
	for k, v := range extra {
		payload[k] = v
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleAnalyzeHome(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	var req valuation.AnalyzeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	report, err := s.assembler.Analyze(req)
	if err != nil {
		writeError(w, err)
		return
	}
	s.writeReport(w, r, report, nil)
}

func (s *Server) handleAnalyzeCondition(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Subject    valuation.SubjectHome `json:"subject_home"`
		Photos     []string              `json:"photos"`
		Transcript string                `json:"video_transcript"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	summary, err := s.assembler.AnalyzeCondition(req.Subject, req.Photos, req.Transcript)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":                true,
		"condition_summary": summary,
	})
}

func (s *Server) handleSelectComparables(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Subject    valuation.SubjectHome      `json:"subject_home"`
		Candidates []valuation.ComparableSale `json:"comparable_sales"`
		NumComps   int                        `json:"num_comps"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	comparables, err := s.assembler.SelectComparables(req.Subject, req.Candidates, req.NumComps)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":          true,
		"comparables": comparables,
	})
}

func (s *Server) handleAnalyzeFromData(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	ds, err := s.data.Load()
	if err != nil {
		writeError(w, valuation.NewInsufficientDataError("load dataset: "+err.Error()))
		return
	}

	report, err := s.assembler.Analyze(valuation.AnalyzeRequest{
		Subject:     ds.Subject,
		Transcript:  ds.Transcript,
		Comparables: ds.Comparables,
		NumComps:    datasetAnalysisTopN,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	s.writeReport(w, r, report, map[string]any{"data_source": "real_data_files"})
}

func (s *Server) handleDataSummary(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	ds, err := s.data.Load()
	if err != nil {
		writeError(w, valuation.NewInsufficientDataError("load dataset: "+err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"summary": ds.Summarize(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"service":        "homepricing",
		"uptime_seconds": int(time.Since(s.started).Seconds()),
	})
}
