package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/lox/floatchat/internal/analysis"
	"github.com/lox/floatchat/internal/chart"
	"github.com/lox/floatchat/internal/chat"
	"github.com/lox/floatchat/internal/dataset"
	"github.com/lox/floatchat/internal/export"
	"github.com/lox/floatchat/internal/models"
	"github.com/lox/floatchat/internal/narrative"
	"github.com/lox/floatchat/internal/search"
	"github.com/lox/floatchat/internal/session"
	"github.com/lox/floatchat/internal/store"
)

type HealthStatus struct {
	Status       string `json:"status"`
	Floats       int    `json:"floats"`
	Measurements int    `json:"measurements"`
	RangesLoaded bool   `json:"ranges_loaded"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ds := s.session.Dataset()
	_, loaded := s.session.Ranges()
	health := HealthStatus{
		Status:       "ok",
		Floats:       ds.Len(),
		Measurements: dataset.MeasurementCount(ds.Floats()),
		RangesLoaded: loaded,
	}
	status := http.StatusOK
	if health.Floats == 0 || !loaded {
		health.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}

func (s *Server) handleRanges(w http.ResponseWriter, r *http.Request) {
	ranges, err := s.backend.Ranges(r.Context())
	if errors.Is(err, search.ErrDatabaseNotFound) {
		writeError(w, http.StatusServiceUnavailable, search.DatabaseNotFound)
		return
	}
	if err != nil {
		s.log.Errorf("ranges: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ranges)
}

type queryRequest struct {
	Query string `json:"query"`
}

func decodeQuery(w http.ResponseWriter, r *http.Request) (string, error) {
	var req queryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		return "", fmt.Errorf("invalid request body: %w", err)
	}
	if req.Query == "" {
		return "", errors.New("query is required")
	}
	return req.Query, nil
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q, err := decodeQuery(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := s.backend.Search(r.Context(), q)
	if err != nil {
		s.log.Errorf("search: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	q, err := decodeQuery(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	reply, err := s.session.Ask(r.Context(), q)
	switch {
	case errors.Is(err, session.ErrBusy):
		writeError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "query cancelled")
		return
	case err != nil:
		s.log.Errorf("query: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// filtersRequest mirrors models.FilterState with raw strings so each field
// can be validated.
type filtersRequest struct {
	Region     string `json:"region"`
	Time       int    `json:"time"`
	FloatType  string `json:"floatType"`
	Parameters string `json:"parameters"`
}

func (s *Server) handleGetFilters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Filters())
}

func (s *Server) handlePutFilters(w http.ResponseWriter, r *http.Request) {
	var req filtersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	var f models.FilterState
	if req.Region != "" {
		region, ok := models.ParseRegion(req.Region)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown region: "+req.Region)
			return
		}
		f.Region = region
	}
	if req.FloatType != "" {
		ft, ok := models.ParseFloatType(req.FloatType)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown float type: "+req.FloatType)
			return
		}
		f.FloatType = ft
	}
	if req.Parameters != "" {
		p, ok := models.ParseParam(req.Parameters)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown parameter: "+req.Parameters)
			return
		}
		f.Parameter = p
	}
	if req.Time < 0 {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	f.Year = req.Time

	s.session.SetFilters(f)
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleYears(w http.ResponseWriter, r *http.Request) {
	years := s.session.Dataset().Years()
	if years == nil {
		years = []int{}
	}
	writeJSON(w, http.StatusOK, years)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, ok := export.ParseFormat(r.URL.Query().Get("format"))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown export format")
		return
	}
	p, err := s.session.Export(format)
	if errors.Is(err, export.ErrUnsupportedFormat) {
		writeError(w, http.StatusNotImplemented, export.NetCDFMessage)
		return
	}
	if err != nil {
		s.log.Errorf("export: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if gz, _ := strconv.ParseBool(r.URL.Query().Get("gzip")); gz {
		if p, err = export.Gzip(p); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/gzip")
	} else {
		w.Header().Set("Content-Type", p.ContentType)
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, p.Filename))
	w.Header().Set("X-Export-Message", p.Message())
	w.Write(p.Body)
}

func (s *Server) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p, ok := models.ParseParam(q.Get("parameter"))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown parameter")
		return
	}
	kind := q.Get("kind")
	if kind == "" {
		kind = chart.KindBars
	}

	subset := s.session.Subset()
	series := chart.Series{
		Name:      narrative.Label(p),
		Parameter: p,
		Unit:      narrative.Unit(p),
		Kind:      kind,
	}
	switch kind {
	case chart.KindBars:
		res := analysis.Analyze(subset, []models.Param{p})
		series.Points = chart.ToSeries(res.Aggregates[p])
	case chart.KindTrend:
		series.Name += " over time"
		series.Points = chart.ToTimeSeries(subset, p)
	default:
		writeError(w, http.StatusBadRequest, "unknown chart kind")
		return
	}

	img, err := s.charts.Render(series, chart.DefaultWidth, chart.DefaultHeight)
	if err != nil {
		s.log.Errorf("chart: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(img)
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, chat.Suggestions())
}

func (s *Server) handleSuggestion(w http.ResponseWriter, r *http.Request) {
	sg, ok := chat.FindSuggestion(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "unknown suggestion")
		return
	}
	writeJSON(w, http.StatusOK, sg)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	entries := []store.QueryLogEntry{}
	if s.store != nil {
		got, err := s.store.RecentQueries(r.Context(), limit)
		if err != nil {
			s.log.Errorf("history: %v", err)
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if got != nil {
			entries = got
		}
	}
	writeJSON(w, http.StatusOK, entries)
}
