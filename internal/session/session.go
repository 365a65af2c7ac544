// Package session runs the query pipeline for one chat session. A Session
// owns the sidebar filters, the loaded dataset and the global ranges, and
// answers at most one query at a time.
package session

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lox/floatchat/internal/analysis"
	"github.com/lox/floatchat/internal/chart"
	"github.com/lox/floatchat/internal/chat"
	"github.com/lox/floatchat/internal/dataset"
	"github.com/lox/floatchat/internal/export"
	"github.com/lox/floatchat/internal/htmlutil"
	"github.com/lox/floatchat/internal/metrics"
	"github.com/lox/floatchat/internal/models"
	"github.com/lox/floatchat/internal/narrative"
	"github.com/lox/floatchat/internal/query"
	"github.com/lox/floatchat/internal/search"
	"github.com/lox/floatchat/internal/store"
)

// ErrBusy is returned under PolicyReject while another query is pending.
var ErrBusy = errors.New("another query is still being answered")

// DefaultDelay matches the pause before the reply is shown in the chat page.
const DefaultDelay = 500 * time.Millisecond

// Policy decides what happens to a query that arrives while another one is
// still pending.
type Policy string

const (
	PolicySerialize Policy = "serialize"
	PolicyReject    Policy = "reject"
)

func ParsePolicy(s string) (Policy, bool) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicySerialize:
		return PolicySerialize, true
	case PolicyReject:
		return PolicyReject, true
	}
	return "", false
}

type Kind string

const (
	KindAnswer           Kind = "answer"
	KindNotFound         Kind = "not_found"
	KindGeneral          Kind = "general"
	KindDatabaseNotFound Kind = "database_not_found"
	KindDatasetNotLoaded Kind = "dataset_not_loaded"
)

type Reply struct {
	ID                string                            `json:"id"`
	Query             string                            `json:"query"`
	Kind              Kind                              `json:"kind"`
	Text              string                            `json:"text"`
	Insights          []string                          `json:"insights"`
	Intent            models.Intent                     `json:"intent"`
	Aggregates        map[models.Param]models.Aggregate `json:"aggregates,omitempty"`
	FloatCount        int                               `json:"float_count"`
	TotalMeasurements int                               `json:"total_measurements"`
	Charts            []chart.Series                    `json:"charts"`
	DatasetContext    []string                          `json:"dataset_context,omitempty"`
	DataType          string                            `json:"data_type,omitempty"`
	AskedAt           time.Time                         `json:"asked_at"`
}

// QueryLogger records answered queries.
type QueryLogger interface {
	LogQuery(ctx context.Context, e store.QueryLogEntry) error
}

type Config struct {
	Delay  time.Duration
	Policy Policy
}

type Session struct {
	backend  search.Backend
	fallback chat.Fallback
	queryLog QueryLogger
	delay    time.Duration
	policy   Policy
	log      *zap.SugaredLogger

	// slot holds a token while a query is being answered.
	slot chan struct{}

	mu      sync.RWMutex
	data    *dataset.Store
	ranges  search.Ranges
	filters models.FilterState
}

func New(ds *dataset.Store, backend search.Backend, fallback chat.Fallback, cfg Config, log *zap.SugaredLogger) *Session {
	if fallback == nil {
		fallback = chat.Static{}
	}
	if cfg.Policy == "" {
		cfg.Policy = PolicySerialize
	}
	s := &Session{
		backend:  backend,
		fallback: fallback,
		delay:    cfg.Delay,
		policy:   cfg.Policy,
		log:      log,
		slot:     make(chan struct{}, 1),
	}
	s.SetDataset(ds)
	return s
}

// SetQueryLogger enables the query log.
func (s *Session) SetQueryLogger(l QueryLogger) {
	s.queryLog = l
}

// LoadRanges fetches the global ranges from the backend. On failure the
// ranges are cleared and queries answer with the not-loaded text.
func (s *Session) LoadRanges(ctx context.Context) error {
	r, err := s.backend.Ranges(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.ranges = nil
		return err
	}
	s.ranges = r
	return nil
}

// Ranges returns the global ranges and whether they are loaded.
func (s *Session) Ranges() (search.Ranges, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ranges, s.ranges != nil
}

func (s *Session) SetDataset(ds *dataset.Store) {
	if ds == nil {
		ds = dataset.New(nil)
	}
	s.mu.Lock()
	s.data = ds
	s.mu.Unlock()
	metrics.DatasetFloats.Set(float64(ds.Len()))
	metrics.DatasetMeasurements.Set(float64(dataset.MeasurementCount(ds.Floats())))
}

func (s *Session) Dataset() *dataset.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

func (s *Session) Filters() models.FilterState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters
}

func (s *Session) SetFilters(f models.FilterState) {
	s.mu.Lock()
	s.filters = f
	s.mu.Unlock()
	s.log.Debugw("filters updated",
		"region", f.Region,
		"year", f.Year,
		"float_type", f.FloatType,
		"parameter", f.Parameter,
	)
}

// Subset is the dataset narrowed by the sidebar filters only.
func (s *Session) Subset() []models.Float {
	s.mu.RLock()
	data, f := s.data, s.filters
	s.mu.RUnlock()
	return data.FilterFloats(nil, f)
}

// Export serialises the filtered subset.
func (s *Session) Export(format export.Format) (export.Payload, error) {
	p, err := export.Build(s.Subset(), format, dataset.ClassifyFloat)
	if err != nil {
		return export.Payload{}, err
	}
	metrics.ExportsTotal.WithLabelValues(string(format)).Inc()
	return p, nil
}

// Ask answers one query. Every failure inside the pipeline becomes a reply
// kind; only ctx cancellation and ErrBusy are returned as errors. The reply
// is held back for the configured delay and logged once it is delivered.
func (s *Session) Ask(ctx context.Context, text string) (Reply, error) {
	if err := s.acquire(ctx); err != nil {
		return Reply{}, err
	}
	defer s.release()

	start := time.Now()
	reply, err := s.answer(ctx, text)
	if err != nil {
		return Reply{}, err
	}
	took := time.Since(start)

	metrics.QueriesTotal.WithLabelValues(string(reply.Kind)).Inc()
	metrics.QueryDuration.WithLabelValues(string(reply.Kind)).Observe(took.Seconds())
	s.log.Infow("query answered",
		"id", reply.ID,
		"kind", reply.Kind,
		"analysis", reply.Intent.Analysis,
		"floats", reply.FloatCount,
		"duration", took,
	)

	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			s.log.Infow("query cancelled before reply", "id", reply.ID)
			return Reply{}, ctx.Err()
		}
	}

	// Only delivered replies reach the query log.
	s.record(ctx, reply, took)
	return reply, nil
}

func (s *Session) acquire(ctx context.Context) error {
	if s.policy == PolicyReject {
		select {
		case s.slot <- struct{}{}:
			return nil
		default:
			metrics.QueriesRejected.Inc()
			return ErrBusy
		}
	}
	select {
	case s.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) release() {
	<-s.slot
}

func (s *Session) answer(ctx context.Context, text string) (Reply, error) {
	text = htmlutil.QueryText(text)
	reply := Reply{
		ID:       uuid.NewString(),
		Query:    text,
		Insights: []string{},
		Charts:   []chart.Series{},
		Intent:   query.Parse(text),
		AskedAt:  time.Now().UTC(),
	}

	if _, ok := s.Ranges(); !ok {
		reply.Kind = KindDatasetNotLoaded
		reply.Text = narrative.DatasetNotLoadedText
		return reply, nil
	}

	resp, err := s.backend.Search(ctx, text)
	if err != nil {
		if ctx.Err() != nil {
			return Reply{}, ctx.Err()
		}
		if errors.Is(err, search.ErrDatabaseNotFound) {
			reply.Kind = KindDatabaseNotFound
			reply.Text = narrative.DatabaseNotFoundText
			return reply, nil
		}
		s.log.Warnf("search backend failed for query %s: %v", reply.ID, err)
		reply.Kind = KindDatasetNotLoaded
		reply.Text = narrative.DatasetNotLoadedText
		return reply, nil
	}
	if resp.DatabaseNotFound() {
		reply.Kind = KindDatabaseNotFound
		reply.Text = narrative.DatabaseNotFoundText
		return reply, nil
	}
	reply.DataType = resp.DataType

	s.mu.RLock()
	data, filters := s.data, s.filters
	s.mu.RUnlock()

	intent := reply.Intent
	if len(intent.Parameters) == 0 && filters.Parameter != "" {
		intent.Parameters = []models.Param{filters.Parameter}
	}
	reply.Intent = intent

	if len(intent.Parameters) == 0 {
		s.log.Debugw("no parameter in query, using fallback", "id", reply.ID, "empty_intent", intent.IsEmpty())
		general, err := s.fallback.Reply(ctx, text)
		if err != nil {
			if ctx.Err() != nil {
				return Reply{}, ctx.Err()
			}
			s.log.Warnf("fallback failed for query %s: %v", reply.ID, err)
			general = chat.GeneralText()
		}
		reply.Kind = KindGeneral
		reply.Text = general
		return reply, nil
	}

	floats := data.FilterFloats(intent.Regions, filters)
	floats, found := dataset.SelectFloat(floats, intent.FloatID)
	if !found {
		_, exists := data.Float(intent.FloatID)
		s.log.Debugw("named float not in selection", "id", reply.ID, "float", intent.FloatID, "exists", exists)
	}
	res := analysis.Analyze(floats, intent.Parameters)

	gen := narrative.Generate(text, intent, res)
	reply.Text = gen.Text
	reply.Insights = gen.Insights

	if res.Empty() {
		reply.Kind = KindNotFound
		if intent.Visualization {
			for _, p := range intent.Parameters {
				reply.Charts = append(reply.Charts, chart.Series{
					Name:      narrative.Label(p),
					Parameter: p,
					Unit:      narrative.Unit(p),
					Kind:      chart.KindBars,
					Points:    chart.ToSeries(models.Aggregate{}),
				})
			}
		}
		return reply, nil
	}

	reply.Kind = KindAnswer
	reply.Aggregates = res.Aggregates
	reply.FloatCount = res.FloatCount
	reply.TotalMeasurements = res.TotalMeasurements
	reply.Charts = chart.Build(intent, res, floats)
	for _, p := range res.Params() {
		if r, ok := resp.Results[string(p)]; ok {
			reply.DatasetContext = append(reply.DatasetContext, narrative.RangeLine(p, r.Min, r.Max))
		}
	}
	return reply, nil
}

func (s *Session) record(ctx context.Context, reply Reply, took time.Duration) {
	if s.queryLog == nil {
		return
	}
	params := make([]string, 0, len(reply.Intent.Parameters))
	for _, p := range reply.Intent.Parameters {
		params = append(params, string(p))
	}
	entry := store.QueryLogEntry{
		ID:         reply.ID,
		AskedAt:    reply.AskedAt,
		Query:      reply.Query,
		Kind:       string(reply.Kind),
		Parameters: strings.Join(params, ","),
		DurationMS: took.Milliseconds(),
	}
	if reply.Kind == KindAnswer {
		entry.FloatCount = sql.NullInt64{Int64: int64(reply.FloatCount), Valid: true}
	}
	if err := s.queryLog.LogQuery(ctx, entry); err != nil {
		s.log.Warnf("failed to log query %s: %v", reply.ID, err)
	}
}
