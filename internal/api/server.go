package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lox/floatchat/internal/chart"
	"github.com/lox/floatchat/internal/search"
	"github.com/lox/floatchat/internal/session"
	"github.com/lox/floatchat/internal/store"
)

type Server struct {
	session *session.Session
	backend search.Backend
	store   *store.Store
	charts  *chart.Cache
	port    string
	log     *zap.SugaredLogger
}

// NewServer serves sess over HTTP. backend answers /api/ranges and
// /api/search; st may be nil, in which case history is empty.
func NewServer(sess *session.Session, backend search.Backend, st *store.Store, port string, log *zap.SugaredLogger) *Server {
	return &Server{
		session: sess,
		backend: backend,
		store:   st,
		charts:  chart.NewCache(chart.DefaultCacheAge),
		port:    port,
		log:     log,
	}
}

func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/ranges", s.handleRanges).Methods(http.MethodGet)
	api.HandleFunc("/search", s.handleSearch).Methods(http.MethodPost)
	api.HandleFunc("/query", s.handleQuery).Methods(http.MethodPost)
	api.HandleFunc("/filters", s.handleGetFilters).Methods(http.MethodGet)
	api.HandleFunc("/filters", s.handlePutFilters).Methods(http.MethodPut)
	api.HandleFunc("/years", s.handleYears).Methods(http.MethodGet)
	api.HandleFunc("/export", s.handleExport).Methods(http.MethodGet)
	api.HandleFunc("/chart.png", s.handleChartPNG).Methods(http.MethodGet)
	api.HandleFunc("/suggestions", s.handleSuggestions).Methods(http.MethodGet)
	api.HandleFunc("/suggestions/{id}", s.handleSuggestion).Methods(http.MethodGet)
	api.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	return r
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	s.log.Infof("listening on :%s", s.port)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
