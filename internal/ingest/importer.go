package ingest

import (
	"bytes"
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"go.uber.org/zap"

	"github.com/lox/floatchat/internal/metrics"
	"github.com/lox/floatchat/internal/store"
)

//go:embed sample.csv
var sampleCSV []byte

// SampleSource names the bundled demo dataset in import audit records.
const SampleSource = "builtin:sample.csv"

type Importer struct {
	store   *store.Store
	fetcher *Fetcher
	log     *zap.SugaredLogger
}

func NewImporter(st *store.Store, fetcher *Fetcher, log *zap.SugaredLogger) *Importer {
	if fetcher == nil {
		fetcher = NewFetcher(nil)
	}
	return &Importer{store: st, fetcher: fetcher, log: log}
}

// Result describes a finished import.
type Result struct {
	Source string `json:"source"`
	Report
	Floats int `json:"floats"`
	Stored int `json:"stored"`
}

// Import fetches source, parses it and stores every valid row.
func (im *Importer) Import(ctx context.Context, source string) (Result, error) {
	body, err := im.fetcher.Fetch(ctx, source)
	if err != nil {
		im.recordFailure(ctx, source, err)
		return Result{Source: source}, fmt.Errorf("fetch %s: %w", source, err)
	}
	return im.importBytes(ctx, source, body)
}

// ImportSample loads the bundled demo dataset.
func (im *Importer) ImportSample(ctx context.Context) (Result, error) {
	return im.importBytes(ctx, SampleSource, sampleCSV)
}

func (im *Importer) importBytes(ctx context.Context, source string, body []byte) (Result, error) {
	res := Result{Source: source}

	run, err := im.store.StartImportRun(ctx, source)
	if err != nil {
		im.log.Warnf("import: failed to start audit run: %v", err)
	}
	finish := func(err error) {
		if run == nil {
			return
		}
		run.RowsParsed = sql.NullInt64{Int64: int64(res.Rows), Valid: true}
		run.RowsStored = sql.NullInt64{Int64: int64(res.Stored), Valid: true}
		run.RowsRejected = sql.NullInt64{Int64: int64(res.Rejected), Valid: true}
		run.Success = err == nil
		if err != nil {
			run.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
		}
		if cerr := im.store.CompleteImportRun(ctx, run); cerr != nil {
			im.log.Warnf("import: failed to complete audit run: %v", cerr)
		}
	}

	floats, rep, err := ParseCSV(bytes.NewReader(body))
	res.Report = rep
	metrics.ImportRowsTotal.WithLabelValues("rejected").Add(float64(rep.Rejected))
	if err != nil {
		finish(err)
		return res, fmt.Errorf("parse %s: %w", source, err)
	}
	for flag, n := range rep.Flags {
		im.log.Debugf("import: %s cleared %d readings flagged %s", source, n, flag)
	}

	for _, fl := range floats {
		n, err := im.store.SaveFloat(ctx, fl)
		if err != nil {
			finish(err)
			return res, fmt.Errorf("store float %s: %w", fl.ID, err)
		}
		res.Stored += n
		res.Floats++
	}
	metrics.ImportRowsTotal.WithLabelValues("stored").Add(float64(res.Stored))
	metrics.ImportRowsTotal.WithLabelValues("duplicate").Add(float64(rep.Rows - rep.Rejected - res.Stored))

	finish(nil)
	im.log.Infow("import complete",
		"source", source,
		"rows", rep.Rows,
		"rejected", rep.Rejected,
		"floats", res.Floats,
		"stored", res.Stored,
	)
	return res, nil
}

func (im *Importer) recordFailure(ctx context.Context, source string, cause error) {
	run, err := im.store.StartImportRun(ctx, source)
	if err != nil {
		im.log.Warnf("import: failed to start audit run: %v", err)
		return
	}
	run.ErrorMessage = sql.NullString{String: cause.Error(), Valid: true}
	if err := im.store.CompleteImportRun(ctx, run); err != nil {
		im.log.Warnf("import: failed to complete audit run: %v", err)
	}
}
