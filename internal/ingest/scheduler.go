package ingest

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Scheduler re-imports a set of sources on an interval and calls onChange
// after any run that stored new rows.
type Scheduler struct {
	importer *Importer
	sources  []string
	interval time.Duration
	onChange func(context.Context) error
	log      *zap.SugaredLogger
}

func NewScheduler(importer *Importer, sources []string, interval time.Duration, onChange func(context.Context) error, log *zap.SugaredLogger) *Scheduler {
	return &Scheduler{
		importer: importer,
		sources:  sources,
		interval: interval,
		onChange: onChange,
		log:      log,
	}
}

// Run imports immediately, then every interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.RunOnce(ctx)
	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler: shutting down")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce imports every source once and returns the number of new rows.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	stored := 0
	for _, src := range s.sources {
		res, err := s.importer.Import(ctx, src)
		if err != nil {
			s.log.Errorf("scheduler: import %s: %v", src, err)
			continue
		}
		stored += res.Stored
	}
	if stored > 0 && s.onChange != nil {
		if err := s.onChange(ctx); err != nil {
			s.log.Errorf("scheduler: reload after import: %v", err)
		}
	}
	return stored
}
