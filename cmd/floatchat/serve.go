package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/lox/floatchat/internal/api"
	"github.com/lox/floatchat/internal/chat"
	"github.com/lox/floatchat/internal/ingest"
	"github.com/lox/floatchat/internal/log"
	"github.com/lox/floatchat/internal/search"
	"github.com/lox/floatchat/internal/session"
)

type ServeCmd struct {
	Port        string        `default:"8080" env:"FLOATCHAT_PORT" help:"HTTP server port."`
	ReplyDelay  time.Duration `name:"reply-delay" default:"500ms" env:"FLOATCHAT_REPLY_DELAY" help:"Pause before each chat reply."`
	QueryPolicy string        `name:"query-policy" default:"serialize" enum:"serialize,reject" env:"FLOATCHAT_QUERY_POLICY" help:"What to do with a query sent while another is pending."`
	OpenAIKey   string        `name:"openai-key" env:"OPENAI_API_KEY" help:"Enables model replies for general questions."`
	OpenAIModel string        `name:"openai-model" env:"FLOATCHAT_OPENAI_MODEL" help:"Chat model for general questions."`
	Seed        bool          `env:"FLOATCHAT_SEED" help:"Load the bundled sample dataset when the store is empty."`
	Source      []string      `env:"FLOATCHAT_SOURCES" sep:"," help:"Dataset sources to import on start (path, http(s):// or ftp:// URL)."`
	Refresh     time.Duration `env:"FLOATCHAT_REFRESH" help:"Re-import sources on this interval (0 disables)."`
}

func (c *ServeCmd) Run(g *Globals) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.Named("serve")

	st, closeDB, err := openStore(g.DB)
	if err != nil {
		return err
	}
	defer closeDB()
	log.Infof("database ready at %s", g.DB)

	importer := ingest.NewImporter(st, nil, log.Named("ingest"))

	if c.Seed {
		floats, _, err := st.Counts(ctx)
		if err != nil {
			return err
		}
		if floats == 0 {
			res, err := importer.ImportSample(ctx)
			if err != nil {
				return err
			}
			log.Infof("seeded %d measurements from %d floats", res.Stored, res.Floats)
		}
	}

	ds, err := loadDataset(ctx, st)
	if err != nil {
		return err
	}
	backend := search.NewLocal(ds)

	var fallback chat.Fallback = chat.Static{}
	if c.OpenAIKey != "" {
		oa, err := chat.NewOpenAI(c.OpenAIKey, c.OpenAIModel, log.Named("chat"))
		if err != nil {
			return err
		}
		fallback = oa
	} else {
		log.Infof("OpenAI disabled, general questions get the static reply")
	}

	policy, _ := session.ParsePolicy(c.QueryPolicy)
	sess := session.New(ds, backend, fallback, session.Config{
		Delay:  c.ReplyDelay,
		Policy: policy,
	}, log.Named("session"))
	sess.SetQueryLogger(st)

	if err := sess.LoadRanges(ctx); err != nil {
		logger.Warnf("ranges not loaded: %v", err)
	}

	reload := func(ctx context.Context) error {
		ds, err := loadDataset(ctx, st)
		if err != nil {
			return err
		}
		backend.SetStore(ds)
		sess.SetDataset(ds)
		logger.Infof("dataset reloaded: %d floats", ds.Len())
		return sess.LoadRanges(ctx)
	}

	if len(c.Source) > 0 {
		scheduler := ingest.NewScheduler(importer, c.Source, c.Refresh, reload, log.Named("scheduler"))
		go scheduler.Run(ctx)
	}

	server := api.NewServer(sess, backend, st, c.Port, log.Named("api"))
	return server.Run(ctx)
}
