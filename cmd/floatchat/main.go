package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"github.com/lox/floatchat/internal/dataset"
	"github.com/lox/floatchat/internal/log"
	"github.com/lox/floatchat/internal/models"
	"github.com/lox/floatchat/internal/store"
)

type Globals struct {
	DB    string `name:"db" default:"data/floatchat.db" env:"FLOATCHAT_DB" help:"Path to SQLite database."`
	Debug bool   `env:"FLOATCHAT_DEBUG" help:"Enable debug logging."`
}

type CLI struct {
	Globals

	Serve  ServeCmd  `cmd:"" default:"1" help:"Run the HTTP server."`
	Import ImportCmd `cmd:"" help:"Import float CSV datasets into the store."`
	Ask    AskCmd    `cmd:"" help:"Answer a single query and print the reply."`
	Export ExportCmd `cmd:"" help:"Export the filtered dataset to a file."`
}

// FilterFlags are the sidebar filters for one-shot commands.
type FilterFlags struct {
	Region    string `help:"Only floats in this region (Atlantic, Pacific, Indian, Arctic)."`
	Year      int    `help:"Only measurements taken in this year."`
	FloatType string `name:"float-type" help:"Only core or biogeochemical floats."`
	Parameter string `help:"Parameter to analyse when the query names none."`
}

func (f FilterFlags) State() (models.FilterState, error) {
	var st models.FilterState
	if f.Region != "" {
		r, ok := models.ParseRegion(f.Region)
		if !ok {
			return st, fmt.Errorf("unknown region %q", f.Region)
		}
		st.Region = r
	}
	if f.FloatType != "" {
		ft, ok := models.ParseFloatType(f.FloatType)
		if !ok {
			return st, fmt.Errorf("unknown float type %q", f.FloatType)
		}
		st.FloatType = ft
	}
	if f.Parameter != "" {
		p, ok := models.ParseParam(f.Parameter)
		if !ok {
			return st, fmt.Errorf("unknown parameter %q", f.Parameter)
		}
		st.Parameter = p
	}
	st.Year = f.Year
	return st, nil
}

func main() {
	// A missing .env is fine.
	_ = godotenv.Load()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("floatchat"),
		kong.Description("Ask questions about ARGO float measurements."),
		kong.UsageOnError(),
	)

	if err := log.Init(cli.Debug); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}

func openStore(path string) (*store.Store, func(), error) {
	if dir := filepath.Dir(path); dir != "." && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	st := store.New(db)
	if err := st.Migrate(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return st, func() { db.Close() }, nil
}

func loadDataset(ctx context.Context, st *store.Store) (*dataset.Store, error) {
	floats, err := st.LoadFloats(ctx)
	if err != nil {
		return nil, fmt.Errorf("load floats: %w", err)
	}
	return dataset.New(floats), nil
}
