package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/lox/floatchat/internal/chat"
	"github.com/lox/floatchat/internal/export"
	"github.com/lox/floatchat/internal/ingest"
	"github.com/lox/floatchat/internal/log"
	"github.com/lox/floatchat/internal/search"
	"github.com/lox/floatchat/internal/session"
)

type ImportCmd struct {
	Sources []string `arg:"" optional:"" help:"CSV sources: file paths, http(s):// or ftp:// URLs. .gz is decompressed."`
	Sample  bool     `help:"Import the bundled sample dataset."`
}

func (c *ImportCmd) Run(g *Globals) error {
	if len(c.Sources) == 0 && !c.Sample {
		return errors.New("nothing to import: pass a source or --sample")
	}
	ctx := context.Background()
	st, closeDB, err := openStore(g.DB)
	if err != nil {
		return err
	}
	defer closeDB()

	importer := ingest.NewImporter(st, nil, log.Named("ingest"))
	if c.Sample {
		res, err := importer.ImportSample(ctx)
		if err != nil {
			return err
		}
		printImport(res)
	}
	for _, src := range c.Sources {
		res, err := importer.Import(ctx, src)
		if err != nil {
			return err
		}
		printImport(res)
	}
	return nil
}

func printImport(res ingest.Result) {
	fmt.Printf("%s: %d rows, %d rejected, %d new measurements across %d floats\n",
		res.Source, res.Rows, res.Rejected, res.Stored, res.Floats)
}

type AskCmd struct {
	Query  []string `arg:"" help:"The question to ask."`
	Server string   `env:"FLOATCHAT_SERVER" help:"Use this server's /api/ranges and /api/search instead of the local store."`
	JSON   bool     `name:"json" help:"Print the full reply as JSON."`
	FilterFlags
}

func (c *AskCmd) Run(g *Globals) error {
	ctx := context.Background()
	filters, err := c.State()
	if err != nil {
		return err
	}

	st, closeDB, err := openStore(g.DB)
	if err != nil {
		return err
	}
	defer closeDB()
	ds, err := loadDataset(ctx, st)
	if err != nil {
		return err
	}

	var backend search.Backend = search.NewLocal(ds)
	if c.Server != "" {
		backend = search.NewClient(c.Server, nil)
	}
	sess := session.New(ds, backend, chat.Static{}, session.Config{}, log.Named("session"))
	sess.SetFilters(filters)
	if err := sess.LoadRanges(ctx); err != nil {
		log.Warnf("ranges not loaded: %v", err)
	}

	reply, err := sess.Ask(ctx, strings.Join(c.Query, " "))
	if err != nil {
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(reply)
	}

	fmt.Println(reply.Text)
	for _, line := range reply.DatasetContext {
		fmt.Println(line)
	}
	for _, insight := range reply.Insights {
		fmt.Printf("* %s\n", insight)
	}
	for _, s := range reply.Charts {
		fmt.Printf("\n%s (%s)\n", s.Name, s.Kind)
		for _, p := range s.Points {
			fmt.Printf("  %-12s %10.2f %s\n", p.Label, p.Value, s.Unit)
		}
	}
	return nil
}

type ExportCmd struct {
	Format string `default:"csv" help:"csv, profile, json or netcdf."`
	Output string `short:"o" help:"Output file (defaults to the export filename)."`
	Gzip   bool   `help:"Gzip the output."`
	FilterFlags
}

func (c *ExportCmd) Run(g *Globals) error {
	ctx := context.Background()
	format, ok := export.ParseFormat(c.Format)
	if !ok {
		return fmt.Errorf("unknown format %q", c.Format)
	}
	filters, err := c.State()
	if err != nil {
		return err
	}

	st, closeDB, err := openStore(g.DB)
	if err != nil {
		return err
	}
	defer closeDB()
	ds, err := loadDataset(ctx, st)
	if err != nil {
		return err
	}

	sess := session.New(ds, search.NewLocal(ds), nil, session.Config{}, log.Named("session"))
	sess.SetFilters(filters)

	p, err := sess.Export(format)
	if errors.Is(err, export.ErrUnsupportedFormat) {
		return errors.New(export.NetCDFMessage)
	}
	if err != nil {
		return err
	}
	if c.Gzip {
		if p, err = export.Gzip(p); err != nil {
			return err
		}
	}

	out := c.Output
	if out == "" {
		out = p.Filename
	}
	if err := os.WriteFile(out, p.Body, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	p.Filename = out
	fmt.Println(p.Message())
	return nil
}
