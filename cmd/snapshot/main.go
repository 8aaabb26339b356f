// Command snapshot runs one build over local source files and writes the
// enriched snapshot as indented JSON, for fixtures and offline inspection.
//
// Each dataset is read from <dir>/<dataset>.{csv,json,xlsx}; the first
// existing extension wins.
//
// Usage:
//
//	go run ./cmd/snapshot \
//	  -dir data \
//	  -out data/mock/snapshot.json \
//	  -at 2026-03-01T06:00:00Z
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/census-market-etl/internal/adapter/source"
	"github.com/couchcryptid/census-market-etl/internal/domain"
	"github.com/couchcryptid/census-market-etl/internal/observability"
	"github.com/couchcryptid/census-market-etl/internal/pipeline"
)

var extensions = []string{".csv", ".json", ".xlsx"}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dir := flag.String("dir", "", "directory containing the six source files")
	out := flag.String("out", "", "output path for the snapshot JSON")
	tuningFile := flag.String("tuning", "", "optional YAML overriding the embedded tuning tables")
	at := flag.String("at", "", "fixed RFC3339 timestamp for reproducible output")
	verbose := flag.Bool("v", false, "log source loads to stderr")
	flag.Parse()

	if *dir == "" || *out == "" {
		flag.Usage()
		return errors.New("missing required flags: -dir, -out")
	}

	if *at != "" {
		ts, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			return fmt.Errorf("parse -at: %w", err)
		}
		domain.SetClock(clockwork.NewFakeClockAt(ts))
		defer domain.SetClock(nil)
	}

	var override []byte
	if *tuningFile != "" {
		data, err := os.ReadFile(*tuningFile)
		if err != nil {
			return fmt.Errorf("read tuning: %w", err)
		}
		override = data
	}
	tuning, err := domain.LoadTuning(override)
	if err != nil {
		return err
	}

	sources, err := findSources(*dir)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if *verbose {
		logger = sharedobs.NewLogger("debug", "text")
	}
	metrics := observability.NewMetricsForTesting()
	loader := source.NewLoader(source.NewRouter(source.FileFetcher{}, nil, nil, metrics), metrics, logger)

	snap, err := pipeline.NewBuilder(loader, sources, tuning, logger).Build(context.Background())
	if err != nil {
		return err
	}

	if err := writeJSON(*out, snap); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	log.Printf("wrote snapshot: %s", *out)

	printStats(snap)
	return nil
}

func findSources(dir string) (pipeline.Sources, error) {
	sources := pipeline.Sources{}
	for _, ds := range domain.AllDatasets {
		for _, ext := range extensions {
			path := filepath.Join(dir, string(ds)+ext)
			if _, err := os.Stat(path); err == nil {
				sources[ds] = path
				break
			}
		}
		if _, ok := sources[ds]; !ok {
			log.Printf("%s: no source file found, leaving its fields null", ds)
		}
	}
	if _, ok := sources[domain.DatasetEconomic]; !ok {
		return nil, fmt.Errorf("no economic source in %s", dir)
	}
	return sources, nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(snap *domain.Snapshot) {
	fmt.Printf("\nrun %s: %d counties, %d msas, %d unmapped\n",
		snap.RunID, len(snap.Counties), len(snap.MSAs), len(snap.Diagnostics.Unmapped))

	fmt.Println("\nSources:")
	for _, s := range snap.Statuses {
		state := "loaded"
		if !s.Loaded {
			state = "FAILED " + s.Error
		}
		fmt.Printf("  %-22s %6d rows  %3d warnings  %s\n", s.Dataset, s.Rows, s.Warnings, state)
	}

	tiers := map[domain.MarketType]int{}
	for _, c := range snap.Counties {
		tiers[c.Classification.Type]++
	}
	types := make([]string, 0, len(tiers))
	for mt := range tiers {
		types = append(types, string(mt))
	}
	sort.Strings(types)

	fmt.Println("\nCounty market types:")
	for _, mt := range types {
		fmt.Printf("  %-10s %d\n", mt, tiers[domain.MarketType(mt)])
	}
}
