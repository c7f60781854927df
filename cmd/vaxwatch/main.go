// Command vaxwatch runs a one-shot registry query from the terminal and
// prints a markdown report, optionally saving the response envelope JSON
// for later re-rendering.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/vaxwatch/vaxwatch/internal/cache"
	"github.com/vaxwatch/vaxwatch/internal/dashboard"
	"github.com/vaxwatch/vaxwatch/internal/registry"
	"github.com/vaxwatch/vaxwatch/internal/report"
)

func main() {
	disease := flag.String("disease", "", "Disease or condition to search vaccine trials for")
	vaccine := flag.String("vaccine", "", "Vaccine product to run a competitor analysis for")
	detail := flag.String("detail", "", "NCT id to append a study detail section for")
	outputPath := flag.String("output", "", "Path to write markdown (defaults to stdout)")
	jsonOutputPath := flag.String("json-output", "", "Optional path to write the response envelope JSON")
	cacheDB := flag.String("cache-db", "", "Optional SQLite cache database path")
	flag.Parse()

	if (*disease == "") == (*vaccine == "") {
		log.Fatal("exactly one of -disease or -vaccine is required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc, closeStore := newService(*cacheDB)
	defer closeStore()

	env := report.Envelope{GeneratedAt: time.Now().UTC()}
	switch {
	case *disease != "":
		var state dashboard.State
		if err := svc.FetchByDisease(ctx, &state, *disease); err != nil {
			log.Fatalf("disease search: %v", err)
		}
		env.Kind = "disease"
		env.Disease = state.Disease
		env.Records = state.Studies
		env.ReportMarkdown = report.BuildDiseaseReport(state.Disease, state.Studies)
	default:
		analysis, err := svc.Analyze(ctx, *vaccine)
		if err != nil {
			log.Fatalf("competitor analysis: %v", err)
		}
		env.Kind = "competitor"
		env.Analysis = &analysis
		env.ReportMarkdown = report.BuildCompetitorReport(analysis)
	}

	if *detail != "" {
		d, err := svc.LoadDetail(ctx, *detail)
		if err != nil {
			if registry.IsNotFound(err) {
				log.Fatalf("study %s not found", *detail)
			}
			log.Fatalf("study detail: %v", err)
		}
		env.ReportMarkdown += "\n" + report.BuildDetailSection(d)
	}

	if err := writeMarkdown(*outputPath, env.ReportMarkdown); err != nil {
		log.Fatalf("write markdown: %v", err)
	}
	if *jsonOutputPath != "" {
		if err := writeEnvelopeJSON(*jsonOutputPath, env); err != nil {
			log.Fatalf("write json output: %v", err)
		}
	}
}

func newService(cacheDB string) (*dashboard.Service, func()) {
	var store cache.Store
	if cacheDB != "" {
		ss, err := cache.NewSQLiteStore(cacheDB, cache.Config{})
		if err != nil {
			log.Fatalf("failed to initialize sqlite cache (%s): %v", cacheDB, err)
		}
		store = ss
	} else {
		store = cache.NewMemory(cache.Config{})
	}

	baseURL := strings.TrimSpace(os.Getenv("VAXWATCH_REGISTRY_URL"))
	if baseURL == "" {
		baseURL = registry.DefaultBaseURL
	}
	client := registry.NewClient(registry.Config{BaseURL: baseURL})
	svc := dashboard.NewService(registry.NewCached(client, store))
	return svc, func() { _ = store.Close() }
}

func writeMarkdown(outputPath, markdown string) error {
	if outputPath == "" {
		_, err := fmt.Print(markdown)
		return err
	}
	return os.WriteFile(outputPath, []byte(markdown), 0o644)
}

func writeEnvelopeJSON(path string, env report.Envelope) error {
	b, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
