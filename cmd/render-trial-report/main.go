// Command render-trial-report rebuilds the markdown report from a saved
// response envelope and optionally renders it to HTML or PDF.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/vaxwatch/vaxwatch/internal/report"
)

func main() {
	inputPath := flag.String("input", "", "Path to saved response envelope JSON")
	outputPath := flag.String("output", "", "Path to write rebuilt markdown (defaults to stdout)")
	htmlPath := flag.String("html", "", "Optional path to write rendered HTML")
	pdfPath := flag.String("pdf", "", "Optional path to write rendered PDF (requires Chromium)")
	flag.Parse()

	if *inputPath == "" {
		log.Fatal("missing required -input")
	}

	in, err := os.ReadFile(*inputPath)
	if err != nil {
		log.Fatalf("read input: %v", err)
	}

	var env report.Envelope
	if err := json.Unmarshal(in, &env); err != nil {
		log.Fatalf("decode input JSON: %v", err)
	}

	markdown := rebuildMarkdown(env)
	if err := writeMarkdown(*outputPath, markdown); err != nil {
		log.Fatalf("write markdown: %v", err)
	}

	if *htmlPath == "" && *pdfPath == "" {
		return
	}

	htmlDoc, err := report.RenderHTML(reportTitle(env), markdown)
	if err != nil {
		log.Fatalf("render html: %v", err)
	}
	if *htmlPath != "" {
		if err := os.WriteFile(*htmlPath, []byte(htmlDoc), 0o644); err != nil {
			log.Fatalf("write html: %v", err)
		}
	}
	if *pdfPath != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		pdf, err := report.NewChromiumPDFRenderer().Render(ctx, htmlDoc)
		if err != nil {
			log.Fatalf("render pdf: %v", err)
		}
		if err := os.WriteFile(*pdfPath, pdf, 0o644); err != nil {
			log.Fatalf("write pdf: %v", err)
		}
	}
}

// rebuildMarkdown prefers the markdown saved in the envelope (it may carry
// an appended detail section) and regenerates from the structured payload
// only when the saved markdown is missing.
func rebuildMarkdown(env report.Envelope) string {
	if env.ReportMarkdown != "" {
		return env.ReportMarkdown
	}
	switch env.Kind {
	case "disease":
		return report.BuildDiseaseReport(env.Disease, env.Records)
	case "competitor":
		if env.Analysis != nil {
			return report.BuildCompetitorReport(*env.Analysis)
		}
	}
	return ""
}

func reportTitle(env report.Envelope) string {
	switch env.Kind {
	case "disease":
		return "Vaccine Trial Report: " + env.Disease
	case "competitor":
		if env.Analysis != nil {
			return "Competitor Analysis: " + env.Analysis.Product
		}
	}
	return "Trial Report"
}

func writeMarkdown(outputPath, markdown string) error {
	if outputPath == "" {
		_, err := fmt.Print(markdown)
		return err
	}
	return os.WriteFile(outputPath, []byte(markdown), 0o644)
}
