// Package competitor cross-references trials by vaccine product: it finds
// the trials a product appears in, derives the disease it targets, and
// fetches the other trials targeting that disease.
package competitor

import (
	"context"
	"errors"
	"log"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vaxwatch/vaxwatch/internal/registry"
	"github.com/vaxwatch/vaxwatch/internal/trials"
)

// Registry is the slice of the registry client the resolver composes.
type Registry interface {
	SearchPage(ctx context.Context, q registry.Query) (registry.Page, error)
	FetchDetail(ctx context.Context, id string) (trials.TrialDetail, error)
	FetchAll(ctx context.Context, condition, intervention string, maxPages int) ([]trials.TrialSummary, error)
}

// Analysis is the outcome of one competitor resolution. A product matching
// no trials yields the empty triple with no error; a failed secondary
// disease fetch yields a degraded analysis with the own-trial half intact.
type Analysis struct {
	Product          string                `json:"product"`
	OwnTrials        []trials.TrialSummary `json:"own_trials"`
	CompetitorTrials []trials.TrialSummary `json:"competitor_trials"`
	DerivedDiseases  []string              `json:"derived_diseases"`
	Degraded         bool                  `json:"degraded,omitempty"`
	DegradedReason   string                `json:"degraded_reason,omitempty"`
}

type Resolver struct {
	reg    Registry
	tracer trace.Tracer
}

func NewResolver(reg Registry) *Resolver {
	return &Resolver{reg: reg, tracer: otel.Tracer("vaxwatch/competitor")}
}

// Resolve runs the product search, disease derivation, and competitor fetch.
//
// The seed search is a free-text single page of up to 100 hits. The disease
// is taken from the first hit's detail record; if that fetch fails or the
// trial reports no conditions there is no basis for a competitor search and
// the competitor set stays empty. Own-trial matching and competitor
// exclusion both use trials.ProductMatch over the joined product string.
func (r *Resolver) Resolve(ctx context.Context, product string) (Analysis, error) {
	product = strings.TrimSpace(product)
	if product == "" {
		return Analysis{}, errors.New("product name is required")
	}

	ctx, span := r.tracer.Start(ctx, "competitor.Resolve", trace.WithAttributes(
		attribute.String("product", product),
	))
	defer span.End()

	analysis := Analysis{Product: product}

	page, err := r.reg.SearchPage(ctx, registry.Query{Term: product, PageSize: registry.MaxPageSize})
	if err != nil {
		return analysis, err
	}
	if len(page.Studies) == 0 {
		return analysis, nil
	}

	hits := make([]trials.TrialSummary, 0, len(page.Studies))
	for _, raw := range page.Studies {
		hits = append(hits, trials.NormalizeSummary(raw))
	}

	for _, hit := range hits {
		if trials.ProductMatch(hit.JoinedProducts(), product) {
			analysis.OwnTrials = append(analysis.OwnTrials, hit)
		}
	}

	analysis.DerivedDiseases = r.deriveDiseases(ctx, hits[0].ID)
	if len(analysis.DerivedDiseases) == 0 {
		return analysis, nil
	}

	competitors, err := r.reg.FetchAll(ctx, analysis.DerivedDiseases[0], registry.VaccineIntervention, registry.CompetitorSearchPages)
	if err != nil {
		log.Printf("competitor fetch failed product=%q disease=%q err=%v", product, analysis.DerivedDiseases[0], err)
		analysis.Degraded = true
		analysis.DegradedReason = "competitor fetch failed; results limited to the product's own trials"
		return analysis, nil
	}
	for _, trial := range competitors {
		if trials.ProductMatch(trial.JoinedProducts(), product) {
			continue
		}
		analysis.CompetitorTrials = append(analysis.CompetitorTrials, trial)
	}

	span.SetAttributes(
		attribute.Int("own_trials", len(analysis.OwnTrials)),
		attribute.Int("competitor_trials", len(analysis.CompetitorTrials)),
	)
	return analysis, nil
}

// deriveDiseases reads the condition list off the seed trial's detail
// record. A failed detail fetch degrades to no diseases, not to an error.
func (r *Resolver) deriveDiseases(ctx context.Context, id string) []string {
	if id == "" {
		return nil
	}
	detail, err := r.reg.FetchDetail(ctx, id)
	if err != nil {
		log.Printf("disease derivation failed id=%s err=%v", id, err)
		return nil
	}
	return detail.Conditions
}
