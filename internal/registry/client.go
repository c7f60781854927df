// Package registry is the ClinicalTrials.gov v2 API client: token-paginated
// search, paginated fetch-to-exhaustion, and single-trial detail lookup.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vaxwatch/vaxwatch/internal/trials"
)

const (
	DefaultBaseURL = "https://clinicaltrials.gov/api/v2"

	// MaxPageSize is the registry's hard cap per page.
	MaxPageSize = 100

	// DefaultPageInterval keeps successive page requests under ~50/minute.
	DefaultPageInterval = 1200 * time.Millisecond

	// PrimarySearchPages bounds a user-initiated disease search.
	PrimarySearchPages = 10

	// CompetitorSearchPages bounds the derived-disease search during
	// competitor analysis, which is secondary and latency-sensitive.
	CompetitorSearchPages = 5

	// VaccineIntervention is the intervention filter disease searches carry.
	VaccineIntervention = "Vaccine"
)

type Config struct {
	BaseURL      string
	HTTPClient   *http.Client
	PageSize     int
	PageInterval time.Duration
}

type Client struct {
	cfg    Config
	tracer trace.Tracer

	// pause is swapped out by tests counting inter-page delays.
	pause func(ctx context.Context, d time.Duration) error
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.PageSize <= 0 || cfg.PageSize > MaxPageSize {
		cfg.PageSize = MaxPageSize
	}
	if cfg.PageInterval <= 0 {
		cfg.PageInterval = DefaultPageInterval
	}
	return &Client{
		cfg:    cfg,
		tracer: otel.Tracer("vaxwatch/registry"),
		pause:  sleepCtx,
	}
}

// Query names one search page request. An empty PageToken requests the
// first page; the registry returns an opaque token for the next one.
type Query struct {
	Term         string
	Condition    string
	Intervention string
	PageToken    string
	PageSize     int
}

// Page is one raw result page. NextPageToken is empty on the last page.
type Page struct {
	Studies       []map[string]any `json:"studies"`
	NextPageToken string           `json:"nextPageToken"`
}

// SearchPage issues a single search request and decodes the raw page.
func (c *Client) SearchPage(ctx context.Context, q Query) (Page, error) {
	if q.PageSize <= 0 || q.PageSize > MaxPageSize {
		q.PageSize = c.cfg.PageSize
	}

	params := url.Values{}
	if q.Term != "" {
		params.Set("query.term", q.Term)
	}
	if q.Condition != "" {
		params.Set("query.cond", q.Condition)
	}
	if q.Intervention != "" {
		params.Set("query.intr", q.Intervention)
	}
	params.Set("pageSize", strconv.Itoa(q.PageSize))
	if q.PageToken != "" {
		params.Set("pageToken", q.PageToken)
	}

	var page Page
	if err := c.getJSON(ctx, "/studies?"+params.Encode(), &page); err != nil {
		return Page{}, err
	}
	return page, nil
}

// FetchAll walks the paginated search to exhaustion and returns the
// normalized records in registry order, no dedup. It stops on a zero-record
// page, at maxPages, or when a page carries no continuation token; the
// inter-page pause runs only between issued requests. A transport failure
// mid-pagination discards everything fetched so far and returns the error:
// the caller cannot safely present a partial result as complete.
func (c *Client) FetchAll(ctx context.Context, condition, intervention string, maxPages int) ([]trials.TrialSummary, error) {
	ctx, span := c.tracer.Start(ctx, "registry.FetchAll", trace.WithAttributes(
		attribute.String("condition", condition),
		attribute.String("intervention", intervention),
		attribute.Int("max_pages", maxPages),
	))
	defer span.End()

	var all []trials.TrialSummary
	token := ""
	for page := 0; page < maxPages; page++ {
		if page > 0 {
			if err := c.pause(ctx, c.cfg.PageInterval); err != nil {
				return nil, err
			}
		}
		pg, err := c.SearchPage(ctx, Query{
			Condition:    condition,
			Intervention: intervention,
			PageToken:    token,
		})
		if err != nil {
			log.Printf("registry fetch aborted condition=%q page=%d err=%v", condition, page+1, err)
			return nil, err
		}
		if len(pg.Studies) == 0 {
			break
		}
		for _, raw := range pg.Studies {
			all = append(all, trials.NormalizeSummary(raw))
		}
		token = pg.NextPageToken
		if token == "" {
			break
		}
	}
	span.SetAttributes(attribute.Int("records", len(all)))
	return all, nil
}

// FetchDetail fetches and normalizes one full trial record. Any transport
// failure or missing trial collapses to the ErrNotFound sentinel so callers
// render a neutral empty state instead of special-casing faults.
func (c *Client) FetchDetail(ctx context.Context, id string) (trials.TrialDetail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return trials.TrialDetail{}, ErrNotFound
	}

	ctx, span := c.tracer.Start(ctx, "registry.FetchDetail", trace.WithAttributes(
		attribute.String("nct_id", id),
	))
	defer span.End()

	var raw map[string]any
	if err := c.getJSON(ctx, "/studies/"+url.PathEscape(id), &raw); err != nil {
		log.Printf("registry detail fetch failed id=%s err=%v", id, err)
		return trials.TrialDetail{}, ErrNotFound
	}
	return trials.NormalizeDetail(raw), nil
}

func (c *Client) getJSON(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(c.cfg.BaseURL, "/")+path, nil)
	if err != nil {
		return &Error{Code: CodeInternal, Message: err.Error()}
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return newTransportError(0, "request failed: %v", err)
	}
	defer res.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(res.Body, 8<<20))

	if res.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return newTransportError(res.StatusCode, "status code: %d body=%s", res.StatusCode, clamp(string(b), 200))
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return newTransportError(res.StatusCode, "decode response: %v", err)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("pagination interrupted: %w", ctx.Err())
	case <-t.C:
		return nil
	}
}

func clamp(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
