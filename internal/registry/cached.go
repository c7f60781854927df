package registry

import (
	"context"
	"encoding/json"
	"log"
	"strconv"

	"github.com/vaxwatch/vaxwatch/internal/cache"
	"github.com/vaxwatch/vaxwatch/internal/trials"
)

// Cached layers the response cache over a Client. Hits skip the network
// entirely; cache failures degrade to a direct fetch and never fail the
// operation. Errors are not cached, so a failed fetch retries next time.
type Cached struct {
	client *Client
	store  cache.Store
}

func NewCached(client *Client, store cache.Store) *Cached {
	return &Cached{client: client, store: store}
}

func (c *Cached) SearchPage(ctx context.Context, q Query) (Page, error) {
	key := cache.Key("search_page", q.Term, q.Condition, q.Intervention, q.PageToken, strconv.Itoa(q.PageSize))
	var page Page
	if c.lookup(key, &page) {
		return page, nil
	}
	page, err := c.client.SearchPage(ctx, q)
	if err != nil {
		return Page{}, err
	}
	c.save(key, page)
	return page, nil
}

func (c *Cached) FetchAll(ctx context.Context, condition, intervention string, maxPages int) ([]trials.TrialSummary, error) {
	key := cache.Key("fetch_all", condition, intervention, strconv.Itoa(maxPages))
	var records []trials.TrialSummary
	if c.lookup(key, &records) {
		return records, nil
	}
	records, err := c.client.FetchAll(ctx, condition, intervention, maxPages)
	if err != nil {
		return nil, err
	}
	c.save(key, records)
	return records, nil
}

func (c *Cached) FetchDetail(ctx context.Context, id string) (trials.TrialDetail, error) {
	key := cache.Key("detail", id)
	var detail trials.TrialDetail
	if c.lookup(key, &detail) {
		return detail, nil
	}
	detail, err := c.client.FetchDetail(ctx, id)
	if err != nil {
		return trials.TrialDetail{}, err
	}
	c.save(key, detail)
	return detail, nil
}

func (c *Cached) lookup(key string, dst any) bool {
	entry, ok := c.store.Get(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(entry.Payload, dst); err != nil {
		log.Printf("cache entry corrupt key=%s err=%v", key, err)
		return false
	}
	return true
}

func (c *Cached) save(key string, value any) {
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.store.Put(key, payload); err != nil {
		log.Printf("cache put failed key=%s err=%v", key, err)
	}
}
