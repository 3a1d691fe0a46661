package feed

import (
	"context"
	"errors"
	"sync"

	"github.com/guptaanant682/InfiFeed/internal/post"
)

var (
	// ErrFetchInFlight rejects a load-more that overlaps the previous one.
	ErrFetchInFlight = errors.New("page fetch already in flight")
	// ErrStalePage marks a response that arrived after the filter changed;
	// callers drop it and restart from page one.
	ErrStalePage = errors.New("stale page discarded")
)

// Paginator is one scroll position over a viewer's feed. A category switch
// bumps the generation so any fetch still in flight cannot corrupt the
// restarted pagination.
type Paginator struct {
	svc      *Service
	viewerID string
	limit    int

	mu         sync.Mutex
	category   string
	cursor     string
	generation int
	inFlight   bool
	exhausted  bool
}

func NewPaginator(svc *Service, viewerID string, limit int) *Paginator {
	return &Paginator{svc: svc, viewerID: viewerID, limit: limit, category: "all"}
}

// SetCategory switches the facet and invalidates every page fetched so
// far; pagination restarts from the top.
func (p *Paginator) SetCategory(category string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if category == p.category {
		return
	}
	p.category = category
	p.cursor = ""
	p.exhausted = false
	p.generation++
}

// Reset restarts pagination, e.g. after the viewer's follow set changed.
func (p *Paginator) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cursor = ""
	p.exhausted = false
	p.generation++
}

// LoadMore fetches the next page. Only one fetch may be outstanding; a
// result that lands after a filter change is discarded as stale.
func (p *Paginator) LoadMore(ctx context.Context) ([]post.Post, bool, error) {
	p.mu.Lock()
	if p.inFlight {
		p.mu.Unlock()
		return nil, false, ErrFetchInFlight
	}
	if p.exhausted {
		p.mu.Unlock()
		return nil, false, nil
	}
	gen := p.generation
	category := p.category
	cursor := p.cursor
	p.inFlight = true
	p.mu.Unlock()

	page, err := p.svc.FeedForUser(ctx, p.viewerID, category, cursor, p.limit)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.inFlight = false
	if err != nil {
		return nil, false, err
	}
	if gen != p.generation {
		return nil, false, ErrStalePage
	}

	if page.NextCursor != nil {
		p.cursor = *page.NextCursor
	}
	p.exhausted = !page.HasMore
	return page.Posts, page.HasMore, nil
}
