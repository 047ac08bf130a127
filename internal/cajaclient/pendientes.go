package cajaclient

import (
	"context"
	"sync"
)

// PendingCollector keeps the last pending-charge list fetched from the
// backend. An empty list is a valid result. A failed Refresh keeps the
// previous list so the rest of the register stays usable.
type PendingCollector struct {
	client *Client

	mu     sync.RWMutex
	items  []PendingCharge
	loaded bool
}

func NewPendingCollector(c *Client) *PendingCollector {
	return &PendingCollector{client: c}
}

// Refresh fetches the list and replaces the cached one.
func (p *PendingCollector) Refresh(ctx context.Context) ([]PendingCharge, error) {
	page, err := p.client.ListPendingCharges(ctx)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.items = page.Items
	p.loaded = true
	p.mu.Unlock()
	return p.Items(), nil
}

// Items returns a copy of the cached list in backend order.
func (p *PendingCollector) Items() []PendingCharge {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]PendingCharge, len(p.items))
	copy(out, p.items)
	return out
}

// Loaded is false until the first successful Refresh.
func (p *PendingCollector) Loaded() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loaded
}

func (p *PendingCollector) Get(id string) (PendingCharge, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, it := range p.items {
		if it.ID == id {
			return it, true
		}
	}
	return PendingCharge{}, false
}

func (p *PendingCollector) Contains(id string) bool {
	_, ok := p.Get(id)
	return ok
}

// remove drops a charged appointment until the next Refresh.
func (p *PendingCollector) remove(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, it := range p.items {
		if it.ID == id {
			p.items = append(p.items[:i:i], p.items[i+1:]...)
			return
		}
	}
}
