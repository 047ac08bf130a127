package cajaclient

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

// SummaryLoader loads daily summaries. Loads may overlap when the operator
// switches dates quickly; each load takes a generation number and only the
// latest one may update Current. Older ones return ErrStale.
type SummaryLoader struct {
	client *Client

	mu      sync.Mutex
	gen     uint64
	current *DailySummary
}

func NewSummaryLoader(c *Client) *SummaryLoader {
	return &SummaryLoader{client: c}
}

// Load fetches the summary for fecha (empty for today). Call it again after
// every charge, sale or closing.
func (l *SummaryLoader) Load(ctx context.Context, fecha string) (*DailySummary, error) {
	l.mu.Lock()
	l.gen++
	gen := l.gen
	l.mu.Unlock()

	sum, err := l.client.GetDailySummary(ctx, fecha)

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		return nil, ErrStale
	}
	if err != nil {
		return nil, err
	}
	l.current = sum
	return cloneSummary(sum), nil
}

// Current returns the freshest loaded summary.
func (l *SummaryLoader) Current() (*DailySummary, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current == nil {
		return nil, false
	}
	return cloneSummary(l.current), true
}

// markClosed flips tiene_cierre after a successful closing so a second
// attempt fails locally until the next Load.
func (l *SummaryLoader) markClosed(fecha string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current != nil && l.current.Fecha == fecha {
		l.current.TieneCierre = true
	}
}

func cloneSummary(s *DailySummary) *DailySummary {
	cp := *s
	if s.PorMetodo != nil {
		cp.PorMetodo = make(map[string]decimal.Decimal, len(s.PorMetodo))
		for k, v := range s.PorMetodo {
			cp.PorMetodo[k] = v
		}
	}
	return &cp
}
