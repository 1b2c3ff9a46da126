// Package oracle provides the price capability consumed by the price-bet
// engine. Rates are integers in the feed's own scale; interpreting the scale
// is the caller's concern.
package oracle

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"
)

// Quote captures a rate for a currency pair along with the publish time
// reported by the upstream feed and the feed identifier.
type Quote struct {
	Rate        *big.Int
	PublishedAt int64
	Source      string
}

// Clone returns a deep copy of the quote so callers cannot mutate shared
// state.
func (q Quote) Clone() Quote {
	clone := Quote{PublishedAt: q.PublishedAt, Source: q.Source}
	if q.Rate != nil {
		clone.Rate = new(big.Int).Set(q.Rate)
	}
	return clone
}

// Source resolves a rate for the provided base/quote currency pair.
type Source interface {
	GetRate(base, quote string) (Quote, error)
}

// ErrNoFreshQuote indicates that no registered feed produced a quote within
// the configured freshness window.
var ErrNoFreshQuote = errors.New("oracle: no fresh quote available")

func normaliseSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func pairKey(base, quote string) string {
	return normaliseSymbol(base) + ":" + normaliseSymbol(quote)
}

// Manual is an in-memory source used for tests and manual overrides during
// incident response.
type Manual struct {
	mu     sync.RWMutex
	quotes map[string]Quote
}

// NewManual constructs an empty manual source.
func NewManual() *Manual {
	return &Manual{quotes: make(map[string]Quote)}
}

// Set stores the provided rate for the currency pair.
func (m *Manual) Set(base, quote string, rate *big.Int, publishedAt int64) {
	if m == nil || rate == nil {
		return
	}
	m.mu.Lock()
	m.quotes[pairKey(base, quote)] = Quote{
		Rate:        new(big.Int).Set(rate),
		PublishedAt: publishedAt,
		Source:      "manual",
	}
	m.mu.Unlock()
}

// GetRate retrieves the stored rate for the currency pair.
func (m *Manual) GetRate(base, quote string) (Quote, error) {
	if m == nil {
		return Quote{}, fmt.Errorf("oracle: manual source not configured")
	}
	m.mu.RLock()
	stored, ok := m.quotes[pairKey(base, quote)]
	m.mu.RUnlock()
	if !ok {
		return Quote{}, fmt.Errorf("oracle: quote for %s/%s not found", base, quote)
	}
	return stored.Clone(), nil
}

// Aggregator consults registered sources in priority order until one returns
// a quote inside the freshness window.
type Aggregator struct {
	mu       sync.RWMutex
	priority []string
	sources  map[string]Source
	maxAge   time.Duration
	nowFn    func() int64
}

// NewAggregator constructs an aggregator with the provided priority order and
// freshness window. A zero maxAge disables the freshness check.
func NewAggregator(priority []string, maxAge time.Duration) *Aggregator {
	return &Aggregator{
		priority: append([]string{}, priority...),
		sources:  make(map[string]Source),
		maxAge:   maxAge,
		nowFn:    func() int64 { return time.Now().Unix() },
	}
}

// SetNowFunc overrides the time source used for freshness checks. Intended
// for tests.
func (a *Aggregator) SetNowFunc(now func() int64) {
	if a == nil {
		return
	}
	a.mu.Lock()
	if now == nil {
		a.nowFn = func() int64 { return time.Now().Unix() }
	} else {
		a.nowFn = now
	}
	a.mu.Unlock()
}

// SetMaxAge updates the freshness window used when filtering quotes.
func (a *Aggregator) SetMaxAge(maxAge time.Duration) {
	if a == nil {
		return
	}
	a.mu.Lock()
	a.maxAge = maxAge
	a.mu.Unlock()
}

// Register adds or replaces a source under the supplied identifier. Unknown
// identifiers are appended to the priority order.
func (a *Aggregator) Register(name string, source Source) {
	if a == nil {
		return
	}
	trimmed := strings.ToLower(strings.TrimSpace(name))
	if trimmed == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sources[trimmed] = source
	for _, entry := range a.priority {
		if strings.EqualFold(entry, trimmed) {
			return
		}
	}
	a.priority = append(a.priority, trimmed)
}

// GetRate fetches a rate respecting the priority order and freshness window.
func (a *Aggregator) GetRate(base, quote string) (Quote, error) {
	if a == nil {
		return Quote{}, fmt.Errorf("oracle: aggregator not configured")
	}
	a.mu.RLock()
	priority := append([]string{}, a.priority...)
	maxAge := a.maxAge
	now := a.nowFn()
	a.mu.RUnlock()

	baseSym := normaliseSymbol(base)
	quoteSym := normaliseSymbol(quote)
	if baseSym == "" || quoteSym == "" {
		return Quote{}, fmt.Errorf("oracle: base and quote required")
	}

	var lastErr error
	for _, name := range priority {
		a.mu.RLock()
		source := a.sources[strings.ToLower(name)]
		a.mu.RUnlock()
		if source == nil {
			continue
		}
		got, err := source.GetRate(baseSym, quoteSym)
		if err != nil {
			lastErr = err
			continue
		}
		if got.Rate == nil || got.Rate.Sign() <= 0 {
			lastErr = fmt.Errorf("oracle: source %s returned invalid rate", name)
			continue
		}
		if maxAge > 0 && now-got.PublishedAt > int64(maxAge/time.Second) {
			lastErr = ErrNoFreshQuote
			continue
		}
		result := got.Clone()
		if strings.TrimSpace(result.Source) == "" {
			result.Source = strings.ToLower(name)
		}
		return result, nil
	}
	if lastErr == nil {
		lastErr = ErrNoFreshQuote
	}
	return Quote{}, lastErr
}
