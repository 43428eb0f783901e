package speech

import (
	"context"
	"strings"
	"sync"
	"time"
)

type registryEntry struct {
	provider Provider
	enabled  bool
	order    int

	mu    sync.Mutex
	usage UsageCounter
}

func (e *registryEntry) supports(language string) bool {
	base := BaseLanguage(language)
	for _, code := range e.provider.Languages() {
		if strings.EqualFold(code, language) || BaseLanguage(code) == base {
			return true
		}
	}
	return false
}

// Registry holds every configured transcription provider and picks the best
// available one per request. Registration order breaks priority ties.
type Registry struct {
	mu       sync.RWMutex
	entries  map[string]*registryEntry
	ordered  []string
	fallback Provider

	defaultLanguage string
}

func NewRegistry(defaultLanguage string) *Registry {
	return &Registry{
		entries:         make(map[string]*registryEntry),
		defaultLanguage: defaultLanguage,
	}
}

// Register adds a provider. Registering the same name twice replaces the
// previous plugin but keeps its position in the tie-break order.
func (r *Registry) Register(p Provider) {
	if p == nil || p.Name() == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[p.Name()]; ok {
		existing.provider = p
		existing.enabled = p.Enabled()
		return
	}
	r.entries[p.Name()] = &registryEntry{
		provider: p,
		enabled:  p.Enabled(),
		order:    len(r.ordered),
	}
	r.ordered = append(r.ordered, p.Name())
}

// SetFallback installs an always-available provider that is preferred
// outright over the priority selection. Used for local/offline operation.
func (r *Registry) SetFallback(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = p
}

// SetEnabled toggles a provider without unregistering it. Returns false when
// the name is unknown.
func (r *Registry) SetEnabled(name string, enabled bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[name]
	if !ok {
		return false
	}
	entry.enabled = enabled
	return true
}

// SelectFor picks the highest-priority enabled provider that supports the
// requested language and reports itself available. Ties go to the provider
// registered first. A nil return is a normal outcome the caller must handle.
func (r *Registry) SelectFor(ctx context.Context, language string) Provider {
	if language == "" {
		language = r.defaultLanguage
	}

	r.mu.RLock()
	if r.fallback != nil {
		fallback := r.fallback
		r.mu.RUnlock()
		return fallback
	}
	candidates := make([]*registryEntry, 0, len(r.ordered))
	for _, name := range r.ordered {
		entry := r.entries[name]
		if entry.enabled && entry.supports(language) {
			candidates = append(candidates, entry)
		}
	}
	r.mu.RUnlock()

	if len(candidates) == 0 {
		return nil
	}

	available := make([]bool, len(candidates))
	var wg sync.WaitGroup
	for i, entry := range candidates {
		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()
			available[i] = p.IsAvailable(ctx)
		}(i, entry.provider)
	}
	wg.Wait()

	var best *registryEntry
	for i, entry := range candidates {
		if !available[i] {
			continue
		}
		if best == nil || entry.provider.Priority() > best.provider.Priority() {
			best = entry
		}
	}
	if best == nil {
		return nil
	}
	return best.provider
}

// Health probes every registered provider concurrently.
func (r *Registry) Health(ctx context.Context) map[string]bool {
	r.mu.RLock()
	providers := make(map[string]Provider, len(r.entries))
	for name, entry := range r.entries {
		providers[name] = entry.provider
	}
	r.mu.RUnlock()

	health := make(map[string]bool, len(providers))
	var wg sync.WaitGroup
	var resMu sync.Mutex
	for name, p := range providers {
		wg.Add(1)
		go func(name string, p Provider) {
			defer wg.Done()
			ok := p.IsAvailable(ctx)
			resMu.Lock()
			health[name] = ok
			resMu.Unlock()
		}(name, p)
	}
	wg.Wait()
	return health
}

// RecordUsage accounts a successful transcription against a provider.
// Increments are serialized per provider so concurrent completions cannot
// lose updates.
func (r *Registry) RecordUsage(name string, duration time.Duration, cost float64) {
	r.mu.RLock()
	entry, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return
	}
	entry.mu.Lock()
	entry.usage.RequestCount++
	entry.usage.TotalDuration += duration
	entry.usage.LastUsed = time.Now()
	entry.usage.EstimatedCost += cost
	entry.mu.Unlock()
}

// RecordError accounts a provider execution failure.
func (r *Registry) RecordError(name string) {
	r.mu.RLock()
	entry, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return
	}
	entry.mu.Lock()
	entry.usage.ErrorCount++
	entry.mu.Unlock()
}

// Usage returns a snapshot of every provider's counters.
func (r *Registry) Usage() map[string]UsageCounter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make(map[string]UsageCounter, len(r.entries))
	for name, entry := range r.entries {
		entry.mu.Lock()
		snapshot[name] = entry.usage
		entry.mu.Unlock()
	}
	return snapshot
}
