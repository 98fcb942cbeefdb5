package category

import (
	"strings"
	"sync"
	"time"

	"flowsense/internal/logger"
)

// Origin values for a Record.
const (
	OriginAuto = "auto"
	OriginUser = "user"
)

// UncategorizedScore is the neutral score used while an app awaits
// backend categorization.
const UncategorizedScore = 50

// Record is one persisted category assignment, keyed by app name.
// A user-origin record is authoritative and never overwritten by the
// automatic categorization pass.
type Record struct {
	App         string
	Category    string
	Subcategory string
	Score       int
	Origin      string
	UpdatedAt   time.Time
}

// Store is the persistence surface the resolver needs.
type Store interface {
	GetCategory(app string) (*Record, error)
	SaveCategory(rec *Record) error
	ListCategories() ([]*Record, error)
}

// Resolver maps app identifiers to category records using a cache, the
// built-in default table, keyword heuristics, and a pending queue for
// batched backend categorization.
type Resolver struct {
	store Store

	mu      sync.Mutex
	cache   map[string]*Record
	pending map[string]bool
}

func NewResolver(store Store) *Resolver {
	r := &Resolver{
		store:   store,
		cache:   make(map[string]*Record),
		pending: make(map[string]bool),
	}
	r.warmCache()
	return r
}

func (r *Resolver) warmCache() {
	if r.store == nil {
		return
	}
	records, err := r.store.ListCategories()
	if err != nil {
		logger.GetLogger().Warnf("Failed to warm category cache: %v", err)
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range records {
		r.cache[strings.ToLower(rec.App)] = rec
	}
}

// Resolve returns the category record for an app. Unknown apps are
// queued for the next batched categorization pass and answered with an
// interim uncategorized record.
func (r *Resolver) Resolve(app string) *Record {
	key := strings.ToLower(app)

	r.mu.Lock()
	if rec, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return rec
	}
	r.mu.Unlock()

	if entry, ok := lookupDefault(app); ok {
		rec := &Record{
			App:         key,
			Category:    entry.Category,
			Subcategory: entry.Subcategory,
			Score:       entry.Score,
			Origin:      OriginAuto,
			UpdatedAt:   time.Now(),
		}
		r.remember(rec, true)
		return rec
	}

	r.mu.Lock()
	r.pending[key] = true
	r.mu.Unlock()

	return &Record{
		App:       key,
		Category:  "uncategorized",
		Score:     UncategorizedScore,
		Origin:    OriginAuto,
		UpdatedAt: time.Now(),
	}
}

// remember caches a record and optionally persists it. Persistence
// failures are logged and retried implicitly the next time the app
// resolves without a cache hit.
func (r *Resolver) remember(rec *Record, persist bool) {
	r.mu.Lock()
	existing, ok := r.cache[strings.ToLower(rec.App)]
	if ok && existing.Origin == OriginUser && rec.Origin != OriginUser {
		r.mu.Unlock()
		return
	}
	r.cache[strings.ToLower(rec.App)] = rec
	delete(r.pending, strings.ToLower(rec.App))
	r.mu.Unlock()

	if persist && r.store != nil {
		if err := r.store.SaveCategory(rec); err != nil {
			logger.GetLogger().Warnf("Failed to persist category for %s: %v", rec.App, err)
		}
	}
}

// SetUserCategory records a user-submitted assignment. User records are
// permanently protected from automatic overwrite.
func (r *Resolver) SetUserCategory(app, cat, subcat string, score int) error {
	rec := &Record{
		App:         strings.ToLower(app),
		Category:    cat,
		Subcategory: subcat,
		Score:       score,
		Origin:      OriginUser,
		UpdatedAt:   time.Now(),
	}

	r.mu.Lock()
	r.cache[rec.App] = rec
	delete(r.pending, rec.App)
	r.mu.Unlock()

	if r.store == nil {
		return nil
	}
	return r.store.SaveCategory(rec)
}

// PendingApps returns up to limit apps awaiting backend categorization.
func (r *Resolver) PendingApps(limit int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var apps []string
	for app := range r.pending {
		if len(apps) >= limit {
			break
		}
		apps = append(apps, app)
	}
	return apps
}

// applyAuto stores an automatic categorization result. Records with user
// origin are skipped; the pending mark is dropped either way.
func (r *Resolver) applyAuto(app, cat, subcat string, score int) {
	key := strings.ToLower(app)

	r.mu.Lock()
	existing, ok := r.cache[key]
	r.mu.Unlock()
	if ok && existing.Origin == OriginUser {
		r.mu.Lock()
		delete(r.pending, key)
		r.mu.Unlock()
		return
	}

	if r.store != nil {
		if stored, err := r.store.GetCategory(key); err == nil && stored != nil && stored.Origin == OriginUser {
			r.mu.Lock()
			r.cache[key] = stored
			delete(r.pending, key)
			r.mu.Unlock()
			return
		}
	}

	r.remember(&Record{
		App:         key,
		Category:    cat,
		Subcategory: subcat,
		Score:       score,
		Origin:      OriginAuto,
		UpdatedAt:   time.Now(),
	}, true)
}
