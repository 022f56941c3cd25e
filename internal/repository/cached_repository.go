package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/teenyweeny/urlshortener/internal/models"
)

// CachedLinkRepository décore un LinkRepository avec un cache LRU des lookups par code court,
// le chemin chaud des redirections. Toute écriture passant par lui invalide l'entrée concernée;
// les écritures faites ailleurs (CLI, autre instance) sont visibles au plus tard après le TTL.
type CachedLinkRepository struct {
	LinkRepository

	mu     sync.Mutex // guards every field below, and all accesses to byCode
	byCode *expirable.LRU[string, *models.Link]
	// codeByID holds an entry for every cached link. Entries left behind by LRU
	// evictions are harmless and pruned once the map outgrows the cache.
	codeByID map[string]string
	size     int
	// writes is bumped by every write; a miss only caches what it read if no
	// write happened in between.
	writes uint64
}

// NewCachedLinkRepository enveloppe inner avec un cache de size entrées expirant après ttl.
// Un ttl nul désactive l'expiration.
func NewCachedLinkRepository(inner LinkRepository, size int, ttl time.Duration) (*CachedLinkRepository, error) {
	if size <= 0 {
		return nil, errors.New("link cache size must be positive")
	}
	if ttl < 0 {
		return nil, errors.New("link cache ttl must not be negative")
	}
	return &CachedLinkRepository{
		LinkRepository: inner,
		byCode:         expirable.NewLRU[string, *models.Link](size, nil, ttl),
		codeByID:       make(map[string]string),
		size:           size,
	}, nil
}

// remember caches link unless a write happened since the lookup started at generation.
func (r *CachedLinkRepository) remember(link models.Link, generation uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.writes != generation {
		return
	}
	r.byCode.Add(link.ShortCode, link.Clone())
	r.codeByID[link.ID] = link.ShortCode
	if len(r.codeByID) > 2*r.size {
		r.pruneLocked()
	}
}

// pruneLocked rebuilds codeByID from the links still cached.
func (r *CachedLinkRepository) pruneLocked() {
	r.codeByID = make(map[string]string, r.byCode.Len())
	for _, code := range r.byCode.Keys() {
		if l, ok := r.byCode.Peek(code); ok {
			r.codeByID[l.ID] = code
		}
	}
}

// cachedLocked returns the entry of link id, if cached.
func (r *CachedLinkRepository) cachedLocked(id string) (*models.Link, bool) {
	code, ok := r.codeByID[id]
	if !ok {
		return nil, false
	}
	l, ok := r.byCode.Peek(code)
	if !ok || l.ID != id {
		delete(r.codeByID, id)
		return nil, false
	}
	return l, true
}

func (r *CachedLinkRepository) forgetID(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.writes++
	if l, ok := r.cachedLocked(id); ok {
		r.byCode.Remove(l.ShortCode)
	}
	delete(r.codeByID, id)
}

func (r *CachedLinkRepository) forgetCode(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.writes++
	if l, ok := r.byCode.Peek(code); ok {
		delete(r.codeByID, l.ID)
		r.byCode.Remove(code)
	}
}

func (r *CachedLinkRepository) Put(ctx context.Context, link *models.Link) (string, error) {
	id, err := r.LinkRepository.Put(ctx, link)
	if err == nil {
		r.forgetCode(link.ShortCode)
	}
	return id, err
}

func (r *CachedLinkRepository) PutIfAbsent(ctx context.Context, link *models.Link) (bool, error) {
	inserted, err := r.LinkRepository.PutIfAbsent(ctx, link)
	if err == nil && inserted {
		r.forgetCode(link.ShortCode)
	}
	return inserted, err
}

func (r *CachedLinkRepository) Update(ctx context.Context, id string, patch LinkPatch) (bool, error) {
	found, err := r.LinkRepository.Update(ctx, id, patch)
	r.forgetID(id)
	return found, err
}

// IncrementClicks refreshes the cached counter in place instead of evicting,
// so frequently visited links stay cached without extending their TTL.
// Counters only move forward.
func (r *CachedLinkRepository) IncrementClicks(ctx context.Context, id string, delta int64) (int64, bool, error) {
	clicks, found, err := r.LinkRepository.IncrementClicks(ctx, id, delta)
	if err != nil || !found {
		r.forgetID(id)
		return clicks, found, err
	}

	r.mu.Lock()
	r.writes++
	if l, ok := r.cachedLocked(id); ok && l.Clicks < clicks {
		l.Clicks = clicks
	}
	r.mu.Unlock()
	return clicks, found, nil
}

func (r *CachedLinkRepository) Remove(ctx context.Context, id string) (bool, error) {
	existed, err := r.LinkRepository.Remove(ctx, id)
	r.forgetID(id)
	return existed, err
}

func (r *CachedLinkRepository) FindBy(ctx context.Context, field Field, value any) ([]models.Link, error) {
	code, isCode := value.(string)
	if field != FieldShortCode || !isCode {
		return r.LinkRepository.FindBy(ctx, field, value)
	}

	r.mu.Lock()
	cached, hit := r.byCode.Get(code)
	var link models.Link
	if hit {
		link = *cached.Clone()
	}
	generation := r.writes
	r.mu.Unlock()
	if hit {
		return []models.Link{link}, nil
	}

	links, err := r.LinkRepository.FindBy(ctx, field, value)
	if err != nil {
		return nil, err
	}
	if len(links) == 1 {
		r.remember(links[0], generation)
	}
	return links, nil
}
