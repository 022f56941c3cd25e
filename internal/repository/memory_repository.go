package repository

import (
	"context"
	"sync"

	"github.com/teenyweeny/urlshortener/internal/models"
)

// MemoryLinkRepository garde les liens en mémoire, dans l'ordre d'insertion.
type MemoryLinkRepository struct {
	mu     sync.RWMutex
	links  map[string]*models.Link
	byCode map[string]string
	order  []string
}

// NewMemoryLinkRepository crée un repository vide.
func NewMemoryLinkRepository() *MemoryLinkRepository {
	return &MemoryLinkRepository{
		links:  make(map[string]*models.Link),
		byCode: make(map[string]string),
	}
}

func (r *MemoryLinkRepository) Put(_ context.Context, link *models.Link) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	assignID(link)
	if !r.insertLocked(link) {
		return "", ErrConflict
	}
	return link.ID, nil
}

func (r *MemoryLinkRepository) PutIfAbsent(_ context.Context, link *models.Link) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	assignID(link)
	if _, taken := r.links[link.ID]; taken {
		return false, ErrConflict
	}
	return r.insertLocked(link), nil
}

// insertLocked stores a copy of link unless its id or short code is taken.
func (r *MemoryLinkRepository) insertLocked(link *models.Link) bool {
	if _, taken := r.links[link.ID]; taken {
		return false
	}
	if _, taken := r.byCode[link.ShortCode]; taken {
		return false
	}
	r.links[link.ID] = link.Clone()
	r.byCode[link.ShortCode] = link.ID
	r.order = append(r.order, link.ID)
	return true
}

func (r *MemoryLinkRepository) Update(_ context.Context, id string, patch LinkPatch) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.links[id]
	if !ok {
		return false, nil
	}
	patch.Apply(l)
	return true, nil
}

func (r *MemoryLinkRepository) IncrementClicks(_ context.Context, id string, delta int64) (int64, bool, error) {
	if err := checkDelta(delta); err != nil {
		return 0, false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.links[id]
	if !ok {
		return 0, false, nil
	}
	l.Clicks += delta
	return l.Clicks, true, nil
}

func (r *MemoryLinkRepository) Remove(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.links[id]
	if !ok {
		return false, nil
	}
	delete(r.links, id)
	if r.byCode[l.ShortCode] == id {
		delete(r.byCode, l.ShortCode)
	}
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (r *MemoryLinkRepository) GetAll(_ context.Context) ([]models.Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Link, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.links[id].Clone())
	}
	return out, nil
}

func (r *MemoryLinkRepository) FindBy(_ context.Context, field Field, value any) ([]models.Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Lookups by code and id are served from the indexes.
	switch field {
	case FieldShortCode:
		code, _ := value.(string)
		if id, ok := r.byCode[code]; ok {
			return []models.Link{*r.links[id].Clone()}, nil
		}
		return nil, nil
	case FieldID:
		id, _ := value.(string)
		if l, ok := r.links[id]; ok {
			return []models.Link{*l.Clone()}, nil
		}
		return nil, nil
	}

	var out []models.Link
	for _, id := range r.order {
		l := r.links[id]
		ok, err := matchField(l, field, value)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, *l.Clone())
		}
	}
	return out, nil
}
