package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/teenyweeny/urlshortener/internal/models"
)

// DefaultFileName is the document the file repository persists to when no path is configured.
const DefaultFileName = "teenyweeny_urls.json"

// FileLinkRepository persiste tous les liens dans un seul document JSON local.
// Chaque écriture réécrit le document avant de modifier l'état en mémoire,
// donc un échec d'écriture laisse le repository inchangé.
type FileLinkRepository struct {
	mu    sync.RWMutex
	path  string
	links []models.Link
	log   zerolog.Logger
}

// NewFileLinkRepository charge path s'il existe, sinon démarre vide.
func NewFileLinkRepository(path string, log zerolog.Logger) (*FileLinkRepository, error) {
	if path == "" {
		path = DefaultFileName
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve link file path: %w", err)
	}

	r := &FileLinkRepository{path: absPath, log: log}
	data, err := os.ReadFile(absPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Info().Str("path", absPath).Msg("link file not found, starting empty")
		return r, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read link file: %w", err)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &r.links); err != nil {
			return nil, fmt.Errorf("failed to decode link file %s: %w", absPath, err)
		}
	}
	log.Info().Int("count", len(r.links)).Str("path", absPath).Msg("links loaded from file")
	return r, nil
}

// Path returns the absolute location of the backing document.
func (r *FileLinkRepository) Path() string {
	return r.path
}

// commitLocked writes next to disk through a temp file then swaps it in.
func (r *FileLinkRepository) commitLocked(next []models.Link) error {
	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode links: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("failed to create link directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".links-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp link file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write link file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close link file: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("failed to replace link file: %w", err)
	}

	r.links = next
	return nil
}

func (r *FileLinkRepository) indexLocked(id string) int {
	return slices.IndexFunc(r.links, func(l models.Link) bool { return l.ID == id })
}

func (r *FileLinkRepository) codeTakenLocked(code string) bool {
	return slices.ContainsFunc(r.links, func(l models.Link) bool { return l.ShortCode == code })
}

func (r *FileLinkRepository) Put(_ context.Context, link *models.Link) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	assignID(link)
	if r.indexLocked(link.ID) >= 0 || r.codeTakenLocked(link.ShortCode) {
		return "", ErrConflict
	}
	if err := r.commitLocked(append(slices.Clone(r.links), *link.Clone())); err != nil {
		return "", err
	}
	return link.ID, nil
}

func (r *FileLinkRepository) PutIfAbsent(_ context.Context, link *models.Link) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	assignID(link)
	if r.indexLocked(link.ID) >= 0 {
		return false, ErrConflict
	}
	if r.codeTakenLocked(link.ShortCode) {
		return false, nil
	}
	if err := r.commitLocked(append(slices.Clone(r.links), *link.Clone())); err != nil {
		return false, err
	}
	return true, nil
}

func (r *FileLinkRepository) Update(_ context.Context, id string, patch LinkPatch) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(id)
	if i < 0 {
		return false, nil
	}
	if patch.IsEmpty() {
		return true, nil
	}
	next := slices.Clone(r.links)
	patch.Apply(&next[i])
	return true, r.commitLocked(next)
}

func (r *FileLinkRepository) IncrementClicks(_ context.Context, id string, delta int64) (int64, bool, error) {
	if err := checkDelta(delta); err != nil {
		return 0, false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(id)
	if i < 0 {
		return 0, false, nil
	}
	next := slices.Clone(r.links)
	next[i].Clicks += delta
	if err := r.commitLocked(next); err != nil {
		return 0, true, err
	}
	return next[i].Clicks, true, nil
}

func (r *FileLinkRepository) Remove(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(id)
	if i < 0 {
		return false, nil
	}
	next := slices.Delete(slices.Clone(r.links), i, i+1)
	if err := r.commitLocked(next); err != nil {
		return true, err
	}
	return true, nil
}

func (r *FileLinkRepository) GetAll(_ context.Context) ([]models.Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Link, 0, len(r.links))
	for i := range r.links {
		out = append(out, *r.links[i].Clone())
	}
	return out, nil
}

func (r *FileLinkRepository) FindBy(_ context.Context, field Field, value any) ([]models.Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return filterLinks(r.links, field, value)
}
