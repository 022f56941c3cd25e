package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/teenyweeny/urlshortener/internal/models"
)

// ErrConflict est retourné par Put quand l'ID ou le code court existe déjà.
var ErrConflict = errors.New("link already exists")

// ErrUnknownField est retourné par FindBy pour un champ non indexable.
var ErrUnknownField = errors.New("unknown link field")

// ErrNegativeDelta est retourné par IncrementClicks : le compteur ne décroît jamais.
var ErrNegativeDelta = errors.New("click delta must not be negative")

// Field nomme un champ de Link utilisable par FindBy.
type Field string

const (
	FieldID          Field = "id"
	FieldShortCode   Field = "shortCode"
	FieldOriginalURL Field = "originalUrl"
	FieldCustomCode  Field = "customCode"
)

// LinkPatch liste les champs modifiables par Update. Un pointeur nil laisse le champ intact.
// Clicks n'en fait pas partie : seul IncrementClicks le modifie.
type LinkPatch struct {
	OriginalURL    *string
	ExpiresAt      *int64
	ClearExpiresAt bool
	CustomDomain   *string
}

// IsEmpty reports whether applying the patch would change nothing.
func (p LinkPatch) IsEmpty() bool {
	return p.OriginalURL == nil && p.ExpiresAt == nil && !p.ClearExpiresAt && p.CustomDomain == nil
}

// Apply merges the patch into l. Pointer values are copied, never shared.
func (p LinkPatch) Apply(l *models.Link) {
	if p.OriginalURL != nil {
		l.OriginalURL = *p.OriginalURL
	}
	if p.ClearExpiresAt {
		l.ExpiresAt = nil
	} else if p.ExpiresAt != nil {
		v := *p.ExpiresAt
		l.ExpiresAt = &v
	}
	if p.CustomDomain != nil {
		v := *p.CustomDomain
		l.CustomDomain = &v
	}
}

// LinkRepository est l'interface de persistance utilisée par le LinkService.
// Toutes les implémentations sont interchangeables.
type LinkRepository interface {
	// Put insère un nouveau lien et retourne son ID. ErrConflict si l'ID ou le code existe déjà.
	Put(ctx context.Context, link *models.Link) (string, error)
	// PutIfAbsent insère le lien seulement si son code court est libre, de façon atomique.
	// ErrConflict si l'ID existe déjà.
	PutIfAbsent(ctx context.Context, link *models.Link) (bool, error)
	// Update fusionne patch dans le lien id. Retourne false si le lien n'existe pas.
	Update(ctx context.Context, id string, patch LinkPatch) (bool, error)
	// IncrementClicks ajoute delta au compteur de façon atomique et retourne la nouvelle valeur.
	IncrementClicks(ctx context.Context, id string, delta int64) (int64, bool, error)
	// Remove supprime le lien id. Retourne false s'il n'existait pas.
	Remove(ctx context.Context, id string) (bool, error)
	// GetAll retourne tous les liens, triés par date de création.
	GetAll(ctx context.Context) ([]models.Link, error)
	// FindBy retourne les liens dont le champ vaut value.
	FindBy(ctx context.Context, field Field, value any) ([]models.Link, error)
}

// assignID gives the link a fresh UUID when the caller left it empty.
func assignID(link *models.Link) {
	if link.ID == "" {
		link.ID = uuid.NewString()
	}
}

func checkDelta(delta int64) error {
	if delta < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeDelta, delta)
	}
	return nil
}

// matchField is the in-process equivalent of a WHERE field = value clause.
func matchField(l *models.Link, field Field, value any) (bool, error) {
	switch field {
	case FieldID:
		s, ok := value.(string)
		return ok && l.ID == s, nil
	case FieldShortCode:
		s, ok := value.(string)
		return ok && l.ShortCode == s, nil
	case FieldOriginalURL:
		s, ok := value.(string)
		return ok && l.OriginalURL == s, nil
	case FieldCustomCode:
		b, ok := value.(bool)
		return ok && l.CustomCode == b, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
}

// filterLinks applies matchField over a snapshot.
func filterLinks(links []models.Link, field Field, value any) ([]models.Link, error) {
	var out []models.Link
	for i := range links {
		ok, err := matchField(&links[i], field, value)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, *links[i].Clone())
		}
	}
	return out, nil
}
