package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/teenyweeny/urlshortener/internal/models"
)

// columns maps FindBy fields to SQL column names.
var columns = map[Field]string{
	FieldID:          "id",
	FieldShortCode:   "short_code",
	FieldOriginalURL: "original_url",
	FieldCustomCode:  "custom_code",
}

var errRowNotFound = errors.New("row not found")

// GormLinkRepository est l'implémentation de LinkRepository utilisant GORM.
// L'index unique sur short_code garantit l'unicité côté base.
type GormLinkRepository struct {
	db *gorm.DB
}

// NewLinkRepository crée et retourne une nouvelle instance de GormLinkRepository.
func NewLinkRepository(db *gorm.DB) *GormLinkRepository {
	return &GormLinkRepository{db: db}
}

// Migrate crée ou met à jour la table links.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Link{}); err != nil {
		return fmt.Errorf("failed to migrate links table: %w", err)
	}
	return nil
}

// insertIgnore runs INSERT ... ON CONFLICT DO NOTHING and reports whether a row was written.
func (r *GormLinkRepository) insertIgnore(ctx context.Context, link *models.Link) (bool, error) {
	assignID(link)
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(link)
	if res.Error != nil {
		return false, fmt.Errorf("failed to create link: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Put insère un nouveau lien dans la base de données.
func (r *GormLinkRepository) Put(ctx context.Context, link *models.Link) (string, error) {
	inserted, err := r.insertIgnore(ctx, link)
	if err != nil {
		return "", err
	}
	if !inserted {
		return "", ErrConflict
	}
	return link.ID, nil
}

// PutIfAbsent insère le lien sauf si son code court est déjà pris.
// Un ID déjà pris est une erreur, pas un code occupé.
func (r *GormLinkRepository) PutIfAbsent(ctx context.Context, link *models.Link) (bool, error) {
	inserted, err := r.insertIgnore(ctx, link)
	if err != nil || inserted {
		return inserted, err
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Link{}).Where("id = ?", link.ID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to look up link %s: %w", link.ID, err)
	}
	if count > 0 {
		return false, ErrConflict
	}
	return false, nil
}

// Update applique patch au lien id.
func (r *GormLinkRepository) Update(ctx context.Context, id string, patch LinkPatch) (bool, error) {
	values := map[string]any{}
	if patch.OriginalURL != nil {
		values["original_url"] = *patch.OriginalURL
	}
	if patch.ClearExpiresAt {
		values["expires_at"] = nil
	} else if patch.ExpiresAt != nil {
		values["expires_at"] = *patch.ExpiresAt
	}
	if patch.CustomDomain != nil {
		values["custom_domain"] = *patch.CustomDomain
	}

	if len(values) == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Link{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return false, fmt.Errorf("failed to look up link %s: %w", id, err)
		}
		return count > 0, nil
	}

	res := r.db.WithContext(ctx).Model(&models.Link{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return false, fmt.Errorf("failed to update link %s: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// IncrementClicks incrémente le compteur en SQL (clicks = clicks + ?), sans lecture préalable.
func (r *GormLinkRepository) IncrementClicks(ctx context.Context, id string, delta int64) (int64, bool, error) {
	if err := checkDelta(delta); err != nil {
		return 0, false, err
	}

	var clicks int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Link{}).Where("id = ?", id).UpdateColumn("clicks", gorm.Expr("clicks + ?", delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errRowNotFound
		}
		return tx.Model(&models.Link{}).Select("clicks").Where("id = ?", id).Scan(&clicks).Error
	})
	if errors.Is(err, errRowNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to increment clicks for link %s: %w", id, err)
	}
	return clicks, true, nil
}

// Remove supprime le lien id.
func (r *GormLinkRepository) Remove(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Link{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete link %s: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// GetAll récupère tous les liens de la base de données.
func (r *GormLinkRepository) GetAll(ctx context.Context) ([]models.Link, error) {
	var links []models.Link
	if err := r.db.WithContext(ctx).Order("created_at asc, id asc").Find(&links).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve all links: %w", err)
	}
	return links, nil
}

// FindBy récupère les liens dont la colonne correspondant à field vaut value.
func (r *GormLinkRepository) FindBy(ctx context.Context, field Field, value any) ([]models.Link, error) {
	column, ok := columns[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	var links []models.Link
	if err := r.db.WithContext(ctx).Where(column+" = ?", value).Order("created_at asc, id asc").Find(&links).Error; err != nil {
		return nil, fmt.Errorf("failed to find links by %s: %w", field, err)
	}
	return links, nil
}
