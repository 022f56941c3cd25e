package models

import "time"

// Link représente un lien raccourci, quel que soit le store qui le persiste.
// Les champs optionnels sont des pointeurs : nil signifie "absent".
type Link struct {
	ID           string  `gorm:"primaryKey;size:36" json:"id"`
	OriginalURL  string  `gorm:"not null" json:"originalUrl"`
	ShortCode    string  `gorm:"uniqueIndex;size:255;not null" json:"shortCode"`
	CreatedAt    int64   `gorm:"autoCreateTime:milli" json:"createdAt"`
	Clicks       int64   `gorm:"not null;default:0" json:"clicks"`
	ExpiresAt    *int64  `gorm:"index" json:"expiresAt"`
	CustomCode   bool    `gorm:"not null;default:false" json:"customCode"`
	CustomDomain *string `json:"customDomain,omitempty"`
}

// IsExpired reports whether the link has an expiry at or before nowMillis.
func (l *Link) IsExpired(nowMillis int64) bool {
	return l.ExpiresAt != nil && *l.ExpiresAt <= nowMillis
}

// Clone returns a deep copy so callers can't mutate a store's internal state.
func (l *Link) Clone() *Link {
	c := *l
	if l.ExpiresAt != nil {
		v := *l.ExpiresAt
		c.ExpiresAt = &v
	}
	if l.CustomDomain != nil {
		v := *l.CustomDomain
		c.CustomDomain = &v
	}
	return &c
}

// Millis converts t to epoch milliseconds, the unit used by CreatedAt and ExpiresAt.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}
