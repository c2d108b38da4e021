package models

import (
	"time"

	"github.com/google/uuid"
)

// KurtiStyle is a garment silhouette the user can pick (A-Line, Anarkali, ...).
type KurtiStyle struct {
	ID          uuid.UUID `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Icon        *string   `json:"icon,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}
