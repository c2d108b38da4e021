// Package models contains domain types for fabric-fusion.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Fabric represents a purchasable textile pattern in the catalog.
type Fabric struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	FabricType  *string    `json:"fabric_type,omitempty"`
	Description *string    `json:"description,omitempty"`
	Price       *float64   `json:"price,omitempty"`
	ImageURL    string     `json:"image_url"`
	IsActive    bool       `json:"is_active"`
	CreatedBy   *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// PendingImageURL is stored on a fabric row between insert and image upload.
const PendingImageURL = "pending"
