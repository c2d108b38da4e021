package models

import (
	"time"

	"github.com/google/uuid"
)

// Generation records one user's attempt to produce a composite image.
type Generation struct {
	ID                uuid.UUID `json:"id"`
	UserID            uuid.UUID `json:"user_id"`
	FabricID          uuid.UUID `json:"fabric_id"`
	KurtiStyleID      uuid.UUID `json:"kurti_style_id"`
	UserImageURL      string    `json:"user_image_url"`
	GeneratedImageURL *string   `json:"generated_image_url,omitempty"`
	Status            string    `json:"status"`
	PromptUsed        *string   `json:"prompt_used,omitempty"`
	ErrorMessage      *string   `json:"error_message,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Generation status values.
const (
	GenerationStatusProcessing = "processing"
	GenerationStatusCompleted  = "completed"
	GenerationStatusFailed     = "failed"
)

// IsTerminal reports whether the generation has finished, successfully or not.
func (g *Generation) IsTerminal() bool {
	return g.Status == GenerationStatusCompleted || g.Status == GenerationStatusFailed
}
