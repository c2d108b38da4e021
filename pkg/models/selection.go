package models

import "strings"

// Selection is the shopper's in-progress choice of fabric, style and photo.
type Selection struct {
	FabricID     string `json:"fabric_id"`
	StyleID      string `json:"style_id"`
	UserImageURL string `json:"user_image_url"`
}

// SelectionUpdate carries the fields to change. Nil leaves a field as is,
// an empty string clears it.
type SelectionUpdate struct {
	FabricID     *string `json:"fabric_id"`
	StyleID      *string `json:"style_id"`
	UserImageURL *string `json:"user_image_url"`
}

// ReadyToGenerate reports whether all three selections are present.
func (s Selection) ReadyToGenerate() bool {
	return strings.TrimSpace(s.FabricID) != "" &&
		strings.TrimSpace(s.StyleID) != "" &&
		strings.TrimSpace(s.UserImageURL) != ""
}

// Apply merges u into s.
func (s *Selection) Apply(u SelectionUpdate) {
	if u.FabricID != nil {
		s.FabricID = strings.TrimSpace(*u.FabricID)
	}
	if u.StyleID != nil {
		s.StyleID = strings.TrimSpace(*u.StyleID)
	}
	if u.UserImageURL != nil {
		s.UserImageURL = strings.TrimSpace(*u.UserImageURL)
	}
}
