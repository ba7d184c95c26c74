package domain

import (
	"fmt"
	"strings"
	"time"
)

// ContentBlock is an editable chunk of the public site, addressed by key
// (e.g. "hero_title", "about_text").
type ContentBlock struct {
	ID            int64     `json:"id"`
	Key           string    `json:"key"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	MediaURL      string    `json:"media_url"`
	UpdatedBy     *int64    `json:"updated_by,omitempty"`
	UpdatedByName string    `json:"updated_by_name,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PublicContent is the trimmed shape served to the public site.
type PublicContent struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	MediaURL string `json:"media_url"`
}

type ContentBlockRequest struct {
	Key      *string `json:"key,omitempty"`
	Title    *string `json:"title,omitempty"`
	Content  *string `json:"content,omitempty"`
	MediaURL *string `json:"media_url,omitempty"`
}

func (r *ContentBlockRequest) ValidateForCreate() error {
	if r.Key == nil || strings.TrimSpace(*r.Key) == "" {
		return fmt.Errorf("%w: key is required", ErrValidation)
	}
	return nil
}
