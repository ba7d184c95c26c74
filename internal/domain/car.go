package domain

import (
	"fmt"
	"strings"
	"time"
)

type Car struct {
	ID           int64             `json:"id"`
	Name         string            `json:"name"`
	Brand        string            `json:"brand"`
	Details      string            `json:"details"`
	ImageURL     string            `json:"image_url"`
	IsActive     bool              `json:"is_active"`
	Year         string            `json:"year"`
	Seats        string            `json:"seats"`
	Transmission string            `json:"transmission"`
	Fuel         string            `json:"fuel"`
	Features     []string          `json:"features"`
	Specs        map[string]string `json:"specs"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

type CarRequest struct {
	Name         *string           `json:"name,omitempty"`
	Brand        *string           `json:"brand,omitempty"`
	Details      *string           `json:"details,omitempty"`
	ImageURL     *string           `json:"image_url,omitempty"`
	IsActive     *bool             `json:"is_active,omitempty"`
	Year         *string           `json:"year,omitempty"`
	Seats        *string           `json:"seats,omitempty"`
	Transmission *string           `json:"transmission,omitempty"`
	Fuel         *string           `json:"fuel,omitempty"`
	Features     []string          `json:"features,omitempty"`
	Specs        map[string]string `json:"specs,omitempty"`
}

func (r *CarRequest) ValidateForCreate() error {
	if r.Name == nil || strings.TrimSpace(*r.Name) == "" {
		return fmt.Errorf("%w: car name is required", ErrValidation)
	}
	return nil
}
