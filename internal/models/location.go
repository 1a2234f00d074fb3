package models

import "time"

// Location is a base that holds stock.
type Location struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Place     *string   `json:"place,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateLocationRequest struct {
	Name  string  `json:"name"`
	Code  string  `json:"code"`
	Place *string `json:"place,omitempty"`
}

type UpdateLocationRequest struct {
	Name     *string `json:"name,omitempty"`
	Code     *string `json:"code,omitempty"`
	Place    *string `json:"place,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}
