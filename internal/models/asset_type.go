package models

import "time"

type AssetType struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Unit         string    `json:"unit"`
	IsConsumable bool      `json:"is_consumable"`
	Description  *string   `json:"description,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CreateAssetTypeRequest struct {
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Unit         string  `json:"unit"`
	IsConsumable bool    `json:"is_consumable"`
	Description  *string `json:"description,omitempty"`
}

type UpdateAssetTypeRequest struct {
	Name         *string `json:"name,omitempty"`
	Category     *string `json:"category,omitempty"`
	Unit         *string `json:"unit,omitempty"`
	IsConsumable *bool   `json:"is_consumable,omitempty"`
	Description  *string `json:"description,omitempty"`
	IsActive     *bool   `json:"is_active,omitempty"`
}

// AssetCategories lists the accepted asset type categories.
var AssetCategories = []string{"weapon", "vehicle", "equipment", "ammunition", "other"}

// IsValidCategory checks if a category is one of AssetCategories
func IsValidCategory(category string) bool {
	for _, c := range AssetCategories {
		if c == category {
			return true
		}
	}
	return false
}
