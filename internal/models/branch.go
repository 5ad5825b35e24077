package models

import (
	"time"
)

// Branch is a store location incidents are reported against. Branches are seeded reference data.
type Branch struct {
	ID        string    `gorm:"size:64;primary_key" json:"id" yaml:"id"`
	Name      string    `gorm:"size:200;not null" json:"name" yaml:"name"`
	Region    string    `gorm:"size:100;index" json:"region" yaml:"region"`
	Brand     string    `gorm:"size:100;index" json:"brand" yaml:"brand"`
	Address   string    `gorm:"size:500" json:"address" yaml:"address"`
	ImageRef  string    `gorm:"size:500" json:"image_ref" yaml:"image_ref"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
}

// BranchResponse for API responses
type BranchResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Region   string `json:"region"`
	Brand    string `json:"brand"`
	Address  string `json:"address"`
	ImageRef string `json:"image_ref,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

func ToBranchResponse(b *Branch) BranchResponse {
	return BranchResponse{
		ID:       b.ID,
		Name:     b.Name,
		Region:   b.Region,
		Brand:    b.Brand,
		Address:  b.Address,
		ImageRef: b.ImageRef,
	}
}

// BranchIDs returns the ids of the given branches in order.
func BranchIDs(branches []Branch) []string {
	ids := make([]string, len(branches))
	for i, b := range branches {
		ids[i] = b.ID
	}
	return ids
}
