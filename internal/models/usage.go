package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AIUsage is the token accounting reported by the inference endpoint. Counts the endpoint did not
// report stay nil rather than zero.
type AIUsage struct {
	InputTokens  *int `json:"input_tokens,omitempty"`
	OutputTokens *int `json:"output_tokens,omitempty"`
	TotalTokens  *int `json:"total_tokens,omitempty"`
}

func (u *AIUsage) Empty() bool {
	return u == nil || (u.InputTokens == nil && u.OutputTokens == nil && u.TotalTokens == nil)
}

type UsageOperation string

const (
	UsageClassify   UsageOperation = "classify"
	UsageTranscribe UsageOperation = "transcribe"
)

// AIUsageRecord is one accounted inference call
type AIUsageRecord struct {
	ID           uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	UserID       *uuid.UUID     `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Operation    UsageOperation `gorm:"size:20;index;not null" json:"operation"`
	Model        string         `gorm:"size:100" json:"model"`
	InputTokens  *int           `json:"input_tokens"`
	OutputTokens *int           `json:"output_tokens"`
	TotalTokens  *int           `json:"total_tokens"`
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`
}

func (r *AIUsageRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type UsageFilter struct {
	Operation string     `json:"operation"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	Page      int        `json:"page"`
	Limit     int        `json:"limit"`
}

// UsageSummary totals the reported token counts of the matching records.
type UsageSummary struct {
	Calls        int64 `json:"calls"`
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
	TotalTokens  int64 `json:"total_tokens"`
}
