package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Priority is the impact level of an incident on branch operations.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// AllPriorities in ascending order of impact.
var AllPriorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ParsePriority accepts any casing of Low, Medium or High.
func ParsePriority(s string) (Priority, bool) {
	for _, p := range AllPriorities {
		if strings.EqualFold(strings.TrimSpace(s), string(p)) {
			return p, true
		}
	}
	return "", false
}

// Status is the lifecycle state of an incident.
type Status string

const (
	StatusOpen       Status = "Open"
	StatusInProgress Status = "In Progress"
	StatusResolved   Status = "Resolved"
)

var AllStatuses = []Status{StatusOpen, StatusInProgress, StatusResolved}

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// ParseStatus accepts "In Progress", "InProgress", "in_progress" and the other states in any casing.
func ParseStatus(s string) (Status, bool) {
	key := strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	for _, st := range AllStatuses {
		if key == strings.ToLower(strings.ReplaceAll(string(st), " ", "")) {
			return st, true
		}
	}
	return "", false
}

// Incident is a store incident report
type Incident struct {
	ID                uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	BranchID          string     `gorm:"size:64;index;not null" json:"branch_id"`
	Branch            *Branch    `gorm:"foreignKey:BranchID" json:"branch,omitempty"`
	Title             string     `gorm:"size:200;not null" json:"title"`
	Category          string     `gorm:"size:100;index;not null" json:"category"`
	Priority          Priority   `gorm:"size:20;index;not null" json:"priority"`
	PriorityReasoning string     `gorm:"type:text" json:"priority_reasoning"`
	Status            Status     `gorm:"size:20;index;not null" json:"status"`
	Description       string     `gorm:"type:text" json:"description"`
	PhotoRef          string     `gorm:"size:1000" json:"photo_ref,omitempty"`
	AudioTranscript   string     `gorm:"type:text" json:"audio_transcript,omitempty"`
	ReporterID        *uuid.UUID `gorm:"type:uuid;index" json:"reporter_id,omitempty"`

	// Seq is assigned by the store on insert and breaks createdAt ties in insertion order.
	Seq       int64     `gorm:"autoIncrement;uniqueIndex;not null" json:"-"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// PreviousStatus is the status replaced by UpdateStatus, read under the same lock. Not stored.
	PreviousStatus Status `gorm:"-" json:"-"`
}

func (i *Incident) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// IncidentStatusChange records every status transition of an incident
type IncidentStatusChange struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	IncidentID  uuid.UUID  `gorm:"type:uuid;index;not null" json:"incident_id"`
	FromStatus  Status     `gorm:"size:20;not null" json:"from_status"`
	ToStatus    Status     `gorm:"size:20;not null" json:"to_status"`
	ChangedByID *uuid.UUID `gorm:"type:uuid;index" json:"changed_by_id,omitempty"`
	ChangedAt   time.Time  `gorm:"index" json:"changed_at"`
}

func (c *IncidentStatusChange) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Request types

type IncidentCreateRequest struct {
	BranchID          string `json:"branch_id" validate:"required,max=64"`
	Title             string `json:"title" validate:"required,min=3,max=200"`
	Category          string `json:"category" validate:"required,max=100"`
	Priority          string `json:"priority" validate:"required"`
	PriorityReasoning string `json:"priority_reasoning"`
	Status            string `json:"status"`
	Description       string `json:"description"`
	PhotoRef          string `json:"photo_ref" validate:"max=1000"`
	AudioTranscript   string `json:"audio_transcript"`
}

type IncidentStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// IncidentFilter narrows an already scoped incident list. Empty values and "all" mean no constraint.
type IncidentFilter struct {
	BranchID string `json:"branch_id"`
	Category string `json:"category"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
	Region   string `json:"region"`
	Brand    string `json:"brand"`
}

// Response types

type IncidentResponse struct {
	ID                uuid.UUID       `json:"id"`
	BranchID          string          `json:"branch_id"`
	Branch            *BranchResponse `json:"branch,omitempty"`
	Title             string          `json:"title"`
	Category          string          `json:"category"`
	Priority          Priority        `json:"priority"`
	PriorityReasoning string          `json:"priority_reasoning"`
	Status            Status          `json:"status"`
	Description       string          `json:"description"`
	PhotoRef          string          `json:"photo_ref,omitempty"`
	PhotoURL          string          `json:"photo_url,omitempty"`
	AudioTranscript   string          `json:"audio_transcript,omitempty"`
	ReporterID        *uuid.UUID      `json:"reporter_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// IncidentListResponse carries the caller's visible branches along with the scoped incidents.
// SelectBranch is set when incidents are withheld until a specific branch is chosen.
type IncidentListResponse struct {
	Branches     []BranchResponse   `json:"branches"`
	Incidents    []IncidentResponse `json:"incidents"`
	SelectBranch bool               `json:"select_branch"`
}

type StatusChangeResponse struct {
	ID          uuid.UUID  `json:"id"`
	IncidentID  uuid.UUID  `json:"incident_id"`
	FromStatus  Status     `json:"from_status"`
	ToStatus    Status     `json:"to_status"`
	ChangedByID *uuid.UUID `json:"changed_by_id,omitempty"`
	ChangedAt   time.Time  `json:"changed_at"`
}

// IncidentStats counts open and in-progress incidents per priority
type IncidentStats struct {
	Unresolved int64              `json:"unresolved"`
	ByPriority map[Priority]int64 `json:"by_priority"`
}

// Converter functions

func ToIncidentResponse(i *Incident) IncidentResponse {
	resp := IncidentResponse{
		ID:                i.ID,
		BranchID:          i.BranchID,
		Title:             i.Title,
		Category:          i.Category,
		Priority:          i.Priority,
		PriorityReasoning: i.PriorityReasoning,
		Status:            i.Status,
		Description:       i.Description,
		PhotoRef:          i.PhotoRef,
		AudioTranscript:   i.AudioTranscript,
		ReporterID:        i.ReporterID,
		CreatedAt:         i.CreatedAt,
		UpdatedAt:         i.UpdatedAt,
	}

	if i.Branch != nil {
		branchResp := ToBranchResponse(i.Branch)
		resp.Branch = &branchResp
	}

	return resp
}

func ToStatusChangeResponse(c *IncidentStatusChange) StatusChangeResponse {
	return StatusChangeResponse{
		ID:          c.ID,
		IncidentID:  c.IncidentID,
		FromStatus:  c.FromStatus,
		ToStatus:    c.ToStatus,
		ChangedByID: c.ChangedByID,
		ChangedAt:   c.ChangedAt,
	}
}
