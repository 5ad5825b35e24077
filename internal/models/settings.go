package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DefaultCategories seeded on first run.
var DefaultCategories = []string{
	"Equipment",
	"Maintenance",
	"Safety",
	"Security",
	"Cleanliness",
	"IT",
	"Staffing",
	"Other",
}

// IncidentSettings is the classifier configuration: allowed categories and priorities, in order.
type IncidentSettings struct {
	Categories []string   `json:"categories"`
	Priorities []Priority `json:"priorities"`
}

func DefaultIncidentSettings() IncidentSettings {
	cats := make([]string, len(DefaultCategories))
	copy(cats, DefaultCategories)
	prios := make([]Priority, len(AllPriorities))
	copy(prios, AllPriorities)
	return IncidentSettings{Categories: cats, Priorities: prios}
}

// MatchCategory returns the canonical spelling of name if it is a configured category.
func (s IncidentSettings) MatchCategory(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, c := range s.Categories {
		if strings.EqualFold(c, name) {
			return c, true
		}
	}
	return "", false
}

func (s IncidentSettings) HasCategory(name string) bool {
	for _, c := range s.Categories {
		if c == name {
			return true
		}
	}
	return false
}

// AllowsPriority reports whether p is configured. An empty priority list allows all three levels.
func (s IncidentSettings) AllowsPriority(p Priority) bool {
	if !p.Valid() {
		return false
	}
	if len(s.Priorities) == 0 {
		return true
	}
	for _, allowed := range s.Priorities {
		if allowed == p {
			return true
		}
	}
	return false
}

// Normalize trims and de-duplicates categories and priorities, keeping first occurrence order.
func (s IncidentSettings) Normalize() (IncidentSettings, error) {
	out := IncidentSettings{}
	seen := make(map[string]bool)
	for _, c := range s.Categories {
		c = strings.TrimSpace(c)
		key := strings.ToLower(c)
		if c == "" || seen[key] {
			continue
		}
		seen[key] = true
		out.Categories = append(out.Categories, c)
	}
	if len(out.Categories) == 0 {
		return out, fmt.Errorf("%w: at least one category is required", ErrValidation)
	}

	seenPrio := make(map[Priority]bool)
	for _, p := range s.Priorities {
		parsed, ok := ParsePriority(string(p))
		if !ok {
			return out, fmt.Errorf("%w: unknown priority %q", ErrValidation, p)
		}
		if seenPrio[parsed] {
			continue
		}
		seenPrio[parsed] = true
		out.Priorities = append(out.Priorities, parsed)
	}
	if len(out.Priorities) == 0 {
		out.Priorities = append(out.Priorities, AllPriorities...)
	}
	return out, nil
}

// SettingsRecord is the persisted form of IncidentSettings, a single row with JSON columns.
type SettingsRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Categories string    `gorm:"type:text;not null" json:"categories"`
	Priorities string    `gorm:"type:text;not null" json:"priorities"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (SettingsRecord) TableName() string {
	return "incident_settings"
}

func (r *SettingsRecord) ToSettings() (IncidentSettings, error) {
	var s IncidentSettings
	if err := json.Unmarshal([]byte(r.Categories), &s.Categories); err != nil {
		return s, fmt.Errorf("decode categories: %w", err)
	}
	if err := json.Unmarshal([]byte(r.Priorities), &s.Priorities); err != nil {
		return s, fmt.Errorf("decode priorities: %w", err)
	}
	return s, nil
}

func NewSettingsRecord(s IncidentSettings) (*SettingsRecord, error) {
	cats, err := json.Marshal(s.Categories)
	if err != nil {
		return nil, err
	}
	prios, err := json.Marshal(s.Priorities)
	if err != nil {
		return nil, err
	}
	return &SettingsRecord{ID: 1, Categories: string(cats), Priorities: string(prios)}, nil
}

type SettingsUpdateRequest struct {
	Categories []string `json:"categories" validate:"required,min=1,dive,required,max=100"`
	Priorities []string `json:"priorities" validate:"omitempty,dive,required"`
}
