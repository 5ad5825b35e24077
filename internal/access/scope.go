// Package access decides which branches and incidents a profile may see.
package access

import (
	"sort"
	"strings"

	"github.com/storewatch/backend/internal/models"
)

// Resolver computes the visible scope of a profile.
type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve returns the branches visible to profile in the order of allBranches. A superadmin sees
// every branch; any other profile sees only its assigned ones.
func (r *Resolver) Resolve(profile *models.UserProfile, allBranches []models.Branch) []models.Branch {
	if profile == nil {
		return []models.Branch{}
	}
	if profile.IsSuperAdmin() {
		out := make([]models.Branch, len(allBranches))
		copy(out, allBranches)
		return out
	}

	assigned := profile.AssignedBranchIDs()
	out := make([]models.Branch, 0, len(assigned))
	for _, b := range allBranches {
		if _, ok := assigned[b.ID]; ok {
			out = append(out, b)
		}
	}
	return out
}

// RequiresBranchSelection reports whether incidents must be withheld until a specific branch is
// chosen. Only superadmins are subject to it.
func (r *Resolver) RequiresBranchSelection(profile *models.UserProfile, filter models.IncidentFilter) bool {
	return profile.IsSuperAdmin() && isAll(filter.BranchID)
}

// CanSeeBranch reports whether branchID is part of the visible set.
func (r *Resolver) CanSeeBranch(visible []models.Branch, branchID string) bool {
	for _, b := range visible {
		if b.ID == branchID {
			return true
		}
	}
	return false
}

// Permits reports whether profile may act on records of branchID.
func (r *Resolver) Permits(profile *models.UserProfile, branchID string) bool {
	if profile == nil {
		return false
	}
	if profile.IsSuperAdmin() {
		return true
	}
	_, ok := profile.AssignedBranchIDs()[branchID]
	return ok
}

// FilterIncidents keeps the incidents of visible branches that match filter, most recent first.
// Incidents with equal creation times keep their input order. Nothing is returned while a branch
// selection is still required.
func (r *Resolver) FilterIncidents(profile *models.UserProfile, incidents []models.Incident, visible []models.Branch, filter models.IncidentFilter) []models.Incident {
	if profile == nil || r.RequiresBranchSelection(profile, filter) {
		return []models.Incident{}
	}
	return r.Narrow(incidents, visible, filter)
}

// Narrow applies filter to the incidents of visible branches without the branch selection gate.
func (r *Resolver) Narrow(incidents []models.Incident, visible []models.Branch, filter models.IncidentFilter) []models.Incident {
	out := make([]models.Incident, 0, len(incidents))

	branches := make(map[string]models.Branch, len(visible))
	for _, b := range visible {
		branches[b.ID] = b
	}

	for _, inc := range incidents {
		branch, ok := branches[inc.BranchID]
		if !ok {
			continue
		}
		if !matches(filter.BranchID, inc.BranchID) ||
			!matches(filter.Category, inc.Category) ||
			!matches(filter.Status, string(inc.Status)) ||
			!matches(filter.Priority, string(inc.Priority)) ||
			!matches(filter.Region, branch.Region) ||
			!matches(filter.Brand, branch.Brand) {
			continue
		}
		out = append(out, inc)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func isAll(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, "all")
}

func matches(want, have string) bool {
	if isAll(want) {
		return true
	}
	want = strings.TrimSpace(want)
	if strings.EqualFold(want, have) {
		return true
	}
	if st, ok := models.ParseStatus(want); ok {
		return string(st) == have
	}
	return false
}
