package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the access level of a user profile.
type Role string

const (
	RoleUser       Role = "user"
	RoleSuperAdmin Role = "superadmin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleSuperAdmin
}

func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

type UserProfile struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name      string    `gorm:"size:200;not null" json:"name"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	Role      Role      `gorm:"size:20;index;not null;default:'user'" json:"role"`
	Branches  []Branch  `gorm:"many2many:user_branches;" json:"branches,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *UserProfile) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u *UserProfile) IsSuperAdmin() bool {
	return u != nil && u.Role == RoleSuperAdmin
}

// AssignedBranchIDs returns the set of branch ids assigned to the profile.
func (u *UserProfile) AssignedBranchIDs() map[string]struct{} {
	set := make(map[string]struct{}, len(u.Branches))
	for _, b := range u.Branches {
		set[b.ID] = struct{}{}
	}
	return set
}

type UserRegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type UserLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AssignBranchesRequest struct {
	BranchIDs []string `json:"branch_ids" validate:"dive,required,max=64"`
}

type UserResponse struct {
	ID        uuid.UUID        `json:"id"`
	Name      string           `json:"name"`
	Email     string           `json:"email"`
	Role      Role             `json:"role"`
	Branches  []BranchResponse `json:"branches"`
	CreatedAt time.Time        `json:"created_at"`
}

type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

func ToUserResponse(u *UserProfile) UserResponse {
	resp := UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Branches:  make([]BranchResponse, 0, len(u.Branches)),
		CreatedAt: u.CreatedAt,
	}
	for _, b := range u.Branches {
		resp.Branches = append(resp.Branches, ToBranchResponse(&b))
	}
	return resp
}
