package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storewatch/backend/internal/models"
)

// profileBootstrapLock is the advisory lock key serializing profile creation.
const profileBootstrapLock = 7_401_001

type UserRepository interface {
	// CreateProfile stores a new profile. The first profile ever created becomes superadmin and
	// every later one a user, whatever role the caller set.
	CreateProfile(ctx context.Context, user *models.UserProfile) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error)
	FindByEmail(ctx context.Context, email string) (*models.UserProfile, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, page, limit int) ([]models.UserProfile, int64, error)
	AssignBranches(ctx context.Context, userID uuid.UUID, branchIDs []string) (*models.UserProfile, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) CreateProfile(ctx context.Context, user *models.UserProfile) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", profileBootstrapLock).Error; err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.UserProfile{}).Count(&existing).Error; err != nil {
			return err
		}
		if existing == 0 {
			user.Role = models.RoleSuperAdmin
		} else {
			user.Role = models.RoleUser
		}

		return tx.Omit("Branches.*").Create(user).Error
	})
	return translate(err, "profile "+user.Email)
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error) {
	var user models.UserProfile
	err := r.db.WithContext(ctx).
		Preload("Branches").
		First(&user, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "profile "+id.String())
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	var user models.UserProfile
	err := r.db.WithContext(ctx).
		Preload("Branches").
		First(&user, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error
	if err != nil {
		return nil, translate(err, "profile "+email)
	}
	return &user, nil
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserProfile{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&count).Error
	return count > 0, err
}

func (r *userRepository) List(ctx context.Context, page, limit int) ([]models.UserProfile, int64, error) {
	var users []models.UserProfile
	var total int64

	offset := (page - 1) * limit

	err := r.db.WithContext(ctx).Model(&models.UserProfile{}).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = r.db.WithContext(ctx).
		Preload("Branches").
		Offset(offset).
		Limit(limit).
		Order("created_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// AssignBranches replaces the branch assignment of a profile. Unknown branch ids fail with
// models.ErrValidation and leave the assignment unchanged.
func (r *userRepository) AssignBranches(ctx context.Context, userID uuid.UUID, branchIDs []string) (*models.UserProfile, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.UserProfile
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			return err
		}

		branches := []models.Branch{}
		if len(branchIDs) > 0 {
			if err := tx.Where("id IN ?", branchIDs).Find(&branches).Error; err != nil {
				return err
			}
		}
		if missing := missingBranches(branchIDs, branches); len(missing) > 0 {
			return fmt.Errorf("%w: unknown branches %s", models.ErrValidation, strings.Join(missing, ", "))
		}

		return tx.Model(&user).Association("Branches").Replace(branches)
	})
	if err != nil {
		return nil, translate(err, "profile "+userID.String())
	}
	return r.FindByID(ctx, userID)
}

func missingBranches(ids []string, found []models.Branch) []string {
	have := make(map[string]bool, len(found))
	for _, b := range found {
		have[b.ID] = true
	}
	var missing []string
	for _, id := range ids {
		if !have[id] {
			missing = append(missing, id)
		}
	}
	return missing
}
