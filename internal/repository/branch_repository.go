package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/storewatch/backend/internal/models"
)

type BranchRepository interface {
	FindByID(ctx context.Context, id string) (*models.Branch, error)
	List(ctx context.Context) ([]models.Branch, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Branch, error)
}

type branchRepository struct {
	db *gorm.DB
}

func NewBranchRepository(db *gorm.DB) BranchRepository {
	return &branchRepository{db: db}
}

func (r *branchRepository) FindByID(ctx context.Context, id string) (*models.Branch, error) {
	var branch models.Branch
	if err := r.db.WithContext(ctx).First(&branch, "id = ?", id).Error; err != nil {
		return nil, translate(err, "branch "+id)
	}
	return &branch, nil
}

func (r *branchRepository) List(ctx context.Context) ([]models.Branch, error) {
	branches := []models.Branch{}
	err := r.db.WithContext(ctx).Order("name ASC").Find(&branches).Error
	return branches, err
}

func (r *branchRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Branch, error) {
	branches := []models.Branch{}
	if len(ids) == 0 {
		return branches, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("name ASC").Find(&branches).Error
	return branches, err
}
