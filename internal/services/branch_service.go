package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/storewatch/backend/internal/access"
	"github.com/storewatch/backend/internal/models"
	"github.com/storewatch/backend/internal/repository"
)

type BranchService interface {
	List(ctx context.Context, viewer *models.UserProfile) ([]models.BranchResponse, error)
	Get(ctx context.Context, id string, viewer *models.UserProfile) (*models.BranchResponse, error)
}

type branchService struct {
	branchRepo repository.BranchRepository
	scope      *access.Resolver
	signer     MediaURLSigner
	log        *zap.Logger
}

func NewBranchService(branchRepo repository.BranchRepository, scope *access.Resolver, signer MediaURLSigner, log *zap.Logger) BranchService {
	return &branchService{branchRepo: branchRepo, scope: scope, signer: signer, log: log}
}

func (s *branchService) List(ctx context.Context, viewer *models.UserProfile) ([]models.BranchResponse, error) {
	all, err := s.branchRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	visible := s.scope.Resolve(viewer, all)
	responses := make([]models.BranchResponse, len(visible))
	for i := range visible {
		responses[i] = s.toResponse(ctx, &visible[i])
	}
	return responses, nil
}

func (s *branchService) Get(ctx context.Context, id string, viewer *models.UserProfile) (*models.BranchResponse, error) {
	branch, err := s.branchRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.scope.Permits(viewer, branch.ID) {
		return nil, fmt.Errorf("%w: branch %s", models.ErrForbidden, id)
	}
	resp := s.toResponse(ctx, branch)
	return &resp, nil
}

func (s *branchService) toResponse(ctx context.Context, b *models.Branch) models.BranchResponse {
	resp := models.ToBranchResponse(b)
	resp.ImageURL = mediaURL(ctx, s.signer, resp.ImageRef, s.log)
	return resp
}
