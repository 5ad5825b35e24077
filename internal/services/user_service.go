package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storewatch/backend/internal/database"
	"github.com/storewatch/backend/internal/models"
	"github.com/storewatch/backend/internal/repository"
	"github.com/storewatch/backend/pkg/utils"
)

// SessionStore caches login sessions and revokes tokens on logout.
type SessionStore interface {
	SetUserSession(ctx context.Context, userID string, session database.Session, expiration time.Duration) error
	DeleteUserSession(ctx context.Context, userID string) error
	BlacklistToken(ctx context.Context, token string, expiration time.Duration) error
}

type UserService interface {
	Register(ctx context.Context, req *models.UserRegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req *models.UserLoginRequest) (*models.AuthResponse, error)
	Logout(ctx context.Context, token string, claims *utils.JWTClaims) error
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserResponse, error)
	ListUsers(ctx context.Context, page, limit int) ([]models.UserResponse, int64, error)
	AssignBranches(ctx context.Context, userID uuid.UUID, req *models.AssignBranchesRequest) (*models.UserResponse, error)
}

type userService struct {
	userRepo     repository.UserRepository
	jwtManager   *utils.JWTManager
	sessionStore SessionStore
	log          *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, jwtManager *utils.JWTManager, sessionStore SessionStore, log *zap.Logger) UserService {
	return &userService{
		userRepo:     userRepo,
		jwtManager:   jwtManager,
		sessionStore: sessionStore,
		log:          log,
	}
}

// Register creates a profile and signs it in. The repository decides the role: the very first
// profile becomes superadmin.
func (s *userService) Register(ctx context.Context, req *models.UserRegisterRequest) (*models.AuthResponse, error) {
	exists, err := s.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: email already registered", models.ErrDuplicateID)
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.UserProfile{
		Name:     strings.TrimSpace(req.Name),
		Email:    req.Email,
		Password: hashedPassword,
	}
	if err := s.userRepo.CreateProfile(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("profile registered",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)),
	)

	return s.signIn(ctx, user)
}

func (s *userService) Login(ctx context.Context, req *models.UserLoginRequest) (*models.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		return nil, models.ErrInvalidCredentials
	}

	return s.signIn(ctx, user)
}

// Logout revokes token for the rest of its validity and drops the cached session.
func (s *userService) Logout(ctx context.Context, token string, claims *utils.JWTClaims) error {
	ttl := s.jwtManager.GetTokenExpiration()
	if claims != nil {
		ttl = s.jwtManager.RemainingValidity(claims)
	}
	if err := s.sessionStore.BlacklistToken(ctx, token, ttl); err != nil {
		return err
	}
	if claims != nil {
		if err := s.sessionStore.DeleteUserSession(ctx, claims.UserID.String()); err != nil {
			s.log.Warn("failed to delete session", zap.String("user_id", claims.UserID.String()), zap.Error(err))
		}
	}
	return nil
}

func (s *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := models.ToUserResponse(user)
	return &resp, nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]models.UserResponse, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	users, total, err := s.userRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]models.UserResponse, len(users))
	for i := range users {
		responses[i] = models.ToUserResponse(&users[i])
	}
	return responses, total, nil
}

func (s *userService) AssignBranches(ctx context.Context, userID uuid.UUID, req *models.AssignBranchesRequest) (*models.UserResponse, error) {
	ids := make([]string, 0, len(req.BranchIDs))
	seen := make(map[string]bool, len(req.BranchIDs))
	for _, id := range req.BranchIDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	user, err := s.userRepo.AssignBranches(ctx, userID, ids)
	if err != nil {
		return nil, err
	}

	s.log.Info("branches assigned",
		zap.String("user_id", userID.String()),
		zap.Strings("branch_ids", ids),
	)

	resp := models.ToUserResponse(user)
	return &resp, nil
}

func (s *userService) signIn(ctx context.Context, user *models.UserProfile) (*models.AuthResponse, error) {
	token, expiresAt, err := s.jwtManager.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}

	if err := s.sessionStore.SetUserSession(ctx, user.ID.String(), database.Session{
		UserID:    user.ID.String(),
		Role:      string(user.Role),
		LoginAt:   time.Now().UTC(),
		ExpiresAt: expiresAt,
	}, s.jwtManager.GetTokenExpiration()); err != nil {
		return nil, err
	}

	return &models.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      models.ToUserResponse(user),
	}, nil
}
