package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/skydrive/skydrive/internal/common"
	"github.com/skydrive/skydrive/internal/logging"
	"github.com/skydrive/skydrive/internal/server/auth"
	sc "github.com/skydrive/skydrive/internal/server/config"
	"github.com/skydrive/skydrive/internal/server/models"
	"github.com/skydrive/skydrive/internal/server/objstore"
	"github.com/skydrive/skydrive/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// UserService handles accounts: registration, login, refresh-token rotation
// and full account deletion including the owner's object-store prefix.
type UserService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	store  objstore.Store
	config *sc.Config
	logger logging.Logger
}

// NewUserService constructs the user service.
func NewUserService(db *sql.DB, repos repomanager.RepositoryManager, store objstore.Store, config *sc.Config, logger logging.Logger) *UserService {
	return &UserService{
		db:     db,
		repos:  repos,
		store:  store,
		config: config,
		logger: logger.With("module", "users"),
	}
}

// Register creates a new account with a bcrypt password hash.
func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	if len(username) < 3 {
		return nil, fmt.Errorf("%w: username too short", common.ErrValidation)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password too short", common.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		UserName:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repos.Users(s.db).Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "username", username)
	return user, nil
}

// Login verifies the password and issues an access/refresh token pair.
// A missing user and a wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.repos.Users(s.db).GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, common.ErrorUnauthorized
	}

	return s.issueTokens(ctx, user.ID)
}

// Refresh rotates a refresh token: the presented token is invalidated and a
// new pair is issued. Expired tokens map to common.ErrRefreshTokenExpired.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	tokenRepo := s.repos.RefreshTokens(s.db)

	stored, err := tokenRepo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, err
	}

	if err := tokenRepo.Delete(ctx, refreshToken); err != nil {
		return nil, err
	}
	if time.Now().After(stored.Expires) {
		return nil, common.ErrRefreshTokenExpired
	}

	return s.issueTokens(ctx, stored.UserID)
}

// DeleteAccount purges the owner's object-store prefix and removes the user
// row; folders, files and refresh tokens cascade at the store layer.
func (s *UserService) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.store.PurgeOwner(ctx, userID); err != nil {
		return fmt.Errorf("%w: %s", common.ErrTransientStore, err)
	}
	if err := s.repos.Users(s.db).Delete(ctx, userID); err != nil {
		return err
	}
	s.logger.Info(ctx, "account deleted", "user_id", userID)
	return nil
}

func (s *UserService) issueTokens(ctx context.Context, userID string) (*TokenPair, error) {
	accessToken, err := auth.GenerateToken(userID, []byte(s.config.SecretKey), s.config.AccessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("generating access token: %w", err)
	}

	refreshToken := uuid.NewString()
	if err := s.repos.RefreshTokens(s.db).Create(ctx, userID, refreshToken, s.config.RefreshTokenValidityDuration); err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
