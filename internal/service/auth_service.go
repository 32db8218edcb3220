package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/infracit/filetracker-api/internal/models"
	appErrors "github.com/infracit/filetracker-api/pkg/errors"
)

type authDirectoryStore interface {
	FindUserByEmail(ctx context.Context, email string) (*models.DirectoryUser, error)
}

type tokenDenylist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// AuthConfig defines configuration for the session boundary.
type AuthConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// AuthService is the session boundary: it authenticates against the
// shared directory and turns directory users into the identity value
// the core services receive. The core never reaches back into it.
type AuthService struct {
	repo      authDirectoryStore
	tokens    tokenDenylist
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authDirectoryStore, tokens tokenDenylist, audit auditLogger, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{repo: repo, tokens: tokens, audit: audit, validator: validate, logger: logger, config: config}
}

// Login authenticates a directory user and returns an issued token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.repo.FindUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}

	token, issuedAt, err := s.generateAccessToken(user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:    &user.UserID,
			Action:    models.AuditActionLogin,
			Resource:  "auth",
			NewValues: []byte(`{"status":"success"}`),
		}); err != nil {
			s.logger.Warn("failed to record login audit log", zap.Error(err))
		}
	}

	return &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.Expiration.Seconds()),
		IssuedAt:    issuedAt,
		User: models.UserInfo{
			ID:           user.UserID,
			Email:        user.Email,
			Name:         user.Name,
			Role:         user.Role,
			DepartmentID: user.DepartmentID,
		},
	}, nil
}

// Logout revokes the presented token until its natural expiry.
func (s *AuthService) Logout(ctx context.Context, claims *models.JWTClaims) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	ttl := s.config.Expiration
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if err := s.tokens.Revoke(ctx, claims.ID, ttl); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke token")
	}

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:   &claims.UserID,
			Action:   models.AuditActionLogout,
			Resource: "auth",
		}); err != nil {
			s.logger.Warn("failed to record logout audit log", zap.Error(err))
		}
	}
	return nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	if s.tokens != nil && claims.ID != "" {
		revoked, err := s.tokens.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check token revocation")
		}
		if revoked {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token revoked")
		}
	}

	return claims, nil
}

func (s *AuthService) generateAccessToken(user *models.DirectoryUser) (string, time.Time, error) {
	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(s.config.Expiration)
	claims := &models.JWTClaims{
		UserID:       user.UserID,
		Role:         user.Role,
		DepartmentID: user.DepartmentID,
		Name:         user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.config.Issuer,
			Subject:   fmt.Sprintf("%d", user.UserID),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, issuedAt, nil
}
