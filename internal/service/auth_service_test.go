package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/infracit/filetracker-api/internal/models"
	appErrors "github.com/infracit/filetracker-api/pkg/errors"
)

type authStoreStub struct {
	users map[string]*models.DirectoryUser
}

func (a *authStoreStub) FindUserByEmail(ctx context.Context, email string) (*models.DirectoryUser, error) {
	if user, ok := a.users[email]; ok {
		copy := *user
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

type denylistStub struct {
	revoked map[string]bool
}

func newDenylistStub() *denylistStub {
	return &denylistStub{revoked: make(map[string]bool)}
}

func (d *denylistStub) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	d.revoked[tokenID] = true
	return nil
}

func (d *denylistStub) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	return d.revoked[tokenID], nil
}

func newTestAuthService(t *testing.T, tokens *denylistStub) (*AuthService, *authStoreStub) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	dept := int64(12)
	store := &authStoreStub{users: map[string]*models.DirectoryUser{
		"alice@infracit.example": {
			UserID:       3,
			Name:         "Alice Tan",
			Email:        "alice@infracit.example",
			DepartmentID: &dept,
			Role:         models.RoleStaff,
			PasswordHash: string(hash),
		},
	}}
	svc := NewAuthService(store, tokens, nil, nil, nil, AuthConfig{
		Secret:     "test-secret",
		Expiration: time.Hour,
		Issuer:     "filetracker",
	})
	return svc, store
}

func TestAuthServiceLoginIssuesValidToken(t *testing.T) {
	svc, _ := newTestAuthService(t, newDenylistStub())

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "alice@infracit.example",
		Password: "s3cret",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.Equal(t, int64(3), resp.User.ID)

	claims, err := svc.ValidateToken(context.Background(), resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, int64(3), claims.UserID)
	require.Equal(t, models.RoleStaff, claims.Role)
	require.NotNil(t, claims.DepartmentID)
	require.Equal(t, int64(12), *claims.DepartmentID)
}

func TestAuthServiceLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newTestAuthService(t, newDenylistStub())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "alice@infracit.example",
		Password: "wrong",
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)

	// Unknown users fail the same way to avoid account probing.
	_, err = svc.Login(context.Background(), models.LoginRequest{
		Email:    "ghost@infracit.example",
		Password: "s3cret",
	})
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthServiceLoginValidatesPayload(t *testing.T) {
	svc, _ := newTestAuthService(t, newDenylistStub())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "not-an-email", Password: "x"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestAuthServiceLogoutRevokesToken(t *testing.T) {
	denylist := newDenylistStub()
	svc, _ := newTestAuthService(t, denylist)
	ctx := context.Background()

	resp, err := svc.Login(ctx, models.LoginRequest{
		Email:    "alice@infracit.example",
		Password: "s3cret",
	})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(ctx, resp.AccessToken)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, claims))

	_, err = svc.ValidateToken(ctx, resp.AccessToken)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestAuthServiceValidateTokenRejectsTampered(t *testing.T) {
	svc, _ := newTestAuthService(t, newDenylistStub())

	_, err := svc.ValidateToken(context.Background(), "not.a.token")
	require.Error(t, err)
}
