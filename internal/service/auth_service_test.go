package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/smart-student-api/internal/models"
	"github.com/noah-isme/smart-student-api/internal/repository"
	appErrors "github.com/noah-isme/smart-student-api/pkg/errors"
)

func newAuthFixture(t *testing.T, users ...models.User) (*AuthService, *repository.UserRepository) {
	t.Helper()
	repos := repository.New(repository.NewMemoryStore(), "smart_student", nil)
	require.NoError(t, repos.Users.Replace(context.Background(), users))
	svc := NewAuthService(repos.Users, nil, nil, AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour, Issuer: "test"})
	return svc, repos.Users
}

func TestAuthLoginWithHash(t *testing.T) {
	hash, err := HashPassword("password123")
	require.NoError(t, err)
	svc, _ := newAuthFixture(t, models.User{Username: "jorge", DisplayName: "Jorge", Role: "Teacher", Password: hash})

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "jorge", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, models.RoleTeacher, resp.User.Role)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "jorge", claims.Username)
	assert.Equal(t, models.RoleTeacher, claims.Role)
	assert.Equal(t, "test", claims.Issuer)
}

func TestAuthLoginUpgradesLegacyPassword(t *testing.T) {
	ctx := context.Background()
	svc, users := newAuthFixture(t, models.User{Username: "maria", Role: models.RoleStudent, Password: "plain-pass"})

	_, err := svc.Login(ctx, models.LoginRequest{Username: "maria", Password: "plain-pass"})
	require.NoError(t, err)

	stored, err := users.FindByUsername(ctx, "maria")
	require.NoError(t, err)
	assert.True(t, isPasswordHash(stored.Password))

	_, err = svc.Login(ctx, models.LoginRequest{Username: "maria", Password: "plain-pass"})
	assert.NoError(t, err, "login keeps working after the upgrade")
}

func TestAuthLoginRejects(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthFixture(t,
		models.User{Username: "maria", Role: models.RoleStudent, Password: "plain-pass"},
		models.User{Username: "ghost", Role: models.RoleStudent},
	)

	cases := []struct {
		name string
		req  models.LoginRequest
		want *appErrors.Error
	}{
		{"wrong password", models.LoginRequest{Username: "maria", Password: "nope"}, appErrors.ErrInvalidCredentials},
		{"unknown user", models.LoginRequest{Username: "nobody", Password: "x"}, appErrors.ErrInvalidCredentials},
		{"empty stored password", models.LoginRequest{Username: "ghost", Password: "x"}, appErrors.ErrInvalidCredentials},
		{"missing fields", models.LoginRequest{Username: "maria"}, appErrors.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestAuthValidateTokenRejectsForeignSecret(t *testing.T) {
	svc, _ := newAuthFixture(t, models.User{Username: "maria", Role: models.RoleStudent, Password: "plain-pass"})
	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "maria", Password: "plain-pass"})
	require.NoError(t, err)

	other := NewAuthService(nil, nil, nil, AuthConfig{AccessTokenSecret: "another"})
	_, err = other.ValidateToken(resp.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	_, err = svc.ValidateToken("garbage")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthValidateTokenExpired(t *testing.T) {
	svc, _ := newAuthFixture(t, models.User{Username: "maria", Role: models.RoleStudent, Password: "plain-pass"})
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "maria", Password: "plain-pass"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(resp.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
