package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dentastock/dentastock/internal/platform/httpx"
	"github.com/dentastock/dentastock/internal/shared"
	"github.com/dentastock/dentastock/internal/users"
)

type memoryRepo struct {
	byUsername map[string]users.User
}

func (r *memoryRepo) GetUserByUsername(ctx context.Context, username string) (*users.User, error) {
	user, ok := r.byUsername[username]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	return &user, nil
}

func seedUser(t *testing.T, repo *memoryRepo, username, password, role string) users.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := users.User{ID: "u-" + username, Username: username, PasswordHash: string(hash), Role: role}
	repo.byUsername[username] = user
	return user
}

func TestAuthenticate(t *testing.T) {
	repo := &memoryRepo{byUsername: make(map[string]users.User)}
	seeded := seedUser(t, repo, "amira", "s3cret-pass", shared.RoleAdmin)
	svc := NewService(repo)
	ctx := context.Background()

	user, err := svc.Authenticate(ctx, "amira", "s3cret-pass")
	require.NoError(t, err)
	require.Equal(t, seeded.ID, user.ID)
	require.Equal(t, shared.RoleAdmin, user.Role)

	_, err = svc.Authenticate(ctx, "amira", "wrong-pass")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	// Unknown accounts fail with the same error as bad passwords.
	_, err = svc.Authenticate(ctx, "ghost", "s3cret-pass")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}
