package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"docsummary-backend/internal/documents"
)

func newTestService(t *testing.T) (*Service, *MemoryRepo, *documents.MemoryRepo) {
	t.Helper()
	repo := NewMemoryRepo()
	docs := documents.NewMemoryRepo(repo)
	repo.Docs = docs
	return NewService(repo, bcrypt.MinCost), repo, docs
}

func TestCreateThenAuthenticate(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice", "pw123", "pw123")
	require.NoError(t, err)
	assert.Equal(t, "alice", created.Username)

	stored, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, "pw123", stored.PasswordHash, "password must be stored hashed")

	user, err := svc.Authenticate(ctx, "alice", "pw123")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = svc.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "bob", "pw123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name, username, password, confirm string
	}{
		{name: "empty username", username: "  ", password: "pw", confirm: "pw"},
		{name: "empty password", username: "alice", password: "", confirm: ""},
		{name: "mismatch", username: "alice", password: "pw", confirm: "pw2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.username, tt.password, tt.confirm)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestCreateDuplicate(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", "pw", "pw")
	require.NoError(t, err)
	_, err = svc.Create(ctx, " alice ", "other", "other")
	assert.ErrorIs(t, err, ErrDuplicateUser)
}

func TestGetWithDocuments(t *testing.T) {
	svc, _, docs := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", "pw", "pw")
	require.NoError(t, err)

	profile, err := svc.GetWithDocuments(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, profile.Documents)
	assert.Empty(t, profile.Documents)

	_, err = docs.InsertBatch(ctx, []documents.Document{
		{UserID: "alice", Filename: "one.txt"},
		{UserID: "alice", Filename: "two.txt"},
	})
	require.NoError(t, err)

	profile, err = svc.GetWithDocuments(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, profile.Documents, 2)
	assert.Equal(t, "one.txt", profile.Documents[0].Filename)
	assert.Equal(t, "two.txt", profile.Documents[1].Filename)

	_, err = svc.GetWithDocuments(ctx, "bob")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExists(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	ok, err := svc.Exists(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Create(ctx, "alice", "pw", "pw")
	require.NoError(t, err)
	ok, err = svc.Exists(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok)
}
