//go:build integration

package users_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"

	"docsummary-backend/internal/documents"
	"docsummary-backend/internal/shared/storage/db"
	"docsummary-backend/internal/users"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "docsummary_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/docsummary_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestPostgresRepositories(t *testing.T) {
	ctx := context.Background()
	conn, err := db.Connect(ctx, dsn, db.DefaultMigrateOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.RunMigrations(ctx, conn))

	userSvc := users.NewService(&users.PGRepo{DB: conn}, bcrypt.MinCost)
	docRepo := &documents.PGRepo{DB: conn}

	t.Run("signup_and_login", func(t *testing.T) {
		_, err := userSvc.Create(ctx, "alice", "pw123", "pw123")
		require.NoError(t, err)

		_, err = userSvc.Create(ctx, "alice", "pw123", "pw123")
		require.ErrorIs(t, err, users.ErrDuplicateUser)

		_, err = userSvc.Authenticate(ctx, "alice", "pw123")
		require.NoError(t, err)
		_, err = userSvc.Authenticate(ctx, "alice", "nope")
		require.ErrorIs(t, err, users.ErrInvalidCredentials)
	})

	t.Run("profile_without_documents", func(t *testing.T) {
		_, err := userSvc.Create(ctx, "empty", "pw", "pw")
		require.NoError(t, err)
		profile, err := userSvc.GetWithDocuments(ctx, "empty")
		require.NoError(t, err)
		require.NotNil(t, profile.Documents)
		require.Empty(t, profile.Documents)
	})

	t.Run("batch_insert_is_atomic", func(t *testing.T) {
		summary := "hi"
		now := time.Now().UTC()
		_, err := docRepo.InsertBatch(ctx, []documents.Document{
			{UserID: "alice", Filename: "ok.txt", Summary: &summary, UpdatedAt: now},
			{UserID: "ghost", Filename: "bad.txt", UpdatedAt: now},
		})
		require.ErrorIs(t, err, documents.ErrUnknownUser)

		profile, err := userSvc.GetWithDocuments(ctx, "alice")
		require.NoError(t, err)
		require.Empty(t, profile.Documents)

		ids, err := docRepo.InsertBatch(ctx, []documents.Document{
			{UserID: "alice", Filename: "one.txt", Summary: &summary, UpdatedAt: now},
			{UserID: "alice", Filename: "two.txt", UpdatedAt: now},
		})
		require.NoError(t, err)
		require.Len(t, ids, 2)

		profile, err = userSvc.GetWithDocuments(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, profile.Documents, 2)
		require.Equal(t, "one.txt", profile.Documents[0].Filename)
		require.Nil(t, profile.Documents[1].Summary)
	})
}
