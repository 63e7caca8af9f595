package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/telhawk-systems/campaign-stack/campaign/internal/models"
)

// setupTestDatabase creates a PostgreSQL testcontainer and runs migrations
func setupTestDatabase(t *testing.T) *PostgresRepository {
	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("campaign_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	if err := runMigrations(connStr); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	repo, err := NewPostgresRepository(ctx, connStr)
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	return repo
}

// runMigrations runs SQL migrations from the migrations directory
func runMigrations(connStr string) error {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	migrationPath := filepath.Join("..", "..", "migrations", "001_init.up.sql")
	migrationSQL, err := os.ReadFile(migrationPath)
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	if _, err := db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("failed to execute migration: %w", err)
	}

	return nil
}

func TestNewPostgresRepository_InvalidConnString(t *testing.T) {
	_, err := NewPostgresRepository(context.Background(), "postgres://%zz")
	assert.Error(t, err)
}

func TestPostgresSession_SaveEntities(t *testing.T) {
	repo := setupTestDatabase(t)
	ctx := context.Background()
	session := repo.NewSession()

	logs := make([]*models.LeadEventLog, 0, 20)
	for i := int64(1); i <= 20; i++ {
		logs = append(logs, newTestLog(7, i))
	}
	logs[0].Metadata = map[string]any{"source": "test"}
	channelID := int64(42)
	logs[1].Channel = "email"
	logs[1].ChannelID = &channelID

	require.NoError(t, session.SaveEntities(ctx, logs))
	assert.Equal(t, 20, session.Tracked())
	for _, log := range logs {
		assert.True(t, log.IsPersisted())
	}

	id, _ := logs[1].ID()
	found, err := repo.NewSession().Find(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(7), found.EventID())
	assert.Equal(t, int64(2), found.ContactID())
	assert.Equal(t, "email", found.Channel)
	require.NotNil(t, found.ChannelID)
	assert.Equal(t, int64(42), *found.ChannelID)
	assert.Equal(t, "10.0.0.1", found.IPAddress)
	assert.True(t, found.DateTriggered.Equal(logs[1].DateTriggered))

	id, _ = logs[0].ID()
	found, err = repo.NewSession().Find(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "test", found.Metadata["source"])
}

func TestPostgresSession_SaveEntitiesRollsBack(t *testing.T) {
	repo := setupTestDatabase(t)
	ctx := context.Background()
	session := repo.NewSession()

	require.NoError(t, session.SaveEntity(ctx, newTestLog(1, 1)))

	batch := []*models.LeadEventLog{newTestLog(1, 2), newTestLog(1, 1)}
	err := session.SaveEntities(ctx, batch)
	assert.ErrorIs(t, err, ErrDuplicateLog)
	for _, log := range batch {
		assert.False(t, log.IsPersisted())
	}

	// the first row of the failed batch must not have been committed
	require.NoError(t, session.SaveEntity(ctx, newTestLog(1, 2)))
}

func TestPostgresSession_Update(t *testing.T) {
	repo := setupTestDatabase(t)
	ctx := context.Background()
	session := repo.NewSession()

	log := newTestLog(3, 9)
	require.NoError(t, session.SaveEntity(ctx, log))
	id, _ := log.ID()

	log.NonActionPathTaken = true
	log.IsScheduled = true
	require.NoError(t, session.SaveEntities(ctx, []*models.LeadEventLog{log}))

	found, err := repo.NewSession().Find(ctx, id)
	require.NoError(t, err)
	assert.True(t, found.NonActionPathTaken)
	assert.True(t, found.IsScheduled)
}

func TestPostgresSession_FindAndDetach(t *testing.T) {
	repo := setupTestDatabase(t)
	ctx := context.Background()
	session := repo.NewSession()

	log := newTestLog(2, 2)
	require.NoError(t, session.SaveEntity(ctx, log))
	id, _ := log.ID()

	found, err := session.Find(ctx, id)
	require.NoError(t, err)
	assert.Same(t, log, found)

	require.NoError(t, session.DetachAll(ctx))
	assert.Equal(t, 0, session.Tracked())

	found, err = session.Find(ctx, id)
	require.NoError(t, err)
	assert.NotSame(t, log, found)

	_, err = session.Find(ctx, id+1000)
	assert.ErrorIs(t, err, ErrLogNotFound)
}

func TestPostgresRepository_Ping(t *testing.T) {
	repo := setupTestDatabase(t)
	assert.NoError(t, repo.Ping(context.Background()))
}
