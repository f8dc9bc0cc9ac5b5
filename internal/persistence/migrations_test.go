package persistence

import (
	"context"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEmbeddedMigrationsHaveGooseSections(t *testing.T) {
	files, err := fs.Glob(migrationsFS, migrationsDir+"/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, name := range files {
		body, err := fs.ReadFile(migrationsFS, name)
		require.NoError(t, err)
		assert.Contains(t, string(body), "-- +goose Up", name)
		assert.Contains(t, string(body), "-- +goose Down", name)
	}
}

func TestInitialSchemaCoversQueueTables(t *testing.T) {
	body, err := fs.ReadFile(migrationsFS, migrationsDir+"/00001_init.sql")
	require.NoError(t, err)
	for _, table := range []string{"agents", "categories", "agent_categories", "tickets"} {
		assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS "+table+" ")
	}
	assert.Contains(t, string(body), "UNIQUE (agent_id, category_id)")
}

func TestMigrateWithoutPoolIsNoop(t *testing.T) {
	assert.NoError(t, Migrate(context.Background(), nil, MigrateUp, zap.NewNop()))
}
