package history

import (
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	t.Parallel()

	source, err := iofs.New(migrationFiles, "migrations")
	require.NoError(t, err)
	t.Cleanup(func() { _ = source.Close() })

	first, err := source.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	up, name, err := source.ReadUp(first)
	require.NoError(t, err)
	_ = up.Close()
	assert.Equal(t, "ingest_runs", name)

	down, _, err := source.ReadDown(first)
	require.NoError(t, err)
	_ = down.Close()
}
