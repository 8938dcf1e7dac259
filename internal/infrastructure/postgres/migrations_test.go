package postgres_test

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/fintrack/internal/infrastructure/postgres"
)

func TestMigrationsAreEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(postgres.Migrations(), postgres.MigrationsDir)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Contains(t, names, "000001_create_loans.up.sql")
	assert.Contains(t, names, "000001_create_loans.down.sql")
}
