package migrations

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMigrations(t *testing.T, files ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644))
	}
	return dir
}

func TestListMigrationsOrdersByVersion(t *testing.T) {
	dir := writeMigrations(t, "V10__later.sql", "V2__second.sql", "V1__first.sql", "seed.sql", "notes.txt")

	migs, err := listMigrations(dir)
	require.NoError(t, err)
	names := []string{}
	for _, mig := range migs {
		names = append(names, mig.Name)
	}
	assert.Equal(t, []string{"V1__first.sql", "V2__second.sql", "V10__later.sql", "seed.sql"}, names)
}

func TestParseVersion(t *testing.T) {
	assert.Equal(t, "1", parseVersion("V1__hosted_sites.sql"))
	assert.Equal(t, "", parseVersion("hosted_sites.sql"))
	assert.Equal(t, "", parseVersion("V1.sql"))
	_, ok := parseVersionNumber("Vx__bad.sql")
	assert.False(t, ok)
}

func TestApplySkipsRecordedMigrations(t *testing.T) {
	dir := writeMigrations(t, "V1__hosted_sites.sql", "V2__server_metric_samples.sql")
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT name FROM schema_migrations`).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("V1__hosted_sites.sql"))
	mock.ExpectBegin()
	mock.ExpectExec(`SELECT 1;`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO schema_migrations`).
		WithArgs("2", "V2__server_metric_samples.sql").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, Apply(context.Background(), sqlx.NewDb(conn, "pgx"), dir))
	require.NoError(t, mock.ExpectationsWereMet())
}
