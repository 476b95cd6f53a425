package doctor

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/quarry"
)

const testSchema = `
entities:
  - name: user
    table: users
    columns: [id, name]
    relations:
      - name: posts
        kind: one-to-many
        target: post
        targetColumn: author_id
      - name: roles
        kind: many-to-many
        target: role
        junction:
          table: user_roles
          localColumn: user_id
          targetColumn: role_id
  - name: post
    table: posts
    columns: [id, author_id, title]
  - name: role
    table: roles
`

func writeSchema(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func sqliteDB(t *testing.T, ddl ...string) quarry.DatabaseOptions {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()
	for _, stmt := range ddl {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	return quarry.DatabaseOptions{Driver: "sqlite3", DSN: path}
}

func checkStatus(t *testing.T, report *Report, name string) Status {
	t.Helper()
	for _, c := range report.Checks {
		if c.Name == name {
			return c.Status
		}
	}
	t.Fatalf("no check named %q", name)
	return StatusFail
}

func TestDoctorHealthy(t *testing.T) {
	opts := sqliteDB(t,
		`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)`,
		`CREATE TABLE posts (id INTEGER PRIMARY KEY, author_id INTEGER, title TEXT)`,
		`CREATE TABLE roles (id INTEGER PRIMARY KEY)`,
		`CREATE TABLE user_roles (user_id INTEGER, role_id INTEGER)`,
	)

	report, err := New(writeSchema(t, testSchema), WithDatabase(opts)).Run(context.Background())
	require.NoError(t, err)

	assert.False(t, report.HasErrors(), "%+v", report.Checks)
	assert.Equal(t, StatusPass, checkStatus(t, report, "connect"))
	assert.Equal(t, StatusPass, checkStatus(t, report, "user.roles"))
	assert.Equal(t, StatusPass, checkStatus(t, report, "user"))

	var buf bytes.Buffer
	report.Print(&buf, true)
	assert.Contains(t, buf.String(), "Summary:")
	assert.Contains(t, buf.String(), "Queries")
}

func TestDoctorMissingTablesAndColumns(t *testing.T) {
	opts := sqliteDB(t,
		`CREATE TABLE users (id INTEGER PRIMARY KEY)`,
		`CREATE TABLE posts (id INTEGER PRIMARY KEY, author_id INTEGER, title TEXT)`,
		`CREATE TABLE roles (id INTEGER PRIMARY KEY)`,
	)

	report, err := New(writeSchema(t, testSchema), WithDatabase(opts)).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.HasErrors())
	for _, c := range report.Checks {
		switch c.Name {
		case "user":
			if c.Category == "Entity Tables" {
				assert.Contains(t, c.Message, "missing columns: name")
			}
		case "user.roles":
			assert.Equal(t, StatusFail, c.Status)
		}
	}
}

func TestDoctorSchemaErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		report, err := New(filepath.Join(t.TempDir(), "nope.yaml")).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, StatusFail, checkStatus(t, report, "exists"))
		assert.Equal(t, StatusWarn, checkStatus(t, report, "configured"))
	})

	t.Run("unknown target", func(t *testing.T) {
		path := writeSchema(t, `
entities:
  - name: user
    relations:
      - name: posts
        kind: one-to-many
        target: post
        targetColumn: author_id
`)
		report, err := New(path).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, StatusFail, checkStatus(t, report, "valid"))
	})
}

func TestDoctorConnectFailure(t *testing.T) {
	opts := quarry.DatabaseOptions{
		Driver: "sqlite3",
		DSN:    "file:" + filepath.Join(t.TempDir(), "missing", "app.db") + "?mode=ro",
	}
	report, err := New(writeSchema(t, testSchema), WithDatabase(opts)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusFail, checkStatus(t, report, "connect"))
}

func TestMissingColumns(t *testing.T) {
	assert.Empty(t, missingColumns([]string{"ID", "name"}, []string{"id", "name"}))
	assert.Equal(t, []string{"title"}, missingColumns([]string{"id"}, []string{"id", "title"}))
}
