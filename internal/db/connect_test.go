package db

import (
	"context"
	"testing"
	"time"

	"taskapi/internal/domain"
	"taskapi/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURL(t *testing.T) {
	cases := []struct {
		url    string
		driver string
		dsn    string
	}{
		{"postgres://u:p@localhost:5432/tasks", DriverPostgres, "postgres://u:p@localhost:5432/tasks"},
		{"postgresql://localhost/tasks?sslmode=disable", DriverPostgres, "postgresql://localhost/tasks?sslmode=disable"},
		{"sqlite://taskapi.db", DriverSQLite, "taskapi.db"},
		{"sqlite:///var/lib/taskapi/tasks.db", DriverSQLite, "/var/lib/taskapi/tasks.db"},
		{"file:tasks.db?cache=shared", DriverSQLite, "file:tasks.db?cache=shared"},
		{":memory:", DriverSQLite, ":memory:"},
	}
	for _, tc := range cases {
		driver, dsn, err := ParseURL(tc.url)
		require.NoError(t, err, tc.url)
		assert.Equal(t, tc.driver, driver, tc.url)
		assert.Equal(t, tc.dsn, dsn, tc.url)
	}
}

func TestParseURL_Rejects(t *testing.T) {
	for _, url := range []string{"", "mysql://localhost/tasks", "sqlite://"} {
		_, _, err := ParseURL(url)
		assert.Error(t, err, url)
	}
}

func TestOpen_InMemorySQLite(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.February, 29, 12, 0, 0, 0, time.Local)

	store, err := Open(ctx, Config{URL: ":memory:"}, repository.WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, DriverSQLite, store.Driver())
	require.NoError(t, store.Ping(ctx))

	created, err := store.Tasks.Create(ctx, &domain.Task{Title: "leap day"})
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", created.CreationDate.String())

	tasks, err := store.Tasks.List(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 1, "the in-memory store keeps its rows across calls")
}

func TestOpen_SchemaIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, Config{URL: ":memory:"})
	require.NoError(t, err)
	defer store.Close()

	assert.NoError(t, store.Tasks.EnsureSchema(ctx))
}

func TestOpen_UnsupportedURL(t *testing.T) {
	_, err := Open(context.Background(), Config{URL: "mongodb://localhost"})
	assert.Error(t, err)
}
