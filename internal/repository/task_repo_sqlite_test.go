package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskapi/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var fixedNow = time.Date(2023, time.March, 15, 10, 30, 0, 0, time.Local)

// setupTestRepo creates an in-memory SQLite task store.
func setupTestRepo(t *testing.T) (*SQLiteTaskRepository, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := NewSQLiteTaskRepository(db, WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, repo.EnsureSchema(context.Background()))
	return repo, db
}

func date(t *testing.T, s string) *domain.Date {
	t.Helper()
	d, err := domain.ParseDate(s)
	require.NoError(t, err)
	return &d
}

func status(s domain.Status) *domain.Status { return &s }

func str(s string) *string { return &s }

func TestSQLiteRepository_CreateAndGet(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, &domain.Task{
		ID:           999,
		Title:        "Test name",
		Description:  str("Test description"),
		DueDate:      date(t, "2023-04-04"),
		CreationDate: date(t, "1999-01-01"),
		Status:       status(domain.StatusInProgress),
	})
	require.NoError(t, err)

	assert.Positive(t, created.ID)
	assert.NotEqual(t, int64(999), created.ID, "id is assigned by the store")
	require.NotNil(t, created.CreationDate)
	assert.Equal(t, "2023-03-15", created.CreationDate.String(), "creation date comes from the clock")

	got, ok, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, created, got)
	assert.Equal(t, domain.StatusInProgress, *got.Status)
	assert.Equal(t, "2023-04-04", got.DueDate.String())
}

func TestSQLiteRepository_CreateWithoutOptionalFields(t *testing.T) {
	repo, _ := setupTestRepo(t)

	created, err := repo.Create(context.Background(), &domain.Task{Title: "bare"})
	require.NoError(t, err)
	assert.Nil(t, created.Description)
	assert.Nil(t, created.DueDate)
	assert.Nil(t, created.Status)
}

func TestSQLiteRepository_GetMissing(t *testing.T) {
	repo, _ := setupTestRepo(t)

	got, ok, err := repo.Get(context.Background(), 999)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestSQLiteRepository_IDsAreNotReused(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	first, err := repo.Create(ctx, &domain.Task{Title: "a"})
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, first.ID))

	second, err := repo.Create(ctx, &domain.Task{Title: "b"})
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)

	_, ok, err := repo.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteRepository_List(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	empty, err := repo.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for i := 0; i < 3; i++ {
		_, err := repo.Create(ctx, &domain.Task{Title: "t"})
		require.NoError(t, err)
	}
	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func seedStatuses(t *testing.T, repo TaskRepository) {
	t.Helper()
	for _, s := range []domain.Status{
		domain.StatusTodo, domain.StatusTodo,
		domain.StatusInProgress, domain.StatusInProgress,
		domain.StatusDone, domain.StatusDone,
	} {
		_, err := repo.Create(context.Background(), &domain.Task{
			Title:   "Test name",
			DueDate: date(t, "2023-04-04"),
			Status:  status(s),
		})
		require.NoError(t, err)
	}
}

func statusesOf(tasks []*domain.Task) []domain.Status {
	out := make([]domain.Status, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, *task.Status)
	}
	return out
}

func TestSQLiteRepository_ListBetweenDates_Statuses(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()
	seedStatuses(t, repo)

	todo, err := repo.ListBetweenDates(ctx, domain.TaskFilter{Statuses: []domain.Status{domain.StatusTodo}})
	require.NoError(t, err)
	assert.Equal(t, []domain.Status{domain.StatusTodo, domain.StatusTodo}, statusesOf(todo))

	open, err := repo.ListBetweenDates(ctx, domain.TaskFilter{
		Statuses: []domain.Status{domain.StatusTodo, domain.StatusInProgress},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.Status{
		domain.StatusTodo, domain.StatusTodo, domain.StatusInProgress, domain.StatusInProgress,
	}, statusesOf(open))

	all, err := repo.ListBetweenDates(ctx, domain.TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 6)
}

func TestSQLiteRepository_ListBetweenDates_Range(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	for _, due := range []string{"2023-04-01", "2023-04-04", "2023-04-10"} {
		_, err := repo.Create(ctx, &domain.Task{Title: due, DueDate: date(t, due), Status: status(domain.StatusTodo)})
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, &domain.Task{Title: "no due date", Status: status(domain.StatusTodo)})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &domain.Task{Title: "no status", DueDate: date(t, "2023-04-04")})
	require.NoError(t, err)

	cases := []struct {
		name   string
		filter domain.TaskFilter
		want   int
	}{
		{"inclusive", domain.TaskFilter{Start: date(t, "2023-04-01"), End: date(t, "2023-04-04")}, 2},
		{"open end", domain.TaskFilter{Start: date(t, "2023-04-04")}, 2},
		{"open start", domain.TaskFilter{End: date(t, "2023-04-01")}, 1},
		{"open both", domain.TaskFilter{}, 3},
		{"reversed", domain.TaskFilter{Start: date(t, "2023-04-05"), End: date(t, "2023-04-01")}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := repo.ListBetweenDates(ctx, tc.filter)
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Len(t, got, tc.want)
		})
	}
}

func TestSQLiteRepository_UpdateReplacesWholesale(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, &domain.Task{
		Title:       "Test name",
		Description: str("Test description"),
		DueDate:     date(t, "2023-04-04"),
		Status:      status(domain.StatusTodo),
	})
	require.NoError(t, err)

	updated, err := repo.Update(ctx, &domain.Task{
		ID:           created.ID,
		Title:        "Updated test name",
		CreationDate: date(t, "2000-01-01"),
	})
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Updated test name", updated.Title)
	assert.Nil(t, updated.Description, "omitted fields are cleared")
	assert.Nil(t, updated.DueDate)
	assert.Nil(t, updated.Status)
	assert.Equal(t, created.CreationDate, updated.CreationDate, "creation date is immutable")
}

func TestSQLiteRepository_UpdateMissing(t *testing.T) {
	repo, _ := setupTestRepo(t)

	_, err := repo.Update(context.Background(), &domain.Task{ID: 42, Title: "ghost"})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLiteRepository_DeleteMissingIsNoop(t *testing.T) {
	repo, _ := setupTestRepo(t)
	assert.NoError(t, repo.Delete(context.Background(), 12345))
}

func TestSQLiteRepository_UnknownStoredStatus(t *testing.T) {
	repo, db := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, db.Exec(
		`INSERT INTO tasks (title, status, creation_date) VALUES ('bad', 'BLOCKED', '2023-01-01')`,
	).Error)

	_, err := repo.List(ctx)
	assert.Error(t, err)
}

func TestSQLiteRepository_StoresStatusCode(t *testing.T) {
	repo, db := setupTestRepo(t)

	created, err := repo.Create(context.Background(), &domain.Task{Title: "t", Status: status(domain.StatusInProgress)})
	require.NoError(t, err)

	var code string
	require.NoError(t, db.Raw(`SELECT status FROM tasks WHERE id = ?`, created.ID).Scan(&code).Error)
	assert.Equal(t, "INPROGRESS", code)
}
