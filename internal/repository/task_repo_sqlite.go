package repository

import (
	"context"
	"fmt"

	"taskapi/internal/domain"

	"gorm.io/gorm"
)

// AUTOINCREMENT keeps SQLite from handing out the id of a deleted row again.
const sqliteSchema = `CREATE TABLE IF NOT EXISTS tasks (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	title         VARCHAR(256) NOT NULL,
	description   VARCHAR(1024),
	due_date      TEXT,
	status        VARCHAR(10),
	creation_date TEXT NOT NULL
)`

// taskRow is the tasks table as seen by gorm. Dates are ISO strings, which
// sort and compare the same way the dates do.
type taskRow struct {
	ID           int64   `gorm:"column:id;primaryKey;autoIncrement"`
	Title        string  `gorm:"column:title"`
	Description  *string `gorm:"column:description"`
	DueDate      *string `gorm:"column:due_date"`
	Status       *string `gorm:"column:status"`
	CreationDate string  `gorm:"column:creation_date"`
}

func (taskRow) TableName() string {
	return "tasks"
}

// SQLiteTaskRepository stores tasks in an embedded SQLite database.
type SQLiteTaskRepository struct {
	db  *gorm.DB
	now Clock
}

func NewSQLiteTaskRepository(db *gorm.DB, opts ...Option) *SQLiteTaskRepository {
	o := buildOptions(opts)
	return &SQLiteTaskRepository{db: db, now: o.now}
}

func (r *SQLiteTaskRepository) EnsureSchema(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Exec(sqliteSchema).Error; err != nil {
		return fmt.Errorf("create tasks table: %w", err)
	}
	return nil
}

func (r *SQLiteTaskRepository) Create(ctx context.Context, t *domain.Task) (*domain.Task, error) {
	row := taskRow{
		Title:        t.Title,
		Description:  t.Description,
		DueDate:      dateColumn(t.DueDate),
		Status:       statusColumn(t.Status),
		CreationDate: domain.DateOf(r.now()).String(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return reread(ctx, r, row.ID)
}

func (r *SQLiteTaskRepository) Get(ctx context.Context, id int64) (*domain.Task, bool, error) {
	var rows []taskRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, false, fmt.Errorf("get task %d: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	t, err := rows[0].toDomain()
	if err != nil {
		return nil, false, err
	}
	return t, true, nil
}

func (r *SQLiteTaskRepository) List(ctx context.Context) ([]*domain.Task, error) {
	var rows []taskRow
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return toDomainTasks(rows)
}

func (r *SQLiteTaskRepository) ListBetweenDates(ctx context.Context, f domain.TaskFilter) ([]*domain.Task, error) {
	start, end := f.Bounds()
	var rows []taskRow
	err := r.db.WithContext(ctx).
		Where("status IN ? AND due_date BETWEEN ? AND ?", domain.StatusCodes(f.Statuses), start.String(), end.String()).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list tasks between %s and %s: %w", start, end, err)
	}
	return toDomainTasks(rows)
}

func (r *SQLiteTaskRepository) Update(ctx context.Context, t *domain.Task) (*domain.Task, error) {
	err := r.db.WithContext(ctx).
		Model(&taskRow{}).
		Where("id = ?", t.ID).
		Updates(map[string]any{
			"title":       t.Title,
			"description": nullable(t.Description),
			"due_date":    nullable(dateColumn(t.DueDate)),
			"status":      nullable(statusColumn(t.Status)),
		}).Error
	if err != nil {
		return nil, fmt.Errorf("update task %d: %w", t.ID, err)
	}
	return reread(ctx, r, t.ID)
}

func (r *SQLiteTaskRepository) Delete(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&taskRow{}).Error; err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	return nil
}

func (row taskRow) toDomain() (*domain.Task, error) {
	t := &domain.Task{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
	}
	if row.DueDate != nil {
		d, err := domain.ParseDate(*row.DueDate)
		if err != nil {
			return nil, fmt.Errorf("task %d due_date: %w", row.ID, err)
		}
		t.DueDate = &d
	}
	created, err := domain.ParseDate(row.CreationDate)
	if err != nil {
		return nil, fmt.Errorf("task %d creation_date: %w", row.ID, err)
	}
	t.CreationDate = &created

	s, err := statusFromColumn(row.Status)
	if err != nil {
		return nil, fmt.Errorf("task %d: %w", row.ID, err)
	}
	t.Status = s
	return t, nil
}

func toDomainTasks(rows []taskRow) ([]*domain.Task, error) {
	res := make([]*domain.Task, 0, len(rows))
	for _, row := range rows {
		t, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, nil
}

func dateColumn(d *domain.Date) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

// nullable turns a nil *string into an untyped nil so the driver writes NULL.
func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
