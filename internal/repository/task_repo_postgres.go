package repository

import (
	"context"
	"fmt"

	"taskapi/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS tasks (
	id            bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	title         varchar(256) NOT NULL,
	description   varchar(1024),
	due_date      date,
	status        varchar(10),
	creation_date date NOT NULL
)`

const taskColumns = `id, title, description, due_date, status, creation_date`

type PostgresTaskRepository struct {
	db  *pgxpool.Pool
	now Clock
}

func NewPostgresTaskRepository(db *pgxpool.Pool, opts ...Option) *PostgresTaskRepository {
	o := buildOptions(opts)
	return &PostgresTaskRepository{db: db, now: o.now}
}

func (r *PostgresTaskRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("create tasks table: %w", err)
	}
	return nil
}

func (r *PostgresTaskRepository) Create(ctx context.Context, t *domain.Task) (*domain.Task, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO tasks (title, description, due_date, status, creation_date)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		t.Title, t.Description, dateParam(t.DueDate), statusColumn(t.Status), domain.DateOf(r.now()).Time(),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return reread(ctx, r, id)
}

func (r *PostgresTaskRepository) Get(ctx context.Context, id int64) (*domain.Task, bool, error) {
	rows, err := r.db.Query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	if err != nil {
		return nil, false, fmt.Errorf("get task %d: %w", id, err)
	}
	defer rows.Close()

	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, false, fmt.Errorf("get task %d: %w", id, err)
	}
	if len(tasks) == 0 {
		return nil, false, nil
	}
	return tasks[0], true, nil
}

func (r *PostgresTaskRepository) List(ctx context.Context) ([]*domain.Task, error) {
	rows, err := r.db.Query(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

func (r *PostgresTaskRepository) ListBetweenDates(ctx context.Context, f domain.TaskFilter) ([]*domain.Task, error) {
	start, end := f.Bounds()
	rows, err := r.db.Query(ctx,
		`SELECT `+taskColumns+`
		 FROM tasks
		 WHERE status = ANY($1)
		   AND due_date BETWEEN $2 AND $3
		 ORDER BY id`,
		domain.StatusCodes(f.Statuses), start.Time(), end.Time(),
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks between %s and %s: %w", start, end, err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

func (r *PostgresTaskRepository) Update(ctx context.Context, t *domain.Task) (*domain.Task, error) {
	_, err := r.db.Exec(ctx,
		`UPDATE tasks
		 SET title = $1, description = $2, due_date = $3, status = $4
		 WHERE id = $5`,
		t.Title, t.Description, dateParam(t.DueDate), statusColumn(t.Status), t.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update task %d: %w", t.ID, err)
	}
	return reread(ctx, r, t.ID)
}

func (r *PostgresTaskRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	return nil
}

func dateParam(d *domain.Date) pgtype.Date {
	if d == nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: d.Time(), Valid: true}
}

func scanTasks(rows pgx.Rows) ([]*domain.Task, error) {
	res := make([]*domain.Task, 0)
	for rows.Next() {
		var (
			t           domain.Task
			description pgtype.Text
			dueDate     pgtype.Date
			status      pgtype.Text
			created     pgtype.Date
		)
		if err := rows.Scan(&t.ID, &t.Title, &description, &dueDate, &status, &created); err != nil {
			return nil, err
		}
		if description.Valid {
			t.Description = &description.String
		}
		if dueDate.Valid {
			d := domain.DateOf(dueDate.Time)
			t.DueDate = &d
		}
		if status.Valid {
			s, err := statusFromColumn(&status.String)
			if err != nil {
				return nil, fmt.Errorf("task %d: %w", t.ID, err)
			}
			t.Status = s
		}
		c := domain.DateOf(created.Time)
		t.CreationDate = &c
		res = append(res, &t)
	}
	return res, rows.Err()
}
