package repository

import (
	"context"
	"time"

	"taskapi/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RepoOps = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "task_repository_operation_seconds",
			Help:    "Latency of task repository operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"driver", "op"},
	)
	RepoErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_repository_errors_total",
			Help: "Task repository operations that returned an error",
		},
		[]string{"driver", "op"},
	)
)

func init() {
	prometheus.MustRegister(RepoOps)
	prometheus.MustRegister(RepoErrors)
}

// Instrument wraps r so every call is timed and failures are counted.
func Instrument(r TaskRepository, driver string) TaskRepository {
	return &instrumented{next: r, driver: driver}
}

type instrumented struct {
	next   TaskRepository
	driver string
}

// track starts timing op; call the returned func with the named error result.
func (i *instrumented) track(op string) func(*error) {
	start := time.Now()
	return func(err *error) {
		RepoOps.WithLabelValues(i.driver, op).Observe(time.Since(start).Seconds())
		if *err != nil {
			RepoErrors.WithLabelValues(i.driver, op).Inc()
		}
	}
}

func (i *instrumented) Create(ctx context.Context, t *domain.Task) (_ *domain.Task, err error) {
	defer i.track("create")(&err)
	return i.next.Create(ctx, t)
}

func (i *instrumented) Get(ctx context.Context, id int64) (_ *domain.Task, _ bool, err error) {
	defer i.track("get")(&err)
	return i.next.Get(ctx, id)
}

func (i *instrumented) List(ctx context.Context) (_ []*domain.Task, err error) {
	defer i.track("list")(&err)
	return i.next.List(ctx)
}

func (i *instrumented) ListBetweenDates(ctx context.Context, f domain.TaskFilter) (_ []*domain.Task, err error) {
	defer i.track("list_between_dates")(&err)
	return i.next.ListBetweenDates(ctx, f)
}

func (i *instrumented) Update(ctx context.Context, t *domain.Task) (_ *domain.Task, err error) {
	defer i.track("update")(&err)
	return i.next.Update(ctx, t)
}

func (i *instrumented) Delete(ctx context.Context, id int64) (err error) {
	defer i.track("delete")(&err)
	return i.next.Delete(ctx, id)
}

func (i *instrumented) EnsureSchema(ctx context.Context) (err error) {
	defer i.track("ensure_schema")(&err)
	return i.next.EnsureSchema(ctx)
}
