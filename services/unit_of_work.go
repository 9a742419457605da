package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"solarops-backend/apperrors"
)

const tracerName = "solarops-backend/services"

var (
	workflowOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "solarops_workflow_operations_total",
		Help: "Workflow units of work by operation and outcome.",
	}, []string{"operation", "outcome"})

	workflowDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "solarops_workflow_duration_seconds",
		Help:    "Duration of workflow units of work, including retries.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)

// UnitOfWork runs a function inside one database transaction. The transaction
// is committed when fn returns nil and rolled back on error or panic; in every
// case the connection goes back to the pool before Do returns.
type UnitOfWork struct {
	db       *gorm.DB
	logger   *slog.Logger
	tracer   trace.Tracer
	attempts int
}

// NewUnitOfWork traces through the global provider.
func NewUnitOfWork(db *gorm.DB, logger *slog.Logger, attempts int) *UnitOfWork {
	return NewTracedUnitOfWork(db, logger, attempts, otel.GetTracerProvider())
}

func NewTracedUnitOfWork(db *gorm.DB, logger *slog.Logger, attempts int, tp trace.TracerProvider) *UnitOfWork {
	if attempts <= 0 {
		attempts = 1
	}
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &UnitOfWork{db: db, logger: logger, tracer: tp.Tracer(tracerName), attempts: attempts}
}

// Do executes fn once and returns its error classified.
func (u *UnitOfWork) Do(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	return u.run(ctx, op, 1, fn)
}

// DoWithRetry re-runs the whole unit when it failed on an unclassified
// unique violation, which is how a lost race for a generated code surfaces.
// Business conflicts are classified before they leave fn and are not retried.
func (u *UnitOfWork) DoWithRetry(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	return u.run(ctx, op, u.attempts, fn)
}

func (u *UnitOfWork) run(ctx context.Context, op string, attempts int, fn func(tx *gorm.DB) error) (err error) {
	ctx, span := u.tracer.Start(ctx, "uow."+op,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("uow.operation", op)))
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = outcomeLabel(err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		workflowOps.WithLabelValues(op, outcome).Inc()
		workflowDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		span.End()
	}()

	for attempt := 1; attempt <= attempts; attempt++ {
		span.SetAttributes(attribute.Int("uow.attempt", attempt))
		err = u.db.WithContext(ctx).Transaction(fn)
		if err == nil {
			return nil
		}
		if !retryable(err) || attempt == attempts {
			break
		}
		u.logger.WarnContext(ctx, "unit of work hit a duplicate key, retrying",
			slog.String("operation", op),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))
	}
	return apperrors.Classify(err)
}

func retryable(err error) bool {
	if _, classified := apperrors.As(err); classified {
		return false
	}
	return apperrors.IsDuplicateKey(err)
}

func outcomeLabel(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return string(appErr.Type)
	}
	return "error"
}
