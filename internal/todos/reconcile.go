package todos

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("github.com/s1natex/todos-api-GO/internal/todos")

// Reconciler keeps the cached IsDue flag in line with the clock. It holds no
// state of its own and is safe for concurrent use.
type Reconciler struct {
	store Store
	opts  options
}

func NewReconciler(store Store, opts ...Option) *Reconciler {
	return &Reconciler{store: store, opts: newOptions(opts)}
}

// Reconcile recomputes IsDue for t and, when the stored value is stale,
// writes the correction with a conditional update. If the record vanished in
// the meantime the pre-update view is returned without error. On a store
// failure the returned todo carries the computed flag alongside the error.
func (r *Reconciler) Reconcile(ctx context.Context, t Todo) (Todo, error) {
	ctx, span := tracer.Start(ctx, "todos.reconcile", trace.WithAttributes(attribute.String("todo.id", t.ID)))
	defer span.End()

	want := IsDueAt(t.DueDate, r.opts.clock())
	if want == t.IsDue {
		reconcileTotal.WithLabelValues(resultUnchanged).Inc()
		return t, nil
	}

	updated, err := r.store.Update(ctx, t.ID, Patch{IsDue: &want})
	switch {
	case errors.Is(err, ErrNotFound):
		reconcileTotal.WithLabelValues(resultVanished).Inc()
		span.SetAttributes(attribute.String("todo.reconcile", resultVanished))
		return t, nil
	case err != nil:
		reconcileTotal.WithLabelValues(resultFailed).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "reconcile failed")
		t.IsDue = want
		return t, storeErr("reconcile", err)
	}

	reconcileTotal.WithLabelValues(resultCorrected).Inc()
	span.SetAttributes(attribute.String("todo.reconcile", resultCorrected), attribute.Bool("todo.is_due", want))
	return updated, nil
}

// ReconcileAll reconciles every item concurrently and waits for all of them.
// Output order matches input order.
//
// With strict set the first store failure is returned. Otherwise failures are
// logged and the affected item is returned with the freshly computed flag, so
// the caller never sees a stale value.
func (r *Reconciler) ReconcileAll(ctx context.Context, items []Todo, strict bool) ([]Todo, error) {
	out := make([]Todo, len(items))
	g, gctx := errgroup.WithContext(ctx)
	if r.opts.limit > 0 {
		g.SetLimit(r.opts.limit)
	}

	for i, t := range items {
		g.Go(func() error {
			rt, err := r.Reconcile(gctx, t)
			if err != nil {
				if strict {
					return err
				}
				r.opts.logger.WarnContext(ctx, "reconcile_failed",
					slog.String("id", t.ID),
					slog.String("error", err.Error()),
				)
			}
			out[i] = rt
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
