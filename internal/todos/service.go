package todos

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Service maps todo operations onto a Store and reconciles every record it
// reads before handing it back.
type Service struct {
	store      Store
	reconciler *Reconciler
	opts       options
}

func NewService(store Store, opts ...Option) *Service {
	return &Service{
		store:      store,
		reconciler: NewReconciler(store, opts...),
		opts:       newOptions(opts),
	}
}

// Create validates f, writes a new todo and returns its id. IsDue is
// computed once here from the supplied due date.
func (s *Service) Create(ctx context.Context, f Fields) (string, error) {
	if err := f.validateCreate(); err != nil {
		return "", err
	}

	id, err := s.opts.newID()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	now := s.opts.clock()
	t := Todo{
		ID:        id,
		Title:     *f.Title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if f.Description != nil {
		t.Description = *f.Description
	}
	if f.IsDone != nil {
		t.IsDone = *f.IsDone
	}
	if f.DueDate != nil {
		d := f.DueDate.UTC()
		t.DueDate = &d
	}
	t.IsDue = IsDueAt(t.DueDate, now)

	if err := s.store.Put(ctx, t); err != nil {
		return "", storeErr("put", err)
	}
	return id, nil
}

func (s *Service) ListAll(ctx context.Context) ([]Todo, error) {
	items, err := s.store.Scan(ctx)
	if err != nil {
		return nil, storeErr("scan", err)
	}
	return s.reconciler.ReconcileAll(ctx, items, false)
}

// Get returns the todo with the given id as a list of zero or one items.
// A missing id is not an error.
func (s *Service) Get(ctx context.Context, id string) ([]Todo, error) {
	t, ok, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, storeErr("get", err)
	}
	if !ok {
		return []Todo{}, nil
	}
	return s.reconciler.ReconcileAll(ctx, []Todo{t}, true)
}

// ListDue filters a full scan in process; there is no due-date index.
func (s *Service) ListDue(ctx context.Context) ([]Todo, error) {
	all, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	due := make([]Todo, 0, len(all))
	for _, t := range all {
		if t.IsDue {
			due = append(due, t)
		}
	}
	return due, nil
}

// Update writes only the supplied fields and always refreshes UpdatedAt.
// It returns ErrNotFound when no todo has the id.
func (s *Service) Update(ctx context.Context, id string, f Fields) (Todo, error) {
	if err := f.validateUpdate(); err != nil {
		return Todo{}, err
	}

	now := s.opts.clock()
	p := Patch{
		Title:       f.Title,
		Description: f.Description,
		IsDone:      f.IsDone,
		DueDate:     f.DueDate,
		UpdatedAt:   &now,
	}
	if f.DueDate != nil {
		due := IsDueAt(f.DueDate, now)
		p.IsDue = &due
	}

	t, err := s.store.Update(ctx, id, p)
	if err != nil {
		return Todo{}, storeErr("update", err)
	}
	out, err := s.reconciler.ReconcileAll(ctx, []Todo{t}, false)
	if err != nil {
		return Todo{}, err
	}
	return out[0], nil
}

// Delete removes the todo if present.
func (s *Service) Delete(ctx context.Context, id string) error {
	return storeErr("delete", s.store.Delete(ctx, id))
}

// DeleteAll removes every todo, best effort. Per-item failures are logged and
// skipped; only a failed scan is returned. The count of removed items is
// returned.
func (s *Service) DeleteAll(ctx context.Context) (int, error) {
	items, err := s.store.Scan(ctx)
	if err != nil {
		return 0, storeErr("scan", err)
	}

	var deleted atomic.Int64
	var g errgroup.Group
	if s.opts.limit > 0 {
		g.SetLimit(s.opts.limit)
	}
	for _, t := range items {
		g.Go(func() error {
			if err := s.store.Delete(ctx, t.ID); err != nil {
				s.opts.logger.ErrorContext(ctx, "delete_failed",
					slog.String("id", t.ID),
					slog.String("error", err.Error()),
				)
				return nil
			}
			deleted.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	return int(deleted.Load()), nil
}
