package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"codecrate/internal/common"
	"codecrate/internal/domain/model"
	"codecrate/internal/domain/repository"
	"codecrate/internal/platform/objectstore"
	"codecrate/internal/platform/queue"
)

// In-memory repositories backing the service tests. The attempt fake
// mirrors the database behavior that matters: the uniqueness check and the
// insert happen under one lock, so concurrent creates for the same
// (assignment, user) pair produce exactly one winner.

type fakeTemplateRepo struct {
	mu   sync.Mutex
	rows map[string]*model.Template
}

func newFakeTemplateRepo() *fakeTemplateRepo {
	return &fakeTemplateRepo{rows: make(map[string]*model.Template)}
}

func (r *fakeTemplateRepo) Create(ctx context.Context, t *model.Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.Name == t.Name {
			return common.Errorf("template with this name already exists: %w", common.ErrConflict)
		}
	}
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	cp := *t
	r.rows[t.ID] = &cp
	return nil
}

func (r *fakeTemplateRepo) FindByID(ctx context.Context, id string) (*model.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (r *fakeTemplateRepo) List(ctx context.Context) ([]model.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Template
	for _, row := range r.rows {
		out = append(out, *row)
	}
	return out, nil
}

func (r *fakeTemplateRepo) UpdateContentLink(ctx context.Context, id, objectKey, bucketURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return common.ErrNotFound
	}
	row.ObjectKey = objectKey
	row.BucketURL = bucketURL
	row.UpdatedAt = time.Now()
	return nil
}

type fakeAssignmentRepo struct {
	mu   sync.Mutex
	rows map[string]*model.Assignment
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{rows: make(map[string]*model.Assignment)}
}

func (r *fakeAssignmentRepo) Create(ctx context.Context, a *model.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	r.rows[a.ID] = &cp
	return nil
}

func (r *fakeAssignmentRepo) FindByID(ctx context.Context, id string) (*model.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (r *fakeAssignmentRepo) List(ctx context.Context, status model.AssignmentStatus) ([]model.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Assignment
	for _, row := range r.rows {
		if status != "" && row.Status != status {
			continue
		}
		out = append(out, *row)
	}
	return out, nil
}

func (r *fakeAssignmentRepo) UpdateContentLink(ctx context.Context, id, objectKey, bucketURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return common.ErrNotFound
	}
	row.ObjectKey = objectKey
	row.BucketURL = bucketURL
	row.UpdatedAt = time.Now()
	return nil
}

func (r *fakeAssignmentRepo) UpdateStatus(ctx context.Context, id string, status model.AssignmentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return common.ErrNotFound
	}
	row.Status = status
	row.UpdatedAt = time.Now()
	return nil
}

type fakeAttemptRepo struct {
	mu   sync.Mutex
	rows map[string]*model.Attempt
}

func newFakeAttemptRepo() *fakeAttemptRepo {
	return &fakeAttemptRepo{rows: make(map[string]*model.Attempt)}
}

func (r *fakeAttemptRepo) Create(ctx context.Context, a *model.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.AssignmentID == a.AssignmentID && row.UserID == a.UserID {
			return &common.AlreadyAttemptedError{AttemptID: row.ID}
		}
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	r.rows[a.ID] = &cp
	return nil
}

func (r *fakeAttemptRepo) FindByID(ctx context.Context, id string) (*model.Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (r *fakeAttemptRepo) FindByAssignmentAndUser(ctx context.Context, assignmentID, userID string) (*model.Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.AssignmentID == assignmentID && row.UserID == userID {
			cp := *row
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeAttemptRepo) ListByAssignment(ctx context.Context, assignmentID string) ([]model.Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Attempt
	for _, row := range r.rows {
		if row.AssignmentID == assignmentID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (r *fakeAttemptRepo) ListByUser(ctx context.Context, userID string) ([]model.Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Attempt
	for _, row := range r.rows {
		if row.UserID == userID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (r *fakeAttemptRepo) UpdateContentLink(ctx context.Context, id, objectKey, bucketURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return common.ErrNotFound
	}
	row.ObjectKey = objectKey
	row.BucketURL = bucketURL
	row.UpdatedAt = time.Now()
	return nil
}

var (
	_ repository.TemplateRepository   = (*fakeTemplateRepo)(nil)
	_ repository.AssignmentRepository = (*fakeAssignmentRepo)(nil)
	_ repository.AttemptRepository    = (*fakeAttemptRepo)(nil)
)

type fakeScheduler struct {
	mu    sync.Mutex
	tasks []queue.RepairTask
}

func (s *fakeScheduler) Enqueue(ctx context.Context, task queue.RepairTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, task)
	return nil
}

func (s *fakeScheduler) scheduled() []queue.RepairTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]queue.RepairTask(nil), s.tasks...)
}

// flakyStore wraps a memory store and fails selected operations, for
// exercising the partial-write paths.
type flakyStore struct {
	objectstore.Store
	failPut     bool
	failPresign bool
}

func (s *flakyStore) Put(ctx context.Context, bucket, key string, data []byte) error {
	if s.failPut {
		return errors.New("object store unreachable")
	}
	return s.Store.Put(ctx, bucket, key, data)
}

func (s *flakyStore) Presign(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	if s.failPresign {
		return "", errors.New("object store unreachable")
	}
	return s.Store.Presign(ctx, bucket, key, ttl)
}
