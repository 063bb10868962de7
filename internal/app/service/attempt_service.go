package service

import (
	"context"
	"errors"
	"time"

	"codecrate/internal/common"
	"codecrate/internal/domain/model"
	"codecrate/internal/domain/repository"
	"codecrate/internal/platform/logger"
	"codecrate/internal/platform/objectstore"
	"codecrate/internal/platform/queue"

	"github.com/google/uuid"
)

const KindAttempt = "attempt"

// AttemptService guards the one-attempt-per-(assignment,user) invariant.
// It holds no locks of its own: the constraint-backed insert in the
// repository is the only mutual exclusion, so the guarantee survives
// multiple concurrent service instances.
type AttemptService struct {
	attempts    repository.AttemptRepository
	assignments repository.AssignmentRepository
	coord       *ContentCoordinator
	repairs     RepairScheduler
	log         *logger.Logger

	now func() time.Time
}

func NewAttemptService(
	attempts repository.AttemptRepository,
	assignments repository.AssignmentRepository,
	coord *ContentCoordinator,
	repairs RepairScheduler,
	log *logger.Logger,
) *AttemptService {
	return &AttemptService{
		attempts:    attempts,
		assignments: assignments,
		coord:       coord,
		repairs:     repairs,
		log:         log.WithKind(KindAttempt),
		now:         time.Now,
	}
}

type CreateAttemptRequest struct {
	AssignmentID string         `json:"assignment_id"`
	Files        model.FileTree `json:"files"`
}

// CreateAttempt registers a learner's work on an assignment. The insert
// and the uniqueness check are one statement; when another attempt already
// holds the (assignment, user) slot the repository's AlreadyAttemptedError
// bubbles up with the existing id, so callers redirect instead of retrying.
//
// The first write goes straight to submitted; there is no draft-save step.
func (s *AttemptService) CreateAttempt(ctx context.Context, userID string, req CreateAttemptRequest) (*model.Attempt, error) {
	if userID == "" {
		return nil, common.Errorf("user id is required: %w", common.ErrUnauthorized)
	}
	if req.AssignmentID == "" {
		return nil, common.Errorf("assignment id is required: %w", common.ErrValidation)
	}
	if req.Files.Empty() {
		return nil, common.Errorf("attempt files are required: %w", common.ErrValidation)
	}

	assignment, err := s.assignments.FindByID(ctx, req.AssignmentID)
	if err != nil {
		return nil, err
	}
	if assignment.Status == model.AssignmentArchived {
		return nil, common.Errorf("assignment %s is archived: %w", assignment.ID, common.ErrForbidden)
	}

	a := &model.Attempt{
		ID:           uuid.NewString(),
		AssignmentID: assignment.ID,
		UserID:       userID,
		Status:       model.AttemptSubmitted,
	}
	if err := s.attempts.Create(ctx, a); err != nil {
		return nil, err
	}

	key := objectstore.AttemptKey(a.ID)
	url, err := s.coord.Attach(ctx, a.ID, key, req.Files)
	if err != nil {
		s.scheduleRepair(ctx, a.ID, err)
		return nil, err
	}

	a.ObjectKey = key
	a.BucketURL = url
	s.log.Info("attempt created", "id", a.ID, "assignment_id", a.AssignmentID, "user_id", userID)
	return a, nil
}

// SubmitForEval re-uploads an attempt's content under a fresh object key.
// Each submission gets its own blob; earlier ones stay in the bucket as the
// submission trail. Status stays submitted, there is no further transition.
func (s *AttemptService) SubmitForEval(ctx context.Context, attemptID string, files model.FileTree) (*model.Attempt, error) {
	if files.Empty() {
		return nil, common.Errorf("attempt files are required: %w", common.ErrValidation)
	}
	a, err := s.attempts.FindByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}

	key := objectstore.AttemptSubmissionKey(a.ID, s.now())
	url, err := s.coord.Attach(ctx, a.ID, key, files)
	if err != nil {
		s.scheduleRepair(ctx, a.ID, err)
		return nil, err
	}

	a.ObjectKey = key
	a.BucketURL = url
	a.Status = model.AttemptSubmitted
	s.log.Info("attempt submitted", "id", a.ID, "object_key", key)
	return a, nil
}

func (s *AttemptService) GetAttempt(ctx context.Context, id string) (*model.AttemptContent, error) {
	a, err := s.attempts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.ObjectKey == "" {
		return &model.AttemptContent{Attempt: *a, Pending: true}, nil
	}

	tree, url, err := s.coord.Fetch(ctx, a.ObjectKey)
	if err != nil {
		return nil, err
	}
	a.BucketURL = url
	return &model.AttemptContent{Attempt: *a, Files: &tree}, nil
}

func (s *AttemptService) ListByAssignment(ctx context.Context, assignmentID string) ([]model.Attempt, error) {
	return s.attempts.ListByAssignment(ctx, assignmentID)
}

func (s *AttemptService) ListByUser(ctx context.Context, userID string) ([]model.Attempt, error) {
	return s.attempts.ListByUser(ctx, userID)
}

func (s *AttemptService) RepairAttempt(ctx context.Context, id string, files *model.FileTree) (*model.Attempt, error) {
	a, err := s.attempts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	key := a.ObjectKey
	if key == "" {
		key = objectstore.AttemptKey(a.ID)
	}

	var url string
	if files != nil && !files.Empty() {
		url, err = s.coord.Attach(ctx, a.ID, key, *files)
	} else {
		url, err = s.coord.Reattach(ctx, a.ID, key)
	}
	if err != nil {
		return nil, err
	}

	a.ObjectKey = key
	a.BucketURL = url
	s.log.Info("attempt repaired", "id", a.ID, "object_key", key)
	return a, nil
}

func (s *AttemptService) scheduleRepair(ctx context.Context, id string, cause error) {
	if !errors.Is(cause, common.ErrPartialWrite) {
		return
	}
	if err := s.repairs.Enqueue(ctx, queue.RepairTask{Kind: KindAttempt, ID: id}); err != nil {
		s.log.Warn("failed to schedule repair", "id", id, "err", err)
	}
}
