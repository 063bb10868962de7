package service

import (
	"context"
	"errors"

	"codecrate/internal/common"
	"codecrate/internal/domain/model"
	"codecrate/internal/domain/repository"
	"codecrate/internal/platform/logger"
	"codecrate/internal/platform/objectstore"
	"codecrate/internal/platform/queue"

	"github.com/google/uuid"
)

const KindAssignment = "assignment"

type AssignmentService struct {
	assignments repository.AssignmentRepository
	templates   *TemplateService
	coord       *ContentCoordinator
	repairs     RepairScheduler
	log         *logger.Logger
}

func NewAssignmentService(
	assignments repository.AssignmentRepository,
	templates *TemplateService,
	coord *ContentCoordinator,
	repairs RepairScheduler,
	log *logger.Logger,
) *AssignmentService {
	return &AssignmentService{
		assignments: assignments,
		templates:   templates,
		coord:       coord,
		repairs:     repairs,
		log:         log.WithKind(KindAssignment),
	}
}

type CreateAssignmentRequest struct {
	Title       string                     `json:"title"`
	Description string                     `json:"description"`
	TemplateID  *string                    `json:"template_id,omitempty"`
	Difficulty  model.AssignmentDifficulty `json:"difficulty"`
	Files       model.FileTree             `json:"files"`
}

// CreateAssignment instantiates a challenge. When no files are given but a
// template is referenced, the template's stored tree seeds the assignment.
func (s *AssignmentService) CreateAssignment(ctx context.Context, req CreateAssignmentRequest) (*model.Assignment, error) {
	if req.Title == "" {
		return nil, common.Errorf("assignment title is required: %w", common.ErrValidation)
	}
	if req.Difficulty == "" {
		req.Difficulty = model.DifficultyBeginner
	}
	if !req.Difficulty.Valid() {
		return nil, common.Errorf("unknown difficulty %q: %w", req.Difficulty, common.ErrValidation)
	}

	files := req.Files
	if files.Empty() {
		if req.TemplateID == nil || *req.TemplateID == "" {
			return nil, common.Errorf("assignment needs files or a template to seed from: %w", common.ErrValidation)
		}
		seeded, err := s.templates.SeedFiles(ctx, *req.TemplateID)
		if err != nil {
			return nil, err
		}
		files = seeded
	}

	a := &model.Assignment{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		TemplateID:  req.TemplateID,
		Difficulty:  req.Difficulty,
		Status:      model.AssignmentActive,
	}
	if err := s.assignments.Create(ctx, a); err != nil {
		return nil, err
	}

	key := objectstore.AssignmentKey(a.ID)
	url, err := s.coord.Attach(ctx, a.ID, key, files)
	if err != nil {
		s.scheduleRepair(ctx, a.ID, err)
		return nil, err
	}

	a.ObjectKey = key
	a.BucketURL = url
	s.log.Info("assignment created", "id", a.ID, "object_key", key)
	return a, nil
}

func (s *AssignmentService) GetAssignment(ctx context.Context, id string) (*model.AssignmentContent, error) {
	a, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.ObjectKey == "" {
		return &model.AssignmentContent{Assignment: *a, Pending: true}, nil
	}

	tree, url, err := s.coord.Fetch(ctx, a.ObjectKey)
	if err != nil {
		return nil, err
	}
	a.BucketURL = url
	return &model.AssignmentContent{Assignment: *a, Files: &tree}, nil
}

func (s *AssignmentService) EditAssignment(ctx context.Context, id string, files model.FileTree) (*model.Assignment, error) {
	if files.Empty() {
		return nil, common.Errorf("assignment files are required: %w", common.ErrValidation)
	}
	a, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	key := a.ObjectKey
	if key == "" {
		key = objectstore.AssignmentKey(a.ID)
	}
	url, err := s.coord.Attach(ctx, a.ID, key, files)
	if err != nil {
		s.scheduleRepair(ctx, a.ID, err)
		return nil, err
	}

	a.ObjectKey = key
	a.BucketURL = url
	return a, nil
}

func (s *AssignmentService) ArchiveAssignment(ctx context.Context, id string) error {
	if err := s.assignments.UpdateStatus(ctx, id, model.AssignmentArchived); err != nil {
		return err
	}
	s.log.Info("assignment archived", "id", id)
	return nil
}

func (s *AssignmentService) ListAssignments(ctx context.Context, status model.AssignmentStatus) ([]model.Assignment, error) {
	if status != "" && !status.Valid() {
		return nil, common.Errorf("unknown status %q: %w", status, common.ErrValidation)
	}
	return s.assignments.List(ctx, status)
}

func (s *AssignmentService) RepairAssignment(ctx context.Context, id string, files *model.FileTree) (*model.Assignment, error) {
	a, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	key := a.ObjectKey
	if key == "" {
		key = objectstore.AssignmentKey(a.ID)
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
	s.log.Info("assignment repaired", "id", a.ID, "object_key", key)
	return a, nil
}

func (s *AssignmentService) scheduleRepair(ctx context.Context, id string, cause error) {
	if !errors.Is(cause, common.ErrPartialWrite) {
		return
	}
	if err := s.repairs.Enqueue(ctx, queue.RepairTask{Kind: KindAssignment, ID: id}); err != nil {
		s.log.Warn("failed to schedule repair", "id", id, "err", err)
	}
}
