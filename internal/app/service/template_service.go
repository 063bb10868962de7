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

const KindTemplate = "template"

type TemplateService struct {
	templates repository.TemplateRepository
	coord     *ContentCoordinator
	repairs   RepairScheduler
	log       *logger.Logger
}

func NewTemplateService(
	templates repository.TemplateRepository,
	coord *ContentCoordinator,
	repairs RepairScheduler,
	log *logger.Logger,
) *TemplateService {
	return &TemplateService{
		templates: templates,
		coord:     coord,
		repairs:   repairs,
		log:       log.WithKind(KindTemplate),
	}
}

type CreateTemplateRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Files       model.FileTree `json:"files"`
}

// CreateTemplate inserts the metadata row first so the blob write always
// has an addressable owner, then attaches content. A blob-side failure
// leaves the row behind with an empty link and schedules a repair; the
// returned error carries the new id so the caller can retry against it.
func (s *TemplateService) CreateTemplate(ctx context.Context, req CreateTemplateRequest) (*model.Template, error) {
	if req.Name == "" {
		return nil, common.Errorf("template name is required: %w", common.ErrValidation)
	}
	if req.Files.Empty() {
		return nil, common.Errorf("template files are required: %w", common.ErrValidation)
	}

	t := &model.Template{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
	}
	if err := s.templates.Create(ctx, t); err != nil {
		return nil, err
	}

	key := objectstore.TemplateKey(t.ID, t.Name)
	url, err := s.coord.Attach(ctx, t.ID, key, req.Files)
	if err != nil {
		s.scheduleRepair(ctx, t.ID, err)
		return nil, err
	}

	t.ObjectKey = key
	t.BucketURL = url
	s.log.Info("template created", "id", t.ID, "object_key", key)
	return t, nil
}

// GetTemplate returns the row together with its content. A row whose blob
// write has not landed yet comes back with Pending set rather than failing.
func (s *TemplateService) GetTemplate(ctx context.Context, id string) (*model.TemplateContent, error) {
	t, err := s.templates.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.ObjectKey == "" {
		return &model.TemplateContent{Template: *t, Pending: true}, nil
	}

	tree, url, err := s.coord.Fetch(ctx, t.ObjectKey)
	if err != nil {
		return nil, err
	}
	t.BucketURL = url
	return &model.TemplateContent{Template: *t, Files: &tree}, nil
}

// EditTemplate overwrites the blob at the existing key; keys never rotate
// on edit, so old links keep resolving to the latest content.
func (s *TemplateService) EditTemplate(ctx context.Context, id string, files model.FileTree) (*model.Template, error) {
	if files.Empty() {
		return nil, common.Errorf("template files are required: %w", common.ErrValidation)
	}
	t, err := s.templates.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	key := t.ObjectKey
	if key == "" {
		key = objectstore.TemplateKey(t.ID, t.Name) // first successful write doubles as repair
	}
	url, err := s.coord.Attach(ctx, t.ID, key, files)
	if err != nil {
		s.scheduleRepair(ctx, t.ID, err)
		return nil, err
	}

	t.ObjectKey = key
	t.BucketURL = url
	return t, nil
}

// RepairTemplate re-attempts the blob-write/presign steps for a row whose
// content link is empty or stale. With files it re-runs the full write;
// without, it can only re-presign a blob that already landed.
func (s *TemplateService) RepairTemplate(ctx context.Context, id string, files *model.FileTree) (*model.Template, error) {
	t, err := s.templates.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	key := t.ObjectKey
	if key == "" {
		key = objectstore.TemplateKey(t.ID, t.Name)
	}

	var url string
	if files != nil && !files.Empty() {
		url, err = s.coord.Attach(ctx, t.ID, key, *files)
	} else {
		url, err = s.coord.Reattach(ctx, t.ID, key)
	}
	if err != nil {
		return nil, err
	}

	t.ObjectKey = key
	t.BucketURL = url
	s.log.Info("template repaired", "id", t.ID, "object_key", key)
	return t, nil
}

func (s *TemplateService) ListTemplates(ctx context.Context) ([]model.Template, error) {
	return s.templates.List(ctx)
}

// ListTemplateObjects browses the raw bucket, the way the legacy template
// picker did.
func (s *TemplateService) ListTemplateObjects(ctx context.Context) ([]objectstore.ObjectInfo, error) {
	return s.coord.Objects(ctx, "")
}

// SeedFiles loads a template's content for use as the starting tree of a
// new assignment.
func (s *TemplateService) SeedFiles(ctx context.Context, templateID string) (model.FileTree, error) {
	t, err := s.templates.FindByID(ctx, templateID)
	if err != nil {
		return model.FileTree{}, err
	}
	if t.ObjectKey == "" {
		return model.FileTree{}, common.Errorf("template %s has no content yet: %w", templateID, common.ErrConflict)
	}
	tree, _, err := s.coord.Fetch(ctx, t.ObjectKey)
	return tree, err
}

func (s *TemplateService) scheduleRepair(ctx context.Context, id string, cause error) {
	if !errors.Is(cause, common.ErrPartialWrite) {
		return
	}
	if err := s.repairs.Enqueue(ctx, queue.RepairTask{Kind: KindTemplate, ID: id}); err != nil {
		s.log.Warn("failed to schedule repair", "id", id, "err", err)
	}
}
