package service

import (
	"context"
	"testing"
	"time"

	"codecrate/internal/common"
	"codecrate/internal/domain/model"
	"codecrate/internal/platform/objectstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type assignmentFixture struct {
	assignments *AssignmentService
	templates   *TemplateService
	repo        *fakeAssignmentRepo
	sched       *fakeScheduler
}

func newAssignmentFixture(blobs objectstore.Store) *assignmentFixture {
	templateRepo := newFakeTemplateRepo()
	assignmentRepo := newFakeAssignmentRepo()
	sched := &fakeScheduler{}

	templateCoord := NewContentCoordinator(blobs, templateRepo, KindTemplate, "templates", 24*time.Hour, testLogger())
	assignmentCoord := NewContentCoordinator(blobs, assignmentRepo, KindAssignment, "assignments", 24*time.Hour, testLogger())

	templates := NewTemplateService(templateRepo, templateCoord, sched, testLogger())
	assignments := NewAssignmentService(assignmentRepo, templates, assignmentCoord, sched, testLogger())

	return &assignmentFixture{
		assignments: assignments,
		templates:   templates,
		repo:        assignmentRepo,
		sched:       sched,
	}
}

func TestCreateAssignmentWithFiles(t *testing.T) {
	ctx := context.Background()
	f := newAssignmentFixture(objectstore.NewMemory())

	created, err := f.assignments.CreateAssignment(ctx, CreateAssignmentRequest{
		Title:      "Two Sum",
		Difficulty: model.DifficultyIntermediate,
		Files:      sampleTree(),
	})
	require.NoError(t, err)
	assert.Equal(t, model.AssignmentActive, created.Status)
	assert.Equal(t, "assignment-"+created.ID+".json", created.ObjectKey)
	assert.NotEmpty(t, created.BucketURL)

	got, err := f.assignments.GetAssignment(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, sampleTree(), *got.Files)
}

func TestCreateAssignmentSeededFromTemplate(t *testing.T) {
	ctx := context.Background()
	f := newAssignmentFixture(objectstore.NewMemory())

	tmpl, err := f.templates.CreateTemplate(ctx, CreateTemplateRequest{Name: "seed", Files: sampleTree()})
	require.NoError(t, err)

	created, err := f.assignments.CreateAssignment(ctx, CreateAssignmentRequest{
		Title:      "Two Sum",
		TemplateID: &tmpl.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, created.TemplateID)
	assert.Equal(t, tmpl.ID, *created.TemplateID)
	assert.Equal(t, model.DifficultyBeginner, created.Difficulty)

	got, err := f.assignments.GetAssignment(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, sampleTree(), *got.Files)
}

func TestCreateAssignmentSeedMissingTemplate(t *testing.T) {
	f := newAssignmentFixture(objectstore.NewMemory())
	missing := "no-such-template"
	_, err := f.assignments.CreateAssignment(context.Background(), CreateAssignmentRequest{
		Title:      "Two Sum",
		TemplateID: &missing,
	})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCreateAssignmentNeedsFilesOrTemplate(t *testing.T) {
	f := newAssignmentFixture(objectstore.NewMemory())
	_, err := f.assignments.CreateAssignment(context.Background(), CreateAssignmentRequest{Title: "bare"})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = f.assignments.CreateAssignment(context.Background(), CreateAssignmentRequest{
		Title:      "odd",
		Difficulty: "impossible",
		Files:      sampleTree(),
	})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestArchiveAssignmentAndListFilter(t *testing.T) {
	ctx := context.Background()
	f := newAssignmentFixture(objectstore.NewMemory())

	a, err := f.assignments.CreateAssignment(ctx, CreateAssignmentRequest{Title: "keep", Files: sampleTree()})
	require.NoError(t, err)
	b, err := f.assignments.CreateAssignment(ctx, CreateAssignmentRequest{Title: "retire", Files: sampleTree()})
	require.NoError(t, err)

	require.NoError(t, f.assignments.ArchiveAssignment(ctx, b.ID))

	active, err := f.assignments.ListAssignments(ctx, model.AssignmentActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, a.ID, active[0].ID)

	archived, err := f.assignments.ListAssignments(ctx, model.AssignmentArchived)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, b.ID, archived[0].ID)

	_, err = f.assignments.ListAssignments(ctx, "retired")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestEditAssignmentIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newAssignmentFixture(objectstore.NewMemory())

	created, err := f.assignments.CreateAssignment(ctx, CreateAssignmentRequest{Title: "edit me", Files: sampleTree()})
	require.NoError(t, err)

	edited := sampleTree()
	edited.Files["/solution.js"] = "// todo"

	first, err := f.assignments.EditAssignment(ctx, created.ID, edited)
	require.NoError(t, err)
	second, err := f.assignments.EditAssignment(ctx, created.ID, edited)
	require.NoError(t, err)
	assert.Equal(t, first.ObjectKey, second.ObjectKey)

	got, err := f.assignments.GetAssignment(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, edited, *got.Files)
}

func TestAssignmentPartialWriteSchedulesRepair(t *testing.T) {
	ctx := context.Background()
	flaky := &flakyStore{Store: objectstore.NewMemory(), failPut: true}
	f := newAssignmentFixture(flaky)

	_, err := f.assignments.CreateAssignment(ctx, CreateAssignmentRequest{Title: "broken", Files: sampleTree()})
	var pw *common.PartialWriteError
	require.ErrorAs(t, err, &pw)
	assert.Equal(t, KindAssignment, pw.Kind)

	tasks := f.sched.scheduled()
	require.Len(t, tasks, 1)
	assert.Equal(t, KindAssignment, tasks[0].Kind)
	assert.Equal(t, pw.ID, tasks[0].ID)

	got, err := f.assignments.GetAssignment(ctx, pw.ID)
	require.NoError(t, err)
	assert.True(t, got.Pending)
}
