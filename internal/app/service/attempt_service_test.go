package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"codecrate/internal/common"
	"codecrate/internal/domain/model"
	"codecrate/internal/platform/objectstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type attemptFixture struct {
	attempts    *AttemptService
	assignments *fakeAssignmentRepo
	repo        *fakeAttemptRepo
	sched       *fakeScheduler
	store       objectstore.Store
}

func newAttemptFixture(blobs objectstore.Store) *attemptFixture {
	attemptRepo := newFakeAttemptRepo()
	assignmentRepo := newFakeAssignmentRepo()
	sched := &fakeScheduler{}
	coord := NewContentCoordinator(blobs, attemptRepo, KindAttempt, "attempts", 24*time.Hour, testLogger())
	return &attemptFixture{
		attempts:    NewAttemptService(attemptRepo, assignmentRepo, coord, sched, testLogger()),
		assignments: assignmentRepo,
		repo:        attemptRepo,
		sched:       sched,
		store:       blobs,
	}
}

func (f *attemptFixture) seedAssignment(t *testing.T, status model.AssignmentStatus) *model.Assignment {
	t.Helper()
	a := &model.Assignment{
		ID:         "assignment-1",
		Title:      "Two Sum",
		Difficulty: model.DifficultyBeginner,
		Status:     status,
	}
	require.NoError(t, f.assignments.Create(context.Background(), a))
	return a
}

func TestCreateAttempt(t *testing.T) {
	ctx := context.Background()
	f := newAttemptFixture(objectstore.NewMemory())
	assignment := f.seedAssignment(t, model.AssignmentActive)

	attempt, err := f.attempts.CreateAttempt(ctx, "user-7", CreateAttemptRequest{
		AssignmentID: assignment.ID,
		Files:        sampleTree(),
	})
	require.NoError(t, err)
	assert.Equal(t, model.AttemptSubmitted, attempt.Status)
	assert.NotEmpty(t, attempt.BucketURL)

	got, err := f.attempts.GetAttempt(ctx, attempt.ID)
	require.NoError(t, err)
	assert.False(t, got.Pending)
	assert.Equal(t, sampleTree(), *got.Files)
}

func TestCreateAttemptAssignmentMissing(t *testing.T) {
	f := newAttemptFixture(objectstore.NewMemory())
	_, err := f.attempts.CreateAttempt(context.Background(), "user-7", CreateAttemptRequest{
		AssignmentID: "no-such-assignment",
		Files:        sampleTree(),
	})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCreateAttemptArchivedAssignment(t *testing.T) {
	f := newAttemptFixture(objectstore.NewMemory())
	assignment := f.seedAssignment(t, model.AssignmentArchived)

	_, err := f.attempts.CreateAttempt(context.Background(), "user-7", CreateAttemptRequest{
		AssignmentID: assignment.ID,
		Files:        sampleTree(),
	})
	assert.ErrorIs(t, err, common.ErrForbidden)
}

func TestCreateAttemptRejectsSecond(t *testing.T) {
	ctx := context.Background()
	f := newAttemptFixture(objectstore.NewMemory())
	assignment := f.seedAssignment(t, model.AssignmentActive)

	first, err := f.attempts.CreateAttempt(ctx, "user-7", CreateAttemptRequest{
		AssignmentID: assignment.ID,
		Files:        sampleTree(),
	})
	require.NoError(t, err)

	_, err = f.attempts.CreateAttempt(ctx, "user-7", CreateAttemptRequest{
		AssignmentID: assignment.ID,
		Files:        sampleTree(),
	})
	require.Error(t, err)

	var already *common.AlreadyAttemptedError
	require.ErrorAs(t, err, &already)
	assert.Equal(t, first.ID, already.AttemptID)

	// A different user still gets through.
	_, err = f.attempts.CreateAttempt(ctx, "user-8", CreateAttemptRequest{
		AssignmentID: assignment.ID,
		Files:        sampleTree(),
	})
	require.NoError(t, err)
}

func TestCreateAttemptConcurrent(t *testing.T) {
	ctx := context.Background()
	f := newAttemptFixture(objectstore.NewMemory())
	assignment := f.seedAssignment(t, model.AssignmentActive)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]error, callers)
	ids := make([]string, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			attempt, err := f.attempts.CreateAttempt(ctx, "user-7", CreateAttemptRequest{
				AssignmentID: assignment.ID,
				Files:        sampleTree(),
			})
			results[i] = err
			if err == nil {
				ids[i] = attempt.ID
			}
		}(i)
	}
	wg.Wait()

	var successes int
	var winnerID string
	for i, err := range results {
		if err == nil {
			successes++
			winnerID = ids[i]
		}
	}
	require.Equal(t, 1, successes, "exactly one concurrent create must win")

	for _, err := range results {
		if err == nil {
			continue
		}
		var already *common.AlreadyAttemptedError
		require.ErrorAs(t, err, &already)
		assert.Equal(t, winnerID, already.AttemptID)
	}

	rows, err := f.repo.ListByAssignment(ctx, assignment.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestSubmitForEvalRotatesKey(t *testing.T) {
	ctx := context.Background()
	mem := objectstore.NewMemory()
	f := newAttemptFixture(mem)
	assignment := f.seedAssignment(t, model.AssignmentActive)

	attempt, err := f.attempts.CreateAttempt(ctx, "user-7", CreateAttemptRequest{
		AssignmentID: assignment.ID,
		Files:        sampleTree(),
	})
	require.NoError(t, err)

	clock := time.Now()
	f.attempts.now = func() time.Time { return clock }

	resubmitted := sampleTree()
	resubmitted.Files["/App.js"] = "// second try"

	second, err := f.attempts.SubmitForEval(ctx, attempt.ID, resubmitted)
	require.NoError(t, err)
	assert.NotEqual(t, attempt.ObjectKey, second.ObjectKey)
	assert.Equal(t, model.AttemptSubmitted, second.Status)

	f.attempts.now = func() time.Time { return clock.Add(time.Minute) }
	third, err := f.attempts.SubmitForEval(ctx, attempt.ID, resubmitted)
	require.NoError(t, err)
	assert.NotEqual(t, second.ObjectKey, third.ObjectKey)

	// Every submission keeps its own blob; nothing is cleaned up.
	objects, err := mem.List(ctx, "attempts", "attempt-"+attempt.ID)
	require.NoError(t, err)
	assert.Len(t, objects, 3)

	// Fetch follows the latest key.
	got, err := f.attempts.GetAttempt(ctx, attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, resubmitted, *got.Files)
}

func TestSubmitForEvalNotFound(t *testing.T) {
	f := newAttemptFixture(objectstore.NewMemory())
	_, err := f.attempts.SubmitForEval(context.Background(), "missing", sampleTree())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCreateAttemptPartialWrite(t *testing.T) {
	ctx := context.Background()
	flaky := &flakyStore{Store: objectstore.NewMemory(), failPut: true}
	f := newAttemptFixture(flaky)
	assignment := f.seedAssignment(t, model.AssignmentActive)

	_, err := f.attempts.CreateAttempt(ctx, "user-7", CreateAttemptRequest{
		AssignmentID: assignment.ID,
		Files:        sampleTree(),
	})
	var pw *common.PartialWriteError
	require.ErrorAs(t, err, &pw)

	// The attempt row holds the (assignment, user) slot even while pending,
	// so a retry goes through repair, not a second create.
	_, err = f.attempts.CreateAttempt(ctx, "user-7", CreateAttemptRequest{
		AssignmentID: assignment.ID,
		Files:        sampleTree(),
	})
	var already *common.AlreadyAttemptedError
	require.ErrorAs(t, err, &already)
	assert.Equal(t, pw.ID, already.AttemptID)

	flaky.failPut = false
	files := sampleTree()
	repaired, err := f.attempts.RepairAttempt(ctx, pw.ID, &files)
	require.NoError(t, err)
	assert.NotEmpty(t, repaired.BucketURL)
}
