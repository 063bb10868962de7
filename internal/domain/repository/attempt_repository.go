package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"codecrate/internal/common"
	"codecrate/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type AttemptRepository interface {
	// Create relies on the uq_attempts_assignment_user constraint: the
	// existence check and the insert are one statement, which is what keeps
	// the one-attempt-per-user invariant safe under concurrent callers.
	// On violation it returns *common.AlreadyAttemptedError carrying the
	// surviving row's id.
	Create(ctx context.Context, a *model.Attempt) error
	FindByID(ctx context.Context, id string) (*model.Attempt, error)
	FindByAssignmentAndUser(ctx context.Context, assignmentID, userID string) (*model.Attempt, error)
	ListByAssignment(ctx context.Context, assignmentID string) ([]model.Attempt, error)
	ListByUser(ctx context.Context, userID string) ([]model.Attempt, error)
	UpdateContentLink(ctx context.Context, id, objectKey, bucketURL string) error
}

type pgAttemptRepository struct {
	db *sql.DB
}

func NewPgAttemptRepository(db *sql.DB) AttemptRepository {
	return &pgAttemptRepository{db: db}
}

func (r *pgAttemptRepository) Create(ctx context.Context, a *model.Attempt) error {
	query := `INSERT INTO attempts (id, assignment_id, user_id, status, object_key, bucket_url)
	          VALUES ($1, $2, $3, $4, '', '')
	          RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, a.ID, a.AssignmentID, a.UserID, a.Status).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23503" {
			return fmt.Errorf("referenced assignment does not exist: %w", common.ErrNotFound)
		}
		if pgErr.Code == "23505" {
			existing, findErr := r.FindByAssignmentAndUser(ctx, a.AssignmentID, a.UserID)
			if findErr != nil {
				return fmt.Errorf("attempt exists but lookup failed: %w", findErr)
			}
			return &common.AlreadyAttemptedError{AttemptID: existing.ID}
		}
	}
	return fmt.Errorf("pgAttemptRepository.Create: %w", err)
}

func (r *pgAttemptRepository) FindByID(ctx context.Context, id string) (*model.Attempt, error) {
	query := `SELECT id, assignment_id, user_id, status, object_key, bucket_url, created_at, updated_at
	          FROM attempts WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id), "FindByID")
}

func (r *pgAttemptRepository) FindByAssignmentAndUser(ctx context.Context, assignmentID, userID string) (*model.Attempt, error) {
	query := `SELECT id, assignment_id, user_id, status, object_key, bucket_url, created_at, updated_at
	          FROM attempts WHERE assignment_id = $1 AND user_id = $2`
	return r.scanOne(r.db.QueryRowContext(ctx, query, assignmentID, userID), "FindByAssignmentAndUser")
}

func (r *pgAttemptRepository) scanOne(row *sql.Row, op string) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := row.Scan(&a.ID, &a.AssignmentID, &a.UserID, &a.Status, &a.ObjectKey, &a.BucketURL, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgAttemptRepository.%s: %w", op, err)
	}
	return a, nil
}

func (r *pgAttemptRepository) ListByAssignment(ctx context.Context, assignmentID string) ([]model.Attempt, error) {
	query := `SELECT id, assignment_id, user_id, status, object_key, bucket_url, created_at, updated_at
	          FROM attempts WHERE assignment_id = $1 ORDER BY created_at ASC, id ASC`
	return r.list(ctx, query, assignmentID)
}

func (r *pgAttemptRepository) ListByUser(ctx context.Context, userID string) ([]model.Attempt, error) {
	query := `SELECT id, assignment_id, user_id, status, object_key, bucket_url, created_at, updated_at
	          FROM attempts WHERE user_id = $1 ORDER BY created_at ASC, id ASC`
	return r.list(ctx, query, userID)
}

func (r *pgAttemptRepository) list(ctx context.Context, query string, args ...interface{}) ([]model.Attempt, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgAttemptRepository.list: %w", err)
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		var a model.Attempt
		if err := rows.Scan(&a.ID, &a.AssignmentID, &a.UserID, &a.Status, &a.ObjectKey, &a.BucketURL, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("pgAttemptRepository.list scan: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

func (r *pgAttemptRepository) UpdateContentLink(ctx context.Context, id, objectKey, bucketURL string) error {
	query := `UPDATE attempts SET object_key = $1, bucket_url = $2, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, objectKey, bucketURL, id)
	if err != nil {
		return fmt.Errorf("pgAttemptRepository.UpdateContentLink: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}
