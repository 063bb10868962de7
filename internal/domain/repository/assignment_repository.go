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

type AssignmentRepository interface {
	Create(ctx context.Context, a *model.Assignment) error
	FindByID(ctx context.Context, id string) (*model.Assignment, error)
	List(ctx context.Context, status model.AssignmentStatus) ([]model.Assignment, error)
	UpdateContentLink(ctx context.Context, id, objectKey, bucketURL string) error
	UpdateStatus(ctx context.Context, id string, status model.AssignmentStatus) error
}

type pgAssignmentRepository struct {
	db *sql.DB
}

func NewPgAssignmentRepository(db *sql.DB) AssignmentRepository {
	return &pgAssignmentRepository{db: db}
}

func (r *pgAssignmentRepository) Create(ctx context.Context, a *model.Assignment) error {
	query := `INSERT INTO assignments (id, title, description, template_id, difficulty, status, object_key, bucket_url)
	          VALUES ($1, $2, $3, $4, $5, $6, '', '')
	          RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, a.ID, a.Title, a.Description, a.TemplateID, a.Difficulty, a.Status).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23503" { // FK to templates
				return fmt.Errorf("referenced template does not exist: %w", common.ErrNotFound)
			}
			if pgErr.Code == "23505" {
				return fmt.Errorf("assignment already exists: %w", common.ErrConflict)
			}
		}
		return fmt.Errorf("pgAssignmentRepository.Create: %w", err)
	}
	return nil
}

func (r *pgAssignmentRepository) FindByID(ctx context.Context, id string) (*model.Assignment, error) {
	query := `SELECT id, title, description, template_id, difficulty, status, object_key, bucket_url, created_at, updated_at
	          FROM assignments WHERE id = $1`
	a := &model.Assignment{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.Title, &a.Description, &a.TemplateID, &a.Difficulty, &a.Status,
		&a.ObjectKey, &a.BucketURL, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgAssignmentRepository.FindByID: %w", err)
	}
	return a, nil
}

func (r *pgAssignmentRepository) List(ctx context.Context, status model.AssignmentStatus) ([]model.Assignment, error) {
	query := `SELECT id, title, description, template_id, difficulty, status, object_key, bucket_url, created_at, updated_at
	          FROM assignments`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgAssignmentRepository.List: %w", err)
	}
	defer rows.Close()

	var assignments []model.Assignment
	for rows.Next() {
		var a model.Assignment
		if err := rows.Scan(&a.ID, &a.Title, &a.Description, &a.TemplateID, &a.Difficulty, &a.Status,
			&a.ObjectKey, &a.BucketURL, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("pgAssignmentRepository.List scan: %w", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func (r *pgAssignmentRepository) UpdateContentLink(ctx context.Context, id, objectKey, bucketURL string) error {
	query := `UPDATE assignments SET object_key = $1, bucket_url = $2, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, objectKey, bucketURL, id)
	if err != nil {
		return fmt.Errorf("pgAssignmentRepository.UpdateContentLink: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgAssignmentRepository) UpdateStatus(ctx context.Context, id string, status model.AssignmentStatus) error {
	query := `UPDATE assignments SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("pgAssignmentRepository.UpdateStatus: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}
