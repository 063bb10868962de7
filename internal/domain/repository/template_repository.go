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

type TemplateRepository interface {
	Create(ctx context.Context, t *model.Template) error
	FindByID(ctx context.Context, id string) (*model.Template, error)
	List(ctx context.Context) ([]model.Template, error)
	UpdateContentLink(ctx context.Context, id, objectKey, bucketURL string) error
}

type pgTemplateRepository struct {
	db *sql.DB
}

func NewPgTemplateRepository(db *sql.DB) TemplateRepository {
	return &pgTemplateRepository{db: db}
}

func (r *pgTemplateRepository) Create(ctx context.Context, t *model.Template) error {
	query := `INSERT INTO templates (id, name, description, object_key, bucket_url)
	          VALUES ($1, $2, $3, '', '')
	          RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, t.ID, t.Name, t.Description).
		Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint for name
			return fmt.Errorf("template with this name already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgTemplateRepository.Create: %w", err)
	}
	return nil
}

func (r *pgTemplateRepository) FindByID(ctx context.Context, id string) (*model.Template, error) {
	query := `SELECT id, name, description, object_key, bucket_url, created_at, updated_at
	          FROM templates WHERE id = $1`
	t := &model.Template{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.Description, &t.ObjectKey, &t.BucketURL, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgTemplateRepository.FindByID: %w", err)
	}
	return t, nil
}

func (r *pgTemplateRepository) List(ctx context.Context) ([]model.Template, error) {
	query := `SELECT id, name, description, object_key, bucket_url, created_at, updated_at
	          FROM templates ORDER BY created_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgTemplateRepository.List: %w", err)
	}
	defer rows.Close()

	var templates []model.Template
	for rows.Next() {
		var t model.Template
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.ObjectKey, &t.BucketURL, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("pgTemplateRepository.List scan: %w", err)
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (r *pgTemplateRepository) UpdateContentLink(ctx context.Context, id, objectKey, bucketURL string) error {
	query := `UPDATE templates SET object_key = $1, bucket_url = $2, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, objectKey, bucketURL, id)
	if err != nil {
		return fmt.Errorf("pgTemplateRepository.UpdateContentLink: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}
