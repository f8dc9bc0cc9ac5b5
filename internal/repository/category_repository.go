package repository

import (
	"context"

	"github.com/valorant-dhruv/FeathersUp.ai/internal/domain"
)

// CategoryRepository reads ticket categories.
type CategoryRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Category, error)
	FindActiveByIDs(ctx context.Context, ids []int64) ([]domain.Category, error)
}

type categoryRepository struct {
	db DB
}

// NewCategoryRepository instantiates the repository.
func NewCategoryRepository(db DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	const query = `
        SELECT id, name, description, is_active, created_at, updated_at
        FROM categories WHERE id=$1`

	var category domain.Category
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&category.ID,
		&category.Name,
		&category.Description,
		&category.IsActive,
		&category.CreatedAt,
		&category.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) FindActiveByIDs(ctx context.Context, ids []int64) ([]domain.Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `
        SELECT id, name, description, is_active, created_at, updated_at
        FROM categories WHERE id = ANY($1) AND is_active
        ORDER BY id`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.Description,
			&category.IsActive,
			&category.CreatedAt,
			&category.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, category)
	}
	return result, rows.Err()
}
