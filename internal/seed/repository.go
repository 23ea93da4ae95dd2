package seed

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/registro/backend/internal/models"
)

// Repository writes demo rows with ON CONFLICT DO NOTHING.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a seed repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureClass inserts a class and reports whether it was new.
func (r *Repository) EnsureClass(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `INSERT INTO classes (id) VALUES ($1) ON CONFLICT DO NOTHING`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// EnsureUser inserts a user and reports whether it was new.
func (r *Repository) EnsureUser(ctx context.Context, u *models.User) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, name, password, role, class_id) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (id) DO NOTHING`,
		u.ID, u.Name, u.Password, string(u.Role), u.ClassID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
