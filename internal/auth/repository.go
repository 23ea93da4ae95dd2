package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/registro/backend/internal/models"
)

// ErrUserNotFound is returned when no user has the requested id.
var ErrUserNotFound = errors.New("user not found")

// Repository handles user lookup.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID returns a user by id (e.g. "matteo@reg" or "s2A_3").
func (r *Repository) GetByID(ctx context.Context, id string) (*models.User, error) {
	const q = `SELECT id, name, password, role, class_id FROM users WHERE id = $1`
	var u models.User
	var role string
	err := r.pool.QueryRow(ctx, q, id).Scan(&u.ID, &u.Name, &u.Password, &role, &u.ClassID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	return &u, nil
}
