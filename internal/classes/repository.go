package classes

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/registro/backend/internal/models"
)

// Repository is the Postgres Store. Attendance and grade rows are insert-only,
// so concurrent writers never conflict.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a classes repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// AppendAttendance inserts a presence row and sets a.ID.
func (r *Repository) AppendAttendance(ctx context.Context, a *models.Attendance) error {
	const query = `INSERT INTO presences (class_id, student_id, date, hour, status, by_user)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	return r.pool.QueryRow(ctx, query, a.ClassID, a.StudentID, a.Date, a.Hour, a.Status, a.ByUser).Scan(&a.ID)
}

// AppendGrade inserts a grade row and sets g.ID.
func (r *Repository) AppendGrade(ctx context.Context, g *models.Grade) error {
	const query = `INSERT INTO grades (class_id, student_id, subject, grade, comment, by_user)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
		RETURNING id`
	return r.pool.QueryRow(ctx, query, g.ClassID, g.StudentID, g.Subject, g.Grade, g.Comment, g.ByUser).Scan(&g.ID)
}

// ReadClassSnapshot returns students, presences and grades of a class, read
// from one repeatable-read transaction so the three lists agree.
func (r *Repository) ReadClassSnapshot(ctx context.Context, classID string) (*models.ClassSnapshot, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback(ctx)

	snap := &models.ClassSnapshot{
		ID:        classID,
		Students:  make([]models.UserPublic, 0),
		Presences: make([]models.Attendance, 0),
		Grades:    make([]models.Grade, 0),
	}

	rows, err := tx.Query(ctx, `SELECT id, name, role, class_id FROM users
		WHERE class_id = $1 AND role = $2 ORDER BY id`, classID, string(models.RoleStudent))
	if err != nil {
		return nil, fmt.Errorf("query students: %w", err)
	}
	for rows.Next() {
		var u models.UserPublic
		var role string
		if err := rows.Scan(&u.ID, &u.Name, &role, &u.ClassID); err != nil {
			rows.Close()
			return nil, err
		}
		u.Role = models.Role(role)
		snap.Students = append(snap.Students, u)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = tx.Query(ctx, `SELECT id, class_id, student_id, date, hour, status, by_user
		FROM presences WHERE class_id = $1 ORDER BY id`, classID)
	if err != nil {
		return nil, fmt.Errorf("query presences: %w", err)
	}
	for rows.Next() {
		var a models.Attendance
		if err := rows.Scan(&a.ID, &a.ClassID, &a.StudentID, &a.Date, &a.Hour, &a.Status, &a.ByUser); err != nil {
			rows.Close()
			return nil, err
		}
		snap.Presences = append(snap.Presences, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = tx.Query(ctx, `SELECT id, class_id, student_id, subject, grade, COALESCE(comment, ''), by_user
		FROM grades WHERE class_id = $1 ORDER BY id`, classID)
	if err != nil {
		return nil, fmt.Errorf("query grades: %w", err)
	}
	for rows.Next() {
		var g models.Grade
		if err := rows.Scan(&g.ID, &g.ClassID, &g.StudentID, &g.Subject, &g.Grade, &g.Comment, &g.ByUser); err != nil {
			rows.Close()
			return nil, err
		}
		snap.Grades = append(snap.Grades, g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return snap, tx.Commit(ctx)
}
