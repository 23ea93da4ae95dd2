package seed

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/registro/backend/internal/auth"
	"github.com/registro/backend/internal/models"
)

// StudentsPerClass is the number of demo students created in every class.
const StudentsPerClass = 20

// Classes are the demo class ids.
var Classes = []string{"1A", "1B", "2A", "2B", "3A", "3B", "4A", "4B", "5A", "5B"}

// Teachers are the demo teacher accounts as {id, name}.
var Teachers = [][2]string{
	{"matteo@reg", "Matteo Piccinin"},
	{"lorenzo@reg", "Lorenzo Piccinin"},
	{"magic3@reg", "Magic_3"},
	{"miguel@reg", "Miguel"},
	{"symbol@reg", "Symbol"},
	{"helen@reg", "Helen Ancient"},
	{"chiara@reg", "Chiara Liplp"},
}

const (
	teacherPassword = "1234"
	studentPassword = "1111"
)

// Store inserts demo rows, skipping ones that already exist.
type Store interface {
	EnsureClass(ctx context.Context, id string) (bool, error)
	EnsureUser(ctx context.Context, u *models.User) (bool, error)
}

// Result counts rows actually inserted by one run.
type Result struct {
	Classes  int `json:"classes"`
	Teachers int `json:"teachers"`
	Students int `json:"students"`
}

// Seeder populates the demo school.
type Seeder struct {
	store  Store
	hash   func(string) (string, error)
	logger *zap.Logger
}

// NewSeeder creates a seeder.
func NewSeeder(store Store, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{store: store, hash: auth.HashPassword, logger: logger}
}

// Run inserts the demo classes, teachers and students. Running it again is a no-op.
func (s *Seeder) Run(ctx context.Context) (Result, error) {
	var res Result
	teacherHash, err := s.hash(teacherPassword)
	if err != nil {
		return res, fmt.Errorf("hash teacher password: %w", err)
	}
	studentHash, err := s.hash(studentPassword)
	if err != nil {
		return res, fmt.Errorf("hash student password: %w", err)
	}

	for _, c := range Classes {
		ok, err := s.store.EnsureClass(ctx, c)
		if err != nil {
			return res, fmt.Errorf("class %s: %w", c, err)
		}
		if ok {
			res.Classes++
		}
	}

	for _, t := range Teachers {
		ok, err := s.store.EnsureUser(ctx, &models.User{ID: t[0], Name: t[1], Password: teacherHash, Role: models.RoleTeacher})
		if err != nil {
			return res, fmt.Errorf("teacher %s: %w", t[0], err)
		}
		if ok {
			res.Teachers++
		}
	}

	n := 1
	for _, c := range Classes {
		classID := c
		for i := 1; i <= StudentsPerClass; i++ {
			u := &models.User{
				ID:       fmt.Sprintf("s%s_%d", c, i),
				Name:     fmt.Sprintf("Studente %d", n),
				Password: studentHash,
				Role:     models.RoleStudent,
				ClassID:  &classID,
			}
			n++
			ok, err := s.store.EnsureUser(ctx, u)
			if err != nil {
				return res, fmt.Errorf("student %s: %w", u.ID, err)
			}
			if ok {
				res.Students++
			}
		}
	}

	s.logger.Info("demo data seeded",
		zap.Int("classes", res.Classes),
		zap.Int("teachers", res.Teachers),
		zap.Int("students", res.Students),
	)
	return res, nil
}
