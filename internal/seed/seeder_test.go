package seed

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/registro/backend/internal/models"
	"github.com/registro/backend/pkg/queue"
)

type fakeStore struct {
	classes map[string]bool
	users   map[string]models.User
	failOn  string
}

func newFakeStore() *fakeStore {
	return &fakeStore{classes: map[string]bool{}, users: map[string]models.User{}}
}

func (f *fakeStore) EnsureClass(_ context.Context, id string) (bool, error) {
	if f.classes[id] {
		return false, nil
	}
	f.classes[id] = true
	return true, nil
}

func (f *fakeStore) EnsureUser(_ context.Context, u *models.User) (bool, error) {
	if u.ID == f.failOn {
		return false, errors.New("constraint violation")
	}
	if _, ok := f.users[u.ID]; ok {
		return false, nil
	}
	f.users[u.ID] = *u
	return true, nil
}

func newTestSeeder(store Store) *Seeder {
	s := NewSeeder(store, nil)
	s.hash = func(p string) (string, error) { return "hash:" + p, nil }
	return s
}

func TestSeeder_Run(t *testing.T) {
	store := newFakeStore()
	s := newTestSeeder(store)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Classes: 10, Teachers: 7, Students: 200}, res)

	student := store.users["s2A_3"]
	require.NotNil(t, student.ClassID)
	assert.Equal(t, "2A", *student.ClassID)
	assert.Equal(t, models.RoleStudent, student.Role)
	assert.Equal(t, "Studente 43", student.Name)
	assert.Equal(t, "hash:1111", student.Password)

	teacher := store.users["matteo@reg"]
	assert.Equal(t, models.RoleTeacher, teacher.Role)
	assert.Nil(t, teacher.ClassID)
	assert.Equal(t, "hash:1234", teacher.Password)
}

func TestSeeder_RunIsIdempotent(t *testing.T) {
	store := newFakeStore()
	s := newTestSeeder(store)
	_, err := s.Run(context.Background())
	require.NoError(t, err)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
	assert.Len(t, store.users, 207)
}

func TestSeeder_RunStopsOnStoreError(t *testing.T) {
	store := newFakeStore()
	store.failOn = "s1B_1"

	_, err := newTestSeeder(store).Run(context.Background())
	assert.ErrorContains(t, err, "s1B_1")
}

type fakeEnqueuer struct {
	jobs []queue.JobType
	err  error
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, jobType queue.JobType, _ interface{}) (*queue.Job, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.jobs = append(f.jobs, jobType)
	return &queue.Job{ID: "job-1", Type: jobType}, nil
}

func postSeed(h *Handler, body string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/seed", h.Seed)
	req := httptest.NewRequest(http.MethodPost, "/api/seed", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Seed(t *testing.T) {
	jobs := &fakeEnqueuer{}
	h := NewHandler("change_this_secret", jobs, zap.NewNop())

	rec := postSeed(h, `{"secret":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = postSeed(h, `{}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, jobs.jobs)

	rec = postSeed(h, `{"secret":"change_this_secret"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []queue.JobType{queue.JobTypeSeedDemo}, jobs.jobs)

	jobs.err = errors.New("redis down")
	rec = postSeed(h, `{"secret":"change_this_secret"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
