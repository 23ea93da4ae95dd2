package seed

import (
	"context"
	"crypto/subtle"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/registro/backend/pkg/queue"
	"github.com/registro/backend/pkg/response"
)

// Request is the body for POST /api/seed.
type Request struct {
	Secret string `json:"secret"`
}

// Enqueuer hands a job to the background worker.
type Enqueuer interface {
	Enqueue(ctx context.Context, jobType queue.JobType, payload interface{}) (*queue.Job, error)
}

// Handler handles the demo-data endpoint.
type Handler struct {
	secret string
	jobs   Enqueuer
	logger *zap.Logger
}

// NewHandler creates a seed handler guarded by secret.
func NewHandler(secret string, jobs Enqueuer, logger *zap.Logger) *Handler {
	return &Handler{secret: secret, jobs: jobs, logger: logger}
}

// Seed handles POST /api/seed: checks the shared secret and queues a seed_demo job.
func (h *Handler) Seed(c *gin.Context) {
	var req Request
	_ = c.ShouldBindJSON(&req)
	if req.Secret == "" || subtle.ConstantTimeCompare([]byte(req.Secret), []byte(h.secret)) != 1 {
		response.Unauthorized(c, "unauthorized")
		return
	}
	job, err := h.jobs.Enqueue(c.Request.Context(), queue.JobTypeSeedDemo, queue.SeedDemoPayload{RequestedBy: c.ClientIP()})
	if err != nil {
		h.logger.Error("enqueue seed job", zap.Error(err))
		response.Internal(c, "failed to queue seed")
		return
	}
	response.Accepted(c, gin.H{"ok": true, "job_id": job.ID})
}
