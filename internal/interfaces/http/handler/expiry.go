package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	expiryapp "github.com/vendfleet/backend/internal/application/expiry"
)

// ExpiryReconciler computes expiring units per coil item
type ExpiryReconciler interface {
	ComputeExpiringForDay(ctx context.Context, companyID, runID uuid.UUID) (*expiryapp.ExpiringResult, error)
	ComputeExpiringForWindow(ctx context.Context, companyID uuid.UUID, daysAhead *int) (*expiryapp.ExpiringResult, error)
}

// ExpiryCommitter adds outstanding expiring units to a run's pick entry
type ExpiryCommitter interface {
	CommitNeededForDay(ctx context.Context, req expiryapp.CommitRequest) (*expiryapp.CommitResult, error)
}

// ExpiryHandler serves the expiry endpoints
type ExpiryHandler struct {
	BaseHandler
	reconciler ExpiryReconciler
	committer  ExpiryCommitter
}

// NewExpiryHandler creates a new ExpiryHandler
func NewExpiryHandler(reconciler ExpiryReconciler, committer ExpiryCommitter) *ExpiryHandler {
	return &ExpiryHandler{reconciler: reconciler, committer: committer}
}

// RunURI binds the run in the path
type RunURI struct {
	RunID string `uri:"run_id" binding:"required,uuid"`
}

// UpcomingQuery binds the window length
type UpcomingQuery struct {
	DaysAhead *int `form:"days_ahead" binding:"omitempty,min=0,max=28"`
}

// CommitBody is the body of a commit request
type CommitBody struct {
	CoilItemID string `json:"coil_item_id" binding:"required,uuid"`
}

// GetForRun returns the units expiring on the day the run is scheduled.
// GET /api/v1/expiry/runs/:run_id
func (h *ExpiryHandler) GetForRun(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	var uri RunURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.ValidationError(c, err)
		return
	}

	result, err := h.reconciler.ComputeExpiringForDay(c.Request.Context(), companyID, uuid.MustParse(uri.RunID))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GetUpcoming returns the units expiring from today through days_ahead days out.
// GET /api/v1/expiry/upcoming
func (h *ExpiryHandler) GetUpcoming(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	var query UpcomingQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.ValidationError(c, err)
		return
	}

	result, err := h.reconciler.ComputeExpiringForWindow(c.Request.Context(), companyID, query.DaysAhead)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Commit adds the coil item's outstanding expiring units to the run.
// A run that is unscheduled or already past answers 200 with null data.
// POST /api/v1/expiry/runs/:run_id/commit
func (h *ExpiryHandler) Commit(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	var uri RunURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.ValidationError(c, err)
		return
	}
	var body CommitBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.ValidationError(c, err)
		return
	}

	result, err := h.committer.CommitNeededForDay(c.Request.Context(), expiryapp.CommitRequest{
		CompanyID:  companyID,
		RunID:      uuid.MustParse(uri.RunID),
		CoilItemID: uuid.MustParse(body.CoilItemID),
		UserID:     h.userID(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
