package handlers

import (
	"context"
	"net/http"
	"strings"

	"prefect-admin/internal/database"
	"prefect-admin/internal/models"
	"prefect-admin/internal/workflow"

	"github.com/gin-gonic/gin"
)

type transitionRequest struct {
	ProjectID    uint   `json:"projectId" binding:"required"`
	Opinion      string `json:"opinion"`
	TargetStatus string `json:"targetStatus"`
}

type batchRequest struct {
	ProjectIDs    []uint `json:"projectIds" binding:"required"`
	Opinion       string `json:"opinion"`
	CurrentStatus string `json:"currentStatus"`
	TargetStatus  string `json:"targetStatus"`
}

// status accepts a code or a name. Anything else is passed through so
// the engine reports it as an invalid target.
func status(raw string) models.PrefectStatus {
	raw = strings.TrimSpace(raw)
	if st, err := models.ParseStatus(raw); err == nil {
		return st
	}
	return models.PrefectStatus(raw)
}

type transitionFunc func(ctx context.Context, a workflow.Actor, req transitionRequest) (*workflow.Result, error)

func (h *Handler) transition(op string, run transitionFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, found := mustActor(c)
		if !found {
			return
		}
		var req transitionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "invalid request body")
			return
		}

		res, err := run(c.Request.Context(), a, req)
		if err != nil {
			failErr(c, err)
			return
		}

		database.CreateAuditLog(c.Request.Context(), h.db, a.UserID, "prefect", res.ProjectID, op, res.Message,
			gin.H{"from": res.From, "to": res.To})
		ok(c, res.Message, res)
	}
}

func (h *Handler) SendToEngineer() gin.HandlerFunc {
	return h.transition("send_to_engineer", func(ctx context.Context, a workflow.Actor, req transitionRequest) (*workflow.Result, error) {
		return h.engine.SendToEngineer(ctx, req.ProjectID, a, req.Opinion)
	})
}

func (h *Handler) EngineerSubmit() gin.HandlerFunc {
	return h.transition("engineer_submit", func(ctx context.Context, a workflow.Actor, req transitionRequest) (*workflow.Result, error) {
		return h.engine.EngineerSubmit(ctx, req.ProjectID, a, req.Opinion)
	})
}

func (h *Handler) SecondReview() gin.HandlerFunc {
	return h.transition("second_review", func(ctx context.Context, a workflow.Actor, req transitionRequest) (*workflow.Result, error) {
		return h.engine.SecondReview(ctx, req.ProjectID, a, req.Opinion, status(req.TargetStatus))
	})
}

func (h *Handler) ThirdReview() gin.HandlerFunc {
	return h.transition("third_review", func(ctx context.Context, a workflow.Actor, req transitionRequest) (*workflow.Result, error) {
		return h.engine.ThirdReview(ctx, req.ProjectID, a, req.Opinion, status(req.TargetStatus))
	})
}

func (h *Handler) Archive() gin.HandlerFunc {
	return h.transition("archive", func(ctx context.Context, a workflow.Actor, req transitionRequest) (*workflow.Result, error) {
		return h.engine.Archive(ctx, req.ProjectID, a, req.Opinion)
	})
}

type batchFunc func(ctx context.Context, req workflow.BatchRequest) (*workflow.BatchResult, error)

func (h *Handler) batch(op string, run batchFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, found := mustActor(c)
		if !found {
			return
		}
		var req batchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "invalid request body")
			return
		}

		out, err := run(c.Request.Context(), workflow.BatchRequest{
			ProjectIDs:    req.ProjectIDs,
			Actor:         a,
			Opinion:       req.Opinion,
			CurrentStatus: status(req.CurrentStatus),
			TargetStatus:  status(req.TargetStatus),
		})
		if err != nil {
			failErr(c, err)
			return
		}

		for _, res := range out.Results {
			database.CreateAuditLog(c.Request.Context(), h.db, a.UserID, "prefect", res.ProjectID, op, res.Message,
				gin.H{"from": res.From, "to": res.To, "batch": true})
		}
		ok(c, out.Message, out)
	}
}

func (h *Handler) BatchSecondReview() gin.HandlerFunc {
	return h.batch("second_review", h.engine.BatchSecondReview)
}

func (h *Handler) BatchThirdReview() gin.HandlerFunc {
	return h.batch("third_review", h.engine.BatchThirdReview)
}

func (h *Handler) ListToArchive(c *gin.Context) {
	a, found := mustActor(c)
	if !found {
		return
	}
	page, err := h.engine.ListToArchive(c.Request.Context(),
		queryInt(c, "pageNum", 1), queryInt(c, "pageSize", 10), a)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, "", page)
}

func (h *Handler) OpinionHistory(c *gin.Context) {
	id, found := paramID(c, "id")
	if !found {
		return
	}
	list, err := h.engine.OpinionHistory(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, "", list)
}

func (h *Handler) NodeOpinions(c *gin.Context) {
	id, found := paramID(c, "id")
	if !found {
		return
	}
	list, err := h.engine.NodeOpinions(c.Request.Context(), id, status(c.Param("code")))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, "", list)
}
