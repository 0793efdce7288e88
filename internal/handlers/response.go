// Package handlers is the JSON API over projects, their review workflow,
// enterprises, users and the audit trail.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"prefect-admin/internal/middleware"
	"prefect-admin/internal/service"
	"prefect-admin/internal/store"
	"prefect-admin/internal/workflow"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	store    *store.Store
	engine   *workflow.Engine
	projects *service.ProjectService
	db       *gorm.DB
}

func New(s *store.Store, engine *workflow.Engine, projects *service.ProjectService) *Handler {
	return &Handler{store: s, engine: engine, projects: projects, db: s.DB()}
}

// envelope is the body of every API response.
type envelope struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
}

func ok(c *gin.Context, msg string, data any) {
	if msg == "" {
		msg = "ok"
	}
	c.JSON(http.StatusOK, envelope{Code: http.StatusOK, Msg: msg, Data: data})
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, envelope{Code: status, Msg: msg})
}

// failErr maps an operation error to its HTTP status.
func failErr(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed",
			"request_id", middleware.GetRequestID(c.Request.Context()),
			"path", c.FullPath(),
			"kind", workflow.Kind(err),
			"error", err,
		)
		msg = "internal error"
	}
	fail(c, status, msg)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, workflow.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, workflow.ErrNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrMissingOpinion),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrDuplicateCode):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// actor builds the workflow actor for the logged-in user.
func actor(c *gin.Context) (workflow.Actor, bool) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return workflow.Actor{}, false
	}
	return workflow.Actor{UserID: u.ID, UserName: u.DisplayName(), Role: u.Role}, true
}

// mustActor aborts with 401 when no user is attached to the request.
func mustActor(c *gin.Context) (workflow.Actor, bool) {
	a, ok := actor(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "login required")
	}
	return a, ok
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		fail(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// parseIDs reads a comma separated id list such as "3,7,9".
func parseIDs(raw string) ([]uint, error) {
	var out []uint
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil || id == 0 {
			return nil, errors.New("invalid id " + strconv.Quote(part))
		}
		out = append(out, uint(id))
	}
	if len(out) == 0 {
		return nil, errors.New("no ids given")
	}
	return out, nil
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}
