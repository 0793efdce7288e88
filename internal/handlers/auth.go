package handlers

import (
	"errors"
	"net/http"
	"strings"

	"prefect-admin/internal/database"
	"prefect-admin/internal/middleware"
	"prefect-admin/internal/models"
	"prefect-admin/internal/store"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	NickName string `json:"nickName"`
	Role     string `json:"role"`
}

// Register is open self-sign-up. Reviewer, archiver and admin accounts
// are created by an admin through CreateUser.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	switch models.UserRole(req.Role) {
	case models.RoleCreator, models.RoleEngineer, models.RoleViewer:
	default:
		fail(c, http.StatusBadRequest, "role not allowed for self registration")
		return
	}

	user, created := h.createUser(c, req)
	if !created {
		return
	}
	database.CreateAuditLog(c.Request.Context(), h.db, user.ID, "user", user.ID, "register", "registered "+user.Username, nil)
	c.JSON(http.StatusCreated, envelope{Code: http.StatusCreated, Msg: "registered", Data: user})
}

// CreateUser lets an admin create an account with any role.
func (h *Handler) CreateUser(c *gin.Context) {
	admin, found := mustActor(c)
	if !found {
		return
	}

	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if !models.UserRole(req.Role).Valid() {
		fail(c, http.StatusBadRequest, "unknown role")
		return
	}

	user, created := h.createUser(c, req)
	if !created {
		return
	}
	database.CreateAuditLog(c.Request.Context(), h.db, admin.UserID, "user", user.ID, "create",
		"created "+user.Username+" as "+string(user.Role), nil)
	c.JSON(http.StatusCreated, envelope{Code: http.StatusCreated, Msg: "user created", Data: user})
}

func (h *Handler) createUser(c *gin.Context, req registerRequest) (*models.User, bool) {
	ctx := c.Request.Context()
	username := strings.TrimSpace(req.Username)
	if len(username) < 3 || len(req.Password) < 6 {
		fail(c, http.StatusBadRequest, "username or password too short")
		return nil, false
	}

	if _, err := h.store.GetUserByUsername(ctx, username); err == nil {
		fail(c, http.StatusBadRequest, "user already exists")
		return nil, false
	} else if !errors.Is(err, store.ErrNotFound) {
		failErr(c, err)
		return nil, false
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		failErr(c, err)
		return nil, false
	}
	user := &models.User{
		Username:     username,
		NickName:     strings.TrimSpace(req.NickName),
		PasswordHash: string(hash),
		Role:         models.UserRole(req.Role),
	}
	if err := h.store.CreateUser(ctx, user); err != nil {
		failErr(c, err)
		return nil, false
	}
	return user, true
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.store.GetUserByUsername(c.Request.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(c, http.StatusUnauthorized, "invalid username or password")
			return
		}
		failErr(c, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		fail(c, http.StatusUnauthorized, "invalid username or password")
		return
	}

	sess := sessions.Default(c)
	sess.Set("user_id", user.ID)
	sess.Set("role", string(user.Role))
	if err := sess.Save(); err != nil {
		failErr(c, err)
		return
	}

	database.CreateAuditLog(c.Request.Context(), h.db, user.ID, "user", user.ID, "login", "", nil)
	ok(c, "logged in", user)
}

func (h *Handler) Logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	sess.Options(sessions.Options{Path: "/", MaxAge: -1})
	_ = sess.Save()
	ok(c, "logged out", nil)
}

func (h *Handler) Me(c *gin.Context) {
	u, found := middleware.CurrentUser(c)
	if !found {
		fail(c, http.StatusUnauthorized, "login required")
		return
	}
	ok(c, "", u)
}
