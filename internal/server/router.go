package server

import (
	"log/slog"
	"net/http"

	"prefect-admin/internal/config"
	"prefect-admin/internal/handlers"
	"prefect-admin/internal/middleware"
	"prefect-admin/internal/models"
	"prefect-admin/internal/service"
	"prefect-admin/internal/store"
	"prefect-admin/internal/workflow"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const sessionName = "prefect_session"

func NewRouter(cfg *config.Config, s *store.Store, engine *workflow.Engine, log *slog.Logger) *gin.Engine {
	h := handlers.New(s, engine, service.NewProjectService(s, engine))

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID(log))

	sessStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   12 * 3600,
		HttpOnly: true,
		Secure:   cfg.Production(),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, sessStore))
	r.Use(middleware.InjectUser(s))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	// auth
	api.POST("/login", h.Login)
	api.POST("/register", h.Register)
	api.POST("/logout", h.Logout)

	auth := api.Group("/")
	auth.Use(middleware.RequireAuth())

	auth.GET("/me", h.Me)
	auth.POST("/users", middleware.RequireRole(models.RoleAdmin), h.CreateUser)

	// projects
	editors := middleware.RequireRole(models.RoleAdmin, models.RoleCreator)
	auth.GET("/project/list", h.ListProjects)
	auth.GET("/project/:id", h.GetProject)
	auth.GET("/project/:id/history", h.ProjectHistory)
	auth.POST("/project", editors, h.CreateProject)
	auth.PUT("/project", editors, h.UpdateProject)
	auth.DELETE("/project/:ids", editors, h.DeleteProjects)

	// workflow; the engine checks the role of each stage
	prefect := auth.Group("/project/prefect")
	prefect.PUT("/send-engineer", h.SendToEngineer())
	prefect.PUT("/engineer-submit", h.EngineerSubmit())
	prefect.PUT("/second-review", h.SecondReview())
	prefect.PUT("/third-review", h.ThirdReview())
	prefect.PUT("/archive", h.Archive())
	prefect.PUT("/second-review/batch", h.BatchSecondReview())
	prefect.PUT("/third-review/batch", h.BatchThirdReview())
	prefect.GET("/to-archive", h.ListToArchive)

	auth.GET("/project/opinion/:id", h.OpinionHistory)
	auth.GET("/project/opinion/:id/node/:code", h.NodeOpinions)

	// enterprises
	auth.GET("/enterprise", h.ListEnterprises)
	auth.POST("/enterprise", editors, h.CreateEnterprise)
	auth.PUT("/enterprise/:id", editors, h.UpdateEnterprise)
	auth.DELETE("/enterprise/:id", middleware.RequireRole(models.RoleAdmin), h.DeleteEnterprise)

	// contracts
	auth.GET("/contract", h.ListContracts)
	auth.GET("/contract/:id", h.GetContract)
	auth.POST("/contract", editors, h.CreateContract)
	auth.PUT("/contract/:id", editors, h.UpdateContract)
	auth.DELETE("/contract/:id", middleware.RequireRole(models.RoleAdmin), h.DeleteContract)

	// audit
	auth.GET("/audit", middleware.RequireRole(models.RoleAdmin, models.RoleViewer), h.ListAuditLogs)

	return r
}
