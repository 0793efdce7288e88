package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"prefect-admin/internal/database"
	"prefect-admin/internal/models"
	"prefect-admin/internal/store"

	"github.com/gin-gonic/gin"
)

type projectRequest struct {
	ID          uint   `json:"id"`
	ProjectCode string `json:"projectCode"`
	ProjectName string `json:"projectName"`
	ProjectType string `json:"projectType"`

	EnterpriseID   uint   `json:"enterpriseId"`
	ServiceContent string `json:"serviceContent"`
	UserCompany    string `json:"userCompany"`
	ProjectManager string `json:"projectManager"`
	Coordinator    string `json:"coordinator"`

	ContractAmount        float64 `json:"contractAmount"`
	InvoiceShouldAmount   float64 `json:"invoiceShouldAmount"`
	InvoiceIssuedAmount   float64 `json:"invoiceIssuedAmount"`
	PaymentReceived       string  `json:"paymentReceived"`
	PaymentReceivedAmount float64 `json:"paymentReceivedAmount"`

	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	ProjectDesc string     `json:"projectDesc"`
	Remarks     string     `json:"remarks"`
}

func (r projectRequest) model() *models.Project {
	return &models.Project{
		ProjectCode:           r.ProjectCode,
		ProjectName:           r.ProjectName,
		ProjectType:           r.ProjectType,
		EnterpriseID:          r.EnterpriseID,
		ServiceContent:        r.ServiceContent,
		UserCompany:           r.UserCompany,
		ProjectManager:        r.ProjectManager,
		Coordinator:           r.Coordinator,
		ContractAmount:        r.ContractAmount,
		InvoiceShouldAmount:   r.InvoiceShouldAmount,
		InvoiceIssuedAmount:   r.InvoiceIssuedAmount,
		PaymentReceived:       r.PaymentReceived,
		PaymentReceivedAmount: r.PaymentReceivedAmount,
		StartDate:             r.StartDate,
		EndDate:               r.EndDate,
		ProjectDesc:           r.ProjectDesc,
		Remarks:               r.Remarks,
	}
}

func (h *Handler) CreateProject(c *gin.Context) {
	a, found := mustActor(c)
	if !found {
		return
	}
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	project := req.model()
	if err := h.projects.Create(c.Request.Context(), project, a); err != nil {
		failErr(c, err)
		return
	}

	database.CreateAuditLog(c.Request.Context(), h.db, a.UserID, "project", project.ID, "create",
		"created project "+project.ProjectCode,
		gin.H{"to": models.StatusCreate})
	c.JSON(http.StatusCreated, envelope{Code: http.StatusCreated, Msg: "project created", Data: project})
}

func (h *Handler) UpdateProject(c *gin.Context) {
	a, found := mustActor(c)
	if !found {
		return
	}
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == 0 {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.projects.Update(c.Request.Context(), req.ID, req.model(), a); err != nil {
		failErr(c, err)
		return
	}

	database.CreateAuditLog(c.Request.Context(), h.db, a.UserID, "project", req.ID, "update",
		"updated project "+strings.TrimSpace(req.ProjectCode), nil)
	ok(c, "project updated", gin.H{"id": req.ID})
}

func (h *Handler) DeleteProjects(c *gin.Context) {
	a, found := mustActor(c)
	if !found {
		return
	}
	ids, err := parseIDs(c.Param("ids"))
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	n, err := h.projects.Delete(c.Request.Context(), ids)
	if err != nil {
		failErr(c, err)
		return
	}

	for _, id := range ids {
		database.CreateAuditLog(c.Request.Context(), h.db, a.UserID, "project", id, "delete", "deleted project", nil)
	}
	ok(c, fmt.Sprintf("%d projects deleted", n), gin.H{"deleted": n})
}

func (h *Handler) GetProject(c *gin.Context) {
	id, found := paramID(c, "id")
	if !found {
		return
	}
	detail, err := h.projects.Detail(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, "", detail)
}

// ListProjects accepts projectName, projectCode, projectType,
// paymentReceived, prefectStatus (comma separated codes), pageNum and
// pageSize.
func (h *Handler) ListProjects(c *gin.Context) {
	f := store.ProjectFilter{
		Name:            c.Query("projectName"),
		Code:            c.Query("projectCode"),
		Type:            c.Query("projectType"),
		PaymentReceived: c.Query("paymentReceived"),
		PageNum:         queryInt(c, "pageNum", 1),
		PageSize:        queryInt(c, "pageSize", 10),
	}
	for _, raw := range strings.Split(c.Query("prefectStatus"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		st, err := models.ParseStatus(raw)
		if err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		f.PrefectStatuses = append(f.PrefectStatuses, st)
	}

	page, err := h.projects.List(c.Request.Context(), f)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, "", page)
}

// ProjectHistory returns the audit entries of a project, oldest first.
func (h *Handler) ProjectHistory(c *gin.Context) {
	id, found := paramID(c, "id")
	if !found {
		return
	}
	if _, err := h.store.GetProject(c.Request.Context(), id); err != nil {
		failErr(c, err)
		return
	}

	ctx := c.Request.Context()
	projectLogs, err := h.store.ListAuditLogsForEntity(ctx, "project", id)
	if err != nil {
		failErr(c, err)
		return
	}
	prefectLogs, err := h.store.ListAuditLogsForEntity(ctx, "prefect", id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, "", gin.H{"project": projectLogs, "prefect": prefectLogs})
}
