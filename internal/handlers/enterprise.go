package handlers

import (
	"net/http"
	"strings"

	"prefect-admin/internal/database"
	"prefect-admin/internal/models"

	"github.com/gin-gonic/gin"
)

type enterpriseRequest struct {
	Name          string `json:"enterpriseName"`
	TaxpayerID    string `json:"taxpayerId"`
	EntType       int    `json:"entType"`
	Address       string `json:"address"`
	ContactPerson string `json:"contactPerson"`
	ContactPhone  string `json:"contactPhone"`
	BankName      string `json:"bankName"`
	BankAccount   string `json:"bankAccount"`
	Notes         string `json:"notes"`
}

func (r *enterpriseRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.TaxpayerID = strings.TrimSpace(r.TaxpayerID)
	r.Address = strings.TrimSpace(r.Address)
	r.ContactPerson = strings.TrimSpace(r.ContactPerson)
	r.ContactPhone = strings.TrimSpace(r.ContactPhone)
	r.BankName = strings.TrimSpace(r.BankName)
	r.BankAccount = strings.TrimSpace(r.BankAccount)
	r.Notes = strings.TrimSpace(r.Notes)
	if r.EntType == 0 {
		r.EntType = 1
	}
}

func (r enterpriseRequest) apply(e *models.Enterprise) {
	e.Name = r.Name
	e.TaxpayerID = r.TaxpayerID
	e.EntType = r.EntType
	e.Address = r.Address
	e.ContactPerson = r.ContactPerson
	e.ContactPhone = r.ContactPhone
	e.BankName = r.BankName
	e.BankAccount = r.BankAccount
	e.Notes = r.Notes
}

// bindEnterprise reads and checks the body. exceptID is the enterprise
// being edited, zero on create.
func (h *Handler) bindEnterprise(c *gin.Context, exceptID uint) (enterpriseRequest, bool) {
	var req enterpriseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	req.normalize()

	if len([]rune(req.Name)) < 2 {
		fail(c, http.StatusBadRequest, "enterprise name must be at least 2 characters")
		return req, false
	}
	if req.TaxpayerID == "" {
		fail(c, http.StatusBadRequest, "taxpayer id is required")
		return req, false
	}

	taken, err := h.store.TaxpayerIDTaken(c.Request.Context(), req.TaxpayerID, exceptID)
	if err != nil {
		failErr(c, err)
		return req, false
	}
	if taken {
		fail(c, http.StatusBadRequest, "an enterprise with this taxpayer id already exists")
		return req, false
	}
	return req, true
}

func (h *Handler) ListEnterprises(c *gin.Context) {
	page, err := h.store.ListEnterprises(c.Request.Context(),
		c.Query("enterpriseName"), queryInt(c, "pageNum", 1), queryInt(c, "pageSize", 10))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, "", page)
}

func (h *Handler) CreateEnterprise(c *gin.Context) {
	a, found := mustActor(c)
	if !found {
		return
	}
	req, valid := h.bindEnterprise(c, 0)
	if !valid {
		return
	}

	var ent models.Enterprise
	req.apply(&ent)
	if err := h.store.CreateEnterprise(c.Request.Context(), &ent); err != nil {
		failErr(c, err)
		return
	}

	database.CreateAuditLog(c.Request.Context(), h.db, a.UserID, "enterprise", ent.ID, "create", "created enterprise "+ent.Name, nil)
	c.JSON(http.StatusCreated, envelope{Code: http.StatusCreated, Msg: "enterprise created", Data: ent})
}

func (h *Handler) UpdateEnterprise(c *gin.Context) {
	a, found := mustActor(c)
	if !found {
		return
	}
	id, found := paramID(c, "id")
	if !found {
		return
	}

	ent, err := h.store.GetEnterprise(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	req, valid := h.bindEnterprise(c, id)
	if !valid {
		return
	}

	req.apply(ent)
	if err := h.store.SaveEnterprise(c.Request.Context(), ent); err != nil {
		failErr(c, err)
		return
	}

	database.CreateAuditLog(c.Request.Context(), h.db, a.UserID, "enterprise", ent.ID, "update", "updated enterprise "+ent.Name, nil)
	ok(c, "enterprise updated", ent)
}

func (h *Handler) DeleteEnterprise(c *gin.Context) {
	a, found := mustActor(c)
	if !found {
		return
	}
	id, found := paramID(c, "id")
	if !found {
		return
	}
	if err := h.store.DeleteEnterprise(c.Request.Context(), id); err != nil {
		failErr(c, err)
		return
	}

	database.CreateAuditLog(c.Request.Context(), h.db, a.UserID, "enterprise", id, "delete", "deleted enterprise", nil)
	ok(c, "enterprise deleted", nil)
}
