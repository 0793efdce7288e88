package handlers

import (
	"net/http"
	"strings"
	"time"

	"prefect-admin/internal/database"
	"prefect-admin/internal/models"
	"prefect-admin/internal/store"

	"github.com/gin-gonic/gin"
)

type contractRequest struct {
	Name          string     `json:"contractName"`
	Type          string     `json:"contractType"`
	Amount        float64    `json:"contractAmount"`
	Status        string     `json:"contractStatus"`
	SignDate      *time.Time `json:"contractSignDate"`
	EffectiveDate *time.Time `json:"contractEffectiveDate"`
	ExpireDate    *time.Time `json:"contractExpireDate"`
	TerminateDate *time.Time `json:"contractTerminateDate"`
	Operator      string     `json:"contractOperator"`
}

func (r contractRequest) apply(ct *models.Contract) {
	ct.Name = r.Name
	ct.Type = r.Type
	ct.Amount = r.Amount
	ct.Status = r.Status
	ct.SignDate = r.SignDate
	ct.EffectiveDate = r.EffectiveDate
	ct.ExpireDate = r.ExpireDate
	ct.TerminateDate = r.TerminateDate
	ct.Operator = r.Operator
}

func bindContract(c *gin.Context) (contractRequest, bool) {
	var req contractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Type = strings.TrimSpace(req.Type)
	req.Status = strings.TrimSpace(req.Status)
	req.Operator = strings.TrimSpace(req.Operator)

	switch {
	case req.Name == "":
		fail(c, http.StatusBadRequest, "contract name is required")
		return req, false
	case req.Type == "":
		fail(c, http.StatusBadRequest, "contract type is required")
		return req, false
	case len([]rune(req.Name)) > 255, len([]rune(req.Type)) > 255,
		len([]rune(req.Status)) > 255, len([]rune(req.Operator)) > 255:
		fail(c, http.StatusBadRequest, "contract fields are limited to 255 characters")
		return req, false
	case req.Amount < 0:
		fail(c, http.StatusBadRequest, "contract amount cannot be negative")
		return req, false
	case req.ExpireDate != nil && req.EffectiveDate != nil && req.ExpireDate.Before(*req.EffectiveDate):
		fail(c, http.StatusBadRequest, "contract expires before it takes effect")
		return req, false
	}
	return req, true
}

func (h *Handler) ListContracts(c *gin.Context) {
	page, err := h.store.ListContracts(c.Request.Context(), store.ContractFilter{
		Name:     c.Query("contractName"),
		Type:     c.Query("contractType"),
		PageNum:  queryInt(c, "pageNum", 1),
		PageSize: queryInt(c, "pageSize", 10),
	})
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, "", page)
}

func (h *Handler) GetContract(c *gin.Context) {
	id, found := paramID(c, "id")
	if !found {
		return
	}
	ct, err := h.store.GetContract(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, "", ct)
}

func (h *Handler) CreateContract(c *gin.Context) {
	a, found := mustActor(c)
	if !found {
		return
	}
	req, valid := bindContract(c)
	if !valid {
		return
	}

	ct := models.Contract{
		CreateBy:   a.UserID,
		CreateName: a.UserName,
		UpdateBy:   a.UserID,
		UpdateName: a.UserName,
	}
	req.apply(&ct)
	if err := h.store.CreateContract(c.Request.Context(), &ct); err != nil {
		failErr(c, err)
		return
	}

	database.CreateAuditLog(c.Request.Context(), h.db, a.UserID, "contract", ct.ID, "create", "created contract "+ct.Name, nil)
	c.JSON(http.StatusCreated, envelope{Code: http.StatusCreated, Msg: "contract created", Data: ct})
}

func (h *Handler) UpdateContract(c *gin.Context) {
	a, found := mustActor(c)
	if !found {
		return
	}
	id, found := paramID(c, "id")
	if !found {
		return
	}

	ct, err := h.store.GetContract(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	req, valid := bindContract(c)
	if !valid {
		return
	}

	before := ct.Status
	req.apply(ct)
	ct.UpdateBy = a.UserID
	ct.UpdateName = a.UserName
	if err := h.store.SaveContract(c.Request.Context(), ct); err != nil {
		failErr(c, err)
		return
	}

	database.CreateAuditLog(c.Request.Context(), h.db, a.UserID, "contract", ct.ID, "update", "updated contract "+ct.Name,
		gin.H{"fromStatus": before, "toStatus": ct.Status})
	ok(c, "contract updated", ct)
}

func (h *Handler) DeleteContract(c *gin.Context) {
	a, found := mustActor(c)
	if !found {
		return
	}
	id, found := paramID(c, "id")
	if !found {
		return
	}
	if err := h.store.DeleteContract(c.Request.Context(), id); err != nil {
		failErr(c, err)
		return
	}

	database.CreateAuditLog(c.Request.Context(), h.db, a.UserID, "contract", id, "delete", "deleted contract", nil)
	ok(c, "contract deleted", nil)
}
