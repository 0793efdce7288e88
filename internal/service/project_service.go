// Package service holds project record operations that sit around the
// workflow engine: creating a project together with its process record,
// editing, deleting and reading it back.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"prefect-admin/internal/models"
	"prefect-admin/internal/store"
	"prefect-admin/internal/workflow"
)

var (
	ErrDuplicateCode = errors.New("project code already exists")
	ErrInvalidInput  = errors.New("invalid project input")
)

type ProjectService struct {
	store  *store.Store
	engine *workflow.Engine
}

func NewProjectService(s *store.Store, engine *workflow.Engine) *ProjectService {
	return &ProjectService{store: s, engine: engine}
}

type PrefectInfo struct {
	CurrentStatus     models.PrefectStatus `json:"currentStatus"`
	CurrentStatusName string               `json:"currentStatusName"`
	ShowInvoiceSeal   bool                 `json:"showInvoiceSeal"`
	OperatorName      string               `json:"operatorName"`
}

type ProjectDetail struct {
	Project     models.Project          `json:"projectInfo"`
	Prefect     *PrefectInfo            `json:"prefectInfo"`
	OpinionList []models.PrefectOpinion `json:"opinionList"`
}

// Create stores a new project and opens its workflow at CREATE.
func (s *ProjectService) Create(ctx context.Context, p *models.Project, actor workflow.Actor) error {
	p.ProjectCode = strings.TrimSpace(p.ProjectCode)
	p.ProjectName = strings.TrimSpace(p.ProjectName)
	if p.ProjectCode == "" || p.ProjectName == "" {
		return fmt.Errorf("%w: project code and name are required", ErrInvalidInput)
	}

	return s.store.Transaction(ctx, func(tx *store.Store) error {
		taken, err := tx.ProjectCodeTaken(ctx, p.ProjectCode)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: %s", ErrDuplicateCode, p.ProjectCode)
		}

		if err := s.fillEnterprise(ctx, tx, p); err != nil {
			return err
		}

		p.ID = 0
		p.Status = models.ProjectNormal
		p.PrefectStatus = models.StatusCreate
		p.CreateBy = actor.UserID
		p.CreateName = actor.UserName
		p.UpdateBy = actor.UserID
		p.UpdateName = actor.UserName
		if err := tx.CreateProject(ctx, p); err != nil {
			return err
		}

		return tx.InitPrefect(ctx, &models.ProjectPrefect{
			ProjectID:     p.ID,
			CurrentStatus: models.StatusCreate,
			OperatorID:    actor.UserID,
			OperatorName:  actor.UserName,
		})
	})
}

// Update edits descriptive fields of a project that is not archived yet.
func (s *ProjectService) Update(ctx context.Context, id uint, p *models.Project, actor workflow.Actor) error {
	return s.store.Transaction(ctx, func(tx *store.Store) error {
		existing, err := tx.GetProject(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("%w: project %d", workflow.ErrNotFound, id)
			}
			return err
		}

		prefect, err := tx.GetPrefectByProjectID(ctx, id)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if prefect != nil && prefect.CurrentStatus == models.StatusArchived {
			return fmt.Errorf("%w: project %d is archived", workflow.ErrInvalidTransition, id)
		}

		code := strings.TrimSpace(p.ProjectCode)
		if code != "" && code != existing.ProjectCode {
			taken, err := tx.ProjectCodeTaken(ctx, code)
			if err != nil {
				return err
			}
			if taken {
				return fmt.Errorf("%w: %s", ErrDuplicateCode, code)
			}
		} else {
			code = existing.ProjectCode
		}

		if err := s.fillEnterprise(ctx, tx, p); err != nil {
			return err
		}

		name := strings.TrimSpace(p.ProjectName)
		if name == "" {
			name = existing.ProjectName
		}

		return tx.UpdateProject(ctx, id, map[string]any{
			"project_code":            code,
			"project_name":            name,
			"project_type":            p.ProjectType,
			"enterprise_id":           p.EnterpriseID,
			"enterprise_name":         p.EnterpriseName,
			"service_content":         p.ServiceContent,
			"user_company":            p.UserCompany,
			"project_manager":         p.ProjectManager,
			"coordinator":             p.Coordinator,
			"contract_amount":         p.ContractAmount,
			"invoice_should_amount":   p.InvoiceShouldAmount,
			"invoice_issued_amount":   p.InvoiceIssuedAmount,
			"payment_received":        p.PaymentReceived,
			"payment_received_amount": p.PaymentReceivedAmount,
			"start_date":              p.StartDate,
			"end_date":                p.EndDate,
			"project_desc":            p.ProjectDesc,
			"remarks":                 p.Remarks,
			"update_by":               actor.UserID,
			"update_name":             actor.UserName,
		})
	})
}

// Delete soft-deletes projects with their workflow records.
func (s *ProjectService) Delete(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: no project ids", ErrInvalidInput)
	}
	var n int64
	err := s.store.Transaction(ctx, func(tx *store.Store) error {
		var err error
		n, err = tx.SoftDeleteProjects(ctx, ids)
		return err
	})
	return n, err
}

func (s *ProjectService) Detail(ctx context.Context, id uint) (*ProjectDetail, error) {
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: project %d", workflow.ErrNotFound, id)
		}
		return nil, err
	}

	detail := &ProjectDetail{Project: *p, OpinionList: []models.PrefectOpinion{}}

	prefect, err := s.store.GetPrefectByProjectID(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return detail, nil
	case err != nil:
		return nil, err
	}
	detail.Prefect = &PrefectInfo{
		CurrentStatus:     prefect.CurrentStatus,
		CurrentStatusName: prefect.CurrentStatus.Name(),
		ShowInvoiceSeal:   prefect.ShowInvoiceSeal,
		OperatorName:      prefect.OperatorName,
	}

	detail.OpinionList, err = s.engine.OpinionHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *ProjectService) List(ctx context.Context, f store.ProjectFilter) (store.Page[store.ProjectRow], error) {
	return s.store.ListProjects(ctx, f)
}

func (s *ProjectService) fillEnterprise(ctx context.Context, tx *store.Store, p *models.Project) error {
	if p.EnterpriseID == 0 {
		return nil
	}
	ent, err := tx.GetEnterprise(ctx, p.EnterpriseID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: enterprise %d does not exist", ErrInvalidInput, p.EnterpriseID)
	}
	if err != nil {
		return err
	}
	p.EnterpriseName = ent.Name
	return nil
}
