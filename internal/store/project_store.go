package store

import (
	"context"
	"strings"
	"time"

	"prefect-admin/internal/models"
)

// ProjectRow is a project joined with its live process record.
type ProjectRow struct {
	models.Project
	ReviewStatus models.PrefectStatus `json:"reviewStatus"`
	Reviewer     string               `json:"reviewer"`
	ReviewTime   *time.Time           `json:"reviewTime"`
}

const projectRowSelect = "projects.*, " +
	"COALESCE(project_prefects.current_status, '') AS review_status, " +
	"COALESCE(project_prefects.operator_name, '') AS reviewer, " +
	"project_prefects.updated_at AS review_time"

type ProjectFilter struct {
	Name            string
	Code            string
	Type            string
	PaymentReceived string
	PrefectStatuses []models.PrefectStatus
	PageNum         int
	PageSize        int
}

func (s *Store) GetProject(ctx context.Context, id uint) (*models.Project, error) {
	var p models.Project
	if err := s.conn(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *Store) GetProjectByCode(ctx context.Context, code string) (*models.Project, error) {
	var p models.Project
	if err := s.conn(ctx).Where("project_code = ?", code).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// ProjectCodeTaken includes soft-deleted projects, which still hold the
// unique index on project_code.
func (s *Store) ProjectCodeTaken(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := s.conn(ctx).Unscoped().Model(&models.Project{}).Where("project_code = ?", code).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) CreateProject(ctx context.Context, p *models.Project) error {
	return s.conn(ctx).Create(p).Error
}

// UpdateProject writes the given columns. Workflow columns are stripped.
func (s *Store) UpdateProject(ctx context.Context, id uint, fields map[string]any) error {
	delete(fields, "prefect_status")
	delete(fields, "id")
	res := s.conn(ctx).Model(&models.Project{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPrefectStatus updates the denormalised prefect_status mirror.
func (s *Store) SetPrefectStatus(ctx context.Context, projectID uint, status models.PrefectStatus, now time.Time) error {
	res := s.conn(ctx).Model(&models.Project{}).
		Where("id = ?", projectID).
		Updates(map[string]any{"prefect_status": status, "updated_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDeleteProjects marks projects deleted along with their process
// records and opinions.
func (s *Store) SoftDeleteProjects(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	db := s.conn(ctx)
	res := db.Where("id IN ?", ids).Delete(&models.Project{})
	if res.Error != nil {
		return 0, res.Error
	}
	if err := db.Where("project_id IN ?", ids).Delete(&models.ProjectPrefect{}).Error; err != nil {
		return 0, err
	}
	if err := db.Where("project_id IN ?", ids).Delete(&models.PrefectOpinion{}).Error; err != nil {
		return 0, err
	}
	return res.RowsAffected, nil
}

func (s *Store) ListProjects(ctx context.Context, f ProjectFilter) (Page[ProjectRow], error) {
	q := s.conn(ctx).Model(&models.Project{}).
		Joins("LEFT JOIN project_prefects ON project_prefects.project_id = projects.id AND project_prefects.deleted_at IS NULL")

	if v := strings.TrimSpace(f.Name); v != "" {
		q = q.Where("projects.project_name LIKE ?", "%"+v+"%")
	}
	if v := strings.TrimSpace(f.Code); v != "" {
		q = q.Where("projects.project_code LIKE ?", "%"+v+"%")
	}
	if v := strings.TrimSpace(f.Type); v != "" {
		q = q.Where("projects.project_type LIKE ?", "%"+v+"%")
	}
	if v := strings.TrimSpace(f.PaymentReceived); v != "" {
		q = q.Where("projects.payment_received = ?", v)
	}
	if len(f.PrefectStatuses) > 0 {
		q = q.Where("projects.prefect_status IN ?", f.PrefectStatuses)
	}

	return Paginate[ProjectRow](q, PageQuery{
		Num:    f.PageNum,
		Size:   f.PageSize,
		Select: projectRowSelect,
		Order:  "projects.created_at DESC, projects.id DESC",
	})
}
