package store

import (
	"context"
	"time"

	"prefect-admin/internal/models"
)

// Transition describes one compare-and-swap on a process record.
type Transition struct {
	ProjectID    uint
	From         models.PrefectStatus
	To           models.PrefectStatus
	OperatorID   uint
	OperatorName string
	At           time.Time
}

func (s *Store) InitPrefect(ctx context.Context, p *models.ProjectPrefect) error {
	p.ShowInvoiceSeal = p.CurrentStatus.ShowsInvoiceSeal()
	return s.conn(ctx).Create(p).Error
}

// GetPrefectByProjectID returns the live process record of a project,
// the most recently updated one should several exist.
func (s *Store) GetPrefectByProjectID(ctx context.Context, projectID uint) (*models.ProjectPrefect, error) {
	var p models.ProjectPrefect
	err := s.conn(ctx).
		Where("project_id = ?", projectID).
		Order("updated_at DESC, id DESC").
		First(&p).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *Store) GetPrefectsByProjectIDs(ctx context.Context, projectIDs []uint) (map[uint]*models.ProjectPrefect, error) {
	out := make(map[uint]*models.ProjectPrefect, len(projectIDs))
	if len(projectIDs) == 0 {
		return out, nil
	}
	var rows []models.ProjectPrefect
	err := s.conn(ctx).
		Where("project_id IN ?", projectIDs).
		Order("project_id ASC, updated_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if _, seen := out[rows[i].ProjectID]; !seen {
			out[rows[i].ProjectID] = &rows[i]
		}
	}
	return out, nil
}

// TransitionPrefect moves the process record from t.From to t.To only if
// it is still in t.From. It reports whether a row was changed.
func (s *Store) TransitionPrefect(ctx context.Context, t Transition) (bool, error) {
	res := s.conn(ctx).Model(&models.ProjectPrefect{}).
		Where("project_id = ? AND current_status = ?", t.ProjectID, t.From).
		Updates(map[string]any{
			"current_status":    t.To,
			"show_invoice_seal": t.To.ShowsInvoiceSeal(),
			"operator_id":       t.OperatorID,
			"operator_name":     t.OperatorName,
			"updated_at":        t.At,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListToArchive pages through projects waiting for the archiver,
// most recently moved first.
func (s *Store) ListToArchive(ctx context.Context, pageNum, pageSize int) (Page[ProjectRow], error) {
	q := s.conn(ctx).Model(&models.Project{}).
		Joins("JOIN project_prefects ON project_prefects.project_id = projects.id AND project_prefects.deleted_at IS NULL").
		Where("project_prefects.current_status = ?", models.StatusToArchive)

	return Paginate[ProjectRow](q, PageQuery{
		Num:    pageNum,
		Size:   pageSize,
		Select: projectRowSelect,
		Order:  "project_prefects.updated_at DESC, project_prefects.id DESC",
	})
}
