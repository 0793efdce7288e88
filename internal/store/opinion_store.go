package store

import (
	"context"

	"prefect-admin/internal/models"
)

func (s *Store) InsertOpinion(ctx context.Context, o *models.PrefectOpinion) error {
	return s.conn(ctx).Create(o).Error
}

// ListOpinionsByProject returns a project's opinions, newest first.
func (s *Store) ListOpinionsByProject(ctx context.Context, projectID uint) ([]models.PrefectOpinion, error) {
	out := []models.PrefectOpinion{}
	err := s.conn(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

func (s *Store) ListOpinionsByNode(ctx context.Context, projectID uint, node models.PrefectStatus) ([]models.PrefectOpinion, error) {
	out := []models.PrefectOpinion{}
	err := s.conn(ctx).
		Where("project_id = ? AND node_code = ?", projectID, node).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}
