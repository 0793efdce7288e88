package store

import (
	"context"
	"strings"

	"prefect-admin/internal/models"
)

func (s *Store) ListEnterprises(ctx context.Context, name string, pageNum, pageSize int) (Page[models.Enterprise], error) {
	q := s.conn(ctx).Model(&models.Enterprise{})
	if v := strings.TrimSpace(name); v != "" {
		q = q.Where("name LIKE ?", "%"+v+"%")
	}
	return Paginate[models.Enterprise](q, PageQuery{Num: pageNum, Size: pageSize, Order: "name ASC"})
}

func (s *Store) GetEnterprise(ctx context.Context, id uint) (*models.Enterprise, error) {
	var e models.Enterprise
	if err := s.conn(ctx).First(&e, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

// TaxpayerIDTaken reports whether another enterprise already uses taxID,
// soft-deleted ones included.
func (s *Store) TaxpayerIDTaken(ctx context.Context, taxID string, exceptID uint) (bool, error) {
	var count int64
	q := s.conn(ctx).Unscoped().Model(&models.Enterprise{}).Where("taxpayer_id = ?", taxID)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) CreateEnterprise(ctx context.Context, e *models.Enterprise) error {
	return s.conn(ctx).Create(e).Error
}

func (s *Store) SaveEnterprise(ctx context.Context, e *models.Enterprise) error {
	return s.conn(ctx).Save(e).Error
}

func (s *Store) DeleteEnterprise(ctx context.Context, id uint) error {
	res := s.conn(ctx).Delete(&models.Enterprise{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
