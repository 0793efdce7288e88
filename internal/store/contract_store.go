package store

import (
	"context"
	"strings"

	"prefect-admin/internal/models"
)

type ContractFilter struct {
	Name     string
	Type     string
	PageNum  int
	PageSize int
}

// ListContracts matches name by substring and type exactly, newest first.
func (s *Store) ListContracts(ctx context.Context, f ContractFilter) (Page[models.Contract], error) {
	q := s.conn(ctx).Model(&models.Contract{})
	if v := strings.TrimSpace(f.Name); v != "" {
		q = q.Where("contract_name LIKE ?", "%"+v+"%")
	}
	if v := strings.TrimSpace(f.Type); v != "" {
		q = q.Where("contract_type = ?", v)
	}
	return Paginate[models.Contract](q, PageQuery{Num: f.PageNum, Size: f.PageSize, Order: "created_at DESC, id DESC"})
}

func (s *Store) GetContract(ctx context.Context, id uint) (*models.Contract, error) {
	var ct models.Contract
	if err := s.conn(ctx).First(&ct, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &ct, nil
}

func (s *Store) CreateContract(ctx context.Context, ct *models.Contract) error {
	return s.conn(ctx).Create(ct).Error
}

func (s *Store) SaveContract(ctx context.Context, ct *models.Contract) error {
	return s.conn(ctx).Save(ct).Error
}

func (s *Store) DeleteContract(ctx context.Context, id uint) error {
	res := s.conn(ctx).Delete(&models.Contract{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
