package repo

import (
	"context"

	"github.com/coinsentry/tracker-agent/internal/entity"
	"gorm.io/gorm"
)

type AlertRepo interface {
	Create(ctx context.Context, alert entity.PriceAlert) (int64, error)
	FindBySymbol(ctx context.Context, symbol string, limit int) ([]entity.PriceAlert, error)
	FindRecent(ctx context.Context, limit int) ([]entity.PriceAlert, error)
}

type alertRepo struct {
	db *gorm.DB
}

func NewAlertRepo(db *gorm.DB) AlertRepo {
	return &alertRepo{
		db: db,
	}
}

func (r *alertRepo) Create(ctx context.Context, alert entity.PriceAlert) (int64, error) {
	err := r.db.WithContext(ctx).Create(&alert).Error
	if err != nil {
		return 0, err
	}
	return alert.Id, nil
}

func (r *alertRepo) FindBySymbol(ctx context.Context, symbol string, limit int) ([]entity.PriceAlert, error) {
	var alerts []entity.PriceAlert
	err := r.db.WithContext(ctx).Where("symbol = ?", symbol).
		Order("created_at DESC").Limit(limit).Find(&alerts).Error
	if err != nil {
		return nil, err
	}
	return alerts, nil
}

func (r *alertRepo) FindRecent(ctx context.Context, limit int) ([]entity.PriceAlert, error) {
	var alerts []entity.PriceAlert
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&alerts).Error
	if err != nil {
		return nil, err
	}
	return alerts, nil
}
