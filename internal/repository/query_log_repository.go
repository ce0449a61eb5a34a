package repository

import (
	"context"
	"time"

	"neowatch/internal/models"

	"gorm.io/gorm"
)

type QueryLogRepository interface {
	Create(ctx context.Context, entry *models.QueryLog) error
	GetRecent(ctx context.Context, limit int) ([]models.QueryLog, error)
	Count(ctx context.Context) (int64, error)
	DeleteOld(ctx context.Context, olderThan time.Time) (int64, error)
}

type queryLogRepository struct {
	db *gorm.DB
}

func NewQueryLogRepository(db *gorm.DB) QueryLogRepository {
	return &queryLogRepository{db: db}
}

func (r *queryLogRepository) Create(ctx context.Context, entry *models.QueryLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *queryLogRepository) GetRecent(ctx context.Context, limit int) ([]models.QueryLog, error) {
	if limit < 1 || limit > 1000 {
		limit = 100
	}

	var entries []models.QueryLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).
		Error
	return entries, err
}

func (r *queryLogRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.QueryLog{}).
		Count(&count).
		Error
	return count, err
}

func (r *queryLogRepository) DeleteOld(ctx context.Context, olderThan time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_at < ?", olderThan).
		Delete(&models.QueryLog{})
	return res.RowsAffected, res.Error
}
