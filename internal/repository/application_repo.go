package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/kaushikmurali01/semi-portal-sub000/internal/model"
	pkgerrors "github.com/kaushikmurali01/semi-portal-sub000/pkg/errors"
)

// ApplicationListFilters 申请列表筛选条件
type ApplicationListFilters struct {
	CompanyID    string
	Status       string
	ActivityType string
	From         *time.Time
	To           *time.Time
}

// LabelCount 分组计数结果
type LabelCount struct {
	Label string
	Total int64
}

// ApplicationRepository 申请数据访问接口
type ApplicationRepository interface {
	Create(ctx context.Context, app *model.Application) error
	GetByID(ctx context.Context, id string) (*model.Application, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	List(ctx context.Context, filters *ApplicationListFilters, offset, limit int) ([]model.Application, int64, error)
	ListAll(ctx context.Context, filters *ApplicationListFilters) ([]model.Application, error)
	// UpdateStatus 乐观锁更新状态，版本不符返回 ErrOptimisticLock
	UpdateStatus(ctx context.Context, app *model.Application) error
	CountByStatus(ctx context.Context, filters *ApplicationListFilters) ([]LabelCount, error)
	CountByActivityType(ctx context.Context, filters *ApplicationListFilters) ([]LabelCount, error)
}

type applicationRepo struct {
	db *gorm.DB
}

// NewApplicationRepo 创建 ApplicationRepository 实例
func NewApplicationRepo(db *gorm.DB) ApplicationRepository {
	return &applicationRepo{db: db}
}

func (r *applicationRepo) Create(ctx context.Context, app *model.Application) error {
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *applicationRepo) GetByID(ctx context.Context, id string) (*model.Application, error) {
	var app model.Application
	err := r.db.WithContext(ctx).
		Preload("Facility").
		Preload("Company").
		Where("id = ?", id).
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Unscoped().
		Model(&model.Application{}).
		Where("application_code = ?", code).
		Count(&count).Error
	return count > 0, err
}

func (r *applicationRepo) filtered(ctx context.Context, filters *ApplicationListFilters) *gorm.DB {
	db := r.db.WithContext(ctx).Model(&model.Application{})
	if filters == nil {
		return db
	}
	if filters.CompanyID != "" {
		db = db.Where("company_id = ?", filters.CompanyID)
	}
	if filters.Status != "" {
		db = db.Where("status = ?", filters.Status)
	}
	if filters.ActivityType != "" {
		db = db.Where("activity_type = ?", filters.ActivityType)
	}
	if filters.From != nil {
		db = db.Where("created_at >= ?", *filters.From)
	}
	if filters.To != nil {
		db = db.Where("created_at < ?", *filters.To)
	}
	return db
}

func (r *applicationRepo) List(ctx context.Context, filters *ApplicationListFilters, offset, limit int) ([]model.Application, int64, error) {
	var apps []model.Application
	var total int64

	db := r.filtered(ctx, filters)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Facility").Preload("Company").
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&apps).Error; err != nil {
		return nil, 0, err
	}

	return apps, total, nil
}

func (r *applicationRepo) ListAll(ctx context.Context, filters *ApplicationListFilters) ([]model.Application, error) {
	var apps []model.Application
	err := r.filtered(ctx, filters).
		Preload("Facility").Preload("Company").
		Order("created_at ASC").
		Find(&apps).Error
	return apps, err
}

func (r *applicationRepo) UpdateStatus(ctx context.Context, app *model.Application) error {
	oldVersion := app.Version
	result := r.db.WithContext(ctx).
		Model(&model.Application{}).
		Where("id = ? AND version = ?", app.ID, oldVersion).
		Updates(map[string]interface{}{
			"status":       app.Status,
			"submitted_at": app.SubmittedAt,
			"updated_by":   app.UpdatedBy,
			"version":      oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	app.Version = oldVersion + 1
	return nil
}

func (r *applicationRepo) CountByStatus(ctx context.Context, filters *ApplicationListFilters) ([]LabelCount, error) {
	return r.countBy(ctx, filters, "status")
}

func (r *applicationRepo) CountByActivityType(ctx context.Context, filters *ApplicationListFilters) ([]LabelCount, error) {
	return r.countBy(ctx, filters, "activity_type")
}

// countBy column 仅接受内部常量
func (r *applicationRepo) countBy(ctx context.Context, filters *ApplicationListFilters, column string) ([]LabelCount, error) {
	var rows []LabelCount
	err := r.filtered(ctx, filters).
		Select(column + " AS label, COUNT(*) AS total").
		Group(column).
		Order("label ASC").
		Scan(&rows).Error
	return rows, err
}
