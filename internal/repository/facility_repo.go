package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/kaushikmurali01/semi-portal-sub000/internal/model"
)

// FacilityRepository 设施数据访问接口
type FacilityRepository interface {
	Create(ctx context.Context, facility *model.Facility) error
	GetByID(ctx context.Context, id string) (*model.Facility, error)
	// ListByCompany companyID 为空时返回全部设施
	ListByCompany(ctx context.Context, companyID string) ([]model.Facility, error)
	Update(ctx context.Context, facility *model.Facility) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type facilityRepo struct {
	db *gorm.DB
}

// NewFacilityRepo 创建 FacilityRepository 实例
func NewFacilityRepo(db *gorm.DB) FacilityRepository {
	return &facilityRepo{db: db}
}

func (r *facilityRepo) Create(ctx context.Context, facility *model.Facility) error {
	return r.db.WithContext(ctx).Create(facility).Error
}

func (r *facilityRepo) GetByID(ctx context.Context, id string) (*model.Facility, error) {
	var facility model.Facility
	err := r.db.WithContext(ctx).
		Preload("Company").
		Where("facility_id = ?", id).
		First(&facility).Error
	if err != nil {
		return nil, err
	}
	return &facility, nil
}

func (r *facilityRepo) ListByCompany(ctx context.Context, companyID string) ([]model.Facility, error) {
	var facilities []model.Facility
	db := r.db.WithContext(ctx).Preload("Company")
	if companyID != "" {
		db = db.Where("company_id = ?", companyID)
	}
	err := db.Order("name ASC").Find(&facilities).Error
	return facilities, err
}

func (r *facilityRepo) Update(ctx context.Context, facility *model.Facility) error {
	return r.db.WithContext(ctx).
		Model(&model.Facility{}).
		Where("facility_id = ?", facility.FacilityID).
		Updates(map[string]interface{}{
			"name":       facility.Name,
			"address":    facility.Address,
			"naics_code": facility.NAICSCode,
			"is_active":  facility.IsActive,
			"updated_by": facility.UpdatedBy,
		}).Error
}

func (r *facilityRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Facility{}).
		Where("facility_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
