package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/kaushikmurali01/semi-portal-sub000/internal/model"
	pkgerrors "github.com/kaushikmurali01/semi-portal-sub000/pkg/errors"
)

// CompanyRepository 公司数据访问接口
type CompanyRepository interface {
	Create(ctx context.Context, company *model.Company) error
	GetByID(ctx context.Context, id string) (*model.Company, error)
	GetByName(ctx context.Context, name string) (*model.Company, error)
	List(ctx context.Context, includeInactive bool) ([]model.Company, error)
	Update(ctx context.Context, company *model.Company) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type companyRepo struct {
	db *gorm.DB
}

// NewCompanyRepo 创建 CompanyRepository 实例
func NewCompanyRepo(db *gorm.DB) CompanyRepository {
	return &companyRepo{db: db}
}

func (r *companyRepo) Create(ctx context.Context, company *model.Company) error {
	return r.db.WithContext(ctx).Create(company).Error
}

func (r *companyRepo) GetByID(ctx context.Context, id string) (*model.Company, error) {
	var company model.Company
	err := r.db.WithContext(ctx).
		Where("company_id = ?", id).
		First(&company).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *companyRepo) GetByName(ctx context.Context, name string) (*model.Company, error) {
	var company model.Company
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&company).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *companyRepo) List(ctx context.Context, includeInactive bool) ([]model.Company, error) {
	var companies []model.Company
	db := r.db.WithContext(ctx)
	if !includeInactive {
		db = db.Where("is_active = ?", true)
	}
	err := db.Order("name ASC").Find(&companies).Error
	return companies, err
}

// Update 带乐观锁的更新
func (r *companyRepo) Update(ctx context.Context, company *model.Company) error {
	oldVersion := company.Version
	result := r.db.WithContext(ctx).
		Model(&model.Company{}).
		Where("company_id = ? AND version = ?", company.CompanyID, oldVersion).
		Updates(map[string]interface{}{
			"name":            company.Name,
			"company_type":    company.CompanyType,
			"business_number": company.BusinessNumber,
			"is_active":       company.IsActive,
			"updated_by":      company.UpdatedBy,
			"version":         oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	company.Version = oldVersion + 1
	return nil
}

func (r *companyRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Company{}).
		Where("company_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
