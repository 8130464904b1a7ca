package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/kaushikmurali01/semi-portal-sub000/internal/model"
)

// FormTemplateRepository 表单模板数据访问接口
type FormTemplateRepository interface {
	Create(ctx context.Context, tpl *model.FormTemplate) error
	GetByID(ctx context.Context, id string) (*model.FormTemplate, error)
	// ListByActivityType 返回有效模板，按 sort_order、template_id 升序
	ListByActivityType(ctx context.Context, activityType string) ([]model.FormTemplate, error)
	ListByActivityTypes(ctx context.Context, activityTypes []string) ([]model.FormTemplate, error)
	OrderTaken(ctx context.Context, activityType string, sortOrder int, excludeID string) (bool, error)
	Update(ctx context.Context, tpl *model.FormTemplate) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type formTemplateRepo struct {
	db *gorm.DB
}

// NewFormTemplateRepo 创建 FormTemplateRepository 实例
func NewFormTemplateRepo(db *gorm.DB) FormTemplateRepository {
	return &formTemplateRepo{db: db}
}

func (r *formTemplateRepo) Create(ctx context.Context, tpl *model.FormTemplate) error {
	return r.db.WithContext(ctx).Create(tpl).Error
}

func (r *formTemplateRepo) GetByID(ctx context.Context, id string) (*model.FormTemplate, error) {
	var tpl model.FormTemplate
	err := r.db.WithContext(ctx).
		Where("template_id = ?", id).
		First(&tpl).Error
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (r *formTemplateRepo) ListByActivityType(ctx context.Context, activityType string) ([]model.FormTemplate, error) {
	var tpls []model.FormTemplate
	err := r.db.WithContext(ctx).
		Where("activity_type = ? AND is_active = ?", activityType, true).
		Order("sort_order ASC, template_id ASC").
		Find(&tpls).Error
	return tpls, err
}

func (r *formTemplateRepo) ListByActivityTypes(ctx context.Context, activityTypes []string) ([]model.FormTemplate, error) {
	var tpls []model.FormTemplate
	if len(activityTypes) == 0 {
		return tpls, nil
	}
	err := r.db.WithContext(ctx).
		Where("activity_type IN ? AND is_active = ?", activityTypes, true).
		Order("activity_type ASC, sort_order ASC, template_id ASC").
		Find(&tpls).Error
	return tpls, err
}

func (r *formTemplateRepo) OrderTaken(ctx context.Context, activityType string, sortOrder int, excludeID string) (bool, error) {
	var count int64
	db := r.db.WithContext(ctx).
		Model(&model.FormTemplate{}).
		Where("activity_type = ? AND sort_order = ?", activityType, sortOrder)
	if excludeID != "" {
		db = db.Where("template_id <> ?", excludeID)
	}
	err := db.Count(&count).Error
	return count > 0, err
}

func (r *formTemplateRepo) Update(ctx context.Context, tpl *model.FormTemplate) error {
	return r.db.WithContext(ctx).
		Model(&model.FormTemplate{}).
		Where("template_id = ?", tpl.TemplateID).
		Updates(map[string]interface{}{
			"name":       tpl.Name,
			"sort_order": tpl.SortOrder,
			"phase":      tpl.Phase,
			"fields":     tpl.Fields,
			"is_active":  tpl.IsActive,
			"updated_by": tpl.UpdatedBy,
		}).Error
}

func (r *formTemplateRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.FormTemplate{}).
		Where("template_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
