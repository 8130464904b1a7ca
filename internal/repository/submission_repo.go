package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/kaushikmurali01/semi-portal-sub000/internal/model"
	pkgerrors "github.com/kaushikmurali01/semi-portal-sub000/pkg/errors"
)

// SubmissionRepository 表单提交数据访问接口
type SubmissionRepository interface {
	Create(ctx context.Context, sub *model.Submission) error
	GetByID(ctx context.Context, id string) (*model.Submission, error)
	ListByApplication(ctx context.Context, applicationID string) ([]model.Submission, error)
	ListByApplicationIDs(ctx context.Context, applicationIDs []string) ([]model.Submission, error)
	// Update 仅更新草稿的数据与状态字段，记录已不是草稿时返回 ErrOptimisticLock
	Update(ctx context.Context, sub *model.Submission) error
}

type submissionRepo struct {
	db *gorm.DB
}

// NewSubmissionRepo 创建 SubmissionRepository 实例
func NewSubmissionRepo(db *gorm.DB) SubmissionRepository {
	return &submissionRepo{db: db}
}

func (r *submissionRepo) Create(ctx context.Context, sub *model.Submission) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *submissionRepo) GetByID(ctx context.Context, id string) (*model.Submission, error) {
	var sub model.Submission
	err := r.db.WithContext(ctx).
		Where("submission_id = ?", id).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *submissionRepo) ListByApplication(ctx context.Context, applicationID string) ([]model.Submission, error) {
	var subs []model.Submission
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("created_at ASC NULLS FIRST, submission_id ASC").
		Find(&subs).Error
	return subs, err
}

func (r *submissionRepo) ListByApplicationIDs(ctx context.Context, applicationIDs []string) ([]model.Submission, error) {
	var subs []model.Submission
	if len(applicationIDs) == 0 {
		return subs, nil
	}
	err := r.db.WithContext(ctx).
		Where("application_id IN ?", applicationIDs).
		Find(&subs).Error
	return subs, err
}

func (r *submissionRepo) Update(ctx context.Context, sub *model.Submission) error {
	result := r.db.WithContext(ctx).
		Model(&model.Submission{}).
		Where("submission_id = ? AND status = ?", sub.SubmissionID, model.SubmissionStatusDraft).
		Updates(map[string]interface{}{
			"status":       sub.Status,
			"data":         sub.Data,
			"submitted_by": sub.SubmittedBy,
			"submitted_at": sub.SubmittedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}
