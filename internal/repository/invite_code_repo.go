package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kaushikmurali01/semi-portal-sub000/internal/model"
	pkgerrors "github.com/kaushikmurali01/semi-portal-sub000/pkg/errors"
)

// InviteCodeRepository 邀请码数据访问接口
// 邀请码只增不删，过期与使用状态由 used_at / expires_at 表达
type InviteCodeRepository interface {
	Create(ctx context.Context, code *model.InviteCode) error
	GetByCode(ctx context.Context, code string) (*model.InviteCode, error)
	// GetByCodeForUpdate 使用 SELECT ... FOR UPDATE 行级锁查询邀请码，防止并发使用
	GetByCodeForUpdate(ctx context.Context, code string) (*model.InviteCode, error)
	MarkUsed(ctx context.Context, inviteCodeID, userID string) error
}

type inviteCodeRepo struct {
	db *gorm.DB
}

// NewInviteCodeRepo 创建 InviteCodeRepository 实例
func NewInviteCodeRepo(db *gorm.DB) InviteCodeRepository {
	return &inviteCodeRepo{db: db}
}

func (r *inviteCodeRepo) Create(ctx context.Context, code *model.InviteCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

func (r *inviteCodeRepo) GetByCode(ctx context.Context, code string) (*model.InviteCode, error) {
	return r.first(r.db.WithContext(ctx), code)
}

// GetByCodeForUpdate 必须在事务连接上调用（Repository.Transaction）
func (r *inviteCodeRepo) GetByCodeForUpdate(ctx context.Context, code string) (*model.InviteCode, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), code)
}

// first 邀请码大小写不敏感，入库时统一为大写
func (r *inviteCodeRepo) first(q *gorm.DB, code string) (*model.InviteCode, error) {
	var invite model.InviteCode
	if err := q.Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).First(&invite).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

// MarkUsed 标记邀请码为已使用；已被使用时返回 ErrOptimisticLock
func (r *inviteCodeRepo) MarkUsed(ctx context.Context, inviteCodeID, userID string) error {
	result := r.db.WithContext(ctx).
		Model(&model.InviteCode{}).
		Where("invite_code_id = ? AND used_at IS NULL", inviteCodeID).
		Updates(map[string]interface{}{
			"used_at":    time.Now(),
			"used_by":    userID,
			"updated_by": userID,
			"version":    gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}
