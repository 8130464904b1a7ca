package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	User         UserRepository
	Company      CompanyRepository
	InviteCode   InviteCodeRepository
	Facility     FacilityRepository
	FormTemplate FormTemplateRepository
	Application  ApplicationRepository
	Submission   SubmissionRepository
	NAICS        NAICSRepository

	db *gorm.DB
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:         NewUserRepo(db),
		Company:      NewCompanyRepo(db),
		InviteCode:   NewInviteCodeRepo(db),
		Facility:     NewFacilityRepo(db),
		FormTemplate: NewFormTemplateRepo(db),
		Application:  NewApplicationRepo(db),
		Submission:   NewSubmissionRepo(db),
		NAICS:        NewNAICSRepo(db),
		db:           db,
	}
}

// WithTx 返回绑定到事务连接的 Repository 聚合
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// Transaction 在事务中执行 fn，fn 返回错误时回滚
// 未绑定数据库连接（单元测试注入的 mock 聚合）时直接在当前聚合上执行
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}

// Ping 检查数据库连通性
func (r *Repository) Ping(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
