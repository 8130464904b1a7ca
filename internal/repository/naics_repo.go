package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/kaushikmurali01/semi-portal-sub000/internal/model"
)

// NAICSRepository NAICS 目录数据访问接口
type NAICSRepository interface {
	ListAll(ctx context.Context) ([]model.NAICSCode, error)
	// ReplaceAll 在单个事务中整体替换目录
	ReplaceAll(ctx context.Context, codes []model.NAICSCode) error
}

type naicsRepo struct {
	db *gorm.DB
}

// NewNAICSRepo 创建 NAICSRepository 实例
func NewNAICSRepo(db *gorm.DB) NAICSRepository {
	return &naicsRepo{db: db}
}

func (r *naicsRepo) ListAll(ctx context.Context) ([]model.NAICSCode, error) {
	var codes []model.NAICSCode
	err := r.db.WithContext(ctx).Order("level ASC, code ASC").Find(&codes).Error
	return codes, err
}

func (r *naicsRepo) ReplaceAll(ctx context.Context, codes []model.NAICSCode) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM naics_codes").Error; err != nil {
			return err
		}
		if len(codes) == 0 {
			return nil
		}
		return tx.CreateInBatches(codes, 500).Error
	})
}
