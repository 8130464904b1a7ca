package model

import "time"

// InviteCode 邀请码表 — 对应 invite_codes，注册时授予所属公司与角色
type InviteCode struct {
	InviteCodeID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"invite_code_id"`
	Code         string     `gorm:"type:varchar(50);not null"                      json:"code"`
	CompanyID    *string    `gorm:"type:uuid"                                      json:"company_id,omitempty"`
	Role         string     `gorm:"type:varchar(40);not null"                      json:"role"`
	ExpiresAt    time.Time  `gorm:"not null"                                       json:"expires_at"`
	UsedAt       *time.Time `json:"used_at,omitempty"`
	UsedBy       *string    `gorm:"type:uuid"                                      json:"used_by,omitempty"`
	VersionedModel
}

// TableName 指定表名
func (InviteCode) TableName() string { return "invite_codes" }

// IsUsed 是否已被注册使用
func (c *InviteCode) IsUsed() bool { return c.UsedAt != nil }

// IsExpired 在 now 时刻是否已过期
func (c *InviteCode) IsExpired(now time.Time) bool { return now.After(c.ExpiresAt) }
