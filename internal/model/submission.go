package model

import (
	"time"

	"gorm.io/datatypes"
)

// 提交状态
const (
	SubmissionStatusDraft     = "draft"
	SubmissionStatusSubmitted = "submitted"
)

// Submission 某申请在某模板下的一份表单数据 — 对应 submissions
// 旧数据的 created_at 可能为空，数据可能仅保存在 review_notes 中
type Submission struct {
	SubmissionID   string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"submission_id"`
	ApplicationID  string         `gorm:"type:uuid;not null"                             json:"application_id"`
	FormTemplateID string         `gorm:"type:uuid;not null"                             json:"form_template_id"`
	Status         string         `gorm:"type:varchar(20);not null;default:'draft'"      json:"status"`
	Data           datatypes.JSON `gorm:"type:jsonb"                                     json:"data,omitempty"`
	ReviewNotes    *string        `gorm:"type:text"                                      json:"review_notes,omitempty"`
	SubmittedBy    *string        `gorm:"type:uuid"                                      json:"submitted_by,omitempty"`
	SubmittedAt    *time.Time     `json:"submitted_at,omitempty"`
	CreatedAt      *time.Time     `gorm:"autoCreateTime:false"                           json:"created_at,omitempty"`
	UpdatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

// TableName 指定表名
func (Submission) TableName() string { return "submissions" }
