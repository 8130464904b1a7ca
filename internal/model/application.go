package model

import "time"

// 申请状态
const (
	ApplicationStatusDraft         = "draft"
	ApplicationStatusSubmitted     = "submitted"
	ApplicationStatusUnderReview   = "under_review"
	ApplicationStatusApproved      = "approved"
	ApplicationStatusRejected      = "rejected"
	ApplicationStatusNeedsRevision = "needs_revision"
)

// Application 设施参与某活动的申请 — 对应 applications
type Application struct {
	ID              string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ApplicationCode string     `gorm:"type:varchar(30);not null;<-:create"            json:"application_code"`
	ActivityType    string     `gorm:"type:varchar(10);not null"                      json:"activity_type"`
	Status          string     `gorm:"type:varchar(20);not null;default:'draft'"      json:"status"`
	FacilityID      string     `gorm:"type:uuid;not null"                             json:"facility_id"`
	CompanyID       string     `gorm:"type:uuid;not null"                             json:"company_id"`
	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
	VersionedModel

	Facility *Facility `gorm:"foreignKey:FacilityID;references:FacilityID" json:"facility,omitempty"`
	Company  *Company  `gorm:"foreignKey:CompanyID;references:CompanyID"   json:"company,omitempty"`
}

// TableName 指定表名
func (Application) TableName() string { return "applications" }
