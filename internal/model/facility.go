package model

// Facility 公司名下的设施 — 对应 facilities
type Facility struct {
	FacilityID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"facility_id"`
	CompanyID  string `gorm:"type:uuid;not null"                             json:"company_id"`
	Name       string `gorm:"type:varchar(200);not null"                     json:"name"`
	Address    string `gorm:"type:varchar(300)"                              json:"address,omitempty"`
	NAICSCode  string `gorm:"column:naics_code;type:varchar(6);not null"     json:"naics_code"`
	IsActive   bool   `gorm:"not null;default:true"                          json:"is_active"`
	SoftDeleteModel

	Company *Company `gorm:"foreignKey:CompanyID;references:CompanyID" json:"company,omitempty"`
}

// TableName 指定表名
func (Facility) TableName() string { return "facilities" }
