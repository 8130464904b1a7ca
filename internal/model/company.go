package model

// 公司类型
const (
	CompanyTypeCompany    = "company"
	CompanyTypeContractor = "contractor"
)

// Company 参与项目的公司 — 对应 companies
type Company struct {
	CompanyID      string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"company_id"`
	Name           string `gorm:"type:varchar(200);not null"                     json:"name"`
	CompanyType    string `gorm:"type:varchar(20);not null;default:'company'"    json:"company_type"`
	BusinessNumber string `gorm:"type:varchar(50)"                               json:"business_number,omitempty"`
	IsActive       bool   `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel
}

// TableName 指定表名
func (Company) TableName() string { return "companies" }
