package model

// 角色
const (
	RoleAdmin                = "admin"
	RoleCompanyAdmin         = "company_admin"
	RoleCompanyUser          = "company_user"
	RoleContractorAdmin      = "contractor_admin"
	RoleContractorTeamMember = "contractor_team_member"
)

// Roles 全部合法角色
var Roles = []string{
	RoleAdmin, RoleCompanyAdmin, RoleCompanyUser,
	RoleContractorAdmin, RoleContractorTeamMember,
}

// IsValidRole 是否为已知角色
func IsValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// User 用户表 — 对应 users；项目管理员不属于任何公司
type User struct {
	UserID             string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name               string  `gorm:"type:varchar(100);not null"                     json:"name"`
	Email              string  `gorm:"type:varchar(255);not null"                     json:"email"`
	PasswordHash       string  `gorm:"type:varchar(255);not null"                     json:"-"`
	Role               string  `gorm:"type:varchar(40);not null;default:'company_user'" json:"role"`
	CompanyID          *string `gorm:"type:uuid"                                      json:"company_id,omitempty"`
	MustChangePassword bool    `gorm:"not null;default:false"                         json:"must_change_password"`
	VersionedModel

	Company *Company `gorm:"foreignKey:CompanyID;references:CompanyID" json:"company,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }
