package model

import "gorm.io/datatypes"

// 活动类型
var ActivityTypes = []string{"FRA", "EAA", "SEM", "EMIS", "CR"}

// IsValidActivityType 是否为已知活动类型
func IsValidActivityType(t string) bool {
	for _, a := range ActivityTypes {
		if a == t {
			return true
		}
	}
	return false
}

// TemplateField 表单字段描述
type TemplateField struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Type     string   `json:"type"` // text | textarea | number | date | select | checkbox | file
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
}

// FormTemplate 活动表单模板 — 对应 form_templates
// 同一活动类型下 sort_order 唯一；phase 为旧版两阶段字段
type FormTemplate struct {
	TemplateID   string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"template_id"`
	ActivityType string         `gorm:"type:varchar(10);not null"                      json:"activity_type"`
	Name         string         `gorm:"type:varchar(200);not null"                     json:"name"`
	SortOrder    int            `gorm:"not null;default:0"                             json:"sort_order"`
	Phase        string         `gorm:"type:varchar(20)"                               json:"phase,omitempty"`
	Fields       datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"               json:"fields"`
	IsActive     bool           `gorm:"not null;default:true"                          json:"is_active"`
	SoftDeleteModel
}

// TableName 指定表名
func (FormTemplate) TableName() string { return "form_templates" }
