package dto

// ── 活动模板 DTO ──

// TemplateFieldRequest 模板字段描述
type TemplateFieldRequest struct {
	ID       string   `json:"id"       binding:"required,max=64"`
	Label    string   `json:"label"    binding:"required,max=200"`
	Type     string   `json:"type"     binding:"required,oneof=text textarea number date select checkbox file"`
	Required bool     `json:"required"`
	Options  []string `json:"options"`
}

// CreateTemplateRequest 创建模板请求
type CreateTemplateRequest struct {
	ActivityType string                 `json:"activity_type" binding:"required,oneof=FRA EAA SEM EMIS CR"`
	Name         string                 `json:"name"          binding:"required,min=2,max=200"`
	Order        int                    `json:"order"         binding:"required,min=1"`
	Phase        string                 `json:"phase"         binding:"omitempty,oneof=pre_activity post_activity"`
	Fields       []TemplateFieldRequest `json:"fields"        binding:"omitempty,dive"`
}

// UpdateTemplateRequest 更新模板请求
type UpdateTemplateRequest struct {
	Name     *string                `json:"name"   binding:"omitempty,min=2,max=200"`
	Order    *int                   `json:"order"  binding:"omitempty,min=1"`
	Phase    *string                `json:"phase"  binding:"omitempty,oneof=pre_activity post_activity"`
	Fields   []TemplateFieldRequest `json:"fields" binding:"omitempty,dive"`
	IsActive *bool                  `json:"is_active"`
}

// TemplateResponse 模板响应
type TemplateResponse struct {
	ID           string                 `json:"id"`
	ActivityType string                 `json:"activity_type"`
	Name         string                 `json:"name"`
	Order        int                    `json:"order"`
	Phase        string                 `json:"phase,omitempty"`
	Fields       []TemplateFieldRequest `json:"fields"`
	IsActive     bool                   `json:"is_active"`
}
