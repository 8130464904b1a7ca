package dto

// ── 设施模块 DTO ──

// CreateFacilityRequest 创建设施请求；管理员需指定 company_id
type CreateFacilityRequest struct {
	CompanyID string `json:"company_id" binding:"omitempty,uuid"`
	Name      string `json:"name"       binding:"required,min=2,max=200"`
	Address   string `json:"address"    binding:"omitempty,max=300"`
	NAICSCode string `json:"naics_code" binding:"required,len=6,numeric"`
}

// UpdateFacilityRequest 更新设施请求
type UpdateFacilityRequest struct {
	Name      *string `json:"name"       binding:"omitempty,min=2,max=200"`
	Address   *string `json:"address"    binding:"omitempty,max=300"`
	NAICSCode *string `json:"naics_code" binding:"omitempty,len=6,numeric"`
	IsActive  *bool   `json:"is_active"`
}

// FacilityResponse 设施响应
type FacilityResponse struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Address          string        `json:"address,omitempty"`
	NAICSCode        string        `json:"naics_code"`
	NAICSDescription string        `json:"naics_description"`
	IsActive         bool          `json:"is_active"`
	Company          *CompanyBrief `json:"company,omitempty"`
	CreatedAt        string        `json:"created_at"`
}
