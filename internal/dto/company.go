package dto

// ── 公司模块 DTO ──

// CreateCompanyRequest 创建公司请求
type CreateCompanyRequest struct {
	Name           string `json:"name"            binding:"required,min=2,max=200"`
	CompanyType    string `json:"company_type"    binding:"omitempty,oneof=company contractor"`
	BusinessNumber string `json:"business_number" binding:"omitempty,max=50"`
}

// UpdateCompanyRequest 更新公司请求
type UpdateCompanyRequest struct {
	Name           *string `json:"name"            binding:"omitempty,min=2,max=200"`
	BusinessNumber *string `json:"business_number" binding:"omitempty,max=50"`
	IsActive       *bool   `json:"is_active"`
	Version        int     `json:"version"         binding:"required,min=1"`
}

// CompanyListRequest 公司列表查询参数
type CompanyListRequest struct {
	IncludeInactive bool `form:"include_inactive"`
}

// CompanyResponse 公司响应
type CompanyResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	CompanyType    string `json:"company_type"`
	BusinessNumber string `json:"business_number,omitempty"`
	IsActive       bool   `json:"is_active"`
	Version        int    `json:"version"`
	CreatedAt      string `json:"created_at"`
}
