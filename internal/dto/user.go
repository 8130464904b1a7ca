package dto

// ── 用户模块 DTO ──

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	PaginationRequest
	CompanyID string `form:"company_id" binding:"omitempty,uuid"`
	Role      string `form:"role"       binding:"omitempty,oneof=admin company_admin company_user contractor_admin contractor_team_member"`
	Keyword   string `form:"keyword"    binding:"omitempty,max=50"`
}

// UpdateUserRequest 更新用户信息请求
type UpdateUserRequest struct {
	Name  *string `json:"name"  binding:"omitempty,min=2,max=100"`
	Email *string `json:"email" binding:"omitempty,email"`
}

// AssignRoleRequest 分配角色请求
type AssignRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=admin company_admin company_user contractor_admin contractor_team_member"`
}

// ResetPasswordResponse 重置密码响应
type ResetPasswordResponse struct {
	TempPassword string `json:"temp_password"`
}

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID                 string        `json:"id"`
	Name               string        `json:"name"`
	Email              string        `json:"email"`
	Role               string        `json:"role"`
	Company            *CompanyBrief `json:"company,omitempty"`
	MustChangePassword bool          `json:"must_change_password"`
	CreatedAt          string        `json:"created_at,omitempty"`
}
