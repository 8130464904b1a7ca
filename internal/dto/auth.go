package dto

// ── 认证模块 DTO ──

// LoginRequest 登录请求
type LoginRequest struct {
	Email      string `json:"email"    binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

// RegisterRequest 邀请注册请求，公司与角色由邀请码决定
type RegisterRequest struct {
	InviteCode string `json:"invite_code" binding:"required"`
	Name       string `json:"name"        binding:"required,min=2,max=100"`
	Email      string `json:"email"       binding:"required,email"`
	Password   string `json:"password"    binding:"required,min=8,max=64"`
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest 登出请求，refresh_token 可选
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// GenerateInviteRequest 生成邀请码请求
type GenerateInviteRequest struct {
	CompanyID   string `json:"company_id"   binding:"omitempty,uuid"`
	Role        string `json:"role"         binding:"required,oneof=admin company_admin company_user contractor_admin contractor_team_member"`
	ExpiresDays int    `json:"expires_days" binding:"omitempty,min=1,max=90"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=64"`
}

// ── 认证模块响应 ──

// TokenResponse Token 对响应
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"` // Access Token 有效期（秒）
	User         UserResponse `json:"user"`
}

// InviteResponse 邀请码响应
type InviteResponse struct {
	InviteCode string `json:"invite_code"`
	InviteURL  string `json:"invite_url"`
	CompanyID  string `json:"company_id,omitempty"`
	Role       string `json:"role"`
	ExpiresAt  string `json:"expires_at"`
}

// InviteValidateResponse 邀请码验证响应
type InviteValidateResponse struct {
	Valid     bool          `json:"valid"`
	Role      string        `json:"role"`
	Company   *CompanyBrief `json:"company,omitempty"`
	ExpiresAt string        `json:"expires_at"`
}

// RegisterResponse 注册成功响应
type RegisterResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
