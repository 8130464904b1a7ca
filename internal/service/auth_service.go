package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/kaushikmurali01/semi-portal-sub000/config"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/dto"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/model"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/repository"
	pkgerrors "github.com/kaushikmurali01/semi-portal-sub000/pkg/errors"
	"github.com/kaushikmurali01/semi-portal-sub000/pkg/jwt"
)

// ── 认证模块业务错误 ──

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already registered")
	ErrInviteNotFound     = errors.New("invite code not found")
	ErrInviteExpired      = errors.New("invite code expired")
	ErrInviteUsed         = errors.New("invite code already used")
	ErrInviteRoleDenied   = errors.New("role cannot be granted by caller")
	ErrInviteCompanyReq   = errors.New("company is required for this role")
	ErrWrongPassword      = errors.New("old password is incorrect")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTokenRevoked       = errors.New("token has been revoked")
)

// companyAdminGrantable company_admin 可授予的角色
var companyAdminGrantable = map[string]bool{
	model.RoleCompanyUser:          true,
	model.RoleContractorAdmin:      true,
	model.RoleContractorTeamMember: true,
}

// AuthService 认证业务接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, accessClaims *jwt.Claims, refreshToken string) error
	Me(ctx context.Context, userID string) (*dto.UserResponse, error)
	ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error
	GenerateInvite(ctx context.Context, caller Caller, req *dto.GenerateInviteRequest) (*dto.InviteResponse, error)
	ValidateInvite(ctx context.Context, code string) (*dto.InviteValidateResponse, error)
}

type authService struct {
	cfg    *config.Config
	repo   *repository.Repository
	jwtMgr *jwt.Manager
	tokens TokenStore
	logger *zap.Logger
}

// NewAuthService 创建 AuthService 实例；tokens 为 nil 时登出不写黑名单
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	tokens TokenStore,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:    cfg,
		repo:   repo,
		jwtMgr: jwtMgr,
		tokens: tokens,
		logger: logger,
	}
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := s.repo.User.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(user, req.RememberMe)
}

func (s *authService) issueTokens(user *model.User, rememberMe bool) (*dto.TokenResponse, error) {
	companyID := derefString(user.CompanyID)

	accessToken, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.Role, companyID)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	refreshToken, err := s.jwtMgr.GenerateRefreshToken(user.UserID, user.Role, companyID, rememberMe)
	if err != nil {
		s.logger.Error("生成 RefreshToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.jwtMgr.AccessTokenTTL(),
		User:         *toUserResponse(user),
	}, nil
}

// ────────────────────── Register ──────────────────────

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.repo.User.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("检查邮箱失败", zap.Error(err))
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	var user *model.User
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		// 行级锁防止同一邀请码被并发使用
		invite, err := tx.InviteCode.GetByCodeForUpdate(ctx, req.InviteCode)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInviteNotFound
			}
			return err
		}
		if invite.IsUsed() {
			return ErrInviteUsed
		}
		if invite.IsExpired(time.Now()) {
			return ErrInviteExpired
		}

		user = &model.User{
			Name:         strings.TrimSpace(req.Name),
			Email:        email,
			PasswordHash: string(hash),
			Role:         invite.Role,
			CompanyID:    invite.CompanyID,
		}
		if err := tx.User.Create(ctx, user); err != nil {
			return err
		}
		if err := tx.InviteCode.MarkUsed(ctx, invite.InviteCodeID, user.UserID); err != nil {
			if errors.Is(err, pkgerrors.ErrOptimisticLock) {
				return ErrInviteUsed
			}
			return err
		}
		return nil
	})
	if err != nil {
		if !isBusinessError(err) {
			s.logger.Error("注册失败", zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("用户注册成功", zap.String("user_id", user.UserID), zap.String("role", user.Role))

	return &dto.RegisterResponse{
		ID:    user.UserID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}, nil
}

// ────────────────────── RefreshToken ──────────────────────

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil || claims.TokenType != jwt.TokenTypeRefresh {
		return nil, ErrInvalidToken
	}

	if s.tokens != nil {
		revoked, err := s.tokens.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			s.logger.Warn("检查 Token 黑名单失败，降级放行", zap.Error(err))
		} else if revoked {
			return nil, ErrTokenRevoked
		}
	}

	// 重新读取用户，角色或公司变更后立即生效
	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 旧 refresh token 作废，防止重放
	s.revoke(ctx, claims)

	return s.issueTokens(user, claims.RememberMe)
}

// ────────────────────── Logout ──────────────────────

func (s *authService) Logout(ctx context.Context, accessClaims *jwt.Claims, refreshToken string) error {
	if accessClaims != nil {
		s.revoke(ctx, accessClaims)
	}
	if refreshToken != "" {
		if claims, err := s.jwtMgr.ParseToken(refreshToken); err == nil {
			s.revoke(ctx, claims)
		}
	}
	return nil
}

func (s *authService) revoke(ctx context.Context, claims *jwt.Claims) {
	if s.tokens == nil {
		return
	}
	if err := s.tokens.BlacklistToken(ctx, claims.ID, claims.Remaining()); err != nil {
		s.logger.Warn("写入 Token 黑名单失败", zap.String("jti", claims.ID), zap.Error(err))
	}
}

// ────────────────────── Me / ChangePassword ──────────────────────

func (s *authService) Me(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}
	return toUserResponse(user), nil
}

func (s *authService) ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return ErrWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return err
	}

	user.PasswordHash = string(hash)
	user.MustChangePassword = false
	user.MarkUpdatedBy(userID)
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新密码失败", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Invite ──────────────────────

func (s *authService) GenerateInvite(ctx context.Context, caller Caller, req *dto.GenerateInviteRequest) (*dto.InviteResponse, error) {
	companyID := req.CompanyID

	switch caller.Role {
	case model.RoleAdmin:
	case model.RoleCompanyAdmin:
		// company_admin 只能邀请进本公司，且只能授予有限角色
		if !companyAdminGrantable[req.Role] {
			return nil, ErrInviteRoleDenied
		}
		if companyID != "" && companyID != caller.CompanyID {
			return nil, ErrNoPermission
		}
		companyID = caller.CompanyID
	default:
		return nil, ErrNoPermission
	}

	if req.Role != model.RoleAdmin && companyID == "" {
		return nil, ErrInviteCompanyReq
	}
	if req.Role == model.RoleAdmin {
		companyID = ""
	}
	if companyID != "" {
		if _, err := s.repo.Company.GetByID(ctx, companyID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCompanyNotFound
			}
			s.logger.Error("查询公司失败", zap.Error(err))
			return nil, err
		}
	}

	days := req.ExpiresDays
	if days <= 0 {
		days = s.cfg.Portal.InviteTTLDays
	}
	if days <= 0 {
		days = 7
	}

	code, err := generateInviteCode()
	if err != nil {
		s.logger.Error("生成邀请码失败", zap.Error(err))
		return nil, err
	}

	invite := &model.InviteCode{
		Code:      code,
		Role:      req.Role,
		ExpiresAt: time.Now().Add(time.Duration(days) * 24 * time.Hour),
	}
	if companyID != "" {
		invite.CompanyID = &companyID
	}
	invite.MarkCreatedBy(caller.UserID)

	if err := s.repo.InviteCode.Create(ctx, invite); err != nil {
		s.logger.Error("保存邀请码失败", zap.Error(err))
		return nil, err
	}

	return &dto.InviteResponse{
		InviteCode: code,
		InviteURL:  fmt.Sprintf("%s/register?code=%s", strings.TrimRight(s.cfg.Server.BaseURL, "/"), code),
		CompanyID:  companyID,
		Role:       req.Role,
		ExpiresAt:  invite.ExpiresAt.Format(time.RFC3339),
	}, nil
}

func (s *authService) ValidateInvite(ctx context.Context, code string) (*dto.InviteValidateResponse, error) {
	invite, err := s.repo.InviteCode.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteNotFound
		}
		s.logger.Error("查询邀请码失败", zap.Error(err))
		return nil, err
	}
	if invite.IsUsed() {
		return nil, ErrInviteUsed
	}
	if invite.IsExpired(time.Now()) {
		return nil, ErrInviteExpired
	}

	resp := &dto.InviteValidateResponse{
		Valid:     true,
		Role:      invite.Role,
		ExpiresAt: invite.ExpiresAt.Format(time.RFC3339),
	}
	if invite.CompanyID != nil {
		if company, err := s.repo.Company.GetByID(ctx, *invite.CompanyID); err == nil {
			resp.Company = toCompanyBrief(company)
		}
	}
	return resp, nil
}

// ── 内部辅助方法 ──

// generateInviteCode 16 位十六进制随机码
func generateInviteCode() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func toCompanyBrief(c *model.Company) *dto.CompanyBrief {
	if c == nil {
		return nil
	}
	return &dto.CompanyBrief{ID: c.CompanyID, Name: c.Name, Type: c.CompanyType}
}

// toUserResponse 将 model.User 转换为 dto.UserResponse
func toUserResponse(user *model.User) *dto.UserResponse {
	resp := &dto.UserResponse{
		ID:                 user.UserID,
		Name:               user.Name,
		Email:              user.Email,
		Role:               user.Role,
		Company:            toCompanyBrief(user.Company),
		MustChangePassword: user.MustChangePassword,
	}
	if !user.CreatedAt.IsZero() {
		resp.CreatedAt = user.CreatedAt.Format(time.RFC3339)
	}
	return resp
}

// isBusinessError 业务错误无需按基础设施故障记录
func isBusinessError(err error) bool {
	for _, target := range businessErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

var businessErrors = []error{
	ErrInviteNotFound, ErrInviteUsed, ErrInviteExpired,
	ErrNoPermission, ErrApplicationNotFound, ErrTemplateNotFound,
	ErrSubmissionFinal, ErrTemplateLocked, ErrContractorCannotSubmit,
	ErrApplicationLocked, ErrSubmissionInvalid,
}
