package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/kaushikmurali01/semi-portal-sub000/config"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/dto"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/model"
	"github.com/kaushikmurali01/semi-portal-sub000/pkg/jwt"
)

// ── 测试辅助 ──

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{BaseURL: "http://localhost:8080/"},
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret-key-for-unit-testing-2026",
			AccessTokenTTL:          15 * time.Minute,
			RefreshTokenTTLDefault:  24 * time.Hour,
			RefreshTokenTTLRemember: 7 * 24 * time.Hour,
		},
		Portal: config.PortalConfig{
			ContractorRolePrefix: "contractor_",
			InviteTTLDays:        7,
		},
	}
}

func setupTestAuthService() (AuthService, *mockRepos, *mockTokenStore, *jwt.Manager) {
	cfg := testConfig()
	repo, mocks := newMockRepos()
	tokens := newMockTokenStore()
	jwtMgr := jwt.NewManager(&cfg.Auth)
	svc := NewAuthService(cfg, repo, jwtMgr, tokens, zap.NewNop())
	return svc, mocks, tokens, jwtMgr
}

func createTestUser(mocks *mockRepos, id, email, password, role string, companyID *string) *model.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	user := &model.User{
		UserID:       id,
		Name:         "测试用户",
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CompanyID:    companyID,
	}
	mocks.user.users[id] = user
	return user
}

func createTestCompany(mocks *mockRepos, id, name string) *model.Company {
	c := &model.Company{CompanyID: id, Name: name, CompanyType: model.CompanyTypeCompany, IsActive: true}
	c.Version = 1
	mocks.company.companies[id] = c
	return c
}

// ── 登录测试 ──

func TestLogin_Success(t *testing.T) {
	svc, mocks, _, _ := setupTestAuthService()
	createTestUser(mocks, "u1", "alice@example.com", "password123", model.RoleCompanyUser, strPtr("c1"))

	result, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "alice@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Login 应成功，但返回错误: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Error("Token 不应为空")
	}
	if result.ExpiresIn != 900 {
		t.Errorf("期望 ExpiresIn=900，实际=%d", result.ExpiresIn)
	}
	if result.User.Role != model.RoleCompanyUser {
		t.Errorf("期望 Role=company_user，实际=%s", result.User.Role)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, mocks, _, _ := setupTestAuthService()
	createTestUser(mocks, "u1", "alice@example.com", "password123", model.RoleCompanyUser, strPtr("c1"))

	_, err := svc.Login(context.Background(), &dto.LoginRequest{Email: "alice@example.com", Password: "nope"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望 ErrInvalidCredentials，实际: %v", err)
	}
}

func TestLogin_UserNotFound(t *testing.T) {
	svc, _, _, _ := setupTestAuthService()

	_, err := svc.Login(context.Background(), &dto.LoginRequest{Email: "ghost@example.com", Password: "password123"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望 ErrInvalidCredentials，实际: %v", err)
	}
}

// ── 注册测试 ──

func TestRegister_UsesInviteRoleAndCompany(t *testing.T) {
	svc, mocks, _, _ := setupTestAuthService()
	mocks.invite.codes["CODE1"] = &model.InviteCode{
		InviteCodeID: "invite-1",
		Code:         "CODE1",
		CompanyID:    strPtr("c1"),
		Role:         model.RoleContractorAdmin,
		ExpiresAt:    time.Now().Add(24 * time.Hour),
	}

	result, err := svc.Register(context.Background(), &dto.RegisterRequest{
		InviteCode: "CODE1",
		Name:       "新用户",
		Email:      "New@Example.com",
		Password:   "password123",
	})
	if err != nil {
		t.Fatalf("Register 应成功: %v", err)
	}
	if result.Role != model.RoleContractorAdmin {
		t.Errorf("期望角色来自邀请码，实际=%s", result.Role)
	}
	if result.Email != "new@example.com" {
		t.Errorf("邮箱应规范为小写，实际=%s", result.Email)
	}
	user := mocks.user.users[result.ID]
	if user.CompanyID == nil || *user.CompanyID != "c1" {
		t.Error("用户应归属邀请码中的公司")
	}
	if mocks.invite.codes["CODE1"].UsedAt == nil {
		t.Error("邀请码应被标记为已使用")
	}
}

func TestRegister_InviteErrors(t *testing.T) {
	svc, mocks, _, _ := setupTestAuthService()
	used := time.Now()
	mocks.invite.codes["EXPIRED"] = &model.InviteCode{InviteCodeID: "i1", Code: "EXPIRED", Role: model.RoleCompanyUser, ExpiresAt: time.Now().Add(-time.Hour)}
	mocks.invite.codes["USED"] = &model.InviteCode{InviteCodeID: "i2", Code: "USED", Role: model.RoleCompanyUser, ExpiresAt: time.Now().Add(time.Hour), UsedAt: &used}

	cases := map[string]error{
		"MISSING": ErrInviteNotFound,
		"EXPIRED": ErrInviteExpired,
		"USED":    ErrInviteUsed,
	}
	for code, want := range cases {
		_, err := svc.Register(context.Background(), &dto.RegisterRequest{
			InviteCode: code, Name: "新用户", Email: code + "@example.com", Password: "password123",
		})
		if !errors.Is(err, want) {
			t.Errorf("%s: 期望 %v，实际: %v", code, want, err)
		}
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, mocks, _, _ := setupTestAuthService()
	createTestUser(mocks, "u1", "alice@example.com", "password123", model.RoleCompanyUser, strPtr("c1"))
	mocks.invite.codes["CODE1"] = &model.InviteCode{InviteCodeID: "i1", Code: "CODE1", Role: model.RoleCompanyUser, ExpiresAt: time.Now().Add(time.Hour)}

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{
		InviteCode: "CODE1", Name: "新用户", Email: "ALICE@example.com", Password: "password123",
	})
	if !errors.Is(err, ErrEmailExists) {
		t.Errorf("期望 ErrEmailExists，实际: %v", err)
	}
	if mocks.invite.codes["CODE1"].UsedAt != nil {
		t.Error("注册失败时邀请码不应被使用")
	}
}

// ── Token 刷新与登出 ──

func TestRefreshToken_RotatesAndRevokesOld(t *testing.T) {
	svc, mocks, tokens, jwtMgr := setupTestAuthService()
	createTestUser(mocks, "u1", "alice@example.com", "password123", model.RoleCompanyUser, strPtr("c1"))

	refresh, _ := jwtMgr.GenerateRefreshToken("u1", model.RoleCompanyUser, "c1", false)
	result, err := svc.RefreshToken(context.Background(), refresh)
	if err != nil {
		t.Fatalf("RefreshToken 应成功: %v", err)
	}
	if result.AccessToken == "" {
		t.Error("AccessToken 不应为空")
	}
	if len(tokens.revoked) != 1 {
		t.Errorf("旧 refresh token 应进入黑名单，实际数量=%d", len(tokens.revoked))
	}

	if _, err := svc.RefreshToken(context.Background(), refresh); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("重放旧 token 期望 ErrTokenRevoked，实际: %v", err)
	}
}

func TestRefreshToken_AccessTokenRejected(t *testing.T) {
	svc, mocks, _, jwtMgr := setupTestAuthService()
	createTestUser(mocks, "u1", "alice@example.com", "password123", model.RoleCompanyUser, strPtr("c1"))

	access, _ := jwtMgr.GenerateAccessToken("u1", model.RoleCompanyUser, "c1")
	if _, err := svc.RefreshToken(context.Background(), access); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("期望 ErrInvalidToken，实际: %v", err)
	}
	if _, err := svc.RefreshToken(context.Background(), "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("期望 ErrInvalidToken，实际: %v", err)
	}
}

func TestLogout_BlacklistsBothTokens(t *testing.T) {
	svc, _, tokens, jwtMgr := setupTestAuthService()

	access, _ := jwtMgr.GenerateAccessToken("u1", model.RoleCompanyUser, "c1")
	refresh, _ := jwtMgr.GenerateRefreshToken("u1", model.RoleCompanyUser, "c1", true)
	claims, err := jwtMgr.ParseToken(access)
	if err != nil {
		t.Fatalf("解析 access token 失败: %v", err)
	}

	if err := svc.Logout(context.Background(), claims, refresh); err != nil {
		t.Fatalf("Logout 应成功: %v", err)
	}
	if len(tokens.revoked) != 2 {
		t.Errorf("期望 2 个 jti 进入黑名单，实际=%d", len(tokens.revoked))
	}
	if ttl := tokens.revoked[claims.ID]; ttl <= 0 || ttl > 15*time.Minute {
		t.Errorf("黑名单 TTL 应为剩余有效期，实际=%v", ttl)
	}
}

// ── 邀请码 ──

func TestGenerateInvite_CompanyAdminScope(t *testing.T) {
	svc, mocks, _, _ := setupTestAuthService()
	createTestCompany(mocks, "c1", "Acme")
	createTestCompany(mocks, "c2", "Other")
	caller := Caller{UserID: "u1", Role: model.RoleCompanyAdmin, CompanyID: "c1"}

	resp, err := svc.GenerateInvite(context.Background(), caller, &dto.GenerateInviteRequest{Role: model.RoleContractorTeamMember})
	if err != nil {
		t.Fatalf("GenerateInvite 应成功: %v", err)
	}
	if resp.CompanyID != "c1" {
		t.Errorf("期望邀请进本公司，实际=%s", resp.CompanyID)
	}
	if !strings.HasPrefix(resp.InviteURL, "http://localhost:8080/register?code=") {
		t.Errorf("InviteURL 格式错误: %s", resp.InviteURL)
	}

	_, err = svc.GenerateInvite(context.Background(), caller, &dto.GenerateInviteRequest{Role: model.RoleCompanyAdmin})
	if !errors.Is(err, ErrInviteRoleDenied) {
		t.Errorf("期望 ErrInviteRoleDenied，实际: %v", err)
	}

	_, err = svc.GenerateInvite(context.Background(), caller, &dto.GenerateInviteRequest{CompanyID: "c2", Role: model.RoleCompanyUser})
	if !errors.Is(err, ErrNoPermission) {
		t.Errorf("期望 ErrNoPermission，实际: %v", err)
	}
}

func TestGenerateInvite_AdminRules(t *testing.T) {
	svc, mocks, _, _ := setupTestAuthService()
	createTestCompany(mocks, "c1", "Acme")
	admin := Caller{UserID: "root", Role: model.RoleAdmin}

	if _, err := svc.GenerateInvite(context.Background(), admin, &dto.GenerateInviteRequest{Role: model.RoleCompanyUser}); !errors.Is(err, ErrInviteCompanyReq) {
		t.Errorf("期望 ErrInviteCompanyReq，实际: %v", err)
	}
	if _, err := svc.GenerateInvite(context.Background(), admin, &dto.GenerateInviteRequest{CompanyID: "missing", Role: model.RoleCompanyUser}); !errors.Is(err, ErrCompanyNotFound) {
		t.Errorf("期望 ErrCompanyNotFound，实际: %v", err)
	}

	resp, err := svc.GenerateInvite(context.Background(), admin, &dto.GenerateInviteRequest{CompanyID: "c1", Role: model.RoleAdmin, ExpiresDays: 3})
	if err != nil {
		t.Fatalf("GenerateInvite 应成功: %v", err)
	}
	if resp.CompanyID != "" {
		t.Error("管理员邀请不应绑定公司")
	}

	member := Caller{UserID: "u2", Role: model.RoleCompanyUser, CompanyID: "c1"}
	if _, err := svc.GenerateInvite(context.Background(), member, &dto.GenerateInviteRequest{Role: model.RoleCompanyUser}); !errors.Is(err, ErrNoPermission) {
		t.Errorf("普通成员期望 ErrNoPermission，实际: %v", err)
	}
}

func TestValidateInvite(t *testing.T) {
	svc, mocks, _, _ := setupTestAuthService()
	createTestCompany(mocks, "c1", "Acme")
	mocks.invite.codes["OK"] = &model.InviteCode{InviteCodeID: "i1", Code: "OK", CompanyID: strPtr("c1"), Role: model.RoleCompanyUser, ExpiresAt: time.Now().Add(time.Hour)}
	mocks.invite.codes["OLD"] = &model.InviteCode{InviteCodeID: "i2", Code: "OLD", Role: model.RoleCompanyUser, ExpiresAt: time.Now().Add(-time.Hour)}

	resp, err := svc.ValidateInvite(context.Background(), "OK")
	if err != nil {
		t.Fatalf("ValidateInvite 应成功: %v", err)
	}
	if !resp.Valid || resp.Company == nil || resp.Company.Name != "Acme" {
		t.Errorf("邀请码信息不完整: %+v", resp)
	}
	if _, err := svc.ValidateInvite(context.Background(), "OLD"); !errors.Is(err, ErrInviteExpired) {
		t.Errorf("期望 ErrInviteExpired，实际: %v", err)
	}
}

// ── 密码 ──

func TestChangePassword(t *testing.T) {
	svc, mocks, _, _ := setupTestAuthService()
	user := createTestUser(mocks, "u1", "alice@example.com", "password123", model.RoleCompanyUser, strPtr("c1"))
	user.MustChangePassword = true

	err := svc.ChangePassword(context.Background(), "u1", &dto.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "newpassword1"})
	if !errors.Is(err, ErrWrongPassword) {
		t.Errorf("期望 ErrWrongPassword，实际: %v", err)
	}

	err = svc.ChangePassword(context.Background(), "u1", &dto.ChangePasswordRequest{OldPassword: "password123", NewPassword: "newpassword1"})
	if err != nil {
		t.Fatalf("ChangePassword 应成功: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("newpassword1")) != nil {
		t.Error("新密码未生效")
	}
	if user.MustChangePassword {
		t.Error("修改密码后应清除 MustChangePassword")
	}
}

func TestMe_NotFound(t *testing.T) {
	svc, _, _, _ := setupTestAuthService()
	if _, err := svc.Me(context.Background(), "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}
