package service

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/kaushikmurali01/semi-portal-sub000/internal/dto"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/model"
)

var (
	hasLetter = regexp.MustCompile(`[a-zA-Z]`)
	hasDigit  = regexp.MustCompile(`[0-9]`)
)

// ── 测试辅助 ──

func setupTestUserService() (UserService, *mockRepos) {
	repo, mocks := newMockRepos()
	return NewUserService(repo, zap.NewNop()), mocks
}

var testAdmin = Caller{UserID: "admin-1", Role: model.RoleAdmin}

func seedUsers(mocks *mockRepos) {
	createTestUser(mocks, "admin-1", "admin@example.com", "password123", model.RoleAdmin, nil)
	createTestUser(mocks, "u1", "alice@example.com", "password123", model.RoleCompanyAdmin, strPtr("c1"))
	createTestUser(mocks, "u2", "bob@example.com", "password123", model.RoleCompanyUser, strPtr("c1"))
	createTestUser(mocks, "u3", "carol@example.com", "password123", model.RoleContractorAdmin, strPtr("c2"))
	mocks.user.users["u2"].Name = "Bob Builder"
}

// ── GetByID ──

func TestUserService_GetByID_SelfOrAdmin(t *testing.T) {
	svc, mocks := setupTestUserService()
	seedUsers(mocks)

	if _, err := svc.GetByID(context.Background(), testAdmin, "u2"); err != nil {
		t.Fatalf("管理员读取应成功: %v", err)
	}
	self := Caller{UserID: "u2", Role: model.RoleCompanyUser, CompanyID: "c1"}
	if _, err := svc.GetByID(context.Background(), self, "u2"); err != nil {
		t.Fatalf("读取自己应成功: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), self, "u1"); !errors.Is(err, ErrNoPermission) {
		t.Errorf("读取他人期望 ErrNoPermission，实际: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), testAdmin, "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}

// ── List ──

func TestUserService_List_Filters(t *testing.T) {
	svc, mocks := setupTestUserService()
	seedUsers(mocks)

	users, total, err := svc.List(context.Background(), &dto.UserListRequest{CompanyID: "c1"})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if total != 2 || len(users) != 2 {
		t.Errorf("期望公司 c1 下 2 人，实际 total=%d len=%d", total, len(users))
	}

	users, _, _ = svc.List(context.Background(), &dto.UserListRequest{Role: model.RoleContractorAdmin})
	if len(users) != 1 || users[0].ID != "u3" {
		t.Errorf("按角色筛选结果错误: %+v", users)
	}

	users, _, _ = svc.List(context.Background(), &dto.UserListRequest{Keyword: " Builder "})
	if len(users) != 1 || users[0].ID != "u2" {
		t.Errorf("按关键字筛选结果错误: %+v", users)
	}
}

// ── Update ──

func TestUserService_Update(t *testing.T) {
	svc, mocks := setupTestUserService()
	seedUsers(mocks)
	self := Caller{UserID: "u2", Role: model.RoleCompanyUser, CompanyID: "c1"}

	name := "Robert"
	resp, err := svc.Update(context.Background(), self, "u2", &dto.UpdateUserRequest{Name: &name})
	if err != nil {
		t.Fatalf("更新自己应成功: %v", err)
	}
	if resp.Name != "Robert" {
		t.Errorf("期望 Name=Robert，实际=%s", resp.Name)
	}

	if _, err := svc.Update(context.Background(), self, "u1", &dto.UpdateUserRequest{Name: &name}); !errors.Is(err, ErrNoPermission) {
		t.Errorf("更新他人期望 ErrNoPermission，实际: %v", err)
	}

	taken := "Alice@Example.com"
	if _, err := svc.Update(context.Background(), self, "u2", &dto.UpdateUserRequest{Email: &taken}); !errors.Is(err, ErrEmailExists) {
		t.Errorf("期望 ErrEmailExists，实际: %v", err)
	}
}

// ── Delete / AssignRole ──

func TestUserService_Delete(t *testing.T) {
	svc, mocks := setupTestUserService()
	seedUsers(mocks)

	if err := svc.Delete(context.Background(), testAdmin, "admin-1"); !errors.Is(err, ErrUserSelfDelete) {
		t.Errorf("期望 ErrUserSelfDelete，实际: %v", err)
	}
	if err := svc.Delete(context.Background(), testAdmin, "u2"); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if _, ok := mocks.user.users["u2"]; ok {
		t.Error("用户应被删除")
	}
	if err := svc.Delete(context.Background(), testAdmin, "u2"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}

func TestUserService_AssignRole(t *testing.T) {
	svc, mocks := setupTestUserService()
	seedUsers(mocks)
	createTestUser(mocks, "u4", "dave@example.com", "password123", model.RoleAdmin, nil)

	if err := svc.AssignRole(context.Background(), testAdmin, "admin-1", &dto.AssignRoleRequest{Role: model.RoleCompanyUser}); !errors.Is(err, ErrUserSelfRoleChange) {
		t.Errorf("期望 ErrUserSelfRoleChange，实际: %v", err)
	}
	if err := svc.AssignRole(context.Background(), testAdmin, "u4", &dto.AssignRoleRequest{Role: model.RoleCompanyUser}); !errors.Is(err, ErrInviteCompanyReq) {
		t.Errorf("无公司用户期望 ErrInviteCompanyReq，实际: %v", err)
	}
	if err := svc.AssignRole(context.Background(), testAdmin, "u2", &dto.AssignRoleRequest{Role: model.RoleCompanyAdmin}); err != nil {
		t.Fatalf("AssignRole 应成功: %v", err)
	}
	if mocks.user.users["u2"].Role != model.RoleCompanyAdmin {
		t.Error("角色未更新")
	}
}

// ── ResetPassword ──

func TestUserService_ResetPassword(t *testing.T) {
	svc, mocks := setupTestUserService()
	seedUsers(mocks)

	resp, err := svc.ResetPassword(context.Background(), testAdmin, "u2")
	if err != nil {
		t.Fatalf("ResetPassword 应成功: %v", err)
	}
	user := mocks.user.users["u2"]
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(resp.TempPassword)) != nil {
		t.Error("临时密码应可登录")
	}
	if !user.MustChangePassword {
		t.Error("重置后应要求修改密码")
	}
	if _, err := svc.ResetPassword(context.Background(), testAdmin, "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}

func TestGenerateTempPassword(t *testing.T) {
	for i := 0; i < 20; i++ {
		pwd, err := generateTempPassword(8)
		if err != nil {
			t.Fatalf("generateTempPassword 应成功: %v", err)
		}
		if len(pwd) != 8 {
			t.Errorf("期望长度=8，实际=%d", len(pwd))
		}
		if !hasLetter.MatchString(pwd) {
			t.Errorf("临时密码 %q 应包含字母", pwd)
		}
		if !hasDigit.MatchString(pwd) {
			t.Errorf("临时密码 %q 应包含数字", pwd)
		}
	}
}
