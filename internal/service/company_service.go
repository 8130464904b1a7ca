package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kaushikmurali01/semi-portal-sub000/internal/dto"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/model"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/repository"
)

// ── 公司模块业务错误 ──

var (
	ErrCompanyNotFound   = errors.New("company not found")
	ErrCompanyNameExists = errors.New("company name already exists")
	ErrCompanyHasUsers   = errors.New("company still has users")
)

// CompanyService 公司业务接口
type CompanyService interface {
	Create(ctx context.Context, caller Caller, req *dto.CreateCompanyRequest) (*dto.CompanyResponse, error)
	GetByID(ctx context.Context, caller Caller, id string) (*dto.CompanyResponse, error)
	List(ctx context.Context, includeInactive bool) ([]dto.CompanyResponse, error)
	Update(ctx context.Context, caller Caller, id string, req *dto.UpdateCompanyRequest) (*dto.CompanyResponse, error)
	Delete(ctx context.Context, caller Caller, id string) error
	ListMembers(ctx context.Context, caller Caller, id string, page *dto.PaginationRequest) ([]dto.UserResponse, int64, error)
}

type companyService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCompanyService 创建 CompanyService 实例
func NewCompanyService(repo *repository.Repository, logger *zap.Logger) CompanyService {
	return &companyService{repo: repo, logger: logger}
}

func (s *companyService) Create(ctx context.Context, caller Caller, req *dto.CreateCompanyRequest) (*dto.CompanyResponse, error) {
	name := strings.TrimSpace(req.Name)
	if _, err := s.repo.Company.GetByName(ctx, name); err == nil {
		return nil, ErrCompanyNameExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("检查公司名称失败", zap.Error(err))
		return nil, err
	}

	companyType := req.CompanyType
	if companyType == "" {
		companyType = model.CompanyTypeCompany
	}

	company := &model.Company{
		Name:           name,
		CompanyType:    companyType,
		BusinessNumber: strings.TrimSpace(req.BusinessNumber),
		IsActive:       true,
	}
	company.MarkCreatedBy(caller.UserID)

	if err := s.repo.Company.Create(ctx, company); err != nil {
		s.logger.Error("创建公司失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("公司已创建", zap.String("company_id", company.CompanyID), zap.String("name", name))
	return toCompanyResponse(company), nil
}

func (s *companyService) GetByID(ctx context.Context, caller Caller, id string) (*dto.CompanyResponse, error) {
	if !caller.CanAccessCompany(id) {
		return nil, ErrNoPermission
	}
	company, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toCompanyResponse(company), nil
}

func (s *companyService) List(ctx context.Context, includeInactive bool) ([]dto.CompanyResponse, error) {
	companies, err := s.repo.Company.List(ctx, includeInactive)
	if err != nil {
		s.logger.Error("列出公司失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.CompanyResponse, 0, len(companies))
	for i := range companies {
		result = append(result, *toCompanyResponse(&companies[i]))
	}
	return result, nil
}

func (s *companyService) Update(ctx context.Context, caller Caller, id string, req *dto.UpdateCompanyRequest) (*dto.CompanyResponse, error) {
	company, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if existing, err := s.repo.Company.GetByName(ctx, name); err == nil && existing.CompanyID != id {
			return nil, ErrCompanyNameExists
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		company.Name = name
	}
	if req.BusinessNumber != nil {
		company.BusinessNumber = strings.TrimSpace(*req.BusinessNumber)
	}
	if req.IsActive != nil {
		company.IsActive = *req.IsActive
	}

	// 以客户端持有的版本号做乐观锁校验
	company.Version = req.Version
	company.MarkUpdatedBy(caller.UserID)

	if err := s.repo.Company.Update(ctx, company); err != nil {
		s.logger.Warn("更新公司失败", zap.String("company_id", id), zap.Error(err))
		return nil, err
	}
	return toCompanyResponse(company), nil
}

func (s *companyService) Delete(ctx context.Context, caller Caller, id string) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}

	count, err := s.repo.User.CountByCompany(ctx, id)
	if err != nil {
		s.logger.Error("统计公司用户失败", zap.Error(err))
		return err
	}
	if count > 0 {
		return ErrCompanyHasUsers
	}

	if err := s.repo.Company.Delete(ctx, id, caller.UserID); err != nil {
		s.logger.Error("删除公司失败", zap.String("company_id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *companyService) ListMembers(ctx context.Context, caller Caller, id string, page *dto.PaginationRequest) ([]dto.UserResponse, int64, error) {
	if !caller.IsAdmin() && !(caller.Role == model.RoleCompanyAdmin && caller.CompanyID == id) {
		return nil, 0, ErrNoPermission
	}
	if _, err := s.get(ctx, id); err != nil {
		return nil, 0, err
	}

	users, total, err := s.repo.User.ListWithFilters(ctx, &repository.UserListFilters{CompanyID: id}, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("列出公司成员失败", zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, *toUserResponse(&users[i]))
	}
	return result, total, nil
}

func (s *companyService) get(ctx context.Context, id string) (*model.Company, error) {
	company, err := s.repo.Company.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCompanyNotFound
		}
		s.logger.Error("查询公司失败", zap.String("company_id", id), zap.Error(err))
		return nil, err
	}
	return company, nil
}

func toCompanyResponse(c *model.Company) *dto.CompanyResponse {
	return &dto.CompanyResponse{
		ID:             c.CompanyID,
		Name:           c.Name,
		CompanyType:    c.CompanyType,
		BusinessNumber: c.BusinessNumber,
		IsActive:       c.IsActive,
		Version:        c.Version,
		CreatedAt:      c.CreatedAt.Format(time.RFC3339),
	}
}
