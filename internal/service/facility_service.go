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

// ── 设施模块业务错误 ──

var (
	ErrFacilityNotFound        = errors.New("facility not found")
	ErrInvalidNAICSCode        = errors.New("naics_code is not a known facility type")
	ErrFacilityCompanyRequired = errors.New("company_id is required to create a facility")
)

// FacilityService 设施业务接口
type FacilityService interface {
	Create(ctx context.Context, caller Caller, req *dto.CreateFacilityRequest) (*dto.FacilityResponse, error)
	GetByID(ctx context.Context, caller Caller, id string) (*dto.FacilityResponse, error)
	List(ctx context.Context, caller Caller, companyID string) ([]dto.FacilityResponse, error)
	Update(ctx context.Context, caller Caller, id string, req *dto.UpdateFacilityRequest) (*dto.FacilityResponse, error)
	Delete(ctx context.Context, caller Caller, id string) error
}

type facilityService struct {
	repo   *repository.Repository
	naics  NAICSService
	logger *zap.Logger
}

// NewFacilityService 创建 FacilityService 实例
func NewFacilityService(repo *repository.Repository, naicsSvc NAICSService, logger *zap.Logger) FacilityService {
	return &facilityService{repo: repo, naics: naicsSvc, logger: logger}
}

// canManage 管理员或本公司的公司管理员
func canManage(caller Caller, companyID string) bool {
	return caller.IsAdmin() || (caller.Role == model.RoleCompanyAdmin && caller.CompanyID == companyID)
}

func (s *facilityService) Create(ctx context.Context, caller Caller, req *dto.CreateFacilityRequest) (*dto.FacilityResponse, error) {
	companyID := req.CompanyID
	if !caller.IsAdmin() {
		companyID = caller.CompanyID
	}
	if companyID == "" {
		return nil, ErrFacilityCompanyRequired
	}
	if !canManage(caller, companyID) {
		return nil, ErrNoPermission
	}

	company, err := s.repo.Company.GetByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, err
	}

	if err := s.checkNAICS(req.NAICSCode); err != nil {
		return nil, err
	}

	facility := &model.Facility{
		CompanyID: companyID,
		Name:      strings.TrimSpace(req.Name),
		Address:   strings.TrimSpace(req.Address),
		NAICSCode: req.NAICSCode,
		IsActive:  true,
	}
	facility.MarkCreatedBy(caller.UserID)

	if err := s.repo.Facility.Create(ctx, facility); err != nil {
		s.logger.Error("创建设施失败", zap.Error(err))
		return nil, err
	}
	facility.Company = company

	s.logger.Info("设施已创建",
		zap.String("facility_id", facility.FacilityID),
		zap.String("company_id", companyID),
		zap.String("naics_code", facility.NAICSCode),
	)
	return s.toResponse(facility), nil
}

func (s *facilityService) GetByID(ctx context.Context, caller Caller, id string) (*dto.FacilityResponse, error) {
	facility, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.CanAccessCompany(facility.CompanyID) {
		return nil, ErrNoPermission
	}
	return s.toResponse(facility), nil
}

func (s *facilityService) List(ctx context.Context, caller Caller, companyID string) ([]dto.FacilityResponse, error) {
	if !caller.IsAdmin() {
		companyID = caller.CompanyID
		if companyID == "" {
			return []dto.FacilityResponse{}, nil
		}
	}

	facilities, err := s.repo.Facility.ListByCompany(ctx, companyID)
	if err != nil {
		s.logger.Error("列出设施失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.FacilityResponse, 0, len(facilities))
	for i := range facilities {
		result = append(result, *s.toResponse(&facilities[i]))
	}
	return result, nil
}

func (s *facilityService) Update(ctx context.Context, caller Caller, id string, req *dto.UpdateFacilityRequest) (*dto.FacilityResponse, error) {
	facility, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(caller, facility.CompanyID) {
		return nil, ErrNoPermission
	}

	if req.Name != nil {
		facility.Name = strings.TrimSpace(*req.Name)
	}
	if req.Address != nil {
		facility.Address = strings.TrimSpace(*req.Address)
	}
	if req.NAICSCode != nil && *req.NAICSCode != facility.NAICSCode {
		if err := s.checkNAICS(*req.NAICSCode); err != nil {
			return nil, err
		}
		facility.NAICSCode = *req.NAICSCode
	}
	if req.IsActive != nil {
		facility.IsActive = *req.IsActive
	}
	facility.MarkUpdatedBy(caller.UserID)

	if err := s.repo.Facility.Update(ctx, facility); err != nil {
		s.logger.Error("更新设施失败", zap.String("facility_id", id), zap.Error(err))
		return nil, err
	}
	return s.toResponse(facility), nil
}

func (s *facilityService) Delete(ctx context.Context, caller Caller, id string) error {
	facility, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(caller, facility.CompanyID) {
		return ErrNoPermission
	}
	if err := s.repo.Facility.Delete(ctx, id, caller.UserID); err != nil {
		s.logger.Error("删除设施失败", zap.String("facility_id", id), zap.Error(err))
		return err
	}
	return nil
}

// checkNAICS 设施只能挂在 6 位设施类型代码下
func (s *facilityService) checkNAICS(code string) error {
	if s.naics.IsFacilityType(code) {
		return nil
	}
	if _, err := s.naics.Sectors(); errors.Is(err, ErrNAICSCatalogEmpty) {
		return ErrNAICSCatalogEmpty
	}
	return ErrInvalidNAICSCode
}

func (s *facilityService) get(ctx context.Context, id string) (*model.Facility, error) {
	facility, err := s.repo.Facility.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFacilityNotFound
		}
		s.logger.Error("查询设施失败", zap.String("facility_id", id), zap.Error(err))
		return nil, err
	}
	return facility, nil
}

func (s *facilityService) toResponse(f *model.Facility) *dto.FacilityResponse {
	return &dto.FacilityResponse{
		ID:               f.FacilityID,
		Name:             f.Name,
		Address:          f.Address,
		NAICSCode:        f.NAICSCode,
		NAICSDescription: s.naics.Describe(f.NAICSCode).Description,
		IsActive:         f.IsActive,
		Company:          toCompanyBrief(f.Company),
		CreatedAt:        f.CreatedAt.Format(time.RFC3339),
	}
}
