package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/kaushikmurali01/semi-portal-sub000/internal/dto"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/model"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/naics"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/repository"
)

// ErrNAICSCatalogEmpty 目录尚未导入
var ErrNAICSCatalogEmpty = errors.New("NAICS catalog is empty")

// NAICSService 设施分类目录
//
// 目录持久化在 naics_codes 表中，启动时加载到内存；重新导入工作簿后整体替换。
type NAICSService interface {
	Load(ctx context.Context) error
	Import(ctx context.Context, r io.Reader) (*dto.NAICSImportResponse, error)
	ImportFile(ctx context.Context, path string) (*dto.NAICSImportResponse, error)

	Sectors() ([]dto.NAICSCodeResponse, error)
	Categories(sector string) ([]dto.NAICSCodeResponse, error)
	Types(category string) ([]dto.NAICSCodeResponse, error)
	Describe(code string) dto.NAICSDescribeResponse
	Validate(req *dto.NAICSValidateRequest) (string, error)
	IsFacilityType(code string) bool
}

type naicsService struct {
	repo    *repository.Repository
	logger  *zap.Logger
	mu      sync.RWMutex
	catalog *naics.Catalog
}

// NewNAICSService 创建 NAICSService 实例，初始目录为空
func NewNAICSService(repo *repository.Repository, logger *zap.Logger) NAICSService {
	return &naicsService{repo: repo, logger: logger, catalog: naics.NewCatalog(nil)}
}

func (s *naicsService) Load(ctx context.Context) error {
	rows, err := s.repo.NAICS.ListAll(ctx)
	if err != nil {
		s.logger.Error("加载 NAICS 目录失败", zap.Error(err))
		return err
	}
	codes := make([]naics.Code, 0, len(rows))
	for _, r := range rows {
		codes = append(codes, naics.Code{Code: r.Code, Title: r.Title, Level: r.Level, Parent: r.Parent})
	}
	s.swap(naics.NewCatalog(codes))
	s.logger.Info("NAICS 目录已加载", zap.Int("count", len(codes)))
	return nil
}

func (s *naicsService) Import(ctx context.Context, r io.Reader) (*dto.NAICSImportResponse, error) {
	codes, err := naics.ParseWorkbook(r)
	if err != nil {
		s.logger.Warn("解析 NAICS 工作簿失败", zap.Error(err))
		return nil, err
	}

	rows := make([]model.NAICSCode, 0, len(codes))
	for _, c := range codes {
		rows = append(rows, model.NAICSCode{Code: c.Code, Title: c.Title, Level: c.Level, Parent: c.Parent})
	}
	if err := s.repo.NAICS.ReplaceAll(ctx, rows); err != nil {
		s.logger.Error("保存 NAICS 目录失败", zap.Error(err))
		return nil, err
	}

	cat := naics.NewCatalog(codes)
	s.swap(cat)

	resp := &dto.NAICSImportResponse{
		Sectors:    len(cat.Sectors()),
		Categories: countLevel(codes, naics.LevelCategory),
		Types:      countLevel(codes, naics.LevelType),
	}
	s.logger.Info("NAICS 目录已导入",
		zap.Int("sectors", resp.Sectors),
		zap.Int("categories", resp.Categories),
		zap.Int("types", resp.Types),
	)
	return resp, nil
}

func (s *naicsService) ImportFile(ctx context.Context, path string) (*dto.NAICSImportResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开 NAICS 工作簿失败: %w", err)
	}
	defer f.Close()
	return s.Import(ctx, f)
}

func (s *naicsService) Sectors() ([]dto.NAICSCodeResponse, error) {
	cat, err := s.current()
	if err != nil {
		return nil, err
	}
	return toNAICSResponses(cat.Sectors()), nil
}

func (s *naicsService) Categories(sector string) ([]dto.NAICSCodeResponse, error) {
	cat, err := s.current()
	if err != nil {
		return nil, err
	}
	return toNAICSResponses(cat.CategoriesBySector(sector)), nil
}

func (s *naicsService) Types(category string) ([]dto.NAICSCodeResponse, error) {
	cat, err := s.current()
	if err != nil {
		return nil, err
	}
	return toNAICSResponses(cat.TypesByCategory(category)), nil
}

func (s *naicsService) Describe(code string) dto.NAICSDescribeResponse {
	s.mu.RLock()
	cat := s.catalog
	s.mu.RUnlock()

	desc := cat.Describe(code)
	return dto.NAICSDescribeResponse{
		Code:        code,
		Description: desc,
		Known:       desc != naics.UnknownDescription,
	}
}

func (s *naicsService) Validate(req *dto.NAICSValidateRequest) (string, error) {
	cat, err := s.current()
	if err != nil {
		return "", err
	}
	return cat.Validate(req.Sector, req.Category, req.Type)
}

func (s *naicsService) IsFacilityType(code string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog.IsFacilityType(code)
}

func (s *naicsService) current() (*naics.Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.catalog.Len() == 0 {
		return nil, ErrNAICSCatalogEmpty
	}
	return s.catalog, nil
}

func (s *naicsService) swap(cat *naics.Catalog) {
	s.mu.Lock()
	s.catalog = cat
	s.mu.Unlock()
}

func countLevel(codes []naics.Code, level int) int {
	n := 0
	for _, c := range codes {
		if c.Level == level {
			n++
		}
	}
	return n
}

func toNAICSResponses(codes []naics.Code) []dto.NAICSCodeResponse {
	out := make([]dto.NAICSCodeResponse, 0, len(codes))
	for _, c := range codes {
		out = append(out, dto.NAICSCodeResponse{Code: c.Code, Title: c.Title, Level: c.Level, Parent: c.Parent})
	}
	return out
}
