package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/kaushikmurali01/semi-portal-sub000/internal/dto"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoApplications = errors.New("no applications match the filters")
	ErrExportGenerateFail   = errors.New("failed to generate the spreadsheet")
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置响应头后写入。
type ExportService interface {
	// ExportApplications 每个申请一行，附带计算后的进度与标签
	ExportApplications(ctx context.Context, req *dto.ApplicationListRequest) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo      *repository.Repository
	evaluator *progressEvaluator
	logger    *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, evaluator *progressEvaluator, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, evaluator: evaluator, logger: logger}
}

// exportHeaders 列顺序与写入顺序一致
var exportHeaders = []string{
	"Application Code", "Company", "Facility", "Activity Type",
	"Status", "Progress %", "Label", "Created", "Updated",
}

const exportSheet = "Applications"

func (s *exportService) ExportApplications(ctx context.Context, req *dto.ApplicationListRequest) (*bytes.Buffer, string, error) {
	apps, err := s.repo.Application.ListAll(ctx, &repository.ApplicationListFilters{
		Status:       req.Status,
		ActivityType: req.ActivityType,
		CompanyID:    req.CompanyID,
	})
	if err != nil {
		s.logger.Error("查询待导出申请失败", zap.Error(err))
		return nil, "", err
	}
	if len(apps) == 0 {
		return nil, "", ErrExportNoApplications
	}

	reports, err := s.evaluator.ReportsFor(ctx, apps)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, "", ErrExportGenerateFail
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	for i, h := range exportHeaders {
		f.SetCellValue(exportSheet, cell(colName(i), 1), h)
	}
	f.SetCellStyle(exportSheet, "A1", cell(colName(len(exportHeaders)-1), 1), headerStyle)
	f.SetColWidth(exportSheet, "A", "A", 20)
	f.SetColWidth(exportSheet, "B", "C", 28)
	f.SetColWidth(exportSheet, "D", "F", 14)
	f.SetColWidth(exportSheet, "G", "G", 24)
	f.SetColWidth(exportSheet, "H", "I", 22)

	row := 2
	for _, app := range apps {
		report := reports[app.ID]
		company, facility := "", ""
		if app.Company != nil {
			company = app.Company.Name
		}
		if app.Facility != nil {
			facility = app.Facility.Name
		}

		values := []interface{}{
			app.ApplicationCode,
			company,
			facility,
			app.ActivityType,
			app.Status,
			report.Progress.Percentage,
			report.Status.Label,
			app.CreatedAt.Format(time.RFC3339),
			app.UpdatedAt.Format(time.RFC3339),
		}
		if err := f.SetSheetRow(exportSheet, cell("A", row), &values); err != nil {
			s.logger.Error("写入导出行失败", zap.Int("row", row), zap.Error(err))
			return nil, "", ErrExportGenerateFail
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("applications_%s.xlsx", time.Now().Format("20060102"))
	s.logger.Info("申请已导出", zap.Int("count", len(apps)))
	return buf, filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
