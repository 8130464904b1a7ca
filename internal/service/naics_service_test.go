package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/kaushikmurali01/semi-portal-sub000/internal/dto"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/model"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/naics"
)

// naicsWorkbook 生成包含制造业与农业的最小结构表
func naicsWorkbook(t *testing.T) *bytes.Buffer {
	t.Helper()
	rows := [][]interface{}{
		{"Code", "Title"},
		{"11", "Agriculture, Forestry, Fishing and HuntingT"},
		{"111", "Crop ProductionT"},
		{"111110", "Soybean Farming"},
		{"31-33", "ManufacturingT"},
		{"311", "Food ManufacturingT"},
		{"311111", "Dog and Cat Food Manufacturing"},
		{"42", "Wholesale TradeT"},
	}
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		ref, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", ref, &row); err != nil {
			t.Fatal(err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf
}

func setupTestNAICSService(t *testing.T) (NAICSService, *mockRepos) {
	t.Helper()
	repo, mocks := newMockRepos()
	svc := NewNAICSService(repo, zap.NewNop())
	if _, err := svc.Import(context.Background(), naicsWorkbook(t)); err != nil {
		t.Fatalf("导入 NAICS 工作簿失败: %v", err)
	}
	return svc, mocks
}

func TestNAICSService_EmptyCatalog(t *testing.T) {
	repo, _ := newMockRepos()
	svc := NewNAICSService(repo, zap.NewNop())

	if _, err := svc.Sectors(); !errors.Is(err, ErrNAICSCatalogEmpty) {
		t.Errorf("期望 ErrNAICSCatalogEmpty，实际: %v", err)
	}
	if _, err := svc.Validate(&dto.NAICSValidateRequest{Sector: "11", Category: "111", Type: "111110"}); !errors.Is(err, ErrNAICSCatalogEmpty) {
		t.Errorf("期望 ErrNAICSCatalogEmpty，实际: %v", err)
	}
	if d := svc.Describe("111110"); d.Known || d.Description != naics.UnknownDescription {
		t.Errorf("空目录下描述应为未知: %+v", d)
	}
}

func TestNAICSService_Import(t *testing.T) {
	repo, mocks := newMockRepos()
	svc := NewNAICSService(repo, zap.NewNop())

	resp, err := svc.Import(context.Background(), naicsWorkbook(t))
	if err != nil {
		t.Fatalf("Import 应成功: %v", err)
	}
	if resp.Sectors != 2 || resp.Categories != 2 || resp.Types != 2 {
		t.Errorf("导入统计错误: %+v", resp)
	}
	if len(mocks.naics.codes) != 6 {
		t.Errorf("期望持久化 6 条代码，实际=%d", len(mocks.naics.codes))
	}

	if _, err := svc.Import(context.Background(), bytes.NewReader([]byte("garbage"))); !errors.Is(err, naics.ErrWorkbookOpen) {
		t.Errorf("期望 ErrWorkbookOpen，实际: %v", err)
	}
	// 导入失败不影响现有目录
	if sectors, err := svc.Sectors(); err != nil || len(sectors) != 2 {
		t.Errorf("失败的导入不应替换目录: %v %d", err, len(sectors))
	}
}

func TestNAICSService_Lookups(t *testing.T) {
	svc, _ := setupTestNAICSService(t)

	cats, err := svc.Categories(naics.ManufacturingSector)
	if err != nil || len(cats) != 1 || cats[0].Code != "311" {
		t.Errorf("制造业类别错误: %v %+v", err, cats)
	}
	types, err := svc.Types("111")
	if err != nil || len(types) != 1 || types[0].Title != "Soybean Farming" {
		t.Errorf("设施类型错误: %v %+v", err, types)
	}

	code, err := svc.Validate(&dto.NAICSValidateRequest{Sector: "31-33", Category: "311", Type: "311111"})
	if err != nil || code != "311111" {
		t.Errorf("合法组合应通过: %v %s", err, code)
	}
	if _, err := svc.Validate(&dto.NAICSValidateRequest{Sector: "11", Category: "311", Type: "311111"}); !errors.Is(err, naics.ErrInvalidCombination) {
		t.Errorf("期望 ErrInvalidCombination，实际: %v", err)
	}

	d := svc.Describe("311111")
	if !d.Known || d.Description != "Manufacturing > Food Manufacturing > Dog and Cat Food Manufacturing" {
		t.Errorf("描述错误: %+v", d)
	}
	if !svc.IsFacilityType("111110") || svc.IsFacilityType("111") {
		t.Error("只有 6 位代码是设施类型")
	}
}

func TestNAICSService_Load(t *testing.T) {
	repo, mocks := newMockRepos()
	mocks.naics.codes = []model.NAICSCode{
		{Code: "23", Title: "Construction", Level: naics.LevelSector},
		{Code: "236", Title: "Construction of Buildings", Level: naics.LevelCategory, Parent: "23"},
		{Code: "236220", Title: "Commercial Building Construction", Level: naics.LevelType, Parent: "236"},
	}
	svc := NewNAICSService(repo, zap.NewNop())
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load 应成功: %v", err)
	}
	if !svc.IsFacilityType("236220") {
		t.Error("加载后应识别 236220")
	}
	if d := svc.Describe("236220"); d.Description != "Construction > Construction of Buildings > Commercial Building Construction" {
		t.Errorf("描述错误: %s", d.Description)
	}
}
