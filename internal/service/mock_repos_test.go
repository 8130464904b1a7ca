package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kaushikmurali01/semi-portal-sub000/internal/model"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/repository"
	pkgerrors "github.com/kaushikmurali01/semi-portal-sub000/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		m.seq++
		user.UserID = fmt.Sprintf("user-%d", m.seq)
	}
	user.CreatedAt = time.Now()
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) ListWithFilters(_ context.Context, filters *repository.UserListFilters, offset, limit int) ([]model.User, int64, error) {
	var all []model.User
	for _, u := range m.users {
		if filters != nil {
			if filters.CompanyID != "" && (u.CompanyID == nil || *u.CompanyID != filters.CompanyID) {
				continue
			}
			if filters.Role != "" && u.Role != filters.Role {
				continue
			}
			if filters.Keyword != "" && !strings.Contains(u.Name, filters.Keyword) && !strings.Contains(u.Email, filters.Keyword) {
				continue
			}
		}
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UserID < all[j].UserID })

	total := int64(len(all))
	if offset > len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockUserRepo) CountByCompany(_ context.Context, companyID string) (int64, error) {
	var n int64
	for _, u := range m.users {
		if u.CompanyID != nil && *u.CompanyID == companyID {
			n++
		}
	}
	return n, nil
}

// ── Mock CompanyRepository ──

type mockCompanyRepo struct {
	companies map[string]*model.Company
	seq       int
}

func newMockCompanyRepo() *mockCompanyRepo {
	return &mockCompanyRepo{companies: make(map[string]*model.Company)}
}

func (m *mockCompanyRepo) Create(_ context.Context, company *model.Company) error {
	if company.CompanyID == "" {
		m.seq++
		company.CompanyID = fmt.Sprintf("company-%d", m.seq)
	}
	company.Version = 1
	company.CreatedAt = time.Now()
	m.companies[company.CompanyID] = company
	return nil
}

func (m *mockCompanyRepo) GetByID(_ context.Context, id string) (*model.Company, error) {
	if c, ok := m.companies[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCompanyRepo) GetByName(_ context.Context, name string) (*model.Company, error) {
	for _, c := range m.companies {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCompanyRepo) List(_ context.Context, includeInactive bool) ([]model.Company, error) {
	var result []model.Company
	for _, c := range m.companies {
		if includeInactive || c.IsActive {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockCompanyRepo) Update(_ context.Context, company *model.Company) error {
	stored, ok := m.companies[company.CompanyID]
	if !ok || stored.Version != company.Version {
		return pkgerrors.ErrOptimisticLock
	}
	company.Version++
	cp := *company
	m.companies[company.CompanyID] = &cp
	return nil
}

func (m *mockCompanyRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.companies, id)
	return nil
}

// ── Mock InviteCodeRepository ──

type mockInviteCodeRepo struct {
	codes map[string]*model.InviteCode
}

func newMockInviteCodeRepo() *mockInviteCodeRepo {
	return &mockInviteCodeRepo{codes: make(map[string]*model.InviteCode)}
}

func (m *mockInviteCodeRepo) Create(_ context.Context, code *model.InviteCode) error {
	if code.InviteCodeID == "" {
		code.InviteCodeID = "invite-" + code.Code
	}
	m.codes[code.Code] = code
	return nil
}

func (m *mockInviteCodeRepo) GetByCode(_ context.Context, code string) (*model.InviteCode, error) {
	if c, ok := m.codes[code]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockInviteCodeRepo) GetByCodeForUpdate(ctx context.Context, code string) (*model.InviteCode, error) {
	return m.GetByCode(ctx, code)
}

func (m *mockInviteCodeRepo) MarkUsed(_ context.Context, inviteCodeID, userID string) error {
	for _, c := range m.codes {
		if c.InviteCodeID == inviteCodeID && c.UsedAt == nil {
			now := time.Now()
			c.UsedAt = &now
			c.UsedBy = &userID
			return nil
		}
	}
	return pkgerrors.ErrOptimisticLock
}

// ── Mock FacilityRepository ──

type mockFacilityRepo struct {
	facilities map[string]*model.Facility
	seq        int
}

func newMockFacilityRepo() *mockFacilityRepo {
	return &mockFacilityRepo{facilities: make(map[string]*model.Facility)}
}

func (m *mockFacilityRepo) Create(_ context.Context, facility *model.Facility) error {
	if facility.FacilityID == "" {
		m.seq++
		facility.FacilityID = fmt.Sprintf("facility-%d", m.seq)
	}
	facility.CreatedAt = time.Now()
	m.facilities[facility.FacilityID] = facility
	return nil
}

func (m *mockFacilityRepo) GetByID(_ context.Context, id string) (*model.Facility, error) {
	if f, ok := m.facilities[id]; ok {
		return f, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFacilityRepo) ListByCompany(_ context.Context, companyID string) ([]model.Facility, error) {
	var result []model.Facility
	for _, f := range m.facilities {
		if companyID == "" || f.CompanyID == companyID {
			result = append(result, *f)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockFacilityRepo) Update(_ context.Context, facility *model.Facility) error {
	m.facilities[facility.FacilityID] = facility
	return nil
}

func (m *mockFacilityRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.facilities, id)
	return nil
}

// ── Mock FormTemplateRepository ──

type mockFormTemplateRepo struct {
	templates map[string]*model.FormTemplate
	seq       int
}

func newMockFormTemplateRepo() *mockFormTemplateRepo {
	return &mockFormTemplateRepo{templates: make(map[string]*model.FormTemplate)}
}

func (m *mockFormTemplateRepo) Create(_ context.Context, tpl *model.FormTemplate) error {
	if tpl.TemplateID == "" {
		m.seq++
		tpl.TemplateID = fmt.Sprintf("tpl-%d", m.seq)
	}
	m.templates[tpl.TemplateID] = tpl
	return nil
}

func (m *mockFormTemplateRepo) GetByID(_ context.Context, id string) (*model.FormTemplate, error) {
	if t, ok := m.templates[id]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFormTemplateRepo) ListByActivityType(ctx context.Context, activityType string) ([]model.FormTemplate, error) {
	return m.ListByActivityTypes(ctx, []string{activityType})
}

func (m *mockFormTemplateRepo) ListByActivityTypes(_ context.Context, activityTypes []string) ([]model.FormTemplate, error) {
	wanted := make(map[string]bool, len(activityTypes))
	for _, t := range activityTypes {
		wanted[t] = true
	}
	var result []model.FormTemplate
	for _, t := range m.templates {
		if wanted[t.ActivityType] && t.IsActive {
			result = append(result, *t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].SortOrder != result[j].SortOrder {
			return result[i].SortOrder < result[j].SortOrder
		}
		return result[i].TemplateID < result[j].TemplateID
	})
	return result, nil
}

func (m *mockFormTemplateRepo) OrderTaken(_ context.Context, activityType string, sortOrder int, excludeID string) (bool, error) {
	for _, t := range m.templates {
		if t.ActivityType == activityType && t.SortOrder == sortOrder && t.TemplateID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockFormTemplateRepo) Update(_ context.Context, tpl *model.FormTemplate) error {
	m.templates[tpl.TemplateID] = tpl
	return nil
}

func (m *mockFormTemplateRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.templates, id)
	return nil
}

// ── Mock ApplicationRepository ──

type mockApplicationRepo struct {
	apps map[string]*model.Application
	seq  int
	// updateStatusErr 非空时 UpdateStatus 直接返回该错误
	updateStatusErr error
}

func newMockApplicationRepo() *mockApplicationRepo {
	return &mockApplicationRepo{apps: make(map[string]*model.Application)}
}

func (m *mockApplicationRepo) Create(_ context.Context, app *model.Application) error {
	if app.ID == "" {
		m.seq++
		app.ID = fmt.Sprintf("app-%d", m.seq)
	}
	if app.Version == 0 {
		app.Version = 1
	}
	if app.CreatedAt.IsZero() {
		app.CreatedAt = time.Now()
	}
	stored := *app
	m.apps[app.ID] = &stored
	return nil
}

func (m *mockApplicationRepo) GetByID(_ context.Context, id string) (*model.Application, error) {
	if a, ok := m.apps[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockApplicationRepo) CodeExists(_ context.Context, code string) (bool, error) {
	for _, a := range m.apps {
		if a.ApplicationCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockApplicationRepo) match(a *model.Application, filters *repository.ApplicationListFilters) bool {
	if filters == nil {
		return true
	}
	if filters.CompanyID != "" && a.CompanyID != filters.CompanyID {
		return false
	}
	if filters.Status != "" && a.Status != filters.Status {
		return false
	}
	if filters.ActivityType != "" && a.ActivityType != filters.ActivityType {
		return false
	}
	if filters.From != nil && a.CreatedAt.Before(*filters.From) {
		return false
	}
	if filters.To != nil && !a.CreatedAt.Before(*filters.To) {
		return false
	}
	return true
}

func (m *mockApplicationRepo) ListAll(_ context.Context, filters *repository.ApplicationListFilters) ([]model.Application, error) {
	var result []model.Application
	for _, a := range m.apps {
		if m.match(a, filters) {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockApplicationRepo) List(ctx context.Context, filters *repository.ApplicationListFilters, offset, limit int) ([]model.Application, int64, error) {
	all, _ := m.ListAll(ctx, filters)
	total := int64(len(all))
	if offset > len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockApplicationRepo) UpdateStatus(_ context.Context, app *model.Application) error {
	if m.updateStatusErr != nil {
		return m.updateStatusErr
	}
	stored, ok := m.apps[app.ID]
	if !ok || stored.Version != app.Version {
		return pkgerrors.ErrOptimisticLock
	}
	app.Version++
	stored.Status = app.Status
	stored.SubmittedAt = app.SubmittedAt
	stored.Version = app.Version
	return nil
}

func (m *mockApplicationRepo) countBy(filters *repository.ApplicationListFilters, key func(*model.Application) string) []repository.LabelCount {
	counts := make(map[string]int64)
	for _, a := range m.apps {
		if m.match(a, filters) {
			counts[key(a)]++
		}
	}
	rows := make([]repository.LabelCount, 0, len(counts))
	for k, v := range counts {
		rows = append(rows, repository.LabelCount{Label: k, Total: v})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Label < rows[j].Label })
	return rows
}

func (m *mockApplicationRepo) CountByStatus(_ context.Context, filters *repository.ApplicationListFilters) ([]repository.LabelCount, error) {
	return m.countBy(filters, func(a *model.Application) string { return a.Status }), nil
}

func (m *mockApplicationRepo) CountByActivityType(_ context.Context, filters *repository.ApplicationListFilters) ([]repository.LabelCount, error) {
	return m.countBy(filters, func(a *model.Application) string { return a.ActivityType }), nil
}

// ── Mock SubmissionRepository ──

type mockSubmissionRepo struct {
	subs []*model.Submission
	seq  int
	// beforeUpdate 在 Update 写入前调用，用于模拟并发写入
	beforeUpdate func(id string)
}

func newMockSubmissionRepo() *mockSubmissionRepo {
	return &mockSubmissionRepo{}
}

func (m *mockSubmissionRepo) Create(_ context.Context, sub *model.Submission) error {
	if sub.SubmissionID == "" {
		m.seq++
		sub.SubmissionID = fmt.Sprintf("sub-%03d", m.seq)
	}
	stored := *sub
	m.subs = append(m.subs, &stored)
	return nil
}

func (m *mockSubmissionRepo) GetByID(_ context.Context, id string) (*model.Submission, error) {
	for _, s := range m.subs {
		if s.SubmissionID == id {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSubmissionRepo) ListByApplication(ctx context.Context, applicationID string) ([]model.Submission, error) {
	return m.ListByApplicationIDs(ctx, []string{applicationID})
}

func (m *mockSubmissionRepo) ListByApplicationIDs(_ context.Context, applicationIDs []string) ([]model.Submission, error) {
	wanted := make(map[string]bool, len(applicationIDs))
	for _, id := range applicationIDs {
		wanted[id] = true
	}
	var result []model.Submission
	for _, s := range m.subs {
		if wanted[s.ApplicationID] {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockSubmissionRepo) Update(_ context.Context, sub *model.Submission) error {
	if m.beforeUpdate != nil {
		m.beforeUpdate(sub.SubmissionID)
	}
	for _, s := range m.subs {
		if s.SubmissionID == sub.SubmissionID {
			if s.Status != model.SubmissionStatusDraft {
				return pkgerrors.ErrOptimisticLock
			}
			s.Status = sub.Status
			s.Data = sub.Data
			s.SubmittedBy = sub.SubmittedBy
			s.SubmittedAt = sub.SubmittedAt
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// byStatus 指定模板下某状态的记录
func (m *mockSubmissionRepo) byStatus(templateID, status string) []*model.Submission {
	var out []*model.Submission
	for _, s := range m.subs {
		if s.FormTemplateID == templateID && s.Status == status {
			out = append(out, s)
		}
	}
	return out
}

// ── Mock NAICSRepository ──

type mockNAICSRepo struct {
	codes []model.NAICSCode
}

func (m *mockNAICSRepo) ListAll(_ context.Context) ([]model.NAICSCode, error) {
	return append([]model.NAICSCode(nil), m.codes...), nil
}

func (m *mockNAICSRepo) ReplaceAll(_ context.Context, codes []model.NAICSCode) error {
	m.codes = append([]model.NAICSCode(nil), codes...)
	return nil
}

// ── Mock 缓存与黑名单 ──

type mockTokenStore struct {
	revoked map[string]time.Duration
}

func newMockTokenStore() *mockTokenStore {
	return &mockTokenStore{revoked: make(map[string]time.Duration)}
}

func (m *mockTokenStore) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	m.revoked[jti] = ttl
	return nil
}

func (m *mockTokenStore) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	_, ok := m.revoked[jti]
	return ok, nil
}

type mockProgressCache struct {
	entries     map[string][]byte
	invalidated []string
}

func newMockProgressCache() *mockProgressCache {
	return &mockProgressCache{entries: make(map[string][]byte)}
}

func (m *mockProgressCache) GetProgress(_ context.Context, applicationID string) ([]byte, error) {
	if b, ok := m.entries[applicationID]; ok {
		return b, nil
	}
	return nil, pkgerrors.ErrCacheMiss
}

func (m *mockProgressCache) SetProgress(_ context.Context, applicationID string, payload []byte, _ time.Duration) error {
	m.entries[applicationID] = payload
	return nil
}

func (m *mockProgressCache) InvalidateProgress(_ context.Context, applicationID string) error {
	delete(m.entries, applicationID)
	m.invalidated = append(m.invalidated, applicationID)
	return nil
}

// ── 测试装配 ──

type mockRepos struct {
	user        *mockUserRepo
	company     *mockCompanyRepo
	invite      *mockInviteCodeRepo
	facility    *mockFacilityRepo
	template    *mockFormTemplateRepo
	application *mockApplicationRepo
	submission  *mockSubmissionRepo
	naics       *mockNAICSRepo
}

func newMockRepos() (*repository.Repository, *mockRepos) {
	m := &mockRepos{
		user:        newMockUserRepo(),
		company:     newMockCompanyRepo(),
		invite:      newMockInviteCodeRepo(),
		facility:    newMockFacilityRepo(),
		template:    newMockFormTemplateRepo(),
		application: newMockApplicationRepo(),
		submission:  newMockSubmissionRepo(),
		naics:       &mockNAICSRepo{},
	}
	repo := &repository.Repository{
		User:         m.user,
		Company:      m.company,
		InviteCode:   m.invite,
		Facility:     m.facility,
		FormTemplate: m.template,
		Application:  m.application,
		Submission:   m.submission,
		NAICS:        m.naics,
	}
	return repo, m
}

// newTestEvaluator cache 为 nil 时不启用缓存
func newTestEvaluator(repo *repository.Repository, cache ProgressCache) *progressEvaluator {
	return newProgressEvaluator(repo, cache, time.Minute, nil, zap.NewNop())
}

func strPtr(s string) *string { return &s }
