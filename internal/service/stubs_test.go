package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/noah-isme/hr-onboarding-api/internal/llm"
	"github.com/noah-isme/hr-onboarding-api/internal/models"
)

type extractorStub struct {
	text  string
	calls int
}

func (e *extractorStub) Extract(_ context.Context, _, _ string) string {
	e.calls++
	return e.text
}

type gatewayStub struct {
	mu       sync.Mutex
	results  []llm.Result
	requests []llm.Request
	panicMsg string
}

func (g *gatewayStub) Call(_ context.Context, req llm.Request) llm.Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.panicMsg != "" {
		panic(g.panicMsg)
	}
	if len(g.results) == 0 {
		return llm.Result{Data: llm.MockResponse(req.Prompt), Source: llm.SourceMock}
	}
	next := g.results[0]
	if len(g.results) > 1 {
		g.results = g.results[1:]
	}
	return next
}

type pipelineStoreStub struct {
	errs    []error
	updates []models.Document
}

func (s *pipelineStoreStub) UpdateAIResult(_ context.Context, doc *models.Document) error {
	s.updates = append(s.updates, *doc)
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return err
	}
	return nil
}

type pipelineMetricsStub struct {
	outcomes []string
}

func (m *pipelineMetricsStub) RecordPipelineOutcome(category, state string) {
	m.outcomes = append(m.outcomes, category+":"+state)
}

type userStoreStub struct {
	users      map[string]*models.User
	listed     []models.User
	total      int
	completed  int
	updates    map[string]models.OnboardingUpdate
	updateErr  error
	lastStatus []models.OnboardingStatus
}

func (s *userStoreStub) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (s *userStoreStub) ListByOnboardingStatuses(_ context.Context, statuses []models.OnboardingStatus, _ int) ([]models.User, error) {
	s.lastStatus = statuses
	return s.listed, nil
}

func (s *userStoreStub) CountEmployees(context.Context) (int, error) {
	return s.total, nil
}

func (s *userStoreStub) CountEmployeesByOnboardingStatus(context.Context, models.OnboardingStatus) (int, error) {
	return s.completed, nil
}

func (s *userStoreStub) UpdateOnboarding(_ context.Context, id string, update models.OnboardingUpdate, _ time.Time) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	if s.updates == nil {
		s.updates = map[string]models.OnboardingUpdate{}
	}
	s.updates[id] = update
	return nil
}

type documentStoreStub struct {
	docs      map[string]*models.Document
	byOwner   map[string][]models.Document
	pending   []models.PendingDocument
	created   []*models.Document
	verified  []*models.Document
	deleted   []string
	createErr error
	lastList  models.DocumentFilter
}

func (s *documentStoreStub) Create(_ context.Context, doc *models.Document) error {
	if s.createErr != nil {
		return s.createErr
	}
	if doc.ID == "" {
		doc.ID = "doc-new"
	}
	s.created = append(s.created, doc)
	if s.docs == nil {
		s.docs = map[string]*models.Document{}
	}
	s.docs[doc.ID] = doc
	return nil
}

func (s *documentStoreStub) GetByID(_ context.Context, id string) (*models.Document, error) {
	doc, ok := s.docs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *doc
	return &copied, nil
}

func (s *documentStoreStub) UpdateVerification(_ context.Context, doc *models.Document) error {
	s.verified = append(s.verified, doc)
	return nil
}

func (s *documentStoreStub) List(_ context.Context, filter models.DocumentFilter) ([]models.Document, int, error) {
	s.lastList = filter
	var out []models.Document
	for _, doc := range s.docs {
		if filter.EmployeeID == "" || doc.EmployeeID == filter.EmployeeID {
			out = append(out, *doc)
		}
	}
	return out, len(out), nil
}

func (s *documentStoreStub) Delete(_ context.Context, id string) error {
	if _, ok := s.docs[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.docs, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *documentStoreStub) ListByEmployee(_ context.Context, employeeID string) ([]models.Document, error) {
	return s.byOwner[employeeID], nil
}

func (s *documentStoreStub) ListPendingWithEmployee(context.Context, int) ([]models.PendingDocument, error) {
	return s.pending, nil
}

type progressStub struct {
	tasks    []models.EmployeeTask
	training []models.EmployeeTraining
	stats    models.TaskCompletionStats
}

func (p *progressStub) ListEmployeeTasks(context.Context, string) ([]models.EmployeeTask, error) {
	return p.tasks, nil
}

func (p *progressStub) ListEmployeeTraining(context.Context, string) ([]models.EmployeeTraining, error) {
	return p.training, nil
}

func (p *progressStub) TaskCompletionStats(context.Context) (models.TaskCompletionStats, error) {
	return p.stats, nil
}

func strPtr(s string) *string {
	return &s
}

func floatPtr(f float64) *float64 {
	return &f
}
