package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/hr-onboarding-api/internal/dto"
	"github.com/noah-isme/hr-onboarding-api/internal/service"
	appErrors "github.com/noah-isme/hr-onboarding-api/pkg/errors"
	"github.com/noah-isme/hr-onboarding-api/pkg/response"
)

type hrAssistant interface {
	Answer(ctx context.Context, query string) (*service.AssistantResult, error)
}

type employeeAssistant interface {
	Chat(ctx context.Context, employeeID, message string, history []service.ChatTurn) (*service.AssistantResult, error)
}

type onboardingAnalyzer interface {
	Analyze(ctx context.Context, employeeID string) (*service.AssistantResult, error)
}

// AssistantHandler exposes the HR query, employee chat and onboarding analysis endpoints.
type AssistantHandler struct {
	hr         hrAssistant
	employee   employeeAssistant
	onboarding onboardingAnalyzer
	validate   *validator.Validate
}

// NewAssistantHandler constructs the handler.
func NewAssistantHandler(hr hrAssistant, employee employeeAssistant, onboarding onboardingAnalyzer, validate *validator.Validate) *AssistantHandler {
	if validate == nil {
		validate = NewValidator()
	}
	return &AssistantHandler{hr: hr, employee: employee, onboarding: onboarding, validate: validate}
}

// HRQuery godoc
// @Summary Ask the HR assistant a question
// @Tags Assistants
// @Accept json
// @Produce json
// @Param payload body dto.HRQueryRequest true "Question"
// @Success 200 {object} response.Envelope
// @Router /assistants/hr/query [post]
func (h *AssistantHandler) HRQuery(c *gin.Context) {
	var req dto.HRQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query payload"))
		return
	}
	if err := validateRequest(h.validate, req, "query is required"); err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.hr.Answer(c.Request.Context(), req.Query)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondAssistant(c, result)
}

// EmployeeChat godoc
// @Summary Chat with the onboarding assistant
// @Tags Assistants
// @Accept json
// @Produce json
// @Param payload body dto.ChatRequest true "Message and history"
// @Success 200 {object} response.Envelope
// @Router /assistants/employee/chat [post]
func (h *AssistantHandler) EmployeeChat(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid chat payload"))
		return
	}
	if err := validateRequest(h.validate, req, "message is required"); err != nil {
		response.Error(c, err)
		return
	}
	history := make([]service.ChatTurn, 0, len(req.History))
	for _, turn := range req.History {
		history = append(history, service.ChatTurn{User: turn.User, Bot: turn.Bot})
	}
	result, err := h.employee.Chat(c.Request.Context(), actor.ID, req.Message, history)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondAssistant(c, result)
}

// AnalyzeOnboarding godoc
// @Summary Analyse an employee's onboarding progress and update their status
// @Tags Onboarding
// @Produce json
// @Param id path string true "Employee ID"
// @Success 200 {object} response.Envelope
// @Router /onboarding/{id}/analyze [post]
func (h *AssistantHandler) AnalyzeOnboarding(c *gin.Context) {
	result, err := h.onboarding.Analyze(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondAssistant(c, result)
}

func respondAssistant(c *gin.Context, result *service.AssistantResult) {
	response.JSON(c, http.StatusOK, result.Data, nil, map[string]interface{}{
		"source":      string(result.Source),
		"ai_degraded": result.Degraded(),
	})
}
