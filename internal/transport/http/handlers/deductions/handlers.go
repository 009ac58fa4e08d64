package deductionhandler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"hrpay/internal/auth"
	"hrpay/internal/domain/deduction"
	"hrpay/internal/transport/http/api"
	"hrpay/internal/transport/http/middleware"
	"hrpay/internal/transport/http/shared"
)

type Handler struct {
	Service *deduction.Service
}

func NewHandler(service *deduction.Service) *Handler {
	return &Handler{Service: service}
}

type rulePayload struct {
	Name               string              `json:"name" validate:"required,max=100"`
	Description        string              `json:"description" validate:"max=500"`
	Percentage         *decimal.Decimal    `json:"percentage" validate:"required"`
	DeductionType      string              `json:"deductionType" validate:"required,oneof=MANDATORY VOLUNTARY LOAN"`
	MinSalaryThreshold decimal.Decimal     `json:"minSalaryThreshold"`
	MaxAmount          decimal.NullDecimal `json:"maxAmount"`
	IsActive           *bool               `json:"isActive"`
}

func (p rulePayload) rule(id string) deduction.Rule {
	rule := deduction.Rule{
		ID:                 id,
		Name:               strings.TrimSpace(p.Name),
		Description:        p.Description,
		Percentage:         *p.Percentage,
		Type:               deduction.Type(p.DeductionType),
		MinSalaryThreshold: p.MinSalaryThreshold,
		MaxAmount:          p.MaxAmount,
		IsActive:           true,
	}
	if p.IsActive != nil {
		rule.IsActive = *p.IsActive
	}
	return rule
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/deductions", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermDeductionsRead)).Get("/", h.handleListRules)
		r.With(middleware.RequirePermission(auth.PermDeductionsWrite)).Post("/", h.handleCreateRule)
		r.With(middleware.RequirePermission(auth.PermDeductionsRead)).Get("/{ruleID}", h.handleGetRule)
		r.With(middleware.RequirePermission(auth.PermDeductionsWrite)).Put("/{ruleID}", h.handleUpdateRule)
	})
}

func (h *Handler) handleListRules(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	filter := deduction.RuleFilter{
		Type:       deduction.Type(strings.ToUpper(r.URL.Query().Get("type"))),
		ActiveOnly: r.URL.Query().Get("active") == "true",
	}
	if filter.Type != "" && !filter.Type.Valid() {
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "type", Reason: "must be one of MANDATORY VOLUNTARY LOAN"}})
		return
	}
	rules, err := h.Service.ListRules(r.Context(), filter)
	if err != nil {
		api.FailError(w, r, err, reqID)
		return
	}
	api.Success(w, rules, reqID)
}

func (h *Handler) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload rulePayload
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	created, err := h.Service.CreateRule(r.Context(), payload.rule(""))
	if err != nil {
		api.FailError(w, r, err, reqID)
		return
	}
	api.Created(w, created, reqID)
}

func (h *Handler) handleGetRule(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	rule, err := h.Service.GetRule(r.Context(), chi.URLParam(r, "ruleID"))
	if err != nil {
		api.FailError(w, r, err, reqID)
		return
	}
	api.Success(w, rule, reqID)
}

func (h *Handler) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload rulePayload
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	updated, err := h.Service.UpdateRule(r.Context(), payload.rule(chi.URLParam(r, "ruleID")))
	if err != nil {
		api.FailError(w, r, err, reqID)
		return
	}
	api.Success(w, updated, reqID)
}
