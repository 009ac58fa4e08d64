package contracthandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"hrpay/internal/auth"
	"hrpay/internal/domain/contract"
	"hrpay/internal/domain/deduction"
	"hrpay/internal/transport/http/api"
	"hrpay/internal/transport/http/middleware"
	"hrpay/internal/transport/http/shared"
)

type Handler struct {
	Contracts  *contract.Service
	Deductions *deduction.Service
}

func NewHandler(contracts *contract.Service, deductions *deduction.Service) *Handler {
	return &Handler{Contracts: contracts, Deductions: deductions}
}

type contractPayload struct {
	StaffID      string           `json:"staffId" validate:"required"`
	DepartmentID string           `json:"departmentId"`
	JobTitle     string           `json:"jobTitle" validate:"required,max=200"`
	ContractType string           `json:"contractType" validate:"required,oneof=PERMANENT LOCUM CASUAL"`
	StartDate    shared.Date      `json:"startDate"`
	EndDate      shared.Date      `json:"endDate"`
	Salary       *decimal.Decimal `json:"salary" validate:"required"`
	Status       string           `json:"status" validate:"omitempty,oneof=ACTIVE EXPIRED TERMINATED RENEWED PENDING"`
}

func (p contractPayload) contract(id string) contract.Contract {
	return contract.Contract{
		ID:           id,
		StaffID:      p.StaffID,
		DepartmentID: p.DepartmentID,
		JobTitle:     p.JobTitle,
		Type:         contract.Type(p.ContractType),
		StartDate:    p.StartDate.Time,
		EndDate:      p.EndDate.Ptr(),
		Salary:       *p.Salary,
		Status:       contract.Status(p.Status),
	}
}

type updatePayload struct {
	DepartmentID string           `json:"departmentId"`
	JobTitle     string           `json:"jobTitle" validate:"required,max=200"`
	ContractType string           `json:"contractType" validate:"required,oneof=PERMANENT LOCUM CASUAL"`
	StartDate    shared.Date      `json:"startDate"`
	EndDate      shared.Date      `json:"endDate"`
	Salary       *decimal.Decimal `json:"salary" validate:"required"`
	Status       string           `json:"status" validate:"required,oneof=ACTIVE EXPIRED TERMINATED RENEWED PENDING"`
}

type renewPayload struct {
	NewEndDate shared.Date         `json:"newEndDate"`
	Salary     decimal.NullDecimal `json:"salary"`
	JobTitle   string              `json:"jobTitle" validate:"max=200"`
}

type overridePayload struct {
	DeductionID      string              `json:"deductionId"`
	CustomPercentage decimal.NullDecimal `json:"customPercentage"`
	FixedAmount      decimal.NullDecimal `json:"fixedAmount"`
	IsActive         *bool               `json:"isActive"`
}

func (p overridePayload) override(contractID, overrideID string) deduction.Override {
	o := deduction.Override{
		ID:               overrideID,
		ContractID:       contractID,
		RuleID:           p.DeductionID,
		CustomPercentage: p.CustomPercentage,
		FixedAmount:      p.FixedAmount,
		IsActive:         true,
	}
	if p.IsActive != nil {
		o.IsActive = *p.IsActive
	}
	return o
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/contracts", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermContractsWrite)).Post("/", h.handleCreate)
		r.Route("/{contractID}", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermContractsRead)).Get("/", h.handleGet)
			r.With(middleware.RequirePermission(auth.PermContractsWrite)).Put("/", h.handleUpdate)
			r.With(middleware.RequirePermission(auth.PermContractsWrite)).Delete("/", h.handleDelete)
			r.With(middleware.RequirePermission(auth.PermContractsRead)).Get("/summary", h.handleSummary)
			r.With(middleware.RequirePermission(auth.PermContractsWrite)).Post("/renew", h.handleRenew)
			r.With(middleware.RequirePermission(auth.PermContractsRead)).Get("/renewals", h.handleListRenewals)
			r.With(middleware.RequirePermission(auth.PermContractsRead)).Get("/deductions", h.handleListOverrides)
			r.With(middleware.RequirePermission(auth.PermDeductionsWrite)).Post("/deductions", h.handleCreateOverride)
			r.With(middleware.RequirePermission(auth.PermDeductionsWrite)).Put("/deductions/{overrideID}", h.handleUpdateOverride)
			r.With(middleware.RequirePermission(auth.PermDeductionsWrite)).Delete("/deductions/{overrideID}", h.handleDeleteOverride)
		})
	})
}

// load fetches the path contract and checks the caller may see it.
func (h *Handler) load(w http.ResponseWriter, r *http.Request) (contract.Contract, bool) {
	c, err := h.Contracts.Get(r.Context(), chi.URLParam(r, "contractID"))
	if err != nil {
		api.FailError(w, r, err, middleware.GetRequestID(r.Context()))
		return contract.Contract{}, false
	}
	if !middleware.AllowStaff(w, r, c.StaffID) {
		return contract.Contract{}, false
	}
	return c, true
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload contractPayload
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	created, err := h.Contracts.Create(r.Context(), payload.contract(""))
	if err != nil {
		api.FailError(w, r, err, reqID)
		return
	}
	api.Created(w, created, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	c, ok := h.load(w, r)
	if !ok {
		return
	}
	api.Success(w, c, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload updatePayload
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	updated, err := h.Contracts.Update(r.Context(), contract.Contract{
		ID:           chi.URLParam(r, "contractID"),
		DepartmentID: payload.DepartmentID,
		JobTitle:     payload.JobTitle,
		Type:         contract.Type(payload.ContractType),
		StartDate:    payload.StartDate.Time,
		EndDate:      payload.EndDate.Ptr(),
		Salary:       *payload.Salary,
		Status:       contract.Status(payload.Status),
	})
	if err != nil {
		api.FailError(w, r, err, reqID)
		return
	}
	api.Success(w, updated, reqID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	if err := h.Contracts.Delete(r.Context(), chi.URLParam(r, "contractID")); err != nil {
		api.FailError(w, r, err, reqID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	c, ok := h.load(w, r)
	if !ok {
		return
	}
	summary, err := h.Contracts.Summary(r.Context(), c.ID)
	if err != nil {
		api.FailError(w, r, err, reqID)
		return
	}
	api.Success(w, summary, reqID)
}

func (h *Handler) handleRenew(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload renewPayload
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	successor, renewal, err := h.Contracts.Renew(r.Context(), chi.URLParam(r, "contractID"), contract.RenewRequest{
		NewEndDate: payload.NewEndDate.Ptr(),
		Salary:     payload.Salary,
		JobTitle:   payload.JobTitle,
		ActorID:    user.UserID,
	})
	if err != nil {
		api.FailError(w, r, err, reqID)
		return
	}
	api.Created(w, map[string]any{"contract": successor, "renewal": renewal}, reqID)
}

func (h *Handler) handleListRenewals(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	c, ok := h.load(w, r)
	if !ok {
		return
	}
	renewals, err := h.Contracts.ListRenewals(r.Context(), c.ID)
	if err != nil {
		api.FailError(w, r, err, reqID)
		return
	}
	api.Success(w, renewals, reqID)
}

func (h *Handler) handleListOverrides(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	c, ok := h.load(w, r)
	if !ok {
		return
	}
	overrides, err := h.Deductions.ListOverrides(r.Context(), c.ID)
	if err != nil {
		api.FailError(w, r, err, reqID)
		return
	}
	api.Success(w, overrides, reqID)
}

func (h *Handler) handleCreateOverride(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload overridePayload
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	if payload.DeductionID == "" {
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "deductionId", Reason: "is required"}})
		return
	}
	created, err := h.Deductions.CreateOverride(r.Context(), payload.override(chi.URLParam(r, "contractID"), ""))
	if err != nil {
		api.FailError(w, r, err, reqID)
		return
	}
	api.Created(w, created, reqID)
}

func (h *Handler) handleUpdateOverride(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload overridePayload
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	updated, err := h.Deductions.UpdateOverride(r.Context(), payload.override(chi.URLParam(r, "contractID"), chi.URLParam(r, "overrideID")))
	if err != nil {
		api.FailError(w, r, err, reqID)
		return
	}
	api.Success(w, updated, reqID)
}

func (h *Handler) handleDeleteOverride(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	err := h.Deductions.DeleteOverride(r.Context(), chi.URLParam(r, "contractID"), chi.URLParam(r, "overrideID"))
	if err != nil {
		api.FailError(w, r, err, reqID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
