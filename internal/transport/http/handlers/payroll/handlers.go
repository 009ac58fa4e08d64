package payrollhandler

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"hrpay/internal/auth"
	"hrpay/internal/domain/payroll"
	"hrpay/internal/domain/staff"
	"hrpay/internal/platform/jobs"
	"hrpay/internal/transport/http/api"
	"hrpay/internal/transport/http/middleware"
	"hrpay/internal/transport/http/shared"
)

type Handler struct {
	Service *payroll.Service
	Jobs    *jobs.Service
}

func NewHandler(service *payroll.Service, jobsSvc *jobs.Service) *Handler {
	return &Handler{Service: service, Jobs: jobsSvc}
}

type generatePayload struct {
	StaffID        string              `json:"staffId" validate:"required"`
	ContractID     string              `json:"contractId"`
	PayPeriodStart shared.Date         `json:"payPeriodStart"`
	PayPeriodEnd   shared.Date         `json:"payPeriodEnd"`
	GrossSalary    decimal.NullDecimal `json:"grossSalary"`
	KRAPin         string              `json:"kraPin"`
	BankName       string              `json:"bankName"`
	BankBranch     string              `json:"bankBranch"`
	BankBranchCode string              `json:"bankBranchCode"`
	AccountNo      string              `json:"accountNo"`
}

func (p generatePayload) request() payroll.GenerateRequest {
	req := payroll.GenerateRequest{
		StaffID:       p.StaffID,
		ContractID:    p.ContractID,
		PeriodStart:   p.PayPeriodStart.Time,
		PeriodEnd:     p.PayPeriodEnd.Time,
		GrossOverride: p.GrossSalary,
		KRAPin:        strings.TrimSpace(p.KRAPin),
	}
	if p.BankName != "" || p.BankBranch != "" || p.BankBranchCode != "" || p.AccountNo != "" {
		req.Bank = &staff.BankDetails{
			BankName:       p.BankName,
			BankBranch:     p.BankBranch,
			BankBranchCode: p.BankBranchCode,
			AccountNo:      p.AccountNo,
		}
	}
	return req
}

type runPayload struct {
	Month string `json:"month"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payrolls", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermPayrollWrite)).Post("/", h.handleGenerate)
		r.With(middleware.RequirePermission(auth.PermPayrollRun)).Post("/run", h.handleRun)
		r.With(middleware.RequirePermission(auth.PermPayrollRead)).Get("/{payrollID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermPayrollRead)).Get("/{payrollID}/payslip", h.handlePayslip)
		r.With(middleware.RequirePermission(auth.PermPayrollRead)).Get("/{payrollID}/pdf", h.handlePDF)
	})
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload generatePayload
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	created, err := h.Service.Generate(r.Context(), payload.request())
	if err != nil {
		api.FailError(w, r, err, reqID)
		return
	}
	api.Created(w, created, reqID)
}

// handleRun generates the payslips of one month synchronously and records the run.
func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload runPayload
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	var month time.Time
	if payload.Month != "" {
		parsed, err := time.Parse("2006-01", payload.Month)
		if err != nil {
			shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "month", Reason: "must be formatted YYYY-MM"}})
			return
		}
		month = parsed
	}
	result, err := h.Jobs.RunNow(r.Context(), jobs.JobPayrollMonthly, h.Jobs.PayrollJob(month))
	if err != nil {
		api.FailError(w, r, err, reqID)
		return
	}
	api.Success(w, result, reqID)
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (payroll.Payroll, bool) {
	p, err := h.Service.Get(r.Context(), chi.URLParam(r, "payrollID"))
	if err != nil {
		api.FailError(w, r, err, middleware.GetRequestID(r.Context()))
		return payroll.Payroll{}, false
	}
	if !middleware.AllowStaff(w, r, p.StaffID) {
		return payroll.Payroll{}, false
	}
	return p, true
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, ok := h.load(w, r)
	if !ok {
		return
	}
	api.Success(w, p, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePayslip(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	p, ok := h.load(w, r)
	if !ok {
		return
	}
	slip, err := h.Service.Payslip(r.Context(), p.ID)
	if err != nil {
		api.FailError(w, r, err, reqID)
		return
	}
	api.Success(w, slip, reqID)
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	p, ok := h.load(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.Service.RenderPDF(r.Context(), p.ID, &buf); err != nil {
		api.FailError(w, r, err, reqID)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="payslip-%s.pdf"`, p.PayPeriodStart.Format("2006-01")))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
