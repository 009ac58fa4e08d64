package staffhandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrpay/internal/auth"
	"hrpay/internal/domain/contract"
	"hrpay/internal/domain/payroll"
	"hrpay/internal/domain/staff"
	"hrpay/internal/transport/http/api"
	"hrpay/internal/transport/http/middleware"
	"hrpay/internal/transport/http/shared"
)

type Handler struct {
	Staff     *staff.Service
	Contracts *contract.Service
	Payrolls  *payroll.Service
}

func NewHandler(staffSvc *staff.Service, contracts *contract.Service, payrolls *payroll.Service) *Handler {
	return &Handler{Staff: staffSvc, Contracts: contracts, Payrolls: payrolls}
}

type departmentPayload struct {
	Name string `json:"name" validate:"required,max=100"`
	Code string `json:"code" validate:"required,len=3"`
}

type staffPayload struct {
	FirstName      string      `json:"firstName" validate:"required,max=100"`
	MiddleName     string      `json:"middleName" validate:"max=100"`
	LastName       string      `json:"lastName" validate:"required,max=100"`
	Email          string      `json:"email" validate:"required,email"`
	NationalID     string      `json:"nationalId" validate:"required,max=50"`
	DepartmentID   string      `json:"departmentId" validate:"required"`
	Position       string      `json:"position" validate:"max=100"`
	EmploymentDate shared.Date `json:"employmentDate"`
	KRAPin         string      `json:"kraPin"`
	BankName       string      `json:"bankName"`
	BankBranch     string      `json:"bankBranch"`
	BankBranchCode string      `json:"bankBranchCode"`
	AccountNo      string      `json:"accountNo"`
}

type accountPayload struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=8"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/departments", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermStaffRead)).Get("/", h.handleListDepartments)
		r.With(middleware.RequirePermission(auth.PermStaffWrite)).Post("/", h.handleCreateDepartment)
	})
	r.Route("/staff", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermStaffWrite)).Post("/", h.handleCreateStaff)
		r.Route("/{staffID}", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermStaffRead)).Get("/", h.handleGetStaff)
			r.With(middleware.RequirePermission(auth.PermStaffWrite)).Post("/account", h.handleProvisionAccount)
			r.With(middleware.RequirePermission(auth.PermStaffWrite)).Post("/resync", h.handleResync)
			r.With(middleware.RequirePermission(auth.PermContractsRead)).Get("/contracts", h.handleListContracts)
			r.With(middleware.RequirePermission(auth.PermContractsRead)).Get("/contracts/current", h.handleCurrentContract)
			r.With(middleware.RequirePermission(auth.PermPayrollRead)).Get("/payrolls", h.handleListPayrolls)
		})
	})
}

func (h *Handler) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	departments, err := h.Staff.ListDepartments(r.Context())
	if err != nil {
		api.FailError(w, r, err, reqID)
		return
	}
	api.Success(w, departments, reqID)
}

func (h *Handler) handleCreateDepartment(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload departmentPayload
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	created, err := h.Staff.CreateDepartment(r.Context(), staff.Department{Name: payload.Name, Code: payload.Code})
	if err != nil {
		api.FailError(w, r, err, reqID)
		return
	}
	api.Created(w, created, reqID)
}

func (h *Handler) handleCreateStaff(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload staffPayload
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	created, err := h.Staff.Create(r.Context(), staff.Staff{
		FirstName:      payload.FirstName,
		MiddleName:     payload.MiddleName,
		LastName:       payload.LastName,
		Email:          payload.Email,
		NationalID:     payload.NationalID,
		DepartmentID:   payload.DepartmentID,
		Position:       payload.Position,
		EmploymentDate: payload.EmploymentDate.Time,
		KRAPin:         payload.KRAPin,
		BankDetails: staff.BankDetails{
			BankName:       payload.BankName,
			BankBranch:     payload.BankBranch,
			BankBranchCode: payload.BankBranchCode,
			AccountNo:      payload.AccountNo,
		},
	})
	if err != nil {
		api.FailError(w, r, err, reqID)
		return
	}
	api.Created(w, created, reqID)
}

func (h *Handler) handleGetStaff(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	staffID := chi.URLParam(r, "staffID")
	if !middleware.AllowStaff(w, r, staffID) {
		return
	}
	st, err := h.Staff.Get(r.Context(), staffID)
	if err != nil {
		api.FailError(w, r, err, reqID)
		return
	}
	api.Success(w, st, reqID)
}

func (h *Handler) handleProvisionAccount(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload accountPayload
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	account, err := h.Staff.ProvisionAccount(r.Context(), chi.URLParam(r, "staffID"), staff.ProvisionRequest{
		Username: payload.Username,
		Password: payload.Password,
	})
	if err != nil {
		api.FailError(w, r, err, reqID)
		return
	}
	api.Created(w, account, reqID)
}

func (h *Handler) handleResync(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	status, err := h.Contracts.ResyncStaff(r.Context(), chi.URLParam(r, "staffID"))
	if err != nil {
		api.FailError(w, r, err, reqID)
		return
	}
	api.Success(w, map[string]any{"employmentStatus": status}, reqID)
}

func (h *Handler) handleListContracts(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	staffID := chi.URLParam(r, "staffID")
	if !middleware.AllowStaff(w, r, staffID) {
		return
	}
	contracts, err := h.Contracts.ListByStaff(r.Context(), staffID)
	if err != nil {
		api.FailError(w, r, err, reqID)
		return
	}
	api.Success(w, contracts, reqID)
}

func (h *Handler) handleCurrentContract(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	staffID := chi.URLParam(r, "staffID")
	if !middleware.AllowStaff(w, r, staffID) {
		return
	}
	current, err := h.Contracts.Current(r.Context(), staffID)
	if err != nil {
		api.FailError(w, r, err, reqID)
		return
	}
	api.Success(w, current, reqID)
}

func (h *Handler) handleListPayrolls(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	staffID := chi.URLParam(r, "staffID")
	if !middleware.AllowStaff(w, r, staffID) {
		return
	}
	payrolls, err := h.Payrolls.ListByStaff(r.Context(), staffID)
	if err != nil {
		api.FailError(w, r, err, reqID)
		return
	}
	api.Success(w, payrolls, reqID)
}
