package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrpay/internal/app/server"
	"hrpay/internal/auth"
	"hrpay/internal/platform/config"
	"hrpay/internal/platform/logging"
	"hrpay/internal/store/memory"
)

const secret = "test-secret"

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Field   string `json:"field"`
	} `json:"error"`
}

type harness struct {
	t      *testing.T
	router http.Handler
	admin  string
	hr     string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.JWTSecret = secret
	cfg.RateLimitPerMinute = 0
	cfg.PayrollWorkers = 2

	app := server.New(cfg, server.MemoryStores(memory.New()), logging.New(io.Discard, "error", "text"))
	return &harness{
		t:      t,
		router: app.Router,
		admin:  token(t, auth.Claims{UserID: "admin-1", Role: auth.RoleAdmin}),
		hr:     token(t, auth.Claims{UserID: "hr-1", Role: auth.RoleHR}),
	}
}

func token(t *testing.T, claims auth.Claims) string {
	t.Helper()
	tok, err := auth.GenerateToken(secret, claims, time.Hour)
	require.NoError(t, err)
	return tok
}

func (h *harness) raw(method, path, tok string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *harness) do(method, path, tok string, body any, wantStatus int) envelope {
	h.t.Helper()
	rec := h.raw(method, path, tok, body)
	require.Equal(h.t, wantStatus, rec.Code, rec.Body.String())
	var env envelope
	if rec.Code != http.StatusNoContent {
		require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return env
}

func (h *harness) id(env envelope) string {
	h.t.Helper()
	var out struct {
		ID string `json:"id"`
	}
	require.NoError(h.t, json.Unmarshal(env.Data, &out))
	require.NotEmpty(h.t, out.ID)
	return out.ID
}

func (h *harness) seedStaff(nationalID, email string) (deptID, staffID string) {
	h.t.Helper()
	var depts []struct {
		ID   string `json:"id"`
		Code string `json:"code"`
	}
	require.NoError(h.t, json.Unmarshal(h.do(http.MethodGet, "/api/v1/departments", h.hr, nil, http.StatusOK).Data, &depts))
	for _, d := range depts {
		if d.Code == "FIN" {
			deptID = d.ID
		}
	}
	if deptID == "" {
		deptID = h.id(h.do(http.MethodPost, "/api/v1/departments", h.hr, map[string]any{"name": "Finance", "code": "FIN"}, http.StatusCreated))
	}
	staffID = h.id(h.do(http.MethodPost, "/api/v1/staff", h.hr, map[string]any{
		"firstName":      "Amina",
		"lastName":       "Otieno",
		"email":          email,
		"nationalId":     nationalID,
		"departmentId":   deptID,
		"position":       "Accountant",
		"employmentDate": "2024-01-15",
	}, http.StatusCreated))
	return deptID, staffID
}

func decimalField(t *testing.T, raw json.RawMessage, field string) decimal.Decimal {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &m))
	var d decimal.Decimal
	require.NoError(t, json.Unmarshal(m[field], &d))
	return d
}

func TestHealthEndpoints(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, http.StatusOK, h.raw(http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusOK, h.raw(http.MethodGet, "/readyz", "", nil).Code)

	env := h.do(http.MethodGet, "/metrics", "", nil, http.StatusOK)
	assert.Contains(t, string(env.Data), "requestsTotal")
}

func TestAuthentication(t *testing.T) {
	h := newHarness(t)
	env := h.do(http.MethodGet, "/api/v1/deductions", "", nil, http.StatusUnauthorized)
	assert.Equal(t, "unauthorized", env.Error.Code)

	staffTok := token(t, auth.Claims{UserID: "u-9", StaffID: "s-9", Role: auth.RoleStaff})
	env = h.do(http.MethodPost, "/api/v1/deductions", staffTok, map[string]any{
		"name": "NHIF", "percentage": "2.75", "deductionType": "MANDATORY",
	}, http.StatusForbidden)
	assert.Equal(t, "forbidden", env.Error.Code)
}

func TestContractPayrollFlow(t *testing.T) {
	h := newHarness(t)
	_, staffID := h.seedStaff("12345678", "amina@example.com")

	h.do(http.MethodPost, "/api/v1/deductions", h.hr, map[string]any{
		"name": "NHIF", "percentage": "2.75", "deductionType": "MANDATORY",
	}, http.StatusCreated)
	saccoID := h.id(h.do(http.MethodPost, "/api/v1/deductions", h.hr, map[string]any{
		"name": "SACCO", "percentage": "5", "deductionType": "VOLUNTARY",
	}, http.StatusCreated))

	contractID := h.id(h.do(http.MethodPost, "/api/v1/contracts", h.hr, map[string]any{
		"staffId":      staffID,
		"jobTitle":     "Accountant",
		"contractType": "PERMANENT",
		"startDate":    "2024-01-01",
		"salary":       "40000",
	}, http.StatusCreated))

	h.do(http.MethodPost, "/api/v1/contracts/"+contractID+"/deductions", h.hr, map[string]any{
		"deductionId": saccoID, "fixedAmount": "2000",
	}, http.StatusCreated)

	summary := h.do(http.MethodGet, "/api/v1/contracts/"+contractID+"/summary", h.hr, nil, http.StatusOK)
	assert.True(t, decimal.NewFromInt(3100).Equal(decimalField(t, summary.Data, "totalDeductions")))
	assert.True(t, decimal.NewFromInt(36900).Equal(decimalField(t, summary.Data, "netSalary")))

	current := h.do(http.MethodGet, "/api/v1/staff/"+staffID+"/contracts/current", h.hr, nil, http.StatusOK)
	assert.Equal(t, contractID, h.id(current))

	period := map[string]any{"staffId": staffID, "payPeriodStart": "2025-05-01", "payPeriodEnd": "2025-05-31"}
	created := h.do(http.MethodPost, "/api/v1/payrolls", h.hr, period, http.StatusCreated)
	payrollID := h.id(created)
	assert.True(t, decimal.NewFromInt(36900).Equal(decimalField(t, created.Data, "netSalary")))
	assert.Contains(t, string(created.Data), "missing_bank_account")

	dup := h.do(http.MethodPost, "/api/v1/payrolls", h.hr, period, http.StatusConflict)
	assert.Equal(t, "conflict", dup.Error.Code)

	slip := h.do(http.MethodGet, "/api/v1/payrolls/"+payrollID+"/payslip", h.hr, nil, http.StatusOK)
	assert.Contains(t, string(slip.Data), `"staffName":"Amina Otieno"`)

	pdf := h.raw(http.MethodGet, "/api/v1/payrolls/"+payrollID+"/pdf", h.hr, nil)
	require.Equal(t, http.StatusOK, pdf.Code)
	assert.Equal(t, "application/pdf", pdf.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(pdf.Body.String(), "%PDF"))

	run := h.do(http.MethodPost, "/api/v1/payrolls/run", h.admin, map[string]any{"month": "2025-05"}, http.StatusOK)
	var result struct {
		Created int `json:"created"`
		Skipped int `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal(run.Data, &result))
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.Skipped)

	h.do(http.MethodPost, "/api/v1/payrolls/run", h.hr, map[string]any{"month": "2025-05"}, http.StatusForbidden)
	h.do(http.MethodPost, "/api/v1/payrolls/run", h.admin, map[string]any{"month": "May"}, http.StatusBadRequest)

	var runs []struct {
		JobType string `json:"jobType"`
		Status  string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(h.do(http.MethodGet, "/api/v1/jobs/runs", h.hr, nil, http.StatusOK).Data, &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "payroll_monthly", runs[0].JobType)
	assert.Equal(t, "completed", runs[0].Status)
}

func TestStaffSeeOnlyTheirOwnRecords(t *testing.T) {
	h := newHarness(t)
	_, staffID := h.seedStaff("11111111", "one@example.com")
	_, otherID := h.seedStaff("22222222", "two@example.com")

	contractID := h.id(h.do(http.MethodPost, "/api/v1/contracts", h.hr, map[string]any{
		"staffId": staffID, "jobTitle": "Clerk", "contractType": "PERMANENT", "startDate": "2024-01-01", "salary": "30000",
	}, http.StatusCreated))

	own := token(t, auth.Claims{UserID: "u-1", StaffID: staffID, Role: auth.RoleStaff})
	h.do(http.MethodGet, "/api/v1/staff/"+staffID, own, nil, http.StatusOK)
	h.do(http.MethodGet, "/api/v1/contracts/"+contractID, own, nil, http.StatusOK)
	h.do(http.MethodGet, "/api/v1/staff/"+staffID+"/payrolls", own, nil, http.StatusOK)

	other := token(t, auth.Claims{UserID: "u-2", StaffID: otherID, Role: auth.RoleStaff})
	h.do(http.MethodGet, "/api/v1/staff/"+staffID, other, nil, http.StatusForbidden)
	h.do(http.MethodGet, "/api/v1/contracts/"+contractID, other, nil, http.StatusForbidden)
	h.do(http.MethodGet, "/api/v1/contracts/"+contractID+"/summary", other, nil, http.StatusForbidden)
}

func TestContractValidationAndRenewal(t *testing.T) {
	h := newHarness(t)
	_, staffID := h.seedStaff("33333333", "three@example.com")

	env := h.do(http.MethodPost, "/api/v1/contracts", h.hr, map[string]any{
		"staffId": staffID, "jobTitle": "Locum nurse", "contractType": "LOCUM", "startDate": "2025-01-01", "salary": "20000",
	}, http.StatusBadRequest)
	assert.Equal(t, "validation_error", env.Error.Code)
	assert.Equal(t, "end_date", env.Error.Field)

	env = h.do(http.MethodPost, "/api/v1/contracts", h.hr, map[string]any{
		"staffId": staffID, "jobTitle": "Locum nurse", "contractType": "LOCUM", "salary": "20000", "bonus": 1,
	}, http.StatusBadRequest)
	assert.Equal(t, "invalid_payload", env.Error.Code)

	end := time.Now().UTC().AddDate(0, 2, 0).Format(time.DateOnly)
	contractID := h.id(h.do(http.MethodPost, "/api/v1/contracts", h.hr, map[string]any{
		"staffId": staffID, "jobTitle": "Locum nurse", "contractType": "LOCUM",
		"startDate": "2025-01-01", "endDate": end, "salary": "20000",
	}, http.StatusCreated))

	newEnd := time.Now().UTC().AddDate(1, 0, 0).Format(time.DateOnly)
	renewed := h.do(http.MethodPost, "/api/v1/contracts/"+contractID+"/renew", h.hr, map[string]any{
		"newEndDate": newEnd, "salary": "22000",
	}, http.StatusCreated)
	var out struct {
		Contract struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"contract"`
		Renewal struct {
			RenewedBy string `json:"renewedBy"`
		} `json:"renewal"`
	}
	require.NoError(t, json.Unmarshal(renewed.Data, &out))
	assert.Equal(t, "ACTIVE", out.Contract.Status)
	assert.Equal(t, "hr-1", out.Renewal.RenewedBy)

	again := h.do(http.MethodPost, "/api/v1/contracts/"+contractID+"/renew", h.hr, map[string]any{"newEndDate": newEnd}, http.StatusPreconditionFailed)
	assert.Equal(t, "precondition_failed", again.Error.Code)

	reopen := h.do(http.MethodPut, "/api/v1/contracts/"+contractID, h.hr, map[string]any{
		"jobTitle": "Clinical officer", "contractType": "LOCUM", "startDate": "2025-01-01", "endDate": end,
		"salary": "20000", "status": "ACTIVE",
	}, http.StatusPreconditionFailed)
	assert.Equal(t, "precondition_failed", reopen.Error.Code)

	var renewals []map[string]any
	require.NoError(t, json.Unmarshal(h.do(http.MethodGet, "/api/v1/contracts/"+contractID+"/renewals", h.hr, nil, http.StatusOK).Data, &renewals))
	assert.Len(t, renewals, 1)

	h.do(http.MethodDelete, "/api/v1/contracts/"+out.Contract.ID, h.hr, nil, http.StatusNoContent)
	h.do(http.MethodGet, "/api/v1/contracts/"+out.Contract.ID, h.hr, nil, http.StatusNotFound)
}

func TestAuditEventsAdminOnly(t *testing.T) {
	h := newHarness(t)
	_, staffID := h.seedStaff("44444444", "four@example.com")
	contractID := h.id(h.do(http.MethodPost, "/api/v1/contracts", h.hr, map[string]any{
		"staffId": staffID, "jobTitle": "Clerk", "contractType": "PERMANENT", "startDate": "2024-01-01", "salary": "30000",
	}, http.StatusCreated))

	h.do(http.MethodGet, "/api/v1/audit/events", h.hr, nil, http.StatusForbidden)

	env := h.do(http.MethodGet, "/api/v1/audit/events?entityType=contract&entityId="+contractID, h.admin, nil, http.StatusOK)
	var page struct {
		Total int `json:"total"`
		Items []struct {
			Action  string `json:"action"`
			ActorID string `json:"actorId"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "create", page.Items[0].Action)
	assert.Equal(t, "hr-1", page.Items[0].ActorID)

	h.do(http.MethodGet, "/api/v1/audit/events?limit=abc", h.admin, nil, http.StatusBadRequest)
}

func TestContractSweepEndpoint(t *testing.T) {
	h := newHarness(t)
	env := h.do(http.MethodPost, "/api/v1/jobs/contract-sweep", h.hr, nil, http.StatusOK)
	var result struct {
		Expired  int `json:"expired"`
		Reminded int `json:"reminded"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Zero(t, result.Expired)
	assert.Zero(t, result.Reminded)
}
