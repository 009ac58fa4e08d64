package jobshandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrpay/internal/auth"
	"hrpay/internal/platform/jobs"
	"hrpay/internal/transport/http/api"
	"hrpay/internal/transport/http/middleware"
	"hrpay/internal/transport/http/shared"
)

type Handler struct {
	Service *jobs.Service
}

func NewHandler(service *jobs.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/jobs", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermJobsRead)).Get("/runs", h.handleListRuns)
		r.With(middleware.RequirePermission(auth.PermContractsWrite)).Post("/contract-sweep", h.handleSweep)
	})
}

func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	page, err := shared.ParsePagination(r, 20, 100)
	if err != nil {
		api.FailError(w, r, err, reqID)
		return
	}
	filter := jobs.RunFilter{
		JobType: r.URL.Query().Get("jobType"),
		Status:  r.URL.Query().Get("status"),
	}
	runs, err := h.Service.ListRuns(r.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		api.FailError(w, r, err, reqID)
		return
	}
	api.Success(w, runs, reqID)
}

// handleSweep expires overdue contracts and sends renewal reminders immediately.
func (h *Handler) handleSweep(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	result, err := h.Service.RunNow(r.Context(), jobs.JobContractSweep, h.Service.SweepJob())
	if err != nil {
		api.FailError(w, r, err, reqID)
		return
	}
	api.Success(w, result, reqID)
}
