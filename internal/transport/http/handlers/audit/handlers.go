package audithandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrpay/internal/auth"
	"hrpay/internal/domain/audit"
	"hrpay/internal/transport/http/api"
	"hrpay/internal/transport/http/middleware"
	"hrpay/internal/transport/http/shared"
)

type Handler struct {
	Reader audit.Reader
}

func NewHandler(reader audit.Reader) *Handler {
	return &Handler{Reader: reader}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermAuditRead)).Get("/audit/events", h.handleList)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	page, err := shared.ParsePagination(r, 50, 200)
	if err != nil {
		api.FailError(w, r, err, reqID)
		return
	}
	q := r.URL.Query()
	filter := audit.Filter{
		Action:     q.Get("action"),
		EntityType: q.Get("entityType"),
		EntityID:   q.Get("entityId"),
		ActorID:    q.Get("actorId"),
	}
	total, err := h.Reader.Count(r.Context(), filter)
	if err != nil {
		api.FailError(w, r, err, reqID)
		return
	}
	events, err := h.Reader.List(r.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		api.FailError(w, r, err, reqID)
		return
	}
	api.Success(w, map[string]any{
		"items":  events,
		"total":  total,
		"limit":  page.Limit,
		"offset": page.Offset,
	}, reqID)
}
