package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"hrpay/internal/platform/querier"
	"hrpay/internal/requestctx"
)

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionRenew  = "renew"
	ActionExpire = "expire"
)

type Event struct {
	ID         string          `json:"id"`
	ActorID    string          `json:"actorId"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId"`
	CreatedAt  time.Time       `json:"createdAt"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
}

type Filter struct {
	Action     string
	EntityType string
	EntityID   string
	ActorID    string
}

// Recorder persists audit events. Failures are reported but never undo the audited change.
type Recorder interface {
	Record(ctx context.Context, action, entityType, entityID string, before, after any) error
}

type Reader interface {
	Count(ctx context.Context, filter Filter) (int, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]Event, error)
}

type Nop struct{}

func (Nop) Record(context.Context, string, string, string, any, any) error { return nil }

// NewEvent fills actor and request id from ctx and marshals the snapshots.
func NewEvent(ctx context.Context, action, entityType, entityID string, before, after any) (Event, error) {
	evt := Event{
		ActorID:    requestctx.GetActor(ctx),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  requestctx.GetRequestID(ctx),
		CreatedAt:  time.Now().UTC(),
	}
	if before != nil {
		payload, err := json.Marshal(before)
		if err != nil {
			return Event{}, err
		}
		evt.Before = payload
	}
	if after != nil {
		payload, err := json.Marshal(after)
		if err != nil {
			return Event{}, err
		}
		evt.After = payload
	}
	return evt, nil
}

// Best records through r and logs a failure instead of returning it.
func Best(ctx context.Context, r Recorder, action, entityType, entityID string, before, after any) {
	if r == nil {
		return
	}
	if err := r.Record(ctx, action, entityType, entityID, before, after); err != nil {
		slog.WarnContext(ctx, "audit record failed", "action", action, "entityType", entityType, "entityId", entityID, "err", err)
	}
}

type Service struct {
	DB querier.Querier
}

func New(db querier.Querier) *Service {
	return &Service{DB: db}
}

func (s *Service) Record(ctx context.Context, action, entityType, entityID string, before, after any) error {
	evt, err := NewEvent(ctx, action, entityType, entityID, before, after)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO audit_events (actor_id, action, entity_type, entity_id, before_json, after_json, request_id)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
  `, evt.ActorID, evt.Action, evt.EntityType, evt.EntityID, []byte(evt.Before), []byte(evt.After), evt.RequestID)
	return err
}

func (s *Service) Count(ctx context.Context, filter Filter) (int, error) {
	query, args := buildBaseQuery("SELECT COUNT(1)", filter)
	var total int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Service) List(ctx context.Context, filter Filter, limit, offset int) ([]Event, error) {
	query, args := buildBaseQuery(`SELECT id, actor_id, action, entity_type, entity_id, request_id, created_at, before_json, after_json`, filter)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var evt Event
		var before, after []byte
		if err := rows.Scan(&evt.ID, &evt.ActorID, &evt.Action, &evt.EntityType, &evt.EntityID, &evt.RequestID, &evt.CreatedAt, &before, &after); err != nil {
			return nil, err
		}
		evt.Before, evt.After = before, after
		out = append(out, evt)
	}
	return out, rows.Err()
}

func buildBaseQuery(prefix string, filter Filter) (string, []any) {
	query := prefix + " FROM audit_events WHERE 1=1"
	var args []any
	if filter.Action != "" {
		args = append(args, filter.Action)
		query += fmt.Sprintf(" AND action = $%d", len(args))
	}
	if filter.EntityType != "" {
		args = append(args, filter.EntityType)
		query += fmt.Sprintf(" AND entity_type = $%d", len(args))
	}
	if filter.EntityID != "" {
		args = append(args, filter.EntityID)
		query += fmt.Sprintf(" AND entity_id = $%d", len(args))
	}
	if filter.ActorID != "" {
		args = append(args, filter.ActorID)
		query += fmt.Sprintf(" AND actor_id = $%d", len(args))
	}
	return query, args
}
