package memory

import (
	"context"

	"hrpay/internal/domain/audit"
)

type Audit struct{ repo }

func (a Audit) Record(ctx context.Context, action, entityType, entityID string, before, after any) error {
	evt, err := audit.NewEvent(ctx, action, entityType, entityID, before, after)
	if err != nil {
		return err
	}
	defer a.lock()()
	evt.ID = newID()
	a.s.data.events = append(a.s.data.events, evt)
	return nil
}

func (a Audit) matching(filter audit.Filter) []audit.Event {
	var out []audit.Event
	for i := len(a.s.data.events) - 1; i >= 0; i-- {
		evt := a.s.data.events[i]
		if filter.Action != "" && evt.Action != filter.Action {
			continue
		}
		if filter.EntityType != "" && evt.EntityType != filter.EntityType {
			continue
		}
		if filter.EntityID != "" && evt.EntityID != filter.EntityID {
			continue
		}
		if filter.ActorID != "" && evt.ActorID != filter.ActorID {
			continue
		}
		out = append(out, evt)
	}
	return out
}

func (a Audit) Count(_ context.Context, filter audit.Filter) (int, error) {
	defer a.lock()()
	return len(a.matching(filter)), nil
}

// List returns events newest first.
func (a Audit) List(_ context.Context, filter audit.Filter, limit, offset int) ([]audit.Event, error) {
	defer a.lock()()
	events := a.matching(filter)
	if offset >= len(events) {
		return nil, nil
	}
	events = events[offset:]
	if limit > 0 && limit < len(events) {
		events = events[:limit]
	}
	return events, nil
}
