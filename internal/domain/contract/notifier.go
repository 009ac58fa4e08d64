package contract

import (
	"context"
	"log/slog"

	"hrpay/internal/domain/staff"
)

type Reminder struct {
	Contract      Contract
	Staff         staff.Staff
	DaysRemaining int
}

// Notifier is told about contracts approaching their end date.
type Notifier interface {
	ContractExpiring(ctx context.Context, r Reminder) error
}

type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) ContractExpiring(ctx context.Context, r Reminder) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "contract expiring soon",
		"contractId", r.Contract.ID,
		"staffId", r.Staff.ID,
		"staffName", r.Staff.FullName(),
		"daysRemaining", r.DaysRemaining,
	)
	return nil
}
