package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hrpay/internal/domain/contract"
)

// ReminderNotifier emails contract expiry reminders to the staff member, copying HR when configured.
type ReminderNotifier struct {
	Mailer Mailer
	From   string
	HR     string
}

func (n ReminderNotifier) ContractExpiring(ctx context.Context, r contract.Reminder) error {
	var recipients []string
	for _, addr := range []string{r.Staff.Email, n.HR} {
		if addr = strings.TrimSpace(addr); addr != "" {
			recipients = append(recipients, addr)
		}
	}
	if len(recipients) == 0 {
		return nil
	}
	subject, body := reminderMessage(r)
	return n.Mailer.Send(ctx, n.From, strings.Join(recipients, ", "), subject, body)
}

func reminderMessage(r contract.Reminder) (string, string) {
	end := ""
	if r.Contract.EndDate != nil {
		end = r.Contract.EndDate.Format(time.DateOnly)
	}
	subject := fmt.Sprintf("Contract ending in %d days", r.DaysRemaining)
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\r\n\r\n", r.Staff.FullName())
	fmt.Fprintf(&b, "Your %s contract", strings.ToLower(string(r.Contract.Type)))
	if r.Contract.JobTitle != "" {
		fmt.Fprintf(&b, " as %s", r.Contract.JobTitle)
	}
	fmt.Fprintf(&b, " ends on %s (%d days from today).\r\n", end, r.DaysRemaining)
	b.WriteString("Please contact HR about renewal.\r\n")
	return subject, b.String()
}

var _ contract.Notifier = ReminderNotifier{}
