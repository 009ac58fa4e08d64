package contract

import (
	"sort"
	"strings"
	"time"

	"hrpay/internal/domain/staff"
	"hrpay/internal/platform/apperr"
)

var (
	ErrAlreadyRenewed    = apperr.Precondition("contract has already been renewed")
	ErrAlreadyTerminated = apperr.Precondition("terminated contracts cannot be renewed")
	ErrTerminalStatus    = apperr.Precondition("renewed and terminated contracts cannot change status")
	ErrRenewedByRenewal  = apperr.Precondition("contracts become RENEWED only through renewal")
)

// Day truncates t to a UTC calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Prepare applies the save rules to c in place: defaults, the PERMANENT end date
// rule, date validation and status auto-correction against today. Applying it
// twice yields the same contract.
func Prepare(c *Contract, today time.Time) error {
	today = Day(today)
	c.JobTitle = strings.TrimSpace(c.JobTitle)
	if c.Status == "" {
		c.Status = StatusActive
	}
	switch {
	case c.StaffID == "":
		return apperr.Validation("staff_id", "is required")
	case !c.Type.Valid():
		return apperr.Validation("contract_type", "must be PERMANENT, LOCUM or CASUAL")
	case !c.Status.Valid():
		return apperr.Validation("status", "is not a valid contract status")
	case c.StartDate.IsZero():
		return apperr.Validation("start_date", "is required")
	case c.Salary.IsNegative():
		return apperr.Validation("salary", "must not be negative")
	}
	c.StartDate = Day(c.StartDate)

	if c.Type == TypePermanent {
		c.EndDate = nil
	} else {
		if c.EndDate == nil {
			return apperr.Validation("end_date", "is required for non-permanent contracts")
		}
		end := Day(*c.EndDate)
		if !end.After(c.StartDate) {
			return apperr.Validation("end_date", "must be after start_date")
		}
		c.EndDate = &end
	}

	c.Status = correctStatus(*c, today)
	return nil
}

func correctStatus(c Contract, today time.Time) Status {
	if c.EndDate == nil {
		return c.Status
	}
	switch {
	case c.EndDate.Before(today) && !c.Status.Terminal():
		return StatusExpired
	case c.Status == StatusExpired && c.EndDate.After(today):
		return StatusActive
	}
	return c.Status
}

// CurrentContract returns the most recent ACTIVE contract by start date, or nil.
func CurrentContract(contracts []Contract) *Contract {
	var active []Contract
	for _, c := range contracts {
		if c.Status == StatusActive {
			active = append(active, c)
		}
	}
	if len(active) == 0 {
		return nil
	}
	sort.SliceStable(active, func(i, j int) bool {
		if !active[i].StartDate.Equal(active[j].StartDate) {
			return active[i].StartDate.After(active[j].StartDate)
		}
		return active[i].CreatedAt.After(active[j].CreatedAt)
	})
	return &active[0]
}

// Change describes the contract that was just saved and the status it had
// before. Previous is empty for a new contract.
type Change struct {
	Previous Status
	Contract Contract
}

// CasualExpired reports whether this save moved a CASUAL contract into EXPIRED.
func (c Change) CasualExpired() bool {
	return c.Contract.Type == TypeCasual && c.Contract.Status == StatusExpired && c.Previous != StatusExpired
}

// DeriveEmploymentStatus computes the staff status after change. A CASUAL
// contract that has just expired forces INACTIVE even if another contract is
// ACTIVE; otherwise any ACTIVE contract keeps the staff ACTIVE. change is nil
// when the changing contract was deleted.
func DeriveEmploymentStatus(change *Change, contracts []Contract) staff.EmploymentStatus {
	if change != nil && change.CasualExpired() {
		return staff.StatusInactive
	}
	for _, c := range contracts {
		if c.Status == StatusActive {
			return staff.StatusActive
		}
	}
	return staff.StatusInactive
}

// CheckStatusChange rejects status edits that only renewal may make, and any
// edit that moves a contract out of a terminal status.
func CheckStatusChange(from, to Status) error {
	switch {
	case from == to:
		return nil
	case from.Terminal():
		return ErrTerminalStatus
	case to == StatusRenewed:
		return ErrRenewedByRenewal
	}
	return nil
}

// Successor builds the contract that replaces original on renewal. It validates
// the request but does not touch original.
func Successor(original Contract, req RenewRequest, today time.Time) (Contract, error) {
	today = Day(today)
	switch original.Status {
	case StatusRenewed:
		return Contract{}, ErrAlreadyRenewed
	case StatusTerminated:
		return Contract{}, ErrAlreadyTerminated
	}

	next := Contract{
		StaffID:      original.StaffID,
		DepartmentID: original.DepartmentID,
		JobTitle:     original.JobTitle,
		Type:         original.Type,
		StartDate:    today,
		Salary:       original.Salary,
		Status:       StatusActive,
	}
	if title := strings.TrimSpace(req.JobTitle); title != "" {
		next.JobTitle = title
	}
	if req.Salary.Valid {
		if req.Salary.Decimal.IsNegative() {
			return Contract{}, apperr.Validation("salary", "must not be negative")
		}
		next.Salary = req.Salary.Decimal
	}

	if req.NewEndDate != nil {
		end := Day(*req.NewEndDate)
		if !end.After(today) || !end.After(original.StartDate) {
			return Contract{}, apperr.Validation("new_end_date", "must be after the contract start date")
		}
		if original.Type != TypePermanent {
			next.EndDate = &end
		}
	} else if original.Type != TypePermanent {
		return Contract{}, apperr.Validation("new_end_date", "is required for non-permanent contracts")
	}
	return next, nil
}
