package contract

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrpay/internal/domain/staff"
	"hrpay/internal/platform/apperr"
)

var today = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

func date(offsetDays int) *time.Time {
	d := today.AddDate(0, 0, offsetDays)
	return &d
}

func casual(status Status, end *time.Time) Contract {
	return Contract{
		StaffID:   "s1",
		Type:      TypeCasual,
		StartDate: today.AddDate(0, -3, 0),
		EndDate:   end,
		Salary:    decimal.NewFromInt(30000),
		Status:    status,
	}
}

func TestPreparePermanentClearsEndDate(t *testing.T) {
	c := Contract{StaffID: "s1", Type: TypePermanent, StartDate: today, EndDate: date(-400), Salary: decimal.NewFromInt(1)}

	require.NoError(t, Prepare(&c, today))
	assert.Nil(t, c.EndDate)
	assert.Equal(t, StatusActive, c.Status)

	c.EndDate = date(30)
	require.NoError(t, Prepare(&c, today))
	assert.Nil(t, c.EndDate)

	again := c
	require.NoError(t, Prepare(&again, today))
	assert.Equal(t, c, again)
}

func TestPrepareRequiresEndDateForFixedTerm(t *testing.T) {
	c := casual(StatusActive, nil)
	err := Prepare(&c, today)
	require.Error(t, err)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "end_date", appErr.Field)

	c = casual(StatusActive, nil)
	c.EndDate = &c.StartDate
	assert.True(t, errors.Is(Prepare(&c, today), apperr.ErrValidation))
}

func TestPrepareRejectsNegativeSalary(t *testing.T) {
	c := casual(StatusActive, date(10))
	c.Salary = decimal.NewFromInt(-1)
	assert.Error(t, Prepare(&c, today))
}

func TestPrepareExpiresPastEndDate(t *testing.T) {
	c := casual(StatusActive, date(-1))
	require.NoError(t, Prepare(&c, today))
	assert.Equal(t, StatusExpired, c.Status)

	again := c
	require.NoError(t, Prepare(&again, today))
	assert.Equal(t, StatusExpired, again.Status)
}

func TestPrepareRevertsExpiredWhenExtended(t *testing.T) {
	c := casual(StatusExpired, date(20))
	require.NoError(t, Prepare(&c, today))
	assert.Equal(t, StatusActive, c.Status)
}

func TestPrepareKeepsStatusOnEndDateToday(t *testing.T) {
	c := casual(StatusExpired, date(0))
	require.NoError(t, Prepare(&c, today))
	assert.Equal(t, StatusExpired, c.Status)

	c = casual(StatusActive, date(0))
	require.NoError(t, Prepare(&c, today))
	assert.Equal(t, StatusActive, c.Status)
}

func TestPrepareNeverOverwritesTerminalStatus(t *testing.T) {
	for _, status := range []Status{StatusTerminated, StatusRenewed} {
		c := casual(status, date(-10))
		require.NoError(t, Prepare(&c, today))
		assert.Equal(t, status, c.Status)
	}
}

func TestCurrentContract(t *testing.T) {
	older := Contract{ID: "old", Status: StatusActive, StartDate: today.AddDate(-1, 0, 0)}
	newer := Contract{ID: "new", Status: StatusActive, StartDate: today}
	renewed := Contract{ID: "renewed", Status: StatusRenewed, StartDate: today.AddDate(0, 0, 1)}

	current := CurrentContract([]Contract{older, renewed, newer})
	require.NotNil(t, current)
	assert.Equal(t, "new", current.ID)

	assert.Nil(t, CurrentContract([]Contract{renewed}))
}

func TestDeriveEmploymentStatus(t *testing.T) {
	active := Contract{Type: TypeLocum, Status: StatusActive}
	expiredLocum := Contract{Type: TypeLocum, Status: StatusExpired}
	expiredCasual := Contract{Type: TypeCasual, Status: StatusExpired}

	assert.Equal(t, staff.StatusActive, DeriveEmploymentStatus(nil, []Contract{active, expiredLocum}))
	assert.Equal(t, staff.StatusInactive, DeriveEmploymentStatus(&Change{Previous: StatusActive, Contract: expiredLocum}, []Contract{expiredLocum}))
	assert.Equal(t, staff.StatusInactive, DeriveEmploymentStatus(nil, nil))

	// A casual contract expiring in this save forces INACTIVE even alongside an active one.
	assert.Equal(t, staff.StatusInactive, DeriveEmploymentStatus(&Change{Previous: StatusActive, Contract: expiredCasual}, []Contract{active, expiredCasual}))
	assert.Equal(t, staff.StatusInactive, DeriveEmploymentStatus(&Change{Contract: expiredCasual}, []Contract{active, expiredCasual}))
	assert.Equal(t, staff.StatusActive, DeriveEmploymentStatus(&Change{Previous: StatusActive, Contract: expiredLocum}, []Contract{active, expiredLocum}))

	// Saving a casual contract that was already expired is not a transition.
	assert.Equal(t, staff.StatusActive, DeriveEmploymentStatus(&Change{Previous: StatusExpired, Contract: expiredCasual}, []Contract{active, expiredCasual}))
}

func TestCheckStatusChange(t *testing.T) {
	assert.NoError(t, CheckStatusChange(StatusActive, StatusActive))
	assert.NoError(t, CheckStatusChange(StatusActive, StatusTerminated))
	assert.NoError(t, CheckStatusChange(StatusExpired, StatusActive))
	assert.NoError(t, CheckStatusChange(StatusRenewed, StatusRenewed))

	assert.ErrorIs(t, CheckStatusChange(StatusRenewed, StatusActive), ErrTerminalStatus)
	assert.ErrorIs(t, CheckStatusChange(StatusTerminated, StatusActive), ErrTerminalStatus)
	assert.ErrorIs(t, CheckStatusChange(StatusActive, StatusRenewed), ErrRenewedByRenewal)
}

func TestSuccessor(t *testing.T) {
	original := casual(StatusActive, date(5))
	original.ID = "c1"
	original.JobTitle = "Nurse"

	next, err := Successor(original, RenewRequest{NewEndDate: date(180)}, today)
	require.NoError(t, err)
	assert.Equal(t, today, next.StartDate)
	assert.Equal(t, *date(180), *next.EndDate)
	assert.Equal(t, StatusActive, next.Status)
	assert.Equal(t, "Nurse", next.JobTitle)
	assert.True(t, original.Salary.Equal(next.Salary))
	assert.Empty(t, next.ID)

	next, err = Successor(original, RenewRequest{NewEndDate: date(90), JobTitle: "Senior nurse", Salary: decimal.NewNullDecimal(decimal.NewFromInt(45000))}, today)
	require.NoError(t, err)
	assert.Equal(t, "Senior nurse", next.JobTitle)
	assert.Equal(t, "45000", next.Salary.String())
}

func TestSuccessorValidation(t *testing.T) {
	original := casual(StatusActive, date(5))

	_, err := Successor(original, RenewRequest{}, today)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = Successor(original, RenewRequest{NewEndDate: date(0)}, today)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	renewed := original
	renewed.Status = StatusRenewed
	_, err = Successor(renewed, RenewRequest{NewEndDate: date(30)}, today)
	assert.ErrorIs(t, err, ErrAlreadyRenewed)
	assert.True(t, errors.Is(err, apperr.ErrPrecondition))

	terminated := original
	terminated.Status = StatusTerminated
	_, err = Successor(terminated, RenewRequest{NewEndDate: date(30)}, today)
	assert.ErrorIs(t, err, ErrAlreadyTerminated)
}

func TestSuccessorPermanentHasNoEndDate(t *testing.T) {
	original := Contract{StaffID: "s1", Type: TypePermanent, StartDate: today.AddDate(-2, 0, 0), Status: StatusActive}

	next, err := Successor(original, RenewRequest{}, today)
	require.NoError(t, err)
	assert.Nil(t, next.EndDate)

	next, err = Successor(original, RenewRequest{NewEndDate: date(100)}, today)
	require.NoError(t, err)
	assert.Nil(t, next.EndDate)
}
