package memory

import (
	"context"
	"sort"
	"time"

	"hrpay/internal/domain/contract"
	"hrpay/internal/platform/apperr"
)

func cloneDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := *t
	return &d
}

func cloneContract(c contract.Contract) contract.Contract {
	c.EndDate = cloneDate(c.EndDate)
	return c
}

func sortContracts(cs []contract.Contract) {
	sort.Slice(cs, func(i, j int) bool {
		if !cs[i].StartDate.Equal(cs[j].StartDate) {
			return cs[i].StartDate.After(cs[j].StartDate)
		}
		return cs[i].CreatedAt.After(cs[j].CreatedAt)
	})
}

func (r repo) filterContracts(keep func(contract.Contract) bool) []contract.Contract {
	var out []contract.Contract
	for _, c := range r.s.data.contracts {
		if keep(c) {
			out = append(out, cloneContract(c))
		}
	}
	return out
}

func (r repo) GetContract(_ context.Context, contractID string) (contract.Contract, error) {
	defer r.lock()()
	c, ok := r.s.data.contracts[contractID]
	if !ok {
		return contract.Contract{}, apperr.NotFound("contract")
	}
	return cloneContract(c), nil
}

// LockContract is GetContract: the store mutex already excludes other writers.
func (r repo) LockContract(ctx context.Context, contractID string) (contract.Contract, error) {
	return r.GetContract(ctx, contractID)
}

func (r repo) ListContractsByStaff(_ context.Context, staffID string) ([]contract.Contract, error) {
	defer r.lock()()
	out := r.filterContracts(func(c contract.Contract) bool { return c.StaffID == staffID })
	sortContracts(out)
	return out, nil
}

func (r repo) InsertContract(_ context.Context, c contract.Contract) (contract.Contract, error) {
	defer r.lock()()
	if _, ok := r.s.data.staff[c.StaffID]; !ok {
		return contract.Contract{}, apperr.NotFound("staff member")
	}
	c.ID = newID()
	c.CreatedAt = r.now()
	c.UpdatedAt = c.CreatedAt
	c = cloneContract(c)
	r.s.data.contracts[c.ID] = c
	return cloneContract(c), nil
}

func (r repo) UpdateContract(_ context.Context, c contract.Contract) (contract.Contract, error) {
	defer r.lock()()
	current, ok := r.s.data.contracts[c.ID]
	if !ok {
		return contract.Contract{}, apperr.NotFound("contract")
	}
	c.StaffID = current.StaffID
	c.CreatedAt = current.CreatedAt
	c.UpdatedAt = r.now()
	c = cloneContract(c)
	r.s.data.contracts[c.ID] = c
	return cloneContract(c), nil
}

func (r repo) DeleteContract(_ context.Context, contractID string) error {
	defer r.lock()()
	if _, ok := r.s.data.contracts[contractID]; !ok {
		return apperr.NotFound("contract")
	}
	delete(r.s.data.contracts, contractID)
	for id, o := range r.s.data.overrides {
		if o.ContractID == contractID {
			delete(r.s.data.overrides, id)
		}
	}
	return nil
}

func (r repo) InsertRenewal(_ context.Context, rn contract.Renewal) (contract.Renewal, error) {
	defer r.lock()()
	rn.ID = newID()
	rn.RenewedAt = r.now()
	rn.PreviousEndDate = cloneDate(rn.PreviousEndDate)
	rn.NewEndDate = cloneDate(rn.NewEndDate)
	r.s.data.renewals = append(r.s.data.renewals, rn)
	return rn, nil
}

func (r repo) ListRenewals(_ context.Context, contractID string) ([]contract.Renewal, error) {
	defer r.lock()()
	var out []contract.Renewal
	for i := len(r.s.data.renewals) - 1; i >= 0; i-- {
		rn := r.s.data.renewals[i]
		if rn.ContractID == contractID || rn.NewContractID == contractID {
			out = append(out, rn)
		}
	}
	return out, nil
}

func (r repo) ListContractsToExpire(_ context.Context, today time.Time) ([]contract.Contract, error) {
	defer r.lock()()
	out := r.filterContracts(func(c contract.Contract) bool {
		return c.EndDate != nil && c.EndDate.Before(today) &&
			c.Status != contract.StatusExpired && !c.Status.Terminal()
	})
	sort.Slice(out, func(i, j int) bool { return out[i].EndDate.Before(*out[j].EndDate) })
	return out, nil
}

func (r repo) ListContractsEndingBetween(_ context.Context, from, to time.Time) ([]contract.Contract, error) {
	defer r.lock()()
	out := r.filterContracts(func(c contract.Contract) bool {
		return c.EndDate != nil && !c.EndDate.Before(from) && !c.EndDate.After(to) &&
			c.Status == contract.StatusActive && !c.RenewalReminderSent
	})
	sort.Slice(out, func(i, j int) bool { return out[i].EndDate.Before(*out[j].EndDate) })
	return out, nil
}

func (r repo) ListContractsActiveDuring(_ context.Context, start, end time.Time) ([]contract.Contract, error) {
	defer r.lock()()
	out := r.filterContracts(func(c contract.Contract) bool {
		return c.Status == contract.StatusActive && !c.StartDate.After(end) &&
			(c.EndDate == nil || !c.EndDate.Before(start))
	})
	sortContracts(out)
	return out, nil
}

func (r repo) MarkReminderSent(_ context.Context, contractID string) error {
	defer r.lock()()
	c, ok := r.s.data.contracts[contractID]
	if !ok {
		return apperr.NotFound("contract")
	}
	c.RenewalReminderSent = true
	c.UpdatedAt = r.now()
	r.s.data.contracts[contractID] = c
	return nil
}
