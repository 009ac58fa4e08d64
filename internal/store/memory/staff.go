package memory

import (
	"context"
	"sort"

	"hrpay/internal/domain/staff"
	"hrpay/internal/platform/apperr"
)

func (r repo) InsertDepartment(_ context.Context, d staff.Department) (staff.Department, error) {
	defer r.lock()()
	for _, existing := range r.s.data.departments {
		if existing.Code == d.Code || existing.Name == d.Name {
			return staff.Department{}, apperr.Conflict("department already exists")
		}
	}
	d.ID = newID()
	d.CreatedAt = r.now()
	r.s.data.departments[d.ID] = d
	return d, nil
}

func (r repo) GetDepartment(_ context.Context, departmentID string) (staff.Department, error) {
	defer r.lock()()
	d, ok := r.s.data.departments[departmentID]
	if !ok {
		return staff.Department{}, apperr.NotFound("department")
	}
	return d, nil
}

func (r repo) ListDepartments(_ context.Context) ([]staff.Department, error) {
	defer r.lock()()
	out := make([]staff.Department, 0, len(r.s.data.departments))
	for _, d := range r.s.data.departments {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r repo) InsertStaff(_ context.Context, st staff.Staff) (staff.Staff, error) {
	defer r.lock()()
	if _, ok := r.s.data.departments[st.DepartmentID]; !ok {
		return staff.Staff{}, apperr.NotFound("department")
	}
	for _, existing := range r.s.data.staff {
		if existing.Email == st.Email || existing.NationalID == st.NationalID || existing.UniqueID == st.UniqueID ||
			(st.KRAPin != "" && existing.KRAPin == st.KRAPin) {
			return staff.Staff{}, apperr.Conflict("staff member already exists")
		}
	}
	st.ID = newID()
	st.UserID = ""
	st.CreatedAt = r.now()
	st.UpdatedAt = st.CreatedAt
	r.s.data.staff[st.ID] = st
	return st, nil
}

func (r repo) GetStaff(_ context.Context, staffID string) (staff.Staff, error) {
	defer r.lock()()
	st, ok := r.s.data.staff[staffID]
	if !ok {
		return staff.Staff{}, apperr.NotFound("staff member")
	}
	return st, nil
}

func (r repo) SetEmploymentStatus(_ context.Context, staffID string, status staff.EmploymentStatus) error {
	defer r.lock()()
	st, ok := r.s.data.staff[staffID]
	if !ok {
		return apperr.NotFound("staff member")
	}
	st.EmploymentStatus = status
	st.UpdatedAt = r.now()
	r.s.data.staff[staffID] = st
	return nil
}

func (r repo) InsertAccount(_ context.Context, account staff.Account) (staff.Account, error) {
	defer r.lock()()
	for _, existing := range r.s.data.accounts {
		if existing.Username == account.Username || existing.StaffID == account.StaffID {
			return staff.Account{}, apperr.Conflict("account already exists")
		}
	}
	account.ID = newID()
	account.CreatedAt = r.now()
	r.s.data.accounts[account.ID] = account
	return account, nil
}

func (r repo) SetUserID(_ context.Context, staffID, userID string) error {
	defer r.lock()()
	st, ok := r.s.data.staff[staffID]
	if !ok {
		return apperr.NotFound("staff member")
	}
	st.UserID = userID
	st.UpdatedAt = r.now()
	r.s.data.staff[staffID] = st
	return nil
}
