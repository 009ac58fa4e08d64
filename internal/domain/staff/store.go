package staff

import (
	"context"

	"github.com/jackc/pgx/v5"

	"hrpay/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) InTx(ctx context.Context, fn func(repo Repository) error) error {
	return querier.InTx(ctx, s.DB, func(tx querier.Querier) error {
		return fn(NewStore(tx))
	})
}

func (s *Store) InsertDepartment(ctx context.Context, d Department) (Department, error) {
	err := s.DB.QueryRow(ctx, `
    INSERT INTO departments (name, code)
    VALUES ($1,$2)
    RETURNING id, created_at
  `, d.Name, d.Code).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return Department{}, querier.MapError(err, "department")
	}
	return d, nil
}

func (s *Store) GetDepartment(ctx context.Context, departmentID string) (Department, error) {
	var d Department
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, code, created_at
    FROM departments
    WHERE id = $1
  `, departmentID).Scan(&d.ID, &d.Name, &d.Code, &d.CreatedAt)
	if err != nil {
		return Department{}, querier.MapError(err, "department")
	}
	return d, nil
}

func (s *Store) ListDepartments(ctx context.Context) ([]Department, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, code, created_at
    FROM departments
    ORDER BY name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Department
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.Name, &d.Code, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

const staffColumns = `id, unique_id, first_name, COALESCE(middle_name, ''), last_name, email, national_id, department_id,
           position, employment_date, employment_status, COALESCE(kra_pin, ''), bank_name, bank_branch, bank_branch_code,
           account_no, COALESCE(user_id::text, ''), created_at, updated_at`

func scanStaff(row pgx.Row) (Staff, error) {
	var st Staff
	err := row.Scan(&st.ID, &st.UniqueID, &st.FirstName, &st.MiddleName, &st.LastName, &st.Email, &st.NationalID, &st.DepartmentID,
		&st.Position, &st.EmploymentDate, &st.EmploymentStatus, &st.KRAPin, &st.BankName, &st.BankBranch, &st.BankBranchCode,
		&st.AccountNo, &st.UserID, &st.CreatedAt, &st.UpdatedAt)
	return st, err
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func (s *Store) InsertStaff(ctx context.Context, st Staff) (Staff, error) {
	created, err := scanStaff(s.DB.QueryRow(ctx, `
    INSERT INTO staff (unique_id, first_name, middle_name, last_name, email, national_id, department_id, position,
                       employment_date, employment_status, kra_pin, bank_name, bank_branch, bank_branch_code, account_no)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
    RETURNING `+staffColumns,
		st.UniqueID, st.FirstName, nullIfEmpty(st.MiddleName), st.LastName, st.Email, st.NationalID, st.DepartmentID, st.Position,
		st.EmploymentDate, st.EmploymentStatus, nullIfEmpty(st.KRAPin), st.BankName, st.BankBranch, st.BankBranchCode, st.AccountNo))
	if err != nil {
		return Staff{}, querier.MapError(err, "staff member")
	}
	return created, nil
}

func (s *Store) GetStaff(ctx context.Context, staffID string) (Staff, error) {
	st, err := scanStaff(s.DB.QueryRow(ctx, `
    SELECT `+staffColumns+`
    FROM staff
    WHERE id = $1
  `, staffID))
	if err != nil {
		return Staff{}, querier.MapError(err, "staff member")
	}
	return st, nil
}

func (s *Store) SetEmploymentStatus(ctx context.Context, staffID string, status EmploymentStatus) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE staff SET employment_status = $2, updated_at = now()
    WHERE id = $1
  `, staffID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return querier.MapError(pgx.ErrNoRows, "staff member")
	}
	return nil
}

func (s *Store) InsertAccount(ctx context.Context, account Account) (Account, error) {
	err := s.DB.QueryRow(ctx, `
    INSERT INTO users (staff_id, username, password_hash)
    VALUES ($1,$2,$3)
    RETURNING id, created_at
  `, account.StaffID, account.Username, account.PasswordHash).Scan(&account.ID, &account.CreatedAt)
	if err != nil {
		return Account{}, querier.MapError(err, "account")
	}
	return account, nil
}

func (s *Store) SetUserID(ctx context.Context, staffID, userID string) error {
	_, err := s.DB.Exec(ctx, `UPDATE staff SET user_id = $2, updated_at = now() WHERE id = $1`, staffID, userID)
	return err
}

var _ Repository = (*Store)(nil)
