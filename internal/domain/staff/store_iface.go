package staff

import "context"

type Repository interface {
	InTx(ctx context.Context, fn func(repo Repository) error) error
	InsertDepartment(ctx context.Context, d Department) (Department, error)
	GetDepartment(ctx context.Context, departmentID string) (Department, error)
	ListDepartments(ctx context.Context) ([]Department, error)
	InsertStaff(ctx context.Context, s Staff) (Staff, error)
	GetStaff(ctx context.Context, staffID string) (Staff, error)
	SetEmploymentStatus(ctx context.Context, staffID string, status EmploymentStatus) error
	InsertAccount(ctx context.Context, account Account) (Account, error)
	SetUserID(ctx context.Context, staffID, userID string) error
}
