package staff

import (
	"context"
	"log/slog"
	"strings"

	"hrpay/internal/auth"
	"hrpay/internal/platform/apperr"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

func (s *Service) CreateDepartment(ctx context.Context, d Department) (Department, error) {
	d.Code = strings.ToUpper(strings.TrimSpace(d.Code))
	if err := ValidateDepartment(d); err != nil {
		return Department{}, err
	}
	return s.repo.InsertDepartment(ctx, d)
}

func (s *Service) ListDepartments(ctx context.Context) ([]Department, error) {
	return s.repo.ListDepartments(ctx)
}

// Create stores the staff record only. Accounts are provisioned separately through ProvisionAccount.
func (s *Service) Create(ctx context.Context, st Staff) (Staff, error) {
	if st.EmploymentStatus == "" {
		st.EmploymentStatus = StatusActive
	}
	if err := Validate(st); err != nil {
		return Staff{}, err
	}
	var created Staff
	err := s.repo.InTx(ctx, func(repo Repository) error {
		dept, err := repo.GetDepartment(ctx, st.DepartmentID)
		if err != nil {
			return err
		}
		st.UniqueID = UniqueID(dept.Code, st.NationalID, st.EmploymentDate.Year())
		created, err = repo.InsertStaff(ctx, st)
		return err
	})
	if err != nil {
		return Staff{}, err
	}
	s.logger.Info("staff created", "staffId", created.ID, "uniqueId", created.UniqueID)
	return created, nil
}

func (s *Service) Get(ctx context.Context, staffID string) (Staff, error) {
	return s.repo.GetStaff(ctx, staffID)
}

type ProvisionRequest struct {
	Username string
	Password string
}

func (s *Service) ProvisionAccount(ctx context.Context, staffID string, req ProvisionRequest) (Account, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return Account{}, apperr.Validation("username", "is required")
	}
	if len(req.Password) < 8 {
		return Account{}, apperr.Validation("password", "must be at least 8 characters")
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return Account{}, err
	}

	var account Account
	err = s.repo.InTx(ctx, func(repo Repository) error {
		st, err := repo.GetStaff(ctx, staffID)
		if err != nil {
			return err
		}
		if st.UserID != "" {
			return ErrAlreadyProvisioned
		}
		account, err = repo.InsertAccount(ctx, Account{StaffID: staffID, Username: username, PasswordHash: hash})
		if err != nil {
			return err
		}
		return repo.SetUserID(ctx, staffID, account.ID)
	})
	if err != nil {
		return Account{}, err
	}
	s.logger.Info("staff account provisioned", "staffId", staffID, "userId", account.ID)
	return account, nil
}
