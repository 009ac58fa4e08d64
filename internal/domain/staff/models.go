package staff

import (
	"strings"
	"time"
)

type EmploymentStatus string

const (
	StatusActive     EmploymentStatus = "ACTIVE"
	StatusInactive   EmploymentStatus = "INACTIVE"
	StatusTerminated EmploymentStatus = "TERMINATED"
	StatusRetired    EmploymentStatus = "RETIRED"
)

func (s EmploymentStatus) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusTerminated, StatusRetired:
		return true
	}
	return false
}

type Department struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"createdAt"`
}

// BankDetails is copied onto every payslip at generation time.
type BankDetails struct {
	BankName       string `json:"bankName"`
	BankBranch     string `json:"bankBranch"`
	BankBranchCode string `json:"bankBranchCode"`
	AccountNo      string `json:"accountNo"`
}

type Staff struct {
	ID               string           `json:"id"`
	UniqueID         string           `json:"uniqueId"`
	FirstName        string           `json:"firstName"`
	MiddleName       string           `json:"middleName,omitempty"`
	LastName         string           `json:"lastName"`
	Email            string           `json:"email"`
	NationalID       string           `json:"nationalId"`
	DepartmentID     string           `json:"departmentId"`
	Position         string           `json:"position"`
	EmploymentDate   time.Time        `json:"employmentDate"`
	EmploymentStatus EmploymentStatus `json:"employmentStatus"`
	KRAPin           string           `json:"kraPin,omitempty"`
	BankDetails
	UserID    string    `json:"userId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s Staff) FullName() string {
	parts := []string{s.FirstName, s.MiddleName, s.LastName}
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

// Account is the login identity provisioned for a staff record.
type Account struct {
	ID           string    `json:"id"`
	StaffID      string    `json:"staffId"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
