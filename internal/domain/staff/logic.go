package staff

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode"

	"hrpay/internal/platform/apperr"
)

var (
	kraPinPattern   = regexp.MustCompile(`^[A-Za-z][0-9]{9}[A-Za-z]$`)
	deptCodePattern = regexp.MustCompile(`^[A-Z]{3}$`)
)

var ErrAlreadyProvisioned = apperr.Conflict("staff member already has an account")

// UniqueID is the department code, the alphanumeric part of the national id and the employment year.
func UniqueID(deptCode, nationalID string, year int) string {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, nationalID)
	return fmt.Sprintf("%s%s-%d", deptCode, clean, year)
}

func ValidateDepartment(d Department) error {
	if strings.TrimSpace(d.Name) == "" {
		return apperr.Validation("name", "is required")
	}
	if !deptCodePattern.MatchString(d.Code) {
		return apperr.Validation("code", "must be 3 uppercase letters")
	}
	return nil
}

func Validate(s Staff) error {
	switch {
	case strings.TrimSpace(s.FirstName) == "":
		return apperr.Validation("first_name", "is required")
	case strings.TrimSpace(s.LastName) == "":
		return apperr.Validation("last_name", "is required")
	case strings.TrimSpace(s.NationalID) == "":
		return apperr.Validation("national_id", "is required")
	case s.DepartmentID == "":
		return apperr.Validation("department_id", "is required")
	case s.EmploymentDate.IsZero():
		return apperr.Validation("employment_date", "is required")
	}
	if _, err := mail.ParseAddress(s.Email); err != nil {
		return apperr.Validation("email", "must be a valid email address")
	}
	if err := ValidateKRAPin(s.KRAPin); err != nil {
		return err
	}
	if s.EmploymentStatus != "" && !s.EmploymentStatus.Valid() {
		return apperr.Validation("employment_status", "is not a valid employment status")
	}
	return nil
}

// ValidateKRAPin is shared with payslip generation, where a PIN may be supplied per payslip.
func ValidateKRAPin(pin string) error {
	if pin != "" && !kraPinPattern.MatchString(pin) {
		return apperr.Validation("kra_pin", "must be 11 characters: 1 letter, 9 digits, 1 letter")
	}
	return nil
}
