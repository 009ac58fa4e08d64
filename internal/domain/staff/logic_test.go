package staff

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"hrpay/internal/platform/apperr"
)

func TestUniqueID(t *testing.T) {
	assert.Equal(t, "FIN12345678-2021", UniqueID("FIN", "12-345/678", 2021))
	assert.Equal(t, "HRMab12-2024", UniqueID("HRM", " ab 12 ", 2024))
}

func TestFullName(t *testing.T) {
	assert.Equal(t, "Jane Doe", Staff{FirstName: "Jane", LastName: "Doe"}.FullName())
	assert.Equal(t, "Jane W Doe", Staff{FirstName: "Jane", MiddleName: "W", LastName: "Doe"}.FullName())
}

func validStaff() Staff {
	return Staff{
		FirstName:      "Jane",
		LastName:       "Doe",
		Email:          "jane@example.com",
		NationalID:     "12345678",
		DepartmentID:   "d1",
		EmploymentDate: time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(validStaff()))

	s := validStaff()
	s.KRAPin = "A123456789Z"
	assert.NoError(t, Validate(s))

	s.KRAPin = "1234"
	err := Validate(s)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	var appErr *apperr.Error
	if assert.ErrorAs(t, err, &appErr) {
		assert.Equal(t, "kra_pin", appErr.Field)
	}

	s = validStaff()
	s.Email = "not-an-email"
	assert.Error(t, Validate(s))

	s = validStaff()
	s.EmploymentStatus = "EXPIRED"
	assert.Error(t, Validate(s), "EXPIRED is not a staff status")
}

func TestValidateDepartment(t *testing.T) {
	assert.NoError(t, ValidateDepartment(Department{Name: "Finance", Code: "FIN"}))
	assert.Error(t, ValidateDepartment(Department{Name: "Finance", Code: "fin"}))
	assert.Error(t, ValidateDepartment(Department{Name: "", Code: "FIN"}))
}
