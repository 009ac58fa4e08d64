package auth

const (
	RoleAdmin = "ADMIN"
	RoleHR    = "HR"
	RoleStaff = "STAFF"
)

const (
	PermStaffRead       = "staff.read"
	PermStaffWrite      = "staff.write"
	PermDeductionsRead  = "deductions.read"
	PermDeductionsWrite = "deductions.write"
	PermContractsRead   = "contracts.read"
	PermContractsWrite  = "contracts.write"
	PermPayrollRead     = "payroll.read"
	PermPayrollWrite    = "payroll.write"
	PermPayrollRun      = "payroll.run"
	PermAuditRead       = "audit.read"
	PermJobsRead        = "jobs.read"
)

var DefaultPermissions = []string{
	PermStaffRead,
	PermStaffWrite,
	PermDeductionsRead,
	PermDeductionsWrite,
	PermContractsRead,
	PermContractsWrite,
	PermPayrollRead,
	PermPayrollWrite,
	PermPayrollRun,
	PermAuditRead,
	PermJobsRead,
}

var RolePermissions = map[string][]string{
	RoleStaff: {
		PermStaffRead,
		PermDeductionsRead,
		PermContractsRead,
		PermPayrollRead,
	},
	RoleHR: {
		PermStaffRead,
		PermStaffWrite,
		PermDeductionsRead,
		PermDeductionsWrite,
		PermContractsRead,
		PermContractsWrite,
		PermPayrollRead,
		PermPayrollWrite,
		PermJobsRead,
	},
	RoleAdmin: DefaultPermissions,
}

func HasPermission(role, permission string) bool {
	for _, p := range RolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// CanAccessStaff reports whether the user may read records of staffID. STAFF users
// only see their own records.
func (u UserContext) CanAccessStaff(staffID string) bool {
	if u.Role != RoleStaff {
		return true
	}
	return u.StaffID != "" && u.StaffID == staffID
}
