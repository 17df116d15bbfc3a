package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// StaffRole is the clinical role of a staff member. It is stored as text in
// staff.role and always bound as a query parameter.
type StaffRole string

const (
	StaffRoleDoctor        StaffRole = "Doctor"
	StaffRoleNurse         StaffRole = "Nurse"
	StaffRolePharmacist    StaffRole = "Pharmacist"
	StaffRoleLabTechnician StaffRole = "Lab Technician"
	StaffRoleReceptionist  StaffRole = "Receptionist"
	StaffRoleAdministrator StaffRole = "Administrator"
)

var staffRoles = []StaffRole{
	StaffRoleDoctor,
	StaffRoleNurse,
	StaffRolePharmacist,
	StaffRoleLabTechnician,
	StaffRoleReceptionist,
	StaffRoleAdministrator,
}

// ParseStaffRole matches case-insensitively and returns the canonical spelling.
func ParseStaffRole(raw string) (StaffRole, error) {
	trimmed := strings.TrimSpace(raw)
	for _, role := range staffRoles {
		if strings.EqualFold(string(role), trimmed) {
			return role, nil
		}
	}
	return "", fmt.Errorf("%w: unknown staff role %q", ErrInvalidInput, raw)
}

func StaffRoles() []StaffRole {
	out := make([]StaffRole, len(staffRoles))
	copy(out, staffRoles)
	return out
}

func (r StaffRole) Valid() bool {
	for _, role := range staffRoles {
		if r == role {
			return true
		}
	}
	return false
}

func (r StaffRole) String() string {
	return string(r)
}

func (r *StaffRole) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: staff role must be a string", ErrInvalidInput)
	}
	parsed, err := ParseStaffRole(raw)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Scan accepts whatever the column holds so legacy rows with an unknown
// role still load; Valid reports whether it is one of the known roles.
func (r *StaffRole) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*r = ""
	case string:
		if parsed, err := ParseStaffRole(v); err == nil {
			*r = parsed
		} else {
			*r = StaffRole(v)
		}
	case []byte:
		return r.Scan(string(v))
	default:
		return fmt.Errorf("cannot scan %T into StaffRole", src)
	}
	return nil
}

func (r StaffRole) Value() (driver.Value, error) {
	return string(r), nil
}
