package domain

import "strings"

// ValidateName checks a business, department or employee name
func ValidateName(kind EntityKind, name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Kind: kind, Field: "name", Reason: "required"}
	}
	return nil
}

// Validate checks the fields of a new employee
func (in EmployeeInput) Validate() error {
	if err := ValidateName(KindEmployee, in.Name); err != nil {
		return err
	}
	if in.Age < 0 {
		return &ValidationError{Kind: KindEmployee, Field: "age", Reason: "must not be negative"}
	}
	return nil
}

// Validate checks the non-nil fields of an employee update
func (u EmployeeUpdate) Validate() error {
	if u.Name != nil {
		if err := ValidateName(KindEmployee, *u.Name); err != nil {
			return err
		}
	}
	if u.Age != nil && *u.Age < 0 {
		return &ValidationError{Kind: KindEmployee, Field: "age", Reason: "must not be negative"}
	}
	return nil
}
