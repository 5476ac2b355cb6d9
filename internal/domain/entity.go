package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// EntityKind names one of the persisted record types
type EntityKind string

const (
	KindBusiness   EntityKind = "business"
	KindDepartment EntityKind = "department"
	KindEmployee   EntityKind = "employee"
)

// Business is a company that spans departments and employs people
type Business struct {
	ID            string    `json:"id" yaml:"id"`
	Name          string    `json:"name" yaml:"name"`
	DepartmentIDs []string  `json:"department_ids" yaml:"department_ids"`
	EmployeeIDs   []string  `json:"employee_ids" yaml:"employee_ids"`
	CreatedAt     time.Time `json:"created_at" yaml:"-"`
}

// Department is shared between any number of businesses
type Department struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	BusinessIDs []string  `json:"business_ids" yaml:"business_ids"`
	EmployeeIDs []string  `json:"employee_ids" yaml:"employee_ids"`
	CreatedAt   time.Time `json:"created_at" yaml:"-"`
}

// Employee belongs to at most one business and one department.
// An empty BusinessID or DepartmentID means no reference.
type Employee struct {
	ID           string    `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	Age          int       `json:"age" yaml:"age"`
	DateJoined   time.Time `json:"date_joined" yaml:"date_joined"`
	BusinessID   string    `json:"business_id,omitempty" yaml:"business_id,omitempty"`
	DepartmentID string    `json:"department_id,omitempty" yaml:"department_id,omitempty"`
	CreatedAt    time.Time `json:"created_at" yaml:"-"`
}

// EmployeeInput holds the fields needed to create an employee
type EmployeeInput struct {
	Name         string    `json:"name"`
	Age          int       `json:"age"`
	DateJoined   time.Time `json:"date_joined"`
	BusinessID   string    `json:"business_id,omitempty"`
	DepartmentID string    `json:"department_id,omitempty"`
}

// EmployeeUpdate changes selected employee fields. Nil fields are left alone;
// a BusinessID or DepartmentID pointing at "" clears that reference.
type EmployeeUpdate struct {
	Name         *string    `json:"name,omitempty"`
	Age          *int       `json:"age,omitempty"`
	DateJoined   *time.Time `json:"date_joined,omitempty"`
	BusinessID   *string    `json:"business_id,omitempty"`
	DepartmentID *string    `json:"department_id,omitempty"`
}

// IsEmpty reports whether the update changes nothing
func (u EmployeeUpdate) IsEmpty() bool {
	return u.Name == nil && u.Age == nil && u.DateJoined == nil &&
		u.BusinessID == nil && u.DepartmentID == nil
}

// NewID returns a fresh opaque identity
func NewID() string {
	return uuid.NewString()
}

// NewBusiness creates a business with a fresh identity and no relationships
func NewBusiness(name string) *Business {
	return &Business{
		ID:            NewID(),
		Name:          strings.TrimSpace(name),
		DepartmentIDs: []string{},
		EmployeeIDs:   []string{},
		CreatedAt:     time.Now().UTC(),
	}
}

// NewDepartment creates a department with a fresh identity and no relationships
func NewDepartment(name string) *Department {
	return &Department{
		ID:          NewID(),
		Name:        strings.TrimSpace(name),
		BusinessIDs: []string{},
		EmployeeIDs: []string{},
		CreatedAt:   time.Now().UTC(),
	}
}

// NewEmployee creates an employee from input with a fresh identity.
// A zero DateJoined defaults to now.
func NewEmployee(in EmployeeInput) *Employee {
	joined := in.DateJoined
	if joined.IsZero() {
		joined = time.Now()
	}
	return &Employee{
		ID:           NewID(),
		Name:         strings.TrimSpace(in.Name),
		Age:          in.Age,
		DateJoined:   joined.UTC(),
		BusinessID:   in.BusinessID,
		DepartmentID: in.DepartmentID,
		CreatedAt:    time.Now().UTC(),
	}
}

// HasDepartment reports whether the business is linked to the department
func (b *Business) HasDepartment(departmentID string) bool {
	return containsID(b.DepartmentIDs, departmentID)
}

// HasEmployee reports whether the business employs the employee
func (b *Business) HasEmployee(employeeID string) bool {
	return containsID(b.EmployeeIDs, employeeID)
}

// HasBusiness reports whether the department is linked to the business
func (d *Department) HasBusiness(businessID string) bool {
	return containsID(d.BusinessIDs, businessID)
}

// HasEmployee reports whether the employee works in the department
func (d *Department) HasEmployee(employeeID string) bool {
	return containsID(d.EmployeeIDs, employeeID)
}

// Apply copies the non-nil fields of u onto the employee
func (e *Employee) Apply(u EmployeeUpdate) {
	if u.Name != nil {
		e.Name = strings.TrimSpace(*u.Name)
	}
	if u.Age != nil {
		e.Age = *u.Age
	}
	if u.DateJoined != nil {
		e.DateJoined = u.DateJoined.UTC()
	}
	if u.BusinessID != nil {
		e.BusinessID = *u.BusinessID
	}
	if u.DepartmentID != nil {
		e.DepartmentID = *u.DepartmentID
	}
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
