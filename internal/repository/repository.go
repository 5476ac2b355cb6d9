package repository

import (
	"context"

	"relgraph/internal/domain"
)

// Repository defines the interface for entity data access
type Repository interface {
	// Read operations
	ListBusinesses(ctx context.Context, q Query) ([]domain.Business, error)
	ListDepartments(ctx context.Context, q Query) ([]domain.Department, error)
	ListEmployees(ctx context.Context, q Query) ([]domain.Employee, error)
	GetBusiness(ctx context.Context, id string) (*domain.Business, error)
	GetDepartment(ctx context.Context, id string) (*domain.Department, error)
	GetEmployee(ctx context.Context, id string) (*domain.Employee, error)

	// Write operations
	CreateBusiness(ctx context.Context, name string) (*domain.Business, error)
	CreateDepartment(ctx context.Context, name string) (*domain.Department, error)
	CreateEmployee(ctx context.Context, in domain.EmployeeInput) (*domain.Employee, error)
	UpdateEmployee(ctx context.Context, id string, update domain.EmployeeUpdate) (*domain.Employee, error)
	DeleteBusiness(ctx context.Context, id string) error
	DeleteDepartment(ctx context.Context, id string) error
	DeleteEmployee(ctx context.Context, id string) error

	// Relationship edges
	LinkBusinessDepartment(ctx context.Context, businessID, departmentID string) (bool, error)
	UnlinkBusinessDepartment(ctx context.Context, businessID, departmentID string) (bool, error)
}

// UnitOfWork runs repository work inside a transaction
type UnitOfWork interface {
	// Update commits when fn returns nil
	Update(ctx context.Context, fn func(Repository) error) error
	// View never writes
	View(ctx context.Context, fn func(Repository) error) error
}
