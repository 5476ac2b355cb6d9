package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"relgraph/internal/domain"
)

// ============================================================================
// Null and Time Conversion Helpers
// ============================================================================

// timeLayout is fixed width so stored timestamps sort chronologically as text
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// fmtTime formats t in UTC with the fixed-width layout
func fmtTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime parses a timestamp written by fmtTime
func parseTime(raw string) (time.Time, error) {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	return t, nil
}

// placeholders returns "?, ?, ?" for n arguments
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// idArgs converts ids to query arguments
func idArgs(ids []string) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// ============================================================================
// Schema Evolution Guide
// ============================================================================
//
// To add a column to a record table:
// 1. Add field to the row struct (below)
// 2. Update scanArgs() - APPEND to end to match column order
// 3. Update the columns constant - APPEND to end
// 4. Update toDomain() to map the new field
// 5. Update the insert args if the column is writable
// 6. Add the column in store/schema.go and bump currentSchemaVersion
//
// CRITICAL: Column order must match between the columns constant,
// scanArgs() and every SELECT using the constant.

// ============================================================================
// Business Row Scanner
// ============================================================================

// businessRow holds all columns from a business query for scanning
type businessRow struct {
	ID        string
	Name      string
	CreatedAt string
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match businessColumns order exactly: id, name, created_at
func (r *businessRow) scanArgs() []interface{} {
	return []interface{}{&r.ID, &r.Name, &r.CreatedAt}
}

// toDomain converts the scanned row to a domain.Business with empty relationship sets
func (r *businessRow) toDomain() (domain.Business, error) {
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return domain.Business{}, fmt.Errorf("business %s: %w", r.ID, err)
	}
	return domain.Business{
		ID:            r.ID,
		Name:          r.Name,
		DepartmentIDs: []string{},
		EmployeeIDs:   []string{},
		CreatedAt:     createdAt,
	}, nil
}

const businessColumns = `id, name, created_at`

// ============================================================================
// Department Row Scanner
// ============================================================================

// departmentRow holds all columns from a department query for scanning
type departmentRow struct {
	ID        string
	Name      string
	CreatedAt string
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match departmentColumns order exactly: id, name, created_at
func (r *departmentRow) scanArgs() []interface{} {
	return []interface{}{&r.ID, &r.Name, &r.CreatedAt}
}

// toDomain converts the scanned row to a domain.Department with empty relationship sets
func (r *departmentRow) toDomain() (domain.Department, error) {
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return domain.Department{}, fmt.Errorf("department %s: %w", r.ID, err)
	}
	return domain.Department{
		ID:          r.ID,
		Name:        r.Name,
		BusinessIDs: []string{},
		EmployeeIDs: []string{},
		CreatedAt:   createdAt,
	}, nil
}

const departmentColumns = `id, name, created_at`

// ============================================================================
// Employee Row Scanner
// ============================================================================

// employeeRow holds all columns from an employee query for scanning
type employeeRow struct {
	ID           string
	Name         string
	Age          int
	DateJoined   string
	BusinessID   sql.NullString
	DepartmentID sql.NullString
	CreatedAt    string
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match employeeColumns order exactly:
// id, name, age, date_joined, business_id, department_id, created_at
func (r *employeeRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,           // 1
		&r.Name,         // 2
		&r.Age,          // 3
		&r.DateJoined,   // 4
		&r.BusinessID,   // 5
		&r.DepartmentID, // 6
		&r.CreatedAt,    // 7
	}
}

// toDomain converts the scanned row to a domain.Employee
func (r *employeeRow) toDomain() (domain.Employee, error) {
	joined, err := parseTime(r.DateJoined)
	if err != nil {
		return domain.Employee{}, fmt.Errorf("employee %s: %w", r.ID, err)
	}
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return domain.Employee{}, fmt.Errorf("employee %s: %w", r.ID, err)
	}
	return domain.Employee{
		ID:           r.ID,
		Name:         r.Name,
		Age:          r.Age,
		DateJoined:   joined,
		BusinessID:   nullToString(r.BusinessID),
		DepartmentID: nullToString(r.DepartmentID),
		CreatedAt:    createdAt,
	}, nil
}

const employeeColumns = `id, name, age, date_joined, business_id, department_id, created_at`

// employeeInsertArgs prepares arguments for employee INSERT
// Returns: id, name, age, date_joined, business_id, department_id, created_at
func employeeInsertArgs(e *domain.Employee) []interface{} {
	return []interface{}{
		e.ID,
		e.Name,
		e.Age,
		fmtTime(e.DateJoined),
		stringToNull(e.BusinessID),
		stringToNull(e.DepartmentID),
		fmtTime(e.CreatedAt),
	}
}
