package repository

import "fmt"

// SortKey selects the ordering of a fetch
type SortKey string

const (
	SortByName       SortKey = "name"
	SortByCreatedAt  SortKey = "created_at"
	SortByAge        SortKey = "age"         // employees only
	SortByDateJoined SortKey = "date_joined" // employees only
)

// Query filters and orders a fetch. The zero value lists everything by name ascending.
type Query struct {
	SortBy     SortKey
	Descending bool

	// ID matches a single record
	ID string
	// Name matches records with exactly this name
	Name string
	// BusinessID matches employees of the business, or departments linked to it
	BusinessID string
	// DepartmentID matches employees of the department, or businesses linked to it
	DepartmentID string
}

// ByName returns the default query
func ByName() Query {
	return Query{SortBy: SortByName}
}

// EmployeesOfBusiness returns a query for the employees of one business
func EmployeesOfBusiness(businessID string) Query {
	return Query{SortBy: SortByName, BusinessID: businessID}
}

// EmployeesOfDepartment returns a query for the employees of one department
func EmployeesOfDepartment(departmentID string) Query {
	return Query{SortBy: SortByName, DepartmentID: departmentID}
}

// SortColumn maps the sort key to a column, rejecting keys the kind doesn't have
func (q Query) SortColumn(employees bool) (string, error) {
	switch q.SortBy {
	case "", SortByName:
		return "name", nil
	case SortByCreatedAt:
		return "created_at", nil
	case SortByAge, SortByDateJoined:
		if employees {
			return string(q.SortBy), nil
		}
	}
	return "", fmt.Errorf("unsupported sort key %q", q.SortBy)
}

// Direction returns the SQL ordering keyword
func (q Query) Direction() string {
	if q.Descending {
		return "DESC"
	}
	return "ASC"
}
