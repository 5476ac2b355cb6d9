package domain

import "time"

// View is the display-ready form of a snapshot: relationship ids resolved to names
type View struct {
	State       SnapshotState    `json:"state"`
	Businesses  []BusinessCard   `json:"businesses"`
	Departments []DepartmentCard `json:"departments"`
	Employees   []EmployeeCard   `json:"employees"`
}

// BusinessCard lists a business with its department and employee names
type BusinessCard struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Departments []string `json:"departments"`
	Employees   []string `json:"employees"`
}

// DepartmentCard lists a department with its business and employee names
type DepartmentCard struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Businesses []string `json:"businesses"`
	Employees  []string `json:"employees"`
}

// EmployeeCard shows an employee with the names of its references
type EmployeeCard struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Age        int       `json:"age"`
	DateJoined time.Time `json:"date_joined"`
	Business   string    `json:"business"`
	Department string    `json:"department"`
}

// DeriveView resolves every relationship in the snapshot to display names.
// Dangling ids resolve to "".
func DeriveView(s *Snapshot) *View {
	view := &View{
		State:       s.State,
		Businesses:  make([]BusinessCard, 0, len(s.Businesses)),
		Departments: make([]DepartmentCard, 0, len(s.Departments)),
		Employees:   make([]EmployeeCard, 0, len(s.Employees)),
	}

	businessNames := make(map[string]string, len(s.Businesses))
	for _, b := range s.Businesses {
		businessNames[b.ID] = b.Name
	}
	departmentNames := make(map[string]string, len(s.Departments))
	for _, d := range s.Departments {
		departmentNames[d.ID] = d.Name
	}
	employeeNames := make(map[string]string, len(s.Employees))
	for _, e := range s.Employees {
		employeeNames[e.ID] = e.Name
	}

	for _, b := range s.Businesses {
		view.Businesses = append(view.Businesses, BusinessCard{
			ID:          b.ID,
			Name:        b.Name,
			Departments: resolveNames(b.DepartmentIDs, departmentNames),
			Employees:   resolveNames(b.EmployeeIDs, employeeNames),
		})
	}

	for _, d := range s.Departments {
		view.Departments = append(view.Departments, DepartmentCard{
			ID:         d.ID,
			Name:       d.Name,
			Businesses: resolveNames(d.BusinessIDs, businessNames),
			Employees:  resolveNames(d.EmployeeIDs, employeeNames),
		})
	}

	for _, e := range s.Employees {
		view.Employees = append(view.Employees, EmployeeCard{
			ID:         e.ID,
			Name:       e.Name,
			Age:        e.Age,
			DateJoined: e.DateJoined,
			Business:   businessNames[e.BusinessID],
			Department: departmentNames[e.DepartmentID],
		})
	}

	return view
}

func resolveNames(ids []string, names map[string]string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := names[id]; ok {
			out = append(out, name)
		}
	}
	return out
}
