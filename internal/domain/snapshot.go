package domain

import (
	"sort"
	"time"
)

// SnapshotState describes where the relationship graph is in its refresh cycle
type SnapshotState string

const (
	// SnapshotIdle means the collections reflect the last committed state
	SnapshotIdle SnapshotState = "idle"
	// SnapshotPending means a mutation is in flight and the collections are cleared
	SnapshotPending SnapshotState = "pending"
	// SnapshotFailed means the last refresh could not read the store
	SnapshotFailed SnapshotState = "failed"
)

// Snapshot is the cached copy of all three collections.
// It is read-only once published.
type Snapshot struct {
	State       SnapshotState `json:"state" yaml:"state"`
	Version     uint64        `json:"version" yaml:"version"`
	RefreshedAt time.Time     `json:"refreshed_at" yaml:"-"`
	Businesses  []Business    `json:"businesses" yaml:"businesses"`
	Departments []Department  `json:"departments" yaml:"departments"`
	Employees   []Employee    `json:"employees" yaml:"employees"`
}

// EmptySnapshot returns a snapshot with no records in the given state
func EmptySnapshot(state SnapshotState, version uint64) *Snapshot {
	return &Snapshot{
		State:       state,
		Version:     version,
		Businesses:  []Business{},
		Departments: []Department{},
		Employees:   []Employee{},
	}
}

// IsLoading reports whether a refresh is in flight
func (s *Snapshot) IsLoading() bool {
	return s.State == SnapshotPending
}

// IsEmpty reports whether the snapshot holds no records at all
func (s *Snapshot) IsEmpty() bool {
	return len(s.Businesses) == 0 && len(s.Departments) == 0 && len(s.Employees) == 0
}

// Business returns the business with id, or nil
func (s *Snapshot) Business(id string) *Business {
	for i := range s.Businesses {
		if s.Businesses[i].ID == id {
			return &s.Businesses[i]
		}
	}
	return nil
}

// Department returns the department with id, or nil
func (s *Snapshot) Department(id string) *Department {
	for i := range s.Departments {
		if s.Departments[i].ID == id {
			return &s.Departments[i]
		}
	}
	return nil
}

// Employee returns the employee with id, or nil
func (s *Snapshot) Employee(id string) *Employee {
	for i := range s.Employees {
		if s.Employees[i].ID == id {
			return &s.Employees[i]
		}
	}
	return nil
}

// BusinessByName returns the first business named name, or nil
func (s *Snapshot) BusinessByName(name string) *Business {
	for i := range s.Businesses {
		if s.Businesses[i].Name == name {
			return &s.Businesses[i]
		}
	}
	return nil
}

// DepartmentByName returns the first department named name, or nil
func (s *Snapshot) DepartmentByName(name string) *Department {
	for i := range s.Departments {
		if s.Departments[i].Name == name {
			return &s.Departments[i]
		}
	}
	return nil
}

// EmployeeByName returns the first employee named name, or nil
func (s *Snapshot) EmployeeByName(name string) *Employee {
	for i := range s.Employees {
		if s.Employees[i].Name == name {
			return &s.Employees[i]
		}
	}
	return nil
}

// Links returns every business/department edge, ordered by business then department
func (s *Snapshot) Links() []Link {
	links := make([]Link, 0)
	for _, b := range s.Businesses {
		for _, deptID := range b.DepartmentIDs {
			links = append(links, NewLink(b.ID, deptID))
		}
	}
	sort.SliceStable(links, func(i, j int) bool {
		if links[i].BusinessID != links[j].BusinessID {
			return links[i].BusinessID < links[j].BusinessID
		}
		return links[i].DepartmentID < links[j].DepartmentID
	})
	return links
}

// Clone returns a deep copy so callers can't mutate the published snapshot
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{
		State:       s.State,
		Version:     s.Version,
		RefreshedAt: s.RefreshedAt,
		Businesses:  make([]Business, len(s.Businesses)),
		Departments: make([]Department, len(s.Departments)),
		Employees:   make([]Employee, len(s.Employees)),
	}
	for i, b := range s.Businesses {
		b.DepartmentIDs = append([]string(nil), b.DepartmentIDs...)
		b.EmployeeIDs = append([]string(nil), b.EmployeeIDs...)
		c.Businesses[i] = b
	}
	for i, d := range s.Departments {
		d.BusinessIDs = append([]string(nil), d.BusinessIDs...)
		d.EmployeeIDs = append([]string(nil), d.EmployeeIDs...)
		c.Departments[i] = d
	}
	copy(c.Employees, s.Employees)
	return c
}
