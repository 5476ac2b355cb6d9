package domain

import (
	"fmt"
	"time"
)

// Fixture is a batch of records for seeding a store. Departments and
// employees refer to businesses and departments by key: a record's Ref when
// one is declared, otherwise its name. Exports set Ref to the record id so
// records that share a name keep their own edges.
type Fixture struct {
	Businesses  []FixtureBusiness   `json:"businesses" yaml:"businesses"`
	Departments []FixtureDepartment `json:"departments" yaml:"departments"`
	Employees   []FixtureEmployee   `json:"employees" yaml:"employees"`
}

// FixtureBusiness declares a business
type FixtureBusiness struct {
	Ref  string `json:"ref,omitempty" yaml:"ref,omitempty"`
	Name string `json:"name" yaml:"name"`
}

// FixtureDepartment declares a department and the keys of the businesses it
// is linked to
type FixtureDepartment struct {
	Ref        string   `json:"ref,omitempty" yaml:"ref,omitempty"`
	Name       string   `json:"name" yaml:"name"`
	Businesses []string `json:"businesses,omitempty" yaml:"businesses,omitempty"`
}

// FixtureEmployee declares an employee and the keys of its references
type FixtureEmployee struct {
	Name       string    `json:"name" yaml:"name"`
	Age        int       `json:"age" yaml:"age"`
	DateJoined time.Time `json:"date_joined,omitempty" yaml:"date_joined,omitempty"`
	Business   string    `json:"business,omitempty" yaml:"business,omitempty"`
	Department string    `json:"department,omitempty" yaml:"department,omitempty"`
}

// NewFixture creates an empty fixture
func NewFixture() *Fixture {
	return &Fixture{
		Businesses:  make([]FixtureBusiness, 0),
		Departments: make([]FixtureDepartment, 0),
		Employees:   make([]FixtureEmployee, 0),
	}
}

// FixtureKeys resolves reference keys to declaration indexes.
// Refs take precedence over names; a name resolves to its first declaration.
type FixtureKeys struct {
	refs  map[string]int
	names map[string]int
}

func newFixtureKeys(n int) *FixtureKeys {
	return &FixtureKeys{
		refs:  make(map[string]int, n),
		names: make(map[string]int, n),
	}
}

func (k *FixtureKeys) add(i int, ref, name string) error {
	if ref != "" {
		if _, dup := k.refs[ref]; dup {
			return fmt.Errorf("duplicate ref %q", ref)
		}
		k.refs[ref] = i
	}
	if _, seen := k.names[name]; !seen {
		k.names[name] = i
	}
	return nil
}

// Resolve returns the index of the declaration key refers to
func (k *FixtureKeys) Resolve(key string) (int, bool) {
	if i, ok := k.refs[key]; ok {
		return i, true
	}
	i, ok := k.names[key]
	return i, ok
}

// BusinessKeys indexes the declared businesses
func (f *Fixture) BusinessKeys() (*FixtureKeys, error) {
	keys := newFixtureKeys(len(f.Businesses))
	for i, b := range f.Businesses {
		if err := keys.add(i, b.Ref, b.Name); err != nil {
			return nil, fmt.Errorf("businesses[%d]: %w", i, err)
		}
	}
	return keys, nil
}

// DepartmentKeys indexes the declared departments
func (f *Fixture) DepartmentKeys() (*FixtureKeys, error) {
	keys := newFixtureKeys(len(f.Departments))
	for i, d := range f.Departments {
		if err := keys.add(i, d.Ref, d.Name); err != nil {
			return nil, fmt.Errorf("departments[%d]: %w", i, err)
		}
	}
	return keys, nil
}

// Validate checks names, that refs are unique per kind and that every
// reference resolves to a declared record.
func (f *Fixture) Validate() error {
	for i, b := range f.Businesses {
		if err := ValidateName(KindBusiness, b.Name); err != nil {
			return fmt.Errorf("businesses[%d]: %w", i, err)
		}
	}
	for i, d := range f.Departments {
		if err := ValidateName(KindDepartment, d.Name); err != nil {
			return fmt.Errorf("departments[%d]: %w", i, err)
		}
	}

	businesses, err := f.BusinessKeys()
	if err != nil {
		return err
	}
	departments, err := f.DepartmentKeys()
	if err != nil {
		return err
	}

	for i, d := range f.Departments {
		for _, key := range d.Businesses {
			if _, ok := businesses.Resolve(key); !ok {
				return fmt.Errorf("departments[%d]: unknown business %q", i, key)
			}
		}
	}

	for i, e := range f.Employees {
		in := EmployeeInput{Name: e.Name, Age: e.Age}
		if err := in.Validate(); err != nil {
			return fmt.Errorf("employees[%d]: %w", i, err)
		}
		if e.Business != "" {
			if _, ok := businesses.Resolve(e.Business); !ok {
				return fmt.Errorf("employees[%d]: unknown business %q", i, e.Business)
			}
		}
		if e.Department != "" {
			if _, ok := departments.Resolve(e.Department); !ok {
				return fmt.Errorf("employees[%d]: unknown department %q", i, e.Department)
			}
		}
	}

	return nil
}
