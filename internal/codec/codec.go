package codec

import (
	"fmt"
	"io"

	"relgraph/internal/domain"
)

// Importer interface for reading fixtures from various formats
type Importer interface {
	Parse(r io.Reader) (*domain.Fixture, error)
	Format() string
}

// Exporter interface for writing snapshots to various formats
type Exporter interface {
	Export(snapshot *domain.Snapshot, w io.Writer) error
	Format() string
}

// Codec both imports and exports one format
type Codec interface {
	Importer
	Exporter
}

// ForFormat returns the codec registered for format
func ForFormat(format string) (Codec, error) {
	switch format {
	case "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	default:
		return nil, fmt.Errorf("unsupported format %q, must be 'json' or 'yaml'", format)
	}
}

// ToFixture converts a snapshot into fixture form so that an export can be
// imported into another store. Each business and department carries its id
// as Ref and references use those refs, so records that share a name keep
// their own edges. References to records missing from the snapshot are
// dropped.
func ToFixture(s *domain.Snapshot) *domain.Fixture {
	f := domain.NewFixture()

	businesses := make(map[string]bool, len(s.Businesses))
	for _, b := range s.Businesses {
		businesses[b.ID] = true
		f.Businesses = append(f.Businesses, domain.FixtureBusiness{Ref: b.ID, Name: b.Name})
	}

	departments := make(map[string]bool, len(s.Departments))
	for _, d := range s.Departments {
		departments[d.ID] = true
	}

	for _, d := range s.Departments {
		fd := domain.FixtureDepartment{Ref: d.ID, Name: d.Name}
		for _, id := range d.BusinessIDs {
			if businesses[id] {
				fd.Businesses = append(fd.Businesses, id)
			}
		}
		f.Departments = append(f.Departments, fd)
	}

	for _, e := range s.Employees {
		fe := domain.FixtureEmployee{
			Name:       e.Name,
			Age:        e.Age,
			DateJoined: e.DateJoined,
		}
		if businesses[e.BusinessID] {
			fe.Business = e.BusinessID
		}
		if departments[e.DepartmentID] {
			fe.Department = e.DepartmentID
		}
		f.Employees = append(f.Employees, fe)
	}

	return f
}
