package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"relgraph/internal/domain"
	"relgraph/internal/repository"
)

// RelationshipGraph owns the cached snapshot of businesses, departments and
// employees and applies every mutation as commit-then-refresh.
type RelationshipGraph struct {
	uow      repository.UnitOfWork
	eventBus *EventBus
	logger   *zap.Logger

	// mutateMu serializes the pending/commit/refresh cycle
	mutateMu sync.Mutex

	mu       sync.RWMutex
	snapshot *domain.Snapshot
	version  uint64
}

// NewRelationshipGraph creates a graph over uow. The snapshot stays pending
// until Start or Refresh completes.
func NewRelationshipGraph(uow repository.UnitOfWork, eventBus *EventBus, logger *zap.Logger) *RelationshipGraph {
	if logger == nil {
		logger = zap.NewNop()
	}
	if eventBus == nil {
		eventBus = NewEventBus()
	}
	return &RelationshipGraph{
		uow:      uow,
		eventBus: eventBus,
		logger:   logger.Named("graph"),
		snapshot: domain.EmptySnapshot(domain.SnapshotPending, 0),
	}
}

// Start performs the initial fetch of all three collections
func (g *RelationshipGraph) Start(ctx context.Context) error {
	g.logger.Info("Loading relationship graph")
	return g.Refresh(ctx)
}

// Snapshot returns a copy of the current snapshot
func (g *RelationshipGraph) Snapshot() *domain.Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.snapshot.Clone()
}

// View returns the current snapshot with relationships resolved to names
func (g *RelationshipGraph) View() *domain.View {
	return domain.DeriveView(g.Snapshot())
}

// Refresh clears the snapshot and re-fetches every collection sorted by name
func (g *RelationshipGraph) Refresh(ctx context.Context) error {
	g.mutateMu.Lock()
	defer g.mutateMu.Unlock()

	g.setPending()
	return g.refresh(ctx)
}

// ============================================================================
// Mutations
// ============================================================================

// AddBusiness creates a business
func (g *RelationshipGraph) AddBusiness(ctx context.Context, name string) (*domain.Business, error) {
	var created *domain.Business
	err := g.mutate(ctx, "add_business", func(repo repository.Repository) (Event, error) {
		b, err := repo.CreateBusiness(ctx, name)
		if err != nil {
			return Event{}, err
		}
		created = b
		return Event{
			Type:    EventBusinessCreated,
			Payload: map[string]string{"business_id": b.ID, "name": b.Name},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// AddDepartment creates a department linked to every business in businessIDs.
// A non-empty employeeID moves that employee into the new department.
func (g *RelationshipGraph) AddDepartment(ctx context.Context, name string, businessIDs []string, employeeID string) (*domain.Department, error) {
	var created *domain.Department
	err := g.mutate(ctx, "add_department", func(repo repository.Repository) (Event, error) {
		d, err := repo.CreateDepartment(ctx, name)
		if err != nil {
			return Event{}, err
		}

		for _, businessID := range businessIDs {
			if _, err := repo.LinkBusinessDepartment(ctx, businessID, d.ID); err != nil {
				return Event{}, err
			}
		}

		if employeeID != "" {
			if _, err := repo.UpdateEmployee(ctx, employeeID, domain.EmployeeUpdate{DepartmentID: &d.ID}); err != nil {
				return Event{}, err
			}
		}

		created, err = repo.GetDepartment(ctx, d.ID)
		if err != nil {
			return Event{}, err
		}
		return Event{
			Type: EventDepartmentCreated,
			Payload: map[string]interface{}{
				"department_id": d.ID,
				"name":          d.Name,
				"business_ids":  created.BusinessIDs,
			},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// AddEmployee creates an employee with optional business and department references
func (g *RelationshipGraph) AddEmployee(ctx context.Context, in domain.EmployeeInput) (*domain.Employee, error) {
	var created *domain.Employee
	err := g.mutate(ctx, "add_employee", func(repo repository.Repository) (Event, error) {
		e, err := repo.CreateEmployee(ctx, in)
		if err != nil {
			return Event{}, err
		}
		created = e
		return Event{
			Type:    EventEmployeeCreated,
			Payload: map[string]string{"employee_id": e.ID, "name": e.Name},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateBusinessDepartments adds the edge between a business and a department.
// It reports whether the edge was new; repeating it leaves the graph unchanged.
func (g *RelationshipGraph) UpdateBusinessDepartments(ctx context.Context, businessID, departmentID string) (bool, error) {
	var added bool
	err := g.mutate(ctx, "update_business_departments", func(repo repository.Repository) (Event, error) {
		var err error
		added, err = repo.LinkBusinessDepartment(ctx, businessID, departmentID)
		if err != nil {
			return Event{}, err
		}
		return Event{
			Type: EventBusinessDepartmentLinked,
			Payload: map[string]interface{}{
				"business_id":   businessID,
				"department_id": departmentID,
				"added":         added,
			},
		}, nil
	})
	if err != nil {
		return false, err
	}
	return added, nil
}

// RemoveBusinessDepartment drops the edge between a business and a department.
// It reports whether an edge existed.
func (g *RelationshipGraph) RemoveBusinessDepartment(ctx context.Context, businessID, departmentID string) (bool, error) {
	var removed bool
	err := g.mutate(ctx, "remove_business_department", func(repo repository.Repository) (Event, error) {
		var err error
		removed, err = repo.UnlinkBusinessDepartment(ctx, businessID, departmentID)
		if err != nil {
			return Event{}, err
		}
		return Event{
			Type: EventBusinessDepartmentUnlinked,
			Payload: map[string]interface{}{
				"business_id":   businessID,
				"department_id": departmentID,
				"removed":       removed,
			},
		}, nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

// AssignEmployee updates an employee, including moving it to another
// business or department
func (g *RelationshipGraph) AssignEmployee(ctx context.Context, employeeID string, update domain.EmployeeUpdate) (*domain.Employee, error) {
	var updated *domain.Employee
	err := g.mutate(ctx, "assign_employee", func(repo repository.Repository) (Event, error) {
		e, err := repo.UpdateEmployee(ctx, employeeID, update)
		if err != nil {
			return Event{}, err
		}
		updated = e
		return Event{
			Type: EventEmployeeUpdated,
			Payload: map[string]string{
				"employee_id":   e.ID,
				"business_id":   e.BusinessID,
				"department_id": e.DepartmentID,
			},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteDepartment removes a department. Linked businesses lose the edge and
// its employees keep existing with no department.
func (g *RelationshipGraph) DeleteDepartment(ctx context.Context, id string) error {
	return g.mutate(ctx, "delete_department", func(repo repository.Repository) (Event, error) {
		if err := repo.DeleteDepartment(ctx, id); err != nil {
			return Event{}, err
		}
		return Event{
			Type:    EventDepartmentDeleted,
			Payload: map[string]string{"department_id": id},
		}, nil
	})
}

// DeleteBusiness removes a business. Its employees keep existing with no business.
func (g *RelationshipGraph) DeleteBusiness(ctx context.Context, id string) error {
	return g.mutate(ctx, "delete_business", func(repo repository.Repository) (Event, error) {
		if err := repo.DeleteBusiness(ctx, id); err != nil {
			return Event{}, err
		}
		return Event{
			Type:    EventBusinessDeleted,
			Payload: map[string]string{"business_id": id},
		}, nil
	})
}

// DeleteEmployee removes an employee
func (g *RelationshipGraph) DeleteEmployee(ctx context.Context, id string) error {
	return g.mutate(ctx, "delete_employee", func(repo repository.Repository) (Event, error) {
		if err := repo.DeleteEmployee(ctx, id); err != nil {
			return Event{}, err
		}
		return Event{
			Type:    EventEmployeeDeleted,
			Payload: map[string]string{"employee_id": id},
		}, nil
	})
}

// ============================================================================
// Queries
// ============================================================================

// EmployeesForBusiness fetches the employees of one business sorted by name.
// The snapshot is left untouched.
func (g *RelationshipGraph) EmployeesForBusiness(ctx context.Context, businessID string) ([]domain.Employee, error) {
	var employees []domain.Employee
	err := g.uow.View(ctx, func(repo repository.Repository) error {
		b, err := repo.GetBusiness(ctx, businessID)
		if err != nil {
			return err
		}
		if b == nil {
			return &domain.NotFoundError{Kind: domain.KindBusiness, ID: businessID}
		}
		employees, err = repo.ListEmployees(ctx, repository.EmployeesOfBusiness(businessID))
		return err
	})
	if err != nil {
		return nil, err
	}
	return employees, nil
}

// ============================================================================
// Import
// ============================================================================

// ImportResult counts the records created by an import
type ImportResult struct {
	BusinessesCreated  int `json:"businesses_created"`
	DepartmentsCreated int `json:"departments_created"`
	EmployeesCreated   int `json:"employees_created"`
	LinksCreated       int `json:"links_created"`
}

// Import applies a fixture in a single transaction. References resolve
// through each record's Ref, then through the first declaration with that
// name.
func (g *RelationshipGraph) Import(ctx context.Context, f *domain.Fixture) (*ImportResult, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid fixture: %w", err)
	}
	businessKeys, err := f.BusinessKeys()
	if err != nil {
		return nil, fmt.Errorf("invalid fixture: %w", err)
	}
	departmentKeys, err := f.DepartmentKeys()
	if err != nil {
		return nil, fmt.Errorf("invalid fixture: %w", err)
	}

	result := &ImportResult{}
	err = g.mutate(ctx, "import", func(repo repository.Repository) (Event, error) {
		*result = ImportResult{}

		businessIDs := make([]string, len(f.Businesses))
		for i, fb := range f.Businesses {
			b, err := repo.CreateBusiness(ctx, fb.Name)
			if err != nil {
				return Event{}, err
			}
			businessIDs[i] = b.ID
			result.BusinessesCreated++
		}
		businessID := func(key string) string {
			if i, ok := businessKeys.Resolve(key); ok {
				return businessIDs[i]
			}
			return ""
		}

		departmentIDs := make([]string, len(f.Departments))
		for i, fd := range f.Departments {
			d, err := repo.CreateDepartment(ctx, fd.Name)
			if err != nil {
				return Event{}, err
			}
			departmentIDs[i] = d.ID
			result.DepartmentsCreated++

			for _, key := range fd.Businesses {
				added, err := repo.LinkBusinessDepartment(ctx, businessID(key), d.ID)
				if err != nil {
					return Event{}, err
				}
				if added {
					result.LinksCreated++
				}
			}
		}
		departmentID := func(key string) string {
			if i, ok := departmentKeys.Resolve(key); ok {
				return departmentIDs[i]
			}
			return ""
		}

		for _, fe := range f.Employees {
			_, err := repo.CreateEmployee(ctx, domain.EmployeeInput{
				Name:         fe.Name,
				Age:          fe.Age,
				DateJoined:   fe.DateJoined,
				BusinessID:   businessID(fe.Business),
				DepartmentID: departmentID(fe.Department),
			})
			if err != nil {
				return Event{}, err
			}
			result.EmployeesCreated++
		}

		return Event{Type: EventFixtureImported, Payload: *result}, nil
	})
	if err != nil {
		return nil, err
	}

	g.logger.Info("Fixture imported",
		zap.Int("businesses", result.BusinessesCreated),
		zap.Int("departments", result.DepartmentsCreated),
		zap.Int("employees", result.EmployeesCreated),
		zap.Int("links", result.LinksCreated))
	return result, nil
}

// ============================================================================
// Refresh cycle
// ============================================================================

// mutate runs fn in a write transaction between a pending snapshot and a
// refresh. The refresh runs even when fn or the commit fails.
func (g *RelationshipGraph) mutate(ctx context.Context, op string, fn func(repository.Repository) (Event, error)) error {
	g.mutateMu.Lock()
	defer g.mutateMu.Unlock()

	g.setPending()

	var event Event
	err := g.uow.Update(ctx, func(repo repository.Repository) error {
		var err error
		event, err = fn(repo)
		return err
	})
	if err != nil {
		g.logger.Warn("Mutation failed", zap.String("op", op), zap.Error(err))
	}

	refreshErr := g.refresh(ctx)
	if err != nil {
		return err
	}
	if refreshErr != nil {
		return refreshErr
	}

	g.eventBus.Publish(event)
	return nil
}

// setPending clears the published collections and marks the snapshot as loading
func (g *RelationshipGraph) setPending() {
	g.mu.Lock()
	g.version++
	version := g.version
	g.snapshot = domain.EmptySnapshot(domain.SnapshotPending, version)
	g.mu.Unlock()

	g.eventBus.Publish(Event{
		Type:    EventSnapshotPending,
		Payload: map[string]uint64{"version": version},
	})
}

// refresh loads all three collections in one read transaction and publishes
// the result. On failure the snapshot is left empty in the failed state.
// The snapshot is shared, so a caller's cancellation does not abort it.
func (g *RelationshipGraph) refresh(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	next := &domain.Snapshot{State: domain.SnapshotIdle}
	err := g.uow.View(ctx, func(repo repository.Repository) error {
		var err error
		if next.Businesses, err = repo.ListBusinesses(ctx, repository.ByName()); err != nil {
			return err
		}
		if next.Departments, err = repo.ListDepartments(ctx, repository.ByName()); err != nil {
			return err
		}
		next.Employees, err = repo.ListEmployees(ctx, repository.ByName())
		return err
	})

	g.mu.Lock()
	g.version++
	if err != nil {
		next = domain.EmptySnapshot(domain.SnapshotFailed, g.version)
	} else {
		next.Version = g.version
		next.RefreshedAt = time.Now().UTC()
	}
	g.snapshot = next
	g.mu.Unlock()

	if err != nil {
		g.logger.Error("Failed to refresh relationship graph", zap.Error(err))
	} else {
		g.logger.Debug("Relationship graph refreshed",
			zap.Uint64("version", next.Version),
			zap.Int("businesses", len(next.Businesses)),
			zap.Int("departments", len(next.Departments)),
			zap.Int("employees", len(next.Employees)))
	}

	g.eventBus.Publish(Event{
		Type:    EventSnapshotRefreshed,
		Payload: map[string]interface{}{"version": next.Version, "state": next.State},
	})

	if err != nil {
		return fmt.Errorf("refresh relationship graph: %w", err)
	}
	return nil
}
