package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"relgraph/internal/domain"
	"relgraph/internal/repository"
	"relgraph/internal/store"
)

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository implements repository.Repository and repository.UnitOfWork using SQLite
type Repository struct {
	store  *store.Store
	q      querier
	inTx   bool
	logger *zap.Logger
}

var (
	_ repository.Repository = (*Repository)(nil)
	_ repository.UnitOfWork = (*Repository)(nil)
)

// New creates a repository over an open store
func New(s *store.Store, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{
		store:  s,
		q:      s.DB(),
		logger: logger.Named("repository"),
	}
}

// bind returns a copy of the repository that runs every statement on tx
func (r *Repository) bind(tx *sql.Tx) *Repository {
	return &Repository{store: r.store, q: tx, inTx: true, logger: r.logger}
}

// Update runs fn in a write transaction and commits it.
// Nested calls reuse the enclosing transaction.
func (r *Repository) Update(ctx context.Context, fn func(repository.Repository) error) error {
	if r.inTx {
		return fn(r)
	}
	return r.store.Update(ctx, func(tx *sql.Tx) error {
		return fn(r.bind(tx))
	})
}

// View runs fn in a transaction that is never committed
func (r *Repository) View(ctx context.Context, fn func(repository.Repository) error) error {
	if r.inTx {
		return fn(r)
	}
	return r.store.View(ctx, func(tx *sql.Tx) error {
		return fn(r.bind(tx))
	})
}

// ============================================================================
// Businesses
// ============================================================================

// ListBusinesses returns businesses matching q with their relationship sets loaded
func (r *Repository) ListBusinesses(ctx context.Context, q repository.Query) ([]domain.Business, error) {
	col, err := q.SortColumn(false)
	if err != nil {
		return nil, err
	}

	var (
		where []string
		args  []interface{}
	)
	if q.ID != "" {
		where = append(where, "id = ?")
		args = append(args, q.ID)
	}
	if q.Name != "" {
		where = append(where, "name = ?")
		args = append(args, q.Name)
	}
	if q.DepartmentID != "" {
		where = append(where, "id IN (SELECT business_id FROM business_departments WHERE department_id = ?)")
		args = append(args, q.DepartmentID)
	}
	if q.BusinessID != "" {
		where = append(where, "id = ?")
		args = append(args, q.BusinessID)
	}

	query := fmt.Sprintf(`SELECT %s FROM businesses%s ORDER BY %s %s, id ASC`,
		businessColumns, whereClause(where), col, q.Direction())

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.fetchError(domain.KindBusiness, fmt.Errorf("query businesses: %w", err))
	}

	businesses := make([]domain.Business, 0)
	for rows.Next() {
		var row businessRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			rows.Close()
			return nil, r.fetchError(domain.KindBusiness, fmt.Errorf("scan business: %w", err))
		}
		b, err := row.toDomain()
		if err != nil {
			rows.Close()
			return nil, r.fetchError(domain.KindBusiness, err)
		}
		businesses = append(businesses, b)
	}
	if err := rows.Err(); err != nil {
		return nil, r.fetchError(domain.KindBusiness, fmt.Errorf("iterate businesses: %w", err))
	}
	rows.Close()

	if len(businesses) == 0 {
		return businesses, nil
	}

	ids := make([]string, len(businesses))
	for i := range businesses {
		ids[i] = businesses[i].ID
	}

	departments, err := r.pairs(ctx, `
		SELECT bd.business_id, bd.department_id
		FROM business_departments bd
		JOIN departments d ON d.id = bd.department_id
		WHERE bd.business_id IN (%s)
		ORDER BY d.name ASC, d.id ASC`, ids)
	if err != nil {
		return nil, r.fetchError(domain.KindBusiness, fmt.Errorf("load business departments: %w", err))
	}

	employees, err := r.pairs(ctx, `
		SELECT business_id, id
		FROM employees
		WHERE business_id IN (%s)
		ORDER BY name ASC, id ASC`, ids)
	if err != nil {
		return nil, r.fetchError(domain.KindBusiness, fmt.Errorf("load business employees: %w", err))
	}

	for i := range businesses {
		if v := departments[businesses[i].ID]; v != nil {
			businesses[i].DepartmentIDs = v
		}
		if v := employees[businesses[i].ID]; v != nil {
			businesses[i].EmployeeIDs = v
		}
	}

	return businesses, nil
}

// GetBusiness retrieves a single business by ID, or nil if it doesn't exist
func (r *Repository) GetBusiness(ctx context.Context, id string) (*domain.Business, error) {
	businesses, err := r.ListBusinesses(ctx, repository.Query{ID: id})
	if err != nil {
		return nil, err
	}
	if len(businesses) == 0 {
		return nil, nil
	}
	return &businesses[0], nil
}

// CreateBusiness inserts a business with a fresh identity
func (r *Repository) CreateBusiness(ctx context.Context, name string) (*domain.Business, error) {
	if err := domain.ValidateName(domain.KindBusiness, name); err != nil {
		return nil, err
	}

	b := domain.NewBusiness(name)
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO businesses (id, name, created_at) VALUES (?, ?, ?)
	`, b.ID, b.Name, fmtTime(b.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to insert business: %w", err)
	}

	r.logger.Debug("Business created", zap.String("id", b.ID), zap.String("name", b.Name))
	return b, nil
}

// DeleteBusiness removes a business, its department links and its employees' references
func (r *Repository) DeleteBusiness(ctx context.Context, id string) error {
	return r.deleteRecord(ctx, domain.KindBusiness, id, []string{
		`DELETE FROM business_departments WHERE business_id = ?`,
		`UPDATE employees SET business_id = NULL WHERE business_id = ?`,
		`DELETE FROM businesses WHERE id = ?`,
	})
}

// ============================================================================
// Departments
// ============================================================================

// ListDepartments returns departments matching q with their relationship sets loaded
func (r *Repository) ListDepartments(ctx context.Context, q repository.Query) ([]domain.Department, error) {
	col, err := q.SortColumn(false)
	if err != nil {
		return nil, err
	}

	var (
		where []string
		args  []interface{}
	)
	if q.ID != "" {
		where = append(where, "id = ?")
		args = append(args, q.ID)
	}
	if q.Name != "" {
		where = append(where, "name = ?")
		args = append(args, q.Name)
	}
	if q.BusinessID != "" {
		where = append(where, "id IN (SELECT department_id FROM business_departments WHERE business_id = ?)")
		args = append(args, q.BusinessID)
	}
	if q.DepartmentID != "" {
		where = append(where, "id = ?")
		args = append(args, q.DepartmentID)
	}

	query := fmt.Sprintf(`SELECT %s FROM departments%s ORDER BY %s %s, id ASC`,
		departmentColumns, whereClause(where), col, q.Direction())

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.fetchError(domain.KindDepartment, fmt.Errorf("query departments: %w", err))
	}

	departments := make([]domain.Department, 0)
	for rows.Next() {
		var row departmentRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			rows.Close()
			return nil, r.fetchError(domain.KindDepartment, fmt.Errorf("scan department: %w", err))
		}
		d, err := row.toDomain()
		if err != nil {
			rows.Close()
			return nil, r.fetchError(domain.KindDepartment, err)
		}
		departments = append(departments, d)
	}
	if err := rows.Err(); err != nil {
		return nil, r.fetchError(domain.KindDepartment, fmt.Errorf("iterate departments: %w", err))
	}
	rows.Close()

	if len(departments) == 0 {
		return departments, nil
	}

	ids := make([]string, len(departments))
	for i := range departments {
		ids[i] = departments[i].ID
	}

	businesses, err := r.pairs(ctx, `
		SELECT bd.department_id, bd.business_id
		FROM business_departments bd
		JOIN businesses b ON b.id = bd.business_id
		WHERE bd.department_id IN (%s)
		ORDER BY b.name ASC, b.id ASC`, ids)
	if err != nil {
		return nil, r.fetchError(domain.KindDepartment, fmt.Errorf("load department businesses: %w", err))
	}

	employees, err := r.pairs(ctx, `
		SELECT department_id, id
		FROM employees
		WHERE department_id IN (%s)
		ORDER BY name ASC, id ASC`, ids)
	if err != nil {
		return nil, r.fetchError(domain.KindDepartment, fmt.Errorf("load department employees: %w", err))
	}

	for i := range departments {
		if v := businesses[departments[i].ID]; v != nil {
			departments[i].BusinessIDs = v
		}
		if v := employees[departments[i].ID]; v != nil {
			departments[i].EmployeeIDs = v
		}
	}

	return departments, nil
}

// GetDepartment retrieves a single department by ID, or nil if it doesn't exist
func (r *Repository) GetDepartment(ctx context.Context, id string) (*domain.Department, error) {
	departments, err := r.ListDepartments(ctx, repository.Query{ID: id})
	if err != nil {
		return nil, err
	}
	if len(departments) == 0 {
		return nil, nil
	}
	return &departments[0], nil
}

// CreateDepartment inserts a department with a fresh identity
func (r *Repository) CreateDepartment(ctx context.Context, name string) (*domain.Department, error) {
	if err := domain.ValidateName(domain.KindDepartment, name); err != nil {
		return nil, err
	}

	d := domain.NewDepartment(name)
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO departments (id, name, created_at) VALUES (?, ?, ?)
	`, d.ID, d.Name, fmtTime(d.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to insert department: %w", err)
	}

	r.logger.Debug("Department created", zap.String("id", d.ID), zap.String("name", d.Name))
	return d, nil
}

// DeleteDepartment removes a department, its business links and its employees' references
func (r *Repository) DeleteDepartment(ctx context.Context, id string) error {
	return r.deleteRecord(ctx, domain.KindDepartment, id, []string{
		`DELETE FROM business_departments WHERE department_id = ?`,
		`UPDATE employees SET department_id = NULL WHERE department_id = ?`,
		`DELETE FROM departments WHERE id = ?`,
	})
}

// ============================================================================
// Employees
// ============================================================================

// ListEmployees returns employees matching q
func (r *Repository) ListEmployees(ctx context.Context, q repository.Query) ([]domain.Employee, error) {
	col, err := q.SortColumn(true)
	if err != nil {
		return nil, err
	}

	var (
		where []string
		args  []interface{}
	)
	if q.ID != "" {
		where = append(where, "id = ?")
		args = append(args, q.ID)
	}
	if q.Name != "" {
		where = append(where, "name = ?")
		args = append(args, q.Name)
	}
	if q.BusinessID != "" {
		where = append(where, "business_id = ?")
		args = append(args, q.BusinessID)
	}
	if q.DepartmentID != "" {
		where = append(where, "department_id = ?")
		args = append(args, q.DepartmentID)
	}

	query := fmt.Sprintf(`SELECT %s FROM employees%s ORDER BY %s %s, id ASC`,
		employeeColumns, whereClause(where), col, q.Direction())

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.fetchError(domain.KindEmployee, fmt.Errorf("query employees: %w", err))
	}
	defer rows.Close()

	employees := make([]domain.Employee, 0)
	for rows.Next() {
		var row employeeRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, r.fetchError(domain.KindEmployee, fmt.Errorf("scan employee: %w", err))
		}
		e, err := row.toDomain()
		if err != nil {
			return nil, r.fetchError(domain.KindEmployee, err)
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, r.fetchError(domain.KindEmployee, fmt.Errorf("iterate employees: %w", err))
	}

	return employees, nil
}

// GetEmployee retrieves a single employee by ID, or nil if it doesn't exist
func (r *Repository) GetEmployee(ctx context.Context, id string) (*domain.Employee, error) {
	var row employeeRow
	err := r.q.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM employees WHERE id = ?`, employeeColumns), id,
	).Scan(row.scanArgs()...)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, r.fetchError(domain.KindEmployee, fmt.Errorf("query employee: %w", err))
	}

	e, err := row.toDomain()
	if err != nil {
		return nil, r.fetchError(domain.KindEmployee, err)
	}
	return &e, nil
}

// CreateEmployee inserts an employee with a fresh identity.
// Business and department references must exist.
func (r *Repository) CreateEmployee(ctx context.Context, in domain.EmployeeInput) (*domain.Employee, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := r.checkReferences(ctx, in.BusinessID, in.DepartmentID); err != nil {
		return nil, err
	}

	e := domain.NewEmployee(in)
	_, err := r.q.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO employees (%s) VALUES (%s)
	`, employeeColumns, placeholders(7)), employeeInsertArgs(e)...)
	if err != nil {
		return nil, fmt.Errorf("failed to insert employee: %w", err)
	}

	r.logger.Debug("Employee created",
		zap.String("id", e.ID),
		zap.String("name", e.Name),
		zap.String("business_id", e.BusinessID),
		zap.String("department_id", e.DepartmentID))
	return e, nil
}

// UpdateEmployee applies update to an existing employee.
// Assigning a new business or department replaces the previous reference.
func (r *Repository) UpdateEmployee(ctx context.Context, id string, update domain.EmployeeUpdate) (*domain.Employee, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	e, err := r.GetEmployee(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, &domain.NotFoundError{Kind: domain.KindEmployee, ID: id}
	}

	var businessID, departmentID string
	if update.BusinessID != nil {
		businessID = *update.BusinessID
	}
	if update.DepartmentID != nil {
		departmentID = *update.DepartmentID
	}
	if err := r.checkReferences(ctx, businessID, departmentID); err != nil {
		return nil, err
	}

	e.Apply(update)

	_, err = r.q.ExecContext(ctx, `
		UPDATE employees
		SET name = ?, age = ?, date_joined = ?, business_id = ?, department_id = ?
		WHERE id = ?
	`, e.Name, e.Age, fmtTime(e.DateJoined), stringToNull(e.BusinessID), stringToNull(e.DepartmentID), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update employee: %w", err)
	}

	r.logger.Debug("Employee updated", zap.String("id", id))
	return e, nil
}

// DeleteEmployee removes an employee
func (r *Repository) DeleteEmployee(ctx context.Context, id string) error {
	return r.deleteRecord(ctx, domain.KindEmployee, id, []string{
		`DELETE FROM employees WHERE id = ?`,
	})
}

// ============================================================================
// Business <-> Department Edges
// ============================================================================

// LinkBusinessDepartment adds the undirected edge between a business and a
// department. It reports whether the edge was new; linking twice is a no-op.
func (r *Repository) LinkBusinessDepartment(ctx context.Context, businessID, departmentID string) (bool, error) {
	if err := r.checkExists(ctx, domain.KindBusiness, businessID); err != nil {
		return false, err
	}
	if err := r.checkExists(ctx, domain.KindDepartment, departmentID); err != nil {
		return false, err
	}

	res, err := r.q.ExecContext(ctx, `
		INSERT INTO business_departments (business_id, department_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(business_id, department_id) DO NOTHING
	`, businessID, departmentID, fmtTime(time.Now()))
	if err != nil {
		return false, fmt.Errorf("failed to link business %s to department %s: %w", businessID, departmentID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	r.logger.Debug("Business linked to department",
		zap.String("business_id", businessID),
		zap.String("department_id", departmentID),
		zap.Bool("added", n > 0))
	return n > 0, nil
}

// UnlinkBusinessDepartment removes the edge. It reports whether an edge existed.
func (r *Repository) UnlinkBusinessDepartment(ctx context.Context, businessID, departmentID string) (bool, error) {
	if err := r.checkExists(ctx, domain.KindBusiness, businessID); err != nil {
		return false, err
	}
	if err := r.checkExists(ctx, domain.KindDepartment, departmentID); err != nil {
		return false, err
	}

	res, err := r.q.ExecContext(ctx, `
		DELETE FROM business_departments WHERE business_id = ? AND department_id = ?
	`, businessID, departmentID)
	if err != nil {
		return false, fmt.Errorf("failed to unlink business %s from department %s: %w", businessID, departmentID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// ============================================================================
// Internal helpers
// ============================================================================

// pairs runs a two-column query whose IN clause is filled with ids and groups
// the second column by the first, preserving row order
func (r *Repository) pairs(ctx context.Context, query string, ids []string) (map[string][]string, error) {
	rows, err := r.q.QueryContext(ctx, fmt.Sprintf(query, placeholders(len(ids))), idArgs(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var owner, related string
		if err := rows.Scan(&owner, &related); err != nil {
			return nil, err
		}
		out[owner] = append(out[owner], related)
	}
	return out, rows.Err()
}

// deleteRecord runs the detach statements followed by the delete, each bound
// to id. The last statement must affect a row or the record didn't exist.
func (r *Repository) deleteRecord(ctx context.Context, kind domain.EntityKind, id string, statements []string) error {
	if err := r.checkExists(ctx, kind, id); err != nil {
		return err
	}

	for _, stmt := range statements {
		if _, err := r.q.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("failed to delete %s %s: %w", kind, id, err)
		}
	}

	r.logger.Debug("Record deleted", zap.String("kind", string(kind)), zap.String("id", id))
	return nil
}

// checkExists returns a NotFoundError if no record of kind has id
func (r *Repository) checkExists(ctx context.Context, kind domain.EntityKind, id string) error {
	table := tableFor(kind)
	var one int
	err := r.q.QueryRowContext(ctx, fmt.Sprintf(`SELECT 1 FROM %s WHERE id = ?`, table), id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.NotFoundError{Kind: kind, ID: id}
	}
	if err != nil {
		return r.fetchError(kind, fmt.Errorf("check %s %s: %w", kind, id, err))
	}
	return nil
}

// checkReferences verifies the optional business and department references
func (r *Repository) checkReferences(ctx context.Context, businessID, departmentID string) error {
	if businessID != "" {
		if err := r.checkExists(ctx, domain.KindBusiness, businessID); err != nil {
			return err
		}
	}
	if departmentID != "" {
		if err := r.checkExists(ctx, domain.KindDepartment, departmentID); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) fetchError(kind domain.EntityKind, err error) error {
	r.logger.Warn("Fetch failed", zap.String("kind", string(kind)), zap.Error(err))
	return &domain.FetchError{Kind: kind, Err: err}
}

func tableFor(kind domain.EntityKind) string {
	switch kind {
	case domain.KindBusiness:
		return "businesses"
	case domain.KindDepartment:
		return "departments"
	default:
		return "employees"
	}
}

func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}
