/*
Package sqlite provides a SQLite-backed implementation of schedule.TxStore.

PURPOSE:
  Persists employees, vacation periods and days off. All scheduling rules
  live in the schedule package; this layer only enforces referential
  integrity and the one-day-off-per-year uniqueness.

KEY TABLES:
  employees:        People who take vacations
  vacation_periods: Closed [start_date, end_date] intervals with day counts
  days_off:         One assiduity day per employee per year

INDEXES:
  - idx_periods_employee_start: Per-employee snapshot for validation (hot path)
  - idx_days_off_employee_year: UNIQUE, enforces one day off per year

DATES:
  Stored as ISO TEXT (YYYY-MM-DD) so lexical order equals date order and
  year/month filters are plain substring comparisons.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. WithTx holds the write lock for the
  whole callback, so validate-then-write is serialized across requests.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/vacations.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := schedule.NewService(store, schedule.DefaultPolicy(), provider, nil)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - schedule/store.go: Interface definitions
  - schedule/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/warp/vacation-engine/schedule"
)

// Store implements schedule.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ schedule.TxStore = (*Store)(nil)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logrus.WithField("path", dbPath).Debug("sqlite store ready")
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS vacation_periods (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		employee_id INTEGER NOT NULL REFERENCES employees(id),
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		days INTEGER NOT NULL CHECK (days >= 1),
		scheduled_externally INTEGER NOT NULL DEFAULT 0,
		allowance_taken INTEGER NOT NULL DEFAULT 0,
		color TEXT NOT NULL DEFAULT '#4CAF50',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_periods_employee_start
		ON vacation_periods(employee_id, start_date);

	CREATE TABLE IF NOT EXISTS days_off (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		employee_id INTEGER NOT NULL REFERENCES employees(id),
		year INTEGER NOT NULL,
		date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- One day off per employee per year
	CREATE UNIQUE INDEX IF NOT EXISTS idx_days_off_employee_year
		ON days_off(employee_id, year);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTIONAL STORE (schedule.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store schedule.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{q: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// txStore runs every operation on the open transaction. The parent Store
// already holds the write lock.
type txStore struct {
	q queryer
}

func (ts *txStore) ListEmployees(ctx context.Context) ([]schedule.Employee, error) {
	return listEmployees(ctx, ts.q)
}

func (ts *txStore) GetEmployee(ctx context.Context, id int64) (schedule.Employee, error) {
	return getEmployee(ctx, ts.q, id)
}

func (ts *txStore) SaveEmployee(ctx context.Context, name string) (schedule.Employee, error) {
	return saveEmployee(ctx, ts.q, name)
}

func (ts *txStore) RenameEmployee(ctx context.Context, id int64, name string) error {
	return renameEmployee(ctx, ts.q, id, name)
}

func (ts *txStore) DeleteEmployee(ctx context.Context, id int64) error {
	return deleteEmployee(ctx, ts.q, id)
}

func (ts *txStore) ListPeriods(ctx context.Context, f schedule.PeriodFilter) ([]schedule.VacationPeriod, error) {
	return listPeriods(ctx, ts.q, f)
}

func (ts *txStore) GetPeriod(ctx context.Context, id int64) (schedule.VacationPeriod, error) {
	return getPeriod(ctx, ts.q, id)
}

func (ts *txStore) SumPeriodDays(ctx context.Context, employeeID int64) (int, error) {
	return sumPeriodDays(ctx, ts.q, employeeID)
}

func (ts *txStore) InsertPeriod(ctx context.Context, p schedule.VacationPeriod) (int64, error) {
	return insertPeriod(ctx, ts.q, p)
}

func (ts *txStore) UpdatePeriod(ctx context.Context, p schedule.VacationPeriod) error {
	return updatePeriod(ctx, ts.q, p)
}

func (ts *txStore) DeletePeriod(ctx context.Context, id int64) error {
	return deletePeriod(ctx, ts.q, id)
}

func (ts *txStore) GetDayOff(ctx context.Context, employeeID int64, year int) (*schedule.DayOff, error) {
	return getDayOff(ctx, ts.q, employeeID, year)
}

func (ts *txStore) GetDayOffByID(ctx context.Context, id int64) (schedule.DayOff, error) {
	return getDayOffByID(ctx, ts.q, id)
}

func (ts *txStore) InsertDayOff(ctx context.Context, d schedule.DayOff) (int64, error) {
	return insertDayOff(ctx, ts.q, d)
}

func (ts *txStore) UpdateDayOff(ctx context.Context, id int64, date schedule.Date) error {
	return updateDayOff(ctx, ts.q, id, date)
}

func (ts *txStore) DeleteDayOff(ctx context.Context, id int64) error {
	return deleteDayOff(ctx, ts.q, id)
}

func (ts *txStore) ListDaysOff(ctx context.Context) ([]schedule.DayOff, error) {
	return listDaysOff(ctx, ts.q)
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// ListEmployees returns all employees ordered by name.
func (s *Store) ListEmployees(ctx context.Context) ([]schedule.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listEmployees(ctx, s.db)
}

// GetEmployee retrieves an employee by ID.
func (s *Store) GetEmployee(ctx context.Context, id int64) (schedule.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getEmployee(ctx, s.db, id)
}

// SaveEmployee inserts a new employee.
func (s *Store) SaveEmployee(ctx context.Context, name string) (schedule.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveEmployee(ctx, s.db, name)
}

func (s *Store) RenameEmployee(ctx context.Context, id int64, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return renameEmployee(ctx, s.db, id, name)
}

// DeleteEmployee removes an employee without records.
func (s *Store) DeleteEmployee(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteEmployee(ctx, s.db, id)
}

func listEmployees(ctx context.Context, q queryer) ([]schedule.Employee, error) {
	rows, err := q.QueryContext(ctx, "SELECT id, name FROM employees ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	employees := []schedule.Employee{}
	for rows.Next() {
		var emp schedule.Employee
		if err := rows.Scan(&emp.ID, &emp.Name); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

func getEmployee(ctx context.Context, q queryer, id int64) (schedule.Employee, error) {
	var emp schedule.Employee
	err := q.QueryRowContext(ctx, "SELECT id, name FROM employees WHERE id = ?", id).
		Scan(&emp.ID, &emp.Name)
	if err == sql.ErrNoRows {
		return emp, schedule.ErrEmployeeNotFound
	}
	if err != nil {
		return emp, fmt.Errorf("failed to get employee: %w", err)
	}
	return emp, nil
}

func saveEmployee(ctx context.Context, q queryer, name string) (schedule.Employee, error) {
	res, err := q.ExecContext(ctx,
		"INSERT INTO employees (name, created_at) VALUES (?, ?)",
		name, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return schedule.Employee{}, fmt.Errorf("failed to save employee: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return schedule.Employee{}, fmt.Errorf("failed to read employee id: %w", err)
	}
	return schedule.Employee{ID: id, Name: name}, nil
}

func renameEmployee(ctx context.Context, q queryer, id int64, name string) error {
	res, err := q.ExecContext(ctx, "UPDATE employees SET name = ? WHERE id = ?", name, id)
	if err != nil {
		return fmt.Errorf("failed to rename employee: %w", err)
	}
	return requireAffected(res, schedule.ErrEmployeeNotFound)
}

func deleteEmployee(ctx context.Context, q queryer, id int64) error {
	res, err := q.ExecContext(ctx, "DELETE FROM employees WHERE id = ?", id)
	if err != nil {
		if isForeignKeyError(err) {
			return schedule.ErrEmployeeHasRecords
		}
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	return requireAffected(res, schedule.ErrEmployeeNotFound)
}

// =============================================================================
// VACATION PERIODS
// =============================================================================

const periodColumns = `
	p.id, p.employee_id, e.name, p.start_date, p.end_date, p.days,
	p.scheduled_externally, p.allowance_taken, p.color`

// ListPeriods returns periods matching the filter, ordered by start date.
func (s *Store) ListPeriods(ctx context.Context, f schedule.PeriodFilter) ([]schedule.VacationPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listPeriods(ctx, s.db, f)
}

func (s *Store) GetPeriod(ctx context.Context, id int64) (schedule.VacationPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getPeriod(ctx, s.db, id)
}

// SumPeriodDays returns the employee's total scheduled vacation days.
func (s *Store) SumPeriodDays(ctx context.Context, employeeID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sumPeriodDays(ctx, s.db, employeeID)
}

func (s *Store) InsertPeriod(ctx context.Context, p schedule.VacationPeriod) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertPeriod(ctx, s.db, p)
}

func (s *Store) UpdatePeriod(ctx context.Context, p schedule.VacationPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updatePeriod(ctx, s.db, p)
}

func (s *Store) DeletePeriod(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deletePeriod(ctx, s.db, id)
}

func listPeriods(ctx context.Context, q queryer, f schedule.PeriodFilter) ([]schedule.VacationPeriod, error) {
	var (
		where []string
		args  []any
	)
	if f.EmployeeID != nil {
		where = append(where, "p.employee_id = ?")
		args = append(args, *f.EmployeeID)
	}
	if f.Year != 0 {
		where = append(where, "substr(p.start_date, 1, 4) = ?")
		args = append(args, fmt.Sprintf("%04d", f.Year))
	}
	if f.Month != 0 {
		where = append(where, "substr(p.start_date, 6, 2) = ?")
		args = append(args, fmt.Sprintf("%02d", f.Month))
	}
	if f.AllowanceTaken != nil {
		where = append(where, "p.allowance_taken = ?")
		args = append(args, *f.AllowanceTaken)
	}
	if f.ScheduledExternally != nil {
		where = append(where, "p.scheduled_externally = ?")
		args = append(args, *f.ScheduledExternally)
	}

	query := "SELECT" + periodColumns + `
		FROM vacation_periods p
		JOIN employees e ON e.id = p.employee_id`
	if len(where) > 0 {
		query += "\n\t\tWHERE " + strings.Join(where, " AND ")
	}
	query += "\n\t\tORDER BY p.start_date, p.id"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query periods: %w", err)
	}
	defer rows.Close()

	periods := []schedule.VacationPeriod{}
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

func getPeriod(ctx context.Context, q queryer, id int64) (schedule.VacationPeriod, error) {
	row := q.QueryRowContext(ctx, "SELECT"+periodColumns+`
		FROM vacation_periods p
		JOIN employees e ON e.id = p.employee_id
		WHERE p.id = ?`, id)

	p, err := scanPeriod(row)
	if errors.Is(err, sql.ErrNoRows) {
		return p, schedule.ErrPeriodNotFound
	}
	return p, err
}

func sumPeriodDays(ctx context.Context, q queryer, employeeID int64) (int, error) {
	var total int
	err := q.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(days), 0) FROM vacation_periods WHERE employee_id = ?",
		employeeID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum period days: %w", err)
	}
	return total, nil
}

func insertPeriod(ctx context.Context, q queryer, p schedule.VacationPeriod) (int64, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO vacation_periods
		(employee_id, start_date, end_date, days, scheduled_externally, allowance_taken, color, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.EmployeeID, p.Start.String(), p.End.String(), p.Days,
		p.ScheduledExternally, p.AllowanceTaken, p.Color,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isForeignKeyError(err) {
			return 0, schedule.ErrEmployeeNotFound
		}
		return 0, fmt.Errorf("failed to insert period: %w", err)
	}
	return res.LastInsertId()
}

func updatePeriod(ctx context.Context, q queryer, p schedule.VacationPeriod) error {
	res, err := q.ExecContext(ctx, `
		UPDATE vacation_periods SET
			employee_id = ?, start_date = ?, end_date = ?, days = ?,
			scheduled_externally = ?, allowance_taken = ?, color = ?
		WHERE id = ?`,
		p.EmployeeID, p.Start.String(), p.End.String(), p.Days,
		p.ScheduledExternally, p.AllowanceTaken, p.Color, p.ID,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return schedule.ErrEmployeeNotFound
		}
		return fmt.Errorf("failed to update period: %w", err)
	}
	return requireAffected(res, schedule.ErrPeriodNotFound)
}

func deletePeriod(ctx context.Context, q queryer, id int64) error {
	res, err := q.ExecContext(ctx, "DELETE FROM vacation_periods WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete period: %w", err)
	}
	return requireAffected(res, schedule.ErrPeriodNotFound)
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPeriod(row scanner) (schedule.VacationPeriod, error) {
	var (
		p          schedule.VacationPeriod
		start, end string
	)
	err := row.Scan(
		&p.ID, &p.EmployeeID, &p.EmployeeName, &start, &end, &p.Days,
		&p.ScheduledExternally, &p.AllowanceTaken, &p.Color,
	)
	if err == sql.ErrNoRows {
		return p, err
	}
	if err != nil {
		return p, fmt.Errorf("failed to scan period: %w", err)
	}
	if p.Start, err = schedule.ParseDate(start); err != nil {
		return p, fmt.Errorf("period %d: %w", p.ID, err)
	}
	if p.End, err = schedule.ParseDate(end); err != nil {
		return p, fmt.Errorf("period %d: %w", p.ID, err)
	}
	return p, nil
}

// =============================================================================
// DAYS OFF
// =============================================================================

const dayOffColumns = `d.id, d.employee_id, e.name, d.year, d.date`

// GetDayOff finds the employee's day off for a year. Returns nil if none.
func (s *Store) GetDayOff(ctx context.Context, employeeID int64, year int) (*schedule.DayOff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getDayOff(ctx, s.db, employeeID, year)
}

func (s *Store) GetDayOffByID(ctx context.Context, id int64) (schedule.DayOff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getDayOffByID(ctx, s.db, id)
}

func (s *Store) InsertDayOff(ctx context.Context, d schedule.DayOff) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertDayOff(ctx, s.db, d)
}

func (s *Store) UpdateDayOff(ctx context.Context, id int64, date schedule.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateDayOff(ctx, s.db, id, date)
}

func (s *Store) DeleteDayOff(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteDayOff(ctx, s.db, id)
}

// ListDaysOff returns every day off ordered by employee name, then year.
func (s *Store) ListDaysOff(ctx context.Context) ([]schedule.DayOff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listDaysOff(ctx, s.db)
}

func getDayOff(ctx context.Context, q queryer, employeeID int64, year int) (*schedule.DayOff, error) {
	row := q.QueryRowContext(ctx, "SELECT "+dayOffColumns+`
		FROM days_off d
		JOIN employees e ON e.id = d.employee_id
		WHERE d.employee_id = ? AND d.year = ?
		LIMIT 1`, employeeID, year)

	d, err := scanDayOff(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func getDayOffByID(ctx context.Context, q queryer, id int64) (schedule.DayOff, error) {
	row := q.QueryRowContext(ctx, "SELECT "+dayOffColumns+`
		FROM days_off d
		JOIN employees e ON e.id = d.employee_id
		WHERE d.id = ?`, id)

	d, err := scanDayOff(row)
	if errors.Is(err, sql.ErrNoRows) {
		return d, schedule.ErrDayOffNotFound
	}
	return d, err
}

func insertDayOff(ctx context.Context, q queryer, d schedule.DayOff) (int64, error) {
	res, err := q.ExecContext(ctx,
		"INSERT INTO days_off (employee_id, year, date, created_at) VALUES (?, ?, ?, ?)",
		d.EmployeeID, d.Year, d.Date.String(), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return 0, schedule.ErrDuplicateDayOff
		}
		if isForeignKeyError(err) {
			return 0, schedule.ErrEmployeeNotFound
		}
		return 0, fmt.Errorf("failed to insert day off: %w", err)
	}
	return res.LastInsertId()
}

func updateDayOff(ctx context.Context, q queryer, id int64, date schedule.Date) error {
	res, err := q.ExecContext(ctx, "UPDATE days_off SET date = ? WHERE id = ?", date.String(), id)
	if err != nil {
		return fmt.Errorf("failed to update day off: %w", err)
	}
	return requireAffected(res, schedule.ErrDayOffNotFound)
}

func deleteDayOff(ctx context.Context, q queryer, id int64) error {
	res, err := q.ExecContext(ctx, "DELETE FROM days_off WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete day off: %w", err)
	}
	return requireAffected(res, schedule.ErrDayOffNotFound)
}

func listDaysOff(ctx context.Context, q queryer) ([]schedule.DayOff, error) {
	rows, err := q.QueryContext(ctx, "SELECT "+dayOffColumns+`
		FROM days_off d
		JOIN employees e ON e.id = d.employee_id
		ORDER BY e.name, d.year, d.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query days off: %w", err)
	}
	defer rows.Close()

	daysOff := []schedule.DayOff{}
	for rows.Next() {
		d, err := scanDayOff(rows)
		if err != nil {
			return nil, err
		}
		daysOff = append(daysOff, d)
	}
	return daysOff, rows.Err()
}

func scanDayOff(row scanner) (schedule.DayOff, error) {
	var (
		d    schedule.DayOff
		date string
	)
	err := row.Scan(&d.ID, &d.EmployeeID, &d.EmployeeName, &d.Year, &date)
	if err == sql.ErrNoRows {
		return d, err
	}
	if err != nil {
		return d, fmt.Errorf("failed to scan day off: %w", err)
	}
	if d.Date, err = schedule.ParseDate(date); err != nil {
		return d, fmt.Errorf("day off %d: %w", d.ID, err)
	}
	return d, nil
}

// Helper functions

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func isForeignKeyError(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}
