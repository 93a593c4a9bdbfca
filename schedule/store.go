/*
store.go - Persistence interface for employees, vacation periods and days off

PURPOSE:
  Defines the interface between the scheduling rules and the database.
  The rules in validator.go are pure; the Service loads a snapshot through
  this interface, validates it, and writes back inside one transaction.

KEY INTERFACES:
  Store:   CRUD for the three record kinds
  TxStore: Store plus WithTx for atomic validate-then-write

NOT-FOUND CONTRACT:
  Lookups by primary key return ErrEmployeeNotFound, ErrPeriodNotFound or
  ErrDayOffNotFound. GetDayOff(employee, year) is a search, so a missing
  row is (nil, nil).

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - schedule/store/memory.go: In-memory for testing

SEE ALSO:
  - service.go: The only writer
*/
package schedule

import "context"

// =============================================================================
// STORE
// =============================================================================

type Store interface {
	// Employees, ordered by name.
	ListEmployees(ctx context.Context) ([]Employee, error)
	GetEmployee(ctx context.Context, id int64) (Employee, error)
	SaveEmployee(ctx context.Context, name string) (Employee, error)
	RenameEmployee(ctx context.Context, id int64, name string) error
	DeleteEmployee(ctx context.Context, id int64) error

	// ListPeriods returns periods matching the filter ordered by start date,
	// with EmployeeName populated.
	ListPeriods(ctx context.Context, filter PeriodFilter) ([]VacationPeriod, error)
	GetPeriod(ctx context.Context, id int64) (VacationPeriod, error)
	// SumPeriodDays returns the employee's total scheduled days.
	SumPeriodDays(ctx context.Context, employeeID int64) (int, error)
	InsertPeriod(ctx context.Context, p VacationPeriod) (int64, error)
	UpdatePeriod(ctx context.Context, p VacationPeriod) error
	DeletePeriod(ctx context.Context, id int64) error

	GetDayOff(ctx context.Context, employeeID int64, year int) (*DayOff, error)
	GetDayOffByID(ctx context.Context, id int64) (DayOff, error)
	// InsertDayOff returns ErrDuplicateDayOff if (employee, year) is taken.
	InsertDayOff(ctx context.Context, d DayOff) (int64, error)
	UpdateDayOff(ctx context.Context, id int64, date Date) error
	DeleteDayOff(ctx context.Context, id int64) error
	// ListDaysOff returns every day off ordered by employee name, then year.
	ListDaysOff(ctx context.Context) ([]DayOff, error)
}

// =============================================================================
// TRANSACTIONAL STORE
// =============================================================================

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, transaction is rolled back.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// ForEmployee is a PeriodFilter selecting one employee's periods.
func ForEmployee(employeeID int64) PeriodFilter {
	return PeriodFilter{EmployeeID: &employeeID}
}
