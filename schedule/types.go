package schedule

import (
	"github.com/shopspring/decimal"
)

// DefaultColor is the bar color used when a period is saved without one.
const DefaultColor = "#4CAF50"

// =============================================================================
// RECORDS
// =============================================================================

// Employee is a person who takes vacations. Names are unique in practice but
// not enforced.
type Employee struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// VacationPeriod is a closed interval [Start, End] of leave. Days is always
// End - Start + 1 and never less than 1.
type VacationPeriod struct {
	ID                  int64  `json:"id"`
	EmployeeID          int64  `json:"employee_id"`
	EmployeeName        string `json:"employee_name,omitempty"`
	Start               Date   `json:"start"`
	End                 Date   `json:"end"`
	Days                int    `json:"days"`
	ScheduledExternally bool   `json:"scheduled_externally"`
	AllowanceTaken      bool   `json:"allowance_taken"`
	Color               string `json:"color"`
}

// Overlaps reports whether [start, end] intersects the period, both ends inclusive.
func (p VacationPeriod) Overlaps(start, end Date) bool {
	return p.Start.BeforeOrEqual(end) && p.End.AfterOrEqual(start)
}

// DayOff is the single assiduity day an employee gets per year.
type DayOff struct {
	ID           int64  `json:"id"`
	EmployeeID   int64  `json:"employee_id"`
	EmployeeName string `json:"employee_name,omitempty"`
	Year         int    `json:"year"`
	Date         Date   `json:"date"`
}

// Holiday is a named non-working day. Never persisted.
type Holiday struct {
	Date Date   `json:"date"`
	Name string `json:"name"`
}

// PeriodFilter narrows ListPeriods-style queries. Zero values mean "any".
// Year and Month match the period's start date.
type PeriodFilter struct {
	EmployeeID          *int64
	Year                int
	Month               int
	AllowanceTaken      *bool
	ScheduledExternally *bool
}

// Match applies the filter to a single period.
func (f PeriodFilter) Match(p VacationPeriod) bool {
	if f.EmployeeID != nil && p.EmployeeID != *f.EmployeeID {
		return false
	}
	if f.Year != 0 && p.Start.Year() != f.Year {
		return false
	}
	if f.Month != 0 && int(p.Start.Month()) != f.Month {
		return false
	}
	if f.AllowanceTaken != nil && p.AllowanceTaken != *f.AllowanceTaken {
		return false
	}
	if f.ScheduledExternally != nil && p.ScheduledExternally != *f.ScheduledExternally {
		return false
	}
	return true
}

// =============================================================================
// POLICY & BALANCE
// =============================================================================

// Policy holds the tunable scheduling rules.
type Policy struct {
	AnnualCap int
}

// DefaultPolicy is the 30-day rule.
func DefaultPolicy() Policy {
	return Policy{AnnualCap: 30}
}

// Balance summarizes an employee's day budget.
type Balance struct {
	EmployeeID  int64           `json:"employee_id"`
	Used        int             `json:"used"`
	Remaining   int             `json:"remaining"`
	Cap         int             `json:"cap"`
	Utilization decimal.Decimal `json:"utilization"`
}

// NewBalance derives a balance from the used day count.
// Remaining may go negative for data written before the cap was lowered.
func NewBalance(employeeID int64, used int, policy Policy) Balance {
	utilization := decimal.Zero
	if policy.AnnualCap > 0 {
		utilization = decimal.NewFromInt(int64(used)).
			Div(decimal.NewFromInt(int64(policy.AnnualCap))).
			Round(2)
	}
	return Balance{
		EmployeeID:  employeeID,
		Used:        used,
		Remaining:   policy.AnnualCap - used,
		Cap:         policy.AnnualCap,
		Utilization: utilization,
	}
}

// PeriodOverview is a period joined with the employee's days off for the
// current and the next year.
type PeriodOverview struct {
	VacationPeriod
	DayOffCurrentYear *DayOff `json:"day_off_current_year"`
	DayOffNextYear    *DayOff `json:"day_off_next_year"`
}
