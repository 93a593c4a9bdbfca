package schedule

import "sort"

// =============================================================================
// VALIDATOR - Budget and overlap rules for vacation periods
// =============================================================================

// Validator checks a candidate period against a snapshot of the employee's
// existing periods. It never touches a store; callers provide the snapshot.
//
// Checks run in a fixed order and the first failure wins:
//  1. range   (end before start)
//  2. budget  (existing total + new days > cap)
//  3. overlap (closed intervals intersect)
//
// Updates check range, then overlap, then budget with the edited row excluded.
type Validator struct {
	policy Policy
}

func NewValidator(policy Policy) *Validator {
	return &Validator{policy: policy}
}

// Policy returns the rules this validator enforces.
func (v *Validator) Policy() Policy {
	return v.policy
}

// ValidateNewPeriod returns the inclusive day count of [start, end] or the
// first rule it breaks. Periods in existing that belong to another employee
// are ignored.
func (v *Validator) ValidateNewPeriod(employeeID int64, start, end Date, existing []VacationPeriod) (int, error) {
	days, err := checkRange(start, end)
	if err != nil {
		return 0, err
	}

	own := ownPeriods(employeeID, existing, 0)
	if err := v.checkBudget(employeeID, days, own); err != nil {
		return 0, err
	}
	if err := checkOverlap(employeeID, start, end, own); err != nil {
		return 0, err
	}
	return days, nil
}

// ValidateUpdatedPeriod is ValidateNewPeriod for an edit of periodID. The
// period being edited is excluded from both the overlap and budget checks.
func (v *Validator) ValidateUpdatedPeriod(periodID, employeeID int64, start, end Date, existing []VacationPeriod) (int, error) {
	days, err := checkRange(start, end)
	if err != nil {
		return 0, err
	}

	others := ownPeriods(employeeID, existing, periodID)
	if err := checkOverlap(employeeID, start, end, others); err != nil {
		return 0, err
	}
	if err := v.checkBudget(employeeID, days, others); err != nil {
		return 0, err
	}
	return days, nil
}

func checkRange(start, end Date) (int, error) {
	if end.Before(start) {
		return 0, &RangeError{Start: start, End: end}
	}
	return InclusiveDays(start, end), nil
}

func (v *Validator) checkBudget(employeeID int64, days int, existing []VacationPeriod) error {
	total := TotalDays(existing)
	if total+days > v.policy.AnnualCap {
		return &BudgetExceededError{
			EmployeeID: employeeID,
			Existing:   total,
			Requested:  days,
			Cap:        v.policy.AnnualCap,
		}
	}
	return nil
}

// checkOverlap reports the earliest conflicting period so the result does not
// depend on snapshot order.
func checkOverlap(employeeID int64, start, end Date, existing []VacationPeriod) error {
	var conflicts []VacationPeriod
	for _, p := range existing {
		if p.Overlaps(start, end) {
			conflicts = append(conflicts, p)
		}
	}
	if len(conflicts) == 0 {
		return nil
	}
	sort.Slice(conflicts, func(i, j int) bool {
		if !conflicts[i].Start.Equal(conflicts[j].Start) {
			return conflicts[i].Start.Before(conflicts[j].Start)
		}
		return conflicts[i].ID < conflicts[j].ID
	})
	return &OverlapError{
		EmployeeID: employeeID,
		Start:      start,
		End:        end,
		Conflict:   conflicts[0],
	}
}

func ownPeriods(employeeID int64, periods []VacationPeriod, excludeID int64) []VacationPeriod {
	own := make([]VacationPeriod, 0, len(periods))
	for _, p := range periods {
		if p.EmployeeID != employeeID {
			continue
		}
		if excludeID != 0 && p.ID == excludeID {
			continue
		}
		own = append(own, p)
	}
	return own
}

// TotalDays sums Days over periods.
func TotalDays(periods []VacationPeriod) int {
	total := 0
	for _, p := range periods {
		total += p.Days
	}
	return total
}
