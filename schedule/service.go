package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// =============================================================================
// SERVICE - Use cases over a TxStore
// =============================================================================

// Service owns every write. Validation and the write it guards run inside one
// store transaction so two concurrent submissions cannot both pass the budget
// or overlap check.
type Service struct {
	store     TxStore
	validator *Validator
	holidays  HolidayProvider
	clock     Clock
	log       *logrus.Entry
}

func NewService(store TxStore, policy Policy, holidays HolidayProvider, clock Clock) *Service {
	if clock == nil {
		clock = RealClock{}
	}
	return &Service{
		store:     store,
		validator: NewValidator(policy),
		holidays:  holidays,
		clock:     clock,
		log:       logrus.WithField("component", "schedule"),
	}
}

func (s *Service) Policy() Policy { return s.validator.Policy() }
func (s *Service) Clock() Clock   { return s.clock }

// NewPeriod is the input for AddPeriod and UpdatePeriod.
type NewPeriod struct {
	EmployeeID          int64
	Start               Date
	End                 Date
	ScheduledExternally bool
	AllowanceTaken      bool
	Color               string
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Service) ListEmployees(ctx context.Context) ([]Employee, error) {
	return s.store.ListEmployees(ctx)
}

func (s *Service) GetEmployee(ctx context.Context, id int64) (Employee, error) {
	return s.store.GetEmployee(ctx, id)
}

func (s *Service) CreateEmployee(ctx context.Context, name string) (Employee, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Employee{}, fmt.Errorf("%w: employee name is required", ErrInvalidInput)
	}
	emp, err := s.store.SaveEmployee(ctx, name)
	if err != nil {
		return Employee{}, err
	}
	s.log.WithFields(logrus.Fields{"employee_id": emp.ID, "name": emp.Name}).Info("employee created")
	return emp, nil
}

func (s *Service) RenameEmployee(ctx context.Context, id int64, name string) (Employee, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Employee{}, fmt.Errorf("%w: employee name is required", ErrInvalidInput)
	}
	if err := s.store.RenameEmployee(ctx, id, name); err != nil {
		return Employee{}, err
	}
	return Employee{ID: id, Name: name}, nil
}

// DeleteEmployee refuses while the employee still owns periods or days off.
func (s *Service) DeleteEmployee(ctx context.Context, id int64) error {
	return s.store.WithTx(ctx, func(tx Store) error {
		if _, err := tx.GetEmployee(ctx, id); err != nil {
			return err
		}
		periods, err := tx.ListPeriods(ctx, ForEmployee(id))
		if err != nil {
			return err
		}
		daysOff, err := tx.ListDaysOff(ctx)
		if err != nil {
			return err
		}
		if len(periods) > 0 || ownsDayOff(id, daysOff) {
			return ErrEmployeeHasRecords
		}
		return tx.DeleteEmployee(ctx, id)
	})
}

func ownsDayOff(employeeID int64, daysOff []DayOff) bool {
	for _, d := range daysOff {
		if d.EmployeeID == employeeID {
			return true
		}
	}
	return false
}

// Balance returns the employee's used and remaining days.
func (s *Service) Balance(ctx context.Context, employeeID int64) (Balance, error) {
	if _, err := s.store.GetEmployee(ctx, employeeID); err != nil {
		return Balance{}, err
	}
	used, err := s.store.SumPeriodDays(ctx, employeeID)
	if err != nil {
		return Balance{}, err
	}
	return NewBalance(employeeID, used, s.Policy()), nil
}

// =============================================================================
// VACATION PERIODS
// =============================================================================

// AddPeriod validates and stores a new period.
func (s *Service) AddPeriod(ctx context.Context, in NewPeriod) (VacationPeriod, error) {
	var created VacationPeriod
	err := s.store.WithTx(ctx, func(tx Store) error {
		emp, err := tx.GetEmployee(ctx, in.EmployeeID)
		if err != nil {
			return err
		}
		existing, err := tx.ListPeriods(ctx, ForEmployee(in.EmployeeID))
		if err != nil {
			return err
		}
		days, err := s.validator.ValidateNewPeriod(in.EmployeeID, in.Start, in.End, existing)
		if err != nil {
			return err
		}

		p := in.period(days)
		id, err := tx.InsertPeriod(ctx, p)
		if err != nil {
			return err
		}
		p.ID = id
		p.EmployeeName = emp.Name
		created = p
		return nil
	})
	if err != nil {
		s.logRejection(err, in)
		return VacationPeriod{}, err
	}

	s.log.WithFields(logrus.Fields{
		"period_id":   created.ID,
		"employee_id": created.EmployeeID,
		"start":       created.Start.String(),
		"end":         created.End.String(),
		"days":        created.Days,
	}).Info("vacation period added")
	return created, nil
}

// UpdatePeriod replaces dates, flags and color of an existing period. The
// period may move to another employee.
func (s *Service) UpdatePeriod(ctx context.Context, id int64, in NewPeriod) (VacationPeriod, error) {
	var updated VacationPeriod
	err := s.store.WithTx(ctx, func(tx Store) error {
		if _, err := tx.GetPeriod(ctx, id); err != nil {
			return err
		}
		emp, err := tx.GetEmployee(ctx, in.EmployeeID)
		if err != nil {
			return err
		}
		existing, err := tx.ListPeriods(ctx, ForEmployee(in.EmployeeID))
		if err != nil {
			return err
		}
		days, err := s.validator.ValidateUpdatedPeriod(id, in.EmployeeID, in.Start, in.End, existing)
		if err != nil {
			return err
		}

		p := in.period(days)
		p.ID = id
		if err := tx.UpdatePeriod(ctx, p); err != nil {
			return err
		}
		p.EmployeeName = emp.Name
		updated = p
		return nil
	})
	if err != nil {
		s.logRejection(err, in)
		return VacationPeriod{}, err
	}

	s.log.WithFields(logrus.Fields{"period_id": id, "days": updated.Days}).Info("vacation period updated")
	return updated, nil
}

func (s *Service) DeletePeriod(ctx context.Context, id int64) error {
	if err := s.store.DeletePeriod(ctx, id); err != nil {
		return err
	}
	s.log.WithField("period_id", id).Info("vacation period deleted")
	return nil
}

func (s *Service) GetPeriod(ctx context.Context, id int64) (VacationPeriod, error) {
	return s.store.GetPeriod(ctx, id)
}

func (s *Service) ListPeriods(ctx context.Context, filter PeriodFilter) ([]VacationPeriod, error) {
	return s.store.ListPeriods(ctx, filter)
}

// Overview lists periods joined with each employee's day off for the current
// and next year.
func (s *Service) Overview(ctx context.Context, filter PeriodFilter) ([]PeriodOverview, error) {
	periods, err := s.store.ListPeriods(ctx, filter)
	if err != nil {
		return nil, err
	}
	daysOff, err := s.store.ListDaysOff(ctx)
	if err != nil {
		return nil, err
	}

	year := s.clock.Now().Year()
	type key struct {
		employee int64
		year     int
	}
	byKey := make(map[key]DayOff, len(daysOff))
	for _, d := range daysOff {
		byKey[key{d.EmployeeID, d.Year}] = d
	}
	lookup := func(employeeID int64, y int) *DayOff {
		if d, ok := byKey[key{employeeID, y}]; ok {
			return &d
		}
		return nil
	}

	out := make([]PeriodOverview, 0, len(periods))
	for _, p := range periods {
		out = append(out, PeriodOverview{
			VacationPeriod:    p,
			DayOffCurrentYear: lookup(p.EmployeeID, year),
			DayOffNextYear:    lookup(p.EmployeeID, year+1),
		})
	}
	return out, nil
}

func (in NewPeriod) period(days int) VacationPeriod {
	color := in.Color
	if color == "" {
		color = DefaultColor
	}
	return VacationPeriod{
		EmployeeID:          in.EmployeeID,
		Start:               in.Start,
		End:                 in.End,
		Days:                days,
		ScheduledExternally: in.ScheduledExternally,
		AllowanceTaken:      in.AllowanceTaken,
		Color:               color,
	}
}

func (s *Service) logRejection(err error, in NewPeriod) {
	if !IsClientError(err) {
		return
	}
	fields := logrus.Fields{
		"employee_id": in.EmployeeID,
		"start":       in.Start.String(),
		"end":         in.End.String(),
	}
	var budget *BudgetExceededError
	if errors.As(err, &budget) {
		fields["existing"] = budget.Existing
		fields["requested"] = budget.Requested
	}
	s.log.WithFields(fields).WithError(err).Warn("vacation period rejected")
}

// =============================================================================
// DAYS OFF
// =============================================================================

// FindDayOff returns the employee's day off for year, or nil.
func (s *Service) FindDayOff(ctx context.Context, employeeID int64, year int) (*DayOff, error) {
	if _, err := s.store.GetEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	return s.store.GetDayOff(ctx, employeeID, year)
}

// SaveDayOff creates the (employee, year) day off or moves its date if it
// already exists. The date must fall inside year.
func (s *Service) SaveDayOff(ctx context.Context, employeeID int64, year int, date Date) (DayOff, error) {
	if err := checkDayOffYear(year, date); err != nil {
		return DayOff{}, err
	}
	var saved DayOff
	err := s.store.WithTx(ctx, func(tx Store) error {
		emp, err := tx.GetEmployee(ctx, employeeID)
		if err != nil {
			return err
		}
		current, err := tx.GetDayOff(ctx, employeeID, year)
		if err != nil {
			return err
		}

		if current != nil {
			if err := tx.UpdateDayOff(ctx, current.ID, date); err != nil {
				return err
			}
			saved = *current
			saved.Date = date
		} else {
			d := DayOff{EmployeeID: employeeID, Year: year, Date: date}
			id, err := tx.InsertDayOff(ctx, d)
			if err != nil {
				return err
			}
			d.ID = id
			saved = d
		}
		saved.EmployeeName = emp.Name
		return nil
	})
	if err != nil {
		return DayOff{}, err
	}

	s.log.WithFields(logrus.Fields{
		"day_off_id":  saved.ID,
		"employee_id": employeeID,
		"year":        year,
		"date":        date.String(),
	}).Info("day off saved")
	return saved, nil
}

func (s *Service) UpdateDayOff(ctx context.Context, id int64, date Date) (DayOff, error) {
	var updated DayOff
	err := s.store.WithTx(ctx, func(tx Store) error {
		d, err := tx.GetDayOffByID(ctx, id)
		if err != nil {
			return err
		}
		if err := checkDayOffYear(d.Year, date); err != nil {
			return err
		}
		if err := tx.UpdateDayOff(ctx, id, date); err != nil {
			return err
		}
		d.Date = date
		updated = d
		return nil
	})
	return updated, err
}

func checkDayOffYear(year int, date Date) error {
	if date.Year() != year {
		return fmt.Errorf("%w: day off for %d cannot be on %s", ErrInvalidInput, year, date)
	}
	return nil
}

func (s *Service) DeleteDayOff(ctx context.Context, id int64) error {
	return s.store.DeleteDayOff(ctx, id)
}

func (s *Service) ListDaysOff(ctx context.Context) ([]DayOff, error) {
	return s.store.ListDaysOff(ctx)
}

// Reset removes every period, day off and employee in one transaction.
func (s *Service) Reset(ctx context.Context) error {
	err := s.store.WithTx(ctx, func(tx Store) error {
		periods, err := tx.ListPeriods(ctx, PeriodFilter{})
		if err != nil {
			return err
		}
		for _, p := range periods {
			if err := tx.DeletePeriod(ctx, p.ID); err != nil {
				return err
			}
		}
		daysOff, err := tx.ListDaysOff(ctx)
		if err != nil {
			return err
		}
		for _, d := range daysOff {
			if err := tx.DeleteDayOff(ctx, d.ID); err != nil {
				return err
			}
		}
		employees, err := tx.ListEmployees(ctx)
		if err != nil {
			return err
		}
		for _, e := range employees {
			if err := tx.DeleteEmployee(ctx, e.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Warn("all scheduling data removed")
	return nil
}

// =============================================================================
// TIMELINE
// =============================================================================

// Timeline composes the chart for filter. See Compose for the
// ErrNoTimelineData contract.
func (s *Service) Timeline(ctx context.Context, filter TimelineFilter) (Timeline, error) {
	periods, err := s.store.ListPeriods(ctx, PeriodFilter{})
	if err != nil {
		return Timeline{}, err
	}
	daysOff, err := s.store.ListDaysOff(ctx)
	if err != nil {
		return Timeline{}, err
	}
	return Compose(periods, daysOff, filter, s.holidays, s.clock)
}

// Holidays lists the sorted holidays of one year.
func (s *Service) Holidays(year int) []Holiday {
	return HolidayMarkers(s.holidays, []int{year}).Sorted
}
