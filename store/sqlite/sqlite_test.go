package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/vacation-engine/schedule"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func date(s string) schedule.Date {
	return schedule.MustParseDate(s)
}

func insertTestPeriod(t *testing.T, s *Store, employeeID int64, start, end string, allowance bool) int64 {
	t.Helper()
	st, en := date(start), date(end)
	id, err := s.InsertPeriod(context.Background(), schedule.VacationPeriod{
		EmployeeID:     employeeID,
		Start:          st,
		End:            en,
		Days:           schedule.InclusiveDays(st, en),
		AllowanceTaken: allowance,
		Color:          schedule.DefaultColor,
	})
	require.NoError(t, err)
	return id
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestStore_EmployeeCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	bruno, err := s.SaveEmployee(ctx, "Bruno")
	require.NoError(t, err)
	ana, err := s.SaveEmployee(ctx, "Ana")
	require.NoError(t, err)

	list, err := s.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Ana", list[0].Name, "alphabetical")

	require.NoError(t, s.RenameEmployee(ctx, bruno.ID, "Bruno Lima"))
	got, err := s.GetEmployee(ctx, bruno.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bruno Lima", got.Name)

	require.NoError(t, s.DeleteEmployee(ctx, ana.ID))
	_, err = s.GetEmployee(ctx, ana.ID)
	assert.ErrorIs(t, err, schedule.ErrEmployeeNotFound)

	assert.ErrorIs(t, s.RenameEmployee(ctx, 999, "x"), schedule.ErrEmployeeNotFound)
	assert.ErrorIs(t, s.DeleteEmployee(ctx, 999), schedule.ErrEmployeeNotFound)
}

func TestStore_DeleteEmployeeWithRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	emp, err := s.SaveEmployee(ctx, "Ana")
	require.NoError(t, err)
	insertTestPeriod(t, s, emp.ID, "2025-01-10", "2025-01-12", false)

	err = s.DeleteEmployee(ctx, emp.ID)

	assert.ErrorIs(t, err, schedule.ErrEmployeeHasRecords)
}

// =============================================================================
// PERIODS
// =============================================================================

func TestStore_PeriodRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	emp, err := s.SaveEmployee(ctx, "Ana")
	require.NoError(t, err)

	id, err := s.InsertPeriod(ctx, schedule.VacationPeriod{
		EmployeeID:          emp.ID,
		Start:               date("2025-01-10"),
		End:                 date("2025-01-19"),
		Days:                10,
		ScheduledExternally: true,
		Color:               "#123456",
	})
	require.NoError(t, err)

	p, err := s.GetPeriod(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, emp.ID, p.EmployeeID)
	assert.Equal(t, "Ana", p.EmployeeName)
	assert.Equal(t, date("2025-01-10"), p.Start)
	assert.Equal(t, date("2025-01-19"), p.End)
	assert.Equal(t, 10, p.Days)
	assert.True(t, p.ScheduledExternally)
	assert.False(t, p.AllowanceTaken)
	assert.Equal(t, "#123456", p.Color)

	p.End = date("2025-01-20")
	p.Days = 11
	p.AllowanceTaken = true
	require.NoError(t, s.UpdatePeriod(ctx, p))

	updated, err := s.GetPeriod(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 11, updated.Days)
	assert.True(t, updated.AllowanceTaken)

	require.NoError(t, s.DeletePeriod(ctx, id))
	_, err = s.GetPeriod(ctx, id)
	assert.ErrorIs(t, err, schedule.ErrPeriodNotFound)
	assert.ErrorIs(t, s.DeletePeriod(ctx, id), schedule.ErrPeriodNotFound)
}

func TestStore_InsertPeriodUnknownEmployee(t *testing.T) {
	s := newTestStore(t)

	_, err := s.InsertPeriod(context.Background(), schedule.VacationPeriod{
		EmployeeID: 42,
		Start:      date("2025-01-10"),
		End:        date("2025-01-10"),
		Days:       1,
	})

	assert.ErrorIs(t, err, schedule.ErrEmployeeNotFound)
}

func TestStore_ListPeriodsFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ana, err := s.SaveEmployee(ctx, "Ana")
	require.NoError(t, err)
	bruno, err := s.SaveEmployee(ctx, "Bruno")
	require.NoError(t, err)

	insertTestPeriod(t, s, ana.ID, "2025-03-10", "2025-03-12", true)
	insertTestPeriod(t, s, ana.ID, "2025-01-10", "2025-01-12", false)
	insertTestPeriod(t, s, bruno.ID, "2025-12-29", "2026-01-02", false)
	insertTestPeriod(t, s, bruno.ID, "2026-03-02", "2026-03-03", false)

	taken := true
	tests := []struct {
		name   string
		filter schedule.PeriodFilter
		want   []string
	}{
		{"all ordered by start", schedule.PeriodFilter{}, []string{"2025-01-10", "2025-03-10", "2025-12-29", "2026-03-02"}},
		{"employee", schedule.ForEmployee(bruno.ID), []string{"2025-12-29", "2026-03-02"}},
		{"year uses start date", schedule.PeriodFilter{Year: 2026}, []string{"2026-03-02"}},
		{"month uses start date", schedule.PeriodFilter{Month: 3}, []string{"2025-03-10", "2026-03-02"}},
		{"year and month", schedule.PeriodFilter{Year: 2025, Month: 1}, []string{"2025-01-10"}},
		{"allowance", schedule.PeriodFilter{AllowanceTaken: &taken}, []string{"2025-03-10"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			periods, err := s.ListPeriods(ctx, tt.filter)
			require.NoError(t, err)
			var starts []string
			for _, p := range periods {
				starts = append(starts, p.Start.String())
			}
			assert.Equal(t, tt.want, starts)
		})
	}

	total, err := s.SumPeriodDays(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, total)

	none, err := s.SumPeriodDays(ctx, 999)
	require.NoError(t, err)
	assert.Zero(t, none)
}

// =============================================================================
// DAYS OFF
// =============================================================================

func TestStore_DaysOff(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	emp, err := s.SaveEmployee(ctx, "Ana")
	require.NoError(t, err)

	missing, err := s.GetDayOff(ctx, emp.ID, 2025)
	require.NoError(t, err)
	assert.Nil(t, missing)

	id, err := s.InsertDayOff(ctx, schedule.DayOff{EmployeeID: emp.ID, Year: 2025, Date: date("2025-08-15")})
	require.NoError(t, err)

	_, err = s.InsertDayOff(ctx, schedule.DayOff{EmployeeID: emp.ID, Year: 2025, Date: date("2025-09-01")})
	assert.ErrorIs(t, err, schedule.ErrDuplicateDayOff)

	found, err := s.GetDayOff(ctx, emp.ID, 2025)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, id, found.ID)
	assert.Equal(t, "Ana", found.EmployeeName)

	require.NoError(t, s.UpdateDayOff(ctx, id, date("2025-10-10")))
	byID, err := s.GetDayOffByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, date("2025-10-10"), byID.Date)

	all, err := s.ListDaysOff(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, s.DeleteDayOff(ctx, id))
	assert.ErrorIs(t, s.DeleteDayOff(ctx, id), schedule.ErrDayOffNotFound)
	assert.ErrorIs(t, s.UpdateDayOff(ctx, id, date("2025-10-11")), schedule.ErrDayOffNotFound)
	_, err = s.GetDayOffByID(ctx, id)
	assert.ErrorIs(t, err, schedule.ErrDayOffNotFound)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestStore_WithTxRollback(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	emp, err := s.SaveEmployee(ctx, "Ana")
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.WithTx(ctx, func(tx schedule.Store) error {
		st := date("2025-01-10")
		if _, err := tx.InsertPeriod(ctx, schedule.VacationPeriod{EmployeeID: emp.ID, Start: st, End: st, Days: 1}); err != nil {
			return err
		}
		// Visible inside the transaction.
		periods, err := tx.ListPeriods(ctx, schedule.ForEmployee(emp.ID))
		if err != nil {
			return err
		}
		assert.Len(t, periods, 1)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	periods, err := s.ListPeriods(ctx, schedule.PeriodFilter{})
	require.NoError(t, err)
	assert.Empty(t, periods)
}

func TestStore_ServiceIntegration(t *testing.T) {
	// GIVEN: The service on top of SQLite
	// WHEN: A period exceeds the budget
	// THEN: Nothing is written

	s := newTestStore(t)
	ctx := context.Background()
	svc := schedule.NewService(s, schedule.DefaultPolicy(), nil, nil)

	emp, err := svc.CreateEmployee(ctx, "Ana")
	require.NoError(t, err)
	_, err = svc.AddPeriod(ctx, schedule.NewPeriod{EmployeeID: emp.ID, Start: date("2025-01-01"), End: date("2025-01-25")})
	require.NoError(t, err)

	_, err = svc.AddPeriod(ctx, schedule.NewPeriod{EmployeeID: emp.ID, Start: date("2025-07-01"), End: date("2025-07-06")})
	assert.ErrorIs(t, err, schedule.ErrBudgetExceeded)

	b, err := svc.Balance(ctx, emp.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, b.Used)
	assert.Equal(t, 5, b.Remaining)
}
