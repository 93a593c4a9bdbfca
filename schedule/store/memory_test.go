package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/vacation-engine/schedule"
)

func TestMemory_WithTxRollsBackOnError(t *testing.T) {
	// GIVEN: An employee
	// WHEN: A transaction inserts a period and then fails
	// THEN: The period is not visible afterwards

	ctx := context.Background()
	m := NewMemory()
	emp, err := m.SaveEmployee(ctx, "Ana")
	require.NoError(t, err)

	boom := errors.New("boom")
	err = m.WithTx(ctx, func(tx schedule.Store) error {
		_, err := tx.InsertPeriod(ctx, schedule.VacationPeriod{
			EmployeeID: emp.ID,
			Start:      schedule.MustParseDate("2025-01-10"),
			End:        schedule.MustParseDate("2025-01-12"),
			Days:       3,
		})
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	periods, err := m.ListPeriods(ctx, schedule.PeriodFilter{})
	require.NoError(t, err)
	assert.Empty(t, periods)
}

func TestMemory_WithTxCommits(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	err := m.WithTx(ctx, func(tx schedule.Store) error {
		emp, err := tx.SaveEmployee(ctx, "Ana")
		if err != nil {
			return err
		}
		_, err = tx.InsertDayOff(ctx, schedule.DayOff{
			EmployeeID: emp.ID,
			Year:       2025,
			Date:       schedule.MustParseDate("2025-08-15"),
		})
		return err
	})
	require.NoError(t, err)

	daysOff, err := m.ListDaysOff(ctx)
	require.NoError(t, err)
	require.Len(t, daysOff, 1)
	assert.Equal(t, "Ana", daysOff[0].EmployeeName)
}

func TestMemory_DayOffUniquePerYear(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	emp, err := m.SaveEmployee(ctx, "Ana")
	require.NoError(t, err)

	d := schedule.DayOff{EmployeeID: emp.ID, Year: 2025, Date: schedule.MustParseDate("2025-08-15")}
	_, err = m.InsertDayOff(ctx, d)
	require.NoError(t, err)

	_, err = m.InsertDayOff(ctx, d)
	assert.ErrorIs(t, err, schedule.ErrDuplicateDayOff)

	d.Year = 2026
	_, err = m.InsertDayOff(ctx, d)
	assert.NoError(t, err)
}

func TestMemory_ReferentialChecks(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.InsertPeriod(ctx, schedule.VacationPeriod{EmployeeID: 9, Days: 1})
	assert.ErrorIs(t, err, schedule.ErrEmployeeNotFound)

	_, err = m.GetPeriod(ctx, 1)
	assert.ErrorIs(t, err, schedule.ErrPeriodNotFound)

	got, err := m.GetDayOff(ctx, 1, 2025)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemory_ListPeriodsSortedWithNames(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	emp, err := m.SaveEmployee(ctx, "Ana")
	require.NoError(t, err)

	for _, start := range []string{"2025-06-01", "2025-02-01", "2025-04-01"} {
		s := schedule.MustParseDate(start)
		_, err := m.InsertPeriod(ctx, schedule.VacationPeriod{EmployeeID: emp.ID, Start: s, End: s, Days: 1})
		require.NoError(t, err)
	}

	periods, err := m.ListPeriods(ctx, schedule.ForEmployee(emp.ID))
	require.NoError(t, err)
	require.Len(t, periods, 3)
	assert.Equal(t, "2025-02-01", periods[0].Start.String())
	assert.Equal(t, "2025-06-01", periods[2].Start.String())
	assert.Equal(t, "Ana", periods[1].EmployeeName)

	total, err := m.SumPeriodDays(ctx, emp.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}
