package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func period(id, employeeID int64, start, end string) VacationPeriod {
	s, e := MustParseDate(start), MustParseDate(end)
	return VacationPeriod{
		ID:         id,
		EmployeeID: employeeID,
		Start:      s,
		End:        e,
		Days:       InclusiveDays(s, e),
	}
}

// =============================================================================
// NEW PERIODS
// =============================================================================

func TestValidateNewPeriod(t *testing.T) {
	v := NewValidator(DefaultPolicy())

	tests := []struct {
		name     string
		start    string
		end      string
		existing []VacationPeriod
		wantDays int
		wantErr  error
	}{
		{
			name:     "ten day period on empty history",
			start:    "2025-01-10",
			end:      "2025-01-19",
			wantDays: 10,
		},
		{
			name:     "single day counts as one",
			start:    "2025-03-03",
			end:      "2025-03-03",
			wantDays: 1,
		},
		{
			name:    "end before start",
			start:   "2025-01-10",
			end:     "2025-01-09",
			wantErr: ErrInvalidRange,
		},
		{
			name:     "exactly reaching the cap is allowed",
			start:    "2025-07-01",
			end:      "2025-07-05",
			existing: []VacationPeriod{period(1, 1, "2025-01-01", "2025-01-25")},
			wantDays: 5,
		},
		{
			name:     "one day over the cap",
			start:    "2025-07-01",
			end:      "2025-07-06",
			existing: []VacationPeriod{period(1, 1, "2025-01-01", "2025-01-25")},
			wantErr:  ErrBudgetExceeded,
		},
		{
			name:     "shared boundary day overlaps",
			start:    "2025-01-19",
			end:      "2025-01-25",
			existing: []VacationPeriod{period(1, 1, "2025-01-10", "2025-01-19")},
			wantErr:  ErrOverlapConflict,
		},
		{
			name:     "adjacent period does not overlap",
			start:    "2025-01-20",
			end:      "2025-01-25",
			existing: []VacationPeriod{period(1, 1, "2025-01-10", "2025-01-19")},
			wantDays: 6,
		},
		{
			name:     "new period containing an existing one",
			start:    "2025-01-01",
			end:      "2025-01-31",
			existing: []VacationPeriod{period(1, 1, "2025-01-10", "2025-01-12")},
			wantErr:  ErrBudgetExceeded,
		},
		{
			name:     "other employees are ignored",
			start:    "2025-01-10",
			end:      "2025-01-19",
			existing: []VacationPeriod{period(1, 2, "2025-01-01", "2025-01-30")},
			wantDays: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days, err := v.ValidateNewPeriod(1, MustParseDate(tt.start), MustParseDate(tt.end), tt.existing)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Zero(t, days)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDays, days)
		})
	}
}

func TestValidateNewPeriod_BudgetErrorCarriesNumbers(t *testing.T) {
	// GIVEN: 25 days already scheduled
	// WHEN: Requesting 6 more
	// THEN: The error reports 25 existing, 6 requested, cap 30

	v := NewValidator(DefaultPolicy())
	existing := []VacationPeriod{period(1, 7, "2025-01-01", "2025-01-25")}

	_, err := v.ValidateNewPeriod(7, MustParseDate("2025-07-01"), MustParseDate("2025-07-06"), existing)

	var budget *BudgetExceededError
	require.ErrorAs(t, err, &budget)
	assert.Equal(t, 25, budget.Existing)
	assert.Equal(t, 6, budget.Requested)
	assert.Equal(t, 30, budget.Cap)
	assert.Equal(t, 5, budget.Remaining())
	assert.Contains(t, err.Error(), "25")
	assert.Contains(t, err.Error(), "6")
}

func TestValidateNewPeriod_BudgetCheckedBeforeOverlap(t *testing.T) {
	// GIVEN: A request that both overlaps and exceeds the budget
	// THEN: The budget error wins

	v := NewValidator(DefaultPolicy())
	existing := []VacationPeriod{period(1, 1, "2025-01-01", "2025-01-28")}

	_, err := v.ValidateNewPeriod(1, MustParseDate("2025-01-20"), MustParseDate("2025-01-25"), existing)

	assert.ErrorIs(t, err, ErrBudgetExceeded)
	assert.NotErrorIs(t, err, ErrOverlapConflict)
}

func TestValidateNewPeriod_OverlapReportsEarliestConflict(t *testing.T) {
	v := NewValidator(DefaultPolicy())
	existing := []VacationPeriod{
		period(9, 1, "2025-02-10", "2025-02-12"),
		period(4, 1, "2025-02-03", "2025-02-05"),
	}

	_, err := v.ValidateNewPeriod(1, MustParseDate("2025-02-01"), MustParseDate("2025-02-11"), existing)

	var overlap *OverlapError
	require.ErrorAs(t, err, &overlap)
	assert.Equal(t, int64(4), overlap.Conflict.ID)
}

func TestValidateNewPeriod_CustomCap(t *testing.T) {
	v := NewValidator(Policy{AnnualCap: 5})

	_, err := v.ValidateNewPeriod(1, MustParseDate("2025-01-01"), MustParseDate("2025-01-06"), nil)

	assert.ErrorIs(t, err, ErrBudgetExceeded)
}

// =============================================================================
// UPDATED PERIODS
// =============================================================================

func TestValidateUpdatedPeriod_ExcludesItselfFromOverlap(t *testing.T) {
	// GIVEN: Period 1 covers Jan 10-19
	// WHEN: Shifting it two days later
	// THEN: It does not conflict with its own old dates

	v := NewValidator(DefaultPolicy())
	existing := []VacationPeriod{period(1, 1, "2025-01-10", "2025-01-19")}

	days, err := v.ValidateUpdatedPeriod(1, 1, MustParseDate("2025-01-12"), MustParseDate("2025-01-21"), existing)

	require.NoError(t, err)
	assert.Equal(t, 10, days)
}

func TestValidateUpdatedPeriod_StillConflictsWithOthers(t *testing.T) {
	v := NewValidator(DefaultPolicy())
	existing := []VacationPeriod{
		period(1, 1, "2025-01-10", "2025-01-19"),
		period(2, 1, "2025-03-01", "2025-03-05"),
	}

	_, err := v.ValidateUpdatedPeriod(2, 1, MustParseDate("2025-01-15"), MustParseDate("2025-01-16"), existing)

	var overlap *OverlapError
	require.ErrorAs(t, err, &overlap)
	assert.Equal(t, int64(1), overlap.Conflict.ID)
}

func TestValidateUpdatedPeriod_RechecksBudgetWithoutOwnDays(t *testing.T) {
	// GIVEN: 20 days in period 1 and 5 days in period 2
	// WHEN: Growing period 2 to 10 days (total 30)
	// THEN: Allowed, its old 5 days are not double counted
	// WHEN: Growing period 2 to 11 days (total 31)
	// THEN: Rejected with existing = 20

	v := NewValidator(DefaultPolicy())
	existing := []VacationPeriod{
		period(1, 1, "2025-01-01", "2025-01-20"),
		period(2, 1, "2025-06-01", "2025-06-05"),
	}

	days, err := v.ValidateUpdatedPeriod(2, 1, MustParseDate("2025-06-01"), MustParseDate("2025-06-10"), existing)
	require.NoError(t, err)
	assert.Equal(t, 10, days)

	_, err = v.ValidateUpdatedPeriod(2, 1, MustParseDate("2025-06-01"), MustParseDate("2025-06-11"), existing)
	var budget *BudgetExceededError
	require.ErrorAs(t, err, &budget)
	assert.Equal(t, 20, budget.Existing)
	assert.Equal(t, 11, budget.Requested)
}

func TestValidateUpdatedPeriod_InvalidRange(t *testing.T) {
	v := NewValidator(DefaultPolicy())

	_, err := v.ValidateUpdatedPeriod(1, 1, MustParseDate("2025-06-10"), MustParseDate("2025-06-01"), nil)

	var rangeErr *RangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.True(t, IsClientError(err))
}

func TestValidator_Deterministic(t *testing.T) {
	v := NewValidator(DefaultPolicy())
	existing := []VacationPeriod{
		period(1, 1, "2025-01-10", "2025-01-19"),
		period(2, 1, "2025-01-21", "2025-01-23"),
	}

	_, first := v.ValidateNewPeriod(1, MustParseDate("2025-01-15"), MustParseDate("2025-01-22"), existing)
	for i := 0; i < 10; i++ {
		_, again := v.ValidateNewPeriod(1, MustParseDate("2025-01-15"), MustParseDate("2025-01-22"), existing)
		assert.Equal(t, first.Error(), again.Error())
	}
}
