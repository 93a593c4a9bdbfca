/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Dates travel as ISO
  strings (YYYY-MM-DD); responses also carry a DD/MM/YYYY display copy.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Query: Parsed query strings

VALIDATION:
  Request and query types carry go-playground/validator tags. Handlers call
  h.validate.Struct before touching the service; rule violations that need
  stored state (budget, overlap) are reported by the service.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/warp/vacation-engine/schedule"
)

// =============================================================================
// REQUESTS
// =============================================================================

// EmployeeRequest creates or renames an employee.
type EmployeeRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// PeriodRequest creates or replaces a vacation period.
type PeriodRequest struct {
	EmployeeID          int64  `json:"employee_id" validate:"required,gt=0"`
	Start               string `json:"start" validate:"required,datetime=2006-01-02"`
	End                 string `json:"end" validate:"required,datetime=2006-01-02"`
	ScheduledExternally bool   `json:"scheduled_externally"`
	AllowanceTaken      bool   `json:"allowance_taken"`
	Color               string `json:"color" validate:"omitempty,hexcolor"`
}

// DayOffRequest saves the day off of an employee for a year.
type DayOffRequest struct {
	EmployeeID int64  `json:"employee_id" validate:"required,gt=0"`
	Year       int    `json:"year" validate:"required,min=1900,max=9999"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
}

// DayOffDateRequest moves an existing day off.
type DayOffDateRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

// PeriodQuery is the query string of GET /api/periods.
type PeriodQuery struct {
	EmployeeID int64 `validate:"min=0"`
	Year       int   `validate:"min=0,max=9999"`
	Month      int   `validate:"min=0,max=12"`
	Allowance  *bool
	Scheduled  *bool
}

// TimelineQuery is the query string of the timeline endpoints.
type TimelineQuery struct {
	Employee string
	Month    int    `validate:"min=0,max=12"`
	Year     int    `validate:"min=0,max=9999"`
	Theme    string `validate:"omitempty,oneof=light dark"`
}

func (q TimelineQuery) filter() schedule.TimelineFilter {
	return schedule.TimelineFilter{Employee: q.Employee, Month: q.Month, Year: q.Year}
}

// =============================================================================
// RESPONSES
// =============================================================================

type EmployeeDTO struct {
	ID      int64       `json:"id"`
	Name    string      `json:"name"`
	Balance *BalanceDTO `json:"balance,omitempty"`
}

type BalanceDTO struct {
	Used        int    `json:"used"`
	Remaining   int    `json:"remaining"`
	Cap         int    `json:"cap"`
	Utilization string `json:"utilization"`
}

type PeriodDTO struct {
	ID                  int64  `json:"id"`
	EmployeeID          int64  `json:"employee_id"`
	EmployeeName        string `json:"employee_name"`
	Start               string `json:"start"`
	End                 string `json:"end"`
	StartDisplay        string `json:"start_display"`
	EndDisplay          string `json:"end_display"`
	Days                int    `json:"days"`
	BusinessDays        *int   `json:"business_days,omitempty"`
	ScheduledExternally bool   `json:"scheduled_externally"`
	AllowanceTaken      bool   `json:"allowance_taken"`
	Color               string `json:"color"`
}

type DayOffDTO struct {
	ID           int64  `json:"id"`
	EmployeeID   int64  `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	Year         int    `json:"year"`
	Date         string `json:"date"`
	DateDisplay  string `json:"date_display"`
}

type PeriodOverviewDTO struct {
	PeriodDTO
	DayOffCurrentYear *DayOffDTO `json:"day_off_current_year"`
	DayOffNextYear    *DayOffDTO `json:"day_off_next_year"`
}

type HolidayDTO struct {
	Date        string `json:"date"`
	DateDisplay string `json:"date_display"`
	Name        string `json:"name"`
}

type TimelineEntryDTO struct {
	EmployeeName string `json:"employee_name"`
	Start        string `json:"start"`
	End          string `json:"end"`
	Category     string `json:"category"`
}

type TimelineDTO struct {
	Entries   []TimelineEntryDTO `json:"entries"`
	Weekends  []schedule.Span    `json:"weekends"`
	Holidays  []HolidayDTO       `json:"holidays"`
	Markers   []HolidayDTO       `json:"markers"`
	Employees []string           `json:"employees"`
	Years     []int              `json:"years"`
	Message   string             `json:"message,omitempty"`
}

// ScenarioDTO describes a demo data set.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects the scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toBalanceDTO(b schedule.Balance) *BalanceDTO {
	return &BalanceDTO{
		Used:        b.Used,
		Remaining:   b.Remaining,
		Cap:         b.Cap,
		Utilization: b.Utilization.StringFixed(2),
	}
}

func toPeriodDTO(p schedule.VacationPeriod) PeriodDTO {
	return PeriodDTO{
		ID:                  p.ID,
		EmployeeID:          p.EmployeeID,
		EmployeeName:        p.EmployeeName,
		Start:               p.Start.String(),
		End:                 p.End.String(),
		StartDisplay:        p.Start.Display(),
		EndDisplay:          p.End.Display(),
		Days:                p.Days,
		ScheduledExternally: p.ScheduledExternally,
		AllowanceTaken:      p.AllowanceTaken,
		Color:               p.Color,
	}
}

func toDayOffDTO(d schedule.DayOff) DayOffDTO {
	return DayOffDTO{
		ID:           d.ID,
		EmployeeID:   d.EmployeeID,
		EmployeeName: d.EmployeeName,
		Year:         d.Year,
		Date:         d.Date.String(),
		DateDisplay:  d.Date.Display(),
	}
}

func toDayOffDTOPtr(d *schedule.DayOff) *DayOffDTO {
	if d == nil {
		return nil
	}
	dto := toDayOffDTO(*d)
	return &dto
}

func toHolidayDTOs(hs []schedule.Holiday) []HolidayDTO {
	out := make([]HolidayDTO, len(hs))
	for i, h := range hs {
		out[i] = HolidayDTO{Date: h.Date.String(), DateDisplay: h.Date.Display(), Name: h.Name}
	}
	return out
}

func toTimelineDTO(tl schedule.Timeline) TimelineDTO {
	dto := TimelineDTO{
		Entries:   make([]TimelineEntryDTO, len(tl.Entries)),
		Weekends:  tl.Weekends,
		Holidays:  toHolidayDTOs(tl.HolidaysIn(tl.ListYear)),
		Markers:   toHolidayDTOs(tl.Holidays.Sorted),
		Employees: tl.Employees,
		Years:     tl.Years,
	}
	for i, e := range tl.Entries {
		dto.Entries[i] = TimelineEntryDTO{
			EmployeeName: e.EmployeeName,
			Start:        e.Start.String(),
			End:          e.End.String(),
			Category:     string(e.Category),
		}
	}
	if dto.Employees == nil {
		dto.Employees = []string{}
	}
	return dto
}
