/*
timeline.go - Gantt timeline composition

PURPOSE:
  Turns stored vacation periods and days off into renderer-ready bars and
  overlays them with weekends and public holidays. Everything here is pure;
  the Service supplies the records and the renderer draws the result.

FILTERS:
  Employee matches the employee name or the numeric employee ID.
  Year and Month use a "touches" rule: an entry is kept when its start or
  its end falls in the year, and (independently) when its start or its end
  falls in the month. A day off touches only its own date.

OUTPUT ORDER:
  Employee name, then start date, then category (vacations first).

DISPLAY YEARS:
  Weekend shading and holiday markers cover the filtered year, or the
  current and next year when no year filter is given.

SEE ALSO:
  - holidays/provider.go: HolidayProvider implementation
  - render/: Renderer implementations
*/
package schedule

import (
	"io"
	"sort"
	"strconv"
)

// =============================================================================
// TYPES
// =============================================================================

type Category string

const (
	CategoryVacation Category = "Vacation"
	CategoryDayOff   Category = "DayOff"
)

func (c Category) rank() int {
	if c == CategoryVacation {
		return 0
	}
	return 1
}

// TimelineEntry is one bar on the chart, spanning [Start, End].
// Day-off entries end the day after the day off.
type TimelineEntry struct {
	EmployeeName string   `json:"employee_name"`
	Start        Date     `json:"start"`
	End          Date     `json:"end"`
	Category     Category `json:"category"`
}

// TimelineFilter narrows the chart. Zero values mean "any".
type TimelineFilter struct {
	Employee string
	Month    int
	Year     int
}

// Span is a half-open [Start, End) shaded region.
type Span struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// Markers holds holidays both for lookup and for ordered listing.
type Markers struct {
	ByDate map[Date]string
	Sorted []Holiday
}

// HolidayProvider resolves public holidays for whole years.
type HolidayProvider interface {
	Holidays(years []int) map[Date]string
}

// Timeline is everything a Renderer needs.
type Timeline struct {
	Entries   []TimelineEntry
	Weekends  []Span
	Holidays  Markers
	Employees []string
	Years     []int
	Filter    TimelineFilter
	// ListYear is the single year whose holidays are listed beside the chart.
	ListYear int
}

// Empty reports whether there is nothing to chart.
func (t Timeline) Empty() bool {
	return len(t.Entries) == 0
}

// HolidaysIn returns the sorted holidays of one year.
func (t Timeline) HolidaysIn(year int) []Holiday {
	var out []Holiday
	for _, h := range t.Holidays.Sorted {
		if h.Date.Year() == year {
			out = append(out, h)
		}
	}
	return out
}

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme maps anything other than "dark" to the light theme.
func ParseTheme(s string) Theme {
	if s == string(ThemeDark) {
		return ThemeDark
	}
	return ThemeLight
}

type RenderOptions struct {
	Theme Theme
	Title string
}

// Renderer draws a Timeline.
type Renderer interface {
	Render(w io.Writer, tl Timeline, opts RenderOptions) error
	ContentType() string
}

// =============================================================================
// COMPOSITION
// =============================================================================

// BuildTimeline filters and converts records into sorted entries.
// Returns ErrNoTimelineData when nothing survives the filters.
func BuildTimeline(periods []VacationPeriod, daysOff []DayOff, filter TimelineFilter) ([]TimelineEntry, error) {
	var entries []TimelineEntry

	for _, p := range periods {
		if !filter.matchesEmployee(p.EmployeeID, p.EmployeeName) {
			continue
		}
		if !filter.touches(p.Start, p.End) {
			continue
		}
		entries = append(entries, TimelineEntry{
			EmployeeName: p.EmployeeName,
			Start:        p.Start,
			End:          p.End,
			Category:     CategoryVacation,
		})
	}

	for _, d := range daysOff {
		if !filter.matchesEmployee(d.EmployeeID, d.EmployeeName) {
			continue
		}
		if !filter.touches(d.Date, d.Date) {
			continue
		}
		entries = append(entries, TimelineEntry{
			EmployeeName: d.EmployeeName,
			Start:        d.Date,
			End:          d.Date.AddDays(1),
			Category:     CategoryDayOff,
		})
	}

	if len(entries) == 0 {
		return nil, ErrNoTimelineData
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.EmployeeName != b.EmployeeName {
			return a.EmployeeName < b.EmployeeName
		}
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		return a.Category.rank() < b.Category.rank()
	})
	return entries, nil
}

func (f TimelineFilter) matchesEmployee(id int64, name string) bool {
	if f.Employee == "" {
		return true
	}
	return f.Employee == name || f.Employee == strconv.FormatInt(id, 10)
}

func (f TimelineFilter) touches(start, end Date) bool {
	if f.Year != 0 && start.Year() != f.Year && end.Year() != f.Year {
		return false
	}
	if f.Month != 0 && int(start.Month()) != f.Month && int(end.Month()) != f.Month {
		return false
	}
	return true
}

// SelectDisplayYears returns the filtered year, or the current and next year.
func SelectDisplayYears(filter TimelineFilter, clock Clock) []int {
	if filter.Year != 0 {
		return []int{filter.Year}
	}
	now := clock.Now().Year()
	return []int{now, now + 1}
}

// WeekendSpans returns one [d, d+1) span per Saturday and Sunday in years.
func WeekendSpans(years []int) []Span {
	var spans []Span
	for _, y := range sortedYears(years) {
		for d := StartOfYear(y); d.BeforeOrEqual(EndOfYear(y)); d = d.AddDays(1) {
			if d.IsWeekend() {
				spans = append(spans, Span{Start: d, End: d.AddDays(1)})
			}
		}
	}
	return spans
}

// HolidayMarkers resolves holidays and keeps only those inside years.
func HolidayMarkers(provider HolidayProvider, years []int) Markers {
	wanted := make(map[int]bool, len(years))
	for _, y := range years {
		wanted[y] = true
	}

	m := Markers{ByDate: make(map[Date]string)}
	for d, name := range provider.Holidays(years) {
		if !wanted[d.Year()] {
			continue
		}
		m.ByDate[d] = name
		m.Sorted = append(m.Sorted, Holiday{Date: d, Name: name})
	}
	sort.Slice(m.Sorted, func(i, j int) bool {
		return m.Sorted[i].Date.Before(m.Sorted[j].Date)
	})
	return m
}

// EmployeeNames returns the distinct employee names that have vacations,
// sorted, for filter dropdowns.
func EmployeeNames(periods []VacationPeriod) []string {
	seen := make(map[string]bool)
	var names []string
	for _, p := range periods {
		if p.EmployeeName == "" || seen[p.EmployeeName] {
			continue
		}
		seen[p.EmployeeName] = true
		names = append(names, p.EmployeeName)
	}
	sort.Strings(names)
	return names
}

// Compose builds a full Timeline. When no entry matches it still returns the
// overlays and employee list together with ErrNoTimelineData, so a page can
// render its filters and an empty-state message.
func Compose(periods []VacationPeriod, daysOff []DayOff, filter TimelineFilter, provider HolidayProvider, clock Clock) (Timeline, error) {
	years := SelectDisplayYears(filter, clock)
	listYear := filter.Year
	if listYear == 0 {
		listYear = clock.Now().Year()
	}

	tl := Timeline{
		Employees: EmployeeNames(periods),
		Years:     years,
		Filter:    filter,
		ListYear:  listYear,
		Weekends:  WeekendSpans(years),
		Holidays:  HolidayMarkers(provider, years),
	}

	entries, err := BuildTimeline(periods, daysOff, filter)
	tl.Entries = entries
	return tl, err
}

func sortedYears(years []int) []int {
	seen := make(map[int]bool, len(years))
	var out []int
	for _, y := range years {
		if !seen[y] {
			seen[y] = true
			out = append(out, y)
		}
	}
	sort.Ints(out)
	return out
}
