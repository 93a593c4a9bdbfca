package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/vacation-engine/schedule"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func d(s string) schedule.Date {
	return schedule.MustParseDate(s)
}

func sampleTimeline(filter schedule.TimelineFilter) schedule.Timeline {
	years := []int{2025, 2026}
	if filter.Year != 0 {
		years = []int{filter.Year}
	}
	holiday := schedule.Holiday{Date: d("2025-04-21"), Name: "Tiradentes"}
	return schedule.Timeline{
		Entries: []schedule.TimelineEntry{
			{EmployeeName: "Ana", Start: d("2025-04-14"), End: d("2025-04-25"), Category: schedule.CategoryVacation},
			{EmployeeName: "Ana", Start: d("2025-08-15"), End: d("2025-08-16"), Category: schedule.CategoryDayOff},
			{EmployeeName: "<Bruno>", Start: d("2025-06-02"), End: d("2025-06-06"), Category: schedule.CategoryVacation},
		},
		Weekends: schedule.WeekendSpans(years),
		Holidays: schedule.Markers{
			ByDate: map[schedule.Date]string{holiday.Date: holiday.Name},
			Sorted: []schedule.Holiday{holiday},
		},
		Employees: []string{"<Bruno>", "Ana"},
		Years:     years,
		Filter:    filter,
		ListYear:  2025,
	}
}

// =============================================================================
// GANTT
// =============================================================================

func TestGantt_RendersRowsAndHolidays(t *testing.T) {
	var buf bytes.Buffer
	err := NewGantt().Render(&buf, sampleTimeline(schedule.TimelineFilter{}), schedule.RenderOptions{Title: "Férias"})
	require.NoError(t, err)
	out := buf.String()

	assert.Contains(t, out, "<title>Férias</title>")
	assert.Equal(t, 2, strings.Count(out, `<div class="name">`))
	assert.Equal(t, 3, strings.Count(out, `class="bar"`))
	assert.Contains(t, out, VacationColor)
	assert.Contains(t, out, DayOffColor)
	assert.Contains(t, out, "Vacation: 14/04/2025 - 25/04/2025")
	assert.Contains(t, out, "DayOff: 15/08/2025 - 15/08/2025")
	assert.Contains(t, out, "<li>21/04/2025 - Tiradentes</li>")
	assert.Contains(t, out, "01/01/2025 - 31/12/2026")
	assert.NotContains(t, out, EmptyMessage)
}

func TestGantt_EscapesNames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewGantt().Render(&buf, sampleTimeline(schedule.TimelineFilter{}), schedule.RenderOptions{}))

	assert.NotContains(t, buf.String(), "<Bruno>")
	assert.Contains(t, buf.String(), "&lt;Bruno&gt;")
}

func TestGantt_Themes(t *testing.T) {
	tl := sampleTimeline(schedule.TimelineFilter{})

	var light, dark bytes.Buffer
	require.NoError(t, NewGantt().Render(&light, tl, schedule.RenderOptions{Theme: schedule.ThemeLight}))
	require.NoError(t, NewGantt().Render(&dark, tl, schedule.RenderOptions{Theme: schedule.ThemeDark}))

	assert.Contains(t, light.String(), `data-theme="light"`)
	assert.Contains(t, light.String(), "rgba(0,0,0,0.06)")
	assert.Contains(t, dark.String(), `data-theme="dark"`)
	assert.Contains(t, dark.String(), "#111111")
	assert.NotContains(t, dark.String(), "ZgotmplZ")
}

func TestGantt_EmptyState(t *testing.T) {
	tl := sampleTimeline(schedule.TimelineFilter{Employee: "Nobody"})
	tl.Entries = nil

	var buf bytes.Buffer
	require.NoError(t, NewGantt().Render(&buf, tl, schedule.RenderOptions{}))

	assert.Contains(t, buf.String(), "<h3>"+EmptyMessage+"</h3>")
	assert.NotContains(t, buf.String(), `class="bar"`)
	// Filters stay usable.
	assert.Contains(t, buf.String(), `<option value="Ana">Ana</option>`)
}

func TestGantt_MonthWindowClipsBars(t *testing.T) {
	// GIVEN: A filter on April 2025
	// THEN: Only the April vacation is drawn, starting 13 days into a 30 day window

	tl := sampleTimeline(schedule.TimelineFilter{Year: 2025, Month: 4})
	v := buildView(tl, schedule.RenderOptions{})

	require.Len(t, v.Rows, 1)
	require.Len(t, v.Rows[0].Bars, 1)
	assert.InDelta(t, 13.0/30*100, v.Rows[0].Bars[0].Left, 0.0001)
	assert.InDelta(t, 12.0/30*100, v.Rows[0].Bars[0].Width, 0.0001)
	assert.Equal(t, "01/04/2025 - 30/04/2025", v.Window)
	assert.Len(t, v.Weekends, 8)
	assert.Len(t, v.Holidays, 1)
}

func TestWindow_Place(t *testing.T) {
	w := window{from: d("2025-01-01"), to: d("2025-01-11")}

	left, width, ok := w.place(d("2024-12-25"), d("2025-01-03"))
	require.True(t, ok)
	assert.InDelta(t, 0, left, 0.0001)
	assert.InDelta(t, 20, width, 0.0001)

	_, _, ok = w.place(d("2025-01-11"), d("2025-01-12"))
	assert.False(t, ok)
}

// =============================================================================
// ICAL
// =============================================================================

func TestICal_EncodesAllDayEvents(t *testing.T) {
	clock := schedule.FixedClock(time.Date(2025, time.May, 15, 9, 30, 0, 0, time.UTC))
	tl := sampleTimeline(schedule.TimelineFilter{})

	var buf bytes.Buffer
	r := NewICal(clock)
	require.NoError(t, r.Render(&buf, tl, schedule.RenderOptions{Title: "Team"}))
	assert.Equal(t, "text/calendar; charset=utf-8", r.ContentType())

	cal, err := ical.NewDecoder(&buf).Decode()
	require.NoError(t, err)

	name, err := cal.Props.Text("X-WR-CALNAME")
	require.NoError(t, err)
	assert.Equal(t, "Team", name)

	events := cal.Events()
	require.Len(t, events, 4)

	first := events[0]
	summary, err := first.Props.Text("SUMMARY")
	require.NoError(t, err)
	assert.Equal(t, "Ana: Vacation", summary)
	assert.Equal(t, "20250414", first.Props.Get("DTSTART").Value)
	assert.Equal(t, "20250426", first.Props.Get("DTEND").Value, "vacation end is exclusive in iCalendar")

	dayOff := events[1]
	assert.Equal(t, "20250815", dayOff.Props.Get("DTSTART").Value)
	assert.Equal(t, "20250816", dayOff.Props.Get("DTEND").Value)

	holiday := events[3]
	hName, err := holiday.Props.Text("SUMMARY")
	require.NoError(t, err)
	assert.Equal(t, "Tiradentes", hName)
}
