/*
gantt.go - HTML Gantt chart renderer

PURPOSE:
  Draws a schedule.Timeline as a self-contained HTML page: one row per
  employee, one bar per vacation or day off, weekends shaded, holidays
  drawn as red lines, and the holidays of the listed year beside the chart.

LAYOUT:
  The visible window is the display years, narrowed to a single month when
  the filter names both a year and a month. Bars are positioned in percent
  of that window so the page needs no JavaScript.

THEMES:
  light (default) and dark, chosen per request through RenderOptions.
*/
package render

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/warp/vacation-engine/schedule"
)

// Category colors.
const (
	VacationColor = "#1e88e5"
	DayOffColor   = "#ffa726"
)

// EmptyMessage is shown instead of the chart when nothing matches.
const EmptyMessage = "No data for these filters"

// Gantt renders HTML.
type Gantt struct {
	tmpl *template.Template
}

var _ schedule.Renderer = (*Gantt)(nil)

func NewGantt() *Gantt {
	return &Gantt{tmpl: template.Must(template.New("gantt").Parse(ganttTemplate))}
}

func (g *Gantt) ContentType() string { return "text/html; charset=utf-8" }

// Render writes the full page.
func (g *Gantt) Render(w io.Writer, tl schedule.Timeline, opts schedule.RenderOptions) error {
	view := buildView(tl, opts)
	if err := g.tmpl.Execute(w, view); err != nil {
		return fmt.Errorf("failed to render gantt: %w", err)
	}
	return nil
}

// =============================================================================
// VIEW MODEL
// =============================================================================

type palette struct {
	Background template.CSS
	Text       template.CSS
	Grid       template.CSS
	Weekend    template.CSS
	Holiday    template.CSS
}

var palettes = map[schedule.Theme]palette{
	schedule.ThemeLight: {Background: "#ffffff", Text: "#000000", Grid: "#eeeeee", Weekend: "rgba(0,0,0,0.06)", Holiday: "#e53935"},
	schedule.ThemeDark:  {Background: "#111111", Text: "#ffffff", Grid: "#333333", Weekend: "rgba(255,255,255,0.08)", Holiday: "#ff5252"},
}

type bar struct {
	Left, Width float64
	Color       template.CSS
	Label       string
}

type row struct {
	Employee string
	Bars     []bar
}

type marker struct {
	Left  float64
	Width float64
	Label string
}

type listedHoliday struct {
	Date string
	Name string
}

type ganttView struct {
	Title     string
	Theme     string
	Colors    palette
	Empty     bool
	Message   string
	Rows      []row
	Weekends  []marker
	Holidays  []marker
	Listed    []listedHoliday
	ListYear  int
	Employees []string
	Selected  schedule.TimelineFilter
	Months    []int
	Window    string
	Legend    map[string]template.CSS
}

// window is the visible [from, to) range.
type window struct {
	from, to schedule.Date
}

func (w window) span() float64 {
	return float64(schedule.DaysBetween(w.from, w.to))
}

// place clips [start, end) to the window and returns percent offsets.
func (w window) place(start, end schedule.Date) (left, width float64, ok bool) {
	if !start.Before(w.to) || !end.After(w.from) {
		return 0, 0, false
	}
	if start.Before(w.from) {
		start = w.from
	}
	if end.After(w.to) {
		end = w.to
	}
	total := w.span()
	left = float64(schedule.DaysBetween(w.from, start)) / total * 100
	width = float64(schedule.DaysBetween(start, end)) / total * 100
	return left, width, true
}

func viewWindow(tl schedule.Timeline) window {
	years := tl.Years
	if len(years) == 0 {
		years = []int{tl.ListYear}
	}
	first, last := years[0], years[0]
	for _, y := range years {
		if y < first {
			first = y
		}
		if y > last {
			last = y
		}
	}
	if tl.Filter.Year != 0 && tl.Filter.Month != 0 {
		from := schedule.NewDate(tl.Filter.Year, time.Month(tl.Filter.Month), 1)
		return window{from: from, to: schedule.NewDate(tl.Filter.Year, time.Month(tl.Filter.Month)+1, 1)}
	}
	return window{from: schedule.StartOfYear(first), to: schedule.StartOfYear(last + 1)}
}

func buildView(tl schedule.Timeline, opts schedule.RenderOptions) ganttView {
	theme := opts.Theme
	if _, ok := palettes[theme]; !ok {
		theme = schedule.ThemeLight
	}
	title := opts.Title
	if title == "" {
		title = "Vacation schedule"
	}

	win := viewWindow(tl)
	v := ganttView{
		Title:     title,
		Theme:     string(theme),
		Colors:    palettes[theme],
		Empty:     tl.Empty(),
		Message:   EmptyMessage,
		ListYear:  tl.ListYear,
		Employees: tl.Employees,
		Selected:  tl.Filter,
		Months:    []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12},
		Window:    win.from.Display() + " - " + win.to.AddDays(-1).Display(),
		Legend: map[string]template.CSS{
			string(schedule.CategoryVacation): VacationColor,
			string(schedule.CategoryDayOff):   DayOffColor,
		},
	}

	index := make(map[string]int)
	for _, e := range tl.Entries {
		end, last := e.End, e.Start
		color := template.CSS(DayOffColor)
		if e.Category == schedule.CategoryVacation {
			// Vacation ends are inclusive; the chart draws half-open spans.
			end, last = e.End.AddDays(1), e.End
			color = VacationColor
		}
		left, width, ok := win.place(e.Start, end)
		if !ok {
			continue
		}
		i, seen := index[e.EmployeeName]
		if !seen {
			i = len(v.Rows)
			index[e.EmployeeName] = i
			v.Rows = append(v.Rows, row{Employee: e.EmployeeName})
		}
		v.Rows[i].Bars = append(v.Rows[i].Bars, bar{
			Left:  left,
			Width: width,
			Color: color,
			Label: fmt.Sprintf("%s: %s - %s", e.Category, e.Start.Display(), last.Display()),
		})
	}

	for _, s := range tl.Weekends {
		if left, width, ok := win.place(s.Start, s.End); ok {
			v.Weekends = append(v.Weekends, marker{Left: left, Width: width})
		}
	}
	for _, h := range tl.Holidays.Sorted {
		if left, width, ok := win.place(h.Date, h.Date.AddDays(1)); ok {
			v.Holidays = append(v.Holidays, marker{Left: left, Width: width, Label: h.Date.Display() + " " + h.Name})
		}
	}
	for _, h := range tl.HolidaysIn(tl.ListYear) {
		v.Listed = append(v.Listed, listedHoliday{Date: h.Date.Display(), Name: h.Name})
	}
	return v
}

const ganttTemplate = `<!DOCTYPE html>
<html lang="en" data-theme="{{.Theme}}">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { background: {{.Colors.Background}}; color: {{.Colors.Text}}; font-family: sans-serif; margin: 1.5rem; }
form { margin-bottom: 1rem; }
.chart { border: 1px solid {{.Colors.Grid}}; }
.row { display: flex; border-bottom: 1px solid {{.Colors.Grid}}; height: 2rem; }
.name { width: 12rem; padding: 0.4rem; flex-shrink: 0; overflow: hidden; }
.lane { position: relative; flex-grow: 1; }
.weekend { position: absolute; top: 0; bottom: 0; background: {{.Colors.Weekend}}; }
.holiday { position: absolute; top: 0; bottom: 0; border-left: 2px solid {{.Colors.Holiday}}; }
.bar { position: absolute; top: 0.35rem; height: 1.3rem; border-radius: 3px; }
.legend span { display: inline-block; margin-right: 1rem; }
.legend i { display: inline-block; width: 0.8rem; height: 0.8rem; margin-right: 0.3rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<form method="get">
  <select name="employee">
    <option value="">All employees</option>
    {{- range .Employees}}
    <option value="{{.}}"{{if eq . $.Selected.Employee}} selected{{end}}>{{.}}</option>
    {{- end}}
  </select>
  <select name="month">
    <option value="">All months</option>
    {{- range .Months}}
    <option value="{{.}}"{{if eq . $.Selected.Month}} selected{{end}}>{{.}}</option>
    {{- end}}
  </select>
  <input type="number" name="year" placeholder="Year"{{if .Selected.Year}} value="{{.Selected.Year}}"{{end}}>
  <select name="theme">
    <option value="light"{{if eq .Theme "light"}} selected{{end}}>Light</option>
    <option value="dark"{{if eq .Theme "dark"}} selected{{end}}>Dark</option>
  </select>
  <button type="submit">Filter</button>
</form>
{{if .Empty}}
<h3>{{.Message}}</h3>
{{else}}
<p>{{.Window}}</p>
<div class="legend">
  {{- range $name, $color := .Legend}}
  <span><i style="background: {{$color}}"></i>{{$name}}</span>
  {{- end}}
  <span><i style="background: {{.Colors.Holiday}}"></i>Holiday</span>
  <span><i style="background: {{.Colors.Weekend}}"></i>Weekend</span>
</div>
<div class="chart">
  {{- range .Rows}}
  <div class="row">
    <div class="name">{{.Employee}}</div>
    <div class="lane">
      {{- range $.Weekends}}
      <div class="weekend" style="left: {{printf "%.4f" .Left}}%; width: {{printf "%.4f" .Width}}%"></div>
      {{- end}}
      {{- range $.Holidays}}
      <div class="holiday" style="left: {{printf "%.4f" .Left}}%" title="{{.Label}}"></div>
      {{- end}}
      {{- range .Bars}}
      <div class="bar" style="left: {{printf "%.4f" .Left}}%; width: {{printf "%.4f" .Width}}%; background: {{.Color}}" title="{{.Label}}"></div>
      {{- end}}
    </div>
  </div>
  {{- end}}
</div>
{{end}}
{{if .Listed}}
<h2>Holidays {{.ListYear}}</h2>
<ul>
  {{- range .Listed}}
  <li>{{.Date}} - {{.Name}}</li>
  {{- end}}
</ul>
{{end}}
</body>
</html>
`
