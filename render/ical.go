package render

import (
	"fmt"
	"io"

	"github.com/emersion/go-ical"

	"github.com/warp/vacation-engine/schedule"
)

const (
	icalProdID = "-//warp//vacation-engine//EN"
	icalDomain = "vacation-engine"
)

// ICal exports a timeline as an iCalendar feed. Entries and holidays become
// all-day events; DTEND is exclusive as RFC 5545 requires.
type ICal struct {
	clock schedule.Clock
}

var _ schedule.Renderer = (*ICal)(nil)

func NewICal(clock schedule.Clock) *ICal {
	if clock == nil {
		clock = schedule.RealClock{}
	}
	return &ICal{clock: clock}
}

func (c *ICal) ContentType() string { return "text/calendar; charset=utf-8" }

func (c *ICal) Render(w io.Writer, tl schedule.Timeline, opts schedule.RenderOptions) error {
	cal := ical.NewCalendar()
	cal.Props.SetText("VERSION", "2.0")
	cal.Props.SetText("PRODID", icalProdID)
	cal.Props.SetText("CALSCALE", "GREGORIAN")
	if opts.Title != "" {
		cal.Props.SetText("X-WR-CALNAME", opts.Title)
	}

	stamp := ical.NewProp("DTSTAMP")
	stamp.SetDateTime(c.clock.Now().UTC())

	for i, e := range tl.Entries {
		end := e.End
		if e.Category == schedule.CategoryVacation {
			end = end.AddDays(1)
		}
		uid := fmt.Sprintf("%s-%d-%s-%s@%s", e.Category, i, e.Start, e.EmployeeName, icalDomain)
		summary := fmt.Sprintf("%s: %s", e.EmployeeName, e.Category)
		cal.Children = append(cal.Children, allDayEvent(uid, summary, string(e.Category), e.Start, end, stamp).Component)
	}

	for _, h := range tl.Holidays.Sorted {
		uid := fmt.Sprintf("holiday-%s@%s", h.Date, icalDomain)
		cal.Children = append(cal.Children, allDayEvent(uid, h.Name, "Holiday", h.Date, h.Date.AddDays(1), stamp).Component)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}
	return nil
}

func allDayEvent(uid, summary, category string, start, end schedule.Date, stamp *ical.Prop) *ical.Event {
	event := ical.NewEvent()
	event.Props.SetText("UID", uid)
	event.Props.SetText("SUMMARY", summary)
	event.Props.SetText("CATEGORIES", category)
	event.Props.Set(stamp)

	dtStart := ical.NewProp("DTSTART")
	dtStart.SetDate(start.Time())
	event.Props.Set(dtStart)

	dtEnd := ical.NewProp("DTEND")
	dtEnd.SetDate(end.Time())
	event.Props.Set(dtEnd)
	return event
}
