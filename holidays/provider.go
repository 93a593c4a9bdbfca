/*
provider.go - Public holiday calendar for the timeline overlay

PURPOSE:
  Resolves named public holidays for whole years by layering three sources.
  Later layers overwrite earlier ones when two holidays share a date:

    1. base      national holidays plus the configured state's holidays
    2. municipal fixed-date holidays of the city
    3. moving    Easter-relative holidays computed per year

  A layer entry that does not resolve for a year (zero date from
  cal.Holiday.Calc) is skipped. For the moving layer that is logged as a
  partial failure and otherwise ignored.

REGIONS:
  Only Brazilian states are modeled. Unknown state codes fall back to the
  national calendar with a warning.

SEE ALSO:
  - schedule/timeline.go: HolidayMarkers consumes Provider
*/
package holidays

import (
	"fmt"
	"strings"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/br"
	"github.com/sirupsen/logrus"

	"github.com/warp/vacation-engine/schedule"
)

// =============================================================================
// HOLIDAY DEFINITIONS
// =============================================================================

var (
	// BlackConsciousnessDay became a national holiday in 2024. Earlier years
	// are covered by the state entries below.
	BlackConsciousnessDay = &cal.Holiday{
		Name:      "Dia Nacional de Zumbi e da Consciência Negra",
		Month:     time.November,
		Day:       20,
		Func:      cal.CalcDayOfMonth,
		StartYear: 2024,
	}

	// Moving are the Easter-relative holidays observed locally. They form
	// the last layer, so they are left out of National.
	Moving = []*cal.Holiday{br.Carnaval, br.CorpusChristi}

	// National are the federal holidays.
	National = append(without(br.Holidays, Moving), BlackConsciousnessDay)

	// States maps a state code to its state-level holidays.
	States = map[string][]*cal.Holiday{
		"SP": {
			{Name: "Revolução Constitucionalista de 1932", Month: time.July, Day: 9, Func: cal.CalcDayOfMonth},
			{Name: "Dia da Consciência Negra", Month: time.November, Day: 20, Func: cal.CalcDayOfMonth, EndYear: 2023},
		},
		"RJ": {
			{Name: "Dia de São Jorge", Month: time.April, Day: 23, Func: cal.CalcDayOfMonth},
			{Name: "Dia da Consciência Negra", Month: time.November, Day: 20, Func: cal.CalcDayOfMonth, EndYear: 2023},
		},
		"MG": {
			{Name: "Data Magna de Minas Gerais", Month: time.April, Day: 21, Func: cal.CalcDayOfMonth},
		},
	}

	// Osasco holds the default municipal holidays.
	Osasco = []*cal.Holiday{
		{Name: "Aniversário de Osasco", Month: time.February, Day: 19, Func: cal.CalcDayOfMonth},
		{Name: "Santo Antônio", Month: time.June, Day: 13, Func: cal.CalcDayOfMonth},
	}
)

func without(hs, drop []*cal.Holiday) []*cal.Holiday {
	out := make([]*cal.Holiday, 0, len(hs))
outer:
	for _, h := range hs {
		for _, d := range drop {
			if h == d {
				continue outer
			}
		}
		out = append(out, h)
	}
	return out
}

// =============================================================================
// PROVIDER
// =============================================================================

// Provider implements schedule.HolidayProvider. It is safe for concurrent use.
type Provider struct {
	base      []*cal.Holiday
	municipal []*cal.Holiday
	moving    []*cal.Holiday
	calendar  *cal.BusinessCalendar
	log       *logrus.Entry
}

var _ schedule.HolidayProvider = (*Provider)(nil)

// Option customizes a Provider.
type Option func(*Provider)

// WithMunicipal replaces the municipal layer.
func WithMunicipal(hs ...*cal.Holiday) Option {
	return func(p *Provider) { p.municipal = hs }
}

// WithMoving replaces the moving layer.
func WithMoving(hs ...*cal.Holiday) Option {
	return func(p *Provider) { p.moving = hs }
}

// New builds a provider for a Brazilian state (e.g. "SP"). By default the
// municipal layer is Osasco's and the moving layer is Carnaval and Corpus Christi.
func New(state string, opts ...Option) *Provider {
	log := logrus.WithField("component", "holidays")

	base := append([]*cal.Holiday(nil), National...)
	code := strings.ToUpper(strings.TrimSpace(state))
	if regional, ok := States[code]; ok {
		base = append(base, regional...)
	} else if code != "" {
		log.WithField("state", code).Warn("unknown state, using national holidays only")
	}

	p := &Provider{
		base:      base,
		municipal: Osasco,
		moving:    Moving,
		log:       log,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.calendar = cal.NewBusinessCalendar()
	p.calendar.AddHoliday(p.base...)
	p.calendar.AddHoliday(p.municipal...)
	p.calendar.AddHoliday(p.moving...)
	return p
}

// Holidays returns date → name for every holiday in years.
func (p *Provider) Holidays(years []int) map[schedule.Date]string {
	out := make(map[schedule.Date]string)
	for _, year := range years {
		p.apply(out, p.base, year, false)
		p.apply(out, p.municipal, year, false)
		p.apply(out, p.moving, year, true)
	}
	return out
}

func (p *Provider) apply(out map[schedule.Date]string, layer []*cal.Holiday, year int, reportMissing bool) {
	for _, h := range layer {
		actual, _ := h.Calc(year)
		if actual.IsZero() {
			if reportMissing {
				p.log.WithFields(logrus.Fields{
					"holiday": h.Name,
					"year":    year,
				}).WithError(fmt.Errorf("%w: %s", schedule.ErrProviderPartialFailure, h.Name)).Warn("skipping holiday")
			}
			continue
		}
		out[schedule.DateOf(actual)] = h.Name
	}
}

// IsWorkday reports whether d is neither a weekend nor a holiday.
func (p *Provider) IsWorkday(d schedule.Date) bool {
	return p.calendar.IsWorkday(d.Time())
}

// Workdays counts working days in [start, end].
func (p *Provider) Workdays(start, end schedule.Date) int {
	n := 0
	for d := start; d.BeforeOrEqual(end); d = d.AddDays(1) {
		if p.IsWorkday(d) {
			n++
		}
	}
	return n
}
