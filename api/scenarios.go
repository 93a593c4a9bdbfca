/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built data sets that populate the store with realistic
	vacation schedules. Dates are relative to the service clock's current
	year so the timeline always has something to show.

AVAILABLE SCENARIOS:

	team:          Three employees with spread-out vacations and days off
	budget-limit:  One employee who has used the whole annual cap
	year-boundary: Vacations and a day off around New Year

HOW SCENARIOS WORK:
 1. Reset the store (remove all employees, periods and days off)
 2. Create employees
 3. Add periods through the service, so budget and overlap rules apply
 4. Save days off

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "team"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Handler and error mapping
  - schedule/service.go: Reset, AddPeriod, SaveDayOff
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/vacation-engine/schedule"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "team",
		Name:        "Team",
		Description: "Three employees with vacations across the year and one day off each",
	},
	{
		ID:          "budget-limit",
		Name:        "Budget Limit",
		Description: "An employee who has scheduled the full annual cap",
	},
	{
		ID:          "year-boundary",
		Name:        "Year Boundary",
		Description: "A vacation crossing New Year and a day off on December 31",
	},
}

type scenarioLoader func(ctx context.Context, svc *schedule.Service, year int) error

var scenarioLoaders = map[string]scenarioLoader{
	"team":          loadTeamScenario,
	"budget-limit":  loadBudgetLimitScenario,
	"year-boundary": loadYearBoundaryScenario,
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, or null.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the store and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decode(w, r, &req) {
		return
	}
	load, ok := scenarioLoaders[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario %q", req.ScenarioID), "invalid_input", nil)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := r.Context()
	h.currentScenario = ""
	if err := h.Service.Reset(ctx); err != nil {
		h.writeServiceError(w, err)
		return
	}
	year := h.Service.Clock().Now().Year()
	if err := load(ctx, h.Service, year); err != nil {
		h.log.WithError(err).WithField("scenario", req.ScenarioID).Error("scenario load failed")
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), "internal", nil)
		return
	}
	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

type seedPeriod struct {
	start, end          schedule.Date
	scheduledExternally bool
	allowanceTaken      bool
	color               string
}

type seedEmployee struct {
	name    string
	periods []seedPeriod
	daysOff []schedule.Date
}

func on(year int, month time.Month, day int) schedule.Date {
	return schedule.NewDate(year, month, day)
}

func loadTeamScenario(ctx context.Context, svc *schedule.Service, year int) error {
	return seed(ctx, svc, []seedEmployee{
		{
			name: "Ana Souza",
			periods: []seedPeriod{
				{start: on(year, time.January, 13), end: on(year, time.January, 24), scheduledExternally: true},
				{start: on(year, time.July, 7), end: on(year, time.July, 18), color: "#8E24AA"},
			},
			daysOff: []schedule.Date{on(year, time.March, 14)},
		},
		{
			name: "Bruno Lima",
			periods: []seedPeriod{
				{start: on(year, time.February, 10), end: on(year, time.February, 28), allowanceTaken: true},
			},
			daysOff: []schedule.Date{on(year, time.June, 20), on(year+1, time.February, 6)},
		},
		{
			name: "Carla Mendes",
			periods: []seedPeriod{
				{start: on(year, time.April, 22), end: on(year, time.May, 6)},
				{start: on(year, time.October, 1), end: on(year, time.October, 10), scheduledExternally: true},
			},
			daysOff: []schedule.Date{on(year, time.November, 21)},
		},
	})
}

func loadBudgetLimitScenario(ctx context.Context, svc *schedule.Service, year int) error {
	return seed(ctx, svc, []seedEmployee{
		{
			name: "Diego Rocha",
			periods: []seedPeriod{
				{start: on(year, time.January, 6), end: on(year, time.January, 25)},
				{start: on(year, time.September, 1), end: on(year, time.September, 10)},
			},
		},
	})
}

func loadYearBoundaryScenario(ctx context.Context, svc *schedule.Service, year int) error {
	return seed(ctx, svc, []seedEmployee{
		{
			name: "Elisa Prado",
			periods: []seedPeriod{
				{start: on(year, time.December, 22), end: on(year+1, time.January, 4)},
			},
			daysOff: []schedule.Date{on(year, time.December, 31)},
		},
		{
			name: "Fábio Nunes",
			periods: []seedPeriod{
				{start: on(year+1, time.January, 5), end: on(year+1, time.January, 16)},
			},
		},
	})
}

func seed(ctx context.Context, svc *schedule.Service, employees []seedEmployee) error {
	for _, e := range employees {
		emp, err := svc.CreateEmployee(ctx, e.name)
		if err != nil {
			return err
		}
		for _, p := range e.periods {
			_, err := svc.AddPeriod(ctx, schedule.NewPeriod{
				EmployeeID:          emp.ID,
				Start:               p.start,
				End:                 p.end,
				ScheduledExternally: p.scheduledExternally,
				AllowanceTaken:      p.allowanceTaken,
				Color:               p.color,
			})
			if err != nil {
				return fmt.Errorf("%s %s..%s: %w", e.name, p.start, p.end, err)
			}
		}
		for _, d := range e.daysOff {
			if _, err := svc.SaveDayOff(ctx, emp.ID, d.Year(), d); err != nil {
				return err
			}
		}
	}
	return nil
}
