/*
handlers.go - HTTP API handlers for the vacation scheduling engine

PURPOSE:
  Exposes the scheduling service via REST and the timeline as HTML and
  iCalendar. Handles HTTP request/response, JSON serialization and input
  validation, and delegates everything else to schedule.Service.

ENDPOINTS:
  Employees:
    GET    /api/employees                List employees with balances
    POST   /api/employees                Create employee
    GET    /api/employees/{id}           Get employee
    PUT    /api/employees/{id}           Rename employee
    DELETE /api/employees/{id}           Delete employee without records
    GET    /api/employees/{id}/balance   Used / remaining vacation days
    GET    /api/employees/{id}/day-off   Day off for ?year= (default current)

  Vacation periods:
    GET    /api/periods                  List (employee_id, year, month, allowance, scheduled)
    GET    /api/periods/overview         List joined with current/next year days off
    POST   /api/periods                  Create (budget + overlap checked)
    GET    /api/periods/{id}             Get
    PUT    /api/periods/{id}             Replace (overlap + budget checked)
    DELETE /api/periods/{id}             Delete

  Days off:
    GET    /api/days-off                 List
    POST   /api/days-off                 Save for (employee, year), upsert
    PUT    /api/days-off/{id}            Move to another date
    DELETE /api/days-off/{id}            Delete

  Timeline:
    GET    /api/timeline                 JSON timeline (employee, month, year)
    GET    /api/holidays                 Holidays of ?year= (default current)
    GET    /timeline                     HTML Gantt (plus theme=light|dark)
    GET    /timeline.ics                 iCalendar export

  Demo scenarios:
    GET    /api/scenarios                List scenarios
    GET    /api/scenarios/current        Currently loaded scenario
    POST   /api/scenarios/load           Reset and load a scenario

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, inverted range
  - 404: Resource not found
  - 409: Overlapping period, duplicate day off, employee has records
  - 422: Vacation day budget exceeded
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/warp/vacation-engine/schedule"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// WorkdayCounter counts working days in a closed date range.
type WorkdayCounter interface {
	Workdays(start, end schedule.Date) int
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service  *schedule.Service
	Workdays WorkdayCounter
	Gantt    schedule.Renderer
	ICal     schedule.Renderer
	Title    string

	validate *validator.Validate
	log      *logrus.Entry

	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a handler. workdays may be nil, in which case period
// responses omit business_days.
func NewHandler(svc *schedule.Service, workdays WorkdayCounter, gantt, ical schedule.Renderer) *Handler {
	return &Handler{
		Service:  svc,
		Workdays: workdays,
		Gantt:    gantt,
		ICal:     ical,
		Title:    "Vacation schedule",
		validate: validator.New(),
		log:      logrus.WithField("component", "api"),
	}
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees with their balances.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	employees, err := h.Service.ListEmployees(ctx)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = EmployeeDTO{ID: e.ID, Name: e.Name}
		if b, err := h.Service.Balance(ctx, e.ID); err == nil {
			dtos[i].Balance = toBalanceDTO(b)
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req EmployeeRequest
	if !h.decode(w, r, &req) {
		return
	}
	emp, err := h.Service.CreateEmployee(r.Context(), req.Name)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, EmployeeDTO{ID: emp.ID, Name: emp.Name})
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	emp, err := h.Service.GetEmployee(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	dto := EmployeeDTO{ID: emp.ID, Name: emp.Name}
	if b, err := h.Service.Balance(r.Context(), id); err == nil {
		dto.Balance = toBalanceDTO(b)
	}
	writeJSON(w, http.StatusOK, dto)
}

func (h *Handler) RenameEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req EmployeeRequest
	if !h.decode(w, r, &req) {
		return
	}
	emp, err := h.Service.RenameEmployee(r.Context(), id, req.Name)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, EmployeeDTO{ID: emp.ID, Name: emp.Name})
}

func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Service.DeleteEmployee(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetBalance returns used and remaining vacation days.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b, err := h.Service.Balance(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(b))
}

// GetEmployeeDayOff looks up the day off for ?year=, defaulting to the
// current year. Responds 404 when the employee has none.
func (h *Handler) GetEmployeeDayOff(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	year, ok := queryInt(w, r, "year")
	if !ok {
		return
	}
	if year == 0 {
		year = h.Service.Clock().Now().Year()
	}
	d, err := h.Service.FindDayOff(r.Context(), id, year)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if d == nil {
		writeError(w, http.StatusNotFound, "No day off for this year", "not_found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toDayOffDTO(*d))
}

// =============================================================================
// PERIOD HANDLERS
// =============================================================================

func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.periodFilter(w, r)
	if !ok {
		return
	}
	periods, err := h.Service.ListPeriods(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	dtos := make([]PeriodDTO, len(periods))
	for i, p := range periods {
		dtos[i] = h.periodDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// PeriodOverview lists periods with each employee's current and next year day off.
func (h *Handler) PeriodOverview(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.periodFilter(w, r)
	if !ok {
		return
	}
	rows, err := h.Service.Overview(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	dtos := make([]PeriodOverviewDTO, len(rows))
	for i, row := range rows {
		dtos[i] = PeriodOverviewDTO{
			PeriodDTO:         h.periodDTO(row.VacationPeriod),
			DayOffCurrentYear: toDayOffDTOPtr(row.DayOffCurrentYear),
			DayOffNextYear:    toDayOffDTOPtr(row.DayOffNextYear),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreatePeriod(w http.ResponseWriter, r *http.Request) {
	in, ok := h.periodInput(w, r)
	if !ok {
		return
	}
	p, err := h.Service.AddPeriod(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.periodDTO(p))
}

func (h *Handler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.Service.GetPeriod(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.periodDTO(p))
}

func (h *Handler) UpdatePeriod(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	in, ok := h.periodInput(w, r)
	if !ok {
		return
	}
	p, err := h.Service.UpdatePeriod(r.Context(), id, in)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.periodDTO(p))
}

func (h *Handler) DeletePeriod(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Service.DeletePeriod(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) periodInput(w http.ResponseWriter, r *http.Request) (schedule.NewPeriod, bool) {
	var req PeriodRequest
	if !h.decode(w, r, &req) {
		return schedule.NewPeriod{}, false
	}
	// Formats were checked by the validator tags.
	start, _ := schedule.ParseDate(req.Start)
	end, _ := schedule.ParseDate(req.End)
	return schedule.NewPeriod{
		EmployeeID:          req.EmployeeID,
		Start:               start,
		End:                 end,
		ScheduledExternally: req.ScheduledExternally,
		AllowanceTaken:      req.AllowanceTaken,
		Color:               req.Color,
	}, true
}

func (h *Handler) periodFilter(w http.ResponseWriter, r *http.Request) (schedule.PeriodFilter, bool) {
	var q PeriodQuery
	var ok bool
	if q.EmployeeID, ok = queryInt64(w, r, "employee_id"); !ok {
		return schedule.PeriodFilter{}, false
	}
	if q.Year, ok = queryInt(w, r, "year"); !ok {
		return schedule.PeriodFilter{}, false
	}
	if q.Month, ok = queryInt(w, r, "month"); !ok {
		return schedule.PeriodFilter{}, false
	}
	if q.Allowance, ok = queryBool(w, r, "allowance"); !ok {
		return schedule.PeriodFilter{}, false
	}
	if q.Scheduled, ok = queryBool(w, r, "scheduled"); !ok {
		return schedule.PeriodFilter{}, false
	}
	if err := h.validate.Struct(q); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid query", "invalid_input", validationDetails(err))
		return schedule.PeriodFilter{}, false
	}

	f := schedule.PeriodFilter{
		Year:                q.Year,
		Month:               q.Month,
		AllowanceTaken:      q.Allowance,
		ScheduledExternally: q.Scheduled,
	}
	if q.EmployeeID != 0 {
		f.EmployeeID = &q.EmployeeID
	}
	return f, true
}

func (h *Handler) periodDTO(p schedule.VacationPeriod) PeriodDTO {
	dto := toPeriodDTO(p)
	if h.Workdays != nil {
		n := h.Workdays.Workdays(p.Start, p.End)
		dto.BusinessDays = &n
	}
	return dto
}

// =============================================================================
// DAY OFF HANDLERS
// =============================================================================

func (h *Handler) ListDaysOff(w http.ResponseWriter, r *http.Request) {
	daysOff, err := h.Service.ListDaysOff(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	dtos := make([]DayOffDTO, len(daysOff))
	for i, d := range daysOff {
		dtos[i] = toDayOffDTO(d)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveDayOff creates the day off for (employee, year) or moves the existing one.
func (h *Handler) SaveDayOff(w http.ResponseWriter, r *http.Request) {
	var req DayOffRequest
	if !h.decode(w, r, &req) {
		return
	}
	date, _ := schedule.ParseDate(req.Date)
	d, err := h.Service.SaveDayOff(r.Context(), req.EmployeeID, req.Year, date)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDayOffDTO(d))
}

func (h *Handler) UpdateDayOff(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req DayOffDateRequest
	if !h.decode(w, r, &req) {
		return
	}
	date, _ := schedule.ParseDate(req.Date)
	d, err := h.Service.UpdateDayOff(r.Context(), id, date)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDayOffDTO(d))
}

func (h *Handler) DeleteDayOff(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Service.DeleteDayOff(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// TIMELINE HANDLERS
// =============================================================================

// GetTimeline returns the composed timeline as JSON. An empty result is not
// an error: entries is empty and message explains why.
func (h *Handler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	tl, ok := h.timeline(w, r)
	if !ok {
		return
	}
	dto := toTimelineDTO(tl)
	if tl.Empty() {
		dto.Message = schedule.ErrNoTimelineData.Error()
	}
	writeJSON(w, http.StatusOK, dto)
}

// TimelinePage renders the HTML Gantt chart.
func (h *Handler) TimelinePage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, h.Gantt)
}

// TimelineCalendar renders the iCalendar export.
func (h *Handler) TimelineCalendar(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Disposition", `attachment; filename="timeline.ics"`)
	h.render(w, r, h.ICal)
}

// ListHolidays returns the sorted holidays of ?year=, defaulting to the current year.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	year, ok := queryInt(w, r, "year")
	if !ok {
		return
	}
	if year == 0 {
		year = h.Service.Clock().Now().Year()
	}
	writeJSON(w, http.StatusOK, toHolidayDTOs(h.Service.Holidays(year)))
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, renderer schedule.Renderer) {
	tl, ok := h.timeline(w, r)
	if !ok {
		return
	}
	opts := schedule.RenderOptions{
		Theme: schedule.ParseTheme(r.URL.Query().Get("theme")),
		Title: h.Title,
	}

	// Buffer so a template failure can still become a clean 500.
	var buf bytes.Buffer
	if err := renderer.Render(&buf, tl, opts); err != nil {
		h.log.WithError(err).Error("render failed")
		writeError(w, http.StatusInternalServerError, "Failed to render timeline", "internal", err.Error())
		return
	}
	w.Header().Set("Content-Type", renderer.ContentType())
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) (schedule.Timeline, bool) {
	q := TimelineQuery{
		Employee: r.URL.Query().Get("employee"),
		Theme:    r.URL.Query().Get("theme"),
	}
	var ok bool
	if q.Month, ok = queryInt(w, r, "month"); !ok {
		return schedule.Timeline{}, false
	}
	if q.Year, ok = queryInt(w, r, "year"); !ok {
		return schedule.Timeline{}, false
	}
	if err := h.validate.Struct(q); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid query", "invalid_input", validationDetails(err))
		return schedule.Timeline{}, false
	}

	tl, err := h.Service.Timeline(r.Context(), q.filter())
	if err != nil && !errors.Is(err, schedule.ErrNoTimelineData) {
		h.writeServiceError(w, err)
		return schedule.Timeline{}, false
	}
	return tl, true
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message, code string, details any) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code, Details: details})
}

// writeServiceError maps schedule errors to HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var (
		budget  *schedule.BudgetExceededError
		overlap *schedule.OverlapError
	)
	switch {
	case schedule.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error(), "not_found", nil)
	case errors.As(err, &budget):
		writeError(w, http.StatusUnprocessableEntity, err.Error(), "budget_exceeded", map[string]int{
			"existing":  budget.Existing,
			"requested": budget.Requested,
			"cap":       budget.Cap,
			"remaining": budget.Remaining(),
		})
	case errors.As(err, &overlap):
		writeError(w, http.StatusConflict, err.Error(), "overlap_conflict", map[string]any{
			"conflicting_period_id": overlap.Conflict.ID,
			"conflicting_start":     overlap.Conflict.Start.String(),
			"conflicting_end":       overlap.Conflict.End.String(),
		})
	case errors.Is(err, schedule.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, err.Error(), "invalid_range", nil)
	case errors.Is(err, schedule.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error(), "invalid_input", nil)
	case schedule.IsConflict(err):
		writeError(w, http.StatusConflict, err.Error(), conflictCode(err), nil)
	default:
		h.log.WithError(err).Error("request failed")
		writeError(w, http.StatusInternalServerError, "Internal error", "internal", nil)
	}
}

func conflictCode(err error) string {
	switch {
	case errors.Is(err, schedule.ErrDuplicateDayOff):
		return "duplicate_day_off"
	case errors.Is(err, schedule.ErrEmployeeHasRecords):
		return "employee_has_records"
	default:
		return "overlap_conflict"
	}
}

// decode reads a JSON body into dst and runs the validator on it.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", "invalid_input", err.Error())
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", "invalid_input", validationDetails(err))
		return false
	}
	return true
}

// validationDetails flattens validator errors to field → rule.
func validationDetails(err error) map[string]string {
	out := make(map[string]string)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			out[fe.Field()] = fe.Tag()
		}
		return out
	}
	out["error"] = err.Error()
	return out
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid id %q", raw), "invalid_input", nil)
		return 0, false
	}
	return id, true
}

func queryInt(w http.ResponseWriter, r *http.Request, key string) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s %q", key, raw), "invalid_input", nil)
		return 0, false
	}
	return n, true
}

func queryInt64(w http.ResponseWriter, r *http.Request, key string) (int64, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s %q", key, raw), "invalid_input", nil)
		return 0, false
	}
	return n, true
}

func queryBool(w http.ResponseWriter, r *http.Request, key string) (*bool, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, true
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s %q", key, raw), "invalid_input", nil)
		return nil, false
	}
	return &b, true
}
