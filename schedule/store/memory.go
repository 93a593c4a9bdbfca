// Package store provides in-memory Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/vacation-engine/schedule"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory is a schedule.TxStore backed by maps. The zero value is not usable;
// call NewMemory.
type Memory struct {
	mu   sync.RWMutex
	data *memoryData
}

func NewMemory() *Memory {
	return &Memory{data: newMemoryData()}
}

var _ schedule.TxStore = (*Memory)(nil)

type memoryData struct {
	employees map[int64]schedule.Employee
	periods   map[int64]schedule.VacationPeriod
	daysOff   map[int64]schedule.DayOff
	nextID    int64
}

func newMemoryData() *memoryData {
	return &memoryData{
		employees: make(map[int64]schedule.Employee),
		periods:   make(map[int64]schedule.VacationPeriod),
		daysOff:   make(map[int64]schedule.DayOff),
	}
}

func (d *memoryData) clone() *memoryData {
	c := newMemoryData()
	for k, v := range d.employees {
		c.employees[k] = v
	}
	for k, v := range d.periods {
		c.periods[k] = v
	}
	for k, v := range d.daysOff {
		c.daysOff[k] = v
	}
	c.nextID = d.nextID
	return c
}

func (d *memoryData) id() int64 {
	d.nextID++
	return d.nextID
}

// =============================================================================
// LOCKED WRAPPERS
// =============================================================================

func (m *Memory) read(fn func(*memoryData) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(m.data)
}

func (m *Memory) write(fn func(*memoryData) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m.data)
}

func (m *Memory) ListEmployees(ctx context.Context) (out []schedule.Employee, err error) {
	err = m.read(func(d *memoryData) error { out, err = d.listEmployees(); return err })
	return
}

func (m *Memory) GetEmployee(ctx context.Context, id int64) (out schedule.Employee, err error) {
	err = m.read(func(d *memoryData) error { out, err = d.getEmployee(id); return err })
	return
}

func (m *Memory) SaveEmployee(ctx context.Context, name string) (out schedule.Employee, err error) {
	err = m.write(func(d *memoryData) error { out, err = d.saveEmployee(name); return err })
	return
}

func (m *Memory) RenameEmployee(ctx context.Context, id int64, name string) error {
	return m.write(func(d *memoryData) error { return d.renameEmployee(id, name) })
}

func (m *Memory) DeleteEmployee(ctx context.Context, id int64) error {
	return m.write(func(d *memoryData) error { return d.deleteEmployee(id) })
}

func (m *Memory) ListPeriods(ctx context.Context, f schedule.PeriodFilter) (out []schedule.VacationPeriod, err error) {
	err = m.read(func(d *memoryData) error { out, err = d.listPeriods(f); return err })
	return
}

func (m *Memory) GetPeriod(ctx context.Context, id int64) (out schedule.VacationPeriod, err error) {
	err = m.read(func(d *memoryData) error { out, err = d.getPeriod(id); return err })
	return
}

func (m *Memory) SumPeriodDays(ctx context.Context, employeeID int64) (out int, err error) {
	err = m.read(func(d *memoryData) error { out = d.sumPeriodDays(employeeID); return nil })
	return
}

func (m *Memory) InsertPeriod(ctx context.Context, p schedule.VacationPeriod) (out int64, err error) {
	err = m.write(func(d *memoryData) error { out, err = d.insertPeriod(p); return err })
	return
}

func (m *Memory) UpdatePeriod(ctx context.Context, p schedule.VacationPeriod) error {
	return m.write(func(d *memoryData) error { return d.updatePeriod(p) })
}

func (m *Memory) DeletePeriod(ctx context.Context, id int64) error {
	return m.write(func(d *memoryData) error { return d.deletePeriod(id) })
}

func (m *Memory) GetDayOff(ctx context.Context, employeeID int64, year int) (out *schedule.DayOff, err error) {
	err = m.read(func(d *memoryData) error { out = d.getDayOff(employeeID, year); return nil })
	return
}

func (m *Memory) GetDayOffByID(ctx context.Context, id int64) (out schedule.DayOff, err error) {
	err = m.read(func(d *memoryData) error { out, err = d.getDayOffByID(id); return err })
	return
}

func (m *Memory) InsertDayOff(ctx context.Context, do schedule.DayOff) (out int64, err error) {
	err = m.write(func(d *memoryData) error { out, err = d.insertDayOff(do); return err })
	return
}

func (m *Memory) UpdateDayOff(ctx context.Context, id int64, date schedule.Date) error {
	return m.write(func(d *memoryData) error { return d.updateDayOff(id, date) })
}

func (m *Memory) DeleteDayOff(ctx context.Context, id int64) error {
	return m.write(func(d *memoryData) error { return d.deleteDayOff(id) })
}

func (m *Memory) ListDaysOff(ctx context.Context) (out []schedule.DayOff, err error) {
	err = m.read(func(d *memoryData) error { out = d.listDaysOff(); return nil })
	return
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn against a private copy of the data and swaps it in only
// when fn succeeds. The write lock is held for the whole call.
func (m *Memory) WithTx(ctx context.Context, fn func(schedule.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	view := &txView{data: m.data.clone()}
	if err := fn(view); err != nil {
		return err
	}
	m.data = view.data
	return nil
}

// txView runs the unlocked operations; the parent already holds the lock.
type txView struct {
	data *memoryData
}

func (v *txView) ListEmployees(ctx context.Context) ([]schedule.Employee, error) {
	return v.data.listEmployees()
}

func (v *txView) GetEmployee(ctx context.Context, id int64) (schedule.Employee, error) {
	return v.data.getEmployee(id)
}

func (v *txView) SaveEmployee(ctx context.Context, name string) (schedule.Employee, error) {
	return v.data.saveEmployee(name)
}

func (v *txView) RenameEmployee(ctx context.Context, id int64, name string) error {
	return v.data.renameEmployee(id, name)
}

func (v *txView) DeleteEmployee(ctx context.Context, id int64) error {
	return v.data.deleteEmployee(id)
}

func (v *txView) ListPeriods(ctx context.Context, f schedule.PeriodFilter) ([]schedule.VacationPeriod, error) {
	return v.data.listPeriods(f)
}

func (v *txView) GetPeriod(ctx context.Context, id int64) (schedule.VacationPeriod, error) {
	return v.data.getPeriod(id)
}

func (v *txView) SumPeriodDays(ctx context.Context, employeeID int64) (int, error) {
	return v.data.sumPeriodDays(employeeID), nil
}

func (v *txView) InsertPeriod(ctx context.Context, p schedule.VacationPeriod) (int64, error) {
	return v.data.insertPeriod(p)
}

func (v *txView) UpdatePeriod(ctx context.Context, p schedule.VacationPeriod) error {
	return v.data.updatePeriod(p)
}

func (v *txView) DeletePeriod(ctx context.Context, id int64) error {
	return v.data.deletePeriod(id)
}

func (v *txView) GetDayOff(ctx context.Context, employeeID int64, year int) (*schedule.DayOff, error) {
	return v.data.getDayOff(employeeID, year), nil
}

func (v *txView) GetDayOffByID(ctx context.Context, id int64) (schedule.DayOff, error) {
	return v.data.getDayOffByID(id)
}

func (v *txView) InsertDayOff(ctx context.Context, d schedule.DayOff) (int64, error) {
	return v.data.insertDayOff(d)
}

func (v *txView) UpdateDayOff(ctx context.Context, id int64, date schedule.Date) error {
	return v.data.updateDayOff(id, date)
}

func (v *txView) DeleteDayOff(ctx context.Context, id int64) error {
	return v.data.deleteDayOff(id)
}

func (v *txView) ListDaysOff(ctx context.Context) ([]schedule.DayOff, error) {
	return v.data.listDaysOff(), nil
}

// =============================================================================
// UNLOCKED OPERATIONS
// =============================================================================

func (d *memoryData) listEmployees() ([]schedule.Employee, error) {
	out := make([]schedule.Employee, 0, len(d.employees))
	for _, e := range d.employees {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (d *memoryData) getEmployee(id int64) (schedule.Employee, error) {
	e, ok := d.employees[id]
	if !ok {
		return schedule.Employee{}, schedule.ErrEmployeeNotFound
	}
	return e, nil
}

func (d *memoryData) saveEmployee(name string) (schedule.Employee, error) {
	e := schedule.Employee{ID: d.id(), Name: name}
	d.employees[e.ID] = e
	return e, nil
}

func (d *memoryData) renameEmployee(id int64, name string) error {
	e, ok := d.employees[id]
	if !ok {
		return schedule.ErrEmployeeNotFound
	}
	e.Name = name
	d.employees[id] = e
	return nil
}

func (d *memoryData) deleteEmployee(id int64) error {
	if _, ok := d.employees[id]; !ok {
		return schedule.ErrEmployeeNotFound
	}
	for _, p := range d.periods {
		if p.EmployeeID == id {
			return schedule.ErrEmployeeHasRecords
		}
	}
	for _, do := range d.daysOff {
		if do.EmployeeID == id {
			return schedule.ErrEmployeeHasRecords
		}
	}
	delete(d.employees, id)
	return nil
}

func (d *memoryData) withName(p schedule.VacationPeriod) schedule.VacationPeriod {
	p.EmployeeName = d.employees[p.EmployeeID].Name
	return p
}

func (d *memoryData) listPeriods(f schedule.PeriodFilter) ([]schedule.VacationPeriod, error) {
	var out []schedule.VacationPeriod
	for _, p := range d.periods {
		if f.Match(p) {
			out = append(out, d.withName(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (d *memoryData) getPeriod(id int64) (schedule.VacationPeriod, error) {
	p, ok := d.periods[id]
	if !ok {
		return schedule.VacationPeriod{}, schedule.ErrPeriodNotFound
	}
	return d.withName(p), nil
}

func (d *memoryData) sumPeriodDays(employeeID int64) int {
	total := 0
	for _, p := range d.periods {
		if p.EmployeeID == employeeID {
			total += p.Days
		}
	}
	return total
}

func (d *memoryData) insertPeriod(p schedule.VacationPeriod) (int64, error) {
	if _, ok := d.employees[p.EmployeeID]; !ok {
		return 0, schedule.ErrEmployeeNotFound
	}
	p.ID = d.id()
	p.EmployeeName = ""
	d.periods[p.ID] = p
	return p.ID, nil
}

func (d *memoryData) updatePeriod(p schedule.VacationPeriod) error {
	if _, ok := d.periods[p.ID]; !ok {
		return schedule.ErrPeriodNotFound
	}
	if _, ok := d.employees[p.EmployeeID]; !ok {
		return schedule.ErrEmployeeNotFound
	}
	p.EmployeeName = ""
	d.periods[p.ID] = p
	return nil
}

func (d *memoryData) deletePeriod(id int64) error {
	if _, ok := d.periods[id]; !ok {
		return schedule.ErrPeriodNotFound
	}
	delete(d.periods, id)
	return nil
}

func (d *memoryData) getDayOff(employeeID int64, year int) *schedule.DayOff {
	for _, do := range d.daysOff {
		if do.EmployeeID == employeeID && do.Year == year {
			do.EmployeeName = d.employees[do.EmployeeID].Name
			return &do
		}
	}
	return nil
}

func (d *memoryData) getDayOffByID(id int64) (schedule.DayOff, error) {
	do, ok := d.daysOff[id]
	if !ok {
		return schedule.DayOff{}, schedule.ErrDayOffNotFound
	}
	do.EmployeeName = d.employees[do.EmployeeID].Name
	return do, nil
}

func (d *memoryData) insertDayOff(do schedule.DayOff) (int64, error) {
	if _, ok := d.employees[do.EmployeeID]; !ok {
		return 0, schedule.ErrEmployeeNotFound
	}
	if d.getDayOff(do.EmployeeID, do.Year) != nil {
		return 0, schedule.ErrDuplicateDayOff
	}
	do.ID = d.id()
	do.EmployeeName = ""
	d.daysOff[do.ID] = do
	return do.ID, nil
}

func (d *memoryData) updateDayOff(id int64, date schedule.Date) error {
	do, ok := d.daysOff[id]
	if !ok {
		return schedule.ErrDayOffNotFound
	}
	do.Date = date
	d.daysOff[id] = do
	return nil
}

func (d *memoryData) deleteDayOff(id int64) error {
	if _, ok := d.daysOff[id]; !ok {
		return schedule.ErrDayOffNotFound
	}
	delete(d.daysOff, id)
	return nil
}

func (d *memoryData) listDaysOff() []schedule.DayOff {
	out := make([]schedule.DayOff, 0, len(d.daysOff))
	for _, do := range d.daysOff {
		do.EmployeeName = d.employees[do.EmployeeID].Name
		out = append(out, do)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EmployeeName != out[j].EmployeeName {
			return out[i].EmployeeName < out[j].EmployeeName
		}
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].ID < out[j].ID
	})
	return out
}
