package pages

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/phillip-england/hrmlite/internal/hrmapi"
	"github.com/phillip-england/hrmlite/internal/viewstate"
)

type AttendanceAPI interface {
	ListEmployees(ctx context.Context) ([]hrmapi.Employee, error)
	MarkAttendance(ctx context.Context, input hrmapi.MarkInput) (hrmapi.AttendanceRecord, error)
	GetAttendance(ctx context.Context, employeeID int64, dates hrmapi.DateRange) (hrmapi.AttendanceSummary, error)
}

// AttendancePage tracks the selected employee and the date range. Selecting
// an employee fetches at once; range edits wait for ApplyFilter/ClearFilter.
type AttendancePage struct {
	api       AttendanceAPI
	clock     viewstate.Clock
	Employees *viewstate.Store[[]hrmapi.Employee]
	Summary   *viewstate.Store[hrmapi.AttendanceSummary]
	Flash     *viewstate.Flash

	mu       sync.Mutex
	selected int64
	draft    hrmapi.DateRange
	applied  hrmapi.DateRange
	mark     MarkForm
	markErr  string
	rangeErr string
}

type AttendanceView struct {
	Employees    viewstate.Snapshot[[]hrmapi.Employee]
	Summary      viewstate.Snapshot[hrmapi.AttendanceSummary]
	Selected     int64
	Draft        hrmapi.DateRange
	Applied      hrmapi.DateRange
	Mark         MarkForm
	MarkError    string
	RangeError   string
	Success      string
	HasSelection bool
}

func NewAttendancePage(api AttendanceAPI, clock viewstate.Clock, opts ...viewstate.Option) *AttendancePage {
	if clock == nil {
		clock = viewstate.SystemClock
	}
	return &AttendancePage{
		api:       api,
		clock:     clock,
		Employees: viewstate.NewStore[[]hrmapi.Employee]("Failed to load employees."),
		Summary:   viewstate.NewStore[hrmapi.AttendanceSummary]("Failed to load attendance.", opts...),
		Flash:     viewstate.NewFlash(clock, viewstate.DefaultFlashTTL),
	}
}

func (p *AttendancePage) Mount(ctx context.Context) error {
	return p.Employees.Refresh(ctx, p.api.ListEmployees)
}

// Select makes id the current employee and fetches its summary with the
// applied range. Zero clears the selection and drops the summary.
func (p *AttendancePage) Select(ctx context.Context, id int64) error {
	p.mu.Lock()
	changed := p.selected != id
	p.selected = id
	if changed {
		p.markErr = ""
	}
	p.mu.Unlock()

	// the previous employee's summary must not show under the new one
	if changed || id == 0 {
		p.Summary.Reset()
	}
	if id == 0 {
		return nil
	}
	return p.fetchSummary(ctx)
}

func (p *AttendancePage) Selected() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selected
}

// SetRange edits the draft bounds without fetching.
func (p *AttendancePage) SetRange(from, to string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.draft = hrmapi.DateRange{From: strings.TrimSpace(from), To: strings.TrimSpace(to)}
}

func (p *AttendancePage) ApplyFilter(ctx context.Context) error {
	p.mu.Lock()
	draft := p.draft
	p.mu.Unlock()

	if err := validateRange(draft.From, draft.To); err != nil {
		p.mu.Lock()
		p.rangeErr = err.Error()
		p.mu.Unlock()
		return err
	}

	p.mu.Lock()
	p.applied = draft
	p.rangeErr = ""
	p.mu.Unlock()
	return p.fetchSummary(ctx)
}

func (p *AttendancePage) ClearFilter(ctx context.Context) error {
	p.mu.Lock()
	p.draft = hrmapi.DateRange{}
	p.applied = hrmapi.DateRange{}
	p.rangeErr = ""
	p.mu.Unlock()
	return p.fetchSummary(ctx)
}

func (p *AttendancePage) AppliedRange() hrmapi.DateRange {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.applied
}

func (p *AttendancePage) Mark(ctx context.Context, form MarkForm) error {
	form.Date = strings.TrimSpace(form.Date)
	form.Status = strings.TrimSpace(form.Status)
	if form.Date == "" {
		form.Date = p.today()
	}
	if form.Status == "" {
		form.Status = hrmapi.StatusPresent
	}

	p.mu.Lock()
	selected := p.selected
	p.mark = form
	p.markErr = ""
	p.mu.Unlock()

	if selected == 0 {
		return p.markFailed(&ValidationError{Message: "Please select an employee first."})
	}
	if err := validateMarkForm(form); err != nil {
		return p.markFailed(err)
	}

	_, err := p.api.MarkAttendance(ctx, hrmapi.MarkInput{
		EmployeeID: selected,
		Date:       form.Date,
		Status:     form.Status,
	})
	if err != nil {
		p.mu.Lock()
		p.markErr = hrmapi.Message(err, "Failed to mark attendance.")
		p.mu.Unlock()
		return err
	}

	p.Flash.Set(fmt.Sprintf("Attendance marked: %s on %s", form.Status, form.Date))
	_ = p.fetchSummary(ctx)
	return nil
}

func (p *AttendancePage) View() AttendanceView {
	employees := p.Employees.Snapshot()
	summary := p.Summary.Snapshot()
	p.mu.Lock()
	defer p.mu.Unlock()
	mark := p.mark
	if mark.Date == "" {
		mark.Date = p.today()
	}
	if mark.Status == "" {
		mark.Status = hrmapi.StatusPresent
	}
	return AttendanceView{
		Employees:    employees,
		Summary:      summary,
		Selected:     p.selected,
		Draft:        p.draft,
		Applied:      p.applied,
		Mark:         mark,
		MarkError:    p.markErr,
		RangeError:   p.rangeErr,
		Success:      p.Flash.Message(),
		HasSelection: p.selected != 0,
	}
}

func (p *AttendancePage) Close() {
	p.Flash.Close()
}

// fetchSummary loads the current selection with the applied range. A result
// that arrives after the selection moved on is dropped by the store.
func (p *AttendancePage) fetchSummary(ctx context.Context) error {
	p.mu.Lock()
	id := p.selected
	dates := p.applied
	p.mu.Unlock()
	if id == 0 {
		return nil
	}

	ticket := p.Summary.Begin()
	summary, err := p.api.GetAttendance(ctx, id, dates)

	p.mu.Lock()
	current := p.selected
	p.mu.Unlock()
	if current != id {
		return viewstate.ErrStale
	}
	if !p.Summary.Resolve(ticket, summary, err) {
		return viewstate.ErrStale
	}
	return err
}

func (p *AttendancePage) markFailed(err error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.markErr = err.Error()
	return err
}

func (p *AttendancePage) today() string {
	return p.clock.Now().Format(dateLayout)
}
