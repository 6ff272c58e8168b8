package pages

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/phillip-england/hrmlite/internal/hrmapi"
	"github.com/phillip-england/hrmlite/internal/viewstate"
)

type EmployeeAPI interface {
	ListEmployees(ctx context.Context) ([]hrmapi.Employee, error)
	CreateEmployee(ctx context.Context, input hrmapi.EmployeeInput) (hrmapi.Employee, error)
	DeleteEmployee(ctx context.Context, id int64) error
}

var ErrNoPendingDelete = errors.New("no deletion awaiting confirmation")

type EmployeesPage struct {
	api   EmployeeAPI
	List  *viewstate.Store[[]hrmapi.Employee]
	Flash *viewstate.Flash

	mu            sync.Mutex
	form          EmployeeForm
	formOpen      bool
	formErr       string
	pageErr       string
	pendingDelete *hrmapi.Employee
	skipMount     bool
}

type EmployeesView struct {
	List          viewstate.Snapshot[[]hrmapi.Employee]
	Success       string
	PageError     string
	Form          EmployeeForm
	FormOpen      bool
	FormError     string
	PendingDelete *hrmapi.Employee
}

// ImportRow is one spreadsheet line; Line is reported back on failure.
type ImportRow struct {
	Line int
	Form EmployeeForm
}

type ImportRowError struct {
	Row     int
	Message string
}

type ImportResult struct {
	Created int
	Total   int
	Errors  []ImportRowError
}

func NewEmployeesPage(api EmployeeAPI, clock viewstate.Clock, opts ...viewstate.Option) *EmployeesPage {
	return &EmployeesPage{
		api:   api,
		List:  viewstate.NewStore[[]hrmapi.Employee]("Failed to load employees.", opts...),
		Flash: viewstate.NewFlash(clock, viewstate.DefaultFlashTTL),
	}
}

// Mount fetches the list, unless a mutation refreshed it since the last
// mount.
func (p *EmployeesPage) Mount(ctx context.Context) error {
	p.mu.Lock()
	skip := p.skipMount
	p.skipMount = false
	p.mu.Unlock()
	if skip {
		return nil
	}
	return p.Refresh(ctx)
}

func (p *EmployeesPage) Refresh(ctx context.Context) error {
	p.mu.Lock()
	p.pageErr = ""
	p.mu.Unlock()
	return p.List.Refresh(ctx, p.api.ListEmployees)
}

func (p *EmployeesPage) OpenForm() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.formOpen = true
}

func (p *EmployeesPage) CloseForm() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.formOpen = false
	p.formErr = ""
	p.form = EmployeeForm{}
}

func (p *EmployeesPage) Create(ctx context.Context, form EmployeeForm) error {
	p.mu.Lock()
	p.form = form
	p.formOpen = true
	p.formErr = ""
	p.mu.Unlock()

	clean := form.trimmed()
	if err := validateEmployeeForm(clean); err != nil {
		p.setFormError(err.Error())
		return err
	}

	_, err := p.api.CreateEmployee(ctx, hrmapi.EmployeeInput{
		EmployeeID: clean.EmployeeID,
		FullName:   clean.FullName,
		Email:      clean.Email,
		Department: clean.Department,
	})
	if err != nil {
		p.setFormError(hrmapi.Message(err, "Failed to add employee."))
		return err
	}

	p.mu.Lock()
	p.form = EmployeeForm{}
	p.formOpen = false
	p.mu.Unlock()
	p.Flash.Set("Employee added successfully!")
	p.refreshAfterMutation(ctx)
	return nil
}

// RequestDelete stages id for deletion; nothing is sent until ConfirmDelete.
func (p *EmployeesPage) RequestDelete(id int64) error {
	snap := p.List.Snapshot()
	for _, emp := range snap.Data {
		if emp.ID == id {
			target := emp
			p.mu.Lock()
			p.pendingDelete = &target
			p.mu.Unlock()
			return nil
		}
	}
	return fmt.Errorf("employee %d is not in the current list", id)
}

func (p *EmployeesPage) CancelDelete() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pendingDelete = nil
}

func (p *EmployeesPage) ConfirmDelete(ctx context.Context) error {
	p.mu.Lock()
	target := p.pendingDelete
	p.mu.Unlock()
	if target == nil {
		return ErrNoPendingDelete
	}

	err := p.api.DeleteEmployee(ctx, target.ID)

	p.mu.Lock()
	p.pendingDelete = nil
	if err != nil {
		p.pageErr = hrmapi.Message(err, "Failed to delete employee.")
		p.skipMount = true
	} else {
		p.pageErr = ""
	}
	p.mu.Unlock()
	if err != nil {
		return err
	}

	p.Flash.Set(fmt.Sprintf("Employee %q deleted.", target.FullName))
	p.refreshAfterMutation(ctx)
	return nil
}

// Import creates every valid row in order and refreshes the list once.
func (p *EmployeesPage) Import(ctx context.Context, rows []ImportRow) ImportResult {
	result := ImportResult{Total: len(rows)}
	for _, row := range rows {
		clean := row.Form.trimmed()
		if err := validateEmployeeForm(clean); err != nil {
			result.Errors = append(result.Errors, ImportRowError{Row: row.Line, Message: err.Error()})
			continue
		}
		_, err := p.api.CreateEmployee(ctx, hrmapi.EmployeeInput{
			EmployeeID: clean.EmployeeID,
			FullName:   clean.FullName,
			Email:      clean.Email,
			Department: clean.Department,
		})
		if err != nil {
			result.Errors = append(result.Errors, ImportRowError{Row: row.Line, Message: hrmapi.Message(err, "Failed to add employee.")})
			continue
		}
		result.Created++
	}

	if result.Created > 0 {
		p.Flash.Set(fmt.Sprintf("Imported %d of %d employees.", result.Created, result.Total))
		p.refreshAfterMutation(ctx)
	}
	if len(result.Errors) > 0 {
		first := result.Errors[0]
		p.mu.Lock()
		p.pageErr = fmt.Sprintf("%d row(s) skipped; row %d: %s", len(result.Errors), first.Row, first.Message)
		// keep the report through the redirect's mount
		p.skipMount = true
		p.mu.Unlock()
	}
	return result
}

func (p *EmployeesPage) View() EmployeesView {
	list := p.List.Snapshot()
	p.mu.Lock()
	defer p.mu.Unlock()
	var pending *hrmapi.Employee
	if p.pendingDelete != nil {
		copied := *p.pendingDelete
		pending = &copied
	}
	return EmployeesView{
		List:          list,
		Success:       p.Flash.Message(),
		PageError:     p.pageErr,
		Form:          p.form,
		FormOpen:      p.formOpen,
		FormError:     p.formErr,
		PendingDelete: pending,
	}
}

func (p *EmployeesPage) Close() {
	p.Flash.Close()
}

func (p *EmployeesPage) setFormError(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.formErr = msg
}

func (p *EmployeesPage) refreshAfterMutation(ctx context.Context) {
	_ = p.List.Refresh(ctx, p.api.ListEmployees)
	p.mu.Lock()
	p.skipMount = true
	p.mu.Unlock()
}
