package pages

import (
	"context"
	"net/http"
	"sort"
	"sync"

	"github.com/phillip-england/hrmlite/internal/hrmapi"
)

type fakeAPI struct {
	mu sync.Mutex

	employees []hrmapi.Employee
	records   []hrmapi.AttendanceRecord
	nextID    int64
	nextRecID int64

	dashboard hrmapi.Dashboard
	recent    []hrmapi.RecentAttendance

	listErr   error
	createErr error
	deleteErr error
	markErr   error
	dashErr   error
	recentErr error
	// attendanceErrs fails GetAttendance for one employee.
	attendanceErrs map[int64]error

	calls   map[string]int
	queries []attendanceQuery
	marks   []hrmapi.MarkInput

	// gates blocks GetAttendance for an employee until the channel is closed.
	gates   map[int64]chan struct{}
	entered chan int64
}

type attendanceQuery struct {
	EmployeeID int64
	Dates      hrmapi.DateRange
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		nextID:    1,
		nextRecID: 1,
		calls:     map[string]int{},
		gates:     map[int64]chan struct{}{},

		attendanceErrs: map[int64]error{},
	}
}

func (f *fakeAPI) addEmployee(employeeID, name, email, department string) hrmapi.Employee {
	f.mu.Lock()
	defer f.mu.Unlock()
	emp := hrmapi.Employee{
		ID:         f.nextID,
		EmployeeID: employeeID,
		FullName:   name,
		Email:      email,
		Department: department,
		CreatedAt:  "2024-05-01T09:00:00",
	}
	f.nextID++
	f.employees = append(f.employees, emp)
	return emp
}

func (f *fakeAPI) addRecord(employeeID int64, date, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, hrmapi.AttendanceRecord{ID: f.nextRecID, EmployeeID: employeeID, Date: date, Status: status})
	f.nextRecID++
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) lastQuery() attendanceQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queries) == 0 {
		return attendanceQuery{}
	}
	return f.queries[len(f.queries)-1]
}

func (f *fakeAPI) ListEmployees(ctx context.Context) ([]hrmapi.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["list"]++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]hrmapi.Employee, len(f.employees))
	copy(out, f.employees)
	return out, nil
}

func (f *fakeAPI) CreateEmployee(ctx context.Context, input hrmapi.EmployeeInput) (hrmapi.Employee, error) {
	f.mu.Lock()
	f.calls["create"]++
	err := f.createErr
	f.mu.Unlock()
	if err != nil {
		return hrmapi.Employee{}, err
	}
	for _, emp := range f.snapshotEmployees() {
		if emp.EmployeeID == input.EmployeeID {
			return hrmapi.Employee{}, &hrmapi.APIError{StatusCode: http.StatusConflict, Detail: "Employee ID '" + input.EmployeeID + "' already exists."}
		}
	}
	return f.addEmployee(input.EmployeeID, input.FullName, input.Email, input.Department), nil
}

func (f *fakeAPI) DeleteEmployee(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["delete"]++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	kept := f.employees[:0]
	for _, emp := range f.employees {
		if emp.ID != id {
			kept = append(kept, emp)
		}
	}
	f.employees = kept
	return nil
}

func (f *fakeAPI) MarkAttendance(ctx context.Context, input hrmapi.MarkInput) (hrmapi.AttendanceRecord, error) {
	f.mu.Lock()
	f.calls["mark"]++
	f.marks = append(f.marks, input)
	err := f.markErr
	f.mu.Unlock()
	if err != nil {
		return hrmapi.AttendanceRecord{}, err
	}
	f.addRecord(input.EmployeeID, input.Date, input.Status)
	return hrmapi.AttendanceRecord{EmployeeID: input.EmployeeID, Date: input.Date, Status: input.Status}, nil
}

func (f *fakeAPI) GetAttendance(ctx context.Context, employeeID int64, dates hrmapi.DateRange) (hrmapi.AttendanceSummary, error) {
	f.mu.Lock()
	f.calls["attendance"]++
	f.queries = append(f.queries, attendanceQuery{EmployeeID: employeeID, Dates: dates})
	gate := f.gates[employeeID]
	entered := f.entered
	failure := f.attendanceErrs[employeeID]
	f.mu.Unlock()

	if entered != nil {
		entered <- employeeID
	}
	if gate != nil {
		<-gate
	}
	if failure != nil {
		return hrmapi.AttendanceSummary{}, failure
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	summary := hrmapi.AttendanceSummary{Records: []hrmapi.AttendanceRecord{}}
	for _, emp := range f.employees {
		if emp.ID == employeeID {
			summary.Employee = emp
		}
	}
	for _, rec := range f.records {
		if rec.EmployeeID != employeeID {
			continue
		}
		if dates.From != "" && rec.Date < dates.From {
			continue
		}
		if dates.To != "" && rec.Date > dates.To {
			continue
		}
		summary.Records = append(summary.Records, rec)
		if rec.Status == hrmapi.StatusPresent {
			summary.TotalPresent++
		} else {
			summary.TotalAbsent++
		}
	}
	sort.Slice(summary.Records, func(i, j int) bool { return summary.Records[i].Date > summary.Records[j].Date })
	return summary, nil
}

func (f *fakeAPI) GetDashboard(ctx context.Context) (hrmapi.Dashboard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["dashboard"]++
	if f.dashErr != nil {
		return hrmapi.Dashboard{}, f.dashErr
	}
	return f.dashboard, nil
}

func (f *fakeAPI) RecentAttendance(ctx context.Context) ([]hrmapi.RecentAttendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["recent"]++
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	out := make([]hrmapi.RecentAttendance, len(f.recent))
	copy(out, f.recent)
	return out, nil
}

func (f *fakeAPI) snapshotEmployees() []hrmapi.Employee {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]hrmapi.Employee, len(f.employees))
	copy(out, f.employees)
	return out
}
