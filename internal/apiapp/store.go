package apiapp

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/phillip-england/hrmlite/internal/hrmapi"
)

const createdAtLayout = "2006-01-02T15:04:05.000000"

var (
	errNotFound = errors.New("employee not found")
	errConflict = errors.New("conflict")
)

type conflictError struct {
	detail string
}

func (e *conflictError) Error() string { return e.detail }
func (e *conflictError) Unwrap() error { return errConflict }

// memoryStore holds employees and attendance. Deleting an employee removes
// its attendance.
type memoryStore struct {
	mu         sync.Mutex
	now        func() time.Time
	nextEmp    int64
	nextRecord int64
	employees  map[int64]hrmapi.Employee
	records    map[int64]hrmapi.AttendanceRecord
}

func newMemoryStore(now func() time.Time) *memoryStore {
	if now == nil {
		now = time.Now
	}
	return &memoryStore{
		now:       now,
		employees: map[int64]hrmapi.Employee{},
		records:   map[int64]hrmapi.AttendanceRecord{},
	}
}

func (s *memoryStore) listEmployees() []hrmapi.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]hrmapi.Employee, 0, len(s.employees))
	for _, emp := range s.employees {
		out = append(out, emp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *memoryStore) createEmployee(input hrmapi.EmployeeInput) (hrmapi.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, emp := range s.employees {
		if emp.EmployeeID == input.EmployeeID {
			return hrmapi.Employee{}, &conflictError{detail: fmt.Sprintf("Employee ID '%s' already exists.", input.EmployeeID)}
		}
	}
	for _, emp := range s.employees {
		if emp.Email == input.Email {
			return hrmapi.Employee{}, &conflictError{detail: fmt.Sprintf("Email '%s' is already registered.", input.Email)}
		}
	}

	s.nextEmp++
	emp := hrmapi.Employee{
		ID:         s.nextEmp,
		EmployeeID: input.EmployeeID,
		FullName:   input.FullName,
		Email:      input.Email,
		Department: input.Department,
		CreatedAt:  s.now().UTC().Format(createdAtLayout),
	}
	s.employees[emp.ID] = emp
	return emp, nil
}

func (s *memoryStore) getEmployee(id int64) (hrmapi.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	emp, ok := s.employees[id]
	if !ok {
		return hrmapi.Employee{}, errNotFound
	}
	return emp, nil
}

func (s *memoryStore) deleteEmployee(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[id]; !ok {
		return errNotFound
	}
	delete(s.employees, id)
	for recID, rec := range s.records {
		if rec.EmployeeID == id {
			delete(s.records, recID)
		}
	}
	return nil
}

func (s *memoryStore) markAttendance(input hrmapi.MarkInput) (hrmapi.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.employees[input.EmployeeID]; !ok {
		return hrmapi.AttendanceRecord{}, errNotFound
	}
	for _, rec := range s.records {
		if rec.EmployeeID == input.EmployeeID && rec.Date == input.Date {
			return hrmapi.AttendanceRecord{}, &conflictError{detail: fmt.Sprintf("Attendance for this employee on %s already exists.", input.Date)}
		}
	}
	s.nextRecord++
	rec := hrmapi.AttendanceRecord{
		ID:         s.nextRecord,
		EmployeeID: input.EmployeeID,
		Date:       input.Date,
		Status:     input.Status,
	}
	s.records[rec.ID] = rec
	return rec, nil
}

// summary filters inclusively on dates; the YYYY-MM-DD form compares
// correctly as text.
func (s *memoryStore) summary(id int64, dates hrmapi.DateRange) (hrmapi.AttendanceSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	emp, ok := s.employees[id]
	if !ok {
		return hrmapi.AttendanceSummary{}, errNotFound
	}
	out := hrmapi.AttendanceSummary{Employee: emp, Records: []hrmapi.AttendanceRecord{}}
	for _, rec := range s.records {
		if rec.EmployeeID != id {
			continue
		}
		if dates.From != "" && rec.Date < dates.From {
			continue
		}
		if dates.To != "" && rec.Date > dates.To {
			continue
		}
		out.Records = append(out.Records, rec)
		switch rec.Status {
		case hrmapi.StatusPresent:
			out.TotalPresent++
		case hrmapi.StatusAbsent:
			out.TotalAbsent++
		}
	}
	sortNewestFirst(out.Records)
	return out, nil
}

func (s *memoryStore) recent(limit int) []hrmapi.RecentAttendance {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]hrmapi.AttendanceRecord, 0, len(s.records))
	for _, rec := range s.records {
		records = append(records, rec)
	}
	sortNewestFirst(records)
	if len(records) > limit {
		records = records[:limit]
	}
	out := make([]hrmapi.RecentAttendance, 0, len(records))
	for _, rec := range records {
		emp := s.employees[rec.EmployeeID]
		out = append(out, hrmapi.RecentAttendance{
			ID:           rec.ID,
			EmployeeName: emp.FullName,
			EmployeeCode: emp.EmployeeID,
			Date:         rec.Date,
			Status:       rec.Status,
		})
	}
	return out
}

func (s *memoryStore) dashboard() hrmapi.Dashboard {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.now().Format("2006-01-02")
	out := hrmapi.Dashboard{TotalEmployees: len(s.employees), Departments: []hrmapi.DepartmentCount{}}
	for _, rec := range s.records {
		if rec.Date != today {
			continue
		}
		switch rec.Status {
		case hrmapi.StatusPresent:
			out.PresentToday++
		case hrmapi.StatusAbsent:
			out.AbsentToday++
		}
	}

	counts := map[string]int{}
	for _, emp := range s.employees {
		counts[emp.Department]++
	}
	for dept, count := range counts {
		out.Departments = append(out.Departments, hrmapi.DepartmentCount{Department: dept, Count: count})
	}
	sort.Slice(out.Departments, func(i, j int) bool {
		return out.Departments[i].Department < out.Departments[j].Department
	})
	return out
}

func sortNewestFirst(records []hrmapi.AttendanceRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Date != records[j].Date {
			return records[i].Date > records[j].Date
		}
		return records[i].ID > records[j].ID
	})
}
