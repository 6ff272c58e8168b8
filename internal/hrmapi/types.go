package hrmapi

const (
	StatusPresent = "Present"
	StatusAbsent  = "Absent"
)

type Employee struct {
	ID         int64  `json:"id"`
	EmployeeID string `json:"employee_id"`
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Department string `json:"department"`
	CreatedAt  string `json:"created_at"`
}

type EmployeeInput struct {
	EmployeeID string `json:"employee_id"`
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Department string `json:"department"`
}

type MarkInput struct {
	EmployeeID int64  `json:"employee_id"`
	Date       string `json:"date"`
	Status     string `json:"status"`
}

type AttendanceRecord struct {
	ID         int64  `json:"id"`
	EmployeeID int64  `json:"employee_id"`
	Date       string `json:"date"`
	Status     string `json:"status"`
}

type AttendanceSummary struct {
	Employee     Employee           `json:"employee"`
	TotalPresent int                `json:"total_present"`
	TotalAbsent  int                `json:"total_absent"`
	Records      []AttendanceRecord `json:"records"`
}

type RecentAttendance struct {
	ID           int64  `json:"id"`
	EmployeeName string `json:"employee_name"`
	EmployeeCode string `json:"employee_code"`
	Date         string `json:"date"`
	Status       string `json:"status"`
}

type DepartmentCount struct {
	Department string `json:"department"`
	Count      int    `json:"count"`
}

type Dashboard struct {
	TotalEmployees int               `json:"total_employees"`
	PresentToday   int               `json:"present_today"`
	AbsentToday    int               `json:"absent_today"`
	Departments    []DepartmentCount `json:"departments"`
}

// DateRange bounds an attendance query. Empty bounds are left out of the
// request entirely.
type DateRange struct {
	From string
	To   string
}

func (r DateRange) IsZero() bool {
	return r.From == "" && r.To == ""
}
