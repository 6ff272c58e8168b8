package clientapp

import (
	"html/template"
	"strings"
	"time"

	"github.com/phillip-england/hrmlite/internal/hrmapi"
	"github.com/phillip-england/hrmlite/internal/pages"
	"github.com/phillip-england/hrmlite/internal/viewstate"
)

type pageData struct {
	Title     string
	Nav       string
	CSRFField template.HTML
	// Error and Message come from the redirect query string.
	Error   string
	Message string

	Dashboard  viewstate.Snapshot[pages.DashboardData]
	Employees  pages.EmployeesView
	Attendance pages.AttendanceView
	Selected   *hrmapi.Employee
}

var templateFuncs = template.FuncMap{
	"formatDate":  formatDateTimeDisplay,
	"statusClass": statusClass,
	"statusIcon":  statusIcon,
}

func statusClass(status string) string {
	if status == hrmapi.StatusPresent {
		return "present"
	}
	return "absent"
}

func statusIcon(status string) string {
	if status == hrmapi.StatusPresent {
		return "✓"
	}
	return "✕"
}

// formatDateTimeDisplay renders API timestamps as a calendar date. The API
// sends naive ISO timestamps, sometimes with microseconds; anything
// unrecognised is shown as sent.
func formatDateTimeDisplay(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.999999",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.999999",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed.Format("Jan 2, 2006")
		}
	}
	return trimmed
}

func selectedEmployee(view pages.AttendanceView) *hrmapi.Employee {
	if !view.HasSelection {
		return nil
	}
	for _, emp := range view.Employees.Data {
		if emp.ID == view.Selected {
			found := emp
			return &found
		}
	}
	if view.Summary.HasData && view.Summary.Data.Employee.ID == view.Selected {
		found := view.Summary.Data.Employee
		return &found
	}
	return nil
}
