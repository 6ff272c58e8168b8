package clientapp

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/phillip-england/hrmlite/internal/heatmap"
	"github.com/phillip-england/hrmlite/internal/pages"
	"github.com/phillip-england/hrmlite/internal/sheets"
)

func (s *server) basePageData(r *http.Request, title, nav string) pageData {
	query := r.URL.Query()
	return pageData{
		Title:     title,
		Nav:       nav,
		CSRFField: csrf.TemplateField(r),
		Error:     strings.TrimSpace(query.Get("error")),
		Message:   strings.TrimSpace(query.Get("message")),
	}
}

func (s *server) dashboardPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ws := s.workspaces.forRequest(w, r)
	if err := ws.dashboard.Mount(r.Context()); err != nil {
		log.Printf("dashboard load failed: %v", err)
	}

	data := s.basePageData(r, "Dashboard", "dashboard")
	data.Dashboard = ws.dashboard.View()
	if err := renderHTMLTemplate(w, s.dashboardTmpl, data); err != nil {
		http.Error(w, "template render failed", http.StatusInternalServerError)
		log.Printf("dashboard template render failed: %v", err)
	}
}

func (s *server) employeesRoute(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.employeesPage(w, r)
	case http.MethodPost:
		s.createEmployee(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *server) employeesPage(w http.ResponseWriter, r *http.Request) {
	ws := s.workspaces.forRequest(w, r)
	query := r.URL.Query()
	switch query.Get("add") {
	case "1":
		ws.employees.OpenForm()
	case "0":
		ws.employees.CloseForm()
	}

	var err error
	if query.Get("retry") == "1" {
		err = ws.employees.Refresh(r.Context())
	} else {
		err = ws.employees.Mount(r.Context())
	}
	if err != nil {
		log.Printf("employee list load failed: %v", err)
	}

	data := s.basePageData(r, "Employees", "employees")
	data.Employees = ws.employees.View()
	if err := renderHTMLTemplate(w, s.employeesTmpl, data); err != nil {
		http.Error(w, "template render failed", http.StatusInternalServerError)
		log.Printf("employees template render failed: %v", err)
	}
}

func (s *server) createEmployee(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/employees?error=Invalid+form+submission", http.StatusSeeOther)
		return
	}
	ws := s.workspaces.forRequest(w, r)
	err := ws.employees.Create(r.Context(), pages.EmployeeForm{
		EmployeeID: r.PostFormValue("employee_id"),
		FullName:   r.PostFormValue("full_name"),
		Email:      r.PostFormValue("email"),
		Department: r.PostFormValue("department"),
	})
	if err != nil && !pages.IsValidation(err) {
		log.Printf("create employee failed: %v", err)
	}
	http.Redirect(w, r, "/employees", http.StatusSeeOther)
}

func (s *server) employeeRoutes(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/employees/import":
		s.importEmployees(w, r)
	case r.URL.Path == "/employees/export.xlsx":
		s.exportEmployees(w, r)
	case r.URL.Path == "/employees/delete/confirm":
		s.confirmDelete(w, r)
	case r.URL.Path == "/employees/delete/cancel":
		s.cancelDelete(w, r)
	default:
		id, ok := parseEmployeeDeletePath(r.URL.Path)
		if !ok {
			http.NotFound(w, r)
			return
		}
		s.requestDelete(w, r, id)
	}
}

func (s *server) importEmployees(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ws := s.workspaces.forRequest(w, r)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Redirect(w, r, "/employees?error=Invalid+upload", http.StatusSeeOther)
		return
	}
	file, header, err := r.FormFile("roster_file")
	if err != nil {
		http.Redirect(w, r, "/employees?error=A+spreadsheet+file+is+required", http.StatusSeeOther)
		return
	}
	defer file.Close()

	rows, err := sheets.ReadRows(file, header.Filename)
	if err != nil {
		http.Redirect(w, r, withQuery("/employees", "error", "Unable to read spreadsheet: "+err.Error()), http.StatusSeeOther)
		return
	}
	parsed, err := sheets.ParseEmployees(rows)
	if err != nil {
		http.Redirect(w, r, withQuery("/employees", "error", err.Error()), http.StatusSeeOther)
		return
	}

	importRows := make([]pages.ImportRow, 0, len(parsed))
	for _, row := range parsed {
		importRows = append(importRows, pages.ImportRow{
			Line: row.Line,
			Form: pages.EmployeeForm{
				EmployeeID: row.EmployeeID,
				FullName:   row.FullName,
				Email:      row.Email,
				Department: row.Department,
			},
		})
	}
	result := ws.employees.Import(r.Context(), importRows)
	log.Printf("employee import %q: %d of %d created", header.Filename, result.Created, result.Total)
	http.Redirect(w, r, "/employees", http.StatusSeeOther)
}

func (s *server) exportEmployees(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	employees, err := s.api.ListEmployees(r.Context())
	if err != nil {
		log.Printf("employee export failed: %v", err)
		http.Redirect(w, r, "/employees?error=Failed+to+load+employees.", http.StatusSeeOther)
		return
	}
	var buf bytes.Buffer
	if err := sheets.WriteEmployees(&buf, employees); err != nil {
		http.Error(w, "unable to build export", http.StatusInternalServerError)
		log.Printf("employee workbook failed: %v", err)
		return
	}
	writeDownload(w, "employees.xlsx", buf.Bytes())
}

func (s *server) requestDelete(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ws := s.workspaces.forRequest(w, r)
	if err := ws.employees.RequestDelete(id); err != nil {
		http.Redirect(w, r, "/employees?error=That+employee+is+no+longer+listed.", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/employees", http.StatusSeeOther)
}

func (s *server) confirmDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ws := s.workspaces.forRequest(w, r)
	if err := ws.employees.ConfirmDelete(r.Context()); err != nil && !errors.Is(err, pages.ErrNoPendingDelete) {
		log.Printf("delete employee failed: %v", err)
	}
	http.Redirect(w, r, "/employees", http.StatusSeeOther)
}

func (s *server) cancelDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ws := s.workspaces.forRequest(w, r)
	ws.employees.CancelDelete()
	http.Redirect(w, r, "/employees", http.StatusSeeOther)
}

// attendancePage mounts the employee picker. The employee query parameter is
// the selection: a new value fetches its summary, an absent one clears the
// selection and the range.
func (s *server) attendancePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ws := s.workspaces.forRequest(w, r)
	query := r.URL.Query()

	id, ok := parseEmployeeQuery(query.Get("employee"))
	if !ok {
		http.Redirect(w, r, "/attendance?error=Unknown+employee", http.StatusSeeOther)
		return
	}

	if err := ws.attendance.Mount(r.Context()); err != nil {
		log.Printf("attendance employee list failed: %v", err)
	}
	page := ws.attendance
	switch {
	case id == 0:
		_ = page.Select(r.Context(), 0)
		_ = page.ClearFilter(r.Context())
	case id != page.Selected() || query.Get("retry") == "1":
		if err := page.Select(r.Context(), id); err != nil {
			log.Printf("attendance summary for %d failed: %v", id, err)
		}
	}

	data := s.basePageData(r, "Attendance", "attendance")
	data.Attendance = page.View()
	data.Selected = selectedEmployee(data.Attendance)
	if err := renderHTMLTemplate(w, s.attendanceTmpl, data); err != nil {
		http.Error(w, "template render failed", http.StatusInternalServerError)
		log.Printf("attendance template render failed: %v", err)
	}
}

func (s *server) attendanceRoutes(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/attendance/mark":
		s.markAttendance(w, r)
		return
	case "/attendance/filter":
		s.filterAttendance(w, r)
		return
	}
	if id, ok := parseAttendanceExportPath(r.URL.Path); ok {
		s.exportAttendance(w, r, id)
		return
	}
	if id, ok := parseAttendanceHeatmapPath(r.URL.Path); ok {
		s.attendanceHeatmap(w, r, id)
		return
	}
	http.NotFound(w, r)
}

func (s *server) markAttendance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/attendance?error=Invalid+form+submission", http.StatusSeeOther)
		return
	}
	ws := s.workspaces.forRequest(w, r)
	err := ws.attendance.Mark(r.Context(), pages.MarkForm{
		Date:   r.PostFormValue("date"),
		Status: r.PostFormValue("status"),
	})
	if err != nil && !pages.IsValidation(err) {
		log.Printf("mark attendance failed: %v", err)
	}
	http.Redirect(w, r, attendanceLocation(ws.attendance.Selected()), http.StatusSeeOther)
}

func (s *server) filterAttendance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/attendance?error=Invalid+form+submission", http.StatusSeeOther)
		return
	}
	ws := s.workspaces.forRequest(w, r)
	page := ws.attendance

	var err error
	switch r.PostFormValue("action") {
	case "clear":
		err = page.ClearFilter(r.Context())
	default:
		page.SetRange(r.PostFormValue("date_from"), r.PostFormValue("date_to"))
		err = page.ApplyFilter(r.Context())
	}
	if err != nil && !pages.IsValidation(err) {
		log.Printf("attendance filter failed: %v", err)
	}
	http.Redirect(w, r, attendanceLocation(page.Selected()), http.StatusSeeOther)
}

func (s *server) exportAttendance(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ws := s.workspaces.forRequest(w, r)
	summary, err := s.api.GetAttendance(r.Context(), id, ws.attendance.AppliedRange())
	if err != nil {
		log.Printf("attendance export for %d failed: %v", id, err)
		http.Redirect(w, r, withQuery(attendanceLocation(id), "error", "Failed to load attendance."), http.StatusSeeOther)
		return
	}
	var buf bytes.Buffer
	if err := sheets.WriteAttendance(&buf, summary); err != nil {
		http.Error(w, "unable to build export", http.StatusInternalServerError)
		log.Printf("attendance workbook failed: %v", err)
		return
	}
	writeDownload(w, fmt.Sprintf("attendance-%d.xlsx", id), buf.Bytes())
}

func (s *server) attendanceHeatmap(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ws := s.workspaces.forRequest(w, r)
	summary, err := s.api.GetAttendance(r.Context(), id, ws.attendance.AppliedRange())
	if err != nil {
		http.Error(w, "unable to load attendance", http.StatusBadGateway)
		log.Printf("attendance heatmap for %d failed: %v", id, err)
		return
	}
	var buf bytes.Buffer
	if err := heatmap.Encode(&buf, heatmap.Render(summary.Records, heatmap.DefaultCell, s.workspaces.clock.Now())); err != nil {
		http.Error(w, "unable to draw heatmap", http.StatusInternalServerError)
		log.Printf("attendance heatmap encode failed: %v", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

func writeDownload(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}
