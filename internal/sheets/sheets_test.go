package sheets

import (
	"bytes"
	"strings"
	"testing"

	"github.com/phillip-england/hrmlite/internal/hrmapi"
	"github.com/xuri/excelize/v2"
)

func workbookBytes(t *testing.T, sheets map[string][][]any) []byte {
	t.Helper()
	file := excelize.NewFile()
	defer func() { _ = file.Close() }()

	first := true
	for name, rows := range sheets {
		if first {
			if err := file.SetSheetName(file.GetSheetName(0), name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
			first = false
		} else if _, err := file.NewSheet(name); err != nil {
			t.Fatalf("new sheet: %v", err)
		}
		if err := writeRows(file, name, rows); err != nil {
			t.Fatalf("write rows: %v", err)
		}
	}
	var buf bytes.Buffer
	if _, err := file.WriteTo(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestReadAndParseEmployeeRoster(t *testing.T) {
	data := workbookBytes(t, map[string][][]any{
		"Roster": {
			{"Full Name", " Employee ID ", "EMAIL", "Department"},
			{"Ada Lovelace", "E-1", "ada@example.com", "Engineering"},
			{},
			{"Grace Hopper", "E-2", "grace@example.com", "Navy"},
		},
	})

	rows, err := ReadRows(bytes.NewReader(data), "roster.xlsx")
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	employees, err := ParseEmployees(rows)
	if err != nil {
		t.Fatalf("parse employees: %v", err)
	}
	if len(employees) != 2 {
		t.Fatalf("expected 2 employees, got %d", len(employees))
	}
	if employees[0] != (EmployeeRow{Line: 2, EmployeeID: "E-1", FullName: "Ada Lovelace", Email: "ada@example.com", Department: "Engineering"}) {
		t.Fatalf("unexpected first row %+v", employees[0])
	}
	if employees[1].Line != 4 || employees[1].EmployeeID != "E-2" {
		t.Fatalf("unexpected second row %+v", employees[1])
	}
}

func TestParseEmployeesRequiresColumns(t *testing.T) {
	_, err := ParseEmployees([][]string{{"Name", "Email", "Department"}, {"Ada", "ada@example.com", "Eng"}})
	if err == nil || !strings.Contains(err.Error(), "employee id") {
		t.Fatalf("expected missing employee id column error, got %v", err)
	}
	if _, err := ParseEmployees([][]string{{"Employee ID", "Name", "Email", "Department"}}); err == nil {
		t.Fatalf("expected error for header-only sheet")
	}
}

func TestReadRowsRejectsMultipleSheets(t *testing.T) {
	data := workbookBytes(t, map[string][][]any{
		"One": {{"Employee ID"}},
		"Two": {{"Employee ID"}},
	})
	if _, err := ReadRows(bytes.NewReader(data), "roster.xlsx"); err == nil || !strings.Contains(err.Error(), "multiple worksheets") {
		t.Fatalf("expected multiple worksheet error, got %v", err)
	}
}

func TestReadRowsRejectsGarbage(t *testing.T) {
	if _, err := ReadRows(strings.NewReader("not a spreadsheet"), "roster.xlsx"); err == nil {
		t.Fatalf("expected error for invalid xlsx")
	}
}

func TestWriteAttendanceWorkbook(t *testing.T) {
	summary := hrmapi.AttendanceSummary{
		Employee:     hrmapi.Employee{ID: 7, EmployeeID: "E-7", FullName: "Ada Lovelace"},
		TotalPresent: 1,
		TotalAbsent:  1,
		Records: []hrmapi.AttendanceRecord{
			{ID: 2, EmployeeID: 7, Date: "2024-05-02", Status: hrmapi.StatusAbsent},
			{ID: 1, EmployeeID: 7, Date: "2024-05-01", Status: hrmapi.StatusPresent},
		},
	}
	var buf bytes.Buffer
	if err := WriteAttendance(&buf, summary); err != nil {
		t.Fatalf("write attendance: %v", err)
	}

	file, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer func() { _ = file.Close() }()

	checks := map[string]string{
		"B1": "Ada Lovelace",
		"B3": "1",
		"B4": "1",
		"A6": "Date",
		"A7": "2024-05-02",
		"B7": "Absent",
		"B8": "Present",
	}
	for cell, want := range checks {
		got, err := file.GetCellValue("Attendance", cell)
		if err != nil {
			t.Fatalf("read %s: %v", cell, err)
		}
		if got != want {
			t.Fatalf("cell %s: expected %q, got %q", cell, want, got)
		}
	}
}

func TestWriteEmployeesRoundTripsThroughImport(t *testing.T) {
	var buf bytes.Buffer
	err := WriteEmployees(&buf, []hrmapi.Employee{
		{ID: 1, EmployeeID: "E-1", FullName: "Ada Lovelace", Email: "ada@example.com", Department: "Engineering", CreatedAt: "2024-05-01T09:00:00"},
	})
	if err != nil {
		t.Fatalf("write employees: %v", err)
	}

	rows, err := ReadRows(&buf, "employees.xlsx")
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	parsed, err := ParseEmployees(rows)
	if err != nil {
		t.Fatalf("parse export: %v", err)
	}
	if len(parsed) != 1 || parsed[0].Email != "ada@example.com" || parsed[0].Department != "Engineering" {
		t.Fatalf("unexpected parsed export %+v", parsed)
	}
}
