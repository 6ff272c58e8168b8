// Package sheets reads employee rosters from spreadsheets and writes
// employee and attendance exports as xlsx workbooks.
package sheets

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/phillip-england/hrmlite/internal/hrmapi"
	"github.com/xuri/excelize/v2"
)

const maxRows = 100000

type EmployeeRow struct {
	Line       int
	EmployeeID string
	FullName   string
	Email      string
	Department string
}

func ReadRows(reader io.Reader, filename string) ([][]string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".xls":
		workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
		if err != nil {
			return nil, err
		}
		if workbook.NumSheets() == 0 {
			return nil, fmt.Errorf("no worksheet found")
		}
		if workbook.NumSheets() > 1 {
			return nil, fmt.Errorf("multiple worksheets found; please upload a file with a single sheet")
		}
		rows := workbook.ReadAllCells(maxRows)
		if len(rows) == 0 {
			return nil, fmt.Errorf("worksheet is empty")
		}
		return rows, nil
	default:
		file, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer func() { _ = file.Close() }()

		if file.SheetCount > 1 {
			return nil, fmt.Errorf("multiple worksheets found; please upload a file with a single sheet")
		}
		sheetName := file.GetSheetName(0)
		if sheetName == "" {
			return nil, fmt.Errorf("no worksheet found")
		}

		rows, err := file.GetRows(sheetName)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, fmt.Errorf("worksheet is empty")
		}
		return rows, nil
	}
}

// ParseEmployees maps a header row plus data rows onto employee fields.
// Blank rows are skipped; Line is the 1-based sheet row.
func ParseEmployees(rows [][]string) ([]EmployeeRow, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("worksheet is empty")
	}

	headerIndex := map[string]int{}
	for i, header := range rows[0] {
		key := normalizeHeader(header)
		if _, exists := headerIndex[key]; !exists {
			headerIndex[key] = i
		}
	}
	column := func(names ...string) (int, error) {
		for _, name := range names {
			if idx, ok := headerIndex[name]; ok {
				return idx, nil
			}
		}
		return -1, fmt.Errorf("missing required column: %s", names[0])
	}

	idIdx, err := column("employee id", "employee_id", "id")
	if err != nil {
		return nil, err
	}
	nameIdx, err := column("full name", "full_name", "name", "employee name")
	if err != nil {
		return nil, err
	}
	emailIdx, err := column("email", "email address")
	if err != nil {
		return nil, err
	}
	deptIdx, err := column("department", "dept")
	if err != nil {
		return nil, err
	}

	var out []EmployeeRow
	for i, row := range rows[1:] {
		employee := EmployeeRow{
			Line:       i + 2,
			EmployeeID: cellValue(row, idIdx),
			FullName:   cellValue(row, nameIdx),
			Email:      cellValue(row, emailIdx),
			Department: cellValue(row, deptIdx),
		}
		if employee.EmployeeID == "" && employee.FullName == "" && employee.Email == "" && employee.Department == "" {
			continue
		}
		out = append(out, employee)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no employee rows found")
	}
	return out, nil
}

func WriteEmployees(w io.Writer, employees []hrmapi.Employee) error {
	file := excelize.NewFile()
	defer func() { _ = file.Close() }()

	const sheet = "Employees"
	if err := file.SetSheetName(file.GetSheetName(0), sheet); err != nil {
		return err
	}
	rows := [][]any{{"Employee ID", "Full Name", "Email", "Department", "Created"}}
	for _, emp := range employees {
		rows = append(rows, []any{emp.EmployeeID, emp.FullName, emp.Email, emp.Department, emp.CreatedAt})
	}
	if err := writeRows(file, sheet, rows); err != nil {
		return err
	}
	_ = file.SetColWidth(sheet, "A", "E", 22)
	_, err := file.WriteTo(w)
	return err
}

func WriteAttendance(w io.Writer, summary hrmapi.AttendanceSummary) error {
	file := excelize.NewFile()
	defer func() { _ = file.Close() }()

	const sheet = "Attendance"
	if err := file.SetSheetName(file.GetSheetName(0), sheet); err != nil {
		return err
	}
	rows := [][]any{
		{"Employee", summary.Employee.FullName},
		{"Employee ID", summary.Employee.EmployeeID},
		{"Total Present", summary.TotalPresent},
		{"Total Absent", summary.TotalAbsent},
		{},
		{"Date", "Status"},
	}
	for _, rec := range summary.Records {
		rows = append(rows, []any{rec.Date, rec.Status})
	}
	if err := writeRows(file, sheet, rows); err != nil {
		return err
	}
	_ = file.SetColWidth(sheet, "A", "B", 18)
	_, err := file.WriteTo(w)
	return err
}

func writeRows(file *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := row
		if err := file.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	return nil
}

func normalizeHeader(header string) string {
	return strings.ToLower(strings.TrimSpace(header))
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
