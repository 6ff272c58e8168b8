package hrmcli

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/phillip-england/hrmlite/internal/apiapp"
	"github.com/phillip-england/hrmlite/internal/clientapp"
	"github.com/phillip-england/hrmlite/internal/envutil"
	"github.com/phillip-england/hrmlite/internal/hrmapi"
	"github.com/phillip-england/hrmlite/internal/pages"
	"github.com/phillip-england/hrmlite/internal/sheets"
	"github.com/phillip-england/hrmlite/internal/viewstate"
	"golang.org/x/sync/errgroup"
)

var ErrUsage = errors.New("usage")

func Execute(args []string) error {
	return execute(args, os.Stdout)
}

func PrintUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: hrmlite setup [--env-file .env] [--api-base-url URL] [--force]")
	fmt.Fprintln(w, "       hrmlite run api|client|all")
	fmt.Fprintln(w, "       hrmlite import --file roster.xlsx [--api-base-url URL]")
	fmt.Fprintln(w, "       hrmlite export employees --out employees.xlsx [--api-base-url URL]")
	fmt.Fprintln(w, "       hrmlite export attendance --employee N --out attendance.xlsx [--from YYYY-MM-DD] [--to YYYY-MM-DD]")
}

func execute(args []string, stdout io.Writer) error {
	if len(args) < 1 {
		return usageError()
	}

	switch args[0] {
	case "setup":
		return runSetup(args[1:], stdout)
	case "run":
		return runCommand(args[1:])
	case "import":
		return runImport(args[1:], stdout)
	case "export":
		return runExport(args[1:], stdout)
	default:
		return usageError()
	}
}

func usageError() error {
	return fmt.Errorf("%w: hrmlite <setup|run|import|export> [...]", ErrUsage)
}

func runSetup(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("setup", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	envPath := fs.String("env-file", ".env", "path to .env file")
	apiBase := fs.String("api-base-url", hrmapi.DefaultBaseURL, "HRM API base URL")
	force := fs.Bool("force", false, "overwrite existing env file")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	values := map[string]string{
		"API_BASE_URL":   strings.TrimRight(*apiBase, "/"),
		"API_ADDR":       ":8000",
		"CLIENT_ADDR":    ":3000",
		"SESSION_TTL":    "30m",
		"SECURE_COOKIES": "false",
	}
	if err := envutil.WriteDotEnv(*envPath, values, *force); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s\n", *envPath)
	return nil
}

func runCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: missing run target: api | client | all", ErrUsage)
	}

	if err := envutil.LoadDotEnv(".env"); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch args[0] {
	case "api":
		return runAPI(ctx)
	case "client":
		return runClient(ctx)
	case "all":
		return runAll(ctx)
	default:
		return fmt.Errorf("%w: unknown run target %q", ErrUsage, args[0])
	}
}

func runAPI(ctx context.Context) error {
	if err := apiapp.Run(ctx, apiapp.DefaultConfigFromEnv()); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runClient(ctx context.Context) error {
	if err := clientapp.Run(ctx, clientapp.DefaultConfigFromEnv()); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// runAll serves the development API and the client together. Either one
// failing stops the other.
func runAll(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return runAPI(gctx) })
	g.Go(func() error { return runClient(gctx) })
	return g.Wait()
}

func runImport(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	path := fs.String("file", "", "spreadsheet to import (.xlsx or .xls)")
	apiBase := fs.String("api-base-url", "", "HRM API base URL (defaults to API_BASE_URL)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if *path == "" {
		return fmt.Errorf("%w: --file is required", ErrUsage)
	}

	f, err := os.Open(*path)
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := sheets.ReadRows(f, filepath.Base(*path))
	if err != nil {
		return fmt.Errorf("read %s: %w", *path, err)
	}
	parsed, err := sheets.ParseEmployees(rows)
	if err != nil {
		return fmt.Errorf("read %s: %w", *path, err)
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

	page := pages.NewEmployeesPage(newAPIClient(*apiBase), viewstate.SystemClock)
	defer page.Close()
	result := page.Import(context.Background(), importRows)

	fmt.Fprintf(stdout, "imported %d of %d employees\n", result.Created, result.Total)
	for _, rowErr := range result.Errors {
		fmt.Fprintf(stdout, "  row %d: %s\n", rowErr.Row, rowErr.Message)
	}
	if result.Created == 0 && len(result.Errors) > 0 {
		return errors.New("no employees were imported")
	}
	return nil
}

func runExport(args []string, stdout io.Writer) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: missing export target: employees | attendance", ErrUsage)
	}
	target := args[0]

	fs := flag.NewFlagSet("export "+target, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	out := fs.String("out", "", "output .xlsx path")
	apiBase := fs.String("api-base-url", "", "HRM API base URL (defaults to API_BASE_URL)")
	employee := fs.Int64("employee", 0, "employee record id (attendance only)")
	from := fs.String("from", "", "first date, YYYY-MM-DD (attendance only)")
	to := fs.String("to", "", "last date, YYYY-MM-DD (attendance only)")
	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if *out == "" {
		return fmt.Errorf("%w: --out is required", ErrUsage)
	}

	api := newAPIClient(*apiBase)
	ctx := context.Background()
	var buf bytes.Buffer
	switch target {
	case "employees":
		employees, err := api.ListEmployees(ctx)
		if err != nil {
			return fmt.Errorf("list employees: %w", err)
		}
		if err := sheets.WriteEmployees(&buf, employees); err != nil {
			return err
		}
	case "attendance":
		if *employee <= 0 {
			return fmt.Errorf("%w: --employee is required", ErrUsage)
		}
		summary, err := api.GetAttendance(ctx, *employee, hrmapi.DateRange{From: *from, To: *to})
		if err != nil {
			return fmt.Errorf("load attendance: %w", err)
		}
		if err := sheets.WriteAttendance(&buf, summary); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown export target %q", ErrUsage, target)
	}

	if err := os.WriteFile(*out, buf.Bytes(), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s\n", *out)
	return nil
}

func newAPIClient(baseURL string) *hrmapi.Client {
	if baseURL == "" {
		_ = envutil.LoadDotEnv(".env")
		baseURL = os.Getenv("API_BASE_URL")
	}
	return hrmapi.New(baseURL, nil)
}
