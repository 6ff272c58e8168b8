// Package apiapp serves an in-memory HRM API for local runs and tests. It
// speaks the same JSON contract the client package expects from the real
// backend.
package apiapp

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/phillip-england/hrmlite/internal/hrmapi"
	"github.com/phillip-england/hrmlite/internal/middleware"
)

const recentLimit = 10

type Config struct {
	Addr string
	// Now drives created_at stamps and the dashboard's notion of today.
	Now func() time.Time
}

type server struct {
	store    *memoryStore
	validate *validator.Validate
}

type employeeRequest struct {
	EmployeeID string `json:"employee_id" validate:"required,max=50"`
	FullName   string `json:"full_name" validate:"required,max=150"`
	Email      string `json:"email" validate:"required,email"`
	Department string `json:"department" validate:"required,max=100"`
}

type markRequest struct {
	EmployeeID int64  `json:"employee_id" validate:"required"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	Status     string `json:"status" validate:"required,oneof=Present Absent"`
}

type validationDetail struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func DefaultConfigFromEnv() Config {
	return Config{
		Addr: envOrDefault("API_ADDR", ":8000"),
	}
}

func NewHandler(cfg Config) http.Handler {
	s := &server{
		store:    newMemoryStore(cfg.Now),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}

	mux := http.NewServeMux()
	mux.Handle("/", http.HandlerFunc(s.root))
	mux.Handle("/api/employees/", http.HandlerFunc(s.employeesHandler))
	mux.Handle("/api/attendance/", http.HandlerFunc(s.attendanceHandler))
	mux.Handle("/api/dashboard/", http.HandlerFunc(s.dashboardHandler))

	return middleware.Chain(
		mux,
		middleware.Recover,
		middleware.RequestLog("api"),
	)
}

func Run(ctx context.Context, cfg Config) error {
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewHandler(cfg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("api listening on http://localhost%s", cfg.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *server) root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "HRM Lite API is running"})
}

func (s *server) employeesHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/employees/"), "/")
	if rest == "" {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, s.store.listEmployees())
		case http.MethodPost:
			s.createEmployee(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		}
		return
	}

	id, ok := parseEmployeeID(w, rest)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		emp, err := s.store.getEmployee(id)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, emp)
	case http.MethodDelete:
		if err := s.store.deleteEmployee(id); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	}
}

func (s *server) createEmployee(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	emp, err := s.store.createEmployee(hrmapi.EmployeeInput{
		EmployeeID: req.EmployeeID,
		FullName:   req.FullName,
		Email:      req.Email,
		Department: req.Department,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, emp)
}

func (s *server) attendanceHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/attendance/"), "/")
	switch {
	case rest == "" && r.Method == http.MethodPost:
		s.markAttendance(w, r)
	case rest == "recent" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, s.store.recent(recentLimit))
	case rest != "" && rest != "recent" && r.Method == http.MethodGet:
		id, ok := parseEmployeeID(w, rest)
		if !ok {
			return
		}
		s.attendanceSummary(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	}
}

func (s *server) markAttendance(w http.ResponseWriter, r *http.Request) {
	var req markRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	rec, err := s.store.markAttendance(hrmapi.MarkInput{EmployeeID: req.EmployeeID, Date: req.Date, Status: req.Status})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *server) attendanceSummary(w http.ResponseWriter, r *http.Request, id int64) {
	query := r.URL.Query()
	dates := hrmapi.DateRange{
		From: strings.TrimSpace(query.Get("date_from")),
		To:   strings.TrimSpace(query.Get("date_to")),
	}
	var details []validationDetail
	for name, value := range map[string]string{"date_from": dates.From, "date_to": dates.To} {
		if value == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", value); err != nil {
			details = append(details, validationDetail{
				Loc:  []string{"query", name},
				Msg:  "Input should be a valid date",
				Type: "date_parsing",
			})
		}
	}
	if len(details) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": details})
		return
	}

	summary, err := s.store.summary(id, dates)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *server) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	if strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/dashboard/"), "/") != "" {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.store.dashboard())
}

// decodeAndValidate writes a 422 with a list of field details when the body
// is malformed or fails validation.
func (s *server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": []validationDetail{{
			Loc:  []string{"body"},
			Msg:  "Invalid JSON body",
			Type: "json_invalid",
		}}})
		return false
	}
	trimStrings(dst)

	err := s.validate.Struct(dst)
	if err == nil {
		return true
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return false
	}
	details := make([]validationDetail, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, validationDetail{
			Loc:  []string{"body", jsonFieldName(fe.Field())},
			Msg:  validationMessage(fe),
			Type: fe.Tag(),
		})
	}
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": details})
	return false
}

func trimStrings(dst any) {
	switch req := dst.(type) {
	case *employeeRequest:
		req.EmployeeID = strings.TrimSpace(req.EmployeeID)
		req.FullName = strings.TrimSpace(req.FullName)
		req.Email = strings.TrimSpace(req.Email)
		req.Department = strings.TrimSpace(req.Department)
	case *markRequest:
		req.Date = strings.TrimSpace(req.Date)
		req.Status = strings.TrimSpace(req.Status)
	}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Field required"
	case "email":
		return "value is not a valid email address"
	case "datetime":
		return "Input should be a valid date"
	case "oneof":
		return "Input should be 'Present' or 'Absent'"
	case "max":
		return "String should have at most " + fe.Param() + " characters"
	default:
		return "Invalid value"
	}
}

func jsonFieldName(field string) string {
	switch field {
	case "EmployeeID":
		return "employee_id"
	case "FullName":
		return "full_name"
	case "Email":
		return "email"
	case "Department":
		return "department"
	case "Date":
		return "date"
	case "Status":
		return "status"
	default:
		return strings.ToLower(field)
	}
}

func parseEmployeeID(w http.ResponseWriter, raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || strings.Contains(raw, "/") {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": []validationDetail{{
			Loc:  []string{"path", "employee_id"},
			Msg:  "Input should be a valid integer",
			Type: "int_parsing",
		}}})
		return 0, false
	}
	return id, true
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errNotFound):
		writeError(w, http.StatusNotFound, "Employee not found.")
	case errors.Is(err, errConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		log.Printf("api store failure: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

func envOrDefault(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"detail": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
