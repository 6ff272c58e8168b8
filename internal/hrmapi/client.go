// Package hrmapi is a typed client for the HRM JSON API. Every method issues
// exactly one request; there are no retries, timeouts or caches beyond what
// the caller's context imposes.
package hrmapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const DefaultBaseURL = "http://localhost:8000"

// APIError is a non-2xx answer from the API. Detail holds the server's
// human readable message when one was supplied.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api status %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("api status %d", e.StatusCode)
}

func (e *APIError) UserMessage() string {
	return strings.TrimSpace(e.Detail)
}

// Message returns the server supplied detail carried by err, or fallback.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if msg := apiErr.UserMessage(); msg != "" {
			return msg
		}
	}
	return fallback
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: httpClient,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) ListEmployees(ctx context.Context) ([]Employee, error) {
	var payload []Employee
	if err := c.do(ctx, http.MethodGet, "/api/employees/", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (c *Client) CreateEmployee(ctx context.Context, input EmployeeInput) (Employee, error) {
	var payload Employee
	if err := c.do(ctx, http.MethodPost, "/api/employees/", input, &payload); err != nil {
		return Employee{}, err
	}
	return payload, nil
}

func (c *Client) GetEmployee(ctx context.Context, id int64) (Employee, error) {
	var payload Employee
	if err := c.do(ctx, http.MethodGet, "/api/employees/"+strconv.FormatInt(id, 10), nil, &payload); err != nil {
		return Employee{}, err
	}
	return payload, nil
}

func (c *Client) DeleteEmployee(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/employees/"+strconv.FormatInt(id, 10), nil, nil)
}

func (c *Client) MarkAttendance(ctx context.Context, input MarkInput) (AttendanceRecord, error) {
	var payload AttendanceRecord
	if err := c.do(ctx, http.MethodPost, "/api/attendance/", input, &payload); err != nil {
		return AttendanceRecord{}, err
	}
	return payload, nil
}

func (c *Client) GetAttendance(ctx context.Context, employeeID int64, dates DateRange) (AttendanceSummary, error) {
	path := "/api/attendance/" + strconv.FormatInt(employeeID, 10)
	query := url.Values{}
	if from := strings.TrimSpace(dates.From); from != "" {
		query.Set("date_from", from)
	}
	if to := strings.TrimSpace(dates.To); to != "" {
		query.Set("date_to", to)
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	var payload AttendanceSummary
	if err := c.do(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return AttendanceSummary{}, err
	}
	return payload, nil
}

func (c *Client) RecentAttendance(ctx context.Context) ([]RecentAttendance, error) {
	var payload []RecentAttendance
	if err := c.do(ctx, http.MethodGet, "/api/attendance/recent", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (c *Client) GetDashboard(ctx context.Context) (Dashboard, error) {
	var payload Dashboard
	if err := c.do(ctx, http.MethodGet, "/api/dashboard/", nil, &payload); err != nil {
		return Dashboard{}, err
	}
	return payload, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(bodyBytes)
	}

	apiReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("prepare %s %s: %w", method, path, err)
	}
	apiReq.Header.Set("Content-Type", "application/json")
	apiReq.Header.Set("Accept", "application/json")

	apiResp, err := c.httpClient.Do(apiReq)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer apiResp.Body.Close()

	respBody, err := io.ReadAll(apiResp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}
	if apiResp.StatusCode < 200 || apiResp.StatusCode > 299 {
		return &APIError{StatusCode: apiResp.StatusCode, Detail: parseDetail(respBody)}
	}
	if out == nil || apiResp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// parseDetail reads the "detail" field of an error body. Validation
// failures send a list of {"msg": ...} objects instead of a string; the
// first message is used.
func parseDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(payload.Detail, &text); err == nil {
		return strings.TrimSpace(text)
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil {
		for _, item := range items {
			if msg := strings.TrimSpace(item.Msg); msg != "" {
				return msg
			}
		}
	}
	return ""
}
