package clientapp

import (
	"net/url"
	"strconv"
	"strings"
)

func parseEmployeeDeletePath(path string) (int64, bool) {
	return parseIDActionPath(path, "/employees/", "delete")
}

func parseAttendanceExportPath(path string) (int64, bool) {
	return parseIDActionPath(path, "/attendance/", "export.xlsx")
}

func parseAttendanceHeatmapPath(path string) (int64, bool) {
	return parseIDActionPath(path, "/attendance/", "heatmap.png")
}

// parseIDActionPath matches <prefix><id>/<action> with a positive id.
func parseIDActionPath(path, prefix, action string) (int64, bool) {
	trimmed := strings.TrimPrefix(path, prefix)
	if trimmed == path {
		return 0, false
	}
	trimmed = strings.Trim(trimmed, "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) != 2 || parts[1] != action {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func parseEmployeeQuery(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

func attendanceLocation(selected int64) string {
	if selected <= 0 {
		return "/attendance"
	}
	return "/attendance?employee=" + strconv.FormatInt(selected, 10)
}

func withQuery(path, key, value string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + key + "=" + url.QueryEscape(value)
}
