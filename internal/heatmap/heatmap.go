// Package heatmap draws an attendance calendar: one column per week, one
// row per weekday, coloured by the status recorded on that day.
package heatmap

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"time"

	"github.com/phillip-england/hrmlite/internal/hrmapi"
	xdraw "golang.org/x/image/draw"
)

const (
	maxWeeks    = 53
	DefaultCell = 12
	dateLayout  = "2006-01-02"
)

var (
	colorEmpty   = color.RGBA{R: 0xe5, G: 0xe7, B: 0xeb, A: 0xff}
	colorPresent = color.RGBA{R: 0x16, G: 0xa3, B: 0x4a, A: 0xff}
	colorAbsent  = color.RGBA{R: 0xdc, G: 0x26, B: 0x26, A: 0xff}
)

// Render returns the calendar ending at the week of the latest record, or
// the week of today when there are none. Each day becomes a cell x cell
// square; records with unparseable dates are ignored.
func Render(records []hrmapi.AttendanceRecord, cell int, today time.Time) image.Image {
	if cell <= 0 {
		cell = DefaultCell
	}

	statuses := map[time.Time]string{}
	var earliest, latest time.Time
	for _, rec := range records {
		day, err := time.Parse(dateLayout, rec.Date)
		if err != nil {
			continue
		}
		statuses[day] = rec.Status
		if latest.IsZero() || day.After(latest) {
			latest = day
		}
		if earliest.IsZero() || day.Before(earliest) {
			earliest = day
		}
	}
	if latest.IsZero() {
		latest = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
		earliest = latest
	}

	// columns run Sunday..Saturday
	end := latest.AddDate(0, 0, int(time.Saturday-latest.Weekday()))
	start := earliest.AddDate(0, 0, -int(earliest.Weekday()))
	weeks := int(end.Sub(start).Hours()/24)/7 + 1
	if weeks > maxWeeks {
		weeks = maxWeeks
		start = end.AddDate(0, 0, -(maxWeeks*7 - 1))
	}

	grid := image.NewRGBA(image.Rect(0, 0, weeks, 7))
	for col := 0; col < weeks; col++ {
		for row := 0; row < 7; row++ {
			day := start.AddDate(0, 0, col*7+row)
			grid.SetRGBA(col, row, cellColor(statuses[day]))
		}
	}

	out := image.NewRGBA(image.Rect(0, 0, weeks*cell, 7*cell))
	xdraw.NearestNeighbor.Scale(out, out.Bounds(), grid, grid.Bounds(), xdraw.Src, nil)
	return out
}

func Encode(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

func cellColor(status string) color.RGBA {
	switch status {
	case hrmapi.StatusPresent:
		return colorPresent
	case hrmapi.StatusAbsent:
		return colorAbsent
	default:
		return colorEmpty
	}
}
