package sheetmap

import (
	"fmt"
	"math"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	secondsPerDay = 86400
	// first serial after the phantom 1900-02-29
	leapBugSerial = 61
	maxSerial     = 2958465.99999 // 9999-12-31 23:59:59
)

var (
	serialEpoch      = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
	serialEpochEarly = time.Date(1899, time.December, 31, 0, 0, 0, 0, time.UTC)
	serialEpoch1904  = time.Date(1904, time.January, 1, 0, 0, 0, 0, time.UTC)
	firstSerialDay   = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)
	leapBugCutover   = time.Date(1900, time.March, 1, 0, 0, 0, 0, time.UTC)
)

// TimeToSerial converts the wall clock of t into a 1900-system date serial.
// Dates before 1900-03-01 are shifted by one day to account for the phantom
// 1900-02-29. ok is false for times before 1900-01-01.
func TimeToSerial(t time.Time) (serial float64, ok bool) {
	wall := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	if wall.Before(firstSerialDay) {
		return 0, false
	}
	epoch := serialEpoch
	if wall.Before(leapBugCutover) {
		epoch = serialEpochEarly
	}
	d := wall.Sub(epoch)
	return d.Hours() / 24, true
}

// SerialToTime converts a date serial into a UTC time, rounded to the
// second. date1904 selects the 1904 date system.
func SerialToTime(serial float64, date1904 bool) (time.Time, error) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) || serial < 0 || serial > maxSerial {
		return time.Time{}, fmt.Errorf("date serial %v out of range", serial)
	}
	days := math.Floor(serial)
	if days > leapBugSerial {
		return excelize.ExcelDateToTime(serial, date1904)
	}

	// excelize reads serials up to 61 as Julian days counted from
	// 1899-12-30, one day off from the 1900 system before March.
	epoch := serialEpoch
	switch {
	case date1904:
		epoch = serialEpoch1904
	case days < leapBugSerial:
		epoch = serialEpochEarly
	}
	secs := math.Round((serial - days) * secondsPerDay)
	return epoch.AddDate(0, 0, int(days)).Add(time.Duration(secs) * time.Second), nil
}
