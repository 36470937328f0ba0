package timeutil

import "time"

// IST is Indian Standard Time (UTC+5:30); deposits and repayments are stamped in it
var IST *time.Location

func init() {
	var err error
	IST, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		IST = time.FixedZone("IST", 5*60*60+30*60)
	}
}

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
	DisplayLayout  = "02 Jan 2006"
	ReceiptLayout  = "20060102150405"
)

// Now returns the current time in IST
func Now() time.Time {
	return time.Now().In(IST)
}

// ParseDate parses YYYY-MM-DD as midnight IST
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, IST)
}

// StartOfDay returns 00:00:00 IST of t's day
func StartOfDay(t time.Time) time.Time {
	ist := t.In(IST)
	return time.Date(ist.Year(), ist.Month(), ist.Day(), 0, 0, 0, 0, IST)
}

// EndOfDay returns the last nanosecond of t's day in IST
func EndOfDay(t time.Time) time.Time {
	ist := t.In(IST)
	return time.Date(ist.Year(), ist.Month(), ist.Day(), 23, 59, 59, 999999999, IST)
}

// MonthRange returns the first and last instant of a calendar month in IST
func MonthRange(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, IST)
	return start, start.AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// Format renders t in IST
func Format(t time.Time, layout string) string {
	return t.In(IST).Format(layout)
}
