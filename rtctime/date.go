// Package rtctime provides the Date value used by the DS1302 driver: a two-digit-year calendar date and time of day,
// or a bare time of day, with ordering, second offsets, weekday derivation and the BCD codec used on the wire.
//
// Date arithmetic deliberately uses a fixed 365 day year with a 28 day February. The weekday on the other hand is
// computed with the Gregorian congruence, so dates reached by arithmetic across a leap day disagree with a real
// calendar by one day per leap year crossed.
package rtctime

import (
	"time"
)

// Epoch is the year represented by a year offset of zero.
const Epoch = 2000

// Date is a point in time as stored by the clock chip. The zero value is midnight of a month 0, day 0 in 2000, which
// is what the driver holds before its first read.
type Date struct {
	year    int // offset from Epoch
	month   int
	day     int
	hour    int
	minute  int
	second  int
	weekday int
	// timeOnly marks a bare time of day; year, month, day and weekday are not meaningful.
	timeOnly bool
}

// New returns a full date and time. year is the full year, for example 2024.
func New(year, month, day, hour, minute, second int) Date {
	d := Date{
		year:   year - Epoch,
		month:  month,
		day:    day,
		hour:   hour,
		minute: minute,
		second: second,
	}
	d.weekday = weekdayOf(d.year, d.month, d.day)
	return d
}

// NewTime returns a time-only value.
func NewTime(hour, minute, second int) Date {
	return Date{
		hour:     hour,
		minute:   minute,
		second:   second,
		timeOnly: true,
	}
}

// WithWeekday returns a full date using weekday as given instead of deriving it. This is how a value read back from
// the chip is built, since the weekday register is independent of the date registers.
func WithWeekday(yearOffset, month, day, weekday, hour, minute, second int) Date {
	return Date{
		year:    yearOffset,
		month:   month,
		day:     day,
		hour:    hour,
		minute:  minute,
		second:  second,
		weekday: weekday,
	}
}

// FromTime converts t, in UTC, to a full Date.
func FromTime(t time.Time) Date {
	t = t.UTC()
	return New(t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
}

// Time converts d to a UTC time.Time. A time-only value lands on January 1st of year 0.
func (d Date) Time() time.Time {
	if d.timeOnly {
		return time.Date(0, time.January, 1, d.hour, d.minute, d.second, 0, time.UTC)
	}
	return time.Date(d.Year(), time.Month(d.month), d.day, d.hour, d.minute, d.second, 0, time.UTC)
}

// Year returns the full year.
func (d Date) Year() int { return d.year + Epoch }

// YearOffset returns the year relative to Epoch, which is what the chip stores.
func (d Date) YearOffset() int { return d.year }

func (d Date) Month() int  { return d.month }
func (d Date) Day() int    { return d.day }
func (d Date) Hour() int   { return d.hour }
func (d Date) Minute() int { return d.minute }
func (d Date) Second() int { return d.second }

// Weekday returns the day of the week, 0 being Sunday.
func (d Date) Weekday() int { return d.weekday }

// TimeOnly reports whether d only holds a time of day.
func (d Date) TimeOnly() bool { return d.timeOnly }

// Equal reports whether d and o hold the same time of day and, unless either of them is time-only, the same date.
// The weekday is not compared.
func (d Date) Equal(o Date) bool {
	if !d.timeOnly && !o.timeOnly {
		if d.year != o.year || d.month != o.month || d.day != o.day {
			return false
		}
	}
	return d.hour == o.hour && d.minute == o.minute && d.second == o.second
}

// Compare orders d and o by year, month, day, hour, minute and second, returning -1, 0 or +1. Unlike Equal it does not
// special case time-only values: their date fields are zero, so they sort before any full date in or after 2000.
func (d Date) Compare(o Date) int {
	a := [...]int{d.year, d.month, d.day, d.hour, d.minute, d.second}
	b := [...]int{o.year, o.month, o.day, o.hour, o.minute, o.second}
	for i := range a {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return +1
		}
	}
	return 0
}

// Before reports whether d sorts before o. See Compare.
func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }

// After reports whether d sorts after o. See Compare.
func (d Date) After(o Date) bool { return d.Compare(o) > 0 }
