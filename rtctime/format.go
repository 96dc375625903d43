package rtctime

import (
	"strconv"
	"strings"
)

var weekdayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// WeekdayName returns the English name of the weekday, for example "Saturday".
func (d Date) WeekdayName() string {
	if d.weekday < 0 || d.weekday >= len(weekdayNames) {
		return "%!Weekday(" + strconv.Itoa(d.weekday) + ")"
	}
	return weekdayNames[d.weekday]
}

// String renders d as "d. m. yyyy at h:m:s(Weekday)", or "h:m:s(Weekday)" for a time-only value. Fields are not zero
// padded.
func (d Date) String() string {
	var b strings.Builder
	if !d.timeOnly {
		b.WriteString(strconv.Itoa(d.day))
		b.WriteString(". ")
		b.WriteString(strconv.Itoa(d.month))
		b.WriteString(". ")
		b.WriteString(strconv.Itoa(d.Year()))
		b.WriteString(" at ")
	}
	b.WriteString(strconv.Itoa(d.hour))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(d.minute))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(d.second))
	b.WriteByte('(')
	b.WriteString(d.WeekdayName())
	b.WriteByte(')')
	return b.String()
}
