package rtctime

const (
	secondsPerMinute = 60
	secondsPerHour   = 60 * secondsPerMinute
	secondsPerDay    = 24 * secondsPerHour
	daysPerYear      = 365
)

// daysInMonth has no leap day.
var daysInMonth = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// Add returns d moved by the given number of seconds, which may be negative. Years are always 365 days and February
// always 28, so February 29th normalizes to March 1st and leap days are never produced. The result is a full date even
// when d is time-only, with its weekday recomputed. A time-only d counts from its zeroed date fields, which normalize
// to December 31st 1999: NewTime(10, 0, 0).Add(60) is 10:01 on that day.
//
// Any int is accepted without overflow; the year of the result is only bounded by the range of int.
func (d Date) Add(seconds int) Date {
	days := int64(d.year)*daysPerYear + int64(d.day-1)
	for m := 1; m < d.month && m <= len(daysInMonth); m++ {
		days += int64(daysInMonth[m-1])
	}
	clock := int64(d.hour)*secondsPerHour +
		int64(d.minute)*secondsPerMinute +
		int64(d.second)

	// whole days and the remainder are added apart so large values cannot overflow
	addDays, addSecs := floorDivMod(int64(seconds), secondsPerDay)
	carry, rem := floorDivMod(clock+addSecs, secondsPerDay)
	days += addDays + carry

	var out Date
	out.hour = int(rem / secondsPerHour)
	rem %= secondsPerHour
	out.minute = int(rem / secondsPerMinute)
	out.second = int(rem % secondsPerMinute)

	year, yday := floorDivMod(days, daysPerYear)
	out.year = int(year)

	month := 0
	for ; yday >= int64(daysInMonth[month]); month++ {
		yday -= int64(daysInMonth[month])
	}
	out.month = month + 1
	out.day = int(yday) + 1
	out.weekday = weekdayOf(out.year, out.month, out.day)
	return out
}

// Sub returns d moved back by the given number of seconds.
func (d Date) Sub(seconds int) Date {
	return d.Add(-seconds)
}

// floorDivMod divides rounding toward negative infinity, so the remainder is never negative.
func floorDivMod(a, b int64) (q, r int64) {
	q, r = a/b, a%b
	if r < 0 {
		q--
		r += b
	}
	return q, r
}

var weekdayOffsets = [12]int{0, 3, 2, 5, 0, 3, 5, 1, 4, 6, 2, 4}

// weekdayOf returns the Gregorian day of the week, 0 being Sunday, or 0 for a month outside 1..12.
func weekdayOf(yearOffset, month, day int) int {
	if month < 1 || month > 12 {
		return 0
	}
	y := yearOffset + Epoch
	if month < 3 {
		y--
	}
	w := (y + y/4 - y/100 + y/400 + weekdayOffsets[month-1] + day) % 7
	if w < 0 {
		w += 7
	}
	return w
}
