package rtctime

import (
	"fmt"
)

// BuildDateLayout and BuildTimeLayout describe the strings accepted by ParseBuild. They are the formats C compilers
// use for __DATE__ and __TIME__, and what `date +'%b %e %Y'` and `date +%T` print.
const (
	BuildDateLayout = "Mmm dd yyyy"
	BuildTimeLayout = "hh:mm:ss"
)

var monthAbbrevs = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// ParseError describes a build date or time string that does not match its layout.
type ParseError struct {
	Input  string
	Offset int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("rtctime: parsing %q at offset %d: %s", e.Input, e.Offset, e.Msg)
}

// ParseBuild parses a build date such as "Jan  1 2024" or "Jan 01 2024" and a build time such as "08:30:15". The day
// may be padded with a space or a zero. Only years 2000 through 2099 can be represented.
func ParseBuild(date, clock string) (Date, error) {
	if len(date) != len(BuildDateLayout) {
		return Date{}, &ParseError{date, 0, fmt.Sprintf("want %d characters like %q, got %d", len(BuildDateLayout), BuildDateLayout, len(date))}
	}
	if len(clock) != len(BuildTimeLayout) {
		return Date{}, &ParseError{clock, 0, fmt.Sprintf("want %d characters like %q, got %d", len(BuildTimeLayout), BuildTimeLayout, len(clock))}
	}

	month := buildMonth(date)
	if date[:3] != monthAbbrevs[month-1] {
		return Date{}, &ParseError{date, 0, fmt.Sprintf("unknown month %q", date[:3])}
	}
	if date[3] != ' ' {
		return Date{}, &ParseError{date, 3, "want space after month"}
	}

	day, ok := digit(date[5])
	if !ok {
		return Date{}, &ParseError{date, 5, "want day digit"}
	}
	if date[4] != ' ' {
		tens, ok := digit(date[4])
		if !ok {
			return Date{}, &ParseError{date, 4, "want day digit or space"}
		}
		day += tens * 10
	}
	if day < 1 || day > 31 {
		return Date{}, &ParseError{date, 4, fmt.Sprintf("day %d out of range", day)}
	}
	if date[6] != ' ' {
		return Date{}, &ParseError{date, 6, "want space after day"}
	}

	year, err := number(date, 7, 4)
	if err != nil {
		return Date{}, err
	}
	if year < Epoch || year >= Epoch+100 {
		return Date{}, &ParseError{date, 7, fmt.Sprintf("year %d outside %d..%d", year, Epoch, Epoch+99)}
	}

	hour, err := number(clock, 0, 2)
	if err != nil {
		return Date{}, err
	}
	minute, err := number(clock, 3, 2)
	if err != nil {
		return Date{}, err
	}
	second, err := number(clock, 6, 2)
	if err != nil {
		return Date{}, err
	}
	for _, i := range []int{2, 5} {
		if clock[i] != ':' {
			return Date{}, &ParseError{clock, i, "want ':'"}
		}
	}
	switch {
	case hour > 23:
		return Date{}, &ParseError{clock, 0, fmt.Sprintf("hour %d out of range", hour)}
	case minute > 59:
		return Date{}, &ParseError{clock, 3, fmt.Sprintf("minute %d out of range", minute)}
	case second > 59:
		return Date{}, &ParseError{clock, 6, fmt.Sprintf("second %d out of range", second)}
	}

	return New(year, month, day, hour, minute, second), nil
}

// buildMonth picks the month from as few letters as needed. Anything not starting with F, S, O, N, D, J or M falls
// through to April or August, so the caller must check the abbreviation afterwards.
func buildMonth(s string) int {
	switch s[0] {
	case 'F':
		return 2
	case 'S':
		return 9
	case 'O':
		return 10
	case 'N':
		return 11
	case 'D':
		return 12
	case 'J':
		if s[1] == 'a' {
			return 1
		}
		if s[2] == 'n' {
			return 6
		}
		return 7
	case 'M':
		if s[2] == 'r' {
			return 3
		}
		return 5
	default:
		if s[1] == 'p' {
			return 4
		}
		return 8
	}
}

func digit(c byte) (int, bool) {
	if c < '0' || c > '9' {
		return 0, false
	}
	return int(c - '0'), true
}

func number(s string, off, n int) (int, error) {
	v := 0
	for i := off; i < off+n; i++ {
		d, ok := digit(s[i])
		if !ok {
			return 0, &ParseError{s, i, "want digit"}
		}
		v = v*10 + d
	}
	return v, nil
}
