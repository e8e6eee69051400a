package youtrack

import (
	"strconv"
	"strings"
	"time"
)

// FormatDate renders an epoch-millisecond timestamp with a presentation
// pattern (YYYY, MM, DD, HH, mm, ...). Text inside single quotes or square
// brackets is copied literally.
func FormatDate(ms int64, pattern string, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	t := time.UnixMilli(ms).In(loc)

	var b strings.Builder
	for i := 0; i < len(pattern); {
		c := pattern[i]
		switch {
		case c == '\'' || c == '[':
			closer := byte('\'')
			if c == '[' {
				closer = ']'
			}
			end := strings.IndexByte(pattern[i+1:], closer)
			if end < 0 {
				b.WriteString(pattern[i+1:])
				return b.String()
			}
			b.WriteString(pattern[i+1 : i+1+end])
			i += end + 2
		case isPatternLetter(c):
			j := i
			for j < len(pattern) && pattern[j] == c {
				j++
			}
			b.WriteString(formatToken(t, c, j-i))
			i = j
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

func isPatternLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func formatToken(t time.Time, letter byte, n int) string {
	switch letter {
	case 'Y', 'y':
		if n == 2 {
			return pad(t.Year()%100, 2)
		}
		return strconv.Itoa(t.Year())
	case 'M':
		switch {
		case n >= 4:
			return t.Month().String()
		case n == 3:
			return t.Month().String()[:3]
		case n == 2:
			return pad(int(t.Month()), 2)
		default:
			return strconv.Itoa(int(t.Month()))
		}
	case 'D':
		if n >= 2 {
			return pad(t.Day(), 2)
		}
		return strconv.Itoa(t.Day())
	case 'd', 'E':
		if n >= 4 {
			return t.Weekday().String()
		}
		if n == 3 {
			return t.Weekday().String()[:3]
		}
		return strconv.Itoa(int(t.Weekday()))
	case 'H':
		return padN(t.Hour(), n)
	case 'h':
		h := t.Hour() % 12
		if h == 0 {
			h = 12
		}
		return padN(h, n)
	case 'm':
		return padN(t.Minute(), n)
	case 's':
		return padN(t.Second(), n)
	case 'S':
		ms := t.Nanosecond() / int(time.Millisecond)
		return pad(ms, 3)[:min(n, 3)]
	case 'A':
		if t.Hour() < 12 {
			return "AM"
		}
		return "PM"
	case 'a':
		if t.Hour() < 12 {
			return "am"
		}
		return "pm"
	default:
		return strings.Repeat(string(letter), n)
	}
}

func padN(v, n int) string {
	if n >= 2 {
		return pad(v, 2)
	}
	return strconv.Itoa(v)
}

func pad(v, width int) string {
	s := strconv.Itoa(v)
	for len(s) < width {
		s = "0" + s
	}
	return s
}
