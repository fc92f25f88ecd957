package builtin

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const iso8601Layout = "2006-01-02T15:04:05.000Z07:00"

func funcTimestamp(args []string) (string, error) {
	t, err := applyOffset(time.Now().UTC(), args)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(t.Unix(), 10), nil
}

func funcDatetime(args []string) (string, error) {
	return formatDatetime(time.Now().UTC(), args)
}

func funcLocalDatetime(args []string) (string, error) {
	return formatDatetime(time.Now(), args)
}

func formatDatetime(t time.Time, args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("datetime expects a format argument")
	}
	layout, err := datetimeLayout(args[0])
	if err != nil {
		return "", err
	}
	t, err = applyOffset(t, args[1:])
	if err != nil {
		return "", err
	}
	return t.Format(layout), nil
}

func datetimeLayout(arg string) (string, error) {
	switch arg {
	case "iso8601":
		return iso8601Layout, nil
	case "rfc1123":
		return time.RFC1123, nil
	}
	if pattern, quoted := Unquote(arg); quoted {
		return translateLayout(pattern), nil
	}
	return "", fmt.Errorf("unknown datetime format %q", arg)
}

// applyOffset shifts t by a signed amount of calendar or clock units.
// Units are case-sensitive: m is minutes, M is months.
func applyOffset(t time.Time, args []string) (time.Time, error) {
	if len(args) == 0 {
		return t, nil
	}
	if len(args) != 2 {
		return time.Time{}, fmt.Errorf("offset expects an amount and a unit, got %d arguments", len(args))
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("offset amount %q is not an integer", args[0])
	}
	switch args[1] {
	case "y":
		return t.AddDate(n, 0, 0), nil
	case "M":
		return t.AddDate(0, n, 0), nil
	case "w":
		return t.AddDate(0, 0, 7*n), nil
	case "d":
		return t.AddDate(0, 0, n), nil
	case "h":
		return t.Add(time.Duration(n) * time.Hour), nil
	case "m":
		return t.Add(time.Duration(n) * time.Minute), nil
	case "s":
		return t.Add(time.Duration(n) * time.Second), nil
	case "ms":
		return t.Add(time.Duration(n) * time.Millisecond), nil
	}
	return time.Time{}, fmt.Errorf("unknown offset unit %q", args[1])
}

// layoutTokens maps date-pattern tokens to Go reference-time fragments.
// Longer tokens come first within each family so the greedy scan in
// translateLayout never splits them.
var layoutTokens = []struct {
	from string
	to   string
}{
	{"yyyy", "2006"},
	{"yy", "06"},
	{"MMMM", "January"},
	{"MMM", "Jan"},
	{"MM", "01"},
	{"M", "1"},
	{"dddd", "Monday"},
	{"ddd", "Mon"},
	{"dd", "02"},
	{"d", "2"},
	{"HH", "15"},
	{"hh", "03"},
	{"h", "3"},
	{"mm", "04"},
	{"m", "4"},
	{"sss", "000"},
	{"ss", "05"},
	{"s", "5"},
	{"tt", "PM"},
	{"a", "PM"},
	{"ZZ", "-0700"},
	{"Z", "Z07:00"},
}

func translateLayout(pattern string) string {
	var out strings.Builder
	for i := 0; i < len(pattern); {
		matched := false
		for _, tok := range layoutTokens {
			if strings.HasPrefix(pattern[i:], tok.from) {
				out.WriteString(tok.to)
				i += len(tok.from)
				matched = true
				break
			}
		}
		if !matched {
			out.WriteByte(pattern[i])
			i++
		}
	}
	return out.String()
}
