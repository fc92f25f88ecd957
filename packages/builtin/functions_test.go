package builtin

import (
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var guidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

func TestGUID(t *testing.T) {
	r := NewRegistry()

	first, err := r.Call("guid", "")
	require.NoError(t, err)
	second, err := r.Call("guid", "")
	require.NoError(t, err)

	assert.Regexp(t, guidPattern, first)
	assert.Regexp(t, guidPattern, second)
	assert.NotEqual(t, first, second)
}

func TestGUIDIgnoresArguments(t *testing.T) {
	r := NewRegistry()

	got, err := r.Call("guid", "extra stuff here")
	require.NoError(t, err)
	assert.Regexp(t, guidPattern, got)
}

func TestRandomIntStaysInRange(t *testing.T) {
	r := NewRegistry()

	for i := 0; i < 50; i++ {
		got, err := r.Call("randomInt", "3 7")
		require.NoError(t, err)
		n, err := strconv.Atoi(got)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 3)
		assert.Less(t, n, 7)
	}
}

func TestRandomIntArgumentErrors(t *testing.T) {
	tests := []struct {
		name string
		args string
	}{
		{"no arguments", ""},
		{"one argument", "5"},
		{"three arguments", "1 2 3"},
		{"non-integer min", "a 10"},
		{"non-integer max", "0 b"},
		{"empty range", "5 5"},
		{"inverted range", "10 5"},
	}

	r := NewRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Call("randomInt", tt.args)
			assert.Error(t, err)
		})
	}
}

func TestTimestamp(t *testing.T) {
	r := NewRegistry()

	before := time.Now().Unix()
	got, err := r.Call("timestamp", "")
	after := time.Now().Unix()
	require.NoError(t, err)

	n, err := strconv.ParseInt(got, 10, 64)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, before)
	assert.LessOrEqual(t, n, after)
}

func TestTimestampOffsets(t *testing.T) {
	tests := []struct {
		name  string
		args  string
		shift int64
	}{
		{"minus one day", "-1 d", -86400},
		{"plus one hour", "+1 h", 3600},
		{"plus two hours in minutes", "120 m", 7200},
		{"minus thirty seconds", "-30 s", -30},
		{"one week", "1 w", 7 * 86400},
	}

	r := NewRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := time.Now().Unix()
			got, err := r.Call("timestamp", tt.args)
			require.NoError(t, err)

			n, err := strconv.ParseInt(got, 10, 64)
			require.NoError(t, err)
			assert.InDelta(t, now+tt.shift, n, 5)
		})
	}
}

func TestTimestampOffsetErrors(t *testing.T) {
	tests := []struct {
		name string
		args string
	}{
		{"amount without unit", "1"},
		{"unknown unit", "1 q"},
		{"uppercase hour is not a unit", "1 H"},
		{"non-integer amount", "x d"},
	}

	r := NewRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Call("timestamp", tt.args)
			assert.Error(t, err)
		})
	}
}

func TestDatetimeISO8601(t *testing.T) {
	r := NewRegistry()

	got, err := r.Call("datetime", "iso8601")
	require.NoError(t, err)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`, got)
}

func TestDatetimeRFC1123(t *testing.T) {
	r := NewRegistry()

	got, err := r.Call("datetime", "rfc1123")
	require.NoError(t, err)
	_, err = time.Parse(time.RFC1123, got)
	assert.NoError(t, err)
}

func TestDatetimeCustomPattern(t *testing.T) {
	tests := []struct {
		name string
		args string
		want string
	}{
		{"double quoted date", `"yyyy-MM-dd"`, `^\d{4}-\d{2}-\d{2}$`},
		{"single quoted time", `'HH:mm:ss'`, `^\d{2}:\d{2}:\d{2}$`},
		{"with offset", `"yyyy-MM-dd" 1 d`, `^\d{4}-\d{2}-\d{2}$`},
		{"twelve hour clock", `"hh:mm a"`, `^\d{2}:\d{2} (AM|PM)$`},
	}

	r := NewRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Call("datetime", tt.args)
			require.NoError(t, err)
			assert.Regexp(t, tt.want, got)
		})
	}
}

func TestDatetimeErrors(t *testing.T) {
	tests := []struct {
		name string
		args string
	}{
		{"missing format", ""},
		{"unquoted pattern", "yyyy-MM-dd"},
		{"unknown keyword", "iso9000"},
		{"bad offset", "iso8601 1"},
	}

	r := NewRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Call("datetime", tt.args)
			assert.Error(t, err)
		})
	}
}

func TestLocalDatetimeUsesLocalZone(t *testing.T) {
	r := NewRegistry()

	got, err := r.Call("localDatetime", `"yyyy"`)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(time.Now().Year()), got)
}

func TestMonthOffsetUsesCalendarMonths(t *testing.T) {
	r := NewRegistry()

	now := time.Now().UTC()
	got, err := r.Call("timestamp", "1 M")
	require.NoError(t, err)

	n, err := strconv.ParseInt(got, 10, 64)
	require.NoError(t, err)
	assert.InDelta(t, now.AddDate(0, 1, 0).Unix(), n, 5)
}

func TestUnknownFunction(t *testing.T) {
	r := NewRegistry()

	_, err := r.Call("nope", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown function")
}

func TestRegisterCustomFunction(t *testing.T) {
	r := NewRegistry()
	r.Register("shout", func(args []string) (string, error) {
		return strings.ToUpper(strings.Join(args, " ")), nil
	})

	got, err := r.Call("shout", "hello world")
	require.NoError(t, err)
	assert.Equal(t, "HELLO WORLD", got)
	assert.True(t, r.Has("shout"))
}

func TestTranslateLayout(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{"yyyy-MM-dd", "2006-01-02"},
		{"yyyy-MM-ddTHH:mm:ss.sssZ", "2006-01-02T15:04:05.000Z07:00"},
		{"ddd, dd MMM yyyy", "Mon, 02 Jan 2006"},
		{"dddd MMMM d", "Monday January 2"},
		{"hh:mm a", "03:04 PM"},
		{"HH:mm tt", "15:04 PM"},
		{"yy/M/d", "06/1/2"},
		{"ss.sss", "05.000"},
		{"ZZ", "-0700"},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.want, translateLayout(tt.pattern))
		})
	}
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"bare words", "5 10", []string{"5", "10"}},
		{"extra whitespace", "  a \t b  ", []string{"a", "b"}},
		{"double quoted span", `"a b" c`, []string{`"a b"`, "c"}},
		{"single quoted span", `'x y' z`, []string{`'x y'`, "z"}},
		{"other quote kind inside span", `'a "b c' d`, []string{`'a "b c'`, "d"}},
		{"pattern with offset", `"yyyy-MM-dd" -1 d`, []string{`"yyyy-MM-dd"`, "-1", "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitArgs(tt.input))
		})
	}
}

func TestUnquote(t *testing.T) {
	tests := []struct {
		input  string
		want   string
		quoted bool
	}{
		{`"abc"`, "abc", true},
		{`'abc'`, "abc", true},
		{`abc`, "abc", false},
		{`"abc'`, `"abc'`, false},
		{`"`, `"`, false},
		{`""`, "", true},
	}

	for _, tt := range tests {
		got, quoted := Unquote(tt.input)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
		assert.Equal(t, tt.quoted, quoted, "input %q", tt.input)
	}
}
