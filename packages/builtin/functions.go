package builtin

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Func generates a replacement value from the raw arguments of a
// {{$name args}} reference. A non-nil error means the reference could not
// be satisfied and the caller should keep the literal text.
type Func func(args []string) (string, error)

type Registry struct {
	funcs map[string]Func
}

func NewRegistry() *Registry {
	r := &Registry{
		funcs: make(map[string]Func),
	}
	r.registerDefaults()
	return r
}

func (r *Registry) registerDefaults() {
	r.funcs["guid"] = funcGUID
	r.funcs["randomInt"] = funcRandomInt
	r.funcs["timestamp"] = funcTimestamp
	r.funcs["datetime"] = funcDatetime
	r.funcs["localDatetime"] = funcLocalDatetime
}

func (r *Registry) Register(name string, fn Func) {
	r.funcs[name] = fn
}

func (r *Registry) Has(name string) bool {
	_, ok := r.funcs[name]
	return ok
}

// Call invokes the named function with rawArgs split on whitespace.
func (r *Registry) Call(name, rawArgs string) (string, error) {
	fn, ok := r.funcs[name]
	if !ok {
		return "", fmt.Errorf("unknown function $%s", name)
	}
	return fn(SplitArgs(rawArgs))
}

// SplitArgs splits an argument string on spaces and tabs while keeping
// quoted spans intact. The opening quote character is remembered and only
// the same character closes the span; the quotes themselves stay in the
// token so consumers can tell a quoted pattern from a bare word.
func SplitArgs(s string) []string {
	var args []string
	var current strings.Builder
	inQuote := false
	quoteChar := byte(0)

	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case !inQuote && (ch == '"' || ch == '\''):
			inQuote = true
			quoteChar = ch
			current.WriteByte(ch)
		case inQuote && ch == quoteChar:
			inQuote = false
			quoteChar = 0
			current.WriteByte(ch)
		case !inQuote && (ch == ' ' || ch == '\t'):
			if current.Len() > 0 {
				args = append(args, current.String())
				current.Reset()
			}
		default:
			current.WriteByte(ch)
		}
	}

	if current.Len() > 0 {
		args = append(args, current.String())
	}

	return args
}

// Unquote strips a matching pair of surrounding quotes. The second return
// reports whether the token was quoted at all.
func Unquote(s string) (string, bool) {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1], true
	}
	return s, false
}

func funcGUID(_ []string) (string, error) {
	// Extra arguments are tolerated and ignored.
	return uuid.New().String(), nil
}

func funcRandomInt(args []string) (string, error) {
	if len(args) != 2 {
		return "", fmt.Errorf("randomInt expects two integer arguments, got %d", len(args))
	}
	min, err := strconv.Atoi(args[0])
	if err != nil {
		return "", fmt.Errorf("randomInt min %q is not an integer", args[0])
	}
	max, err := strconv.Atoi(args[1])
	if err != nil {
		return "", fmt.Errorf("randomInt max %q is not an integer", args[1])
	}
	if min >= max {
		return "", fmt.Errorf("randomInt range [%d, %d) is empty", min, max)
	}
	return strconv.Itoa(rand.Intn(max-min) + min), nil
}
