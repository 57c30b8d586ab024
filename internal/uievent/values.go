package uievent

import (
	"errors"
	"fmt"
	"math"

	"github.com/neovim/go-client/nvim"
)

// ErrMalformed is returned for an event or record whose arguments do not
// have the expected shape.
var ErrMalformed = errors.New("malformed arguments")

func typeError(want string, v interface{}) error {
	return fmt.Errorf("%w: want %s, got %T", ErrMalformed, want, v)
}

// ToInt converts a decoded msgpack number to an int.
func ToInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int64:
		return int(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, typeError("int", v)
		}
		return int(n), nil
	case int:
		return n, nil
	case int8:
		return int(n), nil
	case int16:
		return int(n), nil
	case int32:
		return int(n), nil
	case uint8:
		return int(n), nil
	case uint16:
		return int(n), nil
	case uint32:
		return int(n), nil
	case float64:
		if n == math.Trunc(n) {
			return int(n), nil
		}
	}
	return 0, typeError("int", v)
}

// ToInt64 is ToInt for values that may exceed an int on 32-bit platforms.
func ToInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, typeError("int64", v)
		}
		return int64(n), nil
	}
	i, err := ToInt(v)
	return int64(i), err
}

// ToFloat converts a decoded msgpack number to a float64.
func ToFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	}
	i, err := ToInt64(v)
	if err != nil {
		return 0, typeError("float", v)
	}
	return float64(i), nil
}

// ToString converts a msgpack str or bin value to a string.
func ToString(v interface{}) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	}
	return "", typeError("string", v)
}

// ToBool converts a msgpack boolean.  Numbers are accepted, zero being
// false.
func ToBool(v interface{}) (bool, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	i, err := ToInt64(v)
	if err != nil {
		return false, typeError("bool", v)
	}
	return i != 0, nil
}

// ToArray converts a msgpack array.
func ToArray(v interface{}) ([]interface{}, error) {
	if a, ok := v.([]interface{}); ok {
		return a, nil
	}
	if v == nil {
		return nil, nil
	}
	return nil, typeError("array", v)
}

// ToMap converts a msgpack map with string keys.
func ToMap(v interface{}) (map[string]interface{}, error) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, nil
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			ks, err := ToString(k)
			if err != nil {
				return nil, err
			}
			out[ks] = val
		}
		return out, nil
	case nil:
		return map[string]interface{}{}, nil
	}
	return nil, typeError("map", v)
}

// ToWindow converts a window handle.  Plain integers are accepted for
// editors that send handles untyped.
func ToWindow(v interface{}) (nvim.Window, error) {
	if w, ok := v.(nvim.Window); ok {
		return w, nil
	}
	i, err := ToInt(v)
	if err != nil {
		return 0, typeError("window", v)
	}
	return nvim.Window(i), nil
}

// ToBuffer converts a buffer handle.
func ToBuffer(v interface{}) (nvim.Buffer, error) {
	if b, ok := v.(nvim.Buffer); ok {
		return b, nil
	}
	i, err := ToInt(v)
	if err != nil {
		return 0, typeError("buffer", v)
	}
	return nvim.Buffer(i), nil
}

// ToTabpage converts a tabpage handle.
func ToTabpage(v interface{}) (nvim.Tabpage, error) {
	if t, ok := v.(nvim.Tabpage); ok {
		return t, nil
	}
	i, err := ToInt(v)
	if err != nil {
		return 0, typeError("tabpage", v)
	}
	return nvim.Tabpage(i), nil
}

// args reads positional event arguments.  The first conversion error is
// kept and later reads return zero values.
type args struct {
	v   []interface{}
	err error
}

func (a *args) get(i int) (interface{}, bool) {
	if a.err != nil {
		return nil, false
	}
	if i >= len(a.v) {
		a.err = fmt.Errorf("%w: missing argument %d", ErrMalformed, i)
		return nil, false
	}
	return a.v[i], true
}

// has reports whether the optional argument i is present.
func (a *args) has(i int) bool {
	return i < len(a.v)
}

func (a *args) fail(i int, err error) {
	if a.err == nil && err != nil {
		a.err = fmt.Errorf("argument %d: %w", i, err)
	}
}

func (a *args) int(i int) int {
	v, ok := a.get(i)
	if !ok {
		return 0
	}
	n, err := ToInt(v)
	a.fail(i, err)
	return n
}

func (a *args) int64(i int) int64 {
	v, ok := a.get(i)
	if !ok {
		return 0
	}
	n, err := ToInt64(v)
	a.fail(i, err)
	return n
}

func (a *args) float(i int) float64 {
	v, ok := a.get(i)
	if !ok {
		return 0
	}
	f, err := ToFloat(v)
	a.fail(i, err)
	return f
}

func (a *args) str(i int) string {
	v, ok := a.get(i)
	if !ok {
		return ""
	}
	s, err := ToString(v)
	a.fail(i, err)
	return s
}

func (a *args) bool(i int) bool {
	v, ok := a.get(i)
	if !ok {
		return false
	}
	b, err := ToBool(v)
	a.fail(i, err)
	return b
}

func (a *args) array(i int) []interface{} {
	v, ok := a.get(i)
	if !ok {
		return nil
	}
	arr, err := ToArray(v)
	a.fail(i, err)
	return arr
}

func (a *args) dict(i int) map[string]interface{} {
	v, ok := a.get(i)
	if !ok {
		return nil
	}
	m, err := ToMap(v)
	a.fail(i, err)
	return m
}

func (a *args) raw(i int) interface{} {
	v, _ := a.get(i)
	return v
}

func (a *args) window(i int) nvim.Window {
	v, ok := a.get(i)
	if !ok {
		return 0
	}
	w, err := ToWindow(v)
	a.fail(i, err)
	return w
}

func (a *args) buffer(i int) nvim.Buffer {
	v, ok := a.get(i)
	if !ok {
		return 0
	}
	b, err := ToBuffer(v)
	a.fail(i, err)
	return b
}

func (a *args) tabpage(i int) nvim.Tabpage {
	v, ok := a.get(i)
	if !ok {
		return 0
	}
	t, err := ToTabpage(v)
	a.fail(i, err)
	return t
}
