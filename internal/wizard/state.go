// internal/wizard/state.go
package wizard

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// File is an uploaded document held in form state until submission.
type File struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Data        []byte `json:"data"`
}

// FileInfo is what views expose about a file; the bytes never leave the server.
type FileInfo struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

func (f *File) Info() FileInfo {
	return FileInfo{Name: f.Name, ContentType: f.ContentType, Size: f.Size}
}

// FormState is the single accumulated key/value object of a wizard. Values
// are string, float64, bool, []string, *File or nil.
type FormState map[string]interface{}

// IsPresent is the required-field check: nil, "" and empty lists fail, a file
// passes by presence, every other value (false and 0 included) passes.
func IsPresent(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case []string:
		return len(x) > 0
	case []interface{}:
		return len(x) > 0
	case *File:
		return x != nil
	default:
		return true
	}
}

// Merge shallow-merges partial over base and returns a new state. Keys of
// base missing from partial are kept; a key set to nil stays present with an
// empty value.
func Merge(base, partial FormState) FormState {
	out := make(FormState, len(base)+len(partial))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range partial {
		out[k] = v
	}
	return out
}

func (s FormState) Clone() FormState {
	return Merge(s, nil)
}

// Files returns the entries holding a file.
func (s FormState) Files() map[string]*File {
	files := make(map[string]*File)
	for k, v := range s {
		if f, ok := v.(*File); ok && f != nil {
			files[k] = f
		}
	}
	return files
}

// Scalars returns every entry that does not hold a file.
func (s FormState) Scalars() map[string]interface{} {
	out := make(map[string]interface{}, len(s))
	for k, v := range s {
		if _, ok := v.(*File); ok {
			continue
		}
		out[k] = v
	}
	return out
}

// NormalizeValue coerces a decoded JSON or form value into one of the form
// state value types.
func NormalizeValue(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case nil, string, bool, float64, []string, *File:
		return x, nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case []interface{}:
		list := make([]string, 0, len(x))
		for i, item := range x {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("list item %d is %T, only strings are allowed", i, item)
			}
			list = append(list, s)
		}
		return list, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

// AsList coerces the value of a list field: a single string becomes a
// one-element list, "" an empty one. nil stays nil so the field can be cleared.
func AsList(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return x, nil
	case string:
		if x == "" {
			return []string{}, nil
		}
		return []string{x}, nil
	case []interface{}:
		return NormalizeValue(x)
	default:
		return nil, fmt.Errorf("expected a list of strings, got %T", v)
	}
}

// NormalizeState applies NormalizeValue to every entry.
func NormalizeState(in map[string]interface{}) (FormState, error) {
	out := make(FormState, len(in))
	for k, v := range in {
		if strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("empty field name")
		}
		nv, err := NormalizeValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = nv
	}
	return out, nil
}

// numberOf reads a numeric field that may have been typed as text.
func numberOf(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, !math.IsNaN(x)
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(x), ",", ""), 64)
		return f, err == nil
	}
	return 0, false
}
