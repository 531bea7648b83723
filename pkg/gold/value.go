package gold

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"
)

// WildcardMarker is the type of Wildcard.
type WildcardMarker struct{}

// String returns the human-facing spelling of the marker.
func (WildcardMarker) String() string {
	return "*"
}

// Wildcard marks a position in an expected tree that matches any actual value.
// It is immutable and safe to share between concurrently running tests.
var Wildcard = WildcardMarker{}

// IsWildcard reports whether v is the Wildcard marker.
func IsWildcard(v any) bool {
	_, ok := v.(WildcardMarker)
	return ok
}

// Canonicalizer is implemented by domain values that choose their own gold
// representation. CanonicalValue must return a JSON-compatible tree, which may
// itself contain Wildcard or further Canonicalizers.
type Canonicalizer interface {
	CanonicalValue() any
}

// Normalize converts v into the value model used by the codec:
// nil, bool, json.Number, string, []any, map[string]any and Wildcard.
//
// Go numbers become json.Number so the exact decimal text is kept.
// time.Time becomes UTC RFC 3339 text. Slices, arrays, string-keyed maps and
// pointers are walked so that a Wildcard nested inside them survives.
// Structs and json.Marshaler implementations go through encoding/json.
func Normalize(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case WildcardMarker:
		return x, nil
	case Canonicalizer:
		return Normalize(x.CanonicalValue())
	case bool, string, json.Number:
		return x, nil
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano), nil
	case []byte:
		return string(x), nil
	case int:
		return json.Number(strconv.FormatInt(int64(x), 10)), nil
	case int8:
		return json.Number(strconv.FormatInt(int64(x), 10)), nil
	case int16:
		return json.Number(strconv.FormatInt(int64(x), 10)), nil
	case int32:
		return json.Number(strconv.FormatInt(int64(x), 10)), nil
	case int64:
		return json.Number(strconv.FormatInt(x, 10)), nil
	case uint:
		return json.Number(strconv.FormatUint(uint64(x), 10)), nil
	case uint8:
		return json.Number(strconv.FormatUint(uint64(x), 10)), nil
	case uint16:
		return json.Number(strconv.FormatUint(uint64(x), 10)), nil
	case uint32:
		return json.Number(strconv.FormatUint(uint64(x), 10)), nil
	case uint64:
		return json.Number(strconv.FormatUint(x, 10)), nil
	case float32:
		return normalizeFloat(float64(x))
	case float64:
		return normalizeFloat(x)
	case []any:
		if x == nil {
			return nil, nil
		}
		out := make([]any, len(x))
		for i, item := range x {
			n, err := Normalize(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	case map[string]any:
		if x == nil {
			return nil, nil
		}
		out := make(map[string]any, len(x))
		for k, item := range x {
			n, err := Normalize(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = n
		}
		return out, nil
	case json.Marshaler:
		return normalizeJSON(x)
	}
	return normalizeReflect(v)
}

func normalizeFloat(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("gold: unsupported float value %v", f)
	}
	// encoding/json picks the shortest representation that round-trips.
	data, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return json.Number(data), nil
}

func normalizeReflect(v any) (any, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return Normalize(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil, nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return normalizeJSON(v)
		}
		out := make([]any, rv.Len())
		for i := range out {
			n, err := Normalize(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return normalizeJSON(v)
		}
		if rv.IsNil() {
			return nil, nil
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key().String()
			n, err := Normalize(iter.Value().Interface())
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = n
		}
		return out, nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return json.Number(strconv.FormatInt(rv.Int(), 10)), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return json.Number(strconv.FormatUint(rv.Uint(), 10)), nil
	case reflect.Float32, reflect.Float64:
		return normalizeFloat(rv.Float())
	}
	return normalizeJSON(v)
}

// normalizeJSON round-trips v through encoding/json, which honours struct
// tags and custom marshalers.
func normalizeJSON(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("gold: cannot serialize %T: %w", v, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("gold: cannot serialize %T: %w", v, err)
	}
	return Normalize(out)
}
