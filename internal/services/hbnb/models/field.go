package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Kind classifies a declared attribute.
type Kind int

const (
	KindString Kind = iota + 1
	KindInt
	KindDecimal
	KindStringList
)

// Field binds a declared attribute to its storage in an entity value.
type Field struct {
	Name string
	Kind Kind
	// Required marks attributes the relational schema declares NOT NULL.
	Required bool
	ref      any
}

func stringField(name string, ref *string, required bool) Field {
	return Field{Name: name, Kind: KindString, Required: required, ref: ref}
}

func intField(name string, ref *int) Field {
	return Field{Name: name, Kind: KindInt, Required: true, ref: ref}
}

func decimalField(name string, ref *decimal.NullDecimal) Field {
	return Field{Name: name, Kind: KindDecimal, ref: ref}
}

func listField(name string, ref *[]string) Field {
	return Field{Name: name, Kind: KindStringList, ref: ref}
}

// Value returns the current attribute value: string, int, decimal.Decimal
// (nil when unset) or []string.
func (f Field) Value() any {
	switch ref := f.ref.(type) {
	case *string:
		return *ref
	case *int:
		return *ref
	case *decimal.NullDecimal:
		if !ref.Valid {
			return nil
		}
		return ref.Decimal
	case *[]string:
		out := make([]string, len(*ref))
		copy(out, *ref)
		return out
	}
	return nil
}

// IsZero reports whether the attribute holds its zero value.
func (f Field) IsZero() bool {
	switch ref := f.ref.(type) {
	case *string:
		return *ref == ""
	case *int:
		return *ref == 0
	case *decimal.NullDecimal:
		return !ref.Valid
	case *[]string:
		return len(*ref) == 0
	}
	return true
}

// Set casts value to the attribute kind and assigns it.
func (f Field) Set(value any) error {
	switch ref := f.ref.(type) {
	case *string:
		v, err := castString(value)
		if err != nil {
			return f.invalid(value, err)
		}
		*ref = v
	case *int:
		v, err := castInt(value)
		if err != nil {
			return f.invalid(value, err)
		}
		*ref = v
	case *decimal.NullDecimal:
		v, err := castDecimal(value)
		if err != nil {
			return f.invalid(value, err)
		}
		*ref = v
	case *[]string:
		v, err := castStringList(value)
		if err != nil {
			return f.invalid(value, err)
		}
		*ref = v
	default:
		return fmt.Errorf("%w: %s has no storage", ErrInvalidValue, f.Name)
	}
	return nil
}

func (f Field) invalid(value any, cause error) error {
	return fmt.Errorf("%w: %s=%v: %v", ErrInvalidValue, f.Name, value, cause)
}

func castString(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case fmt.Stringer:
		return v.String(), nil
	}
	return "", fmt.Errorf("unsupported type %T", value)
}

func castInt(value any) (int, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%v is not integral", v)
		}
		return int(v), nil
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), nil
		}
		f, err := v.Float64()
		if err != nil {
			return 0, err
		}
		return castInt(f)
	case string:
		return strconv.Atoi(strings.TrimSpace(v))
	}
	return 0, fmt.Errorf("unsupported type %T", value)
}

func castDecimal(value any) (decimal.NullDecimal, error) {
	switch v := value.(type) {
	case nil:
		return decimal.NullDecimal{}, nil
	case decimal.Decimal:
		return decimal.NewNullDecimal(v), nil
	case decimal.NullDecimal:
		return v, nil
	case int:
		return decimal.NewNullDecimal(decimal.NewFromInt(int64(v))), nil
	case int64:
		return decimal.NewNullDecimal(decimal.NewFromInt(v)), nil
	case float64:
		return decimal.NewNullDecimal(decimal.NewFromFloat(v)), nil
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		return decimal.NewNullDecimal(d), err
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return decimal.NullDecimal{}, nil
		}
		d, err := decimal.NewFromString(trimmed)
		if err != nil {
			return decimal.NullDecimal{}, err
		}
		return decimal.NewNullDecimal(d), nil
	}
	return decimal.NullDecimal{}, fmt.Errorf("unsupported type %T", value)
}

func castStringList(value any) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return []string{}, nil
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("list item %v is not a string", item)
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return []string{}, nil
		}
		var out []string
		if err := json.Unmarshal([]byte(trimmed), &out); err != nil {
			return nil, err
		}
		if out == nil {
			out = []string{}
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported type %T", value)
}

// normalizeExtra narrows open attribute values to the scalar types that
// survive a JSON round trip unchanged.
func normalizeExtra(value any) (any, error) {
	switch v := value.(type) {
	case string, bool, int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
			return int64(v), nil
		}
		return v, nil
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, err
		}
		return normalizeExtra(f)
	}
	return nil, fmt.Errorf("unsupported type %T", value)
}
