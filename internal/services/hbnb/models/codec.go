package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/louisbranch/hbnb/internal/platform/id"
	"github.com/shopspring/decimal"
)

// New constructs an entity of class.
//
// Without an "id" in attrs the entity gets a fresh id and both timestamps
// set to Now, then attrs are applied as attribute updates. With an "id" the
// attributes are restored verbatim, including timestamps in TimeLayout
// text. New never registers the entity with a store.
func New(class string, attrs map[string]any) (Entity, error) {
	e, err := Zero(class)
	if err != nil {
		return nil, err
	}
	if _, ok := attrs["id"]; ok {
		if err := restore(e, attrs); err != nil {
			return nil, err
		}
		return e, nil
	}

	newID, err := id.NewID()
	if err != nil {
		return nil, err
	}
	now := Now()
	meta := e.Meta()
	meta.ID = newID
	meta.CreatedAt = now
	meta.UpdatedAt = now
	for _, name := range sortedKeys(attrs) {
		if name == ClassKey {
			continue
		}
		if err := Set(e, name, attrs[name], true); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// FromMap rebuilds an entity from its dictionary form.
func FromMap(m map[string]any) (Entity, error) {
	class, _ := m[ClassKey].(string)
	if class == "" {
		return nil, fmt.Errorf("%w: missing %s tag", ErrUnknownClass, ClassKey)
	}
	if _, ok := m["id"]; !ok {
		return nil, ErrMissingID
	}
	return New(class, m)
}

// ToMap renders e in dictionary form: the type tag, identity, timestamps,
// every declared attribute and every open attribute.
func ToMap(e Entity) map[string]any {
	meta := e.Meta()
	fields := e.Fields()
	out := make(map[string]any, len(meta.Extra)+len(fields)+4)
	for name, value := range meta.Extra {
		out[name] = value
	}
	for _, f := range fields {
		out[f.Name] = f.Value()
	}
	out[ClassKey] = e.Class()
	out["id"] = meta.ID
	out["created_at"] = FormatTime(meta.CreatedAt)
	out["updated_at"] = FormatTime(meta.UpdatedAt)
	return out
}

// Set assigns one attribute. Declared attributes are cast to their kind.
// Undeclared attributes are kept in Base.Extra when open is true and
// rejected with ErrUnknownAttribute otherwise.
func Set(e Entity, name string, value any, open bool) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrUnknownAttribute)
	}
	if isReserved(name) {
		return fmt.Errorf("%w: %s", ErrReadOnlyAttribute, name)
	}
	for _, f := range e.Fields() {
		if f.Name == name {
			return f.Set(value)
		}
	}
	if !open {
		return fmt.Errorf("%w: %s.%s", ErrUnknownAttribute, e.Class(), name)
	}
	normalized, err := normalizeExtra(value)
	if err != nil {
		return fmt.Errorf("%w: %s=%v: %v", ErrInvalidValue, name, value, err)
	}
	meta := e.Meta()
	if meta.Extra == nil {
		meta.Extra = map[string]any{}
	}
	meta.Extra[name] = normalized
	return nil
}

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime accepts TimeLayout text, RFC 3339 text, or a time.Time.
func ParseTime(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC().Truncate(time.Microsecond), nil
	case string:
		if t, err := time.Parse(TimeLayout, v); err == nil {
			return t.UTC(), nil
		}
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, err
		}
		return t.UTC().Truncate(time.Microsecond), nil
	}
	return time.Time{}, fmt.Errorf("unsupported time type %T", value)
}

// String renders e as "[Class] (id) {...}" for console output.
func String(e Entity) string {
	meta := e.Meta()
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] (%s) {", e.Class(), meta.ID)
	b.WriteString("'id': " + Quote(meta.ID))
	b.WriteString(", 'created_at': " + Quote(FormatTime(meta.CreatedAt)))
	b.WriteString(", 'updated_at': " + Quote(FormatTime(meta.UpdatedAt)))
	for _, f := range e.Fields() {
		b.WriteString(", " + Quote(f.Name) + ": " + repr(f.Value()))
	}
	for _, name := range sortedKeys(meta.Extra) {
		b.WriteString(", " + Quote(name) + ": " + repr(meta.Extra[name]))
	}
	b.WriteString("}")
	return b.String()
}

func restore(e Entity, attrs map[string]any) error {
	meta := e.Meta()
	rawID, _ := attrs["id"].(string)
	if strings.TrimSpace(rawID) == "" {
		return ErrMissingID
	}
	meta.ID = rawID

	now := Now()
	meta.CreatedAt, meta.UpdatedAt = now, now
	if raw, ok := attrs["created_at"]; ok {
		t, err := ParseTime(raw)
		if err != nil {
			return fmt.Errorf("%w: created_at: %v", ErrInvalidValue, err)
		}
		meta.CreatedAt = t
	}
	if raw, ok := attrs["updated_at"]; ok {
		t, err := ParseTime(raw)
		if err != nil {
			return fmt.Errorf("%w: updated_at: %v", ErrInvalidValue, err)
		}
		meta.UpdatedAt = t
	}

	for _, name := range sortedKeys(attrs) {
		if isReserved(name) {
			continue
		}
		if err := Set(e, name, attrs[name], true); err != nil {
			return err
		}
	}
	return nil
}

func repr(value any) string {
	switch v := value.(type) {
	case nil:
		return "None"
	case string:
		return Quote(v)
	case bool:
		if v {
			return "True"
		}
		return "False"
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	case decimal.Decimal:
		return v.String()
	case []string:
		items := make([]string, len(v))
		for i, item := range v {
			items[i] = Quote(item)
		}
		return "[" + strings.Join(items, ", ") + "]"
	}
	return fmt.Sprint(value)
}

// Quote renders s as a single-quoted literal, switching to double quotes
// when s contains a single quote and no double quote.
func Quote(s string) string {
	if strings.Contains(s, "'") && !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
