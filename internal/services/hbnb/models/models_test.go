package models

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

func TestNewAssignsIdentityAndTimestamps(t *testing.T) {
	t.Parallel()

	e, err := New(ClassState, map[string]any{"name": "Lagos"})
	if err != nil {
		t.Fatalf("new state: %v", err)
	}
	state, ok := e.(*State)
	if !ok {
		t.Fatalf("entity type = %T, want *State", e)
	}
	if state.ID == "" {
		t.Fatal("expected generated id")
	}
	if state.Name != "Lagos" {
		t.Fatalf("name = %q, want Lagos", state.Name)
	}
	if !state.CreatedAt.Equal(state.UpdatedAt) {
		t.Fatalf("created_at %v != updated_at %v", state.CreatedAt, state.UpdatedAt)
	}
	if Key(state) != "State."+state.ID {
		t.Fatalf("key = %q", Key(state))
	}
}

func TestNewGeneratesDistinctKeys(t *testing.T) {
	t.Parallel()

	seen := map[string]struct{}{}
	for _, class := range Classes() {
		for i := 0; i < 50; i++ {
			e, err := New(class, nil)
			if err != nil {
				t.Fatalf("new %s: %v", class, err)
			}
			key := Key(e)
			if _, dup := seen[key]; dup {
				t.Fatalf("duplicate key %q", key)
			}
			seen[key] = struct{}{}
		}
	}
}

func TestNewRejectsUnknownClass(t *testing.T) {
	t.Parallel()

	for _, class := range []string{"Base", "base", "state", ""} {
		if _, err := New(class, nil); !errors.Is(err, ErrUnknownClass) {
			t.Fatalf("new %q error = %v, want %v", class, err, ErrUnknownClass)
		}
	}
}

func TestRoundTripThroughMap(t *testing.T) {
	t.Parallel()

	place, err := New(ClassPlace, map[string]any{
		"city_id":        "city-1",
		"user_id":        "user-1",
		"name":           "My little house",
		"number_rooms":   "4",
		"price_by_night": 300,
		"latitude":       "37.773972",
		"amenity_ids":    []string{"a-1", "a-2"},
		"nickname":       "cosy",
		"stars":          5,
		"rating":         4.5,
	})
	if err != nil {
		t.Fatalf("new place: %v", err)
	}

	restored, err := FromMap(ToMap(place))
	if err != nil {
		t.Fatalf("from map: %v", err)
	}
	assertSameState(t, place, restored)

	// Through an actual JSON encoding, as the file engine does it.
	data, err := json.Marshal(ToMap(place))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	decoded := map[string]any{}
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	fromJSON, err := FromMap(decoded)
	if err != nil {
		t.Fatalf("from json map: %v", err)
	}
	assertSameState(t, place, fromJSON)
}

func TestFromMapRequiresTagAndID(t *testing.T) {
	t.Parallel()

	if _, err := FromMap(map[string]any{"id": "x"}); !errors.Is(err, ErrUnknownClass) {
		t.Fatalf("missing tag error = %v", err)
	}
	if _, err := FromMap(map[string]any{ClassKey: "Nope", "id": "x"}); !errors.Is(err, ErrUnknownClass) {
		t.Fatalf("unknown tag error = %v", err)
	}
	if _, err := FromMap(map[string]any{ClassKey: ClassUser}); !errors.Is(err, ErrMissingID) {
		t.Fatalf("missing id error = %v", err)
	}
	if _, err := FromMap(map[string]any{ClassKey: ClassUser, "id": "x", "created_at": "yesterday"}); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("bad timestamp error = %v", err)
	}
}

func TestFromMapKeepsTimestampsVerbatim(t *testing.T) {
	t.Parallel()

	e, err := FromMap(map[string]any{
		ClassKey:     ClassAmenity,
		"id":         "a-1",
		"created_at": "2017-09-28T21:03:54.052298",
		"updated_at": "2017-09-28T21:05:54.119572",
		"name":       "Wifi",
	})
	if err != nil {
		t.Fatalf("from map: %v", err)
	}
	want := time.Date(2017, time.September, 28, 21, 3, 54, 52298000, time.UTC)
	if !e.Meta().CreatedAt.Equal(want) {
		t.Fatalf("created_at = %v, want %v", e.Meta().CreatedAt, want)
	}
	if got := ToMap(e)["updated_at"]; got != "2017-09-28T21:05:54.119572" {
		t.Fatalf("updated_at text = %v", got)
	}
}

func TestSetRules(t *testing.T) {
	t.Parallel()

	place := &Place{}
	testCases := []struct {
		name  string
		attr  string
		value any
		open  bool
		want  error
	}{
		{name: "declared string", attr: "name", value: "Loft", want: nil},
		{name: "declared int from text", attr: "max_guest", value: "6", want: nil},
		{name: "declared int rejects text", attr: "max_guest", value: "six", want: ErrInvalidValue},
		{name: "declared int rejects fraction", attr: "number_rooms", value: 2.5, want: ErrInvalidValue},
		{name: "declared int rejects fractional number", attr: "number_rooms", value: json.Number("2.5"), want: ErrInvalidValue},
		{name: "declared int from integral number", attr: "number_rooms", value: json.Number("4.0"), want: nil},
		{name: "declared decimal", attr: "longitude", value: -122.431297, want: nil},
		{name: "declared decimal rejects text", attr: "longitude", value: "west", want: ErrInvalidValue},
		{name: "id is read only", attr: "id", value: "other", want: ErrReadOnlyAttribute},
		{name: "created_at is read only", attr: "created_at", value: "now", open: true, want: ErrReadOnlyAttribute},
		{name: "open attribute", attr: "pets", value: "yes", open: true, want: nil},
		{name: "closed schema", attr: "pets", value: "yes", open: false, want: ErrUnknownAttribute},
		{name: "open attribute rejects composite", attr: "tags", value: []string{"x"}, open: true, want: ErrInvalidValue},
	}
	for _, tc := range testCases {
		err := Set(place, tc.attr, tc.value, tc.open)
		if tc.want == nil && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if tc.want != nil && !errors.Is(err, tc.want) {
			t.Fatalf("%s: error = %v, want %v", tc.name, err, tc.want)
		}
	}
	if place.Name != "Loft" || place.MaxGuest != 6 || place.NumberRooms != 4 {
		t.Fatalf("unexpected place state %+v", place)
	}
	if !place.Longitude.Valid || place.Longitude.Decimal.String() != "-122.431297" {
		t.Fatalf("longitude = %+v", place.Longitude)
	}
	if place.Extra["pets"] != "yes" {
		t.Fatalf("extra = %v", place.Extra)
	}
}

func TestTouchNeverPrecedesCreatedAt(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	user := &User{Base: Base{ID: "u", CreatedAt: created, UpdatedAt: created}}

	Touch(user, created.Add(-time.Hour))
	if !user.UpdatedAt.Equal(created) {
		t.Fatalf("updated_at = %v, want %v", user.UpdatedAt, created)
	}
	later := created.Add(time.Second)
	Touch(user, later)
	if !user.UpdatedAt.Equal(later) {
		t.Fatalf("updated_at = %v, want %v", user.UpdatedAt, later)
	}
}

func TestSame(t *testing.T) {
	t.Parallel()

	a := &State{Base: Base{ID: "1"}, Name: "A"}
	b := &State{Base: Base{ID: "1"}, Name: "B"}
	c := &City{Base: Base{ID: "1"}}
	if !Same(a, b) {
		t.Fatal("expected same state")
	}
	if Same(a, c) {
		t.Fatal("expected different classes to differ")
	}
}

func TestStringRendering(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	state := &State{Base: Base{ID: "s-1", CreatedAt: at, UpdatedAt: at}, Name: "California"}
	state.Extra = map[string]any{"motto": "Eureka", "rank": int64(1)}

	got := String(state)
	want := "[State] (s-1) {'id': 's-1', 'created_at': '2026-03-01T12:00:00.000000', " +
		"'updated_at': '2026-03-01T12:00:00.000000', 'name': 'California', 'motto': 'Eureka', 'rank': 1}"
	if got != want {
		t.Fatalf("string =\n%s\nwant\n%s", got, want)
	}
}

func TestPlaceDefaults(t *testing.T) {
	t.Parallel()

	e, err := New(ClassPlace, nil)
	if err != nil {
		t.Fatalf("new place: %v", err)
	}
	m := ToMap(e)
	if m["latitude"] != nil {
		t.Fatalf("latitude = %v, want nil", m["latitude"])
	}
	if ids, ok := m["amenity_ids"].([]string); !ok || len(ids) != 0 {
		t.Fatalf("amenity_ids = %#v", m["amenity_ids"])
	}
	if m["number_rooms"] != 0 {
		t.Fatalf("number_rooms = %v", m["number_rooms"])
	}
}

func TestDecimalValueSurvivesJSON(t *testing.T) {
	t.Parallel()

	lat := decimal.RequireFromString("37.773972")
	place := &Place{Base: Base{ID: "p", CreatedAt: Now(), UpdatedAt: Now()}, Latitude: decimal.NewNullDecimal(lat), AmenityIDs: []string{}}
	data, err := json.Marshal(ToMap(place))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"latitude":"37.773972"`) {
		t.Fatalf("unexpected json %s", data)
	}
}

func assertSameState(t *testing.T, want, got Entity) {
	t.Helper()
	if got.Class() != want.Class() {
		t.Fatalf("class = %s, want %s", got.Class(), want.Class())
	}
	wm, gm := want.Meta(), got.Meta()
	if gm.ID != wm.ID {
		t.Fatalf("id = %s, want %s", gm.ID, wm.ID)
	}
	if !gm.CreatedAt.Equal(wm.CreatedAt) || !gm.UpdatedAt.Equal(wm.UpdatedAt) {
		t.Fatalf("timestamps = %v/%v, want %v/%v", gm.CreatedAt, gm.UpdatedAt, wm.CreatedAt, wm.UpdatedAt)
	}
	if String(got) != String(want) {
		t.Fatalf("state =\n%s\nwant\n%s", String(got), String(want))
	}
	if !reflect.DeepEqual(gm.Extra, wm.Extra) {
		t.Fatalf("extra = %#v, want %#v", gm.Extra, wm.Extra)
	}
}
