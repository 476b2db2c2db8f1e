package console

import (
	"reflect"
	"testing"
)

func TestSplitArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want []token
	}{
		{in: `User 1`, want: []token{{Text: "User"}, {Text: "1"}}},
		{in: `name "Ann Lee"`, want: []token{{Text: "name"}, {Text: "Ann Lee", Quoted: true}}},
		{in: `'say "hi"'`, want: []token{{Text: `say "hi"`, Quoted: true}}},
		{in: `"a\"b"`, want: []token{{Text: `a"b`, Quoted: true}}},
		{in: `"a\\b"`, want: []token{{Text: `a\b`, Quoted: true}}},
		{in: `"a\\"`, want: []token{{Text: `a\`, Quoted: true}}},
		{in: `"trailing\`, want: []token{{Text: `trailing\`, Quoted: true}}},
		{in: `C:\dir`, want: []token{{Text: `C:\dir`}}},
	}
	for _, tc := range tests {
		if got := splitArgs(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("splitArgs(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestSplitCommas(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want []string
	}{
		{in: `1, name, x`, want: []string{"1", " name", " x"}},
		{in: `1, name, "Doe, John"`, want: []string{"1", " name", ` "Doe, John"`}},
		{in: `1, 'a\', b'`, want: []string{"1", ` 'a\', b'`}},
		{in: ``, want: []string{""}},
	}
	for _, tc := range tests {
		if got := splitCommas(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("splitCommas(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
