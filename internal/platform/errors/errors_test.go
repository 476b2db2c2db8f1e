package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("show: %w", New(CodeNotFound, "state 1 not found"))
	if !stderrors.Is(err, New(CodeNotFound, "")) {
		t.Fatal("expected code match through wrapping")
	}
	if stderrors.Is(err, New(CodeClassUnknown, "")) {
		t.Fatal("expected different codes not to match")
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(CodeStorageUnavailable, "", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
	if err.Error() != "disk full" {
		t.Fatalf("error = %q, want cause text", err.Error())
	}
}

func TestLocalize(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{err: New(CodeClassNameMissing, ""), want: "** class name missing **"},
		{err: New(CodeClassUnknown, ""), want: "** class doesn't exist **"},
		{err: New(CodeInstanceIDMissing, ""), want: "** instance id missing **"},
		{err: New(CodeNotFound, ""), want: "** no instance found **"},
		{err: New(CodeAttributeNameMissing, ""), want: "** attribute name missing **"},
		{err: New(CodeValueMissing, ""), want: "** value missing **"},
		{err: WithMetadata(CodeUnknownSyntax, "", map[string]string{"Line": "ls"}), want: "*** Unknown syntax: ls"},
	}
	for _, tc := range tests {
		if got := tc.err.Localize("en-US"); got != tc.want {
			t.Fatalf("%s localized = %q, want %q", tc.err.Code, got, tc.want)
		}
	}
}

func TestRecoverable(t *testing.T) {
	if !CodeNotFound.Recoverable() {
		t.Fatal("expected not found to be recoverable")
	}
	if CodeStorageConstraint.Recoverable() {
		t.Fatal("expected constraint failures to need a reload")
	}
}
