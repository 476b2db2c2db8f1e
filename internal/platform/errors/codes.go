// Package errors provides structured error handling with i18n support.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Command argument errors
	CodeClassNameMissing     Code = "CLASS_NAME_MISSING"
	CodeClassUnknown         Code = "CLASS_UNKNOWN"
	CodeInstanceIDMissing    Code = "INSTANCE_ID_MISSING"
	CodeAttributeNameMissing Code = "ATTRIBUTE_NAME_MISSING"
	CodeValueMissing         Code = "VALUE_MISSING"
	CodeUnknownSyntax        Code = "UNKNOWN_SYNTAX"

	// Attribute errors
	CodeAttributeReadOnly Code = "ATTRIBUTE_READ_ONLY"
	CodeAttributeUnknown  Code = "ATTRIBUTE_UNKNOWN"
	CodeAttributeInvalid  Code = "ATTRIBUTE_INVALID"

	// Storage errors
	CodeNotFound           Code = "NOT_FOUND"
	CodeStorageConstraint  Code = "STORAGE_CONSTRAINT"
	CodeStorageUnavailable Code = "STORAGE_UNAVAILABLE"
)

// Recoverable reports whether the console can continue after an error with
// this code without resynchronizing the working set.
func (c Code) Recoverable() bool {
	switch c {
	case CodeStorageConstraint, CodeStorageUnavailable, CodeUnknown:
		return false
	default:
		return true
	}
}
