package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeUnknown              = "UNKNOWN"
	CodeClassNameMissing     = "CLASS_NAME_MISSING"
	CodeClassUnknown         = "CLASS_UNKNOWN"
	CodeInstanceIDMissing    = "INSTANCE_ID_MISSING"
	CodeAttributeNameMissing = "ATTRIBUTE_NAME_MISSING"
	CodeValueMissing         = "VALUE_MISSING"
	CodeUnknownSyntax        = "UNKNOWN_SYNTAX"
	CodeAttributeReadOnly    = "ATTRIBUTE_READ_ONLY"
	CodeAttributeUnknown     = "ATTRIBUTE_UNKNOWN"
	CodeAttributeInvalid     = "ATTRIBUTE_INVALID"
	CodeNotFound             = "NOT_FOUND"
	CodeStorageConstraint    = "STORAGE_CONSTRAINT"
	CodeStorageUnavailable   = "STORAGE_UNAVAILABLE"
)
