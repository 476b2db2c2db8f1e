package i18n

import "testing"

func TestGetCatalogFallback(t *testing.T) {
	base := GetCatalog("en-US")
	if base == nil {
		t.Fatal("expected base catalog")
	}
	fallback := GetCatalog("missing-locale")
	if fallback != base {
		t.Fatal("expected fallback to en-US catalog")
	}
}

func TestBaseCatalogCoversKnownCodes(t *testing.T) {
	base := GetCatalog("en-US")
	meta := map[string]string{"Attribute": "name", "Line": "ls", "Reason": "r"}
	for _, code := range []Code{
		CodeUnknown,
		CodeClassNameMissing,
		CodeClassUnknown,
		CodeInstanceIDMissing,
		CodeAttributeNameMissing,
		CodeValueMissing,
		CodeUnknownSyntax,
		CodeAttributeReadOnly,
		CodeAttributeUnknown,
		CodeAttributeInvalid,
		CodeNotFound,
		CodeStorageConstraint,
		CodeStorageUnavailable,
	} {
		if got := base.Format(code, meta); got == code {
			t.Fatalf("en-US catalog is missing %s", code)
		}
	}
}

func TestLocalizedCatalog(t *testing.T) {
	cat := GetCatalog("pt-BR")
	if cat == GetCatalog("en-US") {
		t.Fatal("expected a distinct pt-BR catalog")
	}
	if got := cat.Format(CodeClassNameMissing, nil); got != "** nome da classe ausente **" {
		t.Fatalf("class name missing = %q", got)
	}
}

func TestFormatFallbacks(t *testing.T) {
	cat := NewCatalog(map[Code]string{
		"code": "hello {{.Name}}",
	})

	if cat.Format("unknown", nil) != "unknown" {
		t.Fatal("expected code fallback when template missing")
	}
	if cat.Format("code", nil) != "hello <no value>" {
		t.Fatal("expected template to render missing metadata")
	}
}

func TestFormatTemplateErrorFallback(t *testing.T) {
	cat := NewCatalog(map[Code]string{
		"code": "{{ if .Name }}",
	})
	if cat.Format("code", map[string]string{"Name": "X"}) != "{{ if .Name }}" {
		t.Fatal("expected template fallback on parse error")
	}
}

func TestFormatRendersMetadata(t *testing.T) {
	if got := GetCatalog("en-US").Format(CodeUnknownSyntax, map[string]string{"Line": "ls -la"}); got != "*** Unknown syntax: ls -la" {
		t.Fatalf("unknown syntax = %q", got)
	}
}
