package util

import "testing"

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("CG_STRING", "value")
	t.Setenv("CG_EMPTY", "")
	t.Setenv("CG_NUMBER", " 12.5 ")
	t.Setenv("CG_BAD_NUMBER", "twelve")
	t.Setenv("CG_BOOL", "TRUE")
	t.Setenv("CG_BAD_BOOL", "maybe")

	if got := GetEnv("CG_STRING"); got != "value" {
		t.Fatalf("GetEnv: got %q", got)
	}
	if got := GetEnv("CG_MISSING"); got != "" {
		t.Fatalf("GetEnv missing: got %q", got)
	}
	if got := GetEnvString("CG_EMPTY", "fallback"); got != "fallback" {
		t.Fatalf("GetEnvString empty: got %q", got)
	}
	if got := GetEnvNumeric("CG_NUMBER", 1); got != 12.5 {
		t.Fatalf("GetEnvNumeric: got %v", got)
	}
	if got := GetEnvNumeric("CG_BAD_NUMBER", 3); got != 3 {
		t.Fatalf("GetEnvNumeric invalid: got %v", got)
	}
	if got := GetEnvInt("CG_NUMBER", 1); got != 12 {
		t.Fatalf("GetEnvInt: got %v", got)
	}
	if !GetEnvBool("CG_BOOL", false) {
		t.Fatalf("GetEnvBool: expected true")
	}
	if !GetEnvBool("CG_BAD_BOOL", true) {
		t.Fatalf("GetEnvBool invalid: expected default")
	}
}
