package utils

import (
	"fmt"
	"testing"
)

func TestProcessValidationErrors(t *testing.T) {
	type payload struct {
		TenantId  string `validate:"required"`
		FieldName string `validate:"required"`
	}
	err := GetValidator().Struct(payload{FieldName: "price"})
	if err == nil {
		t.Fatalf("expected validation failure")
	}
	out := ProcessValidationErrors(err)
	if out["TenantId"] != "required" {
		t.Fatalf("expected TenantId required, got %v", out)
	}
	if _, ok := out["FieldName"]; ok {
		t.Fatalf("valid field must not be reported: %v", out)
	}
}

func TestProcessValidationErrors_Wrapped(t *testing.T) {
	type payload struct {
		TenantId string `validate:"required"`
	}
	err := GetValidator().Struct(payload{})
	if err == nil {
		t.Fatalf("expected validation failure")
	}
	out := ProcessValidationErrors(fmt.Errorf("invalid field sample: %w", err))
	if out["TenantId"] != "required" {
		t.Fatalf("wrapped validation error must still map per field, got %v", out)
	}
}

func TestPointerHelpers(t *testing.T) {
	if !*NewTrue() || *NewFalse() {
		t.Fatalf("pointer constructors returned wrong values")
	}
	if got := DereferencePtr(nil, "fallback"); got != "fallback" {
		t.Fatalf("nil pointer must yield the default, got %q", got)
	}
	v := 42
	if got := DereferencePtr(&v, 0); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}
