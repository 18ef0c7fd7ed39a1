package services_test

import (
	"errors"
	"strings"
	"testing"

	"nrw/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("disk full")
	err := services.Wrap(services.ErrPersistence, "catalog", "rename", "replace canonical catalog", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrPersistence) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"catalog", "rename", "replace canonical catalog"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrPersistence) {
		t.Fatalf("expected persistence marker by default, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestIsFatal(t *testing.T) {
	if !services.IsFatal(services.Wrap(services.ErrLocked, "pipeline", "lock", "held", nil)) {
		t.Fatal("expected lock error to be fatal")
	}
	if services.IsFatal(services.Wrap(services.ErrValidation, "resolver", "score", "out of range", nil)) {
		t.Fatal("expected validation error to be non-fatal")
	}
	if services.IsFatal(nil) {
		t.Fatal("nil error must not be fatal")
	}
}
