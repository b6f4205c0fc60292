package services_test

import (
	"errors"
	"strings"
	"testing"

	"photodistributor/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTransient, "execute", "copy", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"execute", "copy", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestExitCodeMapping(t *testing.T) {
	if code := services.ExitCode(nil); code != 0 {
		t.Fatalf("expected 0 for nil error, got %d", code)
	}
	refusal := services.Wrap(services.ErrValidation, "plan", "check destination", "refused", nil)
	if code := services.ExitCode(refusal); code != 2 {
		t.Fatalf("expected 2 for validation error, got %d", code)
	}
	cfgErr := services.Wrap(services.ErrConfiguration, "config", "load", "bad", nil)
	if code := services.ExitCode(cfgErr); code != 2 {
		t.Fatalf("expected 2 for configuration error, got %d", code)
	}
	ioErr := services.Wrap(services.ErrTransient, "execute", "copy", "disk full", errors.New("io"))
	if code := services.ExitCode(ioErr); code != 1 {
		t.Fatalf("expected 1 for transient error, got %d", code)
	}
}

func TestExitCodeNotFound(t *testing.T) {
	err := services.Wrap(services.ErrNotFound, "history", "find run", "no run matches", nil)
	if code := services.ExitCode(err); code != 1 {
		t.Fatalf("expected 1 for missing run, got %d", code)
	}
}
