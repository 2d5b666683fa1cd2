package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"biliwalle/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "weave", "encode", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"weave", "encode", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestIsGroupLevel(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"source", services.Wrap(services.ErrSourceNotFound, "weave", "load", "a.wav", nil), true},
		{"ambiguous", services.Wrap(services.ErrAmbiguousMatch, "clips", "glob", "", nil), true},
		{"input", fmt.Errorf("group: %w", services.ErrInvalidInput), true},
		{"tool", services.Wrap(services.ErrExternalTool, "weave", "encode", "", errors.New("exit 1")), true},
		{"config", services.Wrap(services.ErrInvalidConfiguration, "config", "", "bad", nil), false},
		{"canceled", context.Canceled, false},
	}
	for _, tt := range tests {
		if got := services.IsGroupLevel(tt.err); got != tt.want {
			t.Errorf("%s: IsGroupLevel = %v, want %v", tt.name, got, tt.want)
		}
	}
}
