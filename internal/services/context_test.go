package services_test

import (
	"context"
	"testing"

	"biliwalle/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-1")
	ctx = services.WithStage(ctx, "weave")
	ctx = services.WithGroup(ctx, "1/A/easy/ball")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-1" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "weave" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if group, ok := services.GroupFromContext(ctx); !ok || group != "1/A/easy/ball" {
		t.Fatalf("unexpected group: %v %v", group, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithGroup(ctx, "")
	ctx = services.WithRunID(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.GroupFromContext(ctx); ok {
		t.Fatal("expected no group value")
	}
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id value")
	}
}
