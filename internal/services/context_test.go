package services_test

import (
	"context"
	"testing"

	"artify/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-1")
	ctx = services.WithSource(ctx, "sortiraparis")
	ctx = services.WithStage(ctx, "normalize")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-1" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if source, ok := services.SourceFromContext(ctx); !ok || source != "sortiraparis" {
		t.Fatalf("unexpected source: %v %v", source, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "normalize" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithSource(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.SourceFromContext(ctx); ok {
		t.Fatal("expected no source value")
	}
}
