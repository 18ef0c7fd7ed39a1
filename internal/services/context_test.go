package services_test

import (
	"context"
	"testing"

	"nrw/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithMovieID(ctx, "42")
	ctx = services.WithProvider(ctx, "omdb")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-123" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if id, ok := services.MovieIDFromContext(ctx); !ok || id != "42" {
		t.Fatalf("unexpected movie id: %v %v", id, ok)
	}
	if name, ok := services.ProviderFromContext(ctx); !ok || name != "omdb" {
		t.Fatalf("unexpected provider: %v %v", name, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithMovieID(ctx, "")
	ctx = services.WithProvider(ctx, "")
	if _, ok := services.MovieIDFromContext(ctx); ok {
		t.Fatal("expected no movie id value")
	}
	if _, ok := services.ProviderFromContext(ctx); ok {
		t.Fatal("expected no provider value")
	}
}
