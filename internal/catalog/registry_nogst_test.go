//go:build !gst

package catalog_test

import (
	"context"
	"errors"
	"testing"

	"nvrgraph/internal/catalog"
	"nvrgraph/internal/failures"
)

func TestRegistrySourceRequiresBuildTag(t *testing.T) {
	if catalog.RegistryAvailable {
		t.Fatal("registry must be unavailable without the gst tag")
	}
	_, err := catalog.NewRegistrySource([]string{"vacompositor"}).Elements(context.Background())
	if !errors.Is(err, failures.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
