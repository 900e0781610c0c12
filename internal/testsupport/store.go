package testsupport

import (
	"context"
	"testing"

	"artify/internal/catalog"
	"artify/internal/config"
	"artify/internal/logging"
)

// MustOpenCatalog opens a catalog.Store for tests and registers cleanup.
func MustOpenCatalog(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.OpenConfig(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("catalog.OpenConfig: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
