package testutil

import (
	"testing"

	"github.com/nhle/planbatch/internal/store"
)

// NewTestStore returns an empty in-memory dispatch journal for tests that
// record or browse sent batches. It is closed when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("opening test journal: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test journal: %v", err)
		}
	})

	return s
}
