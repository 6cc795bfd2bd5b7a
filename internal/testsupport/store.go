package testsupport

import (
	"context"
	"testing"

	"pictor/internal/bags"
	"pictor/internal/config"
)

// MustOpenStore opens a bag store against the test config and closes it
// when the test finishes.
func MustOpenStore(t *testing.T, cfg *config.Config) *bags.Store {
	t.Helper()

	store, err := bags.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}

// AddBag inserts a freshly created digitization bag and returns it.
func AddBag(t *testing.T, store *bags.Store, identifier string) *bags.Bag {
	t.Helper()

	bag, err := store.Add(context.Background(), &bags.Bag{
		Identifier: identifier,
		Origin:     bags.OriginDigitization,
	})
	if err != nil {
		t.Fatalf("add bag %q: %v", identifier, err)
	}
	return bag
}
