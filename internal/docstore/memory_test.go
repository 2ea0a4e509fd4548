package docstore_test

import (
	"testing"

	"portfolio-backend-go/internal/docstore"
)

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, docstore.NewMemoryStore())
}
