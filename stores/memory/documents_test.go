package memory

import (
	"json-storage/core"
	"json-storage/stores/storetest"
	"testing"
)

func TestDocumentStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) core.DocumentStore {
		return NewDocumentStore()
	})
}
