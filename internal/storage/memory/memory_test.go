package memory

import (
	"testing"

	"github.com/mmynk/racha/internal/storage"
	"github.com/mmynk/racha/internal/storage/storagetest"
)

func TestMemoryStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		return New()
	})
}
