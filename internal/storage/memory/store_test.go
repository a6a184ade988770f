package memory_test

import (
	"testing"

	"github.com/signalnine/studyscope/internal/storage/memory"
	"github.com/signalnine/studyscope/internal/storage/storagetest"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	storagetest.RunStoreContract(t, store)
}
