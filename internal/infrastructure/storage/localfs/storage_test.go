package localfs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mockmate/interview-engine/internal/core/domain"
)

func TestStoreThenLoad(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := store.Store(context.Background(), "hiring_model.json", []byte(`{"version":1}`)); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if err := store.Store(context.Background(), "hiring_model.json", []byte(`{"version":2}`)); err != nil {
		t.Fatalf("Store() overwrite error = %v", err)
	}
	data, err := store.Load(context.Background(), "hiring_model.json")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(data) != `{"version":2}` {
		t.Fatalf("unexpected data %q", data)
	}
}

func TestLoadMissingReturnsArtifactNotFound(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_, err = store.Load(context.Background(), "absent.json")
	if !domain.IsKind(err, domain.ErrArtifactNotFound) {
		t.Fatalf("expected ErrArtifactNotFound, got %v", err)
	}
}

func TestRejectsEscapingKeys(t *testing.T) {
	dir := t.TempDir()
	store, err := New(filepath.Join(dir, "artifacts"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for _, key := range []string{"", "../outside.json", "/etc/passwd"} {
		if err := store.Store(context.Background(), key, []byte("x")); !domain.IsKind(err, domain.ErrInvalidInput) {
			t.Fatalf("key %q: expected ErrInvalidInput, got %v", key, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "outside.json")); !os.IsNotExist(err) {
		t.Fatalf("file escaped the artifact dir")
	}
}
