package localfs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ekuzmina/wardrobe-assistant/internal/core/domain"
)

func TestReadWriteRoundTrip(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	blob := []byte(`[{"id":"a"}]`)
	if err := store.Write(context.Background(), "clothing_items", blob); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := store.Read(context.Background(), "clothing_items")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(blob) {
		t.Fatalf("read back %q, want %q", got, blob)
	}
}

func TestReadMissingKeyIsNotFound(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := store.Read(context.Background(), "outfits"); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestWriteLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := store.Write(context.Background(), "outfits", []byte("[]")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "outfits.json.tmp")); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "outfits.json")); err != nil {
		t.Fatalf("collection file missing: %v", err)
	}
}

func TestRejectsPathKeys(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, key := range []string{"", "../escape", "a/b", `a\b`} {
		if err := store.Write(context.Background(), key, []byte("[]")); err == nil {
			t.Fatalf("key %q accepted", key)
		}
	}
}
