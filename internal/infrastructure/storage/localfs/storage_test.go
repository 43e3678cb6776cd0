package localfs

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/ekuzmina/wardrobe-assistant/internal/core/domain"
)

func TestSaveAndOpenNestedKey(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	key := "captures/item-1_shirt.jpg"
	if err := storage.Save(context.Background(), key, strings.NewReader("jpeg-bytes")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	rc, err := storage.Open(context.Background(), key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	blob, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(blob) != "jpeg-bytes" {
		t.Fatalf("read back %q", blob)
	}
}

func TestOpenMissingKeyIsNotFound(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := storage.Open(context.Background(), "cutouts/ghost.png"); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRejectsEscapingKeys(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, key := range []string{"", "../../etc/passwd", "/abs/path"} {
		if err := storage.Save(context.Background(), key, strings.NewReader("x")); err == nil {
			t.Fatalf("key %q accepted", key)
		}
	}
}
