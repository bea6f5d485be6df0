package localfs

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestArchiveRoundTrip(t *testing.T) {
	archive, err := NewArchive(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := archive.Save(ctx, "abc123", strings.NewReader("건강보험료 고지서 원문")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	rc, err := archive.Open(ctx, "abc123")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "건강보험료 고지서 원문" {
		t.Errorf("read back %q", data)
	}
}

func TestArchiveOverwrite(t *testing.T) {
	archive, err := NewArchive(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := archive.Save(ctx, "k", strings.NewReader("old")); err != nil {
		t.Fatal(err)
	}
	if err := archive.Save(ctx, "k", strings.NewReader("new")); err != nil {
		t.Fatal(err)
	}

	rc, err := archive.Open(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "new" {
		t.Errorf("read back %q, want the overwritten content", data)
	}
}

func TestArchiveRejectsTraversalKeys(t *testing.T) {
	archive, err := NewArchive(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	for _, key := range []string{"", "../escape", "a/b", `a\b`, ".."} {
		if err := archive.Save(ctx, key, strings.NewReader("x")); err == nil {
			t.Errorf("key %q accepted", key)
		}
		if _, err := archive.Open(ctx, key); err == nil {
			t.Errorf("key %q opened", key)
		}
	}
}

func TestArchiveOpenMissingKey(t *testing.T) {
	archive, err := NewArchive(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := archive.Open(context.Background(), "missing"); err == nil {
		t.Error("missing key opened without error")
	}
}
