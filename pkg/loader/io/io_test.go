package io

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestIOFileLoaderCaches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "descriptors.csv")
	if err := os.WriteFile(path, []byte("first"), 0o644); err != nil {
		t.Fatal(err)
	}
	l := NewIOFileLoader()
	got, err := l.GetFile(context.Background(), path)
	if err != nil || string(got) != "first" {
		t.Fatalf("GetFile() = %q, %v", got, err)
	}

	if err := os.WriteFile(path, []byte("second"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err = l.GetFile(context.Background(), path)
	if err != nil || string(got) != "first" {
		t.Fatalf("cached GetFile() = %q, %v", got, err)
	}

	if _, err := l.GetFile(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
