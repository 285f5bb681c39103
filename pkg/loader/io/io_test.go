package io

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/OFFIS-RIT/citegraph/pkg/loader"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	if err := os.WriteFile(path, []byte("<p>saved</p>"), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewIOPageLoader()
	got, err := l.Load(context.Background(), loader.NewPageFile(path))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "<p>saved</p>" {
		t.Fatalf("got %q", got)
	}

	_, err = l.Load(context.Background(), loader.NewPageFile(filepath.Join(dir, "missing.html")))
	if !errors.Is(err, loader.ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
}
