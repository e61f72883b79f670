package fs_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kvd/pkg/fs"
)

const testContentHello = "hello"

func TestAtomicWriter_Write_ReplacesFileContentOnRename(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "final.txt")

	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	writer := fs.NewAtomicWriter(fs.NewReal())

	err := writer.WriteWithDefaults(path, strings.NewReader("new"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if string(got) != "new" {
		t.Fatalf("content=%q, want %q", string(got), "new")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("dir has %d entries after write, want 1 (no leftover temp file)", len(entries))
	}
}

func TestAtomicWriter_Write_CreatesNewFileDurably(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "fresh.txt")

	writer := fs.NewAtomicWriter(fs.NewReal())

	err := writer.WriteWithDefaults(path, strings.NewReader(testContentHello))
	if err != nil {
		t.Fatalf("WriteWithDefaults: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if string(got) != testContentHello {
		t.Fatalf("content=%q, want %q", string(got), testContentHello)
	}
}

func TestAtomicWriter_Write_RejectsEmptyPath(t *testing.T) {
	t.Parallel()

	writer := fs.NewAtomicWriter(fs.NewReal())

	err := writer.WriteWithDefaults("", strings.NewReader("x"))
	if err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestAtomicWriter_Write_LeavesNoTempFileOnDirectoryPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writer := fs.NewAtomicWriter(fs.NewReal())

	err := writer.WriteWithDefaults(dir+string(os.PathSeparator), strings.NewReader("x"))
	if err == nil {
		t.Fatal("expected error for directory path")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}

	if len(entries) != 0 {
		t.Fatalf("dir has %d entries, want 0 (no leftover temp file)", len(entries))
	}
}
