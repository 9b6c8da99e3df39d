package files

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	info, err := ValidateFile(path)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if info.Name != "notes.txt" || info.Size != 5 || !filepath.IsAbs(info.Path) {
		t.Fatalf("info = %+v", info)
	}
	if info.Type == "" {
		t.Fatal("empty MIME type")
	}
}

func TestValidateFile_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.bin")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	info, err := ValidateFile(path)
	if err != nil {
		t.Fatalf("empty files are sendable: %v", err)
	}
	if info.Size != 0 || info.Type != "application/octet-stream" {
		t.Fatalf("info = %+v", info)
	}
}

func TestValidateFile_Rejects(t *testing.T) {
	dir := t.TempDir()
	for _, path := range []string{"", dir, filepath.Join(dir, "missing.txt")} {
		if _, err := ValidateFile(path); !errors.Is(err, ErrInvalidFile) {
			t.Errorf("ValidateFile(%q) err = %v, want ErrInvalidFile", path, err)
		}
	}
}
