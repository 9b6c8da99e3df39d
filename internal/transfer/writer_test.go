package transfer

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveArtifact_NeverOverwrites(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "downloads")

	first, err := SaveArtifact(dir, Artifact{Filename: "report.pdf", Data: []byte("one")})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	second, err := SaveArtifact(dir, Artifact{Filename: "report.pdf", Data: []byte("two")})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if filepath.Base(first) != "report.pdf" || filepath.Base(second) != "report (1).pdf" {
		t.Fatalf("paths = %s, %s", first, second)
	}
	if got, _ := os.ReadFile(first); string(got) != "one" {
		t.Fatalf("first file = %q", got)
	}
	if got, _ := os.ReadFile(second); string(got) != "two" {
		t.Fatalf("second file = %q", got)
	}
}

func TestSaveArtifact_StripsDirectories(t *testing.T) {
	dir := t.TempDir()

	path, err := SaveArtifact(dir, Artifact{Filename: "../../etc/passwd", Data: []byte("x")})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Dir(path) != dir || filepath.Base(path) != "passwd" {
		t.Fatalf("path = %s", path)
	}

	path, err = SaveArtifact(dir, Artifact{Filename: "/"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Base(path) != "download" {
		t.Fatalf("path = %s", path)
	}
}
