package files

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
)

// ErrInvalidFile is wrapped by every ValidateFile error about the file itself.
var ErrInvalidFile = errors.New("invalid file")

// FileInfo holds information about a file to be sent
type FileInfo struct {
	// Path is the absolute path to the file
	Path string

	// Name is the filename (without directory)
	Name string

	// Size is the file size in bytes
	Size int64

	// Type is the MIME type guessed from the extension
	Type string
}

// ValidateFile checks that path names a readable regular file and
// describes it.
func ValidateFile(path string) (FileInfo, error) {
	if path == "" {
		return FileInfo{}, fmt.Errorf("no file specified: %w", ErrInvalidFile)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return FileInfo{}, fmt.Errorf("%s: failed to get absolute path: %w", path, err)
	}

	stat, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return FileInfo{}, fmt.Errorf("%s: file does not exist: %w", path, ErrInvalidFile)
		}
		return FileInfo{}, fmt.Errorf("%s: failed to stat file: %w", path, err)
	}

	if stat.IsDir() {
		return FileInfo{}, fmt.Errorf("%s: is a directory: %w", path, ErrInvalidFile)
	}
	if !stat.Mode().IsRegular() {
		return FileInfo{}, fmt.Errorf("%s: not a regular file: %w", path, ErrInvalidFile)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return FileInfo{}, fmt.Errorf("%s: cannot open file (check permissions): %w", path, err)
	}
	file.Close()

	mimeType := mime.TypeByExtension(filepath.Ext(absPath))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	return FileInfo{
		Path: absPath,
		Name: filepath.Base(absPath),
		Size: stat.Size(),
		Type: mimeType,
	}, nil
}
